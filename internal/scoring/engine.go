// Package scoring compares a user machine's capability profile with a
// reference profile. The result is a rough heuristic for scaling quality
// settings, not a measurement of performance.
package scoring

import (
	"math"

	"codeberg.org/mutker/hwscore/internal/logger"
	"codeberg.org/mutker/hwscore/internal/profile"
)

const basePoints = 100.0

// Score compares user with reference under w. It never fails: a zero or
// unknown divisor contributes a neutral ratio of 1.0 and a warning.
func Score(reference, user profile.Profile, w Weights) Report {
	l := newLedger()

	points := basePoints * deviceWeight(reference.DeviceClass, user.DeviceClass, w)

	if user.GraphicsBackend != reference.GraphicsBackend {
		l.warn(warnBackendMismatch, reference.GraphicsBackend, user.GraphicsBackend)
	}

	gpu := gpuFraction(l, reference, user, w)
	cpu := cpuFraction(l, reference, user, w)
	ram := ratio(l, dimSystemMemory, user.SystemMemoryMB, reference.SystemMemoryMB)

	avg := (cpu + gpu + ram) / 3

	if reference.SupportsShadows && !user.SupportsShadows {
		avg *= 1 - w.ShadowPenalty
		l.warn(warnShadows)
	}
	if reference.SupportsComputeShaders && !user.SupportsComputeShaders {
		avg *= 1 - w.ComputePenalty
		l.warn(warnCompute)
	}
	if reference.SupportsImageEffects && !user.SupportsImageEffects {
		avg *= 1 - w.ImageEffectPenalty
		l.warn(warnImageEffects)
	}

	return Report{
		OverallScore: avg * points,
		GPUScore:     gpu * 100,
		CPUScore:     cpu * 100,
		Warnings:     l.warnings,
	}
}

// deviceWeight scales base points by the user's class when classes differ.
func deviceWeight(reference, user profile.DeviceClass, w Weights) float64 {
	if user == reference {
		return 1.0
	}

	switch user {
	case profile.DeviceDesktop:
		return w.DesktopWeight
	case profile.DeviceConsole:
		return w.ConsoleWeight
	case profile.DeviceHandheld:
		return w.HandheldWeight
	default:
		return 1.0
	}
}

func gpuFraction(l *ledger, reference, user profile.Profile, w Weights) float64 {
	score := 1.0
	score *= ratio(l, dimGPUMemory, user.GPUMemoryMB, reference.GPUMemoryMB)
	score *= ratio(l, dimShaderLevel, user.GPUShaderLevel, reference.GPUShaderLevel)
	score *= ratio(l, dimTextureSize, user.MaxTextureSize, reference.MaxTextureSize)
	score *= scalarRatio(l, dimSLIScalar, user.SLIScalar, reference.SLIScalar)
	if !isFinite(score) {
		l.warn(warnOverflow, dimGPUScore)
		score = 1.0
	}

	refLevel, refOK := reference.GPUShaderLevel.Value()
	userLevel, userOK := user.GPUShaderLevel.Value()
	if refOK && userOK && refLevel-userLevel > shaderLevelTolerance {
		l.warn(warnShaderModel, refLevel, userLevel)
	}

	if reference.GPUMultithreaded && !user.GPUMultithreaded {
		score -= score * w.GPUMultithreadPenalty
		l.warn(warnMultithread)
	}

	return score
}

func cpuFraction(l *ledger, reference, user profile.Profile, w Weights) float64 {
	score := 1.0

	// Cores past the threshold earn nothing, so the core term stays 1.0.
	if cores, ok := user.ProcessorCount.Value(); !ok || cores <= w.IgnoreCoresAbove {
		score *= ratio(l, dimProcessorCount, user.ProcessorCount, reference.ProcessorCount)
	}
	score *= ratio(l, dimProcessorFreq, user.ProcessorFrequencyMHz, reference.ProcessorFrequencyMHz)

	return score
}

// ratio returns user/reference, or 1.0 with a warning when either side
// cannot be compared.
func ratio(l *ledger, dim dimension, user, reference profile.Measure) float64 {
	ref, ok := reference.Value()
	if !ok {
		l.warn(warnReferenceUnknown, dim, dim)
		return 1.0
	}
	if ref == 0 {
		l.warn(warnReferenceZero, dim, dim)
		return 1.0
	}

	u, ok := user.Value()
	if !ok {
		l.warn(warnUserUnknown, dim, dim)
		return 1.0
	}

	return float64(u) / float64(ref)
}

func scalarRatio(l *ledger, dim dimension, user, reference float64) float64 {
	if !isPositive(reference) {
		l.warn(warnReferenceInvalid, dim, dim)
		return 1.0
	}
	if !isPositive(user) {
		l.warn(warnUserInvalid, dim, dim)
		return 1.0
	}

	q := user / reference
	if !isFinite(q) {
		l.warn(warnRatioOverflow, dim, dim)
		return 1.0
	}

	return q
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Engine holds a reference profile, a user profile, weights, and the most
// recent report. It is not safe for concurrent use; callers serialize
// Compute and the setters.
type Engine struct {
	reference profile.Profile
	user      profile.Profile
	weights   Weights
	report    Report
	log       logger.Logger
}

// NewEngine returns an engine with cleared profiles and clamped weights.
func NewEngine(w Weights) *Engine {
	return &Engine{
		reference: profile.New(),
		user:      profile.New(),
		weights:   w.Clamp(),
		report:    Report{Warnings: []string{}},
		log:       logger.Default(),
	}
}

// Compute scores the held profiles, stores the report, and returns a copy.
// Each compatibility warning is also logged at info level.
func (e *Engine) Compute() Report {
	e.report = Score(e.reference, e.user, e.weights)

	e.log.Debug().
		Float64("overall_score", e.report.OverallScore).
		Float64("gpu_score", e.report.GPUScore).
		Float64("cpu_score", e.report.CPUScore).
		Int("warnings", len(e.report.Warnings)).
		Bool("reference_cleared", e.reference.IsCleared()).
		Msg("Score computed")
	for _, warning := range e.report.Warnings {
		e.log.Info().Str("warning", warning).Msg("Compatibility warning")
	}

	return e.report.Clone()
}

// SetReference replaces the reference profile.
func (e *Engine) SetReference(p profile.Profile) {
	e.reference = p
}

// ClearReference resets the reference to a cleared profile. Scores computed
// against it are neutral and carry a warning per skipped dimension.
func (e *Engine) ClearReference() {
	e.reference.Clear()
}

// SetUser replaces the user profile.
func (e *Engine) SetUser(p profile.Profile) {
	e.user = p
}

// SetWeights replaces the weights, clamping them first.
func (e *Engine) SetWeights(w Weights) {
	e.weights = w.Clamp()
}

// SetLogger replaces the logger Compute reports to.
func (e *Engine) SetLogger(l logger.Logger) {
	e.log = l
}

// Reference returns the reference profile currently held.
func (e *Engine) Reference() profile.Profile {
	return e.reference
}

// User returns the user profile currently held.
func (e *Engine) User() profile.Profile {
	return e.user
}

// Weights returns the clamped weights in use.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Report returns the most recent report.
func (e *Engine) Report() Report {
	return e.report.Clone()
}
