package scoring

import (
	"bufio"
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"codeberg.org/mutker/hwscore/internal/logger"
	"codeberg.org/mutker/hwscore/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func referenceDesktop() profile.Profile {
	return profile.FromSnapshot(profile.Snapshot{
		DeviceClass:            profile.DeviceDesktop,
		GraphicsBackend:        profile.BackendVulkan,
		GPUMemoryMB:            profile.Known(4096),
		GPUMultithreaded:       true,
		GPUShaderLevel:         profile.Known(50),
		MaxTextureSize:         profile.Known(8192),
		SystemMemoryMB:         profile.Known(16384),
		ProcessorCount:         profile.Known(8),
		ProcessorFrequencyMHz:  profile.Known(3200),
		SupportsComputeShaders: true,
		SupportsImageEffects:   true,
		SupportsShadows:        true,
		SLIScalar:              1.0,
	})
}

func assertFinite(t *testing.T, r Report) {
	t.Helper()
	for name, v := range map[string]float64{
		"overall": r.OverallScore,
		"gpu":     r.GPUScore,
		"cpu":     r.CPUScore,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s score is not finite: %v", name, v)
	}
}

func TestScoreIdenticalProfilesIsParity(t *testing.T) {
	ref := referenceDesktop()

	r := Score(ref, ref, DefaultWeights())

	assert.InDelta(t, 100.0, r.OverallScore, tolerance)
	assert.InDelta(t, 100.0, r.GPUScore, tolerance)
	assert.InDelta(t, 100.0, r.CPUScore, tolerance)
	assert.Empty(t, r.Warnings)
	assert.NotNil(t, r.Warnings)
}

func TestScoreHalfMemoryNoMultithread(t *testing.T) {
	ref := referenceDesktop()
	user := ref
	user.GPUMemoryMB = profile.Known(2048)
	user.GPUMultithreaded = false

	r := Score(ref, user, DefaultWeights())

	// 0.5 memory ratio, then the 0.5 multithread penalty.
	assert.InDelta(t, 25.0, r.GPUScore, tolerance)
	assert.InDelta(t, 100.0, r.CPUScore, tolerance)
	assert.InDelta(t, 75.0, r.OverallScore, tolerance)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, warnMultithread, r.Warnings[0])
}

func TestScoreIgnoresCoresAboveThreshold(t *testing.T) {
	ref := referenceDesktop()
	ref.ProcessorCount = profile.Known(2)
	user := ref
	user.ProcessorCount = profile.Known(16)
	user.ProcessorFrequencyMHz = profile.Known(1600)

	w := DefaultWeights()
	w.IgnoreCoresAbove = 2

	r := Score(ref, user, w)

	assert.InDelta(t, 50.0, r.CPUScore, tolerance, "only the frequency ratio applies")
	assert.Empty(t, r.Warnings)
}

func TestScoreCoreRatioAtOrBelowThreshold(t *testing.T) {
	ref := referenceDesktop()
	ref.ProcessorCount = profile.Known(4)
	user := ref
	user.ProcessorCount = profile.Known(2)

	r := Score(ref, user, DefaultWeights())

	assert.InDelta(t, 50.0, r.CPUScore, tolerance)
}

func TestScoreDeviceClassWeights(t *testing.T) {
	tests := []struct {
		name    string
		ref     profile.DeviceClass
		user    profile.DeviceClass
		overall float64
	}{
		{"same class", profile.DeviceHandheld, profile.DeviceHandheld, 100},
		{"handheld user on desktop reference", profile.DeviceDesktop, profile.DeviceHandheld, 70},
		{"console user", profile.DeviceDesktop, profile.DeviceConsole, 50},
		{"desktop user on console reference", profile.DeviceConsole, profile.DeviceDesktop, 80},
		{"unknown user", profile.DeviceDesktop, profile.DeviceUnknown, 100},
	}

	w := DefaultWeights()
	w.ConsoleWeight = 0.5
	w.DesktopWeight = 0.8

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := referenceDesktop()
			ref.DeviceClass = tt.ref
			user := ref
			user.DeviceClass = tt.user

			r := Score(ref, user, w)

			assert.InDelta(t, tt.overall, r.OverallScore, tolerance)
			assert.InDelta(t, 100.0, r.GPUScore, tolerance, "device class only scales base points")
		})
	}
}

func TestScoreBackendMismatchIsAdvisory(t *testing.T) {
	ref := referenceDesktop()
	user := ref
	user.GraphicsBackend = profile.BackendMetal

	r := Score(ref, user, DefaultWeights())

	assert.InDelta(t, 100.0, r.OverallScore, tolerance)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "different graphics backends")
}

func TestScoreShaderModelWarning(t *testing.T) {
	ref := referenceDesktop()

	t.Run("gap above tolerance", func(t *testing.T) {
		user := ref
		user.GPUShaderLevel = profile.Known(44)

		r := Score(ref, user, DefaultWeights())

		assert.InDelta(t, 88.0, r.GPUScore, tolerance)
		require.Len(t, r.Warnings, 1)
		assert.Contains(t, r.Warnings[0], "shader models")
	})

	t.Run("gap at tolerance", func(t *testing.T) {
		user := ref
		user.GPUShaderLevel = profile.Known(45)

		assert.Empty(t, Score(ref, user, DefaultWeights()).Warnings)
	})
}

func TestScorePenalties(t *testing.T) {
	ref := referenceDesktop()
	user := ref
	user.SupportsShadows = false
	user.SupportsComputeShaders = false
	user.SupportsImageEffects = false

	r := Score(ref, user, DefaultWeights())

	want := 100 * (1 - 0.9) * (1 - 0.5) * (1 - 0.25)
	assert.InDelta(t, want, r.OverallScore, tolerance)
	assert.Equal(t, []string{warnShadows, warnCompute, warnImageEffects}, r.Warnings)
	assert.InDelta(t, 100.0, r.GPUScore, tolerance, "capability penalties apply to the average only")
}

func TestScorePenaltiesAreOneSided(t *testing.T) {
	ref := referenceDesktop()
	ref.SupportsShadows = false
	ref.SupportsComputeShaders = false
	ref.SupportsImageEffects = false
	ref.GPUMultithreaded = false
	user := referenceDesktop()
	user.GraphicsBackend = ref.GraphicsBackend

	r := Score(ref, user, DefaultWeights())

	assert.InDelta(t, 100.0, r.OverallScore, tolerance)
	assert.Empty(t, r.Warnings)
}

func TestScoreExceedsParity(t *testing.T) {
	ref := referenceDesktop()
	user := ref
	user.GPUMemoryMB = profile.Known(8192)
	user.SystemMemoryMB = profile.Known(32768)

	r := Score(ref, user, DefaultWeights())

	assert.InDelta(t, 200.0, r.GPUScore, tolerance)
	assert.InDelta(t, 500.0/3, r.OverallScore, tolerance)
}

func TestScoreMonotonicInGPUMemory(t *testing.T) {
	ref := referenceDesktop()
	user := ref

	prev := math.Inf(-1)
	for mem := 0; mem <= 16384; mem += 512 {
		user.GPUMemoryMB = profile.Known(mem)
		r := Score(ref, user, DefaultWeights())
		assert.GreaterOrEqual(t, r.GPUScore, prev, "gpu_memory_mb=%d", mem)
		prev = r.GPUScore
	}
}

func TestScoreGuardsDegenerateReference(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*profile.Profile)
		want   string
	}{
		{"zero shader level", func(p *profile.Profile) { p.GPUShaderLevel = profile.Known(0) }, "reference shader level is zero"},
		{"unknown shader level", func(p *profile.Profile) { p.GPUShaderLevel = profile.Unknown() }, "reference shader level is unknown"},
		{"zero memory", func(p *profile.Profile) { p.GPUMemoryMB = profile.Known(0) }, "reference GPU memory is zero"},
		{"zero frequency", func(p *profile.Profile) { p.ProcessorFrequencyMHz = profile.Known(0) }, "reference processor frequency is zero"},
		{"unknown system memory", func(p *profile.Profile) { p.SystemMemoryMB = profile.Unknown() }, "reference system memory is unknown"},
		{"non-positive sli", func(p *profile.Profile) { p.SLIScalar = 0 }, "reference SLI scalar is not positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := referenceDesktop()
			user := ref
			tt.mutate(&ref)

			r := Score(ref, user, DefaultWeights())

			assertFinite(t, r)
			assert.InDelta(t, 100.0, r.OverallScore, tolerance, "skipped term is neutral")
			require.Len(t, r.Warnings, 1)
			assert.Contains(t, r.Warnings[0], tt.want)
		})
	}
}

func TestScoreGuardsOutOfRangeSLIRatio(t *testing.T) {
	tests := []struct {
		name      string
		reference float64
		user      float64
		gpuMemory int
		warning   string
	}{
		{
			name:      "tiny reference scalar",
			reference: 1e-320,
			user:      1.0,
			gpuMemory: 4096,
			warning:   "SLI scalar ratio is out of range; SLI scalar ratio skipped",
		},
		{
			name:      "overflowing quotient",
			reference: 1e-10,
			user:      1e308,
			gpuMemory: 4096,
			warning:   "SLI scalar ratio is out of range; SLI scalar ratio skipped",
		},
		{
			name:      "overflowing product",
			reference: 1.0,
			user:      1e308,
			gpuMemory: 8192,
			warning:   "GPU score is out of range; treated as parity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := referenceDesktop()
			ref.SLIScalar = tt.reference
			user := referenceDesktop()
			user.SLIScalar = tt.user
			user.GPUMemoryMB = profile.Known(tt.gpuMemory)

			r := Score(ref, user, DefaultWeights())

			assertFinite(t, r)
			assert.InDelta(t, 100.0, r.GPUScore, tolerance)
			assert.Equal(t, []string{tt.warning}, r.Warnings)

			_, err := json.Marshal(r)
			require.NoError(t, err)
		})
	}
}

func TestScoreUnknownUserMeasureIsNeutral(t *testing.T) {
	ref := referenceDesktop()
	user := ref
	user.MaxTextureSize = profile.Unknown()

	r := Score(ref, user, DefaultWeights())

	assert.InDelta(t, 100.0, r.GPUScore, tolerance)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "user max texture size is unknown")
}

func TestScoreAgainstClearedReference(t *testing.T) {
	user := referenceDesktop()

	r := Score(profile.New(), user, DefaultWeights())

	assertFinite(t, r)
	// Backend mismatch plus one guard per compared dimension. The user's
	// eight cores exceed the threshold, so no core ratio is attempted.
	assert.Len(t, r.Warnings, 6)
	assert.InDelta(t, 100.0, r.OverallScore, tolerance)
	assert.Contains(t, r.Warnings, "reference GPU memory is unknown; GPU memory ratio skipped")
}

func TestEngineComputeIsIdempotent(t *testing.T) {
	e := NewEngine(DefaultWeights())
	e.SetReference(referenceDesktop())
	user := referenceDesktop()
	user.SupportsShadows = false
	e.SetUser(user)

	first := e.Compute()
	second := e.Compute()

	assert.Equal(t, first, second)
	assert.Len(t, second.Warnings, 1, "warnings reset between runs")
	assert.Equal(t, second, e.Report())
}

func TestEngineReportIsACopy(t *testing.T) {
	e := NewEngine(DefaultWeights())
	e.SetReference(referenceDesktop())
	e.SetUser(profile.New())

	r := e.Compute()
	require.NotEmpty(t, r.Warnings)
	r.Warnings[0] = "tampered"

	assert.NotEqual(t, "tampered", e.Report().Warnings[0])
}

func TestEngineClearReference(t *testing.T) {
	e := NewEngine(DefaultWeights())
	e.SetReference(referenceDesktop())
	e.SetUser(referenceDesktop())
	assert.Empty(t, e.Compute().Warnings)

	e.ClearReference()
	assert.True(t, e.Reference().IsCleared())

	r := e.Compute()
	assertFinite(t, r)
	assert.NotEmpty(t, r.Warnings)
}

func TestEngineClampsWeights(t *testing.T) {
	w := DefaultWeights()
	w.ShadowPenalty = 3
	w.HandheldWeight = -1
	w.IgnoreCoresAbove = 0

	e := NewEngine(w)
	assert.InDelta(t, 1.0, e.Weights().ShadowPenalty, tolerance)
	assert.InDelta(t, 0.0, e.Weights().HandheldWeight, tolerance)
	assert.Equal(t, 1, e.Weights().IgnoreCoresAbove)

	e.SetWeights(Weights{ComputePenalty: 2})
	assert.InDelta(t, 1.0, e.Weights().ComputePenalty, tolerance)
}

func TestEngineStartsCleared(t *testing.T) {
	e := NewEngine(DefaultWeights())

	assert.True(t, e.Reference().IsCleared())
	assert.True(t, e.User().IsCleared())
	assert.Empty(t, e.Report().Warnings)
}

func TestEngineLogsWarningsAtInfo(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(DefaultWeights())
	e.SetLogger(logger.New(&buf))
	e.SetReference(referenceDesktop())
	user := referenceDesktop()
	user.SupportsShadows = false
	e.SetUser(user)

	r := e.Compute()
	require.Len(t, r.Warnings, 1)

	var warnings []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		if line["message"] == "Compatibility warning" {
			assert.Equal(t, "info", line["level"])
			warnings = append(warnings, line["warning"].(string))
		}
	}
	assert.Equal(t, r.Warnings, warnings)
}
