package scoring

import (
	"fmt"
	"math"
	"strings"
)

// Weights tunes how device class mismatches and missing capabilities
// reduce the score. Owners clamp with Clamp before handing weights to the
// engine; Score reads them as given.
type Weights struct {
	// Base points multipliers, applied when the user's device class differs
	// from the reference's.
	DesktopWeight  float64 `mapstructure:"desktop_weight" json:"desktop_weight" yaml:"desktop_weight"`
	ConsoleWeight  float64 `mapstructure:"console_weight" json:"console_weight" yaml:"console_weight"`
	HandheldWeight float64 `mapstructure:"handheld_weight" json:"handheld_weight" yaml:"handheld_weight"`

	// Logical cores beyond this count add nothing to the CPU score.
	IgnoreCoresAbove int `mapstructure:"ignore_cores_above" json:"ignore_cores_above" yaml:"ignore_cores_above"`

	// Fractional reductions for a capability the reference has and the user lacks.
	GPUMultithreadPenalty float64 `mapstructure:"gpu_multithread_penalty" json:"gpu_multithread_penalty" yaml:"gpu_multithread_penalty"`
	ComputePenalty        float64 `mapstructure:"compute_penalty" json:"compute_penalty" yaml:"compute_penalty"`
	ImageEffectPenalty    float64 `mapstructure:"image_effect_penalty" json:"image_effect_penalty" yaml:"image_effect_penalty"`
	ShadowPenalty         float64 `mapstructure:"shadow_penalty" json:"shadow_penalty" yaml:"shadow_penalty"`
}

// DefaultWeights returns the stock weighting.
func DefaultWeights() Weights {
	return Weights{
		DesktopWeight:         1.0,
		ConsoleWeight:         1.0,
		HandheldWeight:        0.7,
		IgnoreCoresAbove:      2,
		GPUMultithreadPenalty: 0.5,
		ComputePenalty:        0.5,
		ImageEffectPenalty:    0.25,
		ShadowPenalty:         0.9,
	}
}

// Clamp returns a copy with every weight and penalty in [0,1] and
// IgnoreCoresAbove at least 1.
func (w Weights) Clamp() Weights {
	w.DesktopWeight = clampUnit(w.DesktopWeight)
	w.ConsoleWeight = clampUnit(w.ConsoleWeight)
	w.HandheldWeight = clampUnit(w.HandheldWeight)
	w.GPUMultithreadPenalty = clampUnit(w.GPUMultithreadPenalty)
	w.ComputePenalty = clampUnit(w.ComputePenalty)
	w.ImageEffectPenalty = clampUnit(w.ImageEffectPenalty)
	w.ShadowPenalty = clampUnit(w.ShadowPenalty)
	w.IgnoreCoresAbove = max(w.IgnoreCoresAbove, 1)

	return w
}

// Validate reports every field outside its allowed range.
func (w Weights) Validate() error {
	var bad []string
	for _, f := range w.unitFields() {
		if math.IsNaN(f.value) || f.value < 0 || f.value > 1 {
			bad = append(bad, fmt.Sprintf("%s=%g", f.name, f.value))
		}
	}
	if w.IgnoreCoresAbove < 1 {
		bad = append(bad, fmt.Sprintf("ignore_cores_above=%d", w.IgnoreCoresAbove))
	}
	if len(bad) > 0 {
		return fmt.Errorf("weights out of range: %s", strings.Join(bad, ", "))
	}

	return nil
}

type namedWeight struct {
	name  string
	value float64
}

func (w Weights) unitFields() []namedWeight {
	return []namedWeight{
		{"desktop_weight", w.DesktopWeight},
		{"console_weight", w.ConsoleWeight},
		{"handheld_weight", w.HandheldWeight},
		{"gpu_multithread_penalty", w.GPUMultithreadPenalty},
		{"compute_penalty", w.ComputePenalty},
		{"image_effect_penalty", w.ImageEffectPenalty},
		{"shadow_penalty", w.ShadowPenalty},
	}
}

// clampUnit maps NaN to 0.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}
