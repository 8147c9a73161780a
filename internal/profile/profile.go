// Package profile models the capability snapshot of one machine as used by
// the scoring engine.
package profile

const (
	// DefaultSLIScalar is the multi-GPU fudge factor of a single-GPU machine.
	DefaultSLIScalar = 1.0

	// MaxSLIScalar bounds a configured multi-GPU factor; no consumer
	// multi-GPU setup scales past 3.5.
	MaxSLIScalar = 3.5
)

// ValidSLIScalar reports whether v is usable as a configured scalar. Zero
// means "use the default".
func ValidSLIScalar(v float64) bool {
	return v == 0 || (v >= DefaultSLIScalar && v <= MaxSLIScalar)
}

// Profile is the scoring-relevant capability snapshot of a machine. It is a
// plain value; copies are independent.
type Profile struct {
	DeviceClass     DeviceClass     `json:"device_class" yaml:"device_class"`
	GraphicsBackend GraphicsBackend `json:"graphics_backend" yaml:"graphics_backend"`

	GPUMemoryMB      Measure `json:"gpu_memory_mb" yaml:"gpu_memory_mb"`
	GPUMultithreaded bool    `json:"gpu_multithreaded" yaml:"gpu_multithreaded"`
	GPUShaderLevel   Measure `json:"gpu_shader_level" yaml:"gpu_shader_level"`
	MaxTextureSize   Measure `json:"max_texture_size" yaml:"max_texture_size"`

	SystemMemoryMB        Measure `json:"system_memory_mb" yaml:"system_memory_mb"`
	ProcessorCount        Measure `json:"processor_count" yaml:"processor_count"`
	ProcessorFrequencyMHz Measure `json:"processor_frequency_mhz" yaml:"processor_frequency_mhz"`

	SupportsComputeShaders bool `json:"supports_compute_shaders" yaml:"supports_compute_shaders"`
	SupportsImageEffects   bool `json:"supports_image_effects" yaml:"supports_image_effects"`
	SupportsShadows        bool `json:"supports_shadows" yaml:"supports_shadows"`

	// SLIScalar approximates multi-GPU scaling, which cannot be detected.
	// A dual-card system is roughly 1.6.
	SLIScalar float64 `json:"sli_scalar" yaml:"sli_scalar"`
}

// Snapshot is what a host probe reports. It mirrors Profile so a probe does
// not depend on how profiles are cleared or compared.
type Snapshot struct {
	DeviceClass            DeviceClass
	GraphicsBackend        GraphicsBackend
	GPUMemoryMB            Measure
	GPUMultithreaded       bool
	GPUShaderLevel         Measure
	MaxTextureSize         Measure
	SystemMemoryMB         Measure
	ProcessorCount         Measure
	ProcessorFrequencyMHz  Measure
	SupportsComputeShaders bool
	SupportsImageEffects   bool
	SupportsShadows        bool
	SLIScalar              float64
}

// New returns a cleared profile.
func New() Profile {
	var p Profile
	p.Clear()

	return p
}

// FromSnapshot returns a profile populated from s.
func FromSnapshot(s Snapshot) Profile {
	p := New()
	p.Populate(s)

	return p
}

// Populate overwrites every field from s. A non-positive SLI scalar in the
// snapshot leaves the default in place.
func (p *Profile) Populate(s Snapshot) {
	*p = Profile{
		DeviceClass:            s.DeviceClass,
		GraphicsBackend:        s.GraphicsBackend,
		GPUMemoryMB:            s.GPUMemoryMB,
		GPUMultithreaded:       s.GPUMultithreaded,
		GPUShaderLevel:         s.GPUShaderLevel,
		MaxTextureSize:         s.MaxTextureSize,
		SystemMemoryMB:         s.SystemMemoryMB,
		ProcessorCount:         s.ProcessorCount,
		ProcessorFrequencyMHz:  s.ProcessorFrequencyMHz,
		SupportsComputeShaders: s.SupportsComputeShaders,
		SupportsImageEffects:   s.SupportsImageEffects,
		SupportsShadows:        s.SupportsShadows,
		SLIScalar:              s.SLIScalar,
	}
	if p.SLIScalar <= 0 {
		p.SLIScalar = DefaultSLIScalar
	}
	if p.GraphicsBackend == "" {
		p.GraphicsBackend = BackendNull
	}
}

// Clear resets every field to unknown or its default.
func (p *Profile) Clear() {
	*p = Profile{
		DeviceClass:     DeviceUnknown,
		GraphicsBackend: BackendNull,
		SLIScalar:       DefaultSLIScalar,
	}
}

// IsCleared reports whether p carries no information.
func (p Profile) IsCleared() bool {
	return p == New()
}
