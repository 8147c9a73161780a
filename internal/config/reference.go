package config

import (
	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/profile"
)

// Reference names the stored reference and optionally authors one inline
type Reference struct {
	Name    string           `mapstructure:"name"`
	Profile *AuthoredProfile `mapstructure:"profile"`
}

// AuthoredProfile is a reference machine written by hand in the config file.
// Omitted numeric keys are unknown.
type AuthoredProfile struct {
	DeviceClass            string  `mapstructure:"device_class"`
	GraphicsBackend        string  `mapstructure:"graphics_backend"`
	GPUMemoryMB            *int    `mapstructure:"gpu_memory_mb"`
	GPUMultithreaded       bool    `mapstructure:"gpu_multithreaded"`
	GPUShaderLevel         *int    `mapstructure:"gpu_shader_level"`
	MaxTextureSize         *int    `mapstructure:"max_texture_size"`
	SystemMemoryMB         *int    `mapstructure:"system_memory_mb"`
	ProcessorCount         *int    `mapstructure:"processor_count"`
	ProcessorFrequencyMHz  *int    `mapstructure:"processor_frequency_mhz"`
	SupportsComputeShaders bool    `mapstructure:"supports_compute_shaders"`
	SupportsImageEffects   bool    `mapstructure:"supports_image_effects"`
	SupportsShadows        bool    `mapstructure:"supports_shadows"`
	SLIScalar              float64 `mapstructure:"sli_scalar"`
}

// ToProfile converts the authored values into a scoring profile
func (a AuthoredProfile) ToProfile() (profile.Profile, error) {
	errFactory := errors.New()

	class, err := profile.ParseDeviceClass(a.DeviceClass)
	if err != nil {
		return profile.Profile{}, errFactory.Wrap(errors.ErrInvalidProfile, err)
	}

	if !profile.ValidSLIScalar(a.SLIScalar) {
		return profile.Profile{}, errFactory.WithData(errors.ErrInvalidProfile, struct {
			Field string
			Value float64
		}{
			Field: "sli_scalar",
			Value: a.SLIScalar,
		})
	}

	return profile.FromSnapshot(profile.Snapshot{
		DeviceClass:            class,
		GraphicsBackend:        profile.ParseGraphicsBackend(a.GraphicsBackend),
		GPUMemoryMB:            profile.FromPtr(a.GPUMemoryMB),
		GPUMultithreaded:       a.GPUMultithreaded,
		GPUShaderLevel:         profile.FromPtr(a.GPUShaderLevel),
		MaxTextureSize:         profile.FromPtr(a.MaxTextureSize),
		SystemMemoryMB:         profile.FromPtr(a.SystemMemoryMB),
		ProcessorCount:         profile.FromPtr(a.ProcessorCount),
		ProcessorFrequencyMHz:  profile.FromPtr(a.ProcessorFrequencyMHz),
		SupportsComputeShaders: a.SupportsComputeShaders,
		SupportsImageEffects:   a.SupportsImageEffects,
		SupportsShadows:        a.SupportsShadows,
		SLIScalar:              a.SLIScalar,
	}), nil
}
