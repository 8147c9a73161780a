package probe

import (
	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/profile"
)

// Config overrides values the host cannot report. Nil pointers mean "derive
// from the detected GPU".
type Config struct {
	DeviceClass            string  `mapstructure:"device_class"`
	GraphicsBackend        string  `mapstructure:"graphics_backend"`
	GPUMultithreaded       bool    `mapstructure:"gpu_multithreaded"`
	MaxTextureSize         *int    `mapstructure:"max_texture_size"`
	SupportsComputeShaders *bool   `mapstructure:"supports_compute_shaders"`
	SupportsImageEffects   *bool   `mapstructure:"supports_image_effects"`
	SupportsShadows        *bool   `mapstructure:"supports_shadows"`
	SLIScalar              float64 `mapstructure:"sli_scalar"`
	Extended               bool    `mapstructure:"extended"`
}

func DefaultConfig() Config {
	return Config{
		SLIScalar: profile.DefaultSLIScalar,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if _, err := profile.ParseDeviceClass(c.DeviceClass); err != nil {
		return errFactory.Wrap(ErrInvalidConfig, err)
	}
	if !profile.ValidSLIScalar(c.SLIScalar) {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value float64
		}{
			Field: "sli_scalar",
			Value: c.SLIScalar,
		})
	}
	if c.MaxTextureSize != nil && *c.MaxTextureSize < 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value int
		}{
			Field: "max_texture_size",
			Value: *c.MaxTextureSize,
		})
	}

	return nil
}
