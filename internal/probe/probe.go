// Package probe reads the capabilities of the local machine into a
// profile snapshot. GPU details come from NVML; CPU, memory and host
// identity come from the operating system.
package probe

import (
	"context"
	"runtime"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/logger"
	"codeberg.org/mutker/hwscore/internal/profile"
)

type prober struct {
	cfg    Config
	gpu    gpuSource
	host   hostSource
	logger logger.Logger

	gpuReady bool
}

// New returns a Prober for the local machine. A missing or failing NVIDIA
// driver is not an error; GPU fields are then reported unknown.
func New(cfg Config, log logger.Logger) (Prober, error) {
	p, err := newProber(cfg, newNVMLSource(log), newGopsutilSource(log), log)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func newProber(cfg Config, gpu gpuSource, host hostSource, log logger.Logger) (*prober, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	p := &prober{
		cfg:    cfg,
		gpu:    gpu,
		host:   host,
		logger: log,
	}

	if err := gpu.Initialize(); err != nil {
		log.Warn().Err(err).Msg("GPU driver unavailable, GPU capabilities will be unknown")
	} else {
		p.gpuReady = true
	}

	return p, nil
}

func (p *prober) Probe(ctx context.Context) (profile.Snapshot, profile.Extended, error) {
	errFactory := errors.New()

	if err := ctx.Err(); err != nil {
		return profile.Snapshot{}, profile.Extended{}, errFactory.Wrap(errors.ErrTimeout, err)
	}

	hostInfo, err := p.host.Host(ctx)
	if err != nil {
		return profile.Snapshot{}, profile.Extended{}, errFactory.Wrap(errors.ErrProbeHost, err)
	}

	var gpuInfo GPUInfo
	gpuFound := false
	if p.gpuReady {
		if gpuInfo, err = p.gpu.Primary(); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to read GPU, GPU capabilities will be unknown")
		} else {
			gpuFound = true
		}
	}

	snap := p.snapshot(hostInfo, gpuInfo, gpuFound)

	p.logger.Debug().
		Str("device_class", snap.DeviceClass.String()).
		Str("graphics_backend", string(snap.GraphicsBackend)).
		Str("gpu_memory_mb", snap.GPUMemoryMB.String()).
		Str("gpu_shader_level", snap.GPUShaderLevel.String()).
		Str("system_memory_mb", snap.SystemMemoryMB.String()).
		Str("processor_count", snap.ProcessorCount.String()).
		Str("processor_frequency_mhz", snap.ProcessorFrequencyMHz.String()).
		Msg("Host probed")

	var ext profile.Extended
	if p.cfg.Extended {
		ext = extended(hostInfo, gpuInfo, gpuFound)
	}

	return snap, ext, nil
}

func (p *prober) Shutdown() error {
	if !p.gpuReady {
		return nil
	}
	p.gpuReady = false

	return p.gpu.Shutdown()
}

func (p *prober) snapshot(h HostInfo, g GPUInfo, gpuFound bool) profile.Snapshot {
	// Validated in newProber.
	class, _ := profile.ParseDeviceClass(p.cfg.DeviceClass)
	if p.cfg.DeviceClass == "" {
		class = detectDeviceClass(runtime.GOOS)
	}

	snap := profile.Snapshot{
		DeviceClass:            class,
		GraphicsBackend:        profile.BackendNull,
		GPUMemoryMB:            profile.Unknown(),
		GPUMultithreaded:       p.cfg.GPUMultithreaded,
		GPUShaderLevel:         profile.Unknown(),
		MaxTextureSize:         profile.FromPtr(p.cfg.MaxTextureSize),
		SystemMemoryMB:         positive(h.MemoryMB),
		ProcessorCount:         positive(h.LogicalCores),
		ProcessorFrequencyMHz:  positive(h.FrequencyMHz),
		SupportsComputeShaders: orDefault(p.cfg.SupportsComputeShaders, gpuFound),
		SupportsImageEffects:   orDefault(p.cfg.SupportsImageEffects, gpuFound),
		SupportsShadows:        orDefault(p.cfg.SupportsShadows, gpuFound),
		SLIScalar:              p.cfg.SLIScalar,
	}

	if gpuFound {
		snap.GraphicsBackend = profile.BackendNVIDIA
		snap.GPUMemoryMB = profile.Known(g.MemoryMB)
		if level := g.ShaderLevel(); level > 0 {
			snap.GPUShaderLevel = profile.Known(level)
		}
	}
	if p.cfg.GraphicsBackend != "" {
		snap.GraphicsBackend = profile.ParseGraphicsBackend(p.cfg.GraphicsBackend)
	}

	return snap
}

func extended(h HostInfo, g GPUInfo, gpuFound bool) profile.Extended {
	ext := profile.Extended{
		Hostname:        h.Hostname,
		HostID:          h.HostID,
		OS:              h.OS,
		Platform:        h.Platform,
		PlatformVersion: h.PlatformVersion,
		KernelArch:      h.KernelArch,
		Virtualization:  h.Virtualization,
		CPUModel:        h.CPUModel,
		CPUVendor:       h.CPUVendor,
		PhysicalCores:   positive(h.PhysicalCores),
	}
	if gpuFound {
		ext.GPUCount = g.Count
		ext.GPUName = g.Name
		ext.GPUUUID = g.UUID
		ext.GPUDriverVersion = g.DriverVersion
		ext.CUDADriverVersion = cudaVersionString(g.CUDADriverVersion)
	}

	return ext
}

// detectDeviceClass treats mobile operating systems as handheld and
// everything else as desktop.
func detectDeviceClass(goos string) profile.DeviceClass {
	switch goos {
	case "android", "ios":
		return profile.DeviceHandheld
	default:
		return profile.DeviceDesktop
	}
}

// positive treats zero host readings as unknown.
func positive(v int) profile.Measure {
	if v <= 0 {
		return profile.Unknown()
	}

	return profile.Known(v)
}

func orDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}

	return *v
}
