package probe

import (
	"context"
	stderrors "errors"
	"runtime"
	"testing"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/logger"
	"codeberg.org/mutker/hwscore/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGPU struct {
	initErr     error
	info        GPUInfo
	primaryErr  error
	shutdowns   int
	initialized bool
}

func (f *fakeGPU) Initialize() error {
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	return nil
}

func (f *fakeGPU) Shutdown() error {
	f.shutdowns++
	f.initialized = false
	return nil
}

func (f *fakeGPU) Primary() (GPUInfo, error) {
	return f.info, f.primaryErr
}

type fakeHost struct {
	info HostInfo
	err  error
}

func (f *fakeHost) Host(_ context.Context) (HostInfo, error) {
	return f.info, f.err
}

func workstation() HostInfo {
	return HostInfo{
		LogicalCores:  16,
		PhysicalCores: 8,
		FrequencyMHz:  3600,
		MemoryMB:      32768,
		Hostname:      "bench-01",
		OS:            "linux",
		Platform:      "arch",
		KernelArch:    "x86_64",
		CPUModel:      "AMD Ryzen 7 5800X",
		CPUVendor:     "AuthenticAMD",
	}
}

func rtx() GPUInfo {
	return GPUInfo{
		Count:             1,
		Name:              "NVIDIA GeForce RTX 3070",
		UUID:              "GPU-1234",
		DriverVersion:     "550.54",
		CUDADriverVersion: 12040,
		MemoryMB:          8192,
		ComputeMajor:      8,
		ComputeMinor:      6,
	}
}

func TestProbeWithGPU(t *testing.T) {
	gpu := &fakeGPU{info: rtx()}
	p, err := newProber(DefaultConfig(), gpu, &fakeHost{info: workstation()}, logger.Nop())
	require.NoError(t, err)

	snap, ext, err := p.Probe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, profile.BackendNVIDIA, snap.GraphicsBackend)
	assert.Equal(t, profile.Known(8192), snap.GPUMemoryMB)
	assert.Equal(t, profile.Known(86), snap.GPUShaderLevel)
	assert.Equal(t, profile.Known(16), snap.ProcessorCount)
	assert.Equal(t, profile.Known(3600), snap.ProcessorFrequencyMHz)
	assert.Equal(t, profile.Known(32768), snap.SystemMemoryMB)
	assert.False(t, snap.MaxTextureSize.IsKnown(), "NVML does not report texture limits")
	assert.True(t, snap.SupportsComputeShaders)
	assert.True(t, snap.SupportsShadows)
	assert.True(t, snap.SupportsImageEffects)
	assert.InDelta(t, 1.0, snap.SLIScalar, 1e-9)
	assert.True(t, ext.IsZero(), "extended record is opt-in")
}

func TestProbeWithoutGPU(t *testing.T) {
	gpu := &fakeGPU{initErr: stderrors.New("libnvidia-ml.so not found")}
	p, err := newProber(DefaultConfig(), gpu, &fakeHost{info: workstation()}, logger.Nop())
	require.NoError(t, err)

	snap, _, err := p.Probe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, profile.BackendNull, snap.GraphicsBackend)
	assert.False(t, snap.GPUMemoryMB.IsKnown())
	assert.False(t, snap.GPUShaderLevel.IsKnown())
	assert.False(t, snap.SupportsComputeShaders)
	assert.Equal(t, profile.Known(16), snap.ProcessorCount)

	require.NoError(t, p.Shutdown())
	assert.Zero(t, gpu.shutdowns, "uninitialized driver is not shut down")
}

func TestProbeGPUReadFailureDegrades(t *testing.T) {
	gpu := &fakeGPU{primaryErr: errors.New().New(ErrNoDevice)}
	p, err := newProber(DefaultConfig(), gpu, &fakeHost{info: workstation()}, logger.Nop())
	require.NoError(t, err)

	snap, _, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.GPUMemoryMB.IsKnown())
}

func TestProbeOverrides(t *testing.T) {
	texture := 16384
	noShadows := false
	cfg := Config{
		DeviceClass:      "console",
		GraphicsBackend:  "Direct3D12",
		GPUMultithreaded: true,
		MaxTextureSize:   &texture,
		SupportsShadows:  &noShadows,
		SLIScalar:        1.6,
	}

	p, err := newProber(cfg, &fakeGPU{info: rtx()}, &fakeHost{info: workstation()}, logger.Nop())
	require.NoError(t, err)

	snap, _, err := p.Probe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, profile.DeviceConsole, snap.DeviceClass)
	assert.Equal(t, profile.BackendDirect3D12, snap.GraphicsBackend)
	assert.True(t, snap.GPUMultithreaded)
	assert.Equal(t, profile.Known(16384), snap.MaxTextureSize)
	assert.False(t, snap.SupportsShadows)
	assert.True(t, snap.SupportsImageEffects)
	assert.InDelta(t, 1.6, snap.SLIScalar, 1e-9)
}

func TestProbeExtended(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extended = true

	p, err := newProber(cfg, &fakeGPU{info: rtx()}, &fakeHost{info: workstation()}, logger.Nop())
	require.NoError(t, err)

	_, ext, err := p.Probe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "bench-01", ext.Hostname)
	assert.Equal(t, "AMD Ryzen 7 5800X", ext.CPUModel)
	assert.Equal(t, profile.Known(8), ext.PhysicalCores)
	assert.Equal(t, 1, ext.GPUCount)
	assert.Equal(t, "NVIDIA GeForce RTX 3070", ext.GPUName)
	assert.Equal(t, "12.4", ext.CUDADriverVersion)
}

func TestProbeHostFailure(t *testing.T) {
	host := &fakeHost{err: errors.New().New(ErrHostUnreadable)}
	p, err := newProber(DefaultConfig(), &fakeGPU{}, host, logger.Nop())
	require.NoError(t, err)

	_, _, err = p.Probe(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrProbeHost))
	assert.True(t, errors.HasCode(err, ErrHostUnreadable))
}

func TestProbeCanceledContext(t *testing.T) {
	p, err := newProber(DefaultConfig(), &fakeGPU{}, &fakeHost{info: workstation()}, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = p.Probe(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))
}

func TestShutdownIsIdempotent(t *testing.T) {
	gpu := &fakeGPU{info: rtx()}
	p, err := newProber(DefaultConfig(), gpu, &fakeHost{info: workstation()}, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, p.Shutdown())
	require.NoError(t, p.Shutdown())
	assert.Equal(t, 1, gpu.shutdowns)
}

func TestConfigValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"unset sli", Config{}, false},
		{"bad device class", Config{DeviceClass: "fridge"}, true},
		{"sli below one", Config{SLIScalar: 0.5}, true},
		{"sli above range", Config{SLIScalar: 4}, true},
		{"negative texture size", Config{MaxTextureSize: &negative}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDetectDeviceClass(t *testing.T) {
	assert.Equal(t, profile.DeviceHandheld, detectDeviceClass("android"))
	assert.Equal(t, profile.DeviceDesktop, detectDeviceClass("linux"))

	p, err := newProber(DefaultConfig(), &fakeGPU{}, &fakeHost{}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, detectDeviceClass(runtime.GOOS), p.snapshot(HostInfo{}, GPUInfo{}, false).DeviceClass)
}

func TestCudaVersionString(t *testing.T) {
	assert.Equal(t, "12.4", cudaVersionString(12040))
	assert.Equal(t, "11.8", cudaVersionString(11080))
	assert.Equal(t, "", cudaVersionString(0))
}
