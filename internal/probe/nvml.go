package probe

import (
	"fmt"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const bytesPerMB = 1024 * 1024

type nvmlSource struct {
	initialized bool
	logger      logger.Logger
}

func newNVMLSource(log logger.Logger) *nvmlSource {
	return &nvmlSource{logger: log}
}

func (s *nvmlSource) Initialize() error {
	errFactory := errors.New()
	if s.initialized {
		return nil
	}

	ret := nvml.Init()
	if !IsNVMLSuccess(ret) {
		return errFactory.Wrap(ErrInitFailed, newNVMLError(ret))
	}

	s.initialized = true

	return nil
}

func (s *nvmlSource) Shutdown() error {
	errFactory := errors.New()
	if !s.initialized {
		return nil
	}

	ret := nvml.Shutdown()
	if !IsNVMLSuccess(ret) {
		return errFactory.Wrap(ErrShutdownFailed, newNVMLError(ret))
	}

	s.initialized = false

	return nil
}

// Primary describes device 0. Name, UUID and driver strings are best effort;
// memory is required.
func (s *nvmlSource) Primary() (GPUInfo, error) {
	errFactory := errors.New()
	if !s.initialized {
		return GPUInfo{}, errFactory.New(ErrNotInitialized)
	}

	count, ret := nvml.DeviceGetCount()
	if !IsNVMLSuccess(ret) {
		return GPUInfo{}, errFactory.Wrap(ErrDeviceCountFailed, newNVMLError(ret))
	}
	if count == 0 {
		return GPUInfo{}, errFactory.New(ErrNoDevice)
	}

	device, ret := nvml.DeviceGetHandleByIndex(0)
	if !IsNVMLSuccess(ret) {
		return GPUInfo{}, errFactory.Wrap(ErrDeviceNotFound, newNVMLError(ret))
	}

	memory, ret := device.GetMemoryInfo()
	if !IsNVMLSuccess(ret) {
		return GPUInfo{}, errFactory.Wrap(ErrMemoryInfoFailed, newNVMLError(ret))
	}

	info := GPUInfo{
		Count:    count,
		MemoryMB: int(memory.Total / bytesPerMB),
	}

	if info.Name, ret = device.GetName(); !IsNVMLSuccess(ret) {
		s.logger.Debug().Str("error", nvml.ErrorString(ret)).Msg("Failed to get GPU name")
	}
	if info.UUID, ret = device.GetUUID(); !IsNVMLSuccess(ret) {
		s.logger.Debug().Str("error", nvml.ErrorString(ret)).Msg("Failed to get GPU UUID")
	}
	if info.ComputeMajor, info.ComputeMinor, ret = device.GetCudaComputeCapability(); !IsNVMLSuccess(ret) {
		s.logger.Debug().Str("error", nvml.ErrorString(ret)).Msg("Failed to get compute capability")
	}
	if info.DriverVersion, ret = nvml.SystemGetDriverVersion(); !IsNVMLSuccess(ret) {
		s.logger.Debug().Str("error", nvml.ErrorString(ret)).Msg("Failed to get driver version")
	}
	if info.CUDADriverVersion, ret = nvml.SystemGetCudaDriverVersion(); !IsNVMLSuccess(ret) {
		s.logger.Debug().Str("error", nvml.ErrorString(ret)).Msg("Failed to get CUDA driver version")
	}

	return info, nil
}

// cudaVersionString renders NVML's 12040 as "12.4"
func cudaVersionString(v int) string {
	if v <= 0 {
		return ""
	}

	return fmt.Sprintf("%d.%d", v/1000, (v%1000)/10)
}
