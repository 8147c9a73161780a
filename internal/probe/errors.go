package probe

import (
	"codeberg.org/mutker/hwscore/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("probe_invalid_config")

	// GPU Errors
	ErrNotInitialized    = errors.ErrorCode("probe_gpu_not_initialized")
	ErrInitFailed        = errors.ErrorCode("probe_gpu_init_failed")
	ErrShutdownFailed    = errors.ErrorCode("probe_gpu_shutdown_failed")
	ErrDeviceCountFailed = errors.ErrorCode("probe_gpu_device_count_failed")
	ErrNoDevice          = errors.ErrorCode("probe_gpu_no_device")
	ErrDeviceNotFound    = errors.ErrorCode("probe_gpu_device_not_found")
	ErrMemoryInfoFailed  = errors.ErrorCode("probe_gpu_memory_info_failed")

	// Host Errors
	ErrHostUnreadable = errors.ErrorCode("probe_host_unreadable")
)

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

// newNVMLError creates an error from an NVML return code
func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}

// IsNVMLSuccess checks if a Return value indicates success
func IsNVMLSuccess(ret nvml.Return) bool {
	return ret == nvml.SUCCESS
}
