package probe

import (
	"context"
	"math"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/logger"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type gopsutilSource struct {
	logger logger.Logger
}

func newGopsutilSource(log logger.Logger) *gopsutilSource {
	return &gopsutilSource{logger: log}
}

// Host gathers what it can; it fails only when neither CPU nor memory could
// be read.
func (s *gopsutilSource) Host(ctx context.Context) (HostInfo, error) {
	var info HostInfo
	var readable bool

	if n, err := cpu.CountsWithContext(ctx, true); err != nil {
		s.logger.Warn().Err(err).Msg("Could not get logical core count")
	} else {
		info.LogicalCores = n
		readable = true
	}

	if n, err := cpu.CountsWithContext(ctx, false); err != nil {
		s.logger.Debug().Err(err).Msg("Could not get physical core count")
	} else {
		info.PhysicalCores = n
	}

	if stats, err := cpu.InfoWithContext(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Could not get CPU info")
	} else if len(stats) > 0 {
		info.CPUModel = stats[0].ModelName
		info.CPUVendor = stats[0].VendorID
		info.FrequencyMHz = int(math.Round(maxMhz(stats)))
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Could not get system memory")
	} else {
		info.MemoryMB = int(vm.Total / bytesPerMB)
		readable = true
	}

	if h, err := host.InfoWithContext(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("Could not get host info")
	} else {
		info.Hostname = h.Hostname
		info.HostID = h.HostID
		info.OS = h.OS
		info.Platform = h.Platform
		info.PlatformVersion = h.PlatformVersion
		info.KernelArch = h.KernelArch
		if h.VirtualizationRole == "guest" {
			info.Virtualization = h.VirtualizationSystem
		}
	}

	if !readable {
		return info, errors.New().New(ErrHostUnreadable)
	}

	return info, nil
}

// maxMhz picks the fastest reported core; hybrid CPUs list several speeds.
func maxMhz(stats []cpu.InfoStat) float64 {
	var top float64
	for _, s := range stats {
		top = max(top, s.Mhz)
	}

	return top
}
