package probe

import (
	"context"

	"codeberg.org/mutker/hwscore/internal/profile"
)

// Prober reads the capabilities of the machine it runs on
type Prober interface {
	// Probe returns the scoring snapshot and, when enabled, the extended
	// diagnostic record. GPU failures degrade to unknown fields; an error
	// means the host itself could not be read.
	Probe(ctx context.Context) (profile.Snapshot, profile.Extended, error)

	// Shutdown releases driver handles
	Shutdown() error
}

// gpuSource abstracts the GPU driver for testing
type gpuSource interface {
	Initialize() error
	Shutdown() error
	Primary() (GPUInfo, error)
}

// hostSource abstracts OS queries for testing
type hostSource interface {
	Host(ctx context.Context) (HostInfo, error)
}

// GPUInfo describes the first GPU the driver reports
type GPUInfo struct {
	Count             int
	Name              string
	UUID              string
	DriverVersion     string
	CUDADriverVersion int
	MemoryMB          int
	ComputeMajor      int
	ComputeMinor      int
}

// ShaderLevel ranks the compute capability as major*10+minor, so 8.6 is 86
func (g GPUInfo) ShaderLevel() int {
	return g.ComputeMajor*10 + g.ComputeMinor
}

// HostInfo holds OS-reported CPU, memory and identity details. Zero numeric
// fields mean the value could not be read.
type HostInfo struct {
	LogicalCores    int
	PhysicalCores   int
	FrequencyMHz    int
	MemoryMB        int
	Hostname        string
	HostID          string
	OS              string
	Platform        string
	PlatformVersion string
	KernelArch      string
	Virtualization  string
	CPUModel        string
	CPUVendor       string
}
