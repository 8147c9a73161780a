package profile

// Extended holds diagnostic host details collected for display only. It is
// never scored.
type Extended struct {
	Hostname        string `json:"hostname" yaml:"hostname"`
	HostID          string `json:"host_id" yaml:"host_id"`
	OS              string `json:"os" yaml:"os"`
	Platform        string `json:"platform" yaml:"platform"`
	PlatformVersion string `json:"platform_version" yaml:"platform_version"`
	KernelArch      string `json:"kernel_arch" yaml:"kernel_arch"`
	Virtualization  string `json:"virtualization,omitempty" yaml:"virtualization,omitempty"`

	CPUModel      string  `json:"cpu_model" yaml:"cpu_model"`
	CPUVendor     string  `json:"cpu_vendor" yaml:"cpu_vendor"`
	PhysicalCores Measure `json:"physical_cores" yaml:"physical_cores"`

	GPUCount          int    `json:"gpu_count" yaml:"gpu_count"`
	GPUName           string `json:"gpu_name,omitempty" yaml:"gpu_name,omitempty"`
	GPUUUID           string `json:"gpu_uuid,omitempty" yaml:"gpu_uuid,omitempty"`
	GPUDriverVersion  string `json:"gpu_driver_version,omitempty" yaml:"gpu_driver_version,omitempty"`
	CUDADriverVersion string `json:"cuda_driver_version,omitempty" yaml:"cuda_driver_version,omitempty"`
}

// IsZero reports whether nothing was collected.
func (e Extended) IsZero() bool {
	return e == Extended{}
}
