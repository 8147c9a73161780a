package profile

import (
	"fmt"
	"strings"
)

// DeviceClass is the broad form factor of a machine.
type DeviceClass int

const (
	DeviceUnknown DeviceClass = iota
	DeviceDesktop
	DeviceConsole
	DeviceHandheld
)

var deviceClassNames = map[DeviceClass]string{
	DeviceUnknown:  "unknown",
	DeviceDesktop:  "desktop",
	DeviceConsole:  "console",
	DeviceHandheld: "handheld",
}

func (d DeviceClass) String() string {
	if name, ok := deviceClassNames[d]; ok {
		return name
	}

	return fmt.Sprintf("DeviceClass(%d)", int(d))
}

// ParseDeviceClass parses a class name case-insensitively. Laptops and
// tablets count as desktop. An empty name is unknown.
func ParseDeviceClass(name string) (DeviceClass, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unknown":
		return DeviceUnknown, nil
	case "desktop", "laptop", "tablet":
		return DeviceDesktop, nil
	case "console":
		return DeviceConsole, nil
	case "handheld", "mobile":
		return DeviceHandheld, nil
	default:
		return DeviceUnknown, fmt.Errorf("unknown device class %q", name)
	}
}

func (d DeviceClass) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DeviceClass) UnmarshalText(text []byte) error {
	parsed, err := ParseDeviceClass(string(text))
	if err != nil {
		return err
	}
	*d = parsed

	return nil
}

// GraphicsBackend tags the active graphics API or driver family. Backends
// are only ever compared for equality.
type GraphicsBackend string

// Tags produced by the bundled probe or commonly authored in reference files.
const (
	BackendNull       GraphicsBackend = "null"
	BackendNVIDIA     GraphicsBackend = "nvidia"
	BackendVulkan     GraphicsBackend = "vulkan"
	BackendOpenGL     GraphicsBackend = "opengl"
	BackendDirect3D11 GraphicsBackend = "direct3d11"
	BackendDirect3D12 GraphicsBackend = "direct3d12"
	BackendMetal      GraphicsBackend = "metal"
)

// ParseGraphicsBackend normalizes a backend tag; empty means null.
func ParseGraphicsBackend(name string) GraphicsBackend {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return BackendNull
	}

	return GraphicsBackend(name)
}
