// Package fleetcfg loads the static fleet inventory: the list of devices
// the controller knows about before it ever opens a connection, along with
// each device's transport kind and address. Grounded on pkg/settings's
// JSON-file-plus-defaults loader style, adapted to YAML (gopkg.in/yaml.v3)
// since the fleet inventory is a list of records rather than a flat
// settings object — the shape the rest of the retrieved pack uses yaml.v3
// for.
package fleetcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fleetnc/fleetnc/pkg/devicehandle"
)

// DeviceConfig is one fleet member as declared in the inventory file.
type DeviceConfig struct {
	Name      string `yaml:"name"`
	Address   string `yaml:"address"`
	Transport string `yaml:"transport"` // "internal", "netconf", or "ssh"
	User      string `yaml:"user,omitempty"`
	Password  string `yaml:"password,omitempty"` // left empty to prompt interactively
	RemoteCmd string `yaml:"remote_cmd,omitempty"`
}

// TransportKind maps the YAML transport string to the devicehandle enum.
func (d DeviceConfig) TransportKind() (devicehandle.TransportKind, error) {
	switch d.Transport {
	case "", "internal":
		return devicehandle.InternalIPC, nil
	case "netconf":
		return devicehandle.ExternalNetconf, nil
	case "ssh":
		return devicehandle.SSHSubprocess, nil
	default:
		return 0, fmt.Errorf("fleetcfg: device %q: unknown transport %q", d.Name, d.Transport)
	}
}

// Fleet is the parsed inventory file: one entry per device.
type Fleet struct {
	Devices []DeviceConfig `yaml:"devices"`
}

// Load reads and parses a fleet inventory file from path.
func Load(path string) (*Fleet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fleetcfg: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses fleet inventory YAML from data, validating that every
// device has a name and a recognized transport.
func Parse(data []byte) (*Fleet, error) {
	var f Fleet
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("fleetcfg: parse: %w", err)
	}

	seen := make(map[string]bool, len(f.Devices))
	for _, d := range f.Devices {
		if d.Name == "" {
			return nil, fmt.Errorf("fleetcfg: device entry missing name")
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("fleetcfg: duplicate device name %q", d.Name)
		}
		seen[d.Name] = true
		if _, err := d.TransportKind(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// Find returns the named device's config, if present.
func (f *Fleet) Find(name string) (DeviceConfig, bool) {
	for _, d := range f.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceConfig{}, false
}

// Names returns the configured device names in file order.
func (f *Fleet) Names() []string {
	names := make([]string, len(f.Devices))
	for i, d := range f.Devices {
		names[i] = d.Name
	}
	return names
}
