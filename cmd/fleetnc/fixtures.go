package main

import (
	"context"
	"fmt"
	"os"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
	"gopkg.in/yaml.v3"

	"github.com/fleetnc/fleetnc/pkg/backend"
	"github.com/fleetnc/fleetnc/pkg/mountschema"
	"github.com/fleetnc/fleetnc/pkg/schemainv"
)

// fixtureModule mirrors schemainv.Module with yaml tags; schemainv itself
// carries no encoding annotations since nothing in the core serializes it.
type fixtureModule struct {
	Name      string `yaml:"name"`
	Revision  string `yaml:"revision"`
	Namespace string `yaml:"namespace"`
}

type fixtureFile struct {
	Devices map[string][]fixtureModule `yaml:"devices"`
}

// loadFixtures seeds mem with one inventory per device, read from a YAML
// file of the shape:
//
//	devices:
//	  r1:
//	    - name: openconfig-interfaces
//	      revision: "2021-04-06"
//
// This stands in for the live yang-library discovery exchange the device
// transport performs, which is out of scope for this core (spec §1).
func loadFixtures(mem *backend.Memory, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	for device, mods := range f.Devices {
		inv := &schemainv.Inventory{}
		for _, m := range mods {
			inv.Modules = append(inv.Modules, schemainv.Module{
				Name:      m.Name,
				Revision:  m.Revision,
				Namespace: m.Namespace,
			})
		}
		mem.Seed(devicePath(device), inv)
	}
	return nil
}

// backendFetcher adapts a backend.Backend to mountschema.Fetcher, wrapping
// the device's module-set inventory as the "mount" entry of a
// ModuleSetBundle (spec §4.G: locate the module-set named "mount").
type backendFetcher struct {
	backend backend.Backend
}

func (f *backendFetcher) FetchConfig(ctx context.Context, path *gnmipb.Path) (mountschema.ModuleSetBundle, error) {
	device, ok := mountschema.DeviceName(path)
	if !ok {
		return nil, fmt.Errorf("fetch path carries no device name")
	}
	inv, err := f.backend.Get(ctx, devicePath(device))
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return mountschema.ModuleSetBundle{}, nil
	}
	return mountschema.ModuleSetBundle{"mount": inv}, nil
}
