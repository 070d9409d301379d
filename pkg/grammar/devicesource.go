package grammar

import (
	"context"

	"github.com/fleetnc/fleetnc/pkg/devicehandle"
	"github.com/fleetnc/fleetnc/pkg/devicestore"
	"github.com/fleetnc/fleetnc/pkg/schemainv"
	"github.com/fleetnc/fleetnc/pkg/util"
)

// StoreDeviceSource adapts a devicestore.Store to the resolver's
// DeviceSource boundary. A device counts as "known" (spec §4.F step 2:
// "device names whose inventory is known") once its cache holds at least
// one module.
type StoreDeviceSource struct {
	Store *devicestore.Store
}

// KnownDeviceNames implements DeviceSource.
func (s StoreDeviceSource) KnownDeviceNames(_ context.Context) ([]string, error) {
	var names []string
	s.Store.Iterate(func(h *devicehandle.DeviceHandle) bool {
		if len(h.Schema().Get().Modules) > 0 {
			names = append(names, h.Name())
		}
		return true
	})
	return names, nil
}

// InventoryFor implements DeviceSource.
func (s StoreDeviceSource) InventoryFor(_ context.Context, device string) (*schemainv.Inventory, error) {
	h, ok := s.Store.Find(device)
	if !ok {
		return nil, util.NewConsistencyFault("grammar.device-source", "device not found: "+device)
	}
	return h.Schema().Get(), nil
}
