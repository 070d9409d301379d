package specintern

import "github.com/fleetnc/fleetnc/pkg/schemainv"

// Interner deduplicates CompiledSchemaSpecs across devices with structurally
// equal inventories. It is shared, cross-device state (spec §5); accessed
// only from the single event-loop thread, so its refcounts are plain
// integers requiring no atomicity.
type Interner struct {
	// bound tracks which spec each device currently points at.
	bound map[string]*CompiledSchemaSpec
	// inventories tracks the inventory snapshot each bound device was
	// interned against, used for the tree-equal search in Lookup.
	inventories map[string]*schemainv.Inventory
}

// New returns an empty interner.
func New() *Interner {
	return &Interner{
		bound:       make(map[string]*CompiledSchemaSpec),
		inventories: make(map[string]*schemainv.Inventory),
	}
}

// Lookup implements spec §4.D's algorithm: if device already has a spec,
// return it. Otherwise scan every other bound device; if one has a
// tree-equal inventory, share its spec (incrementing its refcount) and bind
// device to it. Otherwise return a freshly-allocated empty spec (refcount 1)
// for the caller to populate via CompiledSchemaSpec.Populate. The boolean
// result reports whether the returned spec is newly allocated (true) or
// shared (false).
func (in *Interner) Lookup(device string, inv *schemainv.Inventory) (spec *CompiledSchemaSpec, isNew bool) {
	if existing, ok := in.bound[device]; ok {
		return existing, false
	}

	for other, otherInv := range in.inventories {
		if other == device {
			continue
		}
		if otherInv.Equal(inv) {
			shared := in.bound[other]
			shared.refcount++
			in.bound[device] = shared
			in.inventories[device] = inv
			return shared, false
		}
	}

	fresh := &CompiledSchemaSpec{refcount: 1}
	in.bound[device] = fresh
	in.inventories[device] = inv
	return fresh, true
}

// Release decrements the spec bound to device and unbinds it. It reports the
// spec's refcount after release (0 when device was not bound); the spec's
// backing tree is not discarded here, even when the refcount reaches zero.
func (in *Interner) Release(device string) int {
	spec, ok := in.bound[device]
	if !ok {
		return 0
	}
	spec.refcount--
	delete(in.bound, device)
	delete(in.inventories, device)
	return spec.refcount
}

// SpecFor borrows the spec currently bound to device, if any.
func (in *Interner) SpecFor(device string) (*CompiledSchemaSpec, bool) {
	s, ok := in.bound[device]
	return s, ok
}

// Clear releases every binding, used at controller shutdown; every spec must
// reach refcount zero afterward (spec §4.D).
func (in *Interner) Clear() {
	for device := range in.bound {
		in.Release(device)
	}
}
