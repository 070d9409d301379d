package schemainv

import "github.com/fleetnc/fleetnc/pkg/util"

// Cache is the per-device schema inventory cache (component C). It does not
// itself download anything; the external transport layer fills it as schema
// discovery messages arrive.
type Cache struct {
	inventory    *Inventory
	capabilities *CapabilitySet
	onChange     func()
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{inventory: New(), capabilities: NewCapabilitySet()}
}

// OnChange registers fn to be called whenever Set or Append actually changes
// the stored inventory. The grammar synthesizer's Invalidate uses this to
// uninstall a device's grammar subtree and release its interner binding the
// moment its inventory stops being what that grammar was compiled from
// (spec §8 scenario 4); at most one callback is held, replacing any prior
// registration.
func (c *Cache) OnChange(fn func()) { c.onChange = fn }

// Set replaces the stored inventory wholesale, taking ownership of inv.
func (c *Cache) Set(inv *Inventory) error {
	if inv == nil {
		return util.NewSchemaFault("", "", "cannot set a nil inventory")
	}
	c.inventory = inv
	c.notify()
	return nil
}

// Append merges inv into the stored inventory per the module-by-module
// algorithm in spec §4.C. inv is consumed.
func (c *Cache) Append(inv *Inventory) {
	if c.inventory == nil {
		c.inventory = New()
	}
	if c.inventory.Append(inv) {
		c.notify()
	}
}

func (c *Cache) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

// Get borrows the current inventory. Callers must not mutate the result;
// treat it as read-only exactly as the interner and the grammar synthesizer
// do.
func (c *Cache) Get() *Inventory {
	return c.inventory
}

// Capabilities borrows the capability set for recording newly advertised
// capabilities during the exchange at session start.
func (c *Cache) Capabilities() *CapabilitySet {
	return c.capabilities
}

// CapabilityContains reports whether uri is among the recorded capabilities,
// ignoring any '?'-delimited parameters.
func (c *Cache) CapabilityContains(uri string) bool {
	return c.capabilities.Contains(uri)
}
