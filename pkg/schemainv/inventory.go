// Package schemainv holds the per-device schema inventory and capability
// set: the RFC 8525 yang-library shaped module-set a device advertises, and
// the raw NETCONF capability URIs exchanged at session start.
package schemainv

import (
	"sort"
	"strings"
)

// Submodule is a submodule entry under a Module.
type Submodule struct {
	Name     string
	Revision string
}

// Module is one entry of a module-set, keyed by Name.
type Module struct {
	Name       string
	Revision   string
	Namespace  string
	Submodules []Submodule
}

// Equal reports whether m and other are tree-equal: same revision,
// namespace, and submodule set (order-independent).
func (m Module) Equal(other Module) bool {
	if m.Name != other.Name || m.Revision != other.Revision || m.Namespace != other.Namespace {
		return false
	}
	if len(m.Submodules) != len(other.Submodules) {
		return false
	}
	a := append([]Submodule(nil), m.Submodules...)
	b := append([]Submodule(nil), other.Submodules...)
	sort.Slice(a, func(i, j int) bool { return a[i].Name < a[j].Name })
	sort.Slice(b, func(i, j int) bool { return b[i].Name < b[j].Name })
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Inventory is the module-set: an unordered collection of Modules keyed by
// name. The top level of every Inventory is exactly one module-set; there is
// no representation for any other shape, which is how this implementation
// satisfies spec's "validate the top-level is module-set" requirement (see
// the design note on replacing magic-number/shape validation with static
// typing).
type Inventory struct {
	Modules []Module
}

// New returns an empty inventory.
func New() *Inventory {
	return &Inventory{}
}

// Clone deep-copies the inventory.
func (inv *Inventory) Clone() *Inventory {
	if inv == nil {
		return New()
	}
	out := &Inventory{Modules: make([]Module, len(inv.Modules))}
	for i, m := range inv.Modules {
		mm := m
		mm.Submodules = append([]Submodule(nil), m.Submodules...)
		out.Modules[i] = mm
	}
	return out
}

// find returns the index of the module named name, or -1.
func (inv *Inventory) find(name string) int {
	for i, m := range inv.Modules {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// Equal is tree-equality between two inventories: same set of modules
// (order-independent), each pairwise tree-equal. This is the predicate used
// both by Cache.Append's per-module comparison and by the shared spec
// interner's device-to-device comparison (spec §4.D).
func (inv *Inventory) Equal(other *Inventory) bool {
	if inv == nil || other == nil {
		return inv == other
	}
	if len(inv.Modules) != len(other.Modules) {
		return false
	}
	for _, m := range inv.Modules {
		j := other.find(m.Name)
		if j < 0 || !m.Equal(other.Modules[j]) {
			return false
		}
	}
	return true
}

// Append merges src into inv following spec §4.C: for each module in src,
// no match → deep-copy insert; match and tree-equal → no-op; match and
// different → replace the stored module. src is consumed (callers should
// not reuse it after Append). The result reports whether any module was
// inserted or replaced, i.e. whether inv's content actually changed.
func (inv *Inventory) Append(src *Inventory) bool {
	if src == nil {
		return false
	}
	changed := false
	for _, m := range src.Modules {
		i := inv.find(m.Name)
		if i < 0 {
			mm := m
			mm.Submodules = append([]Submodule(nil), m.Submodules...)
			inv.Modules = append(inv.Modules, mm)
			changed = true
			continue
		}
		if inv.Modules[i].Equal(m) {
			continue
		}
		mm := m
		mm.Submodules = append([]Submodule(nil), m.Submodules...)
		inv.Modules[i] = mm
		changed = true
	}
	return changed
}

// CapabilitySet is the unordered set of capability URIs a device advertised
// at session start. Lookup ignores anything from '?' onward, matching
// NETCONF's convention of capability parameters after the base URI
// (grounded on device_handle_capabilities_find in the original sources).
type CapabilitySet struct {
	uris []string
}

// NewCapabilitySet returns an empty capability set.
func NewCapabilitySet() *CapabilitySet {
	return &CapabilitySet{}
}

// Add records a capability URI verbatim.
func (c *CapabilitySet) Add(uri string) {
	c.uris = append(c.uris, uri)
}

// All returns the capability URIs in the order they were added.
func (c *CapabilitySet) All() []string {
	return append([]string(nil), c.uris...)
}

func baseURI(uri string) string {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		return uri[:i]
	}
	return uri
}

// Contains reports whether uri (stripped of any '?' suffix) matches a
// recorded capability's base URI.
func (c *CapabilitySet) Contains(uri string) bool {
	want := baseURI(uri)
	for _, u := range c.uris {
		if baseURI(u) == want {
			return true
		}
	}
	return false
}
