// Package devicestore implements the device handle registry (spec component
// A): an insertion-order collection of devicehandle.DeviceHandle records,
// keyed by name. The source this is grounded on threads handles through an
// intrusive circular list; this is re-architected as an opaque store (spec
// §9), forbidding removal during iteration rather than leaving iterator
// invalidation undefined.
package devicestore

import (
	"github.com/fleetnc/fleetnc/pkg/devicehandle"
	"github.com/fleetnc/fleetnc/pkg/util"
)

// Store owns every live DeviceHandle. No handle outlives the store that
// created it.
type Store struct {
	byName    map[string]*devicehandle.DeviceHandle
	order     []*devicehandle.DeviceHandle
	iterating bool
}

// New returns an empty store.
func New() *Store {
	return &Store{byName: make(map[string]*devicehandle.DeviceHandle)}
}

// Create allocates a new handle named name, starting in Closed. The
// precondition that name is unique among live handles is the caller's to
// enforce (spec §4.A); Create reports a ConsistencyFault on collision rather
// than silently overwriting.
func (s *Store) Create(name string) (*devicehandle.DeviceHandle, error) {
	if _, exists := s.byName[name]; exists {
		return nil, util.NewConsistencyFault("handle-store.create", "name already in use: "+name)
	}
	h := devicehandle.New(name)
	s.byName[name] = h
	s.order = append(s.order, h)
	return h, nil
}

// Find looks up a handle by name; the second return is false when absent.
func (s *Store) Find(name string) (*devicehandle.DeviceHandle, bool) {
	h, ok := s.byName[name]
	return h, ok
}

// Len reports the number of live handles.
func (s *Store) Len() int { return len(s.order) }

// Iterate calls fn for every handle in insertion order, stopping early if fn
// returns false. Removal from within fn is forbidden (spec §9: "iterator
// invalidation on removal is undefined... forbid removal during
// iteration"); Remove returns a ConsistencyFault if called while iterating.
func (s *Store) Iterate(fn func(*devicehandle.DeviceHandle) bool) {
	s.iterating = true
	defer func() { s.iterating = false }()
	for _, h := range s.order {
		if !fn(h) {
			return
		}
	}
}

// Names returns every live handle's name in insertion order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.order))
	s.Iterate(func(h *devicehandle.DeviceHandle) bool {
		names = append(names, h.Name())
		return true
	})
	return names
}

// Remove releases h and all its subordinate resources. The caller is
// responsible for having detached any bound transaction first (spec §4.A:
// "no handle is freed while a transaction has bound it").
func (s *Store) Remove(h *devicehandle.DeviceHandle) error {
	if s.iterating {
		return util.NewConsistencyFault("handle-store.remove", "cannot remove a handle during Iterate")
	}
	if h.TransactionID() != 0 {
		return util.NewConsistencyFault("handle-store.remove", "handle "+h.Name()+" is still bound to a transaction")
	}
	if _, ok := s.byName[h.Name()]; !ok {
		return util.NewConsistencyFault("handle-store.remove", "handle not found in store: "+h.Name())
	}
	delete(s.byName, h.Name())
	for i, cur := range s.order {
		if cur == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear releases every handle, used at controller shutdown.
func (s *Store) Clear() {
	s.byName = make(map[string]*devicehandle.DeviceHandle)
	s.order = nil
}
