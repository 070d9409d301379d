// Package backend models the controller-backend IPC boundary (spec §6):
// the RPCs the core issues against the backend — get-config, get, and
// create-subscription for transaction notifications — plus the two-socket
// close the CLI performs on exit (spec §6: "the general close path targets
// a different socket"; SPEC_FULL's "dual-socket close"). The actual RPC
// transport is out of scope (spec §1); this package specifies the shape
// callers depend on and a minimal in-memory double usable without a live
// backend, grounded on controller_cli.c's controller_cli_start/
// controller_cli_exit (create-subscription at startup, inline close-session
// on the notification socket at exit, the general socket closed
// separately).
package backend

import (
	"context"
	"sync"

	"github.com/fleetnc/fleetnc/pkg/schemainv"
	"github.com/fleetnc/fleetnc/pkg/util"
)

// Socket is an opaque handle to an open RPC or notification channel.
type Socket interface {
	Close() error
}

// Backend is the controller backend boundary (spec §6).
type Backend interface {
	// GetConfig issues a get-config RPC scoped to xpath.
	GetConfig(ctx context.Context, xpath string) (*schemainv.Inventory, error)
	// Get issues a get RPC scoped to xpath (state plus config).
	Get(ctx context.Context, xpath string) (*schemainv.Inventory, error)
	// CreateSubscription opens a notification subscription named name,
	// returning the socket it was created on.
	CreateSubscription(ctx context.Context, name string) (Socket, error)
	// CloseNotification closes sock, the socket returned by
	// CreateSubscription, sending an inline close-session first.
	CloseNotification(ctx context.Context, sock Socket) error
	// CloseGeneral closes the backend's general RPC socket, distinct from
	// the notification socket.
	CloseGeneral(ctx context.Context) error
}

// Memory is an in-process Backend double. GetConfig/Get return whatever was
// registered with Seed; CreateSubscription and CloseGeneral record their
// calls and CloseNotification just closes the socket, without touching any
// real transport. It lets the CLI and its tests run
// without a live NETCONF backend, which is out of scope for this core (spec
// §1).
type Memory struct {
	mu            sync.Mutex
	configs       map[string]*schemainv.Inventory
	subscriptions []string
	closedGeneral bool
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{configs: make(map[string]*schemainv.Inventory)}
}

// Seed registers the inventory returned for a later GetConfig/Get at xpath.
func (m *Memory) Seed(xpath string, inv *schemainv.Inventory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[xpath] = inv
}

// GetConfig implements Backend.
func (m *Memory) GetConfig(_ context.Context, xpath string) (*schemainv.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configs[xpath], nil
}

// Get implements Backend; Memory does not distinguish config from state.
func (m *Memory) Get(ctx context.Context, xpath string) (*schemainv.Inventory, error) {
	return m.GetConfig(ctx, xpath)
}

type memorySocket struct{ name string }

func (memorySocket) Close() error { return nil }

// CreateSubscription implements Backend.
func (m *Memory) CreateSubscription(_ context.Context, name string) (Socket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, name)
	util.WithField("subscription", name).Debug("notification subscription opened")
	return memorySocket{name: name}, nil
}

// CloseNotification implements Backend.
func (m *Memory) CloseNotification(_ context.Context, sock Socket) error {
	return sock.Close()
}

// CloseGeneral implements Backend.
func (m *Memory) CloseGeneral(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closedGeneral = true
	return nil
}

// Subscriptions returns the names passed to CreateSubscription, for tests.
func (m *Memory) Subscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subscriptions...)
}

// ClosedGeneral reports whether CloseGeneral has been called, for tests.
func (m *Memory) ClosedGeneral() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closedGeneral
}
