// Package mountschema implements the mount-point schema provider (spec
// component G): given the XML node at a mount-point, return the yang-library
// module-set describing its schema, while guarding against the generic XML
// fetcher re-entering this provider while it resolves a nested mount-point
// of its own.
package mountschema

import (
	"context"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
	"github.com/openconfig/ygot/ygot"

	"github.com/fleetnc/fleetnc/pkg/schemainv"
	"github.com/fleetnc/fleetnc/pkg/util"
)

// ValidityHint is the side-channel validation-level output of Provide (spec
// §4.G: "a validity-level hint (full or skip)").
type ValidityHint int

const (
	ValidityFull ValidityHint = iota
	ValiditySkip
)

func (v ValidityHint) String() string {
	if v == ValiditySkip {
		return "skip"
	}
	return "full"
}

// WritabilityHint is the side-channel writability output of Provide (spec
// §4.G: "a writability hint (configurable vs read-only)").
type WritabilityHint int

const (
	WritabilityConfigurable WritabilityHint = iota
	WritabilityReadOnly
)

// ModuleSetBundle maps a yang-library module-set name to its parsed
// inventory, as returned by one scoped configuration fetch. Spec §4.G asks
// the provider to "locate the module-set with name mount under the
// standard yang-library namespace" within the fetched reply; the generic
// XML/XPath engine that does that locating is out of scope (spec §1), so
// the Fetcher boundary below hands back the bundle already keyed by
// module-set name.
type ModuleSetBundle map[string]*schemainv.Inventory

// Fetcher is the generic XML/XPath engine boundary this provider calls into
// (spec §1: out of scope). A real fetcher issues one NETCONF get-config
// scoped to path and parses the reply's yang-library container into a
// ModuleSetBundle, reporting a *util.ProtocolFault if the reply carries an
// rpc-error. A fetcher MAY itself encounter another mount-point while
// resolving path and call back into Provider.Provide with the same
// context — the reentrancy guard below exists for exactly that case.
type Fetcher interface {
	FetchConfig(ctx context.Context, path *gnmipb.Path) (ModuleSetBundle, error)
}

// Result is Provide's outcome.
type Result struct {
	// Inventory is the "mount" module-set, or nil when NoSchema or Unknown
	// is set.
	Inventory *schemainv.Inventory
	// NoSchema reports a benign outcome: node isn't a device mount point,
	// or the fetched reply had no "mount" module-set.
	NoSchema bool
	// Unknown reports that this call was reentrant; the outer call already
	// on the stack owns the answer.
	Unknown  bool
	Validity ValidityHint
	Writable WritabilityHint
}

type reentryKey struct{}

// Provider implements the mount-point schema provider (spec component G).
type Provider struct {
	fetch Fetcher
}

// New wires a Provider to fetch, the generic XML/XPath engine boundary.
func New(fetch Fetcher) *Provider {
	return &Provider{fetch: fetch}
}

// Provide implements spec §4.G's algorithm. It uses a context value as the
// reentrancy guard (spec §9 design note: "prefer a context value threaded
// through the fetch interface") rather than a process-wide counter: the
// guard is scoped to this call's derived context, so it returns to its
// entry state on every return path, including error paths, without any
// increment/decrement bookkeeping to get wrong.
func (p *Provider) Provide(ctx context.Context, node *gnmipb.Path) (Result, error) {
	if ctx.Value(reentryKey{}) != nil {
		return Result{Unknown: true}, nil
	}

	if !rootedUnderDevice(node) {
		return Result{NoSchema: true}, nil
	}

	fetchCtx := context.WithValue(ctx, reentryKey{}, true)
	bundle, err := p.fetch.FetchConfig(fetchCtx, node)
	if err != nil {
		pathStr, _ := ygot.PathToString(node)
		device, _ := DeviceName(node)
		return Result{}, util.NewProtocolFault(device, "mount-point fetch failed for "+pathStr, "yang-library")
	}

	inv, ok := bundle["mount"]
	if !ok || inv == nil {
		return Result{NoSchema: true}, nil
	}
	return Result{Inventory: inv, Validity: ValidityFull, Writable: WritabilityConfigurable}, nil
}

// rootedUnderDevice reports whether node begins with /devices/device/...
// (spec §4.G: "if it is not rooted under the device tree ... return no
// schema, a benign outcome: not every subtree is a device mount").
func rootedUnderDevice(node *gnmipb.Path) bool {
	elems := node.GetElem()
	if len(elems) < 2 {
		return false
	}
	return elems[0].GetName() == "devices" && elems[1].GetName() == "device"
}

// DeviceName extracts the "name" key of the path's device element, if
// present, for logging and fault messages.
func DeviceName(node *gnmipb.Path) (string, bool) {
	elems := node.GetElem()
	if len(elems) < 2 {
		return "", false
	}
	name, ok := elems[1].GetKey()["name"]
	return name, ok
}
