package grammar

import (
	"context"
	"path"

	"github.com/fleetnc/fleetnc/pkg/schemainv"
)

// EditField is one (name, value) pair of an EditContext (spec §3).
type EditField struct {
	Name  string
	Value string
}

// EditContext is the currently-active editing cursor (spec component
// EditContext, §3): an ordered sequence of (name, value) pairs inherited
// from the grammar runtime, from which the resolver extracts the device
// selector.
type EditContext []EditField

// Find returns the value of the first field named name, if any.
func (c EditContext) Find(name string) (string, bool) {
	for _, f := range c {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// DeviceSource is the shallow backend query the resolver needs (spec §4.F
// step 2: "Fetch the current set of device names whose inventory is known
// (one shallow query to the backend)").
type DeviceSource interface {
	// KnownDeviceNames returns every device name whose inventory is known,
	// in a stable order (insertion order in this implementation).
	KnownDeviceNames(ctx context.Context) ([]string, error)
	// InventoryFor returns the inventory known for device.
	InventoryFor(ctx context.Context, device string) (*schemainv.Inventory, error)
}

// dummyGrammarName is the name of the empty fallback grammar installed when
// no single grammar fits a multi-device selection (spec §4.F step 5). Spec
// §9 notes the source's apparent typo "mointpoint"; this implementation
// does not replicate it.
const dummyGrammarName = "mountpoint"

// Resolver implements the grammar reference resolver (spec component F): a
// callback registered with the grammar runtime that, given the reference
// name "mountpoint", rewrites it to the concrete grammar name matching the
// device(s) currently selected by the edit context or token vector.
type Resolver struct {
	runtime Runtime
	synth   *Synthesizer
	devices DeviceSource
}

// NewResolver wires a Resolver to the grammar runtime, the synthesizer
// (component E, used to ensure each matched device's grammar exists), and
// the device-source boundary.
func NewResolver(runtime Runtime, synth *Synthesizer, devices DeviceSource) *Resolver {
	return &Resolver{runtime: runtime, synth: synth, devices: devices}
}

// Resolve implements spec §4.F's algorithm. It returns ok=false to mean
// "leave the reference as-is" (spec: return 0); ok=true carries the
// substitute grammar name (spec: return 1). Only the reference name
// "mountpoint" is handled; any other name is left unresolved.
func (r *Resolver) Resolve(ctx context.Context, name string, tokens []string, editCtx EditContext) (string, bool, error) {
	if name != "mountpoint" {
		return "", false, nil
	}

	selector, ok := deviceSelector(tokens, editCtx)
	if !ok {
		return "", false, nil
	}

	known, err := r.devices.KnownDeviceNames(ctx)
	if err != nil {
		return "", false, err
	}

	var matched []string
	for _, dev := range known {
		ok, err := path.Match(selector, dev)
		if err != nil {
			return "", false, err
		}
		if ok {
			matched = append(matched, dev)
		}
	}
	if len(matched) == 0 {
		return "", false, nil
	}

	var firstTree string
	var firstNodes []Node
	allEqual := true
	for i, dev := range matched {
		inv, err := r.devices.InventoryFor(ctx, dev)
		if err != nil {
			return "", false, err
		}
		tree, err := r.synth.EnsureGrammarFor(ctx, dev, inv)
		if err != nil {
			// GrammarFault: fall through to the empty-grammar fallback
			// exactly as a structural mismatch would (spec §4.E error
			// condition: "the caller falls back to a dummy empty grammar
			// per 4.F").
			return r.installDummy(), false, nil
		}
		nodes, _ := r.runtime.TopLevel(tree)
		if i == 0 {
			firstTree, firstNodes = tree, nodes
			continue
		}
		if !oneLevelEqual(firstNodes, nodes) {
			allEqual = false
		}
	}

	if allEqual {
		return firstTree, true, nil
	}
	return r.installDummy(), false, nil
}

// installDummy installs the empty fallback grammar if not already present
// and returns its name.
func (r *Resolver) installDummy() string {
	if !r.runtime.Has(dummyGrammarName) {
		r.runtime.Install(dummyGrammarName, nil)
	}
	return dummyGrammarName
}

// deviceSelector implements spec §4.F step 1: prefer the edit context's
// "name" field; otherwise scan tokens for the literal "device" and take the
// following token.
func deviceSelector(tokens []string, editCtx EditContext) (string, bool) {
	if v, ok := editCtx.Find("name"); ok && v != "" {
		return v, true
	}
	for i, t := range tokens {
		if t == "device" && i+1 < len(tokens) {
			return tokens[i+1], true
		}
	}
	return "", false
}
