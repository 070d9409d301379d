package grammar

import (
	"context"
	"sort"

	"github.com/fleetnc/fleetnc/pkg/schemainv"
	"github.com/fleetnc/fleetnc/pkg/schemalist"
	"github.com/fleetnc/fleetnc/pkg/specintern"
	"github.com/fleetnc/fleetnc/pkg/util"
)

// mountpointTreeName is the grammar subtree naming convention of spec
// §4.E/§3: "mountpoint-<devicename>".
func mountpointTreeName(device string) string {
	return "mountpoint-" + device
}

// Synthesizer implements the grammar synthesizer (spec component E): it
// compiles a device's schema inventory into a named grammar subtree via the
// shared spec interner (component D) and installs it in a Runtime.
type Synthesizer struct {
	runtime  Runtime
	interner *specintern.Interner
	parser   schemalist.Parser
}

// NewSynthesizer wires a Synthesizer to the grammar runtime, the shared
// spec interner, and the schema-list parser (all external to this package
// except the interner, which this core owns per spec §4.D).
func NewSynthesizer(runtime Runtime, interner *specintern.Interner, parser schemalist.Parser) *Synthesizer {
	return &Synthesizer{runtime: runtime, interner: interner, parser: parser}
}

// EnsureGrammarFor implements spec §4.E. Idempotent: if mountpoint-<device>
// already exists, its name is returned unchanged without touching the
// interner. Otherwise the device's CompiledSchemaSpec is obtained or shared
// via the interner; a freshly-allocated spec is populated by parsing every
// module of inv, then the spec is traversed into grammar productions and
// installed.
func (s *Synthesizer) EnsureGrammarFor(ctx context.Context, device string, inv *schemainv.Inventory) (string, error) {
	name := mountpointTreeName(device)
	if s.runtime.Has(name) {
		return name, nil
	}

	spec, isNew := s.interner.Lookup(device, inv)
	if isNew {
		root, err := s.parser.ParseModules(ctx, inv)
		if err != nil {
			s.interner.Release(device)
			return "", util.NewGrammarFault(device, "parsing schema modules: "+err.Error())
		}
		spec.Populate(root)
	}

	s.runtime.Install(name, productionsFromSpec(spec))
	util.WithDevice(device).WithField("tree", name).Debug("grammar subtree installed")
	return name, nil
}

// Invalidate uninstalls device's grammar subtree, if any, and releases its
// binding in the shared interner (spec §4.D's refcount bookkeeping). Wired
// to schemainv.Cache.OnChange so a device whose inventory changes after its
// grammar was compiled is re-synthesized from the new inventory on its next
// EnsureGrammarFor call, rather than serving the grammar/spec compiled from
// the stale one (spec §8 scenario 4).
func (s *Synthesizer) Invalidate(device string) {
	s.runtime.Remove(mountpointTreeName(device))
	s.interner.Release(device)
}

// EnsureAll walks every device in devices and calls EnsureGrammarFor,
// implementing the `-g` eager pre-expansion startup flag (spec §6, §SPEC_FULL
// "Eager grammar pre-expansion"). A device whose grammar cannot be compiled
// is logged and skipped; eager expansion of the rest continues.
func (s *Synthesizer) EnsureAll(ctx context.Context, devices map[string]*schemainv.Inventory) {
	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := s.EnsureGrammarFor(ctx, name, devices[name]); err != nil {
			util.WithDevice(name).Warnf("eager grammar expansion failed: %v", err)
		}
	}
}

// productionsFromSpec traverses a compiled spec's top level into one Node
// per schema node (spec §4.E: "one per schema node following the ambient
// auto-grammar rules"). Module names are sorted for a deterministic
// installed order, since the underlying yang.Entry.Dir is a Go map.
func productionsFromSpec(spec *specintern.CompiledSchemaSpec) []Node {
	if spec.Root == nil {
		return nil
	}
	names := make([]string, 0, len(spec.Root.Dir))
	for name := range spec.Root.Dir {
		names = append(names, name)
	}
	sort.Strings(names)
	nodes := make([]Node, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, Node{Name: name})
	}
	return nodes
}
