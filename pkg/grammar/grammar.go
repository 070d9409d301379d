// Package grammar implements the grammar synthesizer (spec component E) and
// grammar reference resolver (spec component F). The grammar tree engine
// itself — what the source calls "cligen" — is an external collaborator
// (spec §1); this package only compiles a schema spec into named productions
// and installs/queries them through the Runtime boundary below.
package grammar

// Node is one production in a grammar subtree's top level: enough to do the
// one-level structural equality check spec §4.F requires (same length,
// pairwise node equality) without modeling the full grammar tree engine.
type Node struct {
	Name string
}

// Equal is one-level parse-tree node equality (spec §4.F step 4: pt_eq1 in
// the source this is grounded on).
func (n Node) Equal(other Node) bool { return n.Name == other.Name }

// Runtime is the grammar tree engine boundary: installing and querying named
// grammar subtrees. A real implementation wraps the actual command-grammar
// engine (cligen-shaped); InMemoryRuntime below is a minimal one for tests
// and for operation without that engine wired in.
type Runtime interface {
	// Has reports whether a grammar subtree named name is installed.
	Has(name string) bool
	// Install installs nodes as the named subtree's top level, replacing any
	// prior content.
	Install(name string, nodes []Node)
	// TopLevel borrows the named subtree's top-level nodes.
	TopLevel(name string) ([]Node, bool)
	// Remove uninstalls the named subtree, if present. A no-op if name isn't
	// installed.
	Remove(name string)
}

// InMemoryRuntime is a Runtime backed by a plain map, suitable for tests and
// for driving the CLI without a full cligen-shaped engine wired in.
type InMemoryRuntime struct {
	subtrees map[string][]Node
}

// NewInMemoryRuntime returns an empty runtime.
func NewInMemoryRuntime() *InMemoryRuntime {
	return &InMemoryRuntime{subtrees: make(map[string][]Node)}
}

func (r *InMemoryRuntime) Has(name string) bool {
	_, ok := r.subtrees[name]
	return ok
}

func (r *InMemoryRuntime) Install(name string, nodes []Node) {
	r.subtrees[name] = nodes
}

func (r *InMemoryRuntime) TopLevel(name string) ([]Node, bool) {
	n, ok := r.subtrees[name]
	return n, ok
}

func (r *InMemoryRuntime) Remove(name string) {
	delete(r.subtrees, name)
}

// oneLevelEqual implements the structural-equality check of spec §4.F step
// 4: same length, pairwise node equality, in order.
func oneLevelEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
