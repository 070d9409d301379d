// Package schemalist defines the boundary to the schema-list parser: the
// external collaborator (spec §1) that turns YANG module text into an
// in-memory schema tree. This core never parses YANG source itself; it only
// consumes the resulting tree, represented with goyang's real yang.Entry
// type so the rest of the core (grammar synthesis, the interner) works
// against the same artifact a genuine YANG toolchain would hand back.
package schemalist

import (
	"context"

	"github.com/openconfig/goyang/pkg/yang"

	"github.com/fleetnc/fleetnc/pkg/schemainv"
)

// Parser turns a device's schema inventory into a parsed, import-resolved
// schema tree. Concrete implementations do the real YANG-text fetch and
// parse; this package only describes the boundary and a metadata-only
// adapter usable where no text parser is wired up (tests, and devices whose
// backend only advertises yang-library metadata without module text, e.g.
// over a read-only IPC transport).
type Parser interface {
	ParseModules(ctx context.Context, inv *schemainv.Inventory) (*yang.Entry, error)
}

// MetadataAdapter builds a yang.Entry tree directly from RFC 8525
// module-set metadata (name, revision, namespace) without fetching or
// parsing any module text. It gives every module a single directory entry
// keyed by name, annotated with its revision and namespace, which is enough
// for the grammar synthesizer to produce one production per module and for
// structural-equality checks (spec §4.D, §4.F) to behave correctly on
// metadata alone.
type MetadataAdapter struct{}

// ParseModules implements Parser.
func (MetadataAdapter) ParseModules(_ context.Context, inv *schemainv.Inventory) (*yang.Entry, error) {
	root := &yang.Entry{
		Name: "module-set",
		Kind: yang.DirectoryEntry,
		Dir:  make(map[string]*yang.Entry),
	}
	for _, m := range inv.Modules {
		entry := &yang.Entry{
			Name:   m.Name,
			Kind:   yang.DirectoryEntry,
			Parent: root,
			Dir:    make(map[string]*yang.Entry),
			Annotation: map[string]interface{}{
				"revision":  m.Revision,
				"namespace": m.Namespace,
			},
		}
		for _, sub := range m.Submodules {
			entry.Dir[sub.Name] = &yang.Entry{
				Name:   sub.Name,
				Kind:   yang.LeafEntry,
				Parent: entry,
				Annotation: map[string]interface{}{
					"revision": sub.Revision,
				},
			}
		}
		root.Dir[m.Name] = entry
	}
	return root, nil
}
