package grammar

import (
	"context"
	"errors"
	"testing"

	"github.com/openconfig/goyang/pkg/yang"

	"github.com/fleetnc/fleetnc/pkg/schemainv"
	"github.com/fleetnc/fleetnc/pkg/schemalist"
	"github.com/fleetnc/fleetnc/pkg/specintern"
)

// brokenModuleParser fails for any inventory holding a module named
// "broken" and otherwise defers to MetadataAdapter.
type brokenModuleParser struct{}

func (brokenModuleParser) ParseModules(ctx context.Context, inv *schemainv.Inventory) (*yang.Entry, error) {
	for _, m := range inv.Modules {
		if m.Name == "broken" {
			return nil, errors.New("unparseable module")
		}
	}
	return schemalist.MetadataAdapter{}.ParseModules(ctx, inv)
}

func twoModuleInventory() *schemainv.Inventory {
	return &schemainv.Inventory{Modules: []schemainv.Module{
		{Name: "A", Revision: "2024-01-01", Namespace: "urn:a"},
		{Name: "B", Revision: "2024-01-01", Namespace: "urn:b"},
	}}
}

// TestEnsureGrammarForSharesSpecAcrossEqualInventories is spec §8 scenario 2:
// two devices with equal inventories share one CompiledSchemaSpec (refcount
// 2) and get pairwise-equal top-level grammar subtrees.
func TestEnsureGrammarForSharesSpecAcrossEqualInventories(t *testing.T) {
	runtime := NewInMemoryRuntime()
	interner := specintern.New()
	synth := NewSynthesizer(runtime, interner, schemalist.MetadataAdapter{})
	ctx := context.Background()

	name1, err := synth.EnsureGrammarFor(ctx, "d1", twoModuleInventory())
	if err != nil {
		t.Fatalf("d1: %v", err)
	}
	name2, err := synth.EnsureGrammarFor(ctx, "d2", twoModuleInventory())
	if err != nil {
		t.Fatalf("d2: %v", err)
	}

	if name1 != "mountpoint-d1" || name2 != "mountpoint-d2" {
		t.Fatalf("unexpected tree names: %s %s", name1, name2)
	}
	if !runtime.Has(name1) || !runtime.Has(name2) {
		t.Fatal("both subtrees should be installed")
	}

	spec1, ok1 := interner.SpecFor("d1")
	spec2, ok2 := interner.SpecFor("d2")
	if !ok1 || !ok2 || spec1 != spec2 {
		t.Fatal("expected exactly one shared CompiledSchemaSpec")
	}
	if spec1.Refcount() != 2 {
		t.Fatalf("expected refcount 2, got %d", spec1.Refcount())
	}

	nodes1, _ := runtime.TopLevel(name1)
	nodes2, _ := runtime.TopLevel(name2)
	if !oneLevelEqual(nodes1, nodes2) {
		t.Fatal("top-level parse trees should be pairwise equal")
	}
}

// TestEnsureGrammarForIsIdempotent covers spec §4.E: a second call for the
// same device returns the existing subtree without touching the interner.
func TestEnsureGrammarForIsIdempotent(t *testing.T) {
	runtime := NewInMemoryRuntime()
	interner := specintern.New()
	synth := NewSynthesizer(runtime, interner, schemalist.MetadataAdapter{})
	ctx := context.Background()

	name1, err := synth.EnsureGrammarFor(ctx, "d1", twoModuleInventory())
	if err != nil {
		t.Fatal(err)
	}
	name2, err := synth.EnsureGrammarFor(ctx, "d1", twoModuleInventory())
	if err != nil {
		t.Fatal(err)
	}
	if name1 != name2 {
		t.Fatalf("expected idempotent name, got %s then %s", name1, name2)
	}
	spec, _ := interner.SpecFor("d1")
	if spec.Refcount() != 1 {
		t.Fatalf("idempotent call must not bump refcount, got %d", spec.Refcount())
	}
}

// TestInvalidateForcesResynthesis confirms Invalidate uninstalls a device's
// grammar subtree and releases its interner binding, so the next
// EnsureGrammarFor call recompiles from the inventory passed in rather than
// reusing what was compiled before (spec §8 scenario 4's invalidation
// precondition).
func TestInvalidateForcesResynthesis(t *testing.T) {
	runtime := NewInMemoryRuntime()
	interner := specintern.New()
	synth := NewSynthesizer(runtime, interner, schemalist.MetadataAdapter{})
	ctx := context.Background()

	name, err := synth.EnsureGrammarFor(ctx, "d1", twoModuleInventory())
	if err != nil {
		t.Fatal(err)
	}
	if !runtime.Has(name) {
		t.Fatal("expected mountpoint-d1 to be installed")
	}
	if _, ok := interner.SpecFor("d1"); !ok {
		t.Fatal("expected d1 to be bound in the interner")
	}

	synth.Invalidate("d1")

	if runtime.Has(name) {
		t.Fatal("expected Invalidate to uninstall the grammar subtree")
	}
	if _, ok := interner.SpecFor("d1"); ok {
		t.Fatal("expected Invalidate to release d1's interner binding")
	}

	diverged := &schemainv.Inventory{Modules: []schemainv.Module{
		{Name: "A", Revision: "2024-01-01", Namespace: "urn:a"},
		{Name: "B", Revision: "2024-01-01", Namespace: "urn:b"},
		{Name: "C", Revision: "2024-01-01", Namespace: "urn:c"},
	}}
	name2, err := synth.EnsureGrammarFor(ctx, "d1", diverged)
	if err != nil {
		t.Fatal(err)
	}
	nodes, _ := runtime.TopLevel(name2)
	if len(nodes) != 3 {
		t.Fatalf("expected re-synthesis to reflect the diverged 3-module inventory, got %d nodes", len(nodes))
	}
}

// TestEnsureAllSkipsFailingDevices exercises the -g eager pre-expansion
// path: a device whose inventory cannot be parsed is skipped without
// blocking the rest.
func TestEnsureAllSkipsFailingDevices(t *testing.T) {
	runtime := NewInMemoryRuntime()
	interner := specintern.New()
	synth := NewSynthesizer(runtime, interner, brokenModuleParser{})

	devices := map[string]*schemainv.Inventory{
		"d0": {Modules: []schemainv.Module{{Name: "broken"}}},
		"d1": twoModuleInventory(),
		"d2": twoModuleInventory(),
	}
	synth.EnsureAll(context.Background(), devices)

	if runtime.Has("mountpoint-d0") {
		t.Fatal("EnsureAll should not have installed a grammar for the unparseable device")
	}
	if !runtime.Has("mountpoint-d1") || !runtime.Has("mountpoint-d2") {
		t.Fatal("EnsureAll should have installed grammars for both devices")
	}
}
