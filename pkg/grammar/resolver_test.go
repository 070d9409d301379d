package grammar

import (
	"context"
	"testing"

	"github.com/fleetnc/fleetnc/pkg/devicestore"
	"github.com/fleetnc/fleetnc/pkg/schemainv"
	"github.com/fleetnc/fleetnc/pkg/schemalist"
	"github.com/fleetnc/fleetnc/pkg/specintern"
)

func newResolverFixture(t *testing.T) (*devicestore.Store, *Resolver, *Synthesizer) {
	t.Helper()
	store := devicestore.New()
	runtime := NewInMemoryRuntime()
	interner := specintern.New()
	synth := NewSynthesizer(runtime, interner, schemalist.MetadataAdapter{})
	resolver := NewResolver(runtime, synth, StoreDeviceSource{Store: store})
	return store, resolver, synth
}

func setInventory(t *testing.T, store *devicestore.Store, synth *Synthesizer, name string, inv *schemainv.Inventory) {
	t.Helper()
	h, ok := store.Find(name)
	if !ok {
		var err error
		h, err = store.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		h.Schema().OnChange(func() { synth.Invalidate(name) })
	}
	if err := h.Schema().Set(inv); err != nil {
		t.Fatal(err)
	}
}

// TestResolverReturnsSharedGrammarForMatchingDevices is spec §8 scenario 3:
// d1 and d2 have equal inventories; resolving "mountpoint" against
// tokens=["device","d*"] returns mountpoint-d1 (the first match).
func TestResolverReturnsSharedGrammarForMatchingDevices(t *testing.T) {
	store, resolver, synth := newResolverFixture(t)
	setInventory(t, store, synth, "d1", twoModuleInventory())
	setInventory(t, store, synth, "d2", twoModuleInventory())

	name, ok, err := resolver.Resolve(context.Background(), "mountpoint", []string{"device", "d*"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if name != "mountpoint-d1" {
		t.Fatalf("expected mountpoint-d1 (first match), got %s", name)
	}
}

// TestResolverFallsBackToDummyOnMismatch is spec §8 scenario 4: d1 and d2
// start with equal inventories and resolve to a shared grammar (scenario 3),
// then d2's cached inventory is mutated to add module C and re-synthesized.
// The resolver must stop picking either device's grammar and install the
// empty "mountpoint" fallback instead — which only happens if changing d2's
// inventory actually invalidates the stale mountpoint-d2 grammar and its
// interned spec rather than serving what was compiled before the change.
func TestResolverFallsBackToDummyOnMismatch(t *testing.T) {
	store, resolver, synth := newResolverFixture(t)
	setInventory(t, store, synth, "d1", twoModuleInventory())
	setInventory(t, store, synth, "d2", twoModuleInventory())

	name, ok, err := resolver.Resolve(context.Background(), "mountpoint", []string{"device", "d*"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || name != "mountpoint-d1" {
		t.Fatalf("expected the two equal devices to share mountpoint-d1 first, got ok=%v name=%s", ok, name)
	}

	diverged := &schemainv.Inventory{Modules: []schemainv.Module{
		{Name: "A", Revision: "2024-01-01", Namespace: "urn:a"},
		{Name: "B", Revision: "2024-01-01", Namespace: "urn:b"},
		{Name: "C", Revision: "2024-01-01", Namespace: "urn:c"},
	}}
	setInventory(t, store, synth, "d2", diverged)

	name, ok, err = resolver.Resolve(context.Background(), "mountpoint", []string{"device", "d*"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected resolution to be refused on structural mismatch")
	}
	if name != "mountpoint" {
		t.Fatalf("expected the empty dummy fallback, got %s", name)
	}
}

// TestResolverLeavesOtherReferencesUnresolved confirms only the
// "mountpoint" reference name is handled (spec §4.F).
func TestResolverLeavesOtherReferencesUnresolved(t *testing.T) {
	_, resolver, _ := newResolverFixture(t)
	_, ok, err := resolver.Resolve(context.Background(), "something-else", []string{"device", "d1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("unrelated reference names must be left unresolved")
	}
}

// TestResolverReturnsUnresolvedWithoutSelector covers step 1: no "name"
// field in the edit context and no "device" token in the token vector.
func TestResolverReturnsUnresolvedWithoutSelector(t *testing.T) {
	_, resolver, _ := newResolverFixture(t)
	_, ok, err := resolver.Resolve(context.Background(), "mountpoint", []string{"show", "interfaces"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no resolution without a device selector")
	}
}

// TestResolverPrefersEditContextOverTokens covers step 1's precedence rule.
func TestResolverPrefersEditContextOverTokens(t *testing.T) {
	store, resolver, synth := newResolverFixture(t)
	setInventory(t, store, synth, "d1", twoModuleInventory())

	ctx := EditContext{{Name: "name", Value: "d1"}}
	name, ok, err := resolver.Resolve(context.Background(), "mountpoint", []string{"device", "nonexistent"}, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || name != "mountpoint-d1" {
		t.Fatalf("expected edit context's name field to win, got ok=%v name=%s", ok, name)
	}
}
