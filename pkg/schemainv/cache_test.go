package schemainv

import "testing"

func TestCacheSetRejectsNil(t *testing.T) {
	c := NewCache()
	if err := c.Set(nil); err == nil {
		t.Fatal("Set(nil) should fail")
	}
}

func TestCacheAppendMerges(t *testing.T) {
	c := NewCache()
	c.Append(&Inventory{Modules: []Module{{Name: "a", Revision: "2024-01-01", Namespace: "urn:a"}}})
	c.Append(&Inventory{Modules: []Module{{Name: "b", Revision: "2024-01-01", Namespace: "urn:b"}}})

	if len(c.Get().Modules) != 2 {
		t.Fatalf("expected 2 modules after two appends, got %d", len(c.Get().Modules))
	}
}

func TestCacheOnChangeFiresOnSetAndChangingAppend(t *testing.T) {
	c := NewCache()
	calls := 0
	c.OnChange(func() { calls++ })

	if err := c.Set(&Inventory{Modules: []Module{{Name: "a", Revision: "2024-01-01", Namespace: "urn:a"}}}); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected Set to fire OnChange once, got %d", calls)
	}

	c.Append(&Inventory{Modules: []Module{{Name: "b", Revision: "2024-01-01", Namespace: "urn:b"}}})
	if calls != 2 {
		t.Fatalf("expected a content-changing Append to fire OnChange, got %d", calls)
	}

	c.Append(&Inventory{Modules: []Module{{Name: "b", Revision: "2024-01-01", Namespace: "urn:b"}}})
	if calls != 2 {
		t.Fatalf("expected a no-op Append to not fire OnChange, got %d", calls)
	}
}

func TestCacheCapabilityContains(t *testing.T) {
	c := NewCache()
	c.Capabilities().Add("urn:ietf:params:netconf:capability:candidate:1.0")

	if !c.CapabilityContains("urn:ietf:params:netconf:capability:candidate:1.0?foo=bar") {
		t.Fatal("expected capability to be found ignoring query suffix")
	}
}
