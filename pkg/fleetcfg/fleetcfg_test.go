package fleetcfg

import (
	"testing"

	"github.com/fleetnc/fleetnc/pkg/devicehandle"
)

func TestParseValidFleet(t *testing.T) {
	data := []byte(`
devices:
  - name: r1
    address: 10.0.0.1:830
    transport: netconf
  - name: r2
    address: 10.0.0.2:22
    transport: ssh
    user: admin
    remote_cmd: netconf
  - name: r3
    address: internal
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Devices) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(f.Devices))
	}

	r1, ok := f.Find("r1")
	if !ok {
		t.Fatal("expected to find r1")
	}
	kind, err := r1.TransportKind()
	if err != nil {
		t.Fatal(err)
	}
	if kind != devicehandle.ExternalNetconf {
		t.Fatalf("expected ExternalNetconf, got %v", kind)
	}

	r3, _ := f.Find("r3")
	kind3, err := r3.TransportKind()
	if err != nil {
		t.Fatal(err)
	}
	if kind3 != devicehandle.InternalIPC {
		t.Fatalf("expected default InternalIPC, got %v", kind3)
	}

	if got := f.Names(); len(got) != 3 || got[0] != "r1" {
		t.Fatalf("unexpected names: %v", got)
	}
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	data := []byte(`
devices:
  - name: r1
  - name: r1
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected an error for duplicate device names")
	}
}

func TestParseRejectsUnknownTransport(t *testing.T) {
	data := []byte(`
devices:
  - name: r1
    transport: carrier-pigeon
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected an error for an unrecognized transport")
	}
}
