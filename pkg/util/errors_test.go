package util

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	// Test that sentinel errors are distinct
	sentinels := []error{
		ErrTransportFault,
		ErrProtocolFault,
		ErrSchemaFault,
		ErrGrammarFault,
		ErrConsistencyFault,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v == %v", err1, err2)
			}
		}
	}
}

func TestFaultKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"TransportFault", NewTransportFault("d1", "dial timeout", nil), ErrTransportFault},
		{"ProtocolFault", NewProtocolFault("d1", "missing rpc-reply", "rpc-reply"), ErrProtocolFault},
		{"SchemaFault", NewSchemaFault("d1", "ietf-interfaces", "unresolved import"), ErrSchemaFault},
		{"GrammarFault", NewGrammarFault("d1", "no compiled spec"), ErrGrammarFault},
		{"ConsistencyFault", NewConsistencyFault("store.find", "handle reachable but not findable"), ErrConsistencyFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%s should wrap %v", tt.name, tt.sentinel)
			}
			if tt.err.Error() == "" {
				t.Error("Error() should not be empty")
			}
		})
	}
}
