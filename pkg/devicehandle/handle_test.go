package devicehandle

import "testing"

func TestNewHandleStartsClosed(t *testing.T) {
	h := New("d1")
	if h.State() != Closed {
		t.Fatalf("expected Closed, got %v", h.State())
	}
	if h.MessageIDGetInc() != 0 {
		t.Fatal("message-id should start at 0")
	}
}

func TestMessageIDGetIncIsStrictlyIncreasing(t *testing.T) {
	h := New("d1")
	got := []uint64{h.MessageIDGetInc(), h.MessageIDGetInc(), h.MessageIDGetInc()}
	want := []uint64{0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message-id sequence mismatch: got %v want %v", got, want)
		}
	}
}

func TestSetStateClearsFailureReasonOnLeavingClosed(t *testing.T) {
	h := New("d1")
	h.Close("dial timeout")
	if h.FailureReason() == "" {
		t.Fatal("expected a failure reason to be set")
	}

	h.SetState(Connecting)
	if h.FailureReason() != "" {
		t.Fatal("failure reason should be cleared on leaving Closed")
	}
}

func TestSetStateStampsMonotonicTimestamp(t *testing.T) {
	h := New("d1")
	t0 := h.StateEnteredAt()

	h.SetState(Connecting)
	t1 := h.StateEnteredAt()

	if t1.Before(t0) {
		t.Fatal("state-entry timestamp must not go backwards")
	}
}

func TestTransactionBinding(t *testing.T) {
	h := New("d1")
	if h.TransactionID() != 0 {
		t.Fatal("new handle should be unbound (transaction-id 0)")
	}
	h.SetTransactionID(42)
	if h.TransactionID() != 42 {
		t.Fatal("transaction-id should reflect SetTransactionID")
	}
}

func TestOutboundSlotsReplaceAndDrainInOrder(t *testing.T) {
	h := New("d1")
	if err := h.SetOutbound(1, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := h.SetOutbound(2, []byte("second")); err != nil {
		t.Fatal(err)
	}
	// Replacing slot 1 before draining must discard the prior content.
	if err := h.SetOutbound(1, []byte("replaced")); err != nil {
		t.Fatal(err)
	}

	drained := h.DrainOutbound()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained messages, got %d", len(drained))
	}
	if string(drained[0]) != "replaced" || string(drained[1]) != "second" {
		t.Fatalf("drain order mismatch: %q, %q", drained[0], drained[1])
	}

	// A drained handle has no pending content left.
	if more := h.DrainOutbound(); len(more) != 0 {
		t.Fatalf("expected no further drained messages, got %d", len(more))
	}
}

func TestSetOutboundRejectsOutOfRangeSlot(t *testing.T) {
	h := New("d1")
	if err := h.SetOutbound(3, []byte("x")); err == nil {
		t.Fatal("expected an error for a third concurrent deferred message")
	}
}
