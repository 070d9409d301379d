// Package devicehandle implements the per-device state machine (spec
// component B): connection state, timestamps, transaction binding, framing
// state, and the two-slot pending-outbound-message pipeline. A DeviceHandle
// is exclusively owned by a devicestore.Store; nothing here retains a
// reference past the handle's removal.
package devicehandle

import (
	"time"

	"github.com/fleetnc/fleetnc/pkg/schemainv"
	"github.com/fleetnc/fleetnc/pkg/util"
)

// ConnState is one of the eight states in spec §4.B.
type ConnState int

const (
	Closed ConnState = iota
	Connecting
	SchemaList
	SchemaOne
	OpenSync
	Open
	Wresp
	Closing
)

func (s ConnState) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Connecting:
		return "Connecting"
	case SchemaList:
		return "SchemaList"
	case SchemaOne:
		return "SchemaOne"
	case OpenSync:
		return "OpenSync"
	case Open:
		return "Open"
	case Wresp:
		return "Wresp"
	case Closing:
		return "Closing"
	default:
		return "Unknown"
	}
}

// TransportKind is how the handle's I/O descriptor was obtained.
type TransportKind int

const (
	InternalIPC TransportKind = iota
	ExternalNetconf
	SSHSubprocess
)

func (k TransportKind) String() string {
	switch k {
	case InternalIPC:
		return "internal-ipc"
	case ExternalNetconf:
		return "external-netconf"
	case SSHSubprocess:
		return "ssh-subprocess"
	default:
		return "unknown"
	}
}

// YangConfigMode is how a mounted subtree's config-ness is interpreted.
type YangConfigMode int

const (
	YangConfigNone YangConfigMode = iota
	YangConfigBind
	YangConfigValidate
)

// outboundSlots is the fixed capacity of the pending-outbound pipeline
// (spec §4.B: "carries exactly two optional outbound slots").
const outboundSlots = 2

// DeviceHandle is the per-device session record. Exported fields would
// invite mutation outside the state-machine transitions this package
// enforces, so every mutable attribute is accessed through methods, mirroring
// the accessor-pair discipline of the source this is grounded on (every
// device_handle_X_get/set pair there becomes one Go method pair here,
// replacing the magic-number sanity check with Go's static typing).
type DeviceHandle struct {
	name string

	state          ConnState
	stateEnteredAt time.Time
	lastSyncAt     time.Time

	transportKind TransportKind
	childPID      int
	errDescriptor string

	msgID uint64
	txnID uint64

	frame *FrameState

	out [outboundSlots][]byte

	failureReason string

	domain string

	yangConfigMode YangConfigMode

	schema *schemainv.Cache

	// pendingModuleName/pendingModuleRev describe the module currently being
	// downloaded while in SchemaOne, mirroring the source's per-handle
	// "schema name/rev" pending-download fields.
	pendingModuleName string
	pendingModuleRev  string
}

// New creates a handle named name, starting in Closed with a zero message-id
// and a zero transaction-id, per spec §4.A's Create precondition.
func New(name string) *DeviceHandle {
	now := time.Now()
	return &DeviceHandle{
		name:           name,
		state:          Closed,
		stateEnteredAt: now,
		frame:          NewFrameState(),
		schema:         schemainv.NewCache(),
	}
}

// Name returns the handle's immutable name.
func (h *DeviceHandle) Name() string { return h.name }

// State returns the current connection state.
func (h *DeviceHandle) State() ConnState { return h.state }

// StateEnteredAt returns the timestamp of the most recent state transition.
func (h *DeviceHandle) StateEnteredAt() time.Time { return h.stateEnteredAt }

// LastSyncAt returns the timestamp of the most recent successful config
// pull.
func (h *DeviceHandle) LastSyncAt() time.Time { return h.lastSyncAt }

// SetLastSyncAt records a successful sync time.
func (h *DeviceHandle) SetLastSyncAt(t time.Time) { h.lastSyncAt = t }

// SetState transitions the handle to next, stamping the state-entry
// timestamp and clearing the failure reason when leaving Closed (spec
// §4.B: "leaving Closed clears the failure reason"). Callers supply the
// failure reason separately via SetFailureReason before transitioning to
// Closed.
func (h *DeviceHandle) SetState(next ConnState) {
	if h.state == Closed && next != Closed {
		h.failureReason = ""
	}
	h.state = next
	h.stateEnteredAt = time.Now()
}

// Close transitions the handle to Closed, recording reason as the failure
// reason (empty for a clean, operator-initiated disconnect).
func (h *DeviceHandle) Close(reason string) {
	h.failureReason = reason
	h.state = Closed
	h.stateEnteredAt = time.Now()
}

// FailureReason borrows the current failure reason string. Per the
// borrowed-accessor design note, callers must not retain the returned string
// past the next mutating call on this handle (in practice harmless, since Go
// strings are immutable values, but the discipline is documented rather than
// silently dropped).
func (h *DeviceHandle) FailureReason() string { return h.failureReason }

// SetFailureReason records reason without transitioning state. Used when a
// malformed-but-survivable event (spec §4.B: "malformed protocol responses
// are fatal to the session but not to the controller") needs to be
// remembered without closing the device.
func (h *DeviceHandle) SetFailureReason(reason string) { h.failureReason = reason }

// TransportKind returns how the handle's I/O descriptor was obtained.
func (h *DeviceHandle) TransportKind() TransportKind { return h.transportKind }

// SetTransportKind records the transport kind at connection time.
func (h *DeviceHandle) SetTransportKind(k TransportKind) { h.transportKind = k }

// ChildPID returns the child process id for subprocess transports, or 0.
func (h *DeviceHandle) ChildPID() int { return h.childPID }

// SetChildPID records the child process id for SSHSubprocess transports.
func (h *DeviceHandle) SetChildPID(pid int) { h.childPID = pid }

// ErrDescriptor borrows the error-channel descriptor label (e.g. a stderr
// pipe name) for subprocess transports.
func (h *DeviceHandle) ErrDescriptor() string { return h.errDescriptor }

// SetErrDescriptor records the error-channel descriptor label.
func (h *DeviceHandle) SetErrDescriptor(d string) { h.errDescriptor = d }

// MessageIDGetInc returns the current client message-id and post-increments
// it, per spec §4.B: "the getter returns the current value and
// post-increments atomically for that device." Atomicity here is structural
// (single-threaded event loop, spec §5), not a sync/atomic operation.
func (h *DeviceHandle) MessageIDGetInc() uint64 {
	id := h.msgID
	h.msgID++
	return id
}

// TransactionID returns the 64-bit transaction-id; 0 means unbound.
func (h *DeviceHandle) TransactionID() uint64 { return h.txnID }

// SetTransactionID binds or unbinds (0) the handle to a controller-wide
// transaction. Only the external transaction coordinator should call this.
func (h *DeviceHandle) SetTransactionID(id uint64) { h.txnID = id }

// Frame returns the handle's framing-detector state.
func (h *DeviceHandle) Frame() *FrameState { return h.frame }

// SetOutbound installs msg into the given 1-based pending-outbound slot (1
// or 2), replacing any prior content, per spec §4.B. A third concurrent
// deferred message is rejected as a ConsistencyFault.
func (h *DeviceHandle) SetOutbound(slot int, msg []byte) error {
	if slot != 1 && slot != 2 {
		return util.NewConsistencyFault("pending-outbound-slots", "slot must be 1 or 2")
	}
	h.out[slot-1] = msg
	return nil
}

// Outbound borrows the content of the given 1-based slot, or nil if empty.
func (h *DeviceHandle) Outbound(slot int) []byte {
	if slot != 1 && slot != 2 {
		return nil
	}
	return h.out[slot-1]
}

// DrainOutbound returns and clears slot 1 then slot 2 in that strict order
// (spec §9: "this spec mandates strict in-order: slot 1 then slot 2"),
// skipping empty slots. Callers transmit each returned message before
// calling DrainOutbound again.
func (h *DeviceHandle) DrainOutbound() [][]byte {
	var out [][]byte
	for i := 0; i < outboundSlots; i++ {
		if h.out[i] != nil {
			out = append(out, h.out[i])
			h.out[i] = nil
		}
	}
	return out
}

// Domain borrows the YANG domain label used for schema isolation. Callers
// must not retain it past the next SetDomain call.
func (h *DeviceHandle) Domain() string { return h.domain }

// SetDomain records the YANG domain label.
func (h *DeviceHandle) SetDomain(d string) { h.domain = d }

// YangConfigMode returns the handle's yang-config interpretation mode.
func (h *DeviceHandle) YangConfigMode() YangConfigMode { return h.yangConfigMode }

// SetYangConfigMode records the yang-config interpretation mode.
func (h *DeviceHandle) SetYangConfigMode(m YangConfigMode) { h.yangConfigMode = m }

// Schema returns the handle's schema inventory cache (component C),
// subordinate to and owned by this handle.
func (h *DeviceHandle) Schema() *schemainv.Cache { return h.schema }

// PendingModule returns the name/revision of the module currently being
// downloaded while in SchemaOne.
func (h *DeviceHandle) PendingModule() (name, revision string) {
	return h.pendingModuleName, h.pendingModuleRev
}

// SetPendingModule records the module currently being downloaded.
func (h *DeviceHandle) SetPendingModule(name, revision string) {
	h.pendingModuleName = name
	h.pendingModuleRev = revision
}
