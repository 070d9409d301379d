package devicehandle

import "github.com/fleetnc/fleetnc/pkg/util"

// FramingDiscipline is how message boundaries are marked on the wire.
type FramingDiscipline int

const (
	// FramingUnknown means capability exchange hasn't completed yet.
	FramingUnknown FramingDiscipline = iota
	// EndOfMessage is NETCONF 1.0's "]]>]]>" sentinel framing.
	EndOfMessage
	// ChunkedFramed is NETCONF 1.1's "#<len>\n...\n##\n" chunked framing.
	ChunkedFramed
)

func (d FramingDiscipline) String() string {
	switch d {
	case EndOfMessage:
		return "end-of-message"
	case ChunkedFramed:
		return "chunked"
	default:
		return "unknown"
	}
}

// base1_1Capability is the capability URI whose presence selects chunked
// framing; its absence means the peer only speaks NETCONF 1.0.
const base1_1Capability = "urn:ietf:params:netconf:base:1.1"

// DetectFramingDiscipline inspects the capability set exchanged in the
// device's <hello> and chooses the framing discipline it implies.
func DetectFramingDiscipline(caps interface{ Contains(string) bool }) FramingDiscipline {
	if caps != nil && caps.Contains(base1_1Capability) {
		return ChunkedFramed
	}
	return EndOfMessage
}

// detectorState tracks the small DFA that scans an incoming byte stream for
// the current discipline's boundary marker across suspension points (partial
// reads). It is deliberately tiny: recognizing a boundary, not parsing XML.
type detectorState int

const (
	stateIdle detectorState = iota
	stateInChunkHeader
	stateInChunkData
	stateInEOMScan
)

// eomMarker is the NETCONF 1.0 end-of-message sentinel.
var eomMarker = []byte("]]>]]>")

// FrameState is the per-handle framing state: discipline plus whatever the
// detector has matched so far, carried across reads the way the handle
// carries it across suspension points in the single-threaded event loop.
type FrameState struct {
	Discipline    FramingDiscipline
	state         detectorState
	eomMatched    int // bytes of eomMarker matched so far
	ExpectedBytes int // remaining bytes of the current chunk, when ChunkedFramed
	chunkHeader   []byte
}

// NewFrameState returns a detector in its initial (pre-capability-exchange)
// state.
func NewFrameState() *FrameState {
	return &FrameState{Discipline: FramingUnknown, state: stateIdle}
}

// SetDiscipline fixes the discipline once capability exchange completes and
// resets the detector to scan for that discipline's framing from scratch.
func (f *FrameState) SetDiscipline(d FramingDiscipline) {
	f.Discipline = d
	f.state = stateIdle
	f.eomMatched = 0
	f.ExpectedBytes = 0
	f.chunkHeader = nil
}

// Feed advances the detector over buf and reports whether a complete message
// boundary was reached within buf. Under EndOfMessage, contentLen counts the
// bytes of buf that are message content (the "]]>]]>" marker excluded);
// under ChunkedFramed, it is the number of bytes of buf consumed, chunk
// headers and the end-of-chunks marker included. It does not itself
// decode XML; that is the external transport/XML collaborator's job.
func (f *FrameState) Feed(buf []byte) (contentLen int, complete bool, err error) {
	switch f.Discipline {
	case EndOfMessage:
		return f.feedEOM(buf)
	case ChunkedFramed:
		return f.feedChunked(buf)
	default:
		return 0, false, util.NewProtocolFault("", "framing discipline not yet established", "")
	}
}

func (f *FrameState) feedEOM(buf []byte) (int, bool, error) {
	content := 0
	for _, b := range buf {
		if b == eomMarker[f.eomMatched] {
			f.eomMatched++
			if f.eomMatched == len(eomMarker) {
				f.eomMatched = 0
				return content, true, nil
			}
			continue
		}
		// The tentative match broke: any bytes provisionally counted as
		// marker are really content.
		content += f.eomMatched
		f.eomMatched = 0
		if b == eomMarker[0] {
			f.eomMatched = 1
		} else {
			content++
		}
	}
	return content, false, nil
}

func (f *FrameState) feedChunked(buf []byte) (int, bool, error) {
	// A minimal recognizer for "\n#<digits>\n<data>\n##\n": enough to bound
	// message content without re-implementing the generic XML engine this
	// core explicitly leaves external.
	consumed := 0
	for consumed < len(buf) {
		switch f.state {
		case stateIdle, stateInChunkHeader:
			b := buf[consumed]
			if len(f.chunkHeader) == 0 && b == '\n' {
				// Delimiter newline preceding a chunk header or the
				// end-of-chunks marker; not part of the header itself.
				consumed++
				f.state = stateInChunkHeader
				continue
			}
			f.chunkHeader = append(f.chunkHeader, b)
			consumed++
			if len(f.chunkHeader) >= 2 && f.chunkHeader[len(f.chunkHeader)-1] == '\n' {
				n, ok := parseChunkHeader(f.chunkHeader)
				if !ok {
					return 0, false, util.NewProtocolFault("", "malformed chunk header", string(f.chunkHeader))
				}
				f.chunkHeader = nil
				if n == 0 {
					// "##\n" end-of-chunks marker.
					f.state = stateIdle
					return consumed, true, nil
				}
				f.ExpectedBytes = n
				f.state = stateInChunkData
			} else {
				f.state = stateInChunkHeader
			}
		case stateInChunkData:
			take := len(buf) - consumed
			if take > f.ExpectedBytes {
				take = f.ExpectedBytes
			}
			consumed += take
			f.ExpectedBytes -= take
			if f.ExpectedBytes == 0 {
				f.state = stateIdle
			}
		}
	}
	return consumed, false, nil
}

// parseChunkHeader parses a "#<digits>\n" chunk header or the "##\n" end
// marker, fully accumulated (ends in '\n'). Returns the chunk
// size, or 0 for the end marker.
func parseChunkHeader(hdr []byte) (int, bool) {
	if len(hdr) < 2 || hdr[0] != '#' || hdr[len(hdr)-1] != '\n' {
		return 0, false
	}
	digits := hdr[1 : len(hdr)-1]
	if len(digits) == 1 && digits[0] == '#' {
		return 0, true
	}
	n := 0
	if len(digits) == 0 {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
