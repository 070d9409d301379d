package transport

import (
	"testing"
	"time"
)

// TestDialReportsUnreachableHost exercises the failure path without a live
// SSH server: a closed local port refuses the connection immediately, which
// is enough to confirm Dial wraps and returns the error rather than hanging
// past its configured timeout.
func TestDialReportsUnreachableHost(t *testing.T) {
	d := &SSHDialer{Timeout: 500 * time.Millisecond}
	_, err := d.Dial("127.0.0.1:1", "nobody", "nopass", "netconf")
	if err == nil {
		t.Fatal("expected an error dialing an unreachable address")
	}
}

func TestNewSSHDialerDefaultTimeout(t *testing.T) {
	d := NewSSHDialer()
	if d.Timeout <= 0 {
		t.Fatal("expected a positive default timeout")
	}
}
