// Package transport backs the DeviceHandle.SSHSubprocess transport kind
// (spec §3) with a real SSH session: dial the device host, start the
// remote NETCONF subprocess, and expose its stdin/stdout as the handle's
// I/O descriptor and stderr as its error-channel descriptor. Grounded on
// pkg/device/tunnel.go's SSHTunnel, which opens the same kind of
// golang.org/x/crypto/ssh connection for Redis port-forwarding; this
// package starts a remote command and wires its pipes instead of
// forwarding a TCP port.
package transport

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHDialer opens SSH connections to device hosts.
type SSHDialer struct {
	Timeout time.Duration
}

// NewSSHDialer returns an SSHDialer with a sane default connect timeout.
func NewSSHDialer() *SSHDialer {
	return &SSHDialer{Timeout: 30 * time.Second}
}

// Session is an open SSH-subprocess transport: a running remote command
// whose stdin/stdout form the device's I/O descriptor and whose stderr is
// its error-channel descriptor (spec §3's "I/O descriptor and, for
// subprocess transports, an error-channel descriptor").
type Session struct {
	client  *ssh.Client
	session *ssh.Session

	In  io.WriteCloser // device's stdin: writes from the controller
	Out io.Reader      // device's stdout: NETCONF replies
	Err io.Reader      // device's stderr: the error-channel descriptor
}

// Dial opens an SSH connection to addr (host:port) as user, authenticating
// with password, and starts remoteCmd (typically a netconf subsystem or
// ssh subprocess invocation) on the resulting session.
//
// Lab/test environment convenience: host keys are not verified, as in the
// newtron project's SSHTunnel this is modeled on. A production deployment should
// supply a real ssh.HostKeyCallback.
func (d *SSHDialer) Dial(addr, user, password, remoteCmd string) (*Session, error) {
	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.Timeout,
	}

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s@%s: %w", user, addr, err)
	}

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("SSH session: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := sess.StderrPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := sess.Start(remoteCmd); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("start %q: %w", remoteCmd, err)
	}

	return &Session{
		client:  client,
		session: sess,
		In:      stdin,
		Out:     stdout,
		Err:     stderr,
	}, nil
}

// Close tears down the remote command and the underlying SSH connection.
func (s *Session) Close() error {
	s.session.Close()
	return s.client.Close()
}
