//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package scanner

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultBackoff is the pause between socket attempts while the process has
// run out of file descriptors.
const DefaultBackoff = 10 * time.Millisecond

var errNotIPv4 = errors.New("not an IPv4 address")

// sockets opens probe sockets.
type sockets interface {
	open() (socket, error)
}

// socket is the subset of the socket API a single probe needs. It is owned
// by the probe that opened it and closed by that probe on every path.
type socket interface {
	descriptor() int
	setNonblock() error
	connect(addr netip.AddrPort) error
	waitWritable(timeout time.Duration) (bool, error)
	pendingError() (int, error)
	close() error
}

// Prober performs TCP connect probes with a non-blocking socket per call.
type Prober struct {
	// Backoff is how long to sleep before retrying socket creation after
	// EMFILE. Retries continue until a descriptor frees up.
	Backoff time.Duration
	// Debugf, if set, receives one line per classified probe.
	Debugf func(format string, args ...any)

	sys sockets
}

// NewProber returns a Prober backed by the operating system's sockets.
func NewProber() *Prober {
	return &Prober{Backoff: DefaultBackoff, sys: sysSockets{}}
}

// Probe makes one connection attempt to t and classifies it, never waiting
// for readiness longer than timeout. Per-host conditions come back as an
// Outcome with a nil error. A non-nil error is a *ProbeError (or the
// context's cause if ctx ends during descriptor backoff) and means the
// scan cannot continue.
func (p *Prober) Probe(ctx context.Context, t Target, timeout time.Duration) (Outcome, error) {
	addr := t.Addr.String()
	if !t.Addr.Is4() {
		return Unreachable, &ProbeError{Op: "address", Addr: addr, Err: errNotIPv4}
	}

	s, err := p.acquire(ctx)
	if err != nil {
		return Unreachable, err
	}
	defer s.close()

	if err := s.setNonblock(); err != nil {
		return Unreachable, &ProbeError{Op: "fcntl", Err: err}
	}

	err = s.connect(t.AddrPort())
	switch {
	case err == nil:
		p.debugf("%s - connected immediately", addr)
		return Reachable, nil
	case errors.Is(err, unix.EHOSTDOWN):
		p.debugf("%s - host down", addr)
		return HostDown, nil
	case !errors.Is(err, unix.EINPROGRESS):
		return Unreachable, &ProbeError{Op: "connect", Addr: addr, Err: err}
	}

	ready, err := s.waitWritable(timeout)
	if err != nil {
		return Unreachable, &ProbeError{Op: "poll", Addr: addr, Err: err}
	}
	if !ready {
		p.debugf("%s - timeout", addr)
		return Unreachable, nil
	}

	soErr, err := s.pendingError()
	if err != nil {
		return Unreachable, &ProbeError{Op: "getsockopt", Addr: addr, Err: err}
	}
	if soErr != 0 {
		p.debugf("%s - not connected: %v", addr, unix.Errno(soErr))
		return Unreachable, nil
	}

	p.debugf("%s - connected, fd=%d", addr, s.descriptor())
	return Reachable, nil
}

// acquire opens a socket, sleeping and retrying while the descriptor table
// is full. Any other failure is fatal.
func (p *Prober) acquire(ctx context.Context) (socket, error) {
	for {
		s, err := p.sys.open()
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, unix.EMFILE) {
			return nil, &ProbeError{Op: "socket", Err: err}
		}
		select {
		case <-time.After(p.Backoff):
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}
}

func (p *Prober) debugf(format string, args ...any) {
	if p.Debugf != nil {
		p.Debugf(format, args...)
	}
}
