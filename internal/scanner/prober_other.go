//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package scanner

import (
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// DefaultBackoff is the pause between dial attempts while the process has
// run out of file descriptors.
const DefaultBackoff = 10 * time.Millisecond

var errNotIPv4 = errors.New("not an IPv4 address")

// Prober performs TCP connect probes through net.Dialer on platforms without
// raw non-blocking socket support.
//
// Outcomes follow the unix prober with one difference: the dialer does not
// say whether a connect failed at once or while waiting, so only a
// network-unreachable failure is fatal and every other connection-level
// failure is Unreachable.
type Prober struct {
	// Backoff is how long to sleep before dialing again after the process
	// ran out of descriptors.
	Backoff time.Duration
	Debugf  func(format string, args ...any)
}

// NewProber returns a Prober with default settings.
func NewProber() *Prober {
	return &Prober{Backoff: DefaultBackoff}
}

// Probe makes one connection attempt to t and classifies it.
func (p *Prober) Probe(ctx context.Context, t Target, timeout time.Duration) (Outcome, error) {
	addr := t.Addr.String()
	if !t.Addr.Is4() {
		return Unreachable, &ProbeError{Op: "address", Addr: addr, Err: errNotIPv4}
	}

	for {
		d := net.Dialer{Deadline: time.Now().Add(timeout)}
		conn, err := d.DialContext(ctx, "tcp4", t.String())
		if err == nil {
			_ = conn.Close()
			p.debugf("%s - connected", addr)
			return Reachable, nil
		}
		if ctx.Err() != nil {
			return Unreachable, context.Cause(ctx)
		}
		if !isErrno(err, errTooManyFiles) {
			return p.classify(addr, err)
		}
		select {
		case <-time.After(p.Backoff):
		case <-ctx.Done():
			return Unreachable, context.Cause(ctx)
		}
	}
}

func (p *Prober) classify(addr string, err error) (Outcome, error) {
	var ne net.Error
	var sce *os.SyscallError
	var oe *net.OpError
	switch {
	case isErrno(err, errHostDown):
		p.debugf("%s - host down", addr)
		return HostDown, nil
	case isErrno(err, errNetUnreachable):
		return Unreachable, &ProbeError{Op: "connect", Addr: addr, Err: err}
	case errors.As(err, &ne) && ne.Timeout():
		p.debugf("%s - timeout", addr)
		return Unreachable, nil
	case errors.As(err, &sce) && sce.Syscall == "socket":
		return Unreachable, &ProbeError{Op: "socket", Err: sce.Err}
	case errors.As(err, &oe) && oe.Op == "dial":
		p.debugf("%s - not connected: %v", addr, oe.Err)
		return Unreachable, nil
	default:
		return Unreachable, &ProbeError{Op: "dial", Addr: addr, Err: err}
	}
}

// isErrno reports whether err matches target. A nil target means the
// platform has no such error number.
func isErrno(err, target error) bool {
	return target != nil && errors.Is(err, target)
}

func (p *Prober) debugf(format string, args ...any) {
	if p.Debugf != nil {
		p.Debugf(format, args...)
	}
}
