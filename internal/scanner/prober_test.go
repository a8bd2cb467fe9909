//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package scanner

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// fakeSockets scripts each step of a probe and records what was called. It
// hands itself out as the opened socket.
type fakeSockets struct {
	openErrs    []error // returned by successive open calls before succeeding
	nonblockErr error
	connectErr  error
	waitReady   bool
	waitErr     error
	soErr       int
	soGetErr    error

	mu        sync.Mutex
	opens     int
	waits     int
	waitedFor time.Duration
	closed    []int
}

const fakeFD = 42

func (f *fakeSockets) open() (socket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if len(f.openErrs) > 0 {
		err := f.openErrs[0]
		f.openErrs = f.openErrs[1:]
		return nil, err
	}
	return f, nil
}

func (f *fakeSockets) descriptor() int { return fakeFD }

func (f *fakeSockets) setNonblock() error { return f.nonblockErr }

func (f *fakeSockets) connect(netip.AddrPort) error { return f.connectErr }

func (f *fakeSockets) waitWritable(timeout time.Duration) (bool, error) {
	f.mu.Lock()
	f.waits++
	f.waitedFor = timeout
	f.mu.Unlock()
	return f.waitReady, f.waitErr
}

func (f *fakeSockets) pendingError() (int, error) { return f.soErr, f.soGetErr }

func (f *fakeSockets) close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, fakeFD)
	return nil
}

func testTarget() Target {
	return Target{Addr: netip.MustParseAddr("10.60.3.5"), Port: 80}
}

func TestProbeClassification(t *testing.T) {
	tests := []struct {
		name      string
		sys       *fakeSockets
		want      Outcome
		wantWaits int
	}{
		{
			name:      "synchronous connect",
			sys:       &fakeSockets{},
			want:      Reachable,
			wantWaits: 0,
		},
		{
			name:      "host down at connect",
			sys:       &fakeSockets{connectErr: unix.EHOSTDOWN},
			want:      HostDown,
			wantWaits: 0,
		},
		{
			name:      "in progress then connected",
			sys:       &fakeSockets{connectErr: unix.EINPROGRESS, waitReady: true},
			want:      Reachable,
			wantWaits: 1,
		},
		{
			name:      "in progress then timeout",
			sys:       &fakeSockets{connectErr: unix.EINPROGRESS},
			want:      Unreachable,
			wantWaits: 1,
		},
		{
			name:      "in progress then refused",
			sys:       &fakeSockets{connectErr: unix.EINPROGRESS, waitReady: true, soErr: int(unix.ECONNREFUSED)},
			want:      Unreachable,
			wantWaits: 1,
		},
		{
			name:      "in progress then host unreachable",
			sys:       &fakeSockets{connectErr: unix.EINPROGRESS, waitReady: true, soErr: int(unix.EHOSTUNREACH)},
			want:      Unreachable,
			wantWaits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Prober{Backoff: time.Millisecond, sys: tt.sys}
			got, err := p.Probe(context.Background(), testTarget(), 500*time.Millisecond)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Probe() = %s, want %s", got, tt.want)
			}
			if tt.sys.waits != tt.wantWaits {
				t.Errorf("waitWritable called %d times, want %d", tt.sys.waits, tt.wantWaits)
			}
			if tt.wantWaits > 0 && tt.sys.waitedFor != 500*time.Millisecond {
				t.Errorf("waited for %s, want 500ms", tt.sys.waitedFor)
			}
			if len(tt.sys.closed) != 1 || tt.sys.closed[0] != fakeFD {
				t.Errorf("closed = %v, want [%d]", tt.sys.closed, fakeFD)
			}
		})
	}
}

func TestProbeFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		sys     *fakeSockets
		wantOp  string
		wantMsg string
	}{
		{
			name:    "nonblock fails",
			sys:     &fakeSockets{nonblockErr: unix.EBADF},
			wantOp:  "fcntl",
			wantMsg: "fcntl: " + unix.EBADF.Error(),
		},
		{
			name:    "connect fails immediately",
			sys:     &fakeSockets{connectErr: unix.ENETUNREACH},
			wantOp:  "connect",
			wantMsg: "connect 10.60.3.5: " + unix.ENETUNREACH.Error(),
		},
		{
			name:    "connect bad family",
			sys:     &fakeSockets{connectErr: unix.EAFNOSUPPORT},
			wantOp:  "connect",
			wantMsg: "connect 10.60.3.5: " + unix.EAFNOSUPPORT.Error(),
		},
		{
			name:    "wait fails",
			sys:     &fakeSockets{connectErr: unix.EINPROGRESS, waitErr: unix.EINVAL},
			wantOp:  "poll",
			wantMsg: "poll 10.60.3.5: " + unix.EINVAL.Error(),
		},
		{
			name:    "getsockopt fails",
			sys:     &fakeSockets{connectErr: unix.EINPROGRESS, waitReady: true, soGetErr: unix.ENOTSOCK},
			wantOp:  "getsockopt",
			wantMsg: "getsockopt 10.60.3.5: " + unix.ENOTSOCK.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Prober{Backoff: time.Millisecond, sys: tt.sys}
			_, err := p.Probe(context.Background(), testTarget(), time.Second)

			var pe *ProbeError
			if !errors.As(err, &pe) {
				t.Fatalf("Probe() error = %v, want *ProbeError", err)
			}
			if pe.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", pe.Op, tt.wantOp)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
			if len(tt.sys.closed) != 1 {
				t.Errorf("socket closed %d times, want 1", len(tt.sys.closed))
			}
		})
	}
}

func TestProbeRetriesOnDescriptorExhaustion(t *testing.T) {
	sys := &fakeSockets{
		openErrs:   []error{unix.EMFILE, unix.EMFILE, unix.EMFILE},
		connectErr: unix.EINPROGRESS,
		waitReady:  true,
	}
	p := &Prober{Backoff: 5 * time.Millisecond, sys: sys}

	start := time.Now()
	got, err := p.Probe(context.Background(), testTarget(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if got != Reachable {
		t.Fatalf("Probe() = %s, want reachable", got)
	}
	if sys.opens != 4 {
		t.Fatalf("open called %d times, want 4", sys.opens)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("expected backoff between attempts, finished in %s", elapsed)
	}
	// Backoff time does not come out of the connect budget.
	if sys.waitedFor != 100*time.Millisecond {
		t.Fatalf("waited for %s, want 100ms", sys.waitedFor)
	}
	if len(sys.closed) != 1 {
		t.Fatalf("closed %d sockets, want 1", len(sys.closed))
	}
}

func TestProbeExhaustionNotUnreachable(t *testing.T) {
	// Even when exhaustion outlasts the connect timeout, the probe keeps
	// retrying instead of reporting the host unreachable.
	sys := &fakeSockets{openErrs: []error{unix.EMFILE, unix.EMFILE, unix.EMFILE, unix.EMFILE, unix.EMFILE}}
	p := &Prober{Backoff: 5 * time.Millisecond, sys: sys}

	got, err := p.Probe(context.Background(), testTarget(), time.Millisecond)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if got != Reachable {
		t.Fatalf("Probe() = %s, want reachable", got)
	}
}

func TestProbeExhaustionCancelled(t *testing.T) {
	errs := make([]error, 1000)
	for i := range errs {
		errs[i] = unix.EMFILE
	}
	sys := &fakeSockets{openErrs: errs}
	p := &Prober{Backoff: 5 * time.Millisecond, sys: sys}

	cause := errors.New("sibling failed")
	ctx, cancel := context.WithCancelCause(context.Background())
	time.AfterFunc(20*time.Millisecond, func() { cancel(cause) })

	_, err := p.Probe(ctx, testTarget(), time.Second)
	if !errors.Is(err, cause) {
		t.Fatalf("Probe() error = %v, want %v", err, cause)
	}
	if len(sys.closed) != 0 {
		t.Fatalf("closed %v, but no socket was ever opened", sys.closed)
	}
}

func TestProbeSocketFailure(t *testing.T) {
	sys := &fakeSockets{openErrs: []error{unix.EACCES}}
	p := &Prober{Backoff: time.Millisecond, sys: sys}

	_, err := p.Probe(context.Background(), testTarget(), time.Second)
	if !errors.Is(err, unix.EACCES) {
		t.Fatalf("Probe() error = %v, want EACCES", err)
	}
	if !strings.HasPrefix(err.Error(), "socket: ") {
		t.Fatalf("Error() = %q, want socket prefix", err.Error())
	}
	if sys.opens != 1 {
		t.Fatalf("open called %d times, want 1", sys.opens)
	}
	if len(sys.closed) != 0 {
		t.Fatalf("closed %v, but no socket was ever opened", sys.closed)
	}
}

func TestProbeRejectsNonIPv4(t *testing.T) {
	sys := &fakeSockets{}
	p := &Prober{Backoff: time.Millisecond, sys: sys}

	_, err := p.Probe(context.Background(), Target{Addr: netip.MustParseAddr("::1"), Port: 80}, time.Second)
	var pe *ProbeError
	if !errors.As(err, &pe) || pe.Op != "address" {
		t.Fatalf("Probe() error = %v, want address ProbeError", err)
	}
	if sys.opens != 0 {
		t.Fatal("socket opened for an invalid target")
	}
}

func TestProbeDebugLines(t *testing.T) {
	tests := []struct {
		name string
		sys  *fakeSockets
		want string
	}{
		{"immediate", &fakeSockets{}, "10.60.3.5 - connected immediately"},
		{"host down", &fakeSockets{connectErr: unix.EHOSTDOWN}, "10.60.3.5 - host down"},
		{"timeout", &fakeSockets{connectErr: unix.EINPROGRESS}, "10.60.3.5 - timeout"},
		{"refused", &fakeSockets{connectErr: unix.EINPROGRESS, waitReady: true, soErr: int(unix.ECONNREFUSED)}, "10.60.3.5 - not connected"},
		{"connected", &fakeSockets{connectErr: unix.EINPROGRESS, waitReady: true}, fmt.Sprintf("10.60.3.5 - connected, fd=%d", fakeFD)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []string
			p := &Prober{
				Backoff: time.Millisecond,
				sys:     tt.sys,
				Debugf: func(format string, args ...any) {
					lines = append(lines, fmt.Sprintf(format, args...))
				},
			}
			if _, err := p.Probe(context.Background(), testTarget(), time.Second); err != nil {
				t.Fatal(err)
			}
			if len(lines) != 1 || !strings.HasPrefix(lines[0], tt.want) {
				t.Fatalf("debug lines = %q, want prefix %q", lines, tt.want)
			}
		})
	}
}
