//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package scanner

import (
	"errors"
	"net/netip"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// sysSockets opens real AF_INET stream sockets.
type sysSockets struct{}

func (sysSockets) open() (socket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	return &sysSocket{fd: fd}, nil
}

// sysSocket is one probe socket. Setup and connect use raw system calls;
// the readiness wait goes through the runtime poller so that a waiting
// probe parks its goroutine instead of holding an OS thread. Once the wait
// has started the descriptor belongs to file and is released through it.
type sysSocket struct {
	fd   int
	file *os.File
}

func (s *sysSocket) descriptor() int { return s.fd }

func (s *sysSocket) setNonblock() error {
	return unix.SetNonblock(s.fd, true)
}

func (s *sysSocket) connect(addr netip.AddrPort) error {
	sa := &unix.SockaddrInet4{Port: int(addr.Port()), Addr: addr.Addr().As4()}
	return unix.Connect(s.fd, sa)
}

func (s *sysSocket) waitWritable(timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		// No budget: report current readiness without blocking.
		fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLOUT}}
		n, err := unix.Poll(fds, 0)
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	if s.file == nil {
		s.file = os.NewFile(uintptr(s.fd), "")
	}
	if err := s.file.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return false, err
	}
	rc, err := s.file.SyscallConn()
	if err != nil {
		return false, err
	}

	// The first call only arms the wait; the second runs once the poller
	// reports the descriptor writable (connected or failed).
	armed := false
	err = rc.Write(func(uintptr) bool {
		if armed {
			return true
		}
		armed = true
		return false
	})
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *sysSocket) pendingError() (int, error) {
	return unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
}

func (s *sysSocket) close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return unix.Close(s.fd)
}
