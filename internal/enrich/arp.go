//go:build linux || darwin || freebsd || netbsd || openbsd

package enrich

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/j-keck/arping"
)

// DefaultARPTimeout bounds each ARP request.
const DefaultARPTimeout = time.Second

// ARPLookup resolves IPv4 addresses on the local segment to MAC addresses.
// It usually needs raw socket privileges.
type ARPLookup struct {
	// arping keeps its socket in package state, so requests are serialised.
	mu sync.Mutex
}

// NewARPLookup returns an ARPLookup whose requests give up after timeout.
func NewARPLookup(timeout time.Duration) (*ARPLookup, error) {
	if timeout <= 0 {
		timeout = DefaultARPTimeout
	}
	arping.SetTimeout(timeout)
	return &ARPLookup{}, nil
}

// Lookup returns the MAC address answering for addr.
func (a *ARPLookup) Lookup(ctx context.Context, addr netip.Addr) (string, error) {
	type reply struct {
		mac net.HardwareAddr
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		mac, _, err := arping.Ping(net.IP(addr.AsSlice()))
		ch <- reply{mac: mac, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		return r.mac.String(), nil
	}
}
