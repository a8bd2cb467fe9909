//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package enrich

import (
	"context"
	"errors"
	"net/netip"
	"time"
)

// DefaultARPTimeout bounds each ARP request.
const DefaultARPTimeout = time.Second

// ErrARPNotSupported is returned on platforms without ARP support.
var ErrARPNotSupported = errors.New("ARP lookup is not supported on this platform")

// ARPLookup is unavailable on this platform.
type ARPLookup struct{}

// NewARPLookup always fails on this platform.
func NewARPLookup(time.Duration) (*ARPLookup, error) {
	return nil, ErrARPNotSupported
}

// Lookup always fails on this platform.
func (a *ARPLookup) Lookup(context.Context, netip.Addr) (string, error) {
	return "", ErrARPNotSupported
}
