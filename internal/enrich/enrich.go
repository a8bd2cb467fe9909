// Package enrich annotates reachable hosts with a reverse DNS name, a MAC
// address and the MAC vendor. Every lookup is best effort: a failure leaves
// the field empty and never fails the scan.
package enrich

import (
	"context"
	"net/netip"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the default number of hosts enriched concurrently.
const DefaultWorkers = 32

// Host is a reachable address with whatever could be learned about it.
type Host struct {
	Addr     netip.Addr
	Port     uint16
	Hostname string
	MAC      string
	Vendor   string
}

// Enricher runs the enabled lookups for each host.
type Enricher struct {
	Resolver *PTRResolver // nil disables hostname lookup
	ARP      *ARPLookup   // nil disables MAC lookup
	Vendors  *VendorDB    // nil disables vendor lookup; needs ARP
	Workers  int
	Debugf   func(format string, args ...any)
}

// Enabled reports whether any lookup is configured.
func (e *Enricher) Enabled() bool {
	return e != nil && (e.Resolver != nil || e.ARP != nil)
}

// Enrich returns one Host per address, in the same order.
func (e *Enricher) Enrich(ctx context.Context, addrs []netip.Addr, port uint16) []Host {
	hosts := make([]Host, len(addrs))
	for i, a := range addrs {
		hosts[i] = Host{Addr: a, Port: port}
	}
	if !e.Enabled() || len(hosts) == 0 {
		return hosts
	}

	workers := e.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range hosts {
		g.Go(func() error {
			e.enrichHost(ctx, &hosts[i])
			return nil
		})
	}
	_ = g.Wait()
	return hosts
}

func (e *Enricher) enrichHost(ctx context.Context, h *Host) {
	if ctx.Err() != nil {
		return
	}
	if e.Resolver != nil {
		name, err := e.Resolver.Lookup(ctx, h.Addr)
		if err != nil {
			e.debugf("%s - ptr lookup failed: %v", h.Addr, err)
		}
		h.Hostname = name
	}
	if e.ARP != nil {
		mac, err := e.ARP.Lookup(ctx, h.Addr)
		if err != nil {
			e.debugf("%s - arp lookup failed: %v", h.Addr, err)
			return
		}
		h.MAC = mac
		if e.Vendors != nil {
			h.Vendor = e.Vendors.Lookup(mac)
		}
	}
}

func (e *Enricher) debugf(format string, args ...any) {
	if e.Debugf != nil {
		e.Debugf(format, args...)
	}
}
