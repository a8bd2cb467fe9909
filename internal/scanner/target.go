package scanner

import (
	"errors"
	"fmt"
	"iter"
	"net/netip"
	"strings"
)

// ErrInvalidSubnet is returned when a subnet prefix is not of the form "A.B.C.".
var ErrInvalidSubnet = errors.New("invalid subnet")

const (
	firstHost = 1
	lastHost  = 254

	// HostsPerSubnet is the number of targets generated for each /24.
	HostsPerSubnet = lastHost - firstHost + 1
)

// Target is a single address:port pair to probe.
type Target struct {
	Addr netip.Addr
	Port uint16
}

// AddrPort returns the target as a netip.AddrPort.
func (t Target) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(t.Addr, t.Port)
}

func (t Target) String() string {
	return t.AddrPort().String()
}

// Targets returns the probe sequence for the given /24 prefixes such as
// "10.60.3.". Each prefix contributes host ids 1 through 254; the network
// and broadcast addresses are never generated. Prefixes are expanded in the
// order given. The returned sequence is lazy and can be ranged over again.
func Targets(prefixes []string, port uint16) (iter.Seq[Target], error) {
	bases := make([][4]byte, 0, len(prefixes))
	for _, p := range prefixes {
		b, err := parsePrefix(p)
		if err != nil {
			return nil, err
		}
		bases = append(bases, b)
	}

	return func(yield func(Target) bool) {
		for _, b := range bases {
			for h := firstHost; h <= lastHost; h++ {
				b[3] = byte(h)
				if !yield(Target{Addr: netip.AddrFrom4(b), Port: port}) {
					return
				}
			}
		}
	}, nil
}

func parsePrefix(p string) ([4]byte, error) {
	if !strings.HasSuffix(p, ".") {
		return [4]byte{}, fmt.Errorf("%w %q", ErrInvalidSubnet, p)
	}
	addr, err := netip.ParseAddr(p + "0")
	if err != nil || !addr.Is4() {
		return [4]byte{}, fmt.Errorf("%w %q", ErrInvalidSubnet, p)
	}
	return addr.As4(), nil
}
