package enrich

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultResolvConf is where the system nameserver is read from when no
// resolver address is given.
const DefaultResolvConf = "/etc/resolv.conf"

// PTRResolver looks up reverse DNS names against a single nameserver.
type PTRResolver struct {
	Server string // host:port
	client *dns.Client
}

// NewPTRResolver returns a resolver for server ("host" or "host:port").
// An empty server means the first nameserver in /etc/resolv.conf.
func NewPTRResolver(server string, timeout time.Duration) (*PTRResolver, error) {
	switch {
	case server == "":
		cfg, err := dns.ClientConfigFromFile(DefaultResolvConf)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", DefaultResolvConf, err)
		}
		if len(cfg.Servers) == 0 {
			return nil, errors.New("no nameserver configured")
		}
		server = net.JoinHostPort(cfg.Servers[0], cfg.Port)
	default:
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
	}
	return &PTRResolver{
		Server: server,
		client: &dns.Client{Net: "udp", Timeout: timeout},
	}, nil
}

// Lookup returns the first PTR name for addr without the trailing dot, or ""
// when the nameserver has none.
func (r *PTRResolver) Lookup(ctx context.Context, addr netip.Addr) (string, error) {
	name, err := dns.ReverseAddr(addr.String())
	if err != nil {
		return "", err
	}

	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypePTR)

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.Server)
	if err != nil {
		return "", err
	}
	if resp.Rcode == dns.RcodeNameError {
		return "", nil
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("%s: %s", name, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}
	return "", nil
}
