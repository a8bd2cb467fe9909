package netutil

import (
	"bufio"
	"fmt"
	"math"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// ParseSubnet validates an "A.B.C.D/24" specification and returns the /24
// prefix in the "A.B.C." form the scanner enumerates. The host octet is
// ignored, so "10.60.3.7/24" and "10.60.3.0/24" are the same subnet.
func ParseSubnet(s string) (string, error) {
	p, err := netip.ParsePrefix(strings.TrimSpace(s))
	if err != nil || !p.Addr().Is4() || p.Bits() != 24 {
		return "", fmt.Errorf("invalid subnet %q (want A.B.C.0/24)", s)
	}
	b := p.Masked().Addr().As4()
	return fmt.Sprintf("%d.%d.%d.", b[0], b[1], b[2]), nil
}

// ParseSubnets validates each specification in order. Duplicates are kept.
func ParseSubnets(specs []string) ([]string, error) {
	prefixes := make([]string, 0, len(specs))
	for _, s := range specs {
		p, err := ParseSubnet(s)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}

// LoadSubnets reads subnet specifications from a file, one per line.
// Blank lines and lines starting with '#' are skipped.
func LoadSubnets(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening subnets file: %w", err)
	}
	defer f.Close()

	var specs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		specs = append(specs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading subnets file: %w", err)
	}
	return specs, nil
}

// ParseTimeout accepts a non-negative number of seconds ("0.5", "2") or a
// Go duration ("500ms").
func ParseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) {
			return 0, fmt.Errorf("invalid timeout %q", s)
		}
		// float64(MaxInt64) is 2^63, which no Duration can hold.
		nanos := math.Round(secs * float64(time.Second))
		if nanos >= math.MaxInt64 {
			return 0, fmt.Errorf("invalid timeout %q", s)
		}
		return time.Duration(nanos), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return d, nil
}

// ParsePort accepts a decimal TCP port, 0 through 65535.
func ParsePort(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(v), nil
}
