package scanner

import (
	"context"
	"errors"
	"net/netip"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProbeFunc probes a single target. Per-host conditions are reported as an
// Outcome; a non-nil error aborts the scan.
type ProbeFunc func(ctx context.Context, t Target, timeout time.Duration) (Outcome, error)

// Request is the input to one scan run.
type Request struct {
	Timeout time.Duration
	Port    uint16
	Subnets []string // /24 prefixes such as "10.60.3."
}

// Scanner launches one probe per target and collects the reachable
// addresses in enumeration order.
type Scanner struct {
	// Probe performs each probe. Nil means NewProber().Probe.
	Probe ProbeFunc
	// Observer, if set, is called once per completed probe from the
	// goroutine that ran it. It must be safe for concurrent use.
	Observer func(Result)
}

// New returns a Scanner that probes with the operating system's sockets.
func New() *Scanner {
	return &Scanner{Probe: NewProber().Probe}
}

// Run probes every target of req concurrently, with no limit on the number
// of probes in flight, and returns the reachable addresses in the order the
// targets were generated.
//
// If any probe fails fatally, Run returns that error as soon as it occurs
// and discards all results. Probes that have not started yet are skipped;
// probes already in flight are left to finish on their own.
func (s *Scanner) Run(ctx context.Context, req Request) ([]netip.Addr, error) {
	seq, err := Targets(req.Subnets, req.Port)
	if err != nil {
		return nil, err
	}
	targets := slices.Collect(seq)
	if len(targets) == 0 {
		return nil, nil
	}

	probe := s.Probe
	if probe == nil {
		probe = NewProber().Probe
	}

	// One slot per target, written only by the goroutine probing it.
	outcomes := make([]Outcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			start := time.Now()
			o, err := probe(gctx, t, req.Timeout)
			if err != nil {
				return err
			}
			outcomes[i] = o
			if s.Observer != nil {
				s.Observer(Result{Target: t, Outcome: o, Elapsed: time.Since(start)})
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- g.Wait() }()

	select {
	case err := <-waitErr:
		if err != nil {
			return nil, err
		}
	case <-gctx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// The group context is also cancelled once Wait returns, with a
		// plain context.Canceled cause.
		if cause := context.Cause(gctx); !errors.Is(cause, context.Canceled) {
			return nil, cause
		}
		if err := <-waitErr; err != nil {
			return nil, err
		}
	}
	// Skipped probes leave their slots empty; never report a partial scan.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var reachable []netip.Addr
	for i, o := range outcomes {
		if o == Reachable {
			reachable = append(reachable, targets[i].Addr)
		}
	}
	return reachable, nil
}
