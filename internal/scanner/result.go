package scanner

import (
	"time"
)

// Outcome classifies a single probe.
type Outcome int

const (
	// Unreachable means no connection was established before the timeout,
	// or the connection attempt failed with a socket error.
	Unreachable Outcome = iota
	// Reachable means the TCP handshake completed.
	Reachable
	// HostDown means the stack reported the destination host as down at
	// connect time, without waiting for the timeout.
	HostDown
)

func (o Outcome) String() string {
	switch o {
	case Reachable:
		return "reachable"
	case HostDown:
		return "host down"
	default:
		return "unreachable"
	}
}

// Result holds the outcome of a single probe.
type Result struct {
	Target  Target
	Outcome Outcome
	Elapsed time.Duration
}
