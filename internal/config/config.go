package config

import "time"

// Options holds all configuration for a scanport run.
type Options struct {
	// Target
	Timeout     time.Duration
	Port        uint16
	Subnets     []string // "A.B.C.D/24" specifications, in order
	SubnetsFile string

	// Diagnostics
	Debug    bool // per-probe lines on stderr
	Verbose  bool // banner and stats footer
	Progress bool
	NoColor  bool

	// Output
	OutputFile   string
	OutputFormat string // "text", "json", "csv"

	// Enrichment
	Resolve       bool
	Resolver      string // host[:port]; empty = system resolver
	ARP           bool
	OUIDatabase   string
	EnrichWorkers int

	// Hooks
	OnReachableCmd string
}
