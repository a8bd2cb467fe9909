package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/maxvaer/scanport/internal/config"
	"github.com/maxvaer/scanport/internal/enrich"
	"github.com/maxvaer/scanport/internal/hook"
	"github.com/maxvaer/scanport/internal/netutil"
	"github.com/maxvaer/scanport/internal/output"
	"github.com/maxvaer/scanport/internal/scanner"
	"github.com/maxvaer/scanport/pkg/version"
)

const (
	// lookupTimeout bounds each PTR query; the probe timeout is usually far
	// too short for DNS.
	lookupTimeout = 2 * time.Second
	arpTimeout    = time.Second
)

// Run executes the full pipeline: subnets -> scan -> enrich -> output ->
// hooks. Nothing is written to the output unless the scan completes.
func Run(ctx context.Context, opts *config.Options) error {
	return run(ctx, opts, nil)
}

// run is Run with an optional probe override.
func run(ctx context.Context, opts *config.Options, probe scanner.ProbeFunc) error {
	prefixes, err := resolveSubnets(opts)
	if err != nil {
		return err
	}

	var debugf func(format string, args ...any)
	if opts.Debug {
		debugf = debugLogger()
	}

	if probe == nil {
		prober := scanner.NewProber()
		prober.Debugf = debugf
		probe = prober.Probe
	}

	enricher := buildEnricher(opts, debugf)

	if opts.Verbose {
		printBanner(opts, prefixes, enricher)
	}

	progress := output.NewProgress(len(prefixes)*scanner.HostsPerSubnet, opts.Progress)
	s := &scanner.Scanner{Probe: probe, Observer: progress.Observe}

	progress.Start()
	reachable, err := s.Run(ctx, scanner.Request{
		Timeout: opts.Timeout,
		Port:    opts.Port,
		Subnets: prefixes,
	})
	progress.Stop()
	if err != nil {
		return err
	}

	hosts := enricher.Enrich(ctx, reachable, opts.Port)

	out, err := createWriter(opts)
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	defer out.Close()

	if err := out.WriteHeader(); err != nil {
		return err
	}
	for i := range hosts {
		if err := out.WriteHost(&hosts[i]); err != nil {
			return err
		}
	}
	if err := out.WriteFooter(progress.Stats()); err != nil {
		return err
	}

	if opts.OnReachableCmd != "" {
		hookRunner := hook.NewRunner(opts.OnReachableCmd, !opts.Verbose && !opts.Debug)
		for i := range hosts {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			hookRunner.Run(ctx, &hosts[i])
		}
	}
	return nil
}

// resolveSubnets collects subnet specifications from the arguments and the
// subnets file and converts them to scanner prefixes, keeping their order.
func resolveSubnets(opts *config.Options) ([]string, error) {
	specs := append([]string(nil), opts.Subnets...)
	if opts.SubnetsFile != "" {
		fromFile, err := netutil.LoadSubnets(opts.SubnetsFile)
		if err != nil {
			return nil, err
		}
		specs = append(specs, fromFile...)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no subnets specified")
	}
	return netutil.ParseSubnets(specs)
}

// buildEnricher sets up the requested lookups. A lookup that cannot be set
// up is reported and skipped; it never stops the scan.
func buildEnricher(opts *config.Options, debugf func(string, ...any)) *enrich.Enricher {
	e := &enrich.Enricher{Workers: opts.EnrichWorkers, Debugf: debugf}

	if opts.Resolve {
		r, err := enrich.NewPTRResolver(opts.Resolver, lookupTimeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] Hostname lookup disabled: %v\n", err)
		} else {
			e.Resolver = r
		}
	}

	if opts.ARP || opts.OUIDatabase != "" {
		a, err := enrich.NewARPLookup(arpTimeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] MAC lookup disabled: %v\n", err)
		} else {
			e.ARP = a
		}
	}

	if opts.OUIDatabase != "" && e.ARP != nil {
		db, err := enrich.OpenVendorDB(opts.OUIDatabase)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] Vendor lookup disabled: %v\n", err)
		} else {
			e.Vendors = db
		}
	}
	return e
}

func createWriter(opts *config.Options) (output.Writer, error) {
	switch opts.OutputFormat {
	case "json":
		return output.NewJSONWriter(opts.OutputFile)
	case "csv":
		return output.NewCSVWriter(opts.OutputFile)
	default:
		return output.NewTextWriter(opts.OutputFile, opts.Verbose)
	}
}

func debugLogger() func(format string, args ...any) {
	return func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

func printBanner(opts *config.Options, prefixes []string, e *enrich.Enricher) {
	const (
		cyan   = "\033[36m"
		white  = "\033[97m"
		dim    = "\033[2m"
		red    = "\033[31m"
		green  = "\033[32m"
		yellow = "\033[33m"
		reset  = "\033[0m"
	)

	c, w, d, r, g, y, rs := cyan, white, dim, red, green, yellow, reset
	if opts.NoColor || !isatty.IsTerminal(os.Stderr.Fd()) {
		c, w, d, r, g, y, rs = "", "", "", "", "", "", ""
	}

	onOff := func(on bool) string {
		if on {
			return g + "ON" + rs
		}
		return r + "OFF" + rs
	}

	subnetLabel := fmt.Sprintf("%s0/24", prefixes[0])
	if len(prefixes) > 1 {
		subnetLabel += fmt.Sprintf(" (+%d more)", len(prefixes)-1)
	}

	fmt.Fprintf(os.Stderr, "\n%s  scanport%s %sv%s%s\n", c, rs, d, version.Version, rs)
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n", d, rs)
	fmt.Fprintf(os.Stderr, "  %sSubnets:%s      %s%s%s\n", d, rs, w, subnetLabel, rs)
	fmt.Fprintf(os.Stderr, "  %sProbes:%s       %s%d%s\n", d, rs, y, len(prefixes)*scanner.HostsPerSubnet, rs)
	fmt.Fprintf(os.Stderr, "  %sPort:%s         %s%d%s\n", d, rs, w, opts.Port, rs)
	fmt.Fprintf(os.Stderr, "  %sTimeout:%s      %s%s%s\n", d, rs, w, opts.Timeout, rs)
	fmt.Fprintf(os.Stderr, "  %sHostnames:%s    %s\n", d, rs, onOff(e.Resolver != nil))
	fmt.Fprintf(os.Stderr, "  %sMAC lookup:%s   %s\n", d, rs, onOff(e.ARP != nil))
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n\n", d, rs)
}
