package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/maxvaer/scanport/internal/config"
	"github.com/maxvaer/scanport/internal/enrich"
	"github.com/maxvaer/scanport/internal/netutil"
	"github.com/maxvaer/scanport/internal/runner"
	"github.com/maxvaer/scanport/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var opts config.Options

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"subnets-file"}},
	{"ENRICHMENT", []string{"resolve", "resolver", "arp", "oui-db", "enrich-workers"}},
	{"OUTPUT", []string{"output", "format", "verbose", "progress", "no-color", "on-reachable"}},
	{"DEBUG", []string{"debug"}},
}

var rootCmd = &cobra.Command{
	Use:     "scanport [flags] TIMEOUT PORT SUBNET...",
	Short:   "Concurrent TCP port probe across /24 subnets",
	Version: version.Version,
	Long: `scanport probes one TCP port on every host address (.1 to .254) of one
or more /24 subnets at once and prints the addresses that accepted a
connection within TIMEOUT, in subnet order.`,
	Example: `  scanport 0.5 22 192.168.1.0/24
  scanport 500ms 443 10.0.0.0/24 10.0.1.0/24
  scanport 1 80 -l subnets.txt -o hosts.json --format json
  scanport 0.2 3389 10.10.0.0/24 --resolve --arp --oui-db oui.txt
  scanport 1 22 192.168.1.0/24 --on-reachable "ssh-keyscan {addr}"`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 || (len(args) == 2 && opts.SubnetsFile == "") {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("expected TIMEOUT PORT SUBNET... (or -l with TIMEOUT PORT)")
		}

		timeout, err := netutil.ParseTimeout(args[0])
		if err != nil {
			return err
		}
		port, err := netutil.ParsePort(args[1])
		if err != nil {
			return err
		}
		opts.Timeout = timeout
		opts.Port = port
		opts.Subnets = args[2:]

		switch opts.OutputFormat {
		case "text", "json", "csv":
		default:
			return fmt.Errorf("--format must be one of: text, json, csv")
		}
		if opts.EnrichWorkers < 1 {
			return fmt.Errorf("--enrich-workers must be at least 1")
		}
		if cmd.Flags().Changed("resolver") {
			opts.Resolve = true
		}
		if opts.OUIDatabase != "" {
			opts.ARP = true
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.Run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()

	// Target
	f.StringVarP(&opts.SubnetsFile, "subnets-file", "l", "", "File with one subnet per line (A.B.C.D/24)")

	// Enrichment
	f.BoolVar(&opts.Resolve, "resolve", false, "Look up PTR hostnames of reachable hosts")
	f.StringVar(&opts.Resolver, "resolver", "", "DNS server for --resolve (host[:port], default: "+enrich.DefaultResolvConf+")")
	f.BoolVar(&opts.ARP, "arp", false, "Look up MAC addresses of reachable hosts (local segment, needs root)")
	f.StringVar(&opts.OUIDatabase, "oui-db", "", "IEEE oui.txt for MAC vendor names (implies --arp)")
	f.IntVar(&opts.EnrichWorkers, "enrich-workers", enrich.DefaultWorkers, "Concurrent enrichment lookups")

	// Output
	f.StringVarP(&opts.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	f.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, csv")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print banner and scan statistics to stderr")
	f.BoolVar(&opts.Progress, "progress", false, "Show a live progress line on stderr")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.StringVar(&opts.OnReachableCmd, "on-reachable", "", "Shell command to run for each reachable host (receives JSON on stdin)")

	// Debug
	f.BoolVar(&opts.Debug, "debug", false, "Print per-probe diagnostics to stderr")

	// Custom help: categorized flags.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nArguments:\n")
		fmt.Fprintf(w, "   TIMEOUT   per-probe timeout, seconds (0.5) or duration (500ms)\n")
		fmt.Fprintf(w, "   PORT      TCP port, 0-65535\n")
		fmt.Fprintf(w, "   SUBNET    IPv4 /24 subnet, e.g. 192.168.1.0/24\n")
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(os.Args[0]), err)
		os.Exit(1)
	}
}

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 32
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
   ___ ___ __ _ _ _  _ __  ___ _ _| |_
  (_-</ _/ _' | ' \| '_ \/ _ \ '_|  _|
  /__/\__\__,_|_||_| .__/\___/_|  \__|
                   |_|                  %s

`, ver)
}
