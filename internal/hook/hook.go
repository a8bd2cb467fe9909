package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/maxvaer/scanport/internal/enrich"
)

// Timeout bounds each hook invocation.
const Timeout = 30 * time.Second

// hostJSON is the JSON payload sent to the hook command via stdin.
type hostJSON struct {
	Address  string `json:"address"`
	Port     uint16 `json:"port"`
	Hostname string `json:"hostname,omitempty"`
	MAC      string `json:"mac,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
}

// Runner executes a shell command for each reachable host.
type Runner struct {
	cmd   string
	quiet bool
	out   io.Writer
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet, out: os.Stderr}
}

// Run executes the hook command with the host as JSON on stdin. Errors are
// logged but do not fail the scan.
func (r *Runner) Run(ctx context.Context, host *enrich.Host) {
	payload := hostJSON{
		Address:  host.Addr.String(),
		Port:     host.Port,
		Hostname: host.Hostname,
		MAC:      host.MAC,
		Vendor:   host.Vendor,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(r.out, "[hook] marshal error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.expand(host))...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = r.out

	output, err := cmd.Output()
	if err != nil {
		if !r.quiet {
			fmt.Fprintf(r.out, "[hook] %s: %v\n", payload.Address, err)
		}
		return
	}

	if len(output) > 0 && !r.quiet {
		fmt.Fprintf(r.out, "[hook] %s", output)
	}
}

// expand replaces {addr}, {port}, {hostname} and {mac} in the command.
func (r *Runner) expand(host *enrich.Host) string {
	return strings.NewReplacer(
		"{addr}", host.Addr.String(),
		"{port}", strconv.Itoa(int(host.Port)),
		"{hostname}", host.Hostname,
		"{mac}", host.MAC,
	).Replace(r.cmd)
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
