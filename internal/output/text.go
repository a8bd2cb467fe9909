package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/maxvaer/scanport/internal/enrich"
)

// TextWriter writes one dotted-quad address per line. The optional footer
// goes to stderr so the result stream stays clean.
type TextWriter struct {
	w       io.Writer
	closer  io.Closer
	diag    io.Writer
	verbose bool
}

// NewTextWriter creates a text output writer. If outputFile is empty, stdout
// is used. verbose enables the stats footer.
func NewTextWriter(outputFile string, verbose bool) (*TextWriter, error) {
	w, closer, err := openOutput(outputFile)
	if err != nil {
		return nil, err
	}
	return &TextWriter{w: w, closer: closer, diag: os.Stderr, verbose: verbose}, nil
}

func (t *TextWriter) WriteHeader() error { return nil }

func (t *TextWriter) WriteHost(host *enrich.Host) error {
	_, err := fmt.Fprintln(t.w, host.Addr.String())
	return err
}

func (t *TextWriter) WriteFooter(stats Stats) error {
	if !t.verbose {
		return nil
	}
	_, err := fmt.Fprintf(t.diag,
		"\nCompleted: %d probes | Reachable: %d | Unreachable: %d | Host down: %d | Duration: %s | %.1f probes/s\n",
		stats.Probes,
		stats.Reachable,
		stats.Unreachable,
		stats.HostDown,
		stats.Duration.Round(time.Millisecond),
		stats.ProbesPerSec,
	)
	return err
}

func (t *TextWriter) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
