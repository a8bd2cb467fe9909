package output

import (
	"io"
	"os"
	"time"

	"github.com/maxvaer/scanport/internal/enrich"
)

// Stats holds aggregate scan statistics.
type Stats struct {
	Probes       int
	Reachable    int
	Unreachable  int
	HostDown     int
	Duration     time.Duration
	ProbesPerSec float64
}

// Writer is implemented by each output format.
type Writer interface {
	WriteHeader() error
	WriteHost(host *enrich.Host) error
	WriteFooter(stats Stats) error
	Close() error
}

// openOutput returns stdout, or the created file and its closer.
func openOutput(outputFile string) (io.Writer, io.Closer, error) {
	if outputFile == "" {
		return os.Stdout, nil, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}
