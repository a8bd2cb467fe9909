package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/maxvaer/scanport/internal/enrich"
)

// CSVWriter writes results in CSV format.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(outputFile string) (*CSVWriter, error) {
	w, closer, err := openOutput(outputFile)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"address", "port", "hostname", "mac", "vendor"})
}

func (c *CSVWriter) WriteHost(host *enrich.Host) error {
	return c.w.Write([]string{
		host.Addr.String(),
		strconv.Itoa(int(host.Port)),
		host.Hostname,
		host.MAC,
		host.Vendor,
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
