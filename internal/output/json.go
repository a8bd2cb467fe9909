package output

import (
	"encoding/json"
	"io"

	"github.com/maxvaer/scanport/internal/enrich"
)

type jsonEntry struct {
	Address  string `json:"address"`
	Port     uint16 `json:"port"`
	Hostname string `json:"hostname,omitempty"`
	MAC      string `json:"mac,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
}

// JSONWriter writes results as a JSON array once the scan has finished.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []jsonEntry
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
	w, closer, err := openOutput(outputFile)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{w: w, closer: closer, entries: []jsonEntry{}}, nil
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteHost(host *enrich.Host) error {
	j.entries = append(j.entries, jsonEntry{
		Address:  host.Addr.String(),
		Port:     host.Port,
		Hostname: host.Hostname,
		MAC:      host.MAC,
		Vendor:   host.Vendor,
	})
	return nil
}

func (j *JSONWriter) WriteFooter(_ Stats) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.entries)
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
