package scanner

// ProbeError is a failure of the probing machinery itself rather than a
// per-host condition. It aborts the whole scan.
type ProbeError struct {
	Op   string // failing operation, e.g. "socket", "connect", "poll"
	Addr string // target address, empty when the failure is not tied to one
	Err  error
}

func (e *ProbeError) Error() string {
	if e.Addr == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Addr + ": " + e.Err.Error()
}

func (e *ProbeError) Unwrap() error { return e.Err }
