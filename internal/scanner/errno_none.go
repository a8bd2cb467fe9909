//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows || aix || solaris)

package scanner

// No portable error numbers on this platform; dial failures are classified
// by type alone.
var (
	errHostDown       error
	errNetUnreachable error
	errTooManyFiles   error
)
