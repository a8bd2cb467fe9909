//go:build aix || solaris

package scanner

import "golang.org/x/sys/unix"

var (
	errHostDown       error = unix.EHOSTDOWN
	errNetUnreachable error = unix.ENETUNREACH
	errTooManyFiles   error = unix.EMFILE
)
