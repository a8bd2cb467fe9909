package scanner

import "golang.org/x/sys/windows"

var (
	errHostDown       error = windows.WSAEHOSTDOWN
	errNetUnreachable error = windows.WSAENETUNREACH
	errTooManyFiles   error = windows.WSAEMFILE
)
