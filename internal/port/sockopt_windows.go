//go:build windows

package port

import (
	"errors"
	"syscall"

	"golang.org/x/sys/windows"
)

// control is a no-op on Windows. SO_REUSEADDR there allows a second socket to
// steal a bound port, which is the opposite of what a blocker wants.
func control(_, _ string, _ syscall.RawConn) error {
	return nil
}

// IsAddrInUse reports whether err is WSAEADDRINUSE.
func IsAddrInUse(err error) bool {
	return errors.Is(err, windows.WSAEADDRINUSE)
}
