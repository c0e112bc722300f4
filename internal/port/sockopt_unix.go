//go:build unix

package port

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// control enables SO_REUSEADDR before bind. On Unix this only lets us reuse
// an address stuck in TIME_WAIT; it never allows two listeners on the same
// address, so the port stays exclusively ours.
func control(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// IsAddrInUse reports whether err is the OS "address already in use" error.
func IsAddrInUse(err error) bool {
	return errors.Is(err, unix.EADDRINUSE)
}
