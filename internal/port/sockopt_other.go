//go:build !unix && !windows

package port

import (
	"strings"
	"syscall"
)

func control(_, _ string, _ syscall.RawConn) error {
	return nil
}

// IsAddrInUse falls back to matching the error text on platforms without a
// stable errno for the condition.
func IsAddrInUse(err error) bool {
	return err != nil && strings.Contains(err.Error(), "address already in use")
}
