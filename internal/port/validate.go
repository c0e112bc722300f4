package port

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/portblock/internal/model"
)

// reservedThreshold is the first port outside the privileged range. The MCP
// bridge server refuses anything below it.
const reservedThreshold = 1024

// commonPorts are well-known service ports the MCP bridge server refuses
// even though they are above zero.
var commonPorts = []int{80, 443, 21, 22, 23, 25, 53, 110, 143, 993, 995, 3389}

// ParseArg resolves the optional positional port argument.
//
// With no argument the fallback is returned. A non-integer argument also
// yields the fallback, with ok=false so the caller can print a warning.
// Out-of-range integers are returned as-is; binding them fails later and is
// reported as an unexpected error.
func ParseArg(args []string, fallback int) (port int, ok bool) {
	if len(args) == 0 {
		return fallback, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return fallback, false
	}
	return n, true
}

// ValidateRange checks that port is in 1-65535.
func ValidateRange(port int) error {
	if port < model.MinPort || port > model.MaxPort {
		return fmt.Errorf("port %d out of range (%d-%d)", port, model.MinPort, model.MaxPort)
	}
	return nil
}

// Advisories returns warnings about ports the MCP bridge server would refuse
// to use. Blocking such a port still works; the warnings only point out that
// the fallback behaviour will not be exercised by it.
func Advisories(port int) []string {
	if ValidateRange(port) != nil {
		return nil
	}
	var out []string
	if port < reservedThreshold {
		out = append(out, fmt.Sprintf("port %d is in the reserved range (%d-%d); the MCP server only accepts ports from %d",
			port, model.MinPort, reservedThreshold-1, reservedThreshold))
	}
	if slices.Contains(commonPorts, port) {
		out = append(out, fmt.Sprintf("port %d is a commonly used system port; the MCP server will not start on it", port))
	}
	return out
}
