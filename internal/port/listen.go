package port

import (
	"context"
	"net"
	"strconv"
)

// ListenConfig returns the net.ListenConfig used for every bind in this
// module, so the probe and the blocker agree on what "free" means.
func ListenConfig() *net.ListenConfig {
	return &net.ListenConfig{Control: control}
}

// Listen opens a TCP listener on host:port with ListenConfig.
func Listen(ctx context.Context, host string, port int) (net.Listener, error) {
	return ListenConfig().Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
