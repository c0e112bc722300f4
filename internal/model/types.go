package model

import "fmt"

const (
	// DefaultPort is the port the MCP bridge server starts on when no
	// custom port has been configured, and therefore the port portblock
	// occupies when none is given.
	DefaultPort = 8700

	// DefaultHost is the bind address. The bridge server listens on
	// loopback, so that is where the conflict has to happen.
	DefaultHost = "localhost"

	// MinPort and MaxPort bound the valid TCP port range.
	MinPort = 1
	MaxPort = 65535
)

// PortStatus is the outcome of a single-port availability check.
type PortStatus string

const (
	// PortFree means a listener could be opened on the port.
	PortFree PortStatus = "free"

	// PortInUse means the OS refused the bind with an address-in-use error.
	PortInUse PortStatus = "in-use"

	// PortUnknown means the check failed for some other reason
	// (permission denied, unresolvable host, ...).
	PortUnknown PortStatus = "unknown"
)

// String returns the string representation of PortStatus.
func (s PortStatus) String() string {
	return string(s)
}

// ContainerPublisher is a Docker container that publishes a host port.
// It is filled from the Docker API and never persisted.
type ContainerPublisher struct {
	// ContainerID is the Docker container identifier.
	ContainerID string `json:"containerId" yaml:"containerId"`

	// ContainerName is the container name without the API's leading "/".
	ContainerName string `json:"containerName" yaml:"containerName"`

	// Image is the image reference the container runs.
	Image string `json:"image" yaml:"image"`

	// State is the Docker container state (e.g. "running").
	State string `json:"state" yaml:"state"`

	// HostIP is the host address the port is published on.
	HostIP string `json:"hostIp,omitempty" yaml:"hostIp,omitempty"`

	// PrivatePort is the port inside the container.
	PrivatePort int `json:"privatePort" yaml:"privatePort"`

	// PublicPort is the published host port.
	PublicPort int `json:"publicPort" yaml:"publicPort"`

	// Protocol is "tcp" or "udp".
	Protocol string `json:"protocol" yaml:"protocol"`
}

// String returns "name (image) hostIP:public->private/proto".
func (c ContainerPublisher) String() string {
	hostIP := c.HostIP
	if hostIP == "" {
		hostIP = "0.0.0.0"
	}
	return fmt.Sprintf("%s (%s) %s:%d->%d/%s", c.ContainerName, c.Image, hostIP, c.PublicPort, c.PrivatePort, c.Protocol)
}

// ProbeReport is the result of "portblock probe".
type ProbeReport struct {
	// Host is the bind address that was checked.
	Host string `json:"host" yaml:"host"`

	// Port is the checked port.
	Port int `json:"port" yaml:"port"`

	// Status is the availability verdict.
	Status PortStatus `json:"status" yaml:"status"`

	// Reason carries the OS error text when Status is not PortFree.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Advisories lists warnings about the port choice itself
	// (reserved range, well-known service port).
	Advisories []string `json:"advisories,omitempty" yaml:"advisories,omitempty"`

	// Publishers lists Docker containers publishing the port. Only filled
	// when the Docker lookup was requested.
	Publishers []ContainerPublisher `json:"publishers,omitempty" yaml:"publishers,omitempty"`
}

// ExitCode defines the CLI exit codes. The block command only returns a
// non-zero code when --exit-code is set.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitSettingsNotFound indicates the Unity settings file was not found
	// under the given project directory.
	ExitSettingsNotFound ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitPortInUse indicates the requested port was already bound.
	ExitPortInUse ExitCode = 4

	// ExitInvalidPort indicates a port outside 1-65535 was requested.
	ExitInvalidPort ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
