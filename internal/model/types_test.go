package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPortStatus_String verifies the string form used in probe output.
func TestPortStatus_String(t *testing.T) {
	tests := []struct {
		status   PortStatus
		expected string
	}{
		{PortFree, "free"},
		{PortInUse, "in-use"},
		{PortUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

// TestContainerPublisher_String checks the one-line form printed by probe,
// including the 0.0.0.0 fallback for an empty host IP.
func TestContainerPublisher_String(t *testing.T) {
	p := ContainerPublisher{
		ContainerName: "unity-bridge",
		Image:         "node:20",
		PrivatePort:   8700,
		PublicPort:    8700,
		Protocol:      "tcp",
	}
	assert.Equal(t, "unity-bridge (node:20) 0.0.0.0:8700->8700/tcp", p.String())

	p.HostIP = "127.0.0.1"
	assert.Equal(t, "unity-bridge (node:20) 127.0.0.1:8700->8700/tcp", p.String())
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitPortInUse, "port 8700 is already in use")
		assert.Equal(t, ExitPortInUse, err.Code)
		assert.Equal(t, "port 8700 is already in use", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("connection refused")
		err := WrapCLIError(ExitDockerNotRunning, "Docker daemon is not running", inner)
		assert.Equal(t, ExitDockerNotRunning, err.Code)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, inner, err.Unwrap())
	})

	t.Run("errors.Is chain", func(t *testing.T) {
		inner := errors.New("no such file")
		err := WrapCLIError(ExitSettingsNotFound, "settings not found", inner)
		assert.True(t, errors.Is(err, inner))
	})
}
