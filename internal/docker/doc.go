// Package docker looks up Docker containers that publish a given host port.
//
// When a probe finds a port taken, the owner is frequently a container
// started by docker run -p or Compose. This package connects to the Docker
// Engine (with automatic socket detection on Linux, macOS and Windows) and
// lists the containers whose published ports match.
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
