// Package model defines the value types shared by the portblock CLI.
//
// This package contains pure data structures with no external dependencies:
// the probe report rendered by "portblock probe", the container publisher
// entries returned from the Docker lookup, and the exit code / CLIError pair
// that the CLI layer translates into OS process exit codes.
package model
