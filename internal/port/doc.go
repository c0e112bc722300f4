// Package port holds the low-level port helpers shared by the blocker and the
// probe command.
//
// It covers three things:
//   - Parsing and range-checking the port argument, plus advisories for
//     ports the MCP bridge server refuses (reserved range, well-known ports)
//   - A net.ListenConfig that enables SO_REUSEADDR on Unix, and
//     platform-specific detection of "address already in use" errors
//   - A one-shot availability check for a single port (Prober)
package port
