// Package blocker occupies one TCP port until the process is interrupted.
//
// A Blocker binds a listener on host:port, never accepts on it, waits for
// its context to be cancelled and then closes the listener. Every exit path
// goes through Release, so the port is free again as soon as Run returns.
//
// Lifecycle:
//
//	Idle → Bound → Waiting → Released
//
// Released is terminal and is reached from every other state.
package blocker
