package blocker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/mmr-tortoise/portblock/internal/model"
	"github.com/mmr-tortoise/portblock/internal/port"
)

// State is a Blocker lifecycle state. The transitions are:
//
//	Idle → Bound → Waiting → Released
//	Idle/Bound/Waiting → Released (on any exit path)
//
// Released is terminal: a Blocker is single-use.
type State int

const (
	// StateIdle is the initial state; no socket exists yet.
	StateIdle State = iota

	// StateBound means the listener is open and the port is occupied.
	StateBound

	// StateWaiting means Run is blocked until its context is cancelled.
	StateWaiting

	// StateReleased means the socket (if any) has been closed.
	StateReleased
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBound:
		return "bound"
	case StateWaiting:
		return "waiting"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config configures a Blocker.
type Config struct {
	// Host is the bind address. Defaults to model.DefaultHost.
	Host string

	// Port is the TCP port to occupy.
	Port int

	// Out receives the console status lines. Defaults to io.Discard.
	Out io.Writer

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Blocker holds at most one listening socket for the lifetime of a Run.
//
// The socket exists purely to occupy the port: Accept is never called, so
// clients that connect sit in the kernel's backlog until the port is
// released. Exclusive ownership comes from the OS address-in-use check,
// not from anything in this package.
//
// The mutex guards state, listener and runErr. Only the goroutine calling
// Run touches the socket; the lock exists so State and Err can be read
// from elsewhere (tests, the CLI after Run returns).
type Blocker struct {
	// host and port are fixed at construction.
	host string
	port int

	// out receives the console status lines shown to the user.
	out io.Writer

	// logger receives diagnostics, pre-tagged with host and port.
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	listener net.Listener

	// runErr is the bind error of the last Run, kept for exit code mapping.
	runErr error
}

// New creates an idle Blocker. Zero-valued Config fields fall back to
// model.DefaultHost, io.Discard and a no-op logger, so callers only need
// to set what they care about.
func New(cfg Config) *Blocker {
	if cfg.Host == "" {
		cfg.Host = model.DefaultHost
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Blocker{
		host:   cfg.Host,
		port:   cfg.Port,
		out:    cfg.Out,
		logger: cfg.Logger.With(zap.String("host", cfg.Host), zap.Int("port", cfg.Port)),
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (b *Blocker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the bind error of the last Run, or nil if it bound the port.
func (b *Blocker) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runErr
}

// Acquire binds and listens on host:port.
//
// It fails with a *BindError whose Kind tells an occupied port
// (KindAddressInUse) apart from every other failure (KindUnexpected). On
// failure no socket is held, so nothing needs to be cleaned up. There is
// no retry and no search for another port: finding out that the port is
// taken is the whole point for the caller.
//
// Acquire may only be called on an idle Blocker.
func (b *Blocker) Acquire(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A Blocker is single-use; re-acquiring after Release would break the
	// "Released is terminal" rule.
	if b.state != StateIdle {
		return &BindError{Host: b.host, Port: b.port, Kind: KindUnexpected,
			Err: fmt.Errorf("blocker is %s, not idle", b.state)}
	}
	// Reject out-of-range ports before touching the network stack, so the
	// error names the range instead of an opaque resolver message.
	if err := port.ValidateRange(b.port); err != nil {
		return &BindError{Host: b.host, Port: b.port, Kind: KindUnexpected, Err: err}
	}

	// port.Listen uses the shared ListenConfig (SO_REUSEADDR on Unix), the
	// same one port.Prober.Check binds with.
	ln, err := port.Listen(ctx, b.host, b.port)
	if err != nil {
		// Classify by errno rather than by message text; the text differs
		// between Linux, macOS and Windows.
		kind := KindUnexpected
		if port.IsAddrInUse(err) {
			kind = KindAddressInUse
		}
		b.logger.Debug("bind failed", zap.Stringer("kind", kind), zap.Error(err))
		return &BindError{Host: b.host, Port: b.port, Kind: kind, Err: err}
	}

	b.listener = ln
	b.state = StateBound
	b.logger.Debug("port bound", zap.Stringer("addr", ln.Addr()))
	return nil
}

// Wait blocks until ctx is done. It returns immediately unless a socket is
// held, so a failed Acquire never leads into an indefinite wait.
//
// There is no timeout and no polling: the CLI cancels ctx from
// signal.NotifyContext when SIGINT or SIGTERM arrives.
func (b *Blocker) Wait(ctx context.Context) {
	b.mu.Lock()
	if b.state != StateBound {
		b.mu.Unlock()
		return
	}
	b.state = StateWaiting
	b.mu.Unlock()

	<-ctx.Done()
	b.logger.Debug("wait ended", zap.NamedError("cause", context.Cause(ctx)))
}

// Release closes the socket if one is held and moves to StateReleased. It
// reports whether a socket was actually closed. Close errors are logged at
// debug level and otherwise dropped. Release is safe to call repeatedly.
func (b *Blocker) Release() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	// The state moves to Released even when nothing was bound, so every
	// exit path ends in the same terminal state.
	b.state = StateReleased
	if b.listener == nil {
		return false
	}
	// A failing Close must not break the shutdown path; the OS reclaims
	// the descriptor at process exit anyway.
	if err := b.listener.Close(); err != nil {
		b.logger.Debug("close failed during release", zap.Error(err))
	}
	b.listener = nil
	return true
}

// Run is the whole blocking session: acquire, announce, wait for ctx,
// release. It returns false when the port could not be bound. Errors are
// reported on the console, never returned.
//
// The deferred Release runs on every path out of Run, so the port is
// bindable again once Run returns.
func (b *Blocker) Run(ctx context.Context) bool {
	defer func() {
		if b.Release() {
			fmt.Fprintf(b.out, "✅ Port %d released\n", b.port)
		}
	}()

	if err := b.Acquire(ctx); err != nil {
		b.mu.Lock()
		b.runErr = err
		b.mu.Unlock()
		b.reportBindError(err)
		return false
	}

	fmt.Fprintf(b.out, "✅ Port %d is now occupied and blocked\n", b.port)
	fmt.Fprintln(b.out, "📋 Now you can test the MCP server's automatic port adjustment:")
	fmt.Fprintln(b.out, "   1. Open the uLoopMCP window in Unity")
	fmt.Fprintf(b.out, "   2. Try to start the server on port %d\n", b.port)
	fmt.Fprintf(b.out, "   3. %s\n", fallbackHint(b.port))
	fmt.Fprintln(b.out, "\n🛑 Press Ctrl+C to stop blocking the port")

	b.Wait(ctx)

	fmt.Fprintln(b.out, "\n\n🔄 Stopping port blocker...")
	return true
}

// fallbackHint describes where the MCP server should move to when p is
// taken. There is no port above model.MaxPort.
func fallbackHint(p int) string {
	if p >= model.MaxPort {
		return fmt.Sprintf("Port %d is the highest port, so it should report the conflict", p)
	}
	return fmt.Sprintf("It should fall back to port %d", p+1)
}

// reportBindError prints the console lines for a failed Acquire. The
// address-in-use case names the port and the OS reason; anything else is
// reported generically.
func (b *Blocker) reportBindError(err error) {
	var bindErr *BindError
	if !errors.As(err, &bindErr) {
		fmt.Fprintf(b.out, "❌ Unexpected error: %v\n", err)
		return
	}
	switch bindErr.Kind {
	case KindAddressInUse:
		fmt.Fprintf(b.out, "❌ Error: Could not bind to port %d\n", b.port)
		fmt.Fprintf(b.out, "   Reason: %v\n", bindErr.Err)
		fmt.Fprintf(b.out, "   Port %d might already be in use\n", b.port)
	default:
		fmt.Fprintf(b.out, "❌ Unexpected error: %v\n", bindErr.Err)
	}
}
