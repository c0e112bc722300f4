package blocker

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testHost = "127.0.0.1"

// freePort returns a loopback port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", testHost+":0")
	require.NoError(t, err)
	p := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return p
}

// canBind reports whether another socket can bind the port right now.
func canBind(t *testing.T, p int) bool {
	t.Helper()
	ln, err := net.Listen("tcp", net.JoinHostPort(testHost, strconv.Itoa(p)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// syncBuffer lets the test read console output while Run is still writing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func newBlocker(t *testing.T, p int, out *syncBuffer) *Blocker {
	t.Helper()
	cfg := Config{Host: testHost, Port: p, Logger: zaptest.NewLogger(t)}
	if out != nil {
		cfg.Out = out
	}
	return New(cfg)
}

func TestAcquire_OccupiesPort(t *testing.T) {
	p := freePort(t)
	b := newBlocker(t, p, nil)

	require.NoError(t, b.Acquire(context.Background()))
	defer b.Release()

	assert.Equal(t, StateBound, b.State())
	require.NotNil(t, b.listener)
	assert.Equal(t, p, b.listener.Addr().(*net.TCPAddr).Port)
	assert.False(t, canBind(t, p), "port must be held while bound")
}

// TestAcquire_SecondInstanceFails verifies a second blocker on the same port
// gets an address-in-use error and holds nothing.
func TestAcquire_SecondInstanceFails(t *testing.T) {
	p := freePort(t)
	first := newBlocker(t, p, nil)
	require.NoError(t, first.Acquire(context.Background()))
	defer first.Release()

	second := newBlocker(t, p, nil)
	err := second.Acquire(context.Background())
	require.Error(t, err)

	var bindErr *BindError
	require.True(t, errors.As(err, &bindErr))
	assert.Equal(t, KindAddressInUse, bindErr.Kind)
	assert.Equal(t, p, bindErr.Port)
	assert.True(t, errors.Is(err, ErrAddressInUse))
	assert.False(t, errors.Is(err, ErrUnexpected))
	assert.Equal(t, StateIdle, second.State())
	assert.Nil(t, second.listener)
}

func TestAcquire_InvalidPortIsUnexpected(t *testing.T) {
	for _, p := range []int{0, 70000} {
		b := newBlocker(t, p, nil)
		err := b.Acquire(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnexpected), "port %d", p)
		assert.Contains(t, err.Error(), "out of range")
	}
}

func TestAcquire_OnlyFromIdle(t *testing.T) {
	p := freePort(t)
	b := newBlocker(t, p, nil)
	require.NoError(t, b.Acquire(context.Background()))
	defer b.Release()

	err := b.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpected))
}

// TestRelease_FreesPort checks the port is bindable again right after
// release and that release is idempotent.
func TestRelease_FreesPort(t *testing.T) {
	p := freePort(t)
	b := newBlocker(t, p, nil)
	require.NoError(t, b.Acquire(context.Background()))

	assert.True(t, b.Release())
	assert.Equal(t, StateReleased, b.State())
	assert.True(t, canBind(t, p))

	assert.False(t, b.Release(), "second release has nothing to close")
	assert.Equal(t, StateReleased, b.State())
}

func TestRelease_FromIdle(t *testing.T) {
	b := newBlocker(t, freePort(t), nil)
	assert.False(t, b.Release())
	assert.Equal(t, StateReleased, b.State())
}

func TestWait_ReturnsWithoutSocket(t *testing.T) {
	b := newBlocker(t, freePort(t), nil)

	done := make(chan struct{})
	go func() {
		b.Wait(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait must not block when no socket is held")
	}
}

// TestRun_HoldsUntilCancelled walks the whole session: bound message with the
// port and "occupied", wait, cancellation, release message, port free again.
func TestRun_HoldsUntilCancelled(t *testing.T) {
	p := freePort(t)
	out := &syncBuffer{}
	b := newBlocker(t, p, out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan bool, 1)
	go func() { result <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return b.State() == StateWaiting },
		5*time.Second, 10*time.Millisecond)
	assert.False(t, canBind(t, p))
	assert.Contains(t, out.String(), strconv.Itoa(p))
	assert.Contains(t, out.String(), "occupied")

	cancel()

	select {
	case ok := <-result:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.Equal(t, StateReleased, b.State())
	assert.Contains(t, out.String(), "Stopping port blocker")
	assert.Contains(t, out.String(), "Port "+strconv.Itoa(p)+" released")
	assert.True(t, canBind(t, p), "port must be bindable after Run returns")
}

// TestRun_BindFailure verifies a failed bind reports the port, skips the
// wait and leaves the port with its original owner.
func TestRun_BindFailure(t *testing.T) {
	owner, err := net.Listen("tcp", testHost+":0")
	require.NoError(t, err)
	defer func() { _ = owner.Close() }()
	p := owner.Addr().(*net.TCPAddr).Port

	out := &syncBuffer{}
	b := newBlocker(t, p, out)

	// A context that is never cancelled: Run must not enter the wait.
	ok := b.Run(context.Background())
	assert.False(t, ok)
	assert.Equal(t, StateReleased, b.State())
	assert.Contains(t, out.String(), "Could not bind to port "+strconv.Itoa(p))
	assert.Contains(t, out.String(), "might already be in use")
	assert.NotContains(t, out.String(), "released")

	require.NoError(t, owner.Close())
	assert.True(t, canBind(t, p), "nothing may leak after a failed bind")
}

func TestRun_InvalidPort(t *testing.T) {
	out := &syncBuffer{}
	b := newBlocker(t, 70000, out)

	assert.False(t, b.Run(context.Background()))
	assert.Contains(t, out.String(), "Unexpected error")
}

func TestFallbackHint(t *testing.T) {
	assert.Equal(t, "It should fall back to port 8701", fallbackHint(8700))
	assert.Equal(t, "It should fall back to port 65535", fallbackHint(65534))

	top := fallbackHint(65535)
	assert.NotContains(t, top, "65536")
	assert.Contains(t, top, "highest port")
}

// TestRun_HighestPortHint binds the top of the range when it is free and
// checks the console never suggests a port past it.
func TestRun_HighestPortHint(t *testing.T) {
	if !canBind(t, 65535) {
		t.Skip("port 65535 is in use on this host")
	}
	out := &syncBuffer{}
	b := newBlocker(t, 65535, out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan bool, 1)
	go func() { result <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return b.State() == StateWaiting },
		5*time.Second, 10*time.Millisecond)
	cancel()
	require.True(t, <-result)

	assert.Contains(t, out.String(), "highest port")
	assert.NotContains(t, out.String(), "65536")
}

func TestStateAndKindStrings(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "bound", StateBound.String())
	assert.Equal(t, "waiting", StateWaiting.String())
	assert.Equal(t, "released", StateReleased.String())
	assert.Equal(t, "address-in-use", KindAddressInUse.String())
	assert.Equal(t, "unexpected", KindUnexpected.String())
}

func TestNew_Defaults(t *testing.T) {
	b := New(Config{Port: 8700})
	assert.Equal(t, "localhost", b.host)
	assert.Equal(t, 8700, b.port)
	assert.Equal(t, StateIdle, b.State())
}

func TestErr_ReflectsRun(t *testing.T) {
	b := newBlocker(t, 0, nil)
	assert.NoError(t, b.Err())

	assert.False(t, b.Run(context.Background()))
	assert.True(t, errors.Is(b.Err(), ErrUnexpected))
}
