// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultShutdownTimeout bounds the graceful drain performed by Stop.
	DefaultShutdownTimeout = 10 * time.Second
)

type (
	// Config holds immutable configuration for the launcher.
	Config struct {
		// Host is the address to bind to (default: 0.0.0.0).
		Host string
		// Port is the port to listen on. The zero value auto-selects a free
		// port, which is only useful in tests; production callers pass a
		// resolved Port from ResolvePort or the configuration layer.
		Port Port
		// ShutdownTimeout is the timeout for graceful shutdown (default: 10s).
		ShutdownTimeout time.Duration
	}

	// Launcher owns exactly one server process lifecycle: it binds a listener
	// on host:port and hands every connection to the injected application
	// handler. It holds no routing, persistence, or business rules of its own.
	//
	// A Launcher instance is single-use: once stopped or failed, create a new
	// instance.
	Launcher struct {
		// Immutable after New
		cfg Config
		app http.Handler

		// State management (atomic for lock-free reads)
		state atomic.Int32

		// Initialized during Start() - protected by stateMu for writes
		stateMu  sync.Mutex
		listener net.Listener
		srv      *http.Server
		addr     string // Actual bound address (including resolved port)
		lastErr  error

		// Lifecycle management
		wg    sync.WaitGroup
		errCh chan error // Receives the fatal serve error, buffer 1

		logger *log.Logger
	}
)

// New creates a Launcher that delegates all request handling to app.
// The application is injected rather than hard-referenced so the launcher can
// be exercised against any handler, including test stand-ins.
func New(app http.Handler, opts ...Option) (*Launcher, error) {
	if app == nil {
		return nil, errors.New("launcher: application handler must not be nil")
	}

	l := &Launcher{
		cfg: Config{
			Host:            DefaultHost,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		app:    app,
		errCh:  make(chan error, 1),
		logger: log.Default(),
	}
	l.state.Store(int32(StateCreated))

	for _, opt := range opts {
		opt(l)
	}

	if l.cfg.Port != 0 {
		if err := l.cfg.Port.Validate(); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// State returns the current launcher state (atomic, lock-free read).
func (l *Launcher) State() State {
	return State(l.state.Load())
}

// IsRunning returns true if the launcher is in the Running state.
func (l *Launcher) IsRunning() bool {
	return l.State() == StateRunning
}

// Err returns a channel that receives the fatal serve error, if any.
func (l *Launcher) Err() <-chan error {
	return l.errCh
}

// LastError returns the error that caused the Failed state, or nil.
func (l *Launcher) LastError() error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.lastErr
}

// Addr returns the actual bound address (host:port). Empty until Running.
func (l *Launcher) Addr() string {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.addr
}

// BoundPort returns the port the listener is bound to. Zero until Running.
func (l *Launcher) BoundPort() Port {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if l.listener == nil {
		return 0
	}
	tcpAddr, ok := l.listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0
	}
	return Port(tcpAddr.Port)
}

// Start binds the listener and begins serving in a background goroutine.
// It returns once the server is accepting connections, or with an error if
// the bind fails (port in use, invalid address). A bind failure leaves the
// launcher in the terminal Failed state; no partially-started server exists.
func (l *Launcher) Start(ctx context.Context) error {
	// Check for already-cancelled context BEFORE any setup so the serve
	// goroutine can never observe Running after a cancelled start.
	select {
	case <-ctx.Done():
		return fmt.Errorf("launcher start canceled: %w", ctx.Err())
	default:
	}

	l.stateMu.Lock()
	if State(l.state.Load()) != StateCreated {
		state := State(l.state.Load())
		l.stateMu.Unlock()
		return fmt.Errorf("launcher cannot start from state %q (single-use: create a new instance)", state)
	}
	l.state.Store(int32(StateStarting))
	l.stateMu.Unlock()

	addr := net.JoinHostPort(l.cfg.Host, l.cfg.Port.String())
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		l.fail(fmt.Errorf("bind %s: %w", addr, err))
		return l.LastError()
	}

	srv := &http.Server{Handler: l.app}

	l.stateMu.Lock()
	l.listener = listener
	l.srv = srv
	l.addr = listener.Addr().String()
	l.state.Store(int32(StateRunning))
	l.stateMu.Unlock()

	l.logger.Info("server listening", "addr", l.addr)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			l.fail(serveErr)
		}
	}()

	return nil
}

// Wait blocks until the server fails or the context is done. It occupies the
// remainder of the process lifetime in normal operation: a nil return means
// termination was requested externally, a non-nil return is the serve error.
func (l *Launcher) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-l.errCh:
		return err
	}
}

// Stop gracefully drains in-flight requests within ShutdownTimeout and then
// closes the listener. Calling Stop on a launcher that is not Running is a
// no-op. Stop is safe to call once per instance.
func (l *Launcher) Stop(ctx context.Context) error {
	l.stateMu.Lock()
	if State(l.state.Load()) != StateRunning {
		l.stateMu.Unlock()
		return nil
	}
	l.state.Store(int32(StateStopping))
	srv := l.srv
	l.stateMu.Unlock()

	l.logger.Info("server stopping", "addr", l.addr, "timeout", l.cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(ctx, l.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	l.wg.Wait()

	l.stateMu.Lock()
	l.state.Store(int32(StateStopped))
	l.stateMu.Unlock()

	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// fail transitions to the terminal Failed state and publishes the error.
func (l *Launcher) fail(err error) {
	l.stateMu.Lock()
	l.state.Store(int32(StateFailed))
	l.lastErr = err
	l.stateMu.Unlock()

	l.logger.Error("server failed", "error", err)

	select {
	case l.errCh <- err:
	default:
	}
}
