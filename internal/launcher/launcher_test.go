// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// newTestLauncher creates a launcher on an auto-selected port with quiet logging.
func newTestLauncher(t *testing.T, app http.Handler, opts ...Option) *Launcher {
	t.Helper()

	opts = append([]Option{
		WithPort(0),
		WithLogger(log.New(io.Discard)),
		WithShutdownTimeout(2 * time.Second),
	}, opts...)

	l, err := New(app, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return l
}

func TestLauncherLifecycle(t *testing.T) {
	t.Parallel()

	l := newTestLauncher(t, FixedStatusApp(http.StatusTeapot))

	if l.State() != StateCreated {
		t.Fatalf("initial state = %s, want created", l.State())
	}

	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !l.IsRunning() {
		t.Fatalf("state after Start = %s, want running", l.State())
	}

	port := l.BoundPort()
	if port == 0 {
		t.Fatal("BoundPort() = 0 after Start")
	}

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/anything", port))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTeapot)
	}

	if err := l.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if l.State() != StateStopped {
		t.Errorf("state after Stop = %s, want stopped", l.State())
	}
	if !l.State().IsTerminal() {
		t.Error("stopped state should be terminal")
	}
}

func TestLauncherBindsAllInterfacesByDefault(t *testing.T) {
	t.Parallel()

	// No WithHost: the launcher must fall back to DefaultHost.
	l := newTestLauncher(t, FixedStatusApp(http.StatusOK))

	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = l.Stop(ctx) }()

	host, _, err := net.SplitHostPort(l.Addr())
	if err != nil {
		t.Fatalf("SplitHostPort(%q) failed: %v", l.Addr(), err)
	}
	if host != DefaultHost {
		t.Errorf("bound host = %q, want %q", host, DefaultHost)
	}
}

func TestLauncherDelegatesEveryRequest(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
	)
	app := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	l := newTestLauncher(t, app)
	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = l.Stop(ctx) }()

	for _, path := range []string{"/", "/api/items", "/deep/nested/route"} {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", l.BoundPort(), path))
		if err != nil {
			t.Fatalf("request %s failed: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("status for %s = %d, want 204", path, resp.StatusCode)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 3 {
		t.Errorf("application saw %d requests, want 3", len(paths))
	}
}

func TestLauncherRejectsNilApplication(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) succeeded, want error")
	}
}

func TestLauncherRejectsInvalidPort(t *testing.T) {
	t.Parallel()

	if _, err := New(FixedStatusApp(http.StatusOK), WithPort(-1)); err == nil {
		t.Fatal("New with port -1 succeeded, want error")
	}
}

func TestLauncherIsSingleUse(t *testing.T) {
	t.Parallel()

	l := newTestLauncher(t, FixedStatusApp(http.StatusOK))
	ctx := context.Background()

	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := l.Start(ctx); err == nil {
		t.Error("second Start succeeded, want error")
	}

	if err := l.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := l.Start(ctx); err == nil {
		t.Error("Start after Stop succeeded, want error")
	}
}

func TestLauncherPortInUse(t *testing.T) {
	t.Parallel()

	// Occupy a port, then ask the launcher to bind the same one.
	blocker, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer func() { _ = blocker.Close() }()
	port := Port(blocker.Addr().(*net.TCPAddr).Port)

	l := newTestLauncher(t, FixedStatusApp(http.StatusOK), WithHost("127.0.0.1"), WithPort(port))

	err = l.Start(context.Background())
	if err == nil {
		t.Fatal("Start on occupied port succeeded, want error")
	}
	if l.State() != StateFailed {
		t.Errorf("state after failed bind = %s, want failed", l.State())
	}
	if l.LastError() == nil {
		t.Error("LastError() = nil after failed bind")
	}
}

func TestLauncherStartWithCancelledContext(t *testing.T) {
	t.Parallel()

	l := newTestLauncher(t, FixedStatusApp(http.StatusOK))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Start(ctx); err == nil {
		t.Fatal("Start with cancelled context succeeded, want error")
	}
	if l.State() != StateCreated {
		t.Errorf("state = %s, want created (no partial startup)", l.State())
	}
}

func TestLauncherWaitReturnsWhenContextDone(t *testing.T) {
	t.Parallel()

	l := newTestLauncher(t, FixedStatusApp(http.StatusOK))
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = l.Stop(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err != nil {
		t.Errorf("Wait returned %v on external termination, want nil", err)
	}
}

func TestLauncherStopBeforeStartIsNoop(t *testing.T) {
	t.Parallel()

	l := newTestLauncher(t, FixedStatusApp(http.StatusOK))
	if err := l.Stop(context.Background()); err != nil {
		t.Errorf("Stop before Start returned %v, want nil", err)
	}
	if l.State() != StateCreated {
		t.Errorf("state = %s, want created", l.State())
	}
}

func TestFixedStatusApp(t *testing.T) {
	t.Parallel()

	app := FixedStatusApp(http.StatusOK)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whatever", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestWithHealthz(t *testing.T) {
	t.Parallel()

	app := WithHealthz(FixedStatusApp(http.StatusServiceUnavailable))

	t.Run("healthz always reports OK", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("healthz status = %d, want 200", rec.Code)
		}
	})

	t.Run("other routes reach the application", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("app status = %d, want 503", rec.Code)
		}
	})
}
