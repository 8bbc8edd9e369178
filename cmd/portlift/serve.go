// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"portlift/internal/issue"
	"portlift/internal/launcher"

	"github.com/spf13/cobra"
)

var (
	serveStatus int
	serveHost   string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the built-in status application",
		Long: `Serve the built-in status application in-process.

The server binds to the port named by the PORT environment variable
(default 8000) on all interfaces and answers every request with a
fixed status code. A /healthz endpoint always answers 200, which is
useful as a container health check target.

The command blocks until interrupted or until the server fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
)

func init() {
	serveCmd.Flags().IntVar(&serveStatus, "status", 200, "HTTP status code returned by the application")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "interface to bind to (default from config)")
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	port, err := resolvePort(cfg)
	if err != nil {
		return err
	}

	host := cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}

	app := launcher.WithHealthz(launcher.FixedStatusApp(serveStatus))
	l, err := launcher.New(app,
		launcher.WithHost(host),
		launcher.WithPort(port),
		launcher.WithLogger(buildLogger()),
	)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := l.Start(sigCtx); err != nil {
		if isAddrInUse(err) {
			renderIssue(issue.PortInUseId)
		}
		return err
	}

	if err := l.Wait(sigCtx); err != nil {
		renderIssue(issue.ServeFailedId)
		return err
	}

	// Termination was requested; drain in-flight requests before exiting.
	return l.Stop(context.Background())
}

// isAddrInUse reports whether err stems from binding an already-claimed port.
func isAddrInUse(err error) bool {
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	return strings.Contains(err.Error(), "address already in use")
}
