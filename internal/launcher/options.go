// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"time"

	"github.com/charmbracelet/log"
)

// Option configures a Launcher instance.
type Option func(*Launcher)

// WithHost sets the bind address. The default (0.0.0.0) binds all interfaces.
func WithHost(host string) Option {
	return func(l *Launcher) {
		l.cfg.Host = host
	}
}

// WithPort sets the listening port. Zero auto-selects a free port (tests only).
func WithPort(port Port) Option {
	return func(l *Launcher) {
		l.cfg.Port = port
	}
}

// WithShutdownTimeout bounds the graceful drain performed by Stop.
func WithShutdownTimeout(d time.Duration) Option {
	return func(l *Launcher) {
		l.cfg.ShutdownTimeout = d
	}
}

// WithLogger sets the structured logger used for lifecycle events.
func WithLogger(logger *log.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}
