// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the port the server binds to when PORT is unset or empty.
	DefaultPort Port = 8000

	// PortEnvVar is the environment variable consulted by ResolvePort.
	PortEnvVar = "PORT"

	// DefaultHost is the interface the server binds to. Binding all
	// interfaces makes the server reachable from outside the container's
	// network namespace.
	DefaultHost = "0.0.0.0"
)

// ErrInvalidPort is the sentinel error wrapped by InvalidPortError.
var ErrInvalidPort = errors.New("invalid port")

type (
	// Port represents a TCP listening port.
	// Valid ports are in the range 1-65535.
	Port int

	// InvalidPortError is returned when a port value is outside the valid
	// range or when the PORT environment variable does not parse as an
	// integer. Raw preserves the offending input for error messages.
	InvalidPortError struct {
		Value Port
		Raw   string
	}

	// EnvLookupFunc returns the value of an environment variable, empty when
	// unset. Injectable so port resolution can be tested without mutating the
	// process environment.
	EnvLookupFunc func(key string) string
)

// Error implements the error interface.
func (e *InvalidPortError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("invalid port %q (must be an integer in range 1-65535)", e.Raw)
	}
	return fmt.Sprintf("invalid port %d (must be in range 1-65535)", e.Value)
}

// Unwrap returns ErrInvalidPort so callers can use errors.Is for programmatic detection.
func (e *InvalidPortError) Unwrap() error { return ErrInvalidPort }

// String returns the decimal representation of the Port.
func (p Port) String() string { return strconv.Itoa(int(p)) }

// Validate returns an error if the Port is outside the range 1-65535.
func (p Port) Validate() error {
	if p < 1 || p > 65535 {
		return &InvalidPortError{Value: p}
	}
	return nil
}

// ResolvePort resolves the listening port from the environment, once, at
// process start. An unset or empty PORT yields DefaultPort. A set PORT must
// be a valid integer in range 1-65535; anything else is rejected here rather
// than delegated to the bind call, so startup fails with a clear error.
func ResolvePort(lookup EnvLookupFunc) (Port, error) {
	raw := strings.TrimSpace(lookup(PortEnvVar))
	if raw == "" {
		return DefaultPort, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &InvalidPortError{Raw: raw}
	}

	p := Port(n)
	if err := p.Validate(); err != nil {
		return 0, &InvalidPortError{Value: p, Raw: raw}
	}

	return p, nil
}
