// SPDX-License-Identifier: MPL-2.0

// Package launcher starts a single long-running HTTP server process bound to a
// configurable network port and delegates every request to an injected
// application handler.
//
// The listening port is resolved exactly once, at process start, via
// ResolvePort: the PORT environment variable when set to a valid port number,
// or DefaultPort (8000) when unset or empty. Invalid values are rejected with
// an error instead of being passed downstream.
//
// A Launcher instance is single-use and moves through the lifecycle
// Created → Starting → Running → Stopping → Stopped, with Failed as the
// terminal error state. Start binds the listener (0.0.0.0 by default), Wait
// blocks for the lifetime of the server, and Stop performs a graceful
// drain with a timeout.
package launcher
