// SPDX-License-Identifier: MPL-2.0

// Package issue provides structured, user-facing error handling.
//
// ActionableError carries what operation failed, which resource was involved,
// and concrete suggestions for fixing it; ErrorContext is its fluent builder.
// The package also hosts a catalog of known failure classes (missing container
// engine, unresolvable dependency manifest, invalid PORT value, ...) with
// markdown help text rendered via glamour for terminal display.
package issue
