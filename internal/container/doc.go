// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for container engines
// (Docker/Podman). Environment images are built and run through the
// engine CLIs; the Engine interface hides which binary is in use.
package container
