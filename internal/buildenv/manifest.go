// SPDX-License-Identifier: MPL-2.0

package buildenv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"portlift/internal/issue"
)

// ErrManifestNotFound is the sentinel error wrapped by ManifestNotFoundError.
var ErrManifestNotFound = errors.New("dependency manifest not found")

type (
	// Manifest is the parsed dependency manifest of a service. Entries are
	// kept verbatim (version pins included); interpretation is left to the
	// installer inside the image. An empty manifest is valid.
	Manifest struct {
		// Path is where the manifest was loaded from (empty for readers).
		Path string

		// Entries are the dependency lines, comments and blanks stripped.
		Entries []string
	}

	// ManifestNotFoundError is returned when the manifest file does not exist.
	ManifestNotFoundError struct {
		Path string
	}
)

// Error implements the error interface.
func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("dependency manifest not found: %s", e.Path)
}

// Unwrap returns ErrManifestNotFound so callers can use errors.Is for programmatic detection.
func (e *ManifestNotFoundError) Unwrap() error { return ErrManifestNotFound }

// IsEmpty reports whether the manifest declares no dependencies.
func (m *Manifest) IsEmpty() bool {
	return len(m.Entries) == 0
}

// LoadManifest reads and parses the manifest file at path.
// A missing file is an error; an existing empty file is a valid,
// empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, manifestNotFoundError(path)
		}
		return nil, fmt.Errorf("failed to open manifest %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() // Read-only file; close error non-critical

	m, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// ParseManifest parses manifest content from r. Blank lines and lines whose
// first non-space character is '#' are skipped; everything else is kept
// verbatim as a dependency entry.
func ParseManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.Entries = append(m.Entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

// manifestNotFoundError wraps the sentinel in actionable guidance.
func manifestNotFoundError(path string) error {
	return issue.NewErrorContext().
		WithOperation("load dependency manifest").
		WithResource(path).
		WithSuggestion("Create the manifest file in the service directory").
		WithSuggestion("Point at a different file name with --manifest").
		WithSuggestion("An empty manifest file is valid when there are no dependencies").
		Wrap(&ManifestNotFoundError{Path: path}).
		BuildError()
}
