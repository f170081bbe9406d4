// Package workspace resolves tool-call paths against the workspace root and
// enforces the boundary every read and write must stay inside.
package workspace

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// AccessMode distinguishes read from write access for validation.
type AccessMode string

const (
	AccessRead  AccessMode = "read"
	AccessWrite AccessMode = "write"
)

// Boundary validates that resolved paths stay inside the workspace root.
type Boundary struct {
	root string
}

// NewBoundary creates a boundary rooted at root. The root is made absolute
// once at construction.
func NewBoundary(root string) (*Boundary, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	return &Boundary{root: abs}, nil
}

// Root returns the absolute workspace root.
func (b *Boundary) Root() string {
	return b.root
}

// Resolve turns a tool-call path into an absolute path. Relative paths are
// joined onto the workspace root; absolute paths are cleaned as-is.
func (b *Boundary) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Join(b.root, path), nil
}

// Contains reports whether the resolved path lies inside the workspace root.
func (b *Boundary) Contains(resolved string) bool {
	rel, err := filepath.Rel(b.root, resolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ValidateAccess checks whether the resolved path may be accessed in the
// given mode. It returns a human-readable reason on denial and empty string
// when access is allowed.
func (b *Boundary) ValidateAccess(resolved string, mode AccessMode) string {
	if !b.Contains(resolved) {
		log.Warn().
			Str("path", resolved).
			Str("root", b.root).
			Str("mode", string(mode)).
			Msg("Path outside workspace boundary")
		return fmt.Sprintf("path %s is outside the workspace root %s", resolved, b.root)
	}
	return ""
}
