package files

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver canonicalizes client-supplied root-relative paths and guarantees
// the result stays inside the configured root. It is the single security
// boundary: every other component operates only on paths it returns.
type Resolver struct {
	root string
}

// NewResolver creates a resolver for the given root directory. The root must
// exist; symlinks in the root path itself are resolved once here so that
// later prefix checks compare canonical paths.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	return &Resolver{root: resolved}, nil
}

// Root returns the canonical absolute root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve validates a root-relative path and returns the absolute path on
// the server. It rejects `..` segments outright and re-checks containment
// after symlink resolution (of the path itself, or of its deepest existing
// ancestor when the leaf is not yet created) so a link pointing outside the
// root cannot be used to escape. Leading slashes are treated as
// root-relative, never as host-absolute.
func (r *Resolver) Resolve(raw string) (string, error) {
	p := strings.TrimPrefix(filepath.ToSlash(raw), "/")
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
		}
	}

	abs := filepath.Join(r.root, filepath.FromSlash(p))
	if !r.contains(abs) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}

	// Verify the symlink-resolved location. When the leaf does not exist yet
	// (a move destination, a new upload directory) the check runs against the
	// deepest existing ancestor instead, so a symlinked directory inside the
	// root cannot carry the path outside it.
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			if !r.contains(resolved) {
				return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
			}
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	return abs, nil
}

// Rel returns the root-relative identifier for an absolute path previously
// produced by Resolve, in slash form.
func (r *Resolver) Rel(abs string) string {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (r *Resolver) contains(abs string) bool {
	return abs == r.root || strings.HasPrefix(abs, r.root+string(filepath.Separator))
}
