package files

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(t.TempDir())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestResolveStaysInsideRoot(t *testing.T) {
	r := newTestResolver(t)

	for _, p := range []string{"", ".", "docs", "docs/report.pdf", "/docs", "a/./b"} {
		abs, err := r.Resolve(p)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", p, err)
		}
		if abs != r.Root() && !filepath.IsAbs(abs) {
			t.Errorf("Resolve(%q) = %q, want absolute path", p, abs)
		}
		if rel, _ := filepath.Rel(r.Root(), abs); len(rel) >= 2 && rel[:2] == ".." {
			t.Errorf("Resolve(%q) = %q escapes root %q", p, abs, r.Root())
		}
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	r := newTestResolver(t)

	for _, p := range []string{"..", "../etc/passwd", "a/../../b", "docs/../../../x", "/../x"} {
		if _, err := r.Resolve(p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Resolve(%q) = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestResolveTreatsLeadingSlashAsRelative(t *testing.T) {
	r := newTestResolver(t)

	abs, err := r.Resolve("/docs/a.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(r.Root(), "docs", "a.txt")
	if abs != want {
		t.Errorf("Resolve(/docs/a.txt) = %q, want %q", abs, want)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privilege on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()

	if err := os.Symlink(outside, filepath.Join(root, "leak")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	r, err := NewResolver(root)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	if _, err := r.Resolve("leak"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Resolve(leak) = %v, want ErrInvalidPath", err)
	}
}

func TestResolveRejectsSymlinkEscapeForMissingLeaf(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privilege on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()

	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	r, err := NewResolver(root)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	// The leaves do not exist; containment must still be checked against the
	// symlinked ancestor.
	for _, p := range []string{"link/new.txt", "link/a/b/new.txt"} {
		if _, err := r.Resolve(p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Resolve(%q) = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestResolveAllowsMissingLeafInsideRoot(t *testing.T) {
	r := newTestResolver(t)

	if _, err := r.Resolve("not/yet/created.txt"); err != nil {
		t.Errorf("Resolve(missing leaf inside root) = %v, want nil", err)
	}
}

func TestRelRoundTrip(t *testing.T) {
	r := newTestResolver(t)

	abs, err := r.Resolve("a/b/c.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := r.Rel(abs); got != "a/b/c.txt" {
		t.Errorf("Rel = %q, want a/b/c.txt", got)
	}
	if got := r.Rel(r.Root()); got != "" {
		t.Errorf("Rel(root) = %q, want empty", got)
	}
}
