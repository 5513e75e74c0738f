package files

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/renjuashokan/filepi/internal/logging"
	"github.com/renjuashokan/filepi/internal/metrics"
)

// MatchName reports whether an entry name matches a search query,
// case-insensitively, by substring.
func MatchName(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// IsVideo reports whether a file name has a recognized video type.
func IsVideo(name string) bool {
	return strings.HasPrefix(typeByName(name), "video/")
}

// Videos returns the video files under a directory, sorted and paged.
// With recursive set, the whole subtree is walked (depth-bounded);
// otherwise only immediate children are considered.
func (s *Service) Videos(relPath string, recursive bool, opts ListOptions) (*Listing, error) {
	keep := func(e Entry) bool { return IsVideo(e.Name) }
	if !recursive {
		abs, err := s.statDir(relPath)
		if err != nil {
			return nil, err
		}
		children, err := s.listChildren(abs, opts.SkipHidden)
		if err != nil {
			return nil, err
		}
		filtered := make([]Entry, 0, len(children))
		for _, e := range children {
			if !e.IsDirectory && keep(e) {
				filtered = append(filtered, e)
			}
		}
		return paginate(filtered, opts), nil
	}

	entries, err := s.walk(relPath, opts.SkipHidden, keep)
	if err != nil {
		return nil, err
	}
	return paginate(entries, opts), nil
}

// Search returns the files under a directory whose name matches the query,
// sorted and paged. The whole subtree is walked, depth-bounded.
func (s *Service) Search(relPath, query string, opts ListOptions) (*Listing, error) {
	entries, err := s.walk(relPath, opts.SkipHidden, func(e Entry) bool {
		return MatchName(e.Name, query)
	})
	if err != nil {
		return nil, err
	}
	return paginate(entries, opts), nil
}

// walk traverses the subtree below relPath depth-first and collects the
// regular files accepted by keep. Depth is bounded by the configured maximum:
// deeper directories are pruned, so results stay bounded on pathological
// trees. Symlinked directories are never descended into, which also rules
// out symlink cycles. Unreadable entries are skipped, not fatal — the result
// is a best-effort snapshot.
func (s *Service) walk(relPath string, skipHidden bool, keep func(Entry) bool) ([]Entry, error) {
	root, err := s.statDir(relPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var entries []Entry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logging.Debug("walk: skipping unreadable entry",
				zap.String("path", path), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		name := d.Name()
		hidden := skipHidden && strings.HasPrefix(name, ".")

		if d.IsDir() {
			if hidden || s.depthOf(root, path) > s.maxWalkDepth {
				return fs.SkipDir
			}
			return nil
		}
		if hidden || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		e := newEntry(path, info, s.resolver.Rel(path))
		if keep(e) {
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordWalk(time.Since(start))
	return entries, nil
}

// depthOf counts path components below the walk root.
func (s *Service) depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
