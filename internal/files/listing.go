package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultLimit is the page size used when the client does not send one.
const DefaultLimit = 25

// ListOptions controls sorting and pagination of listing results.
type ListOptions struct {
	Skip       int
	Limit      int
	SortBy     string // name, size, modified_time, created_time, file_type
	Order      string // asc, desc
	SkipHidden bool
}

// Listing is one page of entries plus the total match count before paging.
type Listing struct {
	Files      []Entry `json:"files"`
	TotalFiles int     `json:"total_files"`
	Skip       int     `json:"skip"`
	Limit      int     `json:"limit"`
}

// List enumerates the immediate children of a directory, sorted and paged.
func (s *Service) List(relPath string, opts ListOptions) (*Listing, error) {
	abs, err := s.statDir(relPath)
	if err != nil {
		return nil, err
	}
	entries, err := s.listChildren(abs, opts.SkipHidden)
	if err != nil {
		return nil, err
	}
	return paginate(entries, opts), nil
}

// listChildren reads the immediate children of an already-resolved directory.
func (s *Service) listChildren(abs string, skipHidden bool) ([]Entry, error) {
	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		if skipHidden && strings.HasPrefix(d.Name(), ".") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			// Entry vanished between ReadDir and stat; the listing is a
			// best-effort snapshot, so skip it.
			continue
		}
		child := filepath.Join(abs, d.Name())
		entries = append(entries, newEntry(child, info, s.resolver.Rel(child)))
	}
	return entries, nil
}

// paginate sorts the full entry set and slices out the requested page. The
// sort happens before slicing so pages are stable for a fixed snapshot even
// though each page is computed independently.
func paginate(entries []Entry, opts ListOptions) *Listing {
	sortEntries(entries, opts.SortBy, opts.Order)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	skip := opts.Skip
	if skip < 0 {
		skip = 0
	}

	total := len(entries)
	page := []Entry{}
	if skip < total {
		end := skip + limit
		if end > total {
			end = total
		}
		page = entries[skip:end]
	}

	return &Listing{
		Files:      page,
		TotalFiles: total,
		Skip:       skip,
		Limit:      limit,
	}
}

// sortEntries orders entries with directories always first, then by the
// requested key, with ascending name as the deterministic tie-break.
// Name comparison is bytewise (case-sensitive); an unknown sort key falls
// back to name.
func sortEntries(entries []Entry, sortBy, order string) {
	desc := order == "desc"

	less := func(a, b Entry) int {
		switch sortBy {
		case "size":
			return compareInt64(a.Size, b.Size)
		case "modified_time":
			return compareInt64(a.ModifiedTime, b.ModifiedTime)
		case "created_time":
			return compareInt64(a.CreatedTime, b.CreatedTime)
		case "file_type":
			return strings.Compare(a.FileType, b.FileType)
		default:
			return strings.Compare(a.Name, b.Name)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDirectory != b.IsDirectory {
			return a.IsDirectory
		}
		c := less(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.Name < b.Name
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
