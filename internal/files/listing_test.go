package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newTestService builds a service over a fresh temp root and returns both.
func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	r, err := NewResolver(root)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return NewService(r, 32, 1<<30), r.Root()
}

func writeFile(t *testing.T, root, rel string, size int) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(strings.Repeat("x", size)), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestListSortsBytewiseWithDirsFirst(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, "b.txt", 1)
	writeFile(t, root, "A.txt", 1)
	writeFile(t, root, "c.txt", 1)
	if err := os.Mkdir(filepath.Join(root, "zdir"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	listing, err := svc.List(".", ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := names(listing.Files)
	want := []string{"zdir", "A.txt", "b.txt", "c.txt"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestListSortBySizeDescending(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, "small.bin", 10)
	writeFile(t, root, "big.bin", 300)
	writeFile(t, root, "mid.bin", 50)

	listing, err := svc.List(".", ListOptions{SortBy: "size", Order: "desc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := names(listing.Files)
	want := []string{"big.bin", "mid.bin", "small.bin"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestListDefaultLimitAndTotal(t *testing.T) {
	svc, root := newTestService(t)
	for i := 0; i < 30; i++ {
		writeFile(t, root, fmt.Sprintf("f%02d.txt", i), 1)
	}

	listing, err := svc.List(".", ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listing.Files) != DefaultLimit {
		t.Errorf("page size = %d, want %d", len(listing.Files), DefaultLimit)
	}
	if listing.TotalFiles != 30 {
		t.Errorf("total_files = %d, want 30", listing.TotalFiles)
	}
	if listing.Limit != DefaultLimit || listing.Skip != 0 {
		t.Errorf("echo skip/limit = %d/%d, want 0/%d", listing.Skip, listing.Limit, DefaultLimit)
	}
}

func TestListPagesAreContiguous(t *testing.T) {
	svc, root := newTestService(t)
	for i := 0; i < 10; i++ {
		writeFile(t, root, fmt.Sprintf("f%02d.txt", i), 1)
	}

	var all []string
	for skip := 0; skip < 10; skip += 4 {
		listing, err := svc.List(".", ListOptions{Skip: skip, Limit: 4})
		if err != nil {
			t.Fatalf("List skip=%d: %v", skip, err)
		}
		all = append(all, names(listing.Files)...)
	}

	full, err := svc.List(".", ListOptions{Limit: 100})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if fmt.Sprint(all) != fmt.Sprint(names(full.Files)) {
		t.Errorf("concatenated pages = %v, want %v", all, names(full.Files))
	}
}

func TestListSkipBeyondEnd(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, "only.txt", 1)

	listing, err := svc.List(".", ListOptions{Skip: 100})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.Files == nil {
		t.Fatal("files must be an empty slice, not nil")
	}
	if len(listing.Files) != 0 || listing.TotalFiles != 1 {
		t.Errorf("got %d files / total %d, want 0 / 1", len(listing.Files), listing.TotalFiles)
	}
}

func TestListSkipHidden(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, ".secret", 1)
	writeFile(t, root, "plain.txt", 1)

	listing, err := svc.List(".", ListOptions{SkipHidden: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := names(listing.Files); len(got) != 1 || got[0] != "plain.txt" {
		t.Errorf("files = %v, want [plain.txt]", got)
	}

	listing, err = svc.List(".", ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.TotalFiles != 2 {
		t.Errorf("total without skip_hidden = %d, want 2", listing.TotalFiles)
	}
}

func TestListErrors(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, "file.txt", 1)

	if _, err := svc.List("missing", ListOptions{}); err == nil {
		t.Error("List(missing) succeeded, want ErrNotFound")
	}
	if _, err := svc.List("file.txt", ListOptions{}); err == nil {
		t.Error("List(file) succeeded, want ErrNotDirectory")
	}
}

func TestEntryFields(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, "docs/report.pdf", 42)

	listing, err := svc.List("docs", ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listing.Files) != 1 {
		t.Fatalf("got %d entries, want 1", len(listing.Files))
	}
	e := listing.Files[0]
	if e.Name != "report.pdf" || e.RelPath != "docs/report.pdf" {
		t.Errorf("name/rel_path = %q/%q", e.Name, e.RelPath)
	}
	if e.Size != 42 || e.IsDirectory {
		t.Errorf("size/is_directory = %d/%v", e.Size, e.IsDirectory)
	}
	if e.FileType != "application/pdf" {
		t.Errorf("file_type = %q, want application/pdf", e.FileType)
	}
	if e.ModifiedTime <= 0 {
		t.Errorf("modified_time = %d, want positive millis", e.ModifiedTime)
	}
}
