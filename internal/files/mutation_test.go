package files

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestCreateFolder(t *testing.T) {
	svc, root := newTestService(t)

	if err := svc.CreateFolder(".", "photos"); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	info, err := os.Stat(filepath.Join(root, "photos"))
	if err != nil || !info.IsDir() {
		t.Fatalf("photos not created as directory: %v", err)
	}

	if err := svc.CreateFolder(".", "photos"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate CreateFolder = %v, want ErrConflict", err)
	}
}

func TestCreateFolderConflictsWithFile(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, "taken", 1)

	if err := svc.CreateFolder(".", "taken"); !errors.Is(err, ErrConflict) {
		t.Errorf("CreateFolder over file = %v, want ErrConflict", err)
	}
}

func TestCreateFolderRejectsBadNames(t *testing.T) {
	svc, _ := newTestService(t)

	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "nul\x00byte"} {
		if err := svc.CreateFolder(".", name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("CreateFolder(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestCreateFolderInMissingParent(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.CreateFolder("no/such/dir", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateFolder in missing parent = %v, want ErrNotFound", err)
	}
}

func TestMove(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, "old.txt", 5)

	if err := svc.Move("old.txt", "new.txt"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "old.txt")); !os.IsNotExist(err) {
		t.Error("old.txt still present after move")
	}
	if _, err := os.Stat(filepath.Join(root, "new.txt")); err != nil {
		t.Errorf("new.txt missing after move: %v", err)
	}
}

func TestMoveDirectory(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, "src/inner/file.txt", 3)

	if err := svc.Move("src", "dst"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "dst", "inner", "file.txt")); err != nil {
		t.Errorf("moved tree incomplete: %v", err)
	}
}

func TestMoveErrors(t *testing.T) {
	svc, root := newTestService(t)
	writeFile(t, root, "a.txt", 1)
	writeFile(t, root, "b.txt", 1)

	if err := svc.Move("missing.txt", "x.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("move missing source = %v, want ErrNotFound", err)
	}
	if err := svc.Move("a.txt", "b.txt"); !errors.Is(err, ErrConflict) {
		t.Errorf("move onto existing = %v, want ErrConflict", err)
	}
	if err := svc.Move("a.txt", "no/such/dir/a.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("move into missing parent = %v, want ErrNotFound", err)
	}
	if err := svc.Move("a.txt", "../escape.txt"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("move outside root = %v, want ErrInvalidPath", err)
	}
}

func TestMoveCannotEscapeThroughSymlinkedDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privilege on windows")
	}
	svc, root := newTestService(t)
	outside := t.TempDir()
	writeFile(t, root, "x.txt", 1)
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := svc.Move("x.txt", "link/x.txt"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("move through symlinked dir = %v, want ErrInvalidPath", err)
	}
	if _, err := os.Stat(filepath.Join(outside, "x.txt")); !os.IsNotExist(err) {
		t.Error("file escaped the root")
	}
	if _, err := os.Stat(filepath.Join(root, "x.txt")); err != nil {
		t.Errorf("source missing after refused move: %v", err)
	}
}

func TestUploadLocationCannotEscapeThroughSymlinkedDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privilege on windows")
	}
	svc, root := newTestService(t)
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	_, err := svc.SaveUpload("link/new", "x.txt", strings.NewReader("x"), "")
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("upload through symlinked dir = %v, want ErrInvalidPath", err)
	}
	if dirents, _ := os.ReadDir(outside); len(dirents) != 0 {
		t.Error("upload escaped the root")
	}
}
