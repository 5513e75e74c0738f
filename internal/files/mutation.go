package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// CreateFolder creates a new directory named name inside the directory at
// relPath.
func (s *Service) CreateFolder(relPath, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	parent, err := s.statDir(relPath)
	if err != nil {
		return err
	}

	target := filepath.Join(parent, name)
	if _, err := os.Lstat(target); err == nil {
		return fmt.Errorf("%w: %s", ErrConflict, name)
	}
	if err := os.Mkdir(target, 0755); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrConflict, name)
		}
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

// Move renames oldRel to newRel. The rename is the filesystem's atomic
// primitive, so concurrent listers see either the old entry or the new one,
// never both or neither. A cross-volume rename is refused rather than
// degraded to copy+delete.
func (s *Service) Move(oldRel, newRel string) error {
	oldAbs, err := s.resolver.Resolve(oldRel)
	if err != nil {
		return err
	}
	newAbs, err := s.resolver.Resolve(newRel)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(oldAbs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, oldRel)
		}
		return fmt.Errorf("stat %s: %w", oldRel, err)
	}
	if _, err := os.Lstat(newAbs); err == nil {
		return fmt.Errorf("%w: %s", ErrConflict, newRel)
	}
	if _, err := os.Stat(filepath.Dir(newAbs)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, newRel)
		}
		return fmt.Errorf("stat %s: %w", newRel, err)
	}

	if err := os.Rename(oldAbs, newAbs); err != nil {
		if isCrossDevice(err) {
			return fmt.Errorf("%w: %s -> %s", ErrCrossDevice, oldRel, newRel)
		}
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}
