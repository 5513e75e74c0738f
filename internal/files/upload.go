package files

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// UploadResult describes a completed (or deduplicated) upload.
type UploadResult struct {
	RelPath string
	Size    int64
	SHA512  string
	Skipped bool
}

// ValidateName checks a single path component supplied by a client (an
// upload filename or a new folder name). It must be one plain segment: no
// separators, no traversal, no NUL.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SaveUpload streams an upload into the directory at locationRel under
// filename. Bytes go to a temporary file in the target directory first and
// are renamed into place only on success, so a partial upload is never
// visible at the destination. The configured size ceiling is enforced
// mid-stream; exceeding it (or any read/write failure) removes the partial
// temp file.
//
// If clientSHA512 is non-empty and the destination already holds a file with
// that exact hash, the upload is skipped and the existing file reported.
func (s *Service) SaveUpload(locationRel, filename string, r io.Reader, clientSHA512 string) (*UploadResult, error) {
	if err := ValidateName(filename); err != nil {
		return nil, err
	}

	dir, err := s.resolver.Resolve(locationRel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		// The original creates missing upload locations on demand.
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat upload dir: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, locationRel)
	}

	target := filepath.Join(dir, filename)
	relTarget := s.resolver.Rel(target)

	if clientSHA512 != "" {
		if existing, err := os.Stat(target); err == nil && !existing.IsDir() {
			hash, err := HashFile(target)
			if err == nil && hash == strings.ToLower(strings.TrimSpace(clientSHA512)) {
				return &UploadResult{
					RelPath: relTarget,
					Size:    existing.Size(),
					SHA512:  hash,
					Skipped: true,
				}, nil
			}
		}
	}

	tmp, err := os.CreateTemp(dir, ".filepi-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	hasher := sha512.New()
	written, err := io.Copy(tmp, io.TeeReader(io.LimitReader(r, s.maxUploadSize+1), hasher))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if written > s.maxUploadSize {
		cleanup()
		return nil, fmt.Errorf("%w: max %d bytes", ErrSizeLimitExceeded, s.maxUploadSize)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("close upload: %w", err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("chmod upload: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("rename upload: %w", err)
	}

	return &UploadResult{
		RelPath: relTarget,
		Size:    written,
		SHA512:  hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// HashFile computes the SHA-512 hex digest of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha512.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
