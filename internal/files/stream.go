package files

import (
	"fmt"
	"io"
	"os"
)

// limitedReadCloser bounds a reader while keeping the underlying file
// closable.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

// OpenRange opens a file for reading, positioned at offset and limited to
// length bytes (length <= 0 means to end of file). Every call opens an
// independent handle, so concurrent range requests never share a cursor.
func (s *Service) OpenRange(relPath string, offset, length int64) (io.ReadCloser, error) {
	abs, err := s.resolver.Resolve(relPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, relPath)
		}
		return nil, fmt.Errorf("open %s: %w", relPath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", relPath, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFile, relPath)
	}

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("seek %s: %w", relPath, err)
		}
	}

	if length > 0 {
		return &limitedReadCloser{
			Reader: io.LimitReader(f, length),
			Closer: f,
		}, nil
	}
	return f, nil
}
