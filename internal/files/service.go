// Package files implements the file-serving engine: path confinement,
// directory listing, recursive traversal, range streaming, upload ingestion
// and mutations, all confined to a configured root directory.
package files

import (
	"fmt"
	"os"
)

// Service exposes filesystem operations over a confined root. Methods accept
// root-relative client paths and resolve them through the Resolver before
// touching the filesystem.
type Service struct {
	resolver      *Resolver
	maxWalkDepth  int
	maxUploadSize int64
}

// NewService creates a files service.
func NewService(resolver *Resolver, maxWalkDepth int, maxUploadSize int64) *Service {
	if maxWalkDepth <= 0 {
		maxWalkDepth = 32
	}
	return &Service{
		resolver:      resolver,
		maxWalkDepth:  maxWalkDepth,
		maxUploadSize: maxUploadSize,
	}
}

// Root returns the canonical root directory.
func (s *Service) Root() string {
	return s.resolver.Root()
}

// StatFile resolves a client path and returns the entry for a regular file.
func (s *Service) StatFile(relPath string) (Entry, error) {
	abs, err := s.resolver.Resolve(relPath)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, relPath)
		}
		return Entry{}, fmt.Errorf("stat %s: %w", relPath, err)
	}
	if info.IsDir() {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFile, relPath)
	}
	return newEntry(abs, info, s.resolver.Rel(abs)), nil
}

// statDir resolves a client path and verifies it is an existing directory.
func (s *Service) statDir(relPath string) (string, error) {
	abs, err := s.resolver.Resolve(relPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, relPath)
		}
		return "", fmt.Errorf("stat %s: %w", relPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, relPath)
	}
	return abs, nil
}
