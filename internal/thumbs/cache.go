// Package thumbs generates and caches preview images for media files.
package thumbs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/renjuashokan/filepi/internal/logging"
	"github.com/renjuashokan/filepi/internal/metrics"
)

// ErrGenerationFailed indicates a thumbnail could not be produced from the
// source media.
var ErrGenerationFailed = errors.New("thumbnail generation failed")

// Generator produces encoded thumbnail bytes for a media file.
type Generator func(ctx context.Context, absPath string) ([]byte, error)

// Options configure the cache.
type Options struct {
	MaxBytes    int64         // total cached thumbnail bytes (default 64 MiB)
	NegativeTTL time.Duration // how long a failure is remembered (default 30s)
}

type state int

const (
	statePending state = iota
	stateReady
	stateFailed
)

// key identifies one thumbnail: the client-facing path plus the source
// mtime, so a changed file naturally invalidates its old thumbnail.
type key struct {
	relPath string
	modTime int64
}

type entry struct {
	state      state
	done       chan struct{} // closed when generation completes
	data       []byte
	err        error
	failedAt   time.Time
	lastAccess time.Time
}

// Cache is an in-memory thumbnail cache with single-flight generation per
// key. The index is mutated under a short-held mutex; generation itself runs
// outside the lock, and concurrent requesters for the same key share the one
// in-flight result.
type Cache struct {
	gen         Generator
	maxBytes    int64
	negativeTTL time.Duration

	mu      sync.Mutex
	entries map[key]*entry
	size    int64
}

// NewCache creates a thumbnail cache around a generator.
func NewCache(gen Generator, opts Options) *Cache {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 64 << 20
	}
	if opts.NegativeTTL <= 0 {
		opts.NegativeTTL = 30 * time.Second
	}
	return &Cache{
		gen:         gen,
		maxBytes:    opts.MaxBytes,
		negativeTTL: opts.NegativeTTL,
		entries:     make(map[key]*entry),
	}
}

// Get returns the thumbnail for the file at absPath, identified to clients
// by relPath and stamped with the source's modification time in millis.
// On a miss, exactly one generation runs regardless of how many callers
// arrive concurrently; all of them observe the same outcome. Failures are
// remembered for the negative-caching TTL, except when the claiming caller's
// context is canceled: that outcome is not cached, so one disconnected client
// cannot poison the key for the rest.
func (c *Cache) Get(ctx context.Context, absPath, relPath string, modTime int64) ([]byte, error) {
	k := key{relPath: relPath, modTime: modTime}

	for {
		c.mu.Lock()
		e, ok := c.entries[k]
		if !ok {
			break
		}
		switch e.state {
		case stateReady:
			e.lastAccess = time.Now()
			data := e.data
			c.mu.Unlock()
			metrics.RecordThumbnailCacheLookup(true)
			return data, nil
		case stateFailed:
			if time.Since(e.failedAt) < c.negativeTTL {
				err := e.err
				c.mu.Unlock()
				metrics.RecordThumbnailCacheLookup(true)
				return nil, err
			}
			// Negative entry expired; drop it and regenerate.
			delete(c.entries, k)
			c.mu.Unlock()
			continue
		case statePending:
			done := e.done
			c.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-done:
			}
			// Re-read the settled entry (or retry if it was evicted).
			continue
		}
	}

	// Miss: claim the key while still holding the lock.
	e := &entry{state: statePending, done: make(chan struct{})}
	c.entries[k] = e
	c.mu.Unlock()
	metrics.RecordThumbnailCacheLookup(false)

	data, genErr := c.gen(ctx, absPath)

	c.mu.Lock()
	switch {
	case genErr == nil:
		e.state = stateReady
		e.data = data
		e.lastAccess = time.Now()
		c.size += int64(len(data))
	case errors.Is(genErr, context.Canceled) || errors.Is(genErr, context.DeadlineExceeded):
		// The claiming client went away mid-generation. Drop the entry
		// instead of negative-caching, so the key is not poisoned for the
		// healthy callers; whoever re-reads next claims a fresh attempt.
		e.state = stateFailed
		e.err = genErr
		delete(c.entries, k)
	default:
		e.state = stateFailed
		e.err = fmt.Errorf("%w: %v", ErrGenerationFailed, genErr)
		e.failedAt = time.Now()
		logging.Warn("thumbnail generation failed",
			zap.String("path", relPath), zap.Error(genErr))
	}
	c.evictLocked()
	close(e.done)
	outData, outErr := e.data, e.err
	metrics.SetThumbnailCacheBytes(c.size)
	c.mu.Unlock()

	metrics.RecordThumbnailGeneration(genErr == nil)
	return outData, outErr
}

// Size returns the current cached byte total.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of index entries, including pending and negative
// ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops expired negative entries, then least-recently-used ready
// entries until the cache fits its byte budget. Pending entries are never
// evicted, so eviction can never block or cancel an in-flight generation.
// Callers must hold c.mu.
func (c *Cache) evictLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if e.state == stateFailed && now.Sub(e.failedAt) >= c.negativeTTL {
			delete(c.entries, k)
		}
	}

	for c.size > c.maxBytes {
		var oldestKey key
		var oldest *entry
		for k, e := range c.entries {
			if e.state != stateReady {
				continue
			}
			if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
				oldestKey, oldest = k, e
			}
		}
		if oldest == nil {
			return
		}
		c.size -= int64(len(oldest.data))
		delete(c.entries, oldestKey)
		logging.Debug("thumbnail evicted", zap.String("path", oldestKey.relPath))
	}
}
