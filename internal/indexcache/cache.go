// Package indexcache memoizes the site page index per index key.
//
// A Get either returns a completed result, joins the single in-flight fetch
// for that key, or starts a new one. Completed results are kept until
// Invalidate is called; failures are never cached.
package indexcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/starford/newsroll/internal/apperr"
	"github.com/starford/newsroll/internal/models"
)

// DefaultPageSize is the limit sent with each index page request.
const DefaultPageSize = 1000

// MaxPages bounds the number of page requests of one fetch.
const MaxPages = 1000

// Key identifies one index: the index file name plus an optional sheet.
type Key struct {
	Name  string
	Sheet string
}

// String returns the memoization key, the name and sheet concatenated.
func (k Key) String() string {
	return k.Name + k.Sheet
}

// Fetcher loads one page of an index.
type Fetcher interface {
	FetchPage(ctx context.Context, key Key, offset, limit int) (*models.IndexPage, error)
}

// Cache is a process-wide memoization of fetched indexes.
type Cache struct {
	fetcher  Fetcher
	pageSize int
	logger   *slog.Logger

	group singleflight.Group

	// A fetch stores its result only if neither its key's generation nor
	// the epoch moved while it ran.
	mu          sync.RWMutex
	entries     map[string][]models.PageIndexEntry
	generations map[string]uint64
	epoch       uint64
	inflight    map[string]int
}

// New creates a cache over fetcher. pageSize <= 0 uses DefaultPageSize.
func New(fetcher Fetcher, pageSize int, logger *slog.Logger) *Cache {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		fetcher:     fetcher,
		pageSize:    pageSize,
		logger:      logger,
		entries:     make(map[string][]models.PageIndexEntry),
		generations: make(map[string]uint64),
		inflight:    make(map[string]int),
	}
}

// Get returns every entry of the index identified by key. The returned slice
// is shared between callers and must not be modified.
//
// The shared fetch is detached from ctx so one caller giving up does not
// fail the others; ctx only bounds how long this caller waits.
func (c *Cache) Get(ctx context.Context, key Key) ([]models.PageIndexEntry, error) {
	id := key.String()

	c.mu.RLock()
	data, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}

	ch := c.group.DoChan(id, func() (any, error) {
		c.mu.Lock()
		gen, epoch := c.generations[id], c.epoch
		c.inflight[id]++
		c.mu.Unlock()

		data, err := c.fetchAll(context.WithoutCancel(ctx), key)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.inflight[id]--; c.inflight[id] <= 0 {
			delete(c.inflight, id)
		}
		if err != nil {
			return nil, err
		}
		if c.generations[id] == gen && c.epoch == epoch {
			c.entries[id] = data
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("index cache: joined in-flight fetch", slog.String("key", id))
		}
		return res.Val.([]models.PageIndexEntry), nil
	}
}

// Invalidate drops the completed result for key. A fetch already in flight
// still answers its waiters but its result is not stored, and later callers
// start a new fetch.
func (c *Cache) Invalidate(key Key) {
	id := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.generations[id]++
	c.group.Forget(id)
}

// InvalidateAll drops every completed result and detaches in-flight fetches.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.entries {
		c.group.Forget(id)
	}
	for id := range c.inflight {
		c.group.Forget(id)
	}
	c.entries = make(map[string][]models.PageIndexEntry)
	c.epoch++
}

// fetchAll pages through the index until offset+len(data) reaches total.
// Offsets advance from the requested offset. A page answering a different
// offset than requested ends the fetch without being appended, and at most
// MaxPages pages are requested.
func (c *Cache) fetchAll(ctx context.Context, key Key) ([]models.PageIndexEntry, error) {
	var out []models.PageIndexEntry
	offset := 0
	for n := 0; n < MaxPages; n++ {
		page, err := c.fetcher.FetchPage(ctx, key, offset, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("indexcache: fetch %s at offset %d: %w", key, offset, errors.Join(apperr.ErrIndexUnavailable, err))
		}
		if page.Offset != offset {
			c.logger.Warn("index cache: upstream ignored offset",
				slog.String("key", key.String()),
				slog.Int("requested", offset),
				slog.Int("returned", page.Offset))
			break
		}
		out = append(out, page.Data...)
		offset += len(page.Data)
		if len(page.Data) == 0 || offset >= page.Total {
			break
		}
	}
	c.logger.Debug("index cache: fetched", slog.String("key", key.String()), slog.Int("entries", len(out)))
	if out == nil {
		out = []models.PageIndexEntry{}
	}
	return out, nil
}
