package index

import (
	"context"

	"github.com/starford/newsroll/internal/indexcache"
	"github.com/starford/newsroll/internal/models"
)

// PageStore defines the snapshot operations used by sync and the cache.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type PageStore interface {
	indexcache.Fetcher
	UpsertPage(key indexcache.Key, position int, e models.PageIndexEntry, checksum string) error
	DeletePage(key indexcache.Key, path string) error
	AllChecksums(key indexcache.Key) (map[string]string, error)
	Count(key indexcache.Key) (int, error)
	Close() error
}

// Verify *DB satisfies PageStore at compile time.
var _ PageStore = (*DB)(nil)

// FetchPage implements indexcache.Fetcher over the snapshot.
func (db *DB) FetchPage(ctx context.Context, key indexcache.Key, offset, limit int) (*models.IndexPage, error) {
	total, err := db.Count(key)
	if err != nil {
		return nil, err
	}
	rows, err := db.ListPages(ctx, key, offset, limit)
	if err != nil {
		return nil, err
	}
	return &models.IndexPage{Total: total, Offset: offset, Limit: limit, Data: rows}, nil
}
