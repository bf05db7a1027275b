package index

import (
	"context"
	"log/slog"

	"github.com/starford/newsroll/internal/checksum"
	"github.com/starford/newsroll/internal/indexcache"
	"github.com/starford/newsroll/internal/models"
)

// SyncResult counts what a Sync changed.
type SyncResult struct {
	Total     int
	Upserted  int
	Unchanged int
	Removed   int
}

// Sync pulls the index identified by key from remote and brings the snapshot
// up to date:
//   - new/changed entries are upserted
//   - entries that disappeared upstream are deleted
//
// It returns the fetched entries so callers can export them.
func Sync(ctx context.Context, db *DB, remote indexcache.Fetcher, key indexcache.Key, pageSize int, logger *slog.Logger) ([]models.PageIndexEntry, SyncResult, error) {
	var res SyncResult

	fetched, err := indexcache.New(remote, pageSize, logger).Get(ctx, key)
	if err != nil {
		return nil, res, err
	}

	checksums, err := db.AllChecksums(key)
	if err != nil {
		return nil, res, err
	}

	seen := make(map[string]struct{}, len(fetched))
	for pos, e := range fetched {
		seen[e.Path] = struct{}{}
		cs, err := checksum.Entry(e)
		if err != nil {
			return nil, res, err
		}
		if checksums[e.Path] == cs {
			if err := db.SetPosition(key, e.Path, pos); err != nil {
				return nil, res, err
			}
			res.Unchanged++
			continue
		}
		if err := db.UpsertPage(key, pos, e, cs); err != nil {
			logger.Warn("sync: upsert failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: upserted", slog.String("path", e.Path))
		res.Upserted++
	}

	for p := range checksums {
		if _, ok := seen[p]; ok {
			continue
		}
		if err := db.DeletePage(key, p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
			res.Removed++
		}
	}

	res.Total = len(fetched)
	return fetched, res, nil
}
