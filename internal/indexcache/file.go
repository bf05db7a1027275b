package indexcache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/newsroll/internal/models"
	"github.com/starford/newsroll/internal/storage"
)

// FileFetcher serves index pages from JSON files in a local directory.
// The file for a key is <name>.json, or <name>-<sheet>.json when a sheet is set.
type FileFetcher struct {
	store storage.Provider
}

// NewFileFetcher creates a fetcher over store.
func NewFileFetcher(store storage.Provider) *FileFetcher {
	return &FileFetcher{store: store}
}

// FileName returns the file that backs key.
func FileName(key Key) string {
	if key.Sheet != "" {
		return key.Name + "-" + key.Sheet + ".json"
	}
	return key.Name + ".json"
}

// FetchPage implements Fetcher. The whole file is decoded on every call and
// sliced to the requested window.
func (f *FileFetcher) FetchPage(_ context.Context, key Key, offset, limit int) (*models.IndexPage, error) {
	name := FileName(key)
	data, err := f.store.Read(name)
	if err != nil {
		return nil, err
	}
	var full models.IndexPage
	if err := json.Unmarshal(data, &full); err != nil {
		return nil, fmt.Errorf("indexcache: decode %s: %w", name, err)
	}
	return window(full.Data, offset, limit), nil
}

func window(all []models.PageIndexEntry, offset, limit int) *models.IndexPage {
	total := len(all)
	start := min(max(offset, 0), total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}
	return &models.IndexPage{
		Total:  total,
		Offset: start,
		Limit:  limit,
		Data:   all[start:end],
	}
}
