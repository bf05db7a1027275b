// Package testutil provides shared test helpers: temporary databases and
// index directories, and a fake site serving a page index.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/newsroll/internal/index"
	"github.com/starford/newsroll/internal/models"
	"github.com/starford/newsroll/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "newsroll-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary index directory with a storage.Provider.
func TestStore(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteIndex stores entries under name in the legacy wire format.
func WriteIndex(t *testing.T, store storage.Provider, name string, entries []models.PageIndexEntry) {
	t.Helper()
	raw, err := models.EncodeWire(models.IndexPage{Total: len(entries), Limit: len(entries), Data: entries})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(name, raw); err != nil {
		t.Fatal(err)
	}
}

// NewsEntries returns n news entries published one day apart, newest first,
// the first one on latest.
func NewsEntries(latest time.Time, n int) []models.PageIndexEntry {
	out := make([]models.PageIndexEntry, n)
	for i := range out {
		d := latest.AddDate(0, 0, -i)
		out[i] = models.PageIndexEntry{
			Path:            fmt.Sprintf("/news/%d/story-%02d", d.Year(), i),
			Title:           fmt.Sprintf("Story %d", i),
			Description:     fmt.Sprintf("Summary of story %d.", i),
			Template:        "Media release",
			PublicationDate: d,
		}
	}
	return out
}

// IndexSite is a fake site serving one page index per name at /<name>.json,
// paged by the limit and offset query parameters.
type IndexSite struct {
	*httptest.Server

	mu       sync.Mutex
	indexes  map[string][]models.PageIndexEntry
	requests atomic.Int64
	fail     atomic.Bool
}

// NewIndexSite starts a fake site. It is closed when the test ends.
func NewIndexSite(t *testing.T) *IndexSite {
	t.Helper()
	s := &IndexSite{indexes: make(map[string][]models.PageIndexEntry)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Set replaces the index served under name.
func (s *IndexSite) Set(name string, entries []models.PageIndexEntry) {
	s.mu.Lock()
	s.indexes[name] = entries
	s.mu.Unlock()
}

// SetFailing makes every request fail with 503 while on is true.
func (s *IndexSite) SetFailing(on bool) {
	s.fail.Store(on)
}

// Requests returns the number of index requests served so far.
func (s *IndexSite) Requests() int {
	return int(s.requests.Load())
}

func (s *IndexSite) serve(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	if s.fail.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".json")
	if sheet := r.URL.Query().Get("sheet"); sheet != "" {
		name += "-" + sheet
	}
	s.mu.Lock()
	all, ok := s.indexes[name]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset = min(max(offset, 0), len(all))
	end := len(all)
	if limit > 0 {
		end = min(offset+limit, len(all))
	}

	raw, err := models.EncodeWire(models.IndexPage{
		Total:  len(all),
		Offset: offset,
		Limit:  limit,
		Data:   all[offset:end],
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}
