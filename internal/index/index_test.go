package index

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/newsroll/internal/indexcache"
	"github.com/starford/newsroll/internal/models"
)

var testKey = indexcache.Key{Name: "query-index"}

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "newsroll-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type staticFetcher struct {
	entries []models.PageIndexEntry
}

func (s *staticFetcher) FetchPage(_ context.Context, _ indexcache.Key, offset, limit int) (*models.IndexPage, error) {
	end := min(offset+limit, len(s.entries))
	return &models.IndexPage{Total: len(s.entries), Offset: offset, Limit: limit, Data: s.entries[offset:end]}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&count); err != nil {
		t.Fatalf("pages table missing: %v", err)
	}
}

func TestUpsertAndList(t *testing.T) {
	db := testDB(t)
	pub := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	e := models.PageIndexEntry{
		Path:            "/news/2024/hello",
		Title:           "Hello",
		Template:        "news-article",
		PublicationDate: pub,
		Robots:          true,
	}
	if err := db.UpsertPage(testKey, 0, e, "abc"); err != nil {
		t.Fatalf("UpsertPage: %v", err)
	}

	rows, err := db.ListPages(context.Background(), testKey, 0, 10)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := rows[0]
	if got.Title != "Hello" || !got.PublicationDate.Equal(pub) || !got.LastModified.IsZero() || !got.Robots {
		t.Errorf("row = %+v", got)
	}

	cs, _ := db.AllChecksums(testKey)
	if cs["/news/2024/hello"] != "abc" {
		t.Errorf("checksum = %q", cs["/news/2024/hello"])
	}
}

func TestFetchPage_PreservesOrder(t *testing.T) {
	db := testDB(t)
	for i, p := range []string{"/c", "/a", "/b"} {
		_ = db.UpsertPage(testKey, i, models.PageIndexEntry{Path: p}, p)
	}
	page, err := db.FetchPage(context.Background(), testKey, 1, 5)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.Total != 3 || len(page.Data) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Data[0].Path != "/a" || page.Data[1].Path != "/b" {
		t.Errorf("order = %s, %s", page.Data[0].Path, page.Data[1].Path)
	}
}

func TestKeysAreIsolated(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPage(testKey, 0, models.PageIndexEntry{Path: "/a"}, "1")
	_ = db.UpsertPage(indexcache.Key{Name: "query-index", Sheet: "news"}, 0, models.PageIndexEntry{Path: "/b"}, "2")

	n, _ := db.Count(testKey)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSync_UpsertsAndRemoves(t *testing.T) {
	db := testDB(t)
	remote := &staticFetcher{entries: []models.PageIndexEntry{
		{Path: "/news", Title: "News"},
		{Path: "/news/2024/a", Title: "A"},
	}}

	_, res, err := Sync(context.Background(), db, remote, testKey, 1, discardLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Upserted != 2 || res.Total != 2 {
		t.Errorf("first sync = %+v", res)
	}

	remote.entries = []models.PageIndexEntry{
		{Path: "/news/2024/b", Title: "B"},
		{Path: "/news", Title: "News"},
	}
	_, res, err = Sync(context.Background(), db, remote, testKey, 10, discardLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Upserted != 1 || res.Unchanged != 1 || res.Removed != 1 {
		t.Errorf("second sync = %+v", res)
	}

	rows, _ := db.ListPages(context.Background(), testKey, 0, 0)
	if len(rows) != 2 || rows[0].Path != "/news/2024/b" || rows[1].Path != "/news" {
		t.Errorf("rows after sync = %+v", rows)
	}
}
