package news

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/newsroll/internal/indexcache"
	"github.com/starford/newsroll/internal/models"
)

type stubIndex struct {
	entries []models.PageIndexEntry
	err     error
}

func (s stubIndex) Get(_ context.Context, _ indexcache.Key) ([]models.PageIndexEntry, error) {
	return s.entries, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func paths(items []models.PageIndexEntry) []string {
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = e.Path
	}
	return out
}

func TestApply_SevenDayWindowBoundary(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	items := []models.PageIndexEntry{
		{Path: "/news/2024/on-boundary", PublicationDate: time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)},
		{Path: "/news/2024/boundary-evening", LastModified: time.Date(2024, 6, 8, 23, 59, 0, 0, time.UTC)},
		{Path: "/news/2024/day-before", PublicationDate: time.Date(2024, 6, 7, 23, 59, 59, 0, time.UTC)},
		{Path: "/news/2024/today", PublicationDate: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)},
		{Path: "/news/2024/future", PublicationDate: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)},
		{Path: "/news/2024/undated"},
		{
			Path:            "/news/2024/republished",
			LastModified:    time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
			PublicationDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	got := paths(Apply(items, Filter7Days, now, "/news"))
	want := []string{"/news/2024/on-boundary", "/news/2024/boundary-evening", "/news/2024/today", "/news/2024/future"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestApply_CalendarDateInLocation(t *testing.T) {
	sydney := time.FixedZone("AEST", 10*3600)
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, sydney)
	// 2024-06-07 15:00 UTC is 2024-06-08 01:00 in Sydney: inside the window there.
	items := []models.PageIndexEntry{{Path: "/news/x", PublicationDate: time.Date(2024, 6, 7, 15, 0, 0, 0, time.UTC)}}
	if got := Apply(items, Filter7Days, now, "/news"); len(got) != 1 {
		t.Errorf("expected entry kept in local calendar, got %v", paths(got))
	}
	if got := Apply(items, Filter7Days, now.In(time.UTC), "/news"); len(got) != 0 {
		t.Errorf("expected entry dropped in UTC calendar, got %v", paths(got))
	}
}

func TestApply_YearMatchesPathNotDate(t *testing.T) {
	items := []models.PageIndexEntry{
		{Path: "/news/2021/a", PublicationDate: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Path: "/news/2019/b", PublicationDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Path: "/news/2021", Title: "year landing"},
	}
	got := paths(Apply(items, "2021", time.Now(), "/news"))
	if len(got) != 2 || got[0] != "/news/2021/a" || got[1] != "/news/2021" {
		t.Errorf("got %v", got)
	}
}

func TestApply_AllIsIdentity(t *testing.T) {
	items := []models.PageIndexEntry{{Path: "/news/a"}, {Path: "/news/b"}}
	if got := Apply(items, FilterAll, time.Now(), "/news"); len(got) != 2 {
		t.Errorf("got %v", paths(got))
	}
	if got := Apply(nil, FilterAll, time.Now(), "/news"); got == nil || len(got) != 0 {
		t.Errorf("empty input should give empty non-nil slice, got %v", got)
	}
}

func TestSource_KeepsNewsSection(t *testing.T) {
	idx := stubIndex{entries: []models.PageIndexEntry{
		{Path: "/about"},
		{Path: "/news"},
		{Path: "/news/2024/a"},
		{Path: "/contact-us/news"},
	}}
	s := NewSource(idx, indexcache.Key{Name: "query-index"}, "/news", WithLogger(discardLogger()))
	got := paths(s.FetchItems(context.Background(), FilterAll))
	if len(got) != 2 || got[0] != "/news" || got[1] != "/news/2024/a" {
		t.Errorf("got %v", got)
	}
}

func TestSource_FetchFailureYieldsEmpty(t *testing.T) {
	s := NewSource(stubIndex{err: errors.New("offline")}, indexcache.Key{Name: "query-index"}, "/news",
		WithLogger(discardLogger()))
	got := s.FetchItems(context.Background(), FilterAll)
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestSource_UsesClock(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	idx := stubIndex{entries: []models.PageIndexEntry{
		{Path: "/news/recent", PublicationDate: now.AddDate(0, 0, -20)},
		{Path: "/news/old", PublicationDate: now.AddDate(0, 0, -40)},
	}}
	s := NewSource(idx, indexcache.Key{Name: "query-index"}, "/news",
		WithClock(func() time.Time { return now }), WithLogger(discardLogger()))
	got := paths(s.FetchItems(context.Background(), Filter30Days))
	if len(got) != 1 || got[0] != "/news/recent" {
		t.Errorf("got %v", got)
	}
}
