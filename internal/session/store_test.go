package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/newsroll/internal/apperr"
	"github.com/starford/newsroll/internal/models"
	"github.com/starford/newsroll/internal/news"
)

type emptyLoader struct{}

func (emptyLoader) FetchItems(context.Context, news.FilterValue) []models.PageIndexEntry {
	return nil
}

func newTestStore(ttl time.Duration) (*Store, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(func() *news.Listing {
		return news.NewListing(emptyLoader{}, "", news.WithMinLoading(0))
	}, ttl, nil)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestStore_CreateGet(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	id, l := s.Create()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("session id %q is not a uuid: %v", id, err)
	}
	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != l {
		t.Error("Get returned a different listing")
	}

	other, _ := s.Create()
	if other == id {
		t.Error("duplicate session id")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestStore_GetUnknown(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	if _, err := s.Get("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_SweepExpiresIdleSessions(t *testing.T) {
	s, now := newTestStore(10 * time.Minute)
	stale, _ := s.Create()
	fresh, _ := s.Create()

	*now = now.Add(8 * time.Minute)
	if _, err := s.Get(fresh); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(5 * time.Minute)

	if n := s.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if _, err := s.Get(stale); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale session still present: %v", err)
	}
	if _, err := s.Get(fresh); err != nil {
		t.Errorf("fresh session removed: %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	id, _ := s.Create()
	s.Delete(id)
	s.Delete("unknown")
	if s.Len() != 0 {
		t.Errorf("Len = %d after delete", s.Len())
	}
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
