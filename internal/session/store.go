// Package session keeps the live listing instances served over the API.
// Each session owns one news.Listing and expires after a period of
// inactivity.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/newsroll/internal/apperr"
	"github.com/starford/newsroll/internal/news"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * time.Minute

// Factory builds the listing for a new session.
type Factory func() *news.Listing

type entry struct {
	listing  *news.Listing
	lastSeen time.Time
}

// Store maps session ids to listings.
type Store struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore creates a Store. A non-positive ttl uses DefaultTTL.
func NewStore(factory Factory, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session and returns its id and listing.
func (s *Store) Create() (string, *news.Listing) {
	id := uuid.NewString()
	l := s.factory()

	s.mu.Lock()
	s.sessions[id] = &entry{listing: l, lastSeen: s.now()}
	s.mu.Unlock()
	return id, l
}

// Get returns the listing for id and marks the session as used.
func (s *Store) Get(id string) (*news.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	e.lastSeen = s.now()
	return e.listing, nil
}

// Delete ends a session. Unknown ids are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Each calls fn for every live session. fn must not call back into the store.
func (s *Store) Each(fn func(id string, l *news.Listing)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		fn(id, e.listing)
	}
}

// Sweep removes sessions idle for longer than the ttl and returns how many
// were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = s.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("session: expired", slog.Int("count", n), slog.Int("live", s.Len()))
			}
		}
	}
}
