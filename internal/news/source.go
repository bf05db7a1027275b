package news

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/newsroll/internal/indexcache"
	"github.com/starford/newsroll/internal/models"
)

// IndexReader returns the full page index for a key. *indexcache.Cache
// satisfies it.
type IndexReader interface {
	Get(ctx context.Context, key indexcache.Key) ([]models.PageIndexEntry, error)
}

// Source is the data source adapter: it reads the shared index, keeps the
// news section and applies the active filter.
type Source struct {
	index    IndexReader
	key      indexcache.Key
	prefix   string
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithClock overrides the time source used by the window filters.
func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) { s.now = now }
}

// WithLocation sets the zone in which calendar dates are compared.
func WithLocation(loc *time.Location) SourceOption {
	return func(s *Source) { s.location = loc }
}

// WithLogger sets the logger used to report fetch failures.
func WithLogger(l *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = l }
}

// NewSource creates a Source reading key from index and keeping paths that
// start with prefix.
func NewSource(index IndexReader, key indexcache.Key, prefix string, opts ...SourceOption) *Source {
	s := &Source{
		index:    index,
		key:      key,
		prefix:   prefix,
		location: time.UTC,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time in the source's location.
func (s *Source) Now() time.Time {
	return s.now().In(s.location)
}

// FetchItems returns the news entries matching filter, in index order.
// A failed fetch is logged and yields an empty result.
func (s *Source) FetchItems(ctx context.Context, filter FilterValue) []models.PageIndexEntry {
	all, err := s.index.Get(ctx, s.key)
	if err != nil {
		s.logger.Error("news: fetch index failed",
			slog.String("key", s.key.String()),
			slog.String("error", err.Error()))
		return []models.PageIndexEntry{}
	}

	items := make([]models.PageIndexEntry, 0, len(all))
	for _, e := range all {
		if strings.HasPrefix(e.Path, s.prefix) {
			items = append(items, e)
		}
	}
	return Apply(items, filter, s.Now(), s.prefix)
}

// Apply filters items by f relative to now. Window filters compare calendar
// dates in now's location with an inclusive lower bound; a year keeps paths
// containing <prefix>/<year>.
func Apply(items []models.PageIndexEntry, f FilterValue, now time.Time, prefix string) []models.PageIndexEntry {
	if len(items) == 0 {
		return []models.PageIndexEntry{}
	}

	if days, ok := f.Days(); ok {
		cutoff := startOfDay(now).AddDate(0, 0, -days)
		out := make([]models.PageIndexEntry, 0, len(items))
		for _, e := range items {
			d := e.ResolvedDate()
			if d.IsZero() {
				continue
			}
			if !startOfDay(d.In(now.Location())).Before(cutoff) {
				out = append(out, e)
			}
		}
		return out
	}

	if f == FilterAll {
		return items
	}

	// Year filters match on the path, not the date fields.
	needle := strings.TrimRight(prefix, "/") + "/" + string(f)
	out := make([]models.PageIndexEntry, 0, len(items))
	for _, e := range items {
		if strings.Contains(e.Path, needle) {
			out = append(out, e)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
