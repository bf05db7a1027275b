// Package newsservice coordinates the index cache, the news listing pipeline,
// listing sessions and site navigation for the HTTP and MCP surfaces.
package newsservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/newsroll/internal/indexcache"
	"github.com/starford/newsroll/internal/models"
	"github.com/starford/newsroll/internal/news"
	"github.com/starford/newsroll/internal/session"
	"github.com/starford/newsroll/internal/sitenav"
)

// IndexCache is the shared index memoization. *indexcache.Cache satisfies it.
type IndexCache interface {
	Get(ctx context.Context, key indexcache.Key) ([]models.PageIndexEntry, error)
	Invalidate(key indexcache.Key)
}

// Notifier receives index change announcements. *sse.Broker satisfies it.
type Notifier interface {
	PublishIndexEvent(kind, key string)
}

// Settings holds the listing parameters.
type Settings struct {
	Key          indexcache.Key
	Prefix       string
	DefaultImage string
	PageSize     int
	MinLoading   time.Duration
	FirstYear    int
	Location     *time.Location
	SessionTTL   time.Duration
}

// Page is a rendered listing: the view, its render instructions and the
// canonical URL of its filter.
type Page struct {
	View         news.View          `json:"view"`
	Instructions []news.Instruction `json:"instructions"`
	Location     string             `json:"location"`
}

// Service implements the news operations shared by the API and MCP server.
type Service struct {
	cache    IndexCache
	settings Settings
	source   *news.Source
	sessions *session.Store
	notifier Notifier
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets where index refreshes are announced.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service reading from cache.
func NewService(cache IndexCache, settings Settings, opts ...Option) *Service {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.PageSize <= 0 {
		settings.PageSize = news.DefaultPageSize
	}
	s := &Service{
		cache:    cache,
		settings: settings,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.source = news.NewSource(cache, settings.Key, settings.Prefix,
		news.WithClock(s.now),
		news.WithLocation(settings.Location),
		news.WithLogger(s.logger))
	s.sessions = session.NewStore(func() *news.Listing {
		return s.newListing(settings.MinLoading)
	}, settings.SessionTTL, s.logger)
	return s
}

func (s *Service) newListing(minLoading time.Duration) *news.Listing {
	return news.NewListing(s.source, s.settings.DefaultImage,
		news.WithPageSize(s.settings.PageSize),
		news.WithMinLoading(minLoading))
}

// Key returns the index key the service reads.
func (s *Service) Key() indexcache.Key {
	return s.settings.Key
}

// Sessions returns the session store.
func (s *Service) Sessions() *session.Store {
	return s.sessions
}

// RenderContext returns the context used to project views.
func (s *Service) RenderContext() news.RenderContext {
	return news.RenderContext{Now: s.source.Now(), FirstYear: s.settings.FirstYear}
}

// FilterOptions lists the filter select options with f selected.
func (s *Service) FilterOptions(f news.FilterValue) []news.FilterOption {
	return news.FilterOptions(f, s.source.Now(), s.settings.FirstYear)
}

func (s *Service) page(v news.View) Page {
	return Page{
		View:         v,
		Instructions: news.Instructions(v, s.RenderContext()),
		Location:     news.PageURL(v.Filter, v.Page),
	}
}

// List renders the first pages pages of the listing for f on a fresh
// listing, without the loading delay.
func (s *Service) List(ctx context.Context, f news.FilterValue, pages int) (Page, error) {
	v, err := news.RenderPages(ctx, s.newListing(0), f, max(pages, 1))
	if err != nil {
		return Page{}, err
	}
	return s.page(v), nil
}

// CreateSession starts a listing session.
func (s *Service) CreateSession() (string, Page) {
	id, l := s.sessions.Create()
	return id, s.page(l.View())
}

// SessionView returns the current state of a session.
func (s *Service) SessionView(id string) (Page, error) {
	l, err := s.sessions.Get(id)
	if err != nil {
		return Page{}, err
	}
	return s.page(l.View()), nil
}

// SessionFilter applies f to a session. It returns news.ErrSuperseded when a
// newer request on the same session won.
func (s *Service) SessionFilter(ctx context.Context, id string, f news.FilterValue) (Page, error) {
	l, err := s.sessions.Get(id)
	if err != nil {
		return Page{}, err
	}
	v, err := l.SetFilter(ctx, f)
	return s.page(v), err
}

// SessionMore reveals the next page of a session.
func (s *Service) SessionMore(ctx context.Context, id string) (Page, error) {
	l, err := s.sessions.Get(id)
	if err != nil {
		return Page{}, err
	}
	v, err := l.LoadMore(ctx)
	return s.page(v), err
}

// DeleteSession ends a session.
func (s *Service) DeleteSession(id string) {
	s.sessions.Delete(id)
}

// Breadcrumb returns the trail for path.
func (s *Service) Breadcrumb(ctx context.Context, path string) (sitenav.Trail, error) {
	entries, err := s.cache.Get(ctx, s.settings.Key)
	if err != nil {
		return sitenav.Trail{}, err
	}
	return sitenav.Breadcrumb(entries, path), nil
}

// SideNav returns the side navigation for path.
func (s *Service) SideNav(ctx context.Context, path string) ([]sitenav.NavItem, error) {
	entries, err := s.cache.Get(ctx, s.settings.Key)
	if err != nil {
		return nil, err
	}
	return sitenav.SideNav(entries, path), nil
}

// Ready reports whether the index can be loaded.
func (s *Service) Ready(ctx context.Context) error {
	_, err := s.cache.Get(ctx, s.settings.Key)
	return err
}
