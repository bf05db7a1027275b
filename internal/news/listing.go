package news

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/starford/newsroll/internal/models"
)

const (
	// DefaultPageSize is the number of items revealed per page.
	DefaultPageSize = 6
	// DefaultMinLoading keeps the loading indicator up long enough to be seen.
	DefaultMinLoading = 800 * time.Millisecond
)

// ErrSuperseded is returned when a newer request replaced the one in progress.
// The superseded result is discarded.
var ErrSuperseded = errors.New("news: superseded by a newer request")

// State is the renderer state.
type State int

// Renderer states.
const (
	StateIdle State = iota
	StateLoading
	StateRendered
	StateExhausted
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	case StateExhausted:
		return "exhausted"
	case StateEmpty:
		return "empty"
	}
	return "unknown"
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ItemLoader yields the filtered entries for a filter. *Source satisfies it.
type ItemLoader interface {
	FetchItems(ctx context.Context, filter FilterValue) []models.PageIndexEntry
}

// View is a snapshot of a Listing.
type View struct {
	Filter   FilterValue    `json:"filter"`
	State    State          `json:"state"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Total    int            `json:"total"`
	Items    []NewsViewItem `json:"items"`
	Loading  bool           `json:"loading"`
	More     bool           `json:"more"`
}

// Listing is the incremental renderer for one listing instance.
//
// Every SetFilter and LoadMore takes a new generation number; when its fetch
// and loading delay complete, the result is applied only if no newer request
// started meanwhile. The last request wins.
type Listing struct {
	loader       ItemLoader
	defaultImage string
	pageSize     int
	minLoading   time.Duration
	sleep        func(time.Duration)

	mu         sync.Mutex
	generation uint64
	state      State
	filter     FilterValue
	page       int
	rendered   int
	items      []NewsViewItem
}

// ListingOption configures a Listing.
type ListingOption func(*Listing)

// WithPageSize sets the page size.
func WithPageSize(n int) ListingOption {
	return func(l *Listing) {
		if n > 0 {
			l.pageSize = n
		}
	}
}

// WithMinLoading sets the minimum time the loading state is held before new
// content is applied. Zero disables the delay.
func WithMinLoading(d time.Duration) ListingOption {
	return func(l *Listing) { l.minLoading = max(d, 0) }
}

// WithSleep replaces the function used to wait out the loading delay.
func WithSleep(sleep func(time.Duration)) ListingOption {
	return func(l *Listing) { l.sleep = sleep }
}

// NewListing creates an idle listing.
func NewListing(loader ItemLoader, defaultImage string, opts ...ListingOption) *Listing {
	l := &Listing{
		loader:       loader,
		defaultImage: defaultImage,
		pageSize:     DefaultPageSize,
		minLoading:   DefaultMinLoading,
		sleep:        time.Sleep,
		state:        StateIdle,
		filter:       FilterAll,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetFilter clears the listing, loads the full filtered set for f and renders
// its first page. An empty result is applied at once, without the loading
// delay.
//
// Once started, the fetch and the delay always run to completion, even if ctx
// ends; ctx values are still passed through to the loader.
func (l *Listing) SetFilter(ctx context.Context, f FilterValue) (View, error) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.state = StateLoading
	l.filter = f
	l.page = 1
	l.rendered = 0
	l.items = nil
	l.mu.Unlock()

	items := ToViewModel(l.loader.FetchItems(context.WithoutCancel(ctx), f), l.defaultImage)
	if len(items) > 0 {
		l.wait()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return l.viewLocked(), ErrSuperseded
	}
	l.items = items
	l.renderLocked()
	return l.viewLocked(), nil
}

// LoadMore reveals the next page from the already computed items. It is a
// no-op unless the listing is in StateRendered. The page number advances only
// when the new page is applied, so a view taken while loading still reports
// the pages on screen.
func (l *Listing) LoadMore(_ context.Context) (View, error) {
	l.mu.Lock()
	if l.state != StateRendered {
		v := l.viewLocked()
		l.mu.Unlock()
		return v, nil
	}
	l.generation++
	gen := l.generation
	next := l.page + 1
	l.state = StateLoading
	l.mu.Unlock()

	l.wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return l.viewLocked(), ErrSuperseded
	}
	l.page = next
	l.renderLocked()
	return l.viewLocked(), nil
}

// View returns a snapshot of the current state.
func (l *Listing) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked()
}

func (l *Listing) wait() {
	if l.minLoading > 0 {
		l.sleep(l.minLoading)
	}
}

func (l *Listing) renderLocked() {
	total := len(l.items)
	if total == 0 {
		l.state = StateEmpty
		l.rendered = 0
		return
	}
	l.rendered = min(l.page*l.pageSize, total)
	if l.rendered >= total {
		l.state = StateExhausted
	} else {
		l.state = StateRendered
	}
}

func (l *Listing) viewLocked() View {
	visible := make([]NewsViewItem, l.rendered)
	copy(visible, l.items[:l.rendered])
	return View{
		Filter:   l.filter,
		State:    l.state,
		Page:     l.page,
		PageSize: l.pageSize,
		Total:    len(l.items),
		Items:    visible,
		Loading:  l.state == StateLoading,
		More:     l.state == StateRendered,
	}
}

// RenderPages drives a fresh listing to f and then reveals pages pages.
func RenderPages(ctx context.Context, l *Listing, f FilterValue, pages int) (View, error) {
	v, err := l.SetFilter(ctx, f)
	if err != nil {
		return v, err
	}
	for p := 1; p < pages && v.More; p++ {
		if v, err = l.LoadMore(ctx); err != nil {
			return v, err
		}
	}
	return v, nil
}
