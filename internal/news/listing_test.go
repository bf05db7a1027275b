package news

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/starford/newsroll/internal/models"
)

type fakeLoader struct {
	mu       sync.Mutex
	byFilter map[FilterValue][]models.PageIndexEntry
	gates    map[FilterValue]chan struct{}
	started  chan FilterValue
}

func (f *fakeLoader) FetchItems(_ context.Context, filter FilterValue) []models.PageIndexEntry {
	f.mu.Lock()
	gate := f.gates[filter]
	items := f.byFilter[filter]
	f.mu.Unlock()
	if f.started != nil {
		f.started <- filter
	}
	if gate != nil {
		<-gate
	}
	return items
}

func newsEntries(n int) []models.PageIndexEntry {
	out := make([]models.PageIndexEntry, n)
	for i := range out {
		out[i] = models.PageIndexEntry{
			Path:            fmt.Sprintf("/news/2024/item-%02d", i),
			Title:           fmt.Sprintf("Item %d", i),
			PublicationDate: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func TestListing_LoadsPagesUntilExhausted(t *testing.T) {
	loader := &fakeLoader{byFilter: map[FilterValue][]models.PageIndexEntry{FilterAll: newsEntries(14)}}
	var slept []time.Duration
	l := NewListing(loader, "/img.png", WithSleep(func(d time.Duration) { slept = append(slept, d) }))

	if v := l.View(); v.State != StateIdle || len(v.Items) != 0 {
		t.Fatalf("initial view = %+v", v)
	}

	ctx := context.Background()
	v, err := l.SetFilter(ctx, FilterAll)
	if err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if len(v.Items) != 6 || v.State != StateRendered || !v.More || v.Total != 14 {
		t.Fatalf("page 1: items=%d state=%s more=%v total=%d", len(v.Items), v.State, v.More, v.Total)
	}

	if v, err = l.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if len(v.Items) != 12 || !v.More {
		t.Fatalf("page 2: items=%d more=%v", len(v.Items), v.More)
	}

	if v, err = l.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if len(v.Items) != 14 || v.More || v.State != StateExhausted {
		t.Fatalf("page 3: items=%d more=%v state=%s", len(v.Items), v.More, v.State)
	}

	// Exhausted listings ignore further requests.
	if v, _ = l.LoadMore(ctx); len(v.Items) != 14 || v.Page != 3 {
		t.Errorf("LoadMore after exhaustion changed the view: %+v", v)
	}

	if len(slept) != 3 {
		t.Fatalf("slept %d times, want 3", len(slept))
	}
	for _, d := range slept {
		if d != DefaultMinLoading {
			t.Errorf("slept %v, want %v", d, DefaultMinLoading)
		}
	}
	if v.Items[13].Path != "/news/2024/item-13" {
		t.Errorf("order not preserved: last item %s", v.Items[13].Path)
	}
}

func TestListing_PaginationInvariant(t *testing.T) {
	for _, total := range []int{1, 5, 6, 7, 12, 13, 30} {
		loader := &fakeLoader{byFilter: map[FilterValue][]models.PageIndexEntry{FilterAll: newsEntries(total)}}
		l := NewListing(loader, "", WithMinLoading(0))
		v, err := l.SetFilter(context.Background(), FilterAll)
		for p := 1; ; p++ {
			if err != nil {
				t.Fatalf("total=%d page=%d: %v", total, p, err)
			}
			want := min(p*DefaultPageSize, total)
			if len(v.Items) != want {
				t.Errorf("total=%d page=%d: rendered %d, want %d", total, p, len(v.Items), want)
			}
			if v.More != (want < total) {
				t.Errorf("total=%d page=%d: more=%v", total, p, v.More)
			}
			if !v.More {
				break
			}
			v, err = l.LoadMore(context.Background())
		}
	}
}

func TestListing_EmptyResult(t *testing.T) {
	loader := &fakeLoader{byFilter: map[FilterValue][]models.PageIndexEntry{}}
	slept := 0
	l := NewListing(loader, "", WithSleep(func(time.Duration) { slept++ }))

	v, err := l.SetFilter(context.Background(), Filter7Days)
	if err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if v.State != StateEmpty || len(v.Items) != 0 || v.More || v.Loading {
		t.Errorf("view = %+v", v)
	}
	if slept != 0 {
		t.Errorf("empty result waited for the loading delay")
	}

	got := Instructions(v, RenderContext{Now: time.Now(), FirstYear: 2011})
	kinds := make([]InstructionKind, len(got))
	for i, in := range got {
		kinds[i] = in.Kind
	}
	want := []InstructionKind{KindFilterControl, KindDivider, KindNoResults}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Errorf("instructions = %v, want %v", kinds, want)
	}
}

func TestListing_NewerFilterWins(t *testing.T) {
	gate := make(chan struct{})
	loader := &fakeLoader{
		byFilter: map[FilterValue][]models.PageIndexEntry{
			Filter7Days: newsEntries(3),
			FilterAll:   newsEntries(10),
		},
		gates:   map[FilterValue]chan struct{}{Filter7Days: gate},
		started: make(chan FilterValue, 2),
	}
	l := NewListing(loader, "", WithMinLoading(0))

	type result struct {
		v   View
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := l.SetFilter(context.Background(), Filter7Days)
		done <- result{v, err}
	}()
	if f := <-loader.started; f != Filter7Days {
		t.Fatalf("started %s", f)
	}

	v, err := l.SetFilter(context.Background(), FilterAll)
	if err != nil {
		t.Fatalf("SetFilter(all): %v", err)
	}
	if v.Filter != FilterAll || v.Total != 10 {
		t.Fatalf("view = filter %s total %d", v.Filter, v.Total)
	}

	close(gate)
	r := <-done
	if !errors.Is(r.err, ErrSuperseded) {
		t.Fatalf("stale request err = %v, want ErrSuperseded", r.err)
	}
	if final := l.View(); final.Filter != FilterAll || final.Total != 10 || len(final.Items) != 6 {
		t.Errorf("stale result leaked into view: filter %s total %d items %d", final.Filter, final.Total, len(final.Items))
	}
}

func TestListing_FilterChangeSupersedesLoadMore(t *testing.T) {
	loader := &fakeLoader{byFilter: map[FilterValue][]models.PageIndexEntry{
		FilterAll:   newsEntries(14),
		Filter7Days: newsEntries(2),
	}}
	release := make(chan struct{})
	entered := make(chan struct{}, 4)
	var blockNext bool
	var mu sync.Mutex
	sleep := func(time.Duration) {
		mu.Lock()
		block := blockNext
		blockNext = false
		mu.Unlock()
		if block {
			entered <- struct{}{}
			<-release
		}
	}
	l := NewListing(loader, "", WithSleep(sleep))
	if _, err := l.SetFilter(context.Background(), FilterAll); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}

	mu.Lock()
	blockNext = true
	mu.Unlock()
	done := make(chan error, 1)
	go func() {
		_, err := l.LoadMore(context.Background())
		done <- err
	}()
	<-entered
	if v := l.View(); !v.Loading || len(v.Items) != 6 {
		t.Errorf("during load more: loading=%v items=%d", v.Loading, len(v.Items))
	}

	v, err := l.SetFilter(context.Background(), Filter7Days)
	if err != nil {
		t.Fatalf("SetFilter(7days): %v", err)
	}
	close(release)
	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Errorf("LoadMore err = %v, want ErrSuperseded", err)
	}
	if v.State != StateExhausted || len(v.Items) != 2 {
		t.Errorf("view = state %s items %d", v.State, len(v.Items))
	}
	if final := l.View(); final.Page != 1 || len(final.Items) != 2 {
		t.Errorf("final view page %d items %d", final.Page, len(final.Items))
	}
}

func TestListing_PageAdvancesWhenApplied(t *testing.T) {
	loader := &fakeLoader{byFilter: map[FilterValue][]models.PageIndexEntry{FilterAll: newsEntries(14)}}
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	var blockNext bool
	var mu sync.Mutex
	sleep := func(time.Duration) {
		mu.Lock()
		block := blockNext
		blockNext = false
		mu.Unlock()
		if block {
			entered <- struct{}{}
			<-release
		}
	}
	l := NewListing(loader, "", WithSleep(sleep))
	if _, err := l.SetFilter(context.Background(), FilterAll); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}

	mu.Lock()
	blockNext = true
	mu.Unlock()
	done := make(chan View, 1)
	go func() {
		v, _ := l.LoadMore(context.Background())
		done <- v
	}()
	<-entered
	v := l.View()
	if v.Page != 1 || v.State != StateLoading || len(v.Items) != 6 {
		t.Errorf("during load more: page %d state %s items %d", v.Page, v.State, len(v.Items))
	}
	if got, want := PageURL(v.Filter, v.Page), PageURL(FilterAll, 1); got != want {
		t.Errorf("location during load more = %q, want %q", got, want)
	}

	close(release)
	v = <-done
	if v.Page != 2 || len(v.Items) != 12 {
		t.Errorf("after load more: page %d items %d", v.Page, len(v.Items))
	}
}

func TestRenderPages(t *testing.T) {
	loader := &fakeLoader{byFilter: map[FilterValue][]models.PageIndexEntry{FilterAll: newsEntries(14)}}
	l := NewListing(loader, "", WithMinLoading(0))
	v, err := RenderPages(context.Background(), l, FilterAll, 2)
	if err != nil {
		t.Fatalf("RenderPages: %v", err)
	}
	if v.Page != 2 || len(v.Items) != 12 {
		t.Errorf("page %d items %d", v.Page, len(v.Items))
	}

	v, err = RenderPages(context.Background(), NewListing(loader, "", WithMinLoading(0)), FilterAll, 10)
	if err != nil {
		t.Fatalf("RenderPages: %v", err)
	}
	if v.Page != 3 || v.State != StateExhausted {
		t.Errorf("page %d state %s", v.Page, v.State)
	}
}
