// Package news implements the news listing pipeline: filter state, the data
// source adapter, the view model builder and the incremental renderer.
package news

import (
	"net/url"
	"regexp"
	"strconv"
	"time"
)

// FilterValue is the active listing filter: one of the time windows, "all",
// or a four-digit year.
type FilterValue string

// Named filters.
const (
	FilterAll    FilterValue = "all"
	Filter7Days  FilterValue = "7days"
	Filter30Days FilterValue = "30days"
	Filter90Days FilterValue = "90days"
)

const (
	// FilterParam is the query parameter carrying the human-readable filter phrase.
	FilterParam = "filterParam"
	// LandingPath is the listing page for the named filters.
	LandingPath = "/news.html"
)

var (
	yearRe     = regexp.MustCompile(`^\d{4}$`)
	yearPathRe = regexp.MustCompile(`/news/(\d{4})\.html$`)
	yearPageRe = regexp.MustCompile(`^/news/\d{4}\.html$`)
)

// phrases maps the named filters to their URL phrases, in select order.
var phrases = []struct {
	value  FilterValue
	phrase string
}{
	{FilterAll, "all time"},
	{Filter7Days, "the past 7 days"},
	{Filter30Days, "the past 30 days"},
	{Filter90Days, "the past 90 days"},
}

// Phrase returns the human-readable form of a named filter, or the value
// itself for a year.
func (f FilterValue) Phrase() string {
	for _, p := range phrases {
		if p.value == f {
			return p.phrase
		}
	}
	return string(f)
}

// Named reports whether f is all or one of the time windows.
func (f FilterValue) Named() bool {
	for _, p := range phrases {
		if p.value == f {
			return true
		}
	}
	return false
}

// Year returns the year of a year filter.
func (f FilterValue) Year() (int, bool) {
	if !yearRe.MatchString(string(f)) {
		return 0, false
	}
	y, _ := strconv.Atoi(string(f))
	return y, true
}

// Days returns the window length of a time-window filter.
func (f FilterValue) Days() (int, bool) {
	switch f {
	case Filter7Days:
		return 7, true
	case Filter30Days:
		return 30, true
	case Filter90Days:
		return 90, true
	}
	return 0, false
}

// ParseFilterValue parses a select-control value. Anything that is neither a
// named filter nor a four-digit year falls back to FilterAll.
func ParseFilterValue(s string) FilterValue {
	f := FilterValue(s)
	if f.Named() {
		return f
	}
	if _, ok := f.Year(); ok {
		return f
	}
	return FilterAll
}

// ReadFilter derives the active filter from a request URL. A filterParam
// phrase wins, and an unknown phrase means all; otherwise a /news/<year>.html
// path selects that year; otherwise all.
func ReadFilter(u *url.URL) FilterValue {
	if phrase := u.Query().Get(FilterParam); phrase != "" {
		for _, p := range phrases {
			if p.phrase == phrase {
				return p.value
			}
		}
		return FilterAll
	}
	if m := yearPathRe.FindStringSubmatch(u.Path); m != nil {
		return FilterValue(m[1])
	}
	return FilterAll
}

// FilterURL returns the canonical listing URL for f: the query form for the
// named filters and the path form for everything else.
func FilterURL(f FilterValue) string {
	if f.Named() {
		return LandingPath + "?" + FilterParam + "=" + url.PathEscape(f.Phrase())
	}
	return "/news/" + url.PathEscape(string(f)) + ".html"
}

// IsListingPath reports whether p is the landing page or a year page.
func IsListingPath(p string) bool {
	return p == LandingPath || yearPageRe.MatchString(p)
}

// FilterOption is one entry of the filter select control.
type FilterOption struct {
	Value    FilterValue `json:"value"`
	Text     string      `json:"text"`
	Selected bool        `json:"selected"`
}

// FilterOptions lists the named filters followed by every year from now's
// year down to firstYear, marking current as selected.
func FilterOptions(current FilterValue, now time.Time, firstYear int) []FilterOption {
	opts := make([]FilterOption, 0, len(phrases)+max(now.Year()-firstYear+1, 0))
	for _, p := range phrases {
		opts = append(opts, FilterOption{Value: p.value, Text: p.phrase, Selected: p.value == current})
	}
	for y := now.Year(); y >= firstYear; y-- {
		v := FilterValue(strconv.Itoa(y))
		opts = append(opts, FilterOption{Value: v, Text: string(v), Selected: v == current})
	}
	return opts
}
