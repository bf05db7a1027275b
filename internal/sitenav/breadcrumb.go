package sitenav

import (
	"strings"

	"github.com/starford/newsroll/internal/models"
)

// Crumb is one breadcrumb link.
type Crumb struct {
	Text    string `json:"text"`
	Path    string `json:"path"`
	Current bool   `json:"current"`
}

// Trail is the breadcrumb for a page. Items starts with Home; Back is the
// target of the compact back link.
type Trail struct {
	Items []Crumb `json:"items"`
	Back  string  `json:"back"`
}

// Breadcrumb builds the trail for path: Home, then one crumb per accumulated
// path segment labelled with the matching entry's breadcrumb title or the
// raw segment. The last crumb is the current page.
func Breadcrumb(entries []models.PageIndexEntry, path string) Trail {
	index := byPath(entries)
	parts := segments(path)

	crumbs := make([]Crumb, 0, len(parts))
	var acc strings.Builder
	for _, seg := range parts {
		acc.WriteString("/")
		acc.WriteString(seg)
		p := acc.String()
		text := seg
		if e, ok := index[p]; ok && e.BreadcrumbTitle != "" {
			text = e.BreadcrumbTitle
		}
		crumbs = append(crumbs, Crumb{Text: text, Path: p})
	}

	back := "/"
	if len(crumbs) > 1 {
		back = crumbs[len(crumbs)-2].Path
	}
	if len(crumbs) > 0 {
		crumbs[len(crumbs)-1].Current = true
	}

	items := append([]Crumb{{Text: HomeText, Path: "/", Current: len(crumbs) == 0}}, crumbs...)
	return Trail{Items: items, Back: back}
}
