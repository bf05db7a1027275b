// Package sitenav derives the breadcrumb trail and the side navigation tree
// for a page from the site's page index.
package sitenav

import (
	"strings"

	"github.com/starford/newsroll/internal/models"
)

// HomeText labels the site root.
const HomeText = "Home"

// segments splits a page path into its non-empty segments. A trailing
// ".html" is ignored so rendered page URLs resolve to their index paths.
func segments(path string) []string {
	path = strings.TrimSuffix(path, ".html")
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

func level(path string) int {
	return len(segments(path))
}

func byPath(entries []models.PageIndexEntry) map[string]models.PageIndexEntry {
	m := make(map[string]models.PageIndexEntry, len(entries))
	for _, e := range entries {
		if _, ok := m[e.Path]; !ok {
			m[e.Path] = e
		}
	}
	return m
}

// navText is the label used for an entry in navigation: the breadcrumb
// title, falling back to the page title.
func navText(e models.PageIndexEntry) string {
	if e.BreadcrumbTitle != "" {
		return e.BreadcrumbTitle
	}
	return e.Title
}
