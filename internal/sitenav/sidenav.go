package sitenav

import (
	"strings"

	"github.com/starford/newsroll/internal/models"
)

// NavItem is one entry of the side navigation.
type NavItem struct {
	Path     string    `json:"path"`
	Text     string    `json:"text"`
	Selected bool      `json:"selected"`
	Expanded bool      `json:"expanded"`
	Children []NavItem `json:"children,omitempty"`
}

// SideNav builds the navigation for path: the parent page when it is in the
// index, then every page on the current level under the same parent, each
// with its direct children. Pages whose own parent is missing from the index
// are skipped. The site root yields a single Home item.
func SideNav(entries []models.PageIndexEntry, path string) []NavItem {
	parts := segments(path)
	current := "/" + strings.Join(parts, "/")
	depth := len(parts)
	if depth == 0 {
		return []NavItem{{Path: "/", Text: HomeText, Selected: true}}
	}

	index := byPath(entries)
	parent := "/"
	if depth > 1 {
		parent = "/" + strings.Join(parts[:depth-1], "/")
	}

	out := []NavItem{}
	if e, ok := index[parent]; ok {
		text := navText(e)
		if parent == "/" {
			text = HomeText
		}
		out = append(out, NavItem{Path: parent, Text: text})
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Path] || e.Path == parent || level(e.Path) != depth || !hasParent(index, e.Path) {
			continue
		}
		if depth > 1 && !strings.HasPrefix(e.Path, parent+"/") {
			continue
		}
		seen[e.Path] = true

		item := NavItem{Path: e.Path, Text: navText(e), Selected: e.Path == current}
		item.Children = children(entries, e.Path)
		item.Expanded = item.Selected && len(item.Children) > 0
		out = append(out, item)
	}
	return out
}

func hasParent(index map[string]models.PageIndexEntry, path string) bool {
	parts := segments(path)
	if len(parts) <= 1 {
		return true
	}
	_, ok := index["/"+strings.Join(parts[:len(parts)-1], "/")]
	return ok
}

func children(entries []models.PageIndexEntry, path string) []NavItem {
	want := level(path) + 1
	seen := make(map[string]bool)
	var out []NavItem
	for _, e := range entries {
		if seen[e.Path] || level(e.Path) != want || !strings.HasPrefix(e.Path, path+"/") {
			continue
		}
		seen[e.Path] = true
		out = append(out, NavItem{Path: e.Path, Text: navText(e)})
	}
	return out
}
