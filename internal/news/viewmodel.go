package news

import (
	"strings"

	"github.com/starford/newsroll/internal/models"
)

const (
	// DescriptionMaxLength caps displayed descriptions, ellipsis included.
	DescriptionMaxLength = 138
	// DefaultCategory labels entries without a template.
	DefaultCategory = "News category"
	// DefaultImagePrefix marks the site's generic meta image.
	DefaultImagePrefix = "/default-meta-image.png"
	// FallbackImage replaces missing and placeholder images.
	FallbackImage = "/news/2021/12/media_16a0d87cb049109d66f17dff074755a0f74c5be5b.jpeg"
	// DisplayDateLayout renders dates as "D Mon YYYY".
	DisplayDateLayout = "2 Jan 2006"

	ellipsis = "..."
)

// NewsViewItem is the display-ready projection of a PageIndexEntry.
type NewsViewItem struct {
	Path            string `json:"path"`
	Image           string `json:"image"`
	Title           string `json:"title"`
	BreadcrumbTitle string `json:"breadcrumb_title"`
	Date            string `json:"date"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	FromDepartment  bool   `json:"from_department"`
	Robots          bool   `json:"robots"`
}

// ToViewModel maps entries to view items in order. It is pure: the same
// input always yields an equal output.
func ToViewModel(items []models.PageIndexEntry, defaultImage string) []NewsViewItem {
	out := make([]NewsViewItem, len(items))
	for i, e := range items {
		out[i] = toViewItem(e, defaultImage)
	}
	return out
}

func toViewItem(e models.PageIndexEntry, defaultImage string) NewsViewItem {
	path := e.Path
	if path == "" {
		path = "#"
	}
	category := e.Template
	if category == "" {
		category = DefaultCategory
	}
	var date string
	if d := e.ResolvedDate(); !d.IsZero() {
		date = d.Format(DisplayDateLayout)
	}
	return NewsViewItem{
		Path:            path,
		Image:           resolveImage(e.Image, defaultImage),
		Title:           e.Title,
		BreadcrumbTitle: e.BreadcrumbTitle,
		Date:            date,
		Description:     TrimDescription(e.Description),
		Category:        category,
		FromDepartment:  e.FromTheDepartment,
		Robots:          e.Robots,
	}
}

func resolveImage(image, defaultImage string) string {
	if image == "" || strings.HasPrefix(image, DefaultImagePrefix) {
		return defaultImage
	}
	return image
}

// TrimDescription truncates descriptions longer than DescriptionMaxLength
// runes to a prefix plus an ellipsis, DescriptionMaxLength runes in total.
func TrimDescription(s string) string {
	r := []rune(s)
	if len(r) <= DescriptionMaxLength {
		return s
	}
	return string(r[:DescriptionMaxLength-len(ellipsis)]) + ellipsis
}
