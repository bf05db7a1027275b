package news

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fixed listing copy.
const (
	FilterLabel      = "Show me all news from"
	FilterButtonText = "Go"
	MoreButtonText   = "More News"
	NoResultsMessage = "We didn't find anything that matches your filters. Try expanding your search or browsing the whole collection."

	rangeDateLayout = "02/01/2006"
)

// InstructionKind names one render instruction.
type InstructionKind string

// Render instruction kinds, in the order they may appear.
const (
	KindFilterControl InstructionKind = "filter-control"
	KindDivider       InstructionKind = "divider"
	KindCount         InstructionKind = "count"
	KindCard          InstructionKind = "card"
	KindLoading       InstructionKind = "loading"
	KindMore          InstructionKind = "more"
	KindNoResults     InstructionKind = "no-results"
)

// Instruction is one opaque render step. Hosts map kinds to markup.
type Instruction struct {
	Kind      InstructionKind `json:"kind"`
	Text      string          `json:"text,omitempty"`
	Label     string          `json:"label,omitempty"`
	Count     int             `json:"count,omitempty"`
	CountText string          `json:"count_text,omitempty"`
	Noun      string          `json:"noun,omitempty"`
	Range     string          `json:"range,omitempty"`
	Href      string          `json:"href,omitempty"`
	Item      *NewsViewItem   `json:"item,omitempty"`
	Options   []FilterOption  `json:"options,omitempty"`
}

// RenderContext carries what the projection needs beyond the view.
type RenderContext struct {
	Now       time.Time
	FirstYear int
}

// Instructions projects a view into the ordered render steps of the listing:
// filter control, divider, then either the count line, the cards, the
// loading indicator and the more control, or the no-results message.
func Instructions(v View, rc RenderContext) []Instruction {
	out := []Instruction{
		{
			Kind:    KindFilterControl,
			Label:   FilterLabel,
			Text:    FilterButtonText,
			Options: FilterOptions(v.Filter, rc.Now, rc.FirstYear),
		},
		{Kind: KindDivider},
	}

	switch {
	case v.State == StateIdle:
		return out
	case v.State == StateEmpty:
		return append(out, Instruction{Kind: KindNoResults, Text: NoResultsMessage})
	case v.Loading && len(v.Items) == 0:
		return append(out, Instruction{Kind: KindLoading})
	}

	out = append(out, CountLine(v.Total, v.Filter, rc.Now))
	for i := range v.Items {
		item := v.Items[i]
		out = append(out, Instruction{Kind: KindCard, Item: &item})
	}
	if v.Loading {
		out = append(out, Instruction{Kind: KindLoading})
	}
	if v.More {
		out = append(out, Instruction{Kind: KindMore, Text: MoreButtonText, Href: PageURL(v.Filter, v.Page+1)})
	}
	return out
}

// CountLine builds the "N news items from <range>" instruction. The range is
// the window ending now for time windows, the calendar year for years, and
// omitted for all.
func CountLine(count int, f FilterValue, now time.Time) Instruction {
	p := message.NewPrinter(language.BritishEnglish)
	noun := "news items"
	if count == 1 {
		noun = "news item"
	}
	var rng string
	if days, ok := f.Days(); ok {
		rng = now.AddDate(0, 0, -days).Format(rangeDateLayout) + " - " + now.Format(rangeDateLayout)
	} else if year, ok := f.Year(); ok {
		rng = "01/01/" + strconv.Itoa(year) + " - 31/12/" + strconv.Itoa(year)
	}

	countText := p.Sprintf("%d", count)
	text := countText + " " + noun
	if rng != "" {
		text += " from " + rng
	}
	return Instruction{
		Kind:      KindCount,
		Text:      text,
		Count:     count,
		CountText: countText,
		Noun:      noun,
		Range:     rng,
	}
}

// PageURL is FilterURL with a page parameter for pages after the first.
func PageURL(f FilterValue, page int) string {
	u := FilterURL(f)
	if page <= 1 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "page=" + strconv.Itoa(page)
}
