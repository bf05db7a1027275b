// Package models defines the domain types for newsroll.
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// PageIndexEntry is one row of the site-wide page index.
// Absent strings are "", absent times are the zero time.
type PageIndexEntry struct {
	Path              string    `json:"path"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Template          string    `json:"template"`
	BreadcrumbTitle   string    `json:"breadcrumb_title"`
	Image             string    `json:"image"`
	LastModified      time.Time `json:"last_modified"`
	PublicationDate   time.Time `json:"publication_date"`
	FromTheDepartment bool      `json:"from_the_department"`
	Robots            bool      `json:"robots"`
}

// ResolvedDate returns the publication date when set, otherwise the
// last-modified time. Both may be zero.
func (e PageIndexEntry) ResolvedDate() time.Time {
	if !e.PublicationDate.IsZero() {
		return e.PublicationDate
	}
	return e.LastModified
}

// IndexPage is one page of the index JSON as served by the host platform.
type IndexPage struct {
	Total  int              `json:"total"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
	Data   []PageIndexEntry `json:"data"`
}

// UnmarshalJSON decodes the legacy wire shape, where every value may be a
// string or a number and "0" stands for "unset".
func (p *IndexPage) UnmarshalJSON(b []byte) error {
	var raw struct {
		Total  looseString `json:"total"`
		Offset looseString `json:"offset"`
		Limit  looseString `json:"limit"`
		Data   []rawEntry  `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Total = raw.Total.asInt()
	p.Offset = raw.Offset.asInt()
	p.Limit = raw.Limit.asInt()
	p.Data = make([]PageIndexEntry, len(raw.Data))
	for i, r := range raw.Data {
		p.Data[i] = r.entry()
	}
	return nil
}

type rawEntry struct {
	Path              looseString `json:"path"`
	Title             looseString `json:"title"`
	Description       looseString `json:"description"`
	Template          looseString `json:"template"`
	BreadcrumbTitle   looseString `json:"breadcrumb-title"`
	Image             looseString `json:"image"`
	LastModified      looseString `json:"lastModified"`
	PublicationDate   looseString `json:"publication-date"`
	FromTheDepartment looseString `json:"from-the-department"`
	Robots            looseString `json:"robots"`
}

func (r rawEntry) entry() PageIndexEntry {
	return PageIndexEntry{
		Path:              string(r.Path),
		Title:             r.Title.optional(),
		Description:       r.Description.optional(),
		Template:          r.Template.optional(),
		BreadcrumbTitle:   r.BreadcrumbTitle.optional(),
		Image:             r.Image.optional(),
		LastModified:      r.LastModified.asTime(),
		PublicationDate:   r.PublicationDate.asTime(),
		FromTheDepartment: r.FromTheDepartment.asBool(),
		Robots:            r.Robots.asBool(),
	}
}

// looseString accepts a JSON string, number, bool or null.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(b)
	return nil
}

// optional maps the "0" sentinel to absent.
func (s looseString) optional() string {
	v := strings.TrimSpace(string(s))
	if v == "0" {
		return ""
	}
	return v
}

func (s looseString) asInt() int {
	n, _ := strconv.Atoi(strings.TrimSpace(string(s)))
	return n
}

func (s looseString) asBool() bool {
	switch strings.ToLower(s.optional()) {
	case "", "false", "no":
		return false
	}
	return true
}

// asTime parses epoch seconds, falling back to RFC 3339 as written by the
// content importer.
func (s looseString) asTime() time.Time {
	v := s.optional()
	if v == "" {
		return time.Time{}
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return time.Time{}
		}
		return time.Unix(int64(secs), 0).UTC()
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// IndexFileMeta describes a local index JSON file.
type IndexFileMeta struct {
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EncodeWire renders a page in the legacy wire shape accepted by
// IndexPage.UnmarshalJSON: string values, epoch seconds and "0"/"1" flags.
func EncodeWire(p IndexPage) ([]byte, error) {
	data := make([]map[string]string, len(p.Data))
	for i, e := range p.Data {
		data[i] = map[string]string{
			"path":                e.Path,
			"title":               e.Title,
			"description":         sentinel(e.Description),
			"template":            sentinel(e.Template),
			"breadcrumb-title":    e.BreadcrumbTitle,
			"image":               sentinel(e.Image),
			"lastModified":        epoch(e.LastModified),
			"publication-date":    epoch(e.PublicationDate),
			"from-the-department": flag(e.FromTheDepartment),
			"robots":              flag(e.Robots),
		}
	}
	return json.Marshal(map[string]any{
		"total":  p.Total,
		"offset": p.Offset,
		"limit":  p.Limit,
		"data":   data,
	})
}

func sentinel(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func epoch(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
