package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIndexPage_DecodesSentinels(t *testing.T) {
	raw := `{
		"total": 2, "offset": 0, "limit": 1000,
		"data": [
			{"path": "/news/2024/a", "title": "A", "description": "0", "template": "0",
			 "image": "0", "lastModified": "1704067200", "publication-date": "0",
			 "from-the-department": "0", "robots": "1"},
			{"path": "/news/2023/b", "title": "B", "image": "/news/2023/b.jpg",
			 "lastModified": 1672531200, "publication-date": "2023-03-01T00:00:00.000Z",
			 "from-the-department": "true"}
		]
	}`
	var p IndexPage
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Total != 2 || p.Limit != 1000 || len(p.Data) != 2 {
		t.Fatalf("page = %+v", p)
	}

	a := p.Data[0]
	if a.Description != "" || a.Template != "" || a.Image != "" {
		t.Errorf("sentinels not mapped to absent: %+v", a)
	}
	if !a.PublicationDate.IsZero() {
		t.Errorf("publication date = %v, want zero", a.PublicationDate)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !a.LastModified.Equal(want) {
		t.Errorf("last modified = %v, want %v", a.LastModified, want)
	}
	if a.FromTheDepartment || !a.Robots {
		t.Errorf("flags = %v/%v", a.FromTheDepartment, a.Robots)
	}

	b := p.Data[1]
	if want := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC); !b.PublicationDate.Equal(want) {
		t.Errorf("publication date = %v, want %v", b.PublicationDate, want)
	}
	if !b.ResolvedDate().Equal(b.PublicationDate) {
		t.Error("resolved date should prefer publication date")
	}
	if !b.FromTheDepartment {
		t.Error("from-the-department should be true")
	}
}

func TestResolvedDate_FallsBackToLastModified(t *testing.T) {
	lm := time.Date(2022, 5, 4, 0, 0, 0, 0, time.UTC)
	e := PageIndexEntry{LastModified: lm}
	if !e.ResolvedDate().Equal(lm) {
		t.Errorf("resolved = %v, want %v", e.ResolvedDate(), lm)
	}
}

func TestEncodeWire_RoundTrip(t *testing.T) {
	in := IndexPage{Total: 1, Limit: 1000, Data: []PageIndexEntry{{
		Path:            "/news/2024/x",
		Title:           "X",
		LastModified:    time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		PublicationDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Robots:          true,
	}}}
	b, err := EncodeWire(in)
	if err != nil {
		t.Fatalf("EncodeWire: %v", err)
	}
	var out IndexPage
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got := out.Data[0]
	want := in.Data[0]
	if got.Path != want.Path || got.Image != "" || !got.PublicationDate.Equal(want.PublicationDate) ||
		!got.LastModified.Equal(want.LastModified) || !got.Robots || got.FromTheDepartment {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
