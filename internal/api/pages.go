package api

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/starford/newsroll/internal/news"
	"github.com/starford/newsroll/internal/newsservice"
	"github.com/starford/newsroll/internal/sitenav"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// pageData is the input of the listing page template.
type pageData struct {
	Title        string
	Trail        sitenav.Trail
	Nav          []sitenav.NavItem
	Instructions []news.Instruction
}

// PageHandler renders the listing pages.
type PageHandler struct {
	svc *newsservice.Service
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(svc *newsservice.Service) *PageHandler {
	return &PageHandler{svc: svc}
}

// Listing handles GET /news.html and GET /news/{year}.html.
//
// A filter query parameter, as sent by the filter form, redirects to the
// canonical URL of that filter. A page parameter reveals that many pages.
func (h *PageHandler) Listing(w http.ResponseWriter, r *http.Request) {
	if !news.IsListingPath(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	if v := r.URL.Query().Get("filter"); v != "" {
		http.Redirect(w, r, news.FilterURL(news.ParseFilterValue(v)), http.StatusSeeOther)
		return
	}

	ctx := r.Context()
	p, err := h.svc.List(ctx, news.ReadFilter(r.URL), pageParam(r))
	if err != nil {
		slog.Error("render listing failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := pageData{Title: "News", Instructions: p.Instructions}
	if trail, err := h.svc.Breadcrumb(ctx, r.URL.Path); err == nil {
		data.Trail = trail
	} else {
		slog.Warn("breadcrumb unavailable", slog.String("error", err.Error()))
	}
	if nav, err := h.svc.SideNav(ctx, r.URL.Path); err == nil {
		data.Nav = nav
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "news.html", data); err != nil {
		slog.Error("execute template failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
