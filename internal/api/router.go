package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/newsroll/internal/newsservice"
	"github.com/starford/newsroll/internal/storage"
)

// NewRouter creates a chi router with all API routes, to be mounted at /api.
// authEnabled controls whether Bearer token auth is enforced on the index
// management routes and the event stream. sseHandler, if non-nil, is mounted
// at GET /events. store, if non-nil, exposes the local index directory under
// /index/files.
func NewRouter(svc *newsservice.Service, authEnabled bool, token string, sseHandler http.Handler, store storage.Provider) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Listing.
	r.Get("/news", h.ListNews)
	r.Get("/filters", h.Filters)

	// Sessions.
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{id}", h.GetSession)
	r.Delete("/sessions/{id}", h.DeleteSession)
	r.Post("/sessions/{id}/filter", h.SetSessionFilter)
	r.Post("/sessions/{id}/more", h.LoadMore)

	// Navigation.
	r.Get("/breadcrumb", h.Breadcrumb)
	r.Get("/sidenav", h.SideNav)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		r.Post("/index/refresh", h.Refresh)

		if store != nil {
			fh := NewIndexFileHandler(store, svc)
			r.Get("/index/files", fh.List)
			r.Post("/index/files", fh.Upload)
			r.Get("/index/files/{filename}", fh.ServeFile)
		}

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}

// NewSiteRouter creates the router for the server-rendered listing pages.
func NewSiteRouter(svc *newsservice.Service) chi.Router {
	h := NewPageHandler(svc)

	r := chi.NewRouter()
	r.Get("/news.html", h.Listing)
	r.Get("/news/{page}", h.Listing)
	return r
}
