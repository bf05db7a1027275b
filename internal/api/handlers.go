package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/newsroll/internal/news"
	"github.com/starford/newsroll/internal/newsservice"
)

// maxPages bounds the page query parameter.
const maxPages = 500

// Handler holds API route handlers.
type Handler struct {
	svc *newsservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *newsservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pageParam reads ?page=N, clamped to [1, maxPages].
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, maxPages)
}

// ListNews handles GET /api/news.
//
//	@Summary		Render the news listing for a filter
//	@Tags			news
//	@Produce		json
//	@Param			filter	query		string	false	"Filter value"	Enums(all, 7days, 30days, 90days)
//	@Param			page	query		int		false	"Number of pages to reveal"
//	@Success		200		{object}	NewsResponse
//	@Router			/news [get]
func (h *Handler) ListNews(w http.ResponseWriter, r *http.Request) {
	f := news.ParseFilterValue(r.URL.Query().Get("filter"))
	p, err := h.svc.List(r.Context(), f, pageParam(r))
	if err != nil {
		writeServiceError(w, "list news", err)
		return
	}
	writeJSON(w, http.StatusOK, newNewsResponse(p))
}

// Filters handles GET /api/filters.
//
//	@Summary		List filter select options
//	@Tags			news
//	@Produce		json
//	@Param			current	query		string	false	"Selected filter value"
//	@Success		200		{object}	FiltersResponse
//	@Router			/filters [get]
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	current := news.ParseFilterValue(r.URL.Query().Get("current"))
	writeJSON(w, http.StatusOK, FiltersResponse{
		Current: current,
		Options: h.svc.FilterOptions(current),
	})
}

// CreateSession handles POST /api/sessions. A filter in the body is applied
// before responding.
//
//	@Summary		Start a listing session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FilterRequest	false	"Initial filter"
//	@Success		201		{object}	SessionResponse
//	@Router			/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	id, p := h.svc.CreateSession()
	if req.Filter != "" {
		var err error
		if p, err = h.svc.SessionFilter(r.Context(), id, news.ParseFilterValue(req.Filter)); err != nil {
			writeServiceError(w, "create session", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, SessionResponse{ID: id, NewsResponse: newNewsResponse(p)})
}

// GetSession handles GET /api/sessions/{id}.
//
//	@Summary		Get a listing session
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Router			/sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.svc.SessionView(id)
	if err != nil {
		writeServiceError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, NewsResponse: newNewsResponse(p)})
}

// SetSessionFilter handles POST /api/sessions/{id}/filter.
//
//	@Summary		Apply a filter to a listing session
//	@Description	Responds once the first page is rendered. The location field carries the canonical URL of the filter.
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session id"
//	@Param			body	body		FilterRequest	true	"Filter"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/sessions/{id}/filter [post]
func (h *Handler) SetSessionFilter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req FilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Filter == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("filter is required"))
		return
	}
	p, err := h.svc.SessionFilter(r.Context(), id, news.ParseFilterValue(req.Filter))
	if err != nil {
		writeServiceError(w, "set session filter", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, NewsResponse: newNewsResponse(p)})
}

// LoadMore handles POST /api/sessions/{id}/more.
//
//	@Summary		Reveal the next page of a listing session
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Router			/sessions/{id}/more [post]
func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.svc.SessionMore(r.Context(), id)
	if err != nil {
		writeServiceError(w, "load more", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, NewsResponse: newNewsResponse(p)})
}

// DeleteSession handles DELETE /api/sessions/{id}.
//
//	@Summary		End a listing session
//	@Tags			sessions
//	@Param			id	path	string	true	"Session id"
//	@Success		204	"Session ended"
//	@Router			/sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.svc.DeleteSession(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// Breadcrumb handles GET /api/breadcrumb.
//
//	@Summary		Breadcrumb trail for a page
//	@Tags			navigation
//	@Produce		json
//	@Param			path	query		string	true	"Page path"
//	@Success		200		{object}	sitenav.Trail
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Router			/breadcrumb [get]
func (h *Handler) Breadcrumb(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	trail, err := h.svc.Breadcrumb(r.Context(), path)
	if err != nil {
		writeServiceError(w, "breadcrumb", err)
		return
	}
	writeJSON(w, http.StatusOK, trail)
}

// SideNav handles GET /api/sidenav.
//
//	@Summary		Side navigation for a page
//	@Tags			navigation
//	@Produce		json
//	@Param			path	query		string	true	"Page path"
//	@Success		200		{object}	SideNavResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Router			/sidenav [get]
func (h *Handler) SideNav(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	nav, err := h.svc.SideNav(r.Context(), path)
	if err != nil {
		writeServiceError(w, "side nav", err)
		return
	}
	writeJSON(w, http.StatusOK, SideNavResponse{Items: nav})
}

// Refresh handles POST /api/index/refresh.
//
//	@Summary		Reload the page index
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	RefreshResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, "refresh index", err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Key: h.svc.Key().String(), Entries: n})
}
