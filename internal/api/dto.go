package api

import (
	"github.com/starford/newsroll/internal/models"
	"github.com/starford/newsroll/internal/news"
	"github.com/starford/newsroll/internal/newsservice"
	"github.com/starford/newsroll/internal/sitenav"
)

// FilterRequest is the request body for applying a filter to a session.
type FilterRequest struct {
	Filter string `json:"filter" example:"7days"`
}

// PaginationResponse describes the revealed part of a listing.
type PaginationResponse struct {
	TotalItems   int  `json:"total_items" example:"14"`
	TotalPages   int  `json:"total_pages" example:"3"`
	CurrentPage  int  `json:"current_page" example:"1"`
	ItemsPerPage int  `json:"items_per_page" example:"6"`
	HasMore      bool `json:"has_more"`
}

// NewsResponse is a rendered listing.
type NewsResponse struct {
	View         news.View          `json:"view" validate:"required"`
	Instructions []news.Instruction `json:"instructions" validate:"required"`
	Location     string             `json:"location" example:"/news.html?filterParam=the%20past%207%20days"`
	Pagination   PaginationResponse `json:"pagination"`
}

// SessionResponse is a listing session's current state.
type SessionResponse struct {
	ID string `json:"id" example:"7b0f7f5e-3c1a-4cf0-9d56-0f4b8fd0d3a1" validate:"required"`
	NewsResponse
}

// FiltersResponse lists the filter select options.
type FiltersResponse struct {
	Current news.FilterValue    `json:"current" example:"all"`
	Options []news.FilterOption `json:"options" validate:"required"`
}

// SideNavResponse wraps the side navigation items.
type SideNavResponse struct {
	Items []sitenav.NavItem `json:"items" validate:"required"`
}

// RefreshResponse is returned after reloading the index.
type RefreshResponse struct {
	Key     string `json:"key" example:"query-index"`
	Entries int    `json:"entries" example:"1200"`
}

// IndexFileListResponse lists the index files in the local directory.
type IndexFileListResponse struct {
	Files []models.IndexFileMeta `json:"files" validate:"required"`
}

// IndexUploadResponse is returned after an index file upload.
type IndexUploadResponse struct {
	Name    string `json:"name" example:"query-index.json" validate:"required"`
	Size    int64  `json:"size" example:"12345"`
	Entries int    `json:"entries" example:"1200"`
}

func newNewsResponse(p newsservice.Page) NewsResponse {
	v := p.View
	pages := 0
	if v.PageSize > 0 {
		pages = (v.Total + v.PageSize - 1) / v.PageSize
	}
	return NewsResponse{
		View:         v,
		Instructions: p.Instructions,
		Location:     p.Location,
		Pagination: PaginationResponse{
			TotalItems:   v.Total,
			TotalPages:   pages,
			CurrentPage:  v.Page,
			ItemsPerPage: v.PageSize,
			HasMore:      v.More,
		},
	}
}
