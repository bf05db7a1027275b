// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the news listing and site navigation to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/newsroll/internal/news"
	"github.com/starford/newsroll/internal/newsservice"
	"github.com/starford/newsroll/internal/storage"
)

// FiltersResourceURI identifies the filter contract resource.
const FiltersResourceURI = "newsroll://filters"

// Server wraps the MCP server with newsroll tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *newsservice.Service
	store storage.Provider
}

// New creates an MCP server with all tools registered. store may be nil, in
// which case import_index is not offered.
func New(svc *newsservice.Service, store storage.Provider, version string) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Newsroll",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_news",
		mcp.WithDescription("List news items for a filter, newest index order first. "+
			"Read the filter contract first via get_filter_contract or the "+FiltersResourceURI+" resource."),
		mcp.WithString("filter", mcp.Description("Filter value: all, 7days, 30days, 90days or a four-digit year (default all)")),
		mcp.WithNumber("page", mcp.Description("Number of pages of six items to return (default 1)")),
	), s.listNews)

	s.mcp.AddTool(mcp.NewTool("get_breadcrumb",
		mcp.WithDescription("Breadcrumb trail from the site root to a page."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Page path, e.g. /news/2024/launch")),
	), s.getBreadcrumb)

	s.mcp.AddTool(mcp.NewTool("get_side_nav",
		mcp.WithDescription("Side navigation for a page: its parent, its siblings and their children."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Page path, e.g. /news/2024")),
	), s.getSideNav)

	s.mcp.AddTool(mcp.NewTool("get_filter_contract",
		mcp.WithDescription("Returns the news filter contract: filter values, listing URLs and paging."),
	), s.getFilterContract)

	s.mcp.AddTool(mcp.NewTool("refresh_index",
		mcp.WithDescription("Drop the cached page index and load it again."),
	), s.refreshIndex)

	if store != nil {
		s.mcp.AddTool(mcp.NewTool("import_index",
			mcp.WithDescription("Store a page index JSON file in the local index directory. "+
				"Accepts an http(s) URL or a base64 data URI with MIME type application/json."),
			mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:application/json;base64,... URI")),
			mcp.WithString("name", mcp.Description("Index name; the file is saved as <name>.json (default from the URL)")),
		), s.importIndex)
	}

	s.mcp.AddResource(
		mcp.NewResource(FiltersResourceURI, "News Filter Contract",
			mcp.WithResourceDescription("Filter values, canonical listing URLs and paging rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFiltersResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// newsListResult is the list_news payload: the visible items and the paging
// state, without render instructions.
type newsListResult struct {
	Filter   news.FilterValue    `json:"filter"`
	Location string              `json:"location"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	More     bool                `json:"more"`
	Items    []news.NewsViewItem `json:"items"`
}

func (s *Server) listNews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := news.ParseFilterValue(req.GetString("filter", string(news.FilterAll)))
	pages := req.GetInt("page", 1)
	p, err := s.svc.List(ctx, f, pages)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(newsListResult{
		Filter:   p.View.Filter,
		Location: p.Location,
		Total:    p.View.Total,
		Page:     p.View.Page,
		More:     p.View.More,
		Items:    p.View.Items,
	}), nil
}

func (s *Server) getBreadcrumb(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	trail, err := s.svc.Breadcrumb(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(trail), nil
}

func (s *Server) getSideNav(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nav, err := s.svc.SideNav(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(nav), nil
}

func (s *Server) getFilterContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FilterContract), nil
}

func (s *Server) refreshIndex(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.svc.Refresh(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"key": s.svc.Key().String(), "entries": n}), nil
}

func (s *Server) readFiltersResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FiltersResourceURI,
			MIMEType: "text/markdown",
			Text:     FilterContract,
		},
	}, nil
}
