// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the article catalog as tools for LLM integration.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/gitstore"
	"github.com/starford/ansuz/internal/journal"
)

// Server wraps the MCP server with the catalog tools.
type Server struct {
	mcp             *server.MCPServer
	manager         *catalog.Manager
	store           gitstore.Provider
	journal         *journal.DB // nil when journaling is disabled
	defaultCategory string
}

// New creates an MCP server with all catalog tools registered. j may be nil.
func New(manager *catalog.Manager, store gitstore.Provider, j *journal.DB, defaultCategory string) *Server {
	if defaultCategory == "" {
		defaultCategory = "note"
	}
	s := &Server{
		manager:         manager,
		store:           store,
		journal:         j,
		defaultCategory: defaultCategory,
	}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("create_article",
		mcp.WithDescription("Create a new Markdown article. The filename is derived from the title "+
			"(Chinese titles are transliterated to pinyin) and the article is registered in the "+
			"category index before the file is written."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the new article")),
		mcp.WithString("content", mcp.Description("Markdown body of the article; may be empty")),
		mcp.WithString("category", mcp.Description(fmt.Sprintf("Article category; default %q", defaultCategory))),
	), s.createArticle)

	s.mcp.AddTool(mcp.NewTool("update_article",
		mcp.WithDescription("Update an existing article with new content, optionally retitling it "+
			"in the category index."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Article path (e.g. pages/note/article-name.md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New Markdown content")),
		mcp.WithString("title", mcp.Description("New title; updates the category index when set")),
	), s.updateArticle)

	s.mcp.AddTool(mcp.NewTool("get_article",
		mcp.WithDescription("Read the raw content of an article."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Article path (e.g. pages/note/article-name.md)")),
	), s.getArticle)

	s.mcp.AddTool(mcp.NewTool("delete_article",
		mcp.WithDescription("Delete an article and remove it from the category index."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Article path (e.g. pages/note/article-name.md)")),
	), s.deleteArticle)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List articles as a path → title mapping, taken from the category indexes."),
		mcp.WithString("category", mcp.Description("Optional category filter; all categories when omitted")),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("deploy",
		mcp.WithDescription("Write the deployment marker file with an @deploy commit to trigger CI deployment."),
	), s.deploy)

	s.mcp.AddTool(mcp.NewTool("repo_info",
		mcp.WithDescription("Show the working branch head and the list of branches."),
	), s.repoInfo)

	s.mcp.AddTool(mcp.NewTool("recent_operations",
		mcp.WithDescription("Show recent catalog operations from the local journal, including the "+
			"step at which failed operations stopped."),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return (default 20)")),
	), s.recentOperations)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// HTTPHandler returns the streamable HTTP transport for the server.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) createArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content := ""
	if v, cErr := req.RequireString("content"); cErr == nil {
		content = v
	}
	category := s.defaultCategory
	if v, cErr := req.RequireString("category"); cErr == nil && v != "" {
		category = v
	}

	path, err := s.manager.Create(ctx, title, content, category)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating article: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully created article '%s' at %s", title, path)), nil
}

func (s *Server) updateArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := ""
	if v, tErr := req.RequireString("title"); tErr == nil {
		title = v
	}

	if err := s.manager.Update(ctx, path, content, title); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error updating article: %v", err)), nil
	}
	msg := fmt.Sprintf("Successfully updated article at %s", path)
	if title != "" {
		msg += fmt.Sprintf(" with new title '%s'", title)
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) getArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := s.manager.Get(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error reading article: %v", err)), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) deleteArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.manager.Delete(ctx, path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error deleting article: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted article at %s", path)), nil
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := ""
	if v, err := req.RequireString("category"); err == nil {
		category = v
	}
	listing, err := s.manager.List(ctx, category)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error getting article list: %v", err)), nil
	}
	out, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error getting article list: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deploy(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	version, err := s.manager.Deploy(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating deployment commit: %v", err)), nil
	}
	return mcp.NewToolResultText(
		fmt.Sprintf("Successfully created deployment commit with @deploy (version: %s)", version)), nil
}

func (s *Server) repoInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.store.BranchInfo(ctx, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error getting repo info: %v", err)), nil
	}
	branches, err := s.store.ListBranches(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error getting repo info: %v", err)), nil
	}
	out, _ := json.MarshalIndent(struct {
		Head     *gitstore.BranchInfo `json:"head"`
		Branches []string             `json:"branches"`
	}{info, branches}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) recentOperations(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.journal == nil {
		return mcp.NewToolResultError("operation journal is not configured"), nil
	}
	limit := 20
	if v, err := req.RequireFloat("limit"); err == nil {
		limit = int(v)
	}
	entries, err := s.journal.Recent(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error reading journal: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no recorded operations"), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
