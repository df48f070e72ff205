package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/gitstore"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *gitstore.Memory) {
	t.Helper()

	store := gitstore.NewMemory()
	j := testutil.TestJournal(t)
	manager := catalog.NewManager(store,
		catalog.WithRecorder(j),
		catalog.WithClock(func() time.Time {
			return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
		}),
	)
	srv := New(manager, store, j, "note")
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "create_article":
		result, err = srv.createArticle(ctx, req)
	case "update_article":
		result, err = srv.updateArticle(ctx, req)
	case "get_article":
		result, err = srv.getArticle(ctx, req)
	case "delete_article":
		result, err = srv.deleteArticle(ctx, req)
	case "list_articles":
		result, err = srv.listArticles(ctx, req)
	case "deploy":
		result, err = srv.deploy(ctx, req)
	case "repo_info":
		result, err = srv.repoInfo(ctx, req)
	case "recent_operations":
		result, err = srv.recentOperations(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndGetArticle(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_article", map[string]interface{}{
		"title":   "Hello World",
		"content": "Some body",
	})
	text := resultText(r)
	if text != "Successfully created article 'Hello World' at pages/note/hello-world.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "get_article", map[string]interface{}{
		"path": "pages/note/hello-world.md",
	})
	text = resultText(r)
	if !strings.HasPrefix(text, "# Hello World\n\nSome body") {
		t.Errorf("get result = %q", text)
	}
	if !strings.Contains(text, "created by AI at 2024-05-06 07:08:09") {
		t.Errorf("missing footer: %q", text)
	}
}

func TestCreateArticleInvalidCategory(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "create_article", map[string]interface{}{
		"title":    "Title",
		"category": "bogus",
	})
	if !r.IsError {
		t.Error("expected error result for invalid category")
	}
	if n := len(store.Mutations()); n != 0 {
		t.Errorf("store mutated %d times, want 0", n)
	}
}

func TestUpdateArticleWithTitle(t *testing.T) {
	srv, store := testServer(t)
	callTool(t, srv, "create_article", map[string]interface{}{"title": "Hello", "content": "old"})

	r := callTool(t, srv, "update_article", map[string]interface{}{
		"path":    "pages/note/hello.md",
		"content": "# Hello\n\nnew",
		"title":   "Hi",
	})
	text := resultText(r)
	if text != "Successfully updated article at pages/note/hello.md with new title 'Hi'" {
		t.Errorf("update result = %q", text)
	}

	data, err := store.Read(context.Background(), "pages/note/_meta.json")
	if err != nil {
		t.Fatal(err)
	}
	ix, err := catalog.ParseIndex(data)
	if err != nil {
		t.Fatal(err)
	}
	if title, _ := ix.Title("hello"); title != "Hi" {
		t.Errorf("title = %q, want Hi", title)
	}
}

func TestGetArticleMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_article", map[string]interface{}{"path": "pages/note/nope.md"})
	if !r.IsError {
		t.Error("expected error for missing article")
	}
}

func TestDeleteArticle(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_article", map[string]interface{}{"title": "Doomed"})

	r := callTool(t, srv, "delete_article", map[string]interface{}{"path": "pages/note/doomed.md"})
	text := resultText(r)
	if text != "Successfully deleted article at pages/note/doomed.md" {
		t.Errorf("delete result = %q", text)
	}

	r = callTool(t, srv, "get_article", map[string]interface{}{"path": "pages/note/doomed.md"})
	if !r.IsError {
		t.Error("article should be gone")
	}
}

func TestListArticles(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_article", map[string]interface{}{"title": "Alpha"})
	callTool(t, srv, "create_article", map[string]interface{}{"title": "Beta", "category": "web3"})

	r := callTool(t, srv, "list_articles", map[string]interface{}{})
	var listing map[string]string
	if err := json.Unmarshal([]byte(resultText(r)), &listing); err != nil {
		t.Fatalf("list output is not JSON: %v", err)
	}
	if listing["pages/note/alpha.md"] != "Alpha" || listing["pages/web3/beta.md"] != "Beta" {
		t.Errorf("listing = %v", listing)
	}

	r = callTool(t, srv, "list_articles", map[string]interface{}{"category": "web3"})
	listing = nil
	if err := json.Unmarshal([]byte(resultText(r)), &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing) != 1 {
		t.Errorf("filtered listing = %v", listing)
	}
}

func TestDeployTool(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "deploy", map[string]interface{}{})
	text := resultText(r)
	if text != "Successfully created deployment commit with @deploy (version: 2024-05-06 07:08:09)" {
		t.Errorf("deploy result = %q", text)
	}
	if _, err := store.Read(context.Background(), ".deploy-version"); err != nil {
		t.Error("marker file should exist")
	}
}

func TestRepoInfo(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "repo_info", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"main"`) {
		t.Errorf("repo_info = %q", text)
	}
}

func TestRecentOperations(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_article", map[string]interface{}{"title": "Logged"})

	r := callTool(t, srv, "recent_operations", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "create_article") || !strings.Contains(text, `"done"`) {
		t.Errorf("recent_operations = %q", text)
	}
}

func TestRecentOperationsWithoutJournal(t *testing.T) {
	store := gitstore.NewMemory()
	manager := catalog.NewManager(store)
	srv := New(manager, store, nil, "note")

	r := callTool(t, srv, "recent_operations", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error when journal is disabled")
	}
}
