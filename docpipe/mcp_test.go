package docpipe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "docpipe-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	pipe := New(Config{})
	srv := mcp.NewServer(testMCPImpl, nil)
	pipe.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

// --- docpipe_formats ---

func TestMCP_Formats(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "docpipe_formats", map[string]any{})

	var resp struct {
		Formats []string `json:"formats"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Formats) != 10 {
		t.Errorf("expected 10 formats, got %d: %v", len(resp.Formats), resp.Formats)
	}
	// Must include all known formats.
	expected := map[string]bool{
		"pdf": true, "docx": true, "pptx": true, "txt": true, "md": true,
		"rtf": true, "html": true, "csv": true, "xlsx": true, "epub": true,
	}
	for _, f := range resp.Formats {
		if !expected[f] {
			t.Errorf("unexpected format: %q", f)
		}
		delete(expected, f)
	}
	for f := range expected {
		t.Errorf("missing format: %q", f)
	}
}

// --- docpipe_detect ---

func TestMCP_Detect(t *testing.T) {
	session := mcpSession(t)

	tests := []struct {
		path   string
		format string
	}{
		{"report.docx", "docx"},
		{"deck.pptx", "pptx"},
		{"readme.md", "md"},
		{"data.txt", "txt"},
		{"page.html", "html"},
		{"manual.pdf", "pdf"},
		{"grades.xlsx", "xlsx"},
		{"novel.epub", "epub"},
	}
	for _, tt := range tests {
		text := mcpCallTool(t, session, "docpipe_detect", map[string]any{"path": tt.path})
		var resp struct {
			Format string `json:"format"`
		}
		json.Unmarshal([]byte(text), &resp)
		if resp.Format != tt.format {
			t.Errorf("Detect(%q) = %q, want %q", tt.path, resp.Format, tt.format)
		}
	}
}

func TestMCP_Detect_Legacy(t *testing.T) {
	// WHAT: Legacy .doc reports an in-band tool error, not a protocol error.
	session := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "docpipe_detect",
		Arguments: map[string]any{"path": "old.doc"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for legacy format")
	}
}

// --- docpipe_extract ---

func TestMCP_Extract_Text(t *testing.T) {
	session := mcpSession(t)

	// Create a temp .txt file.
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("Hello World\nSecond line"), 0644)

	text := mcpCallTool(t, session, "docpipe_extract", map[string]any{"path": path})

	var doc Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Format != FormatTXT {
		t.Errorf("Format = %q, want %q", doc.Format, FormatTXT)
	}
	if doc.RawText == "" {
		t.Error("expected non-empty RawText")
	}
	if doc.Title != "Hello World" {
		t.Errorf("Title = %q, want %q", doc.Title, "Hello World")
	}
}

func TestMCP_Extract_CSV(t *testing.T) {
	session := mcpSession(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	os.WriteFile(path, []byte("a,b\n1,2\n"), 0644)

	text := mcpCallTool(t, session, "docpipe_extract", map[string]any{"path": path})

	var doc Document
	json.Unmarshal([]byte(text), &doc)
	if doc.Format != FormatCSV {
		t.Errorf("Format = %q, want %q", doc.Format, FormatCSV)
	}
	if doc.RawText != "a | b\n1 | 2" {
		t.Errorf("RawText = %q", doc.RawText)
	}
}
