package view

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agentconsole/internal/router"
)

func TestRenderMarkdownOmitsRawHTML(t *testing.T) {
	got := RenderMarkdown("# Result\n\n<script>alert(1)</script>\n\n- a\n- b")
	if strings.Contains(got, "<script>") {
		t.Fatalf("raw HTML passed through: %q", got)
	}
	if !strings.Contains(got, "<h1>Result</h1>") || !strings.Contains(got, "<li>a</li>") {
		t.Fatalf("unexpected markdown output: %q", got)
	}
	if RenderMarkdown("   ") != "" {
		t.Fatalf("blank input should render nothing")
	}
}

func TestWriteTranscript(t *testing.T) {
	pane := NewHTMLPane()
	r := router.New(pane, router.Options{LiveViewURL: "http://h:6080/vnc.html"})
	r.Opened("ws://h:8000/ws")
	r.UserSent("llama3:latest", "<b>find</b>")
	r.Message(`Agent Task Update: [{"description":"search","status":"done"}]`)
	r.Message("Agent: Final Response: | a | b |\n|---|---|\n| 1 | 2 |")

	var buf bytes.Buffer
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := WriteTranscript(&buf, pane, now); err != nil {
		t.Fatalf("WriteTranscript: %v", err)
	}
	page := buf.String()
	for _, want := range []string{
		"Status: Connected",
		`href="http://h:6080/vnc.html"`,
		`<li class="status-done">search</li>`,
		"<table>",
		"You (llama3:latest): &lt;b&gt;find&lt;/b&gt;",
		"2026-01-02T03:04:05Z",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("transcript missing %q:\n%s", want, page)
		}
	}
	if strings.Contains(page, "<b>find</b>") {
		t.Fatalf("user text not escaped")
	}
}

func TestSaveTranscriptCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chat.html")
	if err := SaveTranscript(path, NewHTMLPane()); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "Status: Disconnected") {
		t.Fatalf("unexpected page:\n%s", b)
	}
}
