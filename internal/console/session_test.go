package console

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"agentconsole/internal/conn"
	"agentconsole/internal/modelsapi"
	"agentconsole/internal/protocol"
	"agentconsole/internal/router"
	"agentconsole/internal/view"
)

type fakeConnector struct {
	mu         sync.Mutex
	sendErr    error
	sent       []protocol.Request
	connects   int
	reconnects int
	closed     bool
}

func (f *fakeConnector) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return nil
}

func (f *fakeConnector) Reconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	return nil
}

func (f *fakeConnector) Send(_ context.Context, req protocol.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeConnector) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestSession(t *testing.T, fc *fakeConnector) (*Session, *view.HTMLPane) {
	t.Helper()
	pane := view.NewHTMLPane()
	rt := router.New(pane, router.Options{})
	cat := modelsapi.Catalog{Models: []string{"llama3:latest", "qwen2:7b"}}
	sess, err := NewSession(SessionOptions{
		Conn:      fc,
		Router:    rt,
		Selection: modelsapi.NewSelection(nil, cat, ""),
		Catalog:   cat,
		Pane:      pane,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess, pane
}

func lastText(t *testing.T, pane *view.HTMLPane) string {
	t.Helper()
	entries := pane.Entries()
	if len(entries) == 0 {
		t.Fatalf("no chat entries")
	}
	return entries[len(entries)-1].Text
}

func TestSubmitSendsRequestWithSelectedModels(t *testing.T) {
	fc := &fakeConnector{}
	sess, pane := newTestSession(t, fc)

	if quit := sess.Submit(context.Background(), "/model code_model qwen2:7b"); quit {
		t.Fatalf("unexpected quit")
	}
	sess.Submit(context.Background(), "  open the news site ")

	if len(fc.sent) != 1 {
		t.Fatalf("expected one request, got %d", len(fc.sent))
	}
	req := fc.sent[0]
	if req.Query != "open the news site" || req.Models["code_model"] != "qwen2:7b" || req.Models["planner_model"] != "llama3:latest" {
		t.Fatalf("unexpected request %+v", req)
	}
	entries := pane.Entries()
	if len(entries) < 2 || entries[len(entries)-2].Text != "You (llama3:latest): open the news site" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if lastText(t, pane) != "Agent: Processing request..." {
		t.Fatalf("unexpected last entry %q", lastText(t, pane))
	}
	if !strings.Contains(pane.TasksHTML(), router.TasksPlanningText) {
		t.Fatalf("unexpected tasks pane %q", pane.TasksHTML())
	}
}

func TestConcurrentSubmitModelChangeAndQuery(t *testing.T) {
	fc := &fakeConnector{}
	sess, _ := newTestSession(t, fc)
	ctx := context.Background()

	const rounds = 200
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			submitCmd(ctx, sess, "/model planner_model qwen2:7b")()
		}()
		go func() {
			defer wg.Done()
			submitCmd(ctx, sess, "hello")()
		}()
	}
	wg.Wait()

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.sent) != rounds {
		t.Fatalf("expected %d requests, got %d", rounds, len(fc.sent))
	}
	for _, req := range fc.sent {
		switch req.Models["planner_model"] {
		case "llama3:latest", "qwen2:7b":
		default:
			t.Fatalf("unexpected planner model in %+v", req)
		}
	}
}

func TestSubmitWhileDisconnected(t *testing.T) {
	fc := &fakeConnector{sendErr: conn.ErrNotConnected}
	sess, pane := newTestSession(t, fc)

	sess.Submit(context.Background(), "hello")

	if got := lastText(t, pane); got != "Error: Not connected to agent backend. Cannot send message." {
		t.Fatalf("unexpected entry %q", got)
	}
	if got := pane.Status().Text; got != "Disconnected - Cannot Send" {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestSubmitCommands(t *testing.T) {
	fc := &fakeConnector{}
	sess, pane := newTestSession(t, fc)
	ctx := context.Background()

	sess.Submit(ctx, "   ")
	if len(pane.Entries()) != 0 {
		t.Fatalf("blank input must be ignored")
	}

	sess.Submit(ctx, "/models")
	if got := lastText(t, pane); !strings.Contains(got, "planner_model=llama3:latest") || !strings.Contains(got, "qwen2:7b") {
		t.Fatalf("unexpected models text %q", got)
	}

	sess.Submit(ctx, "/bogus")
	if got := pane.Entries()[len(pane.Entries())-1]; got.Kind != router.EntryWarning {
		t.Fatalf("expected warning entry, got %+v", got)
	}

	sess.Submit(ctx, "/model nope x")
	if got := lastText(t, pane); !strings.Contains(got, "unknown model field") {
		t.Fatalf("unexpected entry %q", got)
	}

	sess.Submit(ctx, "/reconnect")
	if fc.reconnects != 1 {
		t.Fatalf("expected one reconnect, got %d", fc.reconnects)
	}

	path := filepath.Join(t.TempDir(), "chat.html")
	sess.Submit(ctx, "/save "+path)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	if got := lastText(t, pane); got != "Transcript saved to "+path {
		t.Fatalf("unexpected entry %q", got)
	}

	if !sess.Submit(ctx, "/exit") {
		t.Fatalf("expected /exit to quit")
	}
	if len(fc.sent) != 0 {
		t.Fatalf("commands must not reach the socket: %+v", fc.sent)
	}
}

func TestTeeFansOut(t *testing.T) {
	a, b := view.NewHTMLPane(), view.NewHTMLPane()
	sink := Tee(a, nil, b)
	sink.AppendChat(router.Entry{Text: "x"})
	sink.SetStatus(router.Status{Text: "Connected"})
	for _, p := range []*view.HTMLPane{a, b} {
		if len(p.Entries()) != 1 || p.Status().Text != "Connected" {
			t.Fatalf("sink not updated: %+v", p.Entries())
		}
	}
}
