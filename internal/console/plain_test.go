package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"agentconsole/internal/conn"
	"agentconsole/internal/modelsapi"
	"agentconsole/internal/router"
)

func TestPlainRun(t *testing.T) {
	var out bytes.Buffer
	plain := NewPlain(&out, false)
	rt := router.New(plain, router.Options{})
	fc := &fakeConnector{}
	sess, err := NewSession(SessionOptions{
		Conn:    fc,
		Router:  rt,
		Catalog: modelsapi.Catalog{Models: []string{"llama3:latest"}},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	in := strings.NewReader("hello agent\n/exit\nnever sent\n")
	if err := plain.Run(context.Background(), sess, in); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if fc.connects != 1 || !fc.closed {
		t.Fatalf("expected connect and close, got connects=%d closed=%v", fc.connects, fc.closed)
	}
	if len(fc.sent) != 1 || fc.sent[0].Query != "hello agent" {
		t.Fatalf("unexpected requests %+v", fc.sent)
	}
	text := out.String()
	for _, want := range []string{"You (llama3:latest): hello agent", "[tasks]", router.TasksPlanningText} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestPlainSinkRendering(t *testing.T) {
	var out bytes.Buffer
	plain := NewPlain(&out, false)
	rt := router.New(plain, router.Options{LiveViewURL: "http://h:6080/vnc.html"})

	rt.Status(conn.Notice{Kind: conn.NoticeConnecting, Attempt: 1, Max: 5})
	rt.Opened("ws://h:8000/ws")
	rt.Message(`Agent Task Update: [{"description":"search","status":"running"}]`)
	rt.Message(`Agent Task Update: [{"description":"search","status":"running"}]`)
	rt.Message("Agent: Final Response: **done**")

	text := out.String()
	for _, want := range []string{
		"[status] Connecting... (Attempt 1)",
		"[status] Connected  live view: http://h:6080/vnc.html",
		"1. [running] search",
		"Final Result:\ndone",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Count(text, "1. [running] search") != 1 {
		t.Fatalf("unchanged task list should print once:\n%s", text)
	}
	if strings.Contains(text, "**") {
		t.Fatalf("markup markers leaked:\n%s", text)
	}
}

func TestPlainEOFEndsRun(t *testing.T) {
	var out bytes.Buffer
	plain := NewPlain(&out, false)
	sess, err := NewSession(SessionOptions{Conn: &fakeConnector{}, Router: router.New(plain, router.Options{})})
	if err != nil {
		t.Fatal(err)
	}
	if err := plain.Run(context.Background(), sess, strings.NewReader("")); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
