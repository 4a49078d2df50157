package router

import (
	"errors"
	"strings"
	"testing"

	"agentconsole/internal/conn"
	"agentconsole/internal/protocol"
)

type taskNotice struct {
	text string
	kind EntryKind
}

type fakeSink struct {
	chat     []Entry
	tasks    [][]protocol.Task
	notices  []taskNotice
	statuses []Status
}

func (s *fakeSink) AppendChat(e Entry) { s.chat = AppendEntry(s.chat, e) }
func (s *fakeSink) ShowTasks(tasks []protocol.Task) { s.tasks = append(s.tasks, tasks) }
func (s *fakeSink) ShowTaskNotice(text string, k EntryKind) { s.notices = append(s.notices, taskNotice{text, k}) }
func (s *fakeSink) SetStatus(st Status) { s.statuses = append(s.statuses, st) }

func (s *fakeSink) lastStatus(t *testing.T) Status {
	t.Helper()
	if len(s.statuses) == 0 {
		t.Fatalf("no status set")
	}
	return s.statuses[len(s.statuses)-1]
}

func TestTaskUpdateRendersTasksAndNoChatEntry(t *testing.T) {
	sink := &fakeSink{}
	r := New(sink, Options{})

	r.Message(`Agent Task Update: [{"description":"scrape","status":"running"}]`)

	if len(sink.chat) != 0 {
		t.Fatalf("task update must not reach the chat log: %+v", sink.chat)
	}
	if len(sink.tasks) != 1 || len(sink.tasks[0]) != 1 {
		t.Fatalf("expected one task list with one task, got %+v", sink.tasks)
	}
	if got := sink.tasks[0][0]; got.Description != "scrape" || got.Status != protocol.StatusRunning {
		t.Fatalf("unexpected task %+v", got)
	}
}

func TestErrorLineRendersErrorEntry(t *testing.T) {
	sink := &fakeSink{}
	r := New(sink, Options{})

	r.Message("Agent Error: disk full")

	if len(sink.chat) != 1 {
		t.Fatalf("expected one chat entry, got %+v", sink.chat)
	}
	e := sink.chat[0]
	if e.Text != "Error: disk full" || e.Kind != EntryError || e.Category != protocol.ErrorNotice {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestEveryLineProducesExactlyOneOutput(t *testing.T) {
	lines := []string{
		"Agent: Final Response: 42",
		"Agent Error: boom",
		"Agent Warning: careful",
		"Agent: Thinking",
		`Agent Task Update: []`,
		`Agent Task Update: {"description":"x"}`,
		"Agent Task Update: not json",
		"whatever",
		"",
		"Agent:",
		"<script>alert(1)</script>",
	}
	for _, line := range lines {
		sink := &fakeSink{}
		r := New(sink, Options{})
		r.Message(line)
		outputs := len(sink.chat) + len(sink.tasks) + len(sink.notices)
		if outputs != 1 {
			t.Fatalf("line %q: expected exactly one output, got chat=%d tasks=%d notices=%d",
				line, len(sink.chat), len(sink.tasks), len(sink.notices))
		}
		if strings.HasPrefix(line, protocol.PrefixTaskUpdate) {
			for _, e := range sink.chat {
				if strings.Contains(e.Text, protocol.PrefixTaskUpdate) {
					t.Fatalf("task update text leaked into chat: %q", e.Text)
				}
			}
		}
	}
}

func TestCategoryFormatting(t *testing.T) {
	cases := []struct {
		line string
		kind EntryKind
		text string
	}{
		{"Agent: Final Response: the answer", EntryFinal, "**Final Result:**\nthe answer"},
		{"Agent Warning: slow", EntryWarning, "Warning: slow"},
		{"Agent: Opening browser", EntryActivity, "Opening browser"},
		{"hello there", EntryRaw, "Raw Message: hello there"},
	}
	for _, tc := range cases {
		sink := &fakeSink{}
		New(sink, Options{}).Message(tc.line)
		if len(sink.chat) != 1 {
			t.Fatalf("%q: expected one entry, got %+v", tc.line, sink.chat)
		}
		if sink.chat[0].Kind != tc.kind || sink.chat[0].Text != tc.text {
			t.Fatalf("%q: got %+v", tc.line, sink.chat[0])
		}
	}
}

func TestCorruptTaskUpdateReportsToChatOnly(t *testing.T) {
	sink := &fakeSink{}
	r := New(sink, Options{})

	r.Message(`Agent Task Update: [{"description":`)

	if len(sink.tasks) != 0 || len(sink.notices) != 0 {
		t.Fatalf("task pane must be left unchanged, got tasks=%+v notices=%+v", sink.tasks, sink.notices)
	}
	if len(sink.chat) != 1 || sink.chat[0].Kind != EntryError || sink.chat[0].Text != corruptTaskUpdateText {
		t.Fatalf("unexpected chat %+v", sink.chat)
	}
}

func TestNonListTaskUpdateShowsErrorPlaceholder(t *testing.T) {
	sink := &fakeSink{}
	r := New(sink, Options{})

	r.Message(`Agent Task Update: {"description":"x","status":"done"}`)

	if len(sink.chat) != 0 {
		t.Fatalf("expected no chat entry, got %+v", sink.chat)
	}
	if len(sink.notices) != 1 || sink.notices[0].text != TasksInvalidText || sink.notices[0].kind != EntryError {
		t.Fatalf("unexpected notices %+v", sink.notices)
	}
}

func TestWorkflowCompleteDuplicatesSuppressed(t *testing.T) {
	sink := &fakeSink{}
	r := New(sink, Options{})

	r.Message("Agent: Workflow complete.")
	r.Message("Agent: Workflow complete.")
	r.Message("Agent: Workflow finished with 2 steps")
	if len(sink.chat) != 1 {
		t.Fatalf("expected duplicates suppressed, got %+v", sink.chat)
	}

	r.Message("Agent: Next step")
	r.Message("Agent: Workflow complete.")
	if len(sink.chat) != 3 {
		t.Fatalf("expected non-consecutive sentinel to render, got %+v", sink.chat)
	}
}

func TestConnectionNotices(t *testing.T) {
	sink := &fakeSink{}
	r := New(sink, Options{LiveViewURL: "http://host:6080/vnc.html"})

	r.Status(conn.Notice{Kind: conn.NoticeConnecting, Attempt: 1, Max: 5})
	if len(sink.chat) != 1 || !sink.chat[0].Placeholder || sink.chat[0].Text != ConnectingText {
		t.Fatalf("expected connecting placeholder, got %+v", sink.chat)
	}
	if got := sink.lastStatus(t).Text; got != "Connecting... (Attempt 1)" {
		t.Fatalf("unexpected status %q", got)
	}

	r.Opened("ws://host:8000/ws")
	if len(sink.chat) != 1 || sink.chat[0].Placeholder {
		t.Fatalf("placeholder should be replaced, got %+v", sink.chat)
	}
	st := sink.lastStatus(t)
	if st.Text != "Connected" || st.LiveView != "http://host:6080/vnc.html" || st.Endpoint != "ws://host:8000/ws" {
		t.Fatalf("unexpected status %+v", st)
	}
	if last := sink.notices[len(sink.notices)-1]; last.text != TasksNotPlannedText {
		t.Fatalf("unexpected task notice %+v", last)
	}

	r.Status(conn.Notice{Kind: conn.NoticeError, Err: errors.New("eof")})
	r.Status(conn.Notice{Kind: conn.NoticeReconnecting, Attempt: 2, Max: 5})
	last := sink.chat[len(sink.chat)-1]
	if last.Text != "Connection closed. Reconnecting... (2/5)" || last.Kind != EntryError {
		t.Fatalf("unexpected entry %+v", last)
	}
	if got := sink.lastStatus(t).Text; got != "Reconnecting..." {
		t.Fatalf("unexpected status %q", got)
	}

	r.Status(conn.Notice{Kind: conn.NoticeFailed, Attempt: 5, Max: 5})
	if got := sink.lastStatus(t); got.Text != "Connection Failed" || got.Level != StatusError {
		t.Fatalf("unexpected status %+v", got)
	}

	r.Status(conn.Notice{Kind: conn.NoticeClosed})
	if got := sink.chat[len(sink.chat)-1].Text; got != "Connection closed." {
		t.Fatalf("unexpected entry %q", got)
	}
}

func TestSendFailedReportsNotConnected(t *testing.T) {
	sink := &fakeSink{}
	r := New(sink, Options{})

	r.SendFailed(conn.ErrNotConnected)

	if len(sink.chat) != 1 || sink.chat[0].Text != "Error: Not connected to agent backend. Cannot send message." {
		t.Fatalf("unexpected chat %+v", sink.chat)
	}
	if got := sink.lastStatus(t).Text; got != "Disconnected - Cannot Send" {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestUserSent(t *testing.T) {
	sink := &fakeSink{}
	r := New(sink, Options{})

	r.UserSent("llama3:latest", "find flights")

	if len(sink.chat) != 2 {
		t.Fatalf("expected 2 entries, got %+v", sink.chat)
	}
	if sink.chat[0].Kind != EntryUser || sink.chat[0].Text != "You (llama3:latest): find flights" {
		t.Fatalf("unexpected user entry %+v", sink.chat[0])
	}
	if sink.notices[0].text != TasksPlanningText {
		t.Fatalf("unexpected task notice %+v", sink.notices)
	}
}

func TestAppendEntryDropsLonePlaceholder(t *testing.T) {
	log := AppendEntry(nil, Entry{Text: "a", Placeholder: true})
	log = AppendEntry(log, Entry{Text: "b"})
	if len(log) != 1 || log[0].Text != "b" {
		t.Fatalf("unexpected log %+v", log)
	}
	log = AppendEntry(log, Entry{Text: "c", Placeholder: true})
	log = AppendEntry(log, Entry{Text: "d"})
	if len(log) != 3 {
		t.Fatalf("placeholder after real entries is kept, got %+v", log)
	}
}
