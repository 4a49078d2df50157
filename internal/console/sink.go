package console

import (
	"agentconsole/internal/protocol"
	"agentconsole/internal/router"
)

// Tee fans every sink call out to all sinks, in order.
func Tee(sinks ...router.Sink) router.Sink {
	out := make(teeSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type teeSink []router.Sink

func (t teeSink) AppendChat(e router.Entry) {
	for _, s := range t {
		s.AppendChat(e)
	}
}

func (t teeSink) ShowTasks(tasks []protocol.Task) {
	for _, s := range t {
		s.ShowTasks(tasks)
	}
}

func (t teeSink) ShowTaskNotice(text string, kind router.EntryKind) {
	for _, s := range t {
		s.ShowTaskNotice(text, kind)
	}
}

func (t teeSink) SetStatus(st router.Status) {
	for _, s := range t {
		s.SetStatus(st)
	}
}

// Sink updates are carried to the TUI as async events.
type (
	chatMsg       struct{ Entry router.Entry }
	tasksMsg      struct{ Tasks []protocol.Task }
	taskNoticeMsg struct {
		Text string
		Kind router.EntryKind
	}
	statusMsg struct{ Status router.Status }
)

type asyncMsg struct {
	Event any
}

// chanSink forwards sink calls to the TUI event loop. Sends stop once done
// is closed so a finished program never blocks the connection reader.
type chanSink struct {
	events chan<- asyncMsg
	done   <-chan struct{}
}

func (c chanSink) push(evt any) {
	select {
	case c.events <- asyncMsg{Event: evt}:
	case <-c.done:
	}
}

func (c chanSink) AppendChat(e router.Entry) { c.push(chatMsg{Entry: e}) }

func (c chanSink) ShowTasks(tasks []protocol.Task) {
	c.push(tasksMsg{Tasks: append([]protocol.Task(nil), tasks...)})
}

func (c chanSink) ShowTaskNotice(text string, kind router.EntryKind) {
	c.push(taskNoticeMsg{Text: text, Kind: kind})
}

func (c chanSink) SetStatus(st router.Status) { c.push(statusMsg{Status: st}) }
