package router

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"agentconsole/internal/conn"
	"agentconsole/internal/protocol"
)

// Sink is a display target. The router serializes all calls.
type Sink interface {
	AppendChat(e Entry)
	ShowTasks(tasks []protocol.Task)
	ShowTaskNotice(text string, kind EntryKind)
	SetStatus(s Status)
}

const (
	corruptTaskUpdateText = "Agent Error: Corrupted task update received."
	workflowComplete      = "Workflow complete"
	workflowFinished      = "Workflow finished"
)

type Options struct {
	// LiveViewURL is shown in the status line once the connection opens.
	LiveViewURL string
	Logf        func(format string, args ...any)
}

// Router turns connection events and inbound lines into sink updates. It
// implements conn.Handler but never touches the connection itself.
type Router struct {
	sink     Sink
	liveView string
	logf     func(format string, args ...any)

	mu       sync.Mutex
	lastChat string
}

var _ conn.Handler = (*Router)(nil)

func New(sink Sink, opts Options) *Router {
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Router{
		sink:     sink,
		liveView: strings.TrimSpace(opts.LiveViewURL),
		logf:     logf,
	}
}

func (r *Router) Opened(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(Entry{Kind: EntryActivity, Text: "Connected to agent backend. Ready for input."})
	r.sink.ShowTaskNotice(TasksNotPlannedText, EntryActivity)
	r.sink.SetStatus(Status{Text: "Connected", Level: StatusInfo, Endpoint: endpoint, LiveView: r.liveView})
}

func (r *Router) Message(line string) {
	r.Dispatch(protocol.Decode(line))
}

// Dispatch renders one decoded line. Task updates never reach the chat log.
func (r *Router) Dispatch(msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logf("recv category=%s bytes=%d", msg.Category, len(msg.Raw))

	switch msg.Category {
	case protocol.TaskListUpdate:
		switch {
		case msg.TaskErr == nil:
			r.sink.ShowTasks(msg.Tasks)
		case errors.Is(msg.TaskErr, protocol.ErrInvalidTaskData):
			r.sink.ShowTaskNotice(TasksInvalidText, EntryError)
		default:
			r.logf("task update rejected: %v", msg.TaskErr)
			r.appendLocked(Entry{Kind: EntryError, Category: msg.Category, Text: corruptTaskUpdateText})
		}
	case protocol.FinalResponse:
		r.appendLocked(Entry{Kind: EntryFinal, Category: msg.Category, Text: FinalResultHeading + msg.Text})
	case protocol.ErrorNotice:
		r.appendLocked(Entry{Kind: EntryError, Category: msg.Category, Text: "Error: " + msg.Text})
	case protocol.WarningNotice:
		r.appendLocked(Entry{Kind: EntryWarning, Category: msg.Category, Text: "Warning: " + msg.Text})
	case protocol.ActivityNotice:
		if isWorkflowDone(msg.Text) && isWorkflowDone(r.lastChat) {
			return
		}
		r.appendLocked(Entry{Kind: EntryActivity, Category: msg.Category, Text: msg.Text})
	default:
		r.appendLocked(Entry{Kind: EntryRaw, Category: protocol.Unclassified, Text: "Raw Message: " + msg.Raw})
	}
}

func (r *Router) Status(n conn.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logf("status %s", n)

	switch n.Kind {
	case conn.NoticeConnecting:
		if n.Attempt <= 1 {
			r.appendLocked(Entry{Kind: EntryActivity, Text: ConnectingText, Placeholder: true})
			r.sink.ShowTaskNotice(TasksWaitingText, EntryActivity)
		}
		r.sink.SetStatus(Status{Text: fmt.Sprintf("Connecting... (Attempt %d)", n.Attempt), Level: StatusWarn})
	case conn.NoticeReconnecting:
		r.appendLocked(Entry{Kind: EntryError, Text: fmt.Sprintf("Connection closed. Reconnecting... (%d/%d)", n.Attempt, n.Max)})
		r.sink.SetStatus(Status{Text: "Reconnecting...", Level: StatusWarn})
	case conn.NoticeClosed:
		r.appendLocked(Entry{Kind: EntryActivity, Text: "Connection closed."})
		r.sink.SetStatus(Status{Text: "Disconnected", Level: StatusWarn})
	case conn.NoticeFailed:
		r.appendLocked(Entry{Kind: EntryError, Text: "Error: Could not connect to agent backend. Max reconnect attempts reached. Please check the server and reconnect."})
		r.sink.SetStatus(Status{Text: "Connection Failed", Level: StatusError})
	case conn.NoticeError:
		r.appendLocked(Entry{Kind: EntryError, Text: "WebSocket error occurred. Check the log for details."})
		r.sink.SetStatus(Status{Text: "Connection Error", Level: StatusError})
	}
}

// UserSent records a request that was written to the socket.
func (r *Router) UserSent(modelLabel, query string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	label := strings.TrimSpace(modelLabel)
	if label == "" {
		r.appendLocked(Entry{Kind: EntryUser, Text: "You: " + query})
	} else {
		r.appendLocked(Entry{Kind: EntryUser, Text: fmt.Sprintf("You (%s): %s", label, query)})
	}
	r.sink.ShowTaskNotice(TasksPlanningText, EntryActivity)
	r.appendLocked(Entry{Kind: EntryActivity, Text: "Agent: Processing request..."})
}

// SendFailed reports a request that could not be sent.
func (r *Router) SendFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil || errors.Is(err, conn.ErrNotConnected) {
		r.appendLocked(Entry{Kind: EntryError, Text: "Error: Not connected to agent backend. Cannot send message."})
		r.sink.SetStatus(Status{Text: "Disconnected - Cannot Send", Level: StatusError})
		return
	}
	r.appendLocked(Entry{Kind: EntryError, Text: "Error: " + err.Error()})
}

// Note appends a local informational line, e.g. the result of a command.
func (r *Router) Note(kind EntryKind, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(Entry{Kind: kind, Text: text})
}

func (r *Router) appendLocked(e Entry) {
	r.sink.AppendChat(e)
	if !e.Placeholder {
		r.lastChat = e.Text
	}
}

func isWorkflowDone(text string) bool {
	return strings.Contains(text, workflowComplete) || strings.Contains(text, workflowFinished)
}
