package router

import "agentconsole/internal/protocol"

// Placeholder texts of the chat and task panes.
const (
	ConnectingText      = "Connecting to agent..."
	TasksWaitingText    = "Waiting for connection..."
	TasksNotPlannedText = "No tasks planned yet."
	TasksPlanningText   = "Agent is planning tasks..."
	TasksEmptyText      = "No tasks defined for this request."
	TasksInvalidText    = "Error: Received invalid task data."
)

// FinalResultHeading starts every final response entry.
const FinalResultHeading = "**Final Result:**\n"

type EntryKind int

const (
	EntryActivity EntryKind = iota
	EntryUser
	EntryFinal
	EntryError
	EntryWarning
	EntryRaw
)

// Class is the CSS class of the rendered chat paragraph.
func (k EntryKind) Class() string {
	switch k {
	case EntryUser:
		return "user"
	case EntryFinal:
		return "agent-final"
	case EntryError:
		return "agent-error"
	case EntryWarning:
		return "agent-warning"
	case EntryRaw:
		return "agent-raw"
	default:
		return "agent-activity"
	}
}

func (k EntryKind) String() string {
	switch k {
	case EntryUser:
		return "user"
	case EntryFinal:
		return "final"
	case EntryError:
		return "error"
	case EntryWarning:
		return "warning"
	case EntryRaw:
		return "raw"
	default:
		return "activity"
	}
}

// Entry is one chat log line. Text is raw (unescaped); sinks render it.
type Entry struct {
	Kind     EntryKind
	Category protocol.Category
	Text     string
	// Placeholder entries are dropped as soon as a real entry arrives.
	Placeholder bool
}

type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusWarn
	StatusError
)

type Status struct {
	Text     string
	Level    StatusLevel
	Endpoint string
	LiveView string
}

// AppendEntry appends e to a chat log, dropping a lone placeholder first.
func AppendEntry(log []Entry, e Entry) []Entry {
	if len(log) == 1 && log[0].Placeholder {
		log = log[:0]
	}
	return append(log, e)
}
