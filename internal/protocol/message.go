package protocol

import "strings"

// Prefix markers of the agent backend's line protocol. Order matters: the
// task update marker is checked first, and "Agent: Final Response:" must be
// checked before the generic "Agent: " marker.
const (
	PrefixTaskUpdate    = "Agent Task Update:"
	PrefixFinalResponse = "Agent: Final Response:"
	PrefixError         = "Agent Error:"
	PrefixWarning       = "Agent Warning:"
	PrefixActivity      = "Agent: "
)

type Category int

const (
	Unclassified Category = iota
	FinalResponse
	ErrorNotice
	WarningNotice
	ActivityNotice
	TaskListUpdate
)

func (c Category) String() string {
	switch c {
	case FinalResponse:
		return "final"
	case ErrorNotice:
		return "error"
	case WarningNotice:
		return "warning"
	case ActivityNotice:
		return "activity"
	case TaskListUpdate:
		return "task_update"
	default:
		return "unclassified"
	}
}

// Message is one decoded inbound line.
type Message struct {
	Category Category
	Raw      string
	// Text is the payload with the marker stripped and surrounding space
	// trimmed. For Unclassified lines it is the raw line.
	Text string
	// Tasks and TaskErr are only set for TaskListUpdate.
	Tasks   []Task
	TaskErr error
}

type prefixRule struct {
	prefix   string
	category Category
}

var prefixRules = []prefixRule{
	{PrefixTaskUpdate, TaskListUpdate},
	{PrefixFinalResponse, FinalResponse},
	{PrefixError, ErrorNotice},
	{PrefixWarning, WarningNotice},
	{PrefixActivity, ActivityNotice},
}

// Decode classifies a line. Every line maps to exactly one category.
func Decode(line string) Message {
	for _, rule := range prefixRules {
		if !strings.HasPrefix(line, rule.prefix) {
			continue
		}
		msg := Message{
			Category: rule.category,
			Raw:      line,
			Text:     strings.TrimSpace(line[len(rule.prefix):]),
		}
		if rule.category == TaskListUpdate {
			msg.Tasks, msg.TaskErr = ParseTasks(msg.Text)
		}
		return msg
	}
	return Message{Category: Unclassified, Raw: line, Text: line}
}
