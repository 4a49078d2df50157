package conn

import (
	"fmt"
	"time"

	"nhooyr.io/websocket"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Open
	// Closed means the manager was torn down with Close.
	Closed
	// Failed is terminal until a manual Reconnect.
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type NoticeKind int

const (
	// NoticeConnecting: a dial is starting. Attempt is 1-based.
	NoticeConnecting NoticeKind = iota
	// NoticeReconnecting: unclean close, one reconnect scheduled after Delay.
	// Attempt is the retry count after the increment.
	NoticeReconnecting
	// NoticeClosed: clean close (1000 or 1001), nothing scheduled.
	NoticeClosed
	// NoticeFailed: Connect refused because retries are exhausted.
	NoticeFailed
	// NoticeError: transport error. Informational only; the close that
	// follows decides about reconnecting.
	NoticeError
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeConnecting:
		return "connecting"
	case NoticeReconnecting:
		return "reconnecting"
	case NoticeClosed:
		return "closed"
	case NoticeFailed:
		return "failed"
	case NoticeError:
		return "error"
	default:
		return "unknown"
	}
}

type Notice struct {
	Kind    NoticeKind
	Attempt int
	Max     int
	Code    websocket.StatusCode
	Delay   time.Duration
	Err     error
}

func (n Notice) String() string {
	s := fmt.Sprintf("%s attempt=%d/%d", n.Kind, n.Attempt, n.Max)
	if n.Code != 0 {
		s += fmt.Sprintf(" code=%d", int(n.Code))
	}
	if n.Delay > 0 {
		s += " delay=" + n.Delay.String()
	}
	if n.Err != nil {
		s += " err=" + n.Err.Error()
	}
	return s
}
