// Package consolelog writes kind-tagged, timestamped lines to a log file
// and, optionally, to the terminal.
package consolelog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"agentconsole/internal/util"
)

type Kind string

const (
	KindInfo  Kind = "INFO"
	KindWarn  Kind = "WARN"
	KindError Kind = "ERROR"
	KindWS    Kind = "WS"
	KindSend  Kind = "SEND"
	KindRecv  Kind = "RECV"
)

const timeLayout = "2006-01-02 15:04:05.000"

var kindStyles = map[Kind]lipgloss.Style{
	KindInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	KindWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	KindError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	KindWS:    lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	KindSend:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	KindRecv:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
}

type Options struct {
	File io.Writer
	Term io.Writer

	TermEnabled bool
	TermColor   bool
	// Now defaults to time.Now.
	Now func() time.Time
}

type Logger struct {
	mu sync.Mutex

	file io.Writer
	term io.Writer

	termEnabled bool
	termColor   bool
	now         func() time.Time
}

func New(opts Options) *Logger {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Logger{
		file:        opts.File,
		term:        opts.Term,
		termEnabled: opts.TermEnabled,
		termColor:   opts.TermColor,
		now:         now,
	}
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("log file path is required")
	}
	if err := util.EnsureParentDir(path); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.file.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// TermColorEnabled reports whether w is a color-capable terminal.
func TermColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	termEnv := strings.TrimSpace(os.Getenv("TERM"))
	if termEnv == "" || termEnv == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (l *Logger) Logf(kind Kind, format string, args ...any) {
	if l == nil {
		return
	}
	l.Log(kind, fmt.Sprintf(format, args...))
}

// Func adapts the logger to the Logf option used by conn, router and
// modelsapi.
func (l *Logger) Func(kind Kind) func(format string, args ...any) {
	return func(format string, args ...any) {
		l.Logf(kind, format, args...)
	}
}

func (l *Logger) Log(kind Kind, msg string) {
	if l == nil {
		return
	}
	text := strings.TrimRight(msg, "\n")
	if strings.TrimSpace(text) == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s] [%s] %s", l.now().Format(timeLayout), strings.TrimSpace(string(kind)), text)
	if l.file != nil {
		_, _ = io.WriteString(l.file, line+"\n")
	}
	if l.termEnabled && l.term != nil {
		if st, ok := kindStyles[kind]; ok && l.termColor {
			line = st.Render(line)
		}
		_, _ = io.WriteString(l.term, line+"\n")
	}
}

// Preview flattens raw to one line of at most max display cells.
func Preview(raw string, max int) string {
	if max <= 0 {
		return ""
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if runewidth.StringWidth(text) <= max {
		return text
	}
	const tail = " ... (truncated)"
	if max <= len(tail) {
		return runewidth.Truncate(text, max, "")
	}
	return runewidth.Truncate(text, max, tail)
}
