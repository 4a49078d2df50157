package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"agentconsole/internal/protocol"
	"agentconsole/internal/router"
	"agentconsole/internal/view"
)

// Plain is the line-mode front end: stdin lines in, rendered lines out.
type Plain struct {
	mu         sync.Mutex
	out        io.Writer
	term       view.Terminal
	lastStatus string
	lastTasks  string
}

// NewPlain renders with colors only when color is set.
func NewPlain(out io.Writer, color bool) *Plain {
	t := view.Terminal{}
	if color {
		t = view.NewTerminal()
	}
	return &Plain{out: out, term: t}
}

var _ router.Sink = (*Plain)(nil)

func (p *Plain) AppendChat(e router.Entry) {
	p.writeLine(p.term.Entry(e))
}

func (p *Plain) ShowTasks(tasks []protocol.Task) {
	p.writeTasks(p.term.Tasks(tasks))
}

func (p *Plain) ShowTaskNotice(text string, kind router.EntryKind) {
	p.writeTasks(p.term.Notice(text, kind))
}

func (p *Plain) SetStatus(s router.Status) {
	line := "[status] " + p.term.Status(s)
	p.mu.Lock()
	defer p.mu.Unlock()
	if line == p.lastStatus {
		return
	}
	p.lastStatus = line
	fmt.Fprintln(p.out, line)
}

// writeTasks prints the task pane only when it changed.
func (p *Plain) writeTasks(body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if body == p.lastTasks {
		return
	}
	p.lastTasks = body
	fmt.Fprintln(p.out, "[tasks]")
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintln(p.out, "  "+line)
	}
}

func (p *Plain) writeLine(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

// Run starts the connection and submits each input line until EOF, /exit
// or ctx ends. The session is closed on return.
func (p *Plain) Run(ctx context.Context, sess *Session, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer sess.Close()
	sess.Start()

	lines := make(chan string)
	errCh := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
		errCh <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errCh
			}
			if sess.Submit(ctx, line) {
				return nil
			}
		}
	}
}
