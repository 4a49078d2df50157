package view

import (
	"strings"
	"sync"

	"agentconsole/internal/protocol"
	"agentconsole/internal/router"
)

// HTMLPane is a router.Sink that keeps the rendered state of the chat log,
// the task pane, the status banner and the latest final result.
type HTMLPane struct {
	mu      sync.Mutex
	entries []router.Entry
	tasks   string
	status  router.Status
	final   string
}

var _ router.Sink = (*HTMLPane)(nil)

func NewHTMLPane() *HTMLPane {
	return &HTMLPane{}
}

func (p *HTMLPane) AppendChat(e router.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = router.AppendEntry(p.entries, e)
	if e.Category == protocol.FinalResponse {
		p.final = strings.TrimPrefix(e.Text, router.FinalResultHeading)
	}
}

func (p *HTMLPane) ShowTasks(tasks []protocol.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = RenderTasks(tasks)
}

func (p *HTMLPane) ShowTaskNotice(text string, kind router.EntryKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = RenderTaskNotice(text, kind)
}

func (p *HTMLPane) SetStatus(s router.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

func (p *HTMLPane) ChatHTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	parts := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		parts = append(parts, RenderEntry(e))
	}
	return strings.Join(parts, "\n")
}

func (p *HTMLPane) TasksHTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks
}

func (p *HTMLPane) Status() router.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// FinalResult is the raw text of the latest final response.
func (p *HTMLPane) FinalResult() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.final
}

func (p *HTMLPane) Entries() []router.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]router.Entry(nil), p.entries...)
}
