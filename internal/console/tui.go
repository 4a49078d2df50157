package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"agentconsole/internal/appinfo"
	"agentconsole/internal/router"
	"agentconsole/internal/view"
)

const (
	tuiEventBuffer = 512
	tuiHint        = "Enter: send | Ctrl+R: reconnect | PgUp/PgDn: scroll | Esc: quit | /help"
)

// TUI is the full-screen front end. Create it before the router so its
// Sink can be handed to router.New.
type TUI struct {
	events    chan asyncMsg
	done      chan struct{}
	closeOnce sync.Once
	term      view.Terminal
}

func NewTUI() *TUI {
	return &TUI{
		events: make(chan asyncMsg, tuiEventBuffer),
		done:   make(chan struct{}),
		term:   view.NewTerminal(),
	}
}

func (t *TUI) Sink() router.Sink {
	return chanSink{events: t.events, done: t.done}
}

// Run starts the connection and blocks until the user quits or ctx ends.
// The session is closed on return.
func (t *TUI) Run(ctx context.Context, sess *Session, in io.Reader, out io.Writer) error {
	if f, ok := out.(*os.File); ok {
		if !term.IsTerminal(int(f.Fd())) {
			return fmt.Errorf("stdout is not a TTY; use --ui=plain")
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer t.closeOnce.Do(func() { close(t.done) })
	defer sess.Close()

	prog := tea.NewProgram(
		newTUIModel(ctx, sess, t.events, t.term),
		tea.WithAltScreen(),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			prog.Quit()
		case <-stop:
		}
	}()
	_, err := prog.Run()
	return err
}

type tuiModel struct {
	ctx     context.Context
	session *Session
	events  chan asyncMsg
	term    view.Terminal

	width  int
	height int

	entries []router.Entry
	tasks   string
	status  router.Status

	input         textinput.Model
	viewport      viewport.Model
	stickToBottom bool
	busy          bool
}

type tuiStartMsg struct{}

type tuiSubmitDoneMsg struct {
	Quit bool
}

func newTUIModel(ctx context.Context, sess *Session, events chan asyncMsg, t view.Terminal) tuiModel {
	inp := textinput.New()
	inp.Placeholder = "Ask the agent…"
	inp.Prompt = "› "
	inp.CharLimit = 0
	inp.Focus()

	vp := viewport.New(0, 0)
	vp.SetContent("")

	return tuiModel{
		ctx:           ctx,
		session:       sess,
		events:        events,
		term:          t,
		tasks:         t.Notice(router.TasksWaitingText, router.EntryActivity),
		status:        router.Status{Text: "Disconnected", Level: router.StatusWarn},
		input:         inp,
		viewport:      vp,
		stickToBottom: true,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		startCmd(m.session),
		waitAsyncCmd(m.events),
	)
}

func startCmd(sess *Session) tea.Cmd {
	return func() tea.Msg {
		if sess != nil {
			sess.Start()
		}
		return tuiStartMsg{}
	}
}

func waitAsyncCmd(ch <-chan asyncMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func submitCmd(ctx context.Context, sess *Session, text string) tea.Cmd {
	return func() tea.Msg {
		return tuiSubmitDoneMsg{Quit: sess.Submit(ctx, text)}
	}
}

func reconnectCmd(sess *Session) tea.Cmd {
	return func() tea.Msg {
		sess.Reconnect()
		return nil
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.rerender()
		return m, nil
	case asyncMsg:
		m.handleAsyncEvent(msg.Event)
		m.rerender()
		return m, waitAsyncCmd(m.events)
	case tuiSubmitDoneMsg:
		m.busy = false
		if msg.Quit {
			return m, tea.Quit
		}
		return m, nil
	case tuiStartMsg:
		return m, nil
	case tea.KeyMsg:
		if handled, cmd := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) handleAsyncEvent(evt any) {
	switch msg := evt.(type) {
	case chatMsg:
		m.entries = router.AppendEntry(m.entries, msg.Entry)
	case tasksMsg:
		m.tasks = m.term.Tasks(msg.Tasks)
	case taskNoticeMsg:
		m.tasks = m.term.Notice(msg.Text, msg.Kind)
	case statusMsg:
		m.status = msg.Status
	}
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return true, tea.Quit
	case "ctrl+r":
		return true, reconnectCmd(m.session)
	case "enter":
		return true, m.submitInput()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.stickToBottom = m.viewport.AtBottom()
		return true, cmd
	case "ctrl+l":
		m.stickToBottom = true
		m.rerender()
		return true, nil
	}
	return false, nil
}

// submitInput runs one input line. Input stays in the box while the
// previous line is still being handled.
func (m *tuiModel) submitInput() tea.Cmd {
	if m.busy {
		return nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	m.input.Reset()
	m.stickToBottom = true
	m.busy = true
	return submitCmd(m.ctx, m.session, text)
}

func (m tuiModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	chatW, taskW := m.paneWidths()
	bodyH := m.bodyHeight()

	header := m.renderHeader(m.width)
	chat := lipgloss.NewStyle().Width(chatW).Height(bodyH).Render(m.viewport.View())
	tasks := m.renderTasks(taskW, bodyH)
	body := lipgloss.JoinHorizontal(lipgloss.Top, chat, tasks)
	input := m.renderInputLine(m.width)
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(fitWidth(tuiHint, m.width))
	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, hint)
}

func (m *tuiModel) paneWidths() (chatW int, taskW int) {
	taskW = clamp(24, m.width/3, 48)
	if m.width < 60 {
		taskW = 0
	}
	chatW = max(0, m.width-taskW)
	return chatW, taskW
}

// header (2) + input (1) + hint (1)
func (m *tuiModel) bodyHeight() int {
	return max(0, m.height-4)
}

func (m *tuiModel) resize() {
	chatW, _ := m.paneWidths()
	m.viewport.Width = max(0, chatW-1)
	m.viewport.Height = m.bodyHeight()
}

func (m *tuiModel) rerender() {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	blocks := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		blocks = append(blocks, wrapText(m.term.Entry(e), width))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n"))
	if m.stickToBottom {
		m.viewport.GotoBottom()
	}
}

func (m *tuiModel) renderHeader(width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Render(appinfo.Display())
	line1 := title + "  " + m.term.Status(router.Status{Text: m.status.Text, Level: m.status.Level})
	var details []string
	if m.status.Endpoint != "" {
		details = append(details, "agent: "+m.status.Endpoint)
	}
	if m.status.LiveView != "" {
		details = append(details, "live view: "+m.status.LiveView)
	}
	line2 := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(fitWidth(strings.Join(details, "  "), width))
	return lipgloss.NewStyle().MaxWidth(width).Render(line1) + "\n" + line2
}

func (m *tuiModel) renderTasks(width int, height int) string {
	if width <= 0 {
		return ""
	}
	style := lipgloss.NewStyle().
		Width(width - 1).
		Height(height).
		BorderLeft(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("8")).
		PaddingLeft(1)
	title := lipgloss.NewStyle().Bold(true).Render("Tasks")
	return style.Render(title + "\n\n" + wrapText(m.tasks, max(10, width-3)))
}

func (m *tuiModel) renderInputLine(width int) string {
	m.input.Width = max(10, width-4)
	return lipgloss.NewStyle().Width(width).Padding(0, 1).Render(m.input.View())
}

// fitWidth truncates plain text to width display cells.
func fitWidth(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func wrapText(text string, width int) string {
	if width <= 10 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func clamp(lo, v, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
