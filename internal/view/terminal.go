package view

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"agentconsole/internal/protocol"
	"agentconsole/internal/router"
)

// Terminal renders entries, tasks and statuses as styled terminal text using
// the same markup subset as RenderText. A zero Terminal renders without
// colors.
type Terminal struct {
	Bold     lipgloss.Style
	Code     lipgloss.Style
	Kinds    map[router.EntryKind]lipgloss.Style
	Statuses map[protocol.TaskStatus]lipgloss.Style
	Levels   map[router.StatusLevel]lipgloss.Style
}

func NewTerminal() Terminal {
	return Terminal{
		Bold: lipgloss.NewStyle().Bold(true),
		Code: lipgloss.NewStyle().Foreground(lipgloss.Color("180")),
		Kinds: map[router.EntryKind]lipgloss.Style{
			router.EntryActivity: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			router.EntryUser:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
			router.EntryFinal:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			router.EntryError:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			router.EntryWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			router.EntryRaw:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		},
		Statuses: map[protocol.TaskStatus]lipgloss.Style{
			protocol.StatusRunning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
			protocol.StatusDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			protocol.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		},
		Levels: map[router.StatusLevel]lipgloss.Style{
			router.StatusInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			router.StatusWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			router.StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		},
	}
}

// Text strips the markup markers and styles the spans they delimited.
func (t Terminal) Text(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range fencedBlockRe.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(t.inline(text[last:m[0]]))
		code := strings.TrimSpace(text[m[4]:m[5]])
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
		for i, line := range strings.Split(code, "\n") {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("  " + t.Code.Render(line))
		}
		last = m[1]
	}
	b.WriteString(t.inline(text[last:]))
	return b.String()
}

func (t Terminal) inline(s string) string {
	s = inlineCodeRe.ReplaceAllStringFunc(s, func(m string) string {
		return t.Code.Render(inlineCodeRe.FindStringSubmatch(m)[1])
	})
	return boldRe.ReplaceAllStringFunc(s, func(m string) string {
		return t.Bold.Render(boldRe.FindStringSubmatch(m)[1])
	})
}

func (t Terminal) Entry(e router.Entry) string {
	text := t.Text(e.Text)
	if st, ok := t.Kinds[e.Kind]; ok {
		return st.Render(text)
	}
	return text
}

func (t Terminal) Tasks(tasks []protocol.Task) string {
	if len(tasks) == 0 {
		return t.Notice(router.TasksEmptyText, router.EntryActivity)
	}
	lines := make([]string, 0, len(tasks))
	for i, task := range tasks {
		desc := task.Description
		if desc == "" {
			desc = "Unnamed Task"
		}
		line := strings.Join([]string{strconv.Itoa(i+1) + ".", "[" + string(task.Status) + "]", desc}, " ")
		if st, ok := t.Statuses[task.Status]; ok {
			line = st.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (t Terminal) Notice(text string, kind router.EntryKind) string {
	if st, ok := t.Kinds[kind]; ok {
		return st.Render(text)
	}
	return text
}

func (t Terminal) Status(s router.Status) string {
	text := s.Text
	if st, ok := t.Levels[s.Level]; ok {
		text = st.Render(text)
	}
	if s.LiveView != "" {
		text += "  live view: " + s.LiveView
	}
	return text
}
