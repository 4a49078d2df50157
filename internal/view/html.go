package view

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"agentconsole/internal/protocol"
	"agentconsole/internal/router"
)

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(\\w*)\\n(.*?)\\n?```")
	inlineCodeRe  = regexp.MustCompile("```(.+?)```")
	boldRe        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	statusClassRe = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// RenderText escapes text and then applies the small markup subset the
// agent uses: **bold**, fenced code blocks, ```inline code``` and line
// breaks. Escaping always happens first; only the tags introduced here can
// appear in the output.
func RenderText(text string) string {
	escaped := template.HTMLEscapeString(text)

	var b strings.Builder
	last := 0
	for _, m := range fencedBlockRe.FindAllStringSubmatchIndex(escaped, -1) {
		b.WriteString(renderInline(escaped[last:m[0]]))
		lang := escaped[m[2]:m[3]]
		if lang == "" {
			lang = "plaintext"
		}
		code := strings.TrimSpace(escaped[m[4]:m[5]])
		fmt.Fprintf(&b, `<pre><code class="language-%s">%s</code></pre>`, lang, code)
		last = m[1]
	}
	b.WriteString(renderInline(escaped[last:]))
	return b.String()
}

func renderInline(s string) string {
	s = inlineCodeRe.ReplaceAllString(s, "<code>$1</code>")
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// RenderEntry renders one chat log paragraph.
func RenderEntry(e router.Entry) string {
	return fmt.Sprintf(`<p class="message %s">%s</p>`, e.Kind.Class(), RenderText(e.Text))
}

// RenderTasks replaces the whole task pane. An empty list renders the
// "no tasks" placeholder.
func RenderTasks(tasks []protocol.Task) string {
	if len(tasks) == 0 {
		return RenderTaskNotice(router.TasksEmptyText, router.EntryActivity)
	}
	var b strings.Builder
	b.WriteString("<ol>")
	for _, t := range tasks {
		desc := t.Description
		if desc == "" {
			desc = "Unnamed Task"
		}
		fmt.Fprintf(&b, `<li class="status-%s">%s</li>`, statusClass(t.Status), template.HTMLEscapeString(desc))
	}
	b.WriteString("</ol>")
	return b.String()
}

func RenderTaskNotice(text string, kind router.EntryKind) string {
	return fmt.Sprintf(`<p class="message %s">%s</p>`, kind.Class(), template.HTMLEscapeString(text))
}

func statusClass(s protocol.TaskStatus) string {
	cls := statusClassRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(string(s))), "-")
	cls = strings.Trim(cls, "-")
	if cls == "" {
		return string(protocol.StatusPending)
	}
	return cls
}
