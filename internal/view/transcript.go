package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"
	"sync"
	"time"

	"agentconsole/internal/appinfo"
	"agentconsole/internal/util"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed transcript_template.html
var transcriptTemplateFS embed.FS

type transcriptData struct {
	AppDisplay string
	Status     string
	Endpoint   string
	LiveView   string
	Exported   string
	Tasks      template.HTML
	Final      template.HTML
	Chat       template.HTML
}

var (
	transcriptTemplateOnce sync.Once
	transcriptTemplate     *template.Template
	transcriptTemplateErr  error
)

func getTranscriptTemplate() (*template.Template, error) {
	transcriptTemplateOnce.Do(func() {
		b, err := transcriptTemplateFS.ReadFile("transcript_template.html")
		if err != nil {
			transcriptTemplateErr = err
			return
		}
		transcriptTemplate, transcriptTemplateErr = template.New("transcript_template.html").Parse(string(b))
	})
	return transcriptTemplate, transcriptTemplateErr
}

// Raw HTML in agent output is never passed through: goldmark's default
// renderer omits it unless WithUnsafe is set.
var finalMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

var finalMarkdownMu sync.Mutex

// RenderMarkdown renders a final result as full markdown. On conversion
// failure it falls back to an escaped <pre> block.
func RenderMarkdown(text string) string {
	body := strings.TrimSpace(text)
	if body == "" {
		return ""
	}
	var out bytes.Buffer
	finalMarkdownMu.Lock()
	err := finalMarkdown.Convert([]byte(body), &out)
	finalMarkdownMu.Unlock()
	if err != nil {
		return "<pre>" + template.HTMLEscapeString(body) + "</pre>"
	}
	return out.String()
}

// WriteTranscript renders the pane as a standalone HTML page.
func WriteTranscript(w io.Writer, p *HTMLPane, now time.Time) error {
	tmpl, err := getTranscriptTemplate()
	if err != nil {
		return err
	}
	st := p.Status()
	data := transcriptData{
		AppDisplay: appinfo.Display(),
		Status:     st.Text,
		Endpoint:   st.Endpoint,
		LiveView:   st.LiveView,
		Exported:   now.UTC().Format(time.RFC3339),
		Tasks:      template.HTML(p.TasksHTML()),
		Final:      template.HTML(RenderMarkdown(p.FinalResult())),
		Chat:       template.HTML(p.ChatHTML()),
	}
	if data.Status == "" {
		data.Status = "Disconnected"
	}
	return tmpl.Execute(w, data)
}

// SaveTranscript writes the transcript page to path, creating parent
// directories as needed.
func SaveTranscript(path string, p *HTMLPane) error {
	var buf bytes.Buffer
	if err := WriteTranscript(&buf, p, time.Now()); err != nil {
		return err
	}
	return util.WriteFileAtomic(strings.TrimSpace(path), buf.Bytes(), 0o644)
}
