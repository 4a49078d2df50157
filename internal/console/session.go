package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"agentconsole/internal/consolelog"
	"agentconsole/internal/modelsapi"
	"agentconsole/internal/protocol"
	"agentconsole/internal/router"
	"agentconsole/internal/view"
)

// Connector is the connection manager as seen by the front ends.
type Connector interface {
	Connect() error
	Reconnect() error
	Send(ctx context.Context, req protocol.Request) error
	Close() error
}

type SessionOptions struct {
	Conn      Connector
	Router    *router.Router
	Selection *modelsapi.Selection
	Catalog   modelsapi.Catalog
	// Pane backs /save.
	Pane *view.HTMLPane
	Log  *consolelog.Logger
}

// Session executes user input for either front end. Submit calls are
// serialized so requests reach the socket in input order.
type Session struct {
	submitMu sync.Mutex

	conn      Connector
	router    *router.Router
	selection *modelsapi.Selection
	catalog   modelsapi.Catalog
	pane      *view.HTMLPane
	log       *consolelog.Logger
}

func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Conn == nil {
		return nil, errors.New("connector is required")
	}
	if opts.Router == nil {
		return nil, errors.New("router is required")
	}
	sel := opts.Selection
	if sel == nil {
		sel = modelsapi.NewSelection(nil, opts.Catalog, "")
	}
	pane := opts.Pane
	if pane == nil {
		pane = view.NewHTMLPane()
	}
	return &Session{
		conn:      opts.Conn,
		router:    opts.Router,
		selection: sel,
		catalog:   opts.Catalog,
		pane:      pane,
		log:       opts.Log,
	}, nil
}

func (s *Session) Start() {
	if err := s.conn.Connect(); err != nil {
		s.log.Logf(consolelog.KindError, "connect: %v", err)
	}
}

func (s *Session) Reconnect() {
	s.log.Log(consolelog.KindInfo, "manual reconnect")
	if err := s.conn.Reconnect(); err != nil {
		s.log.Logf(consolelog.KindError, "reconnect: %v", err)
		s.router.Note(router.EntryError, "Error: "+err.Error())
	}
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// Submit handles one line of input and reports whether the user asked to
// quit.
func (s *Session) Submit(ctx context.Context, input string) (quit bool) {
	if strings.TrimSpace(input) == "" {
		return false
	}
	s.submitMu.Lock()
	defer s.submitMu.Unlock()
	cmd, err := ParseCommand(input)
	if err != nil {
		s.router.Note(router.EntryWarning, err.Error())
		return false
	}
	switch cmd.Kind {
	case CommandSend:
		s.send(ctx, cmd.Text)
	case CommandModels:
		s.router.Note(router.EntryActivity, s.modelsText())
	case CommandSetModel:
		if err := s.selection.Set(cmd.Field, cmd.Model); err != nil {
			s.router.Note(router.EntryWarning, err.Error())
			return false
		}
		s.log.Logf(consolelog.KindInfo, "model %s=%s", cmd.Field, cmd.Model)
		s.router.Note(router.EntryActivity, fmt.Sprintf("Model for %s set to %s.", cmd.Field, cmd.Model))
	case CommandSave:
		if err := view.SaveTranscript(cmd.Path, s.pane); err != nil {
			s.log.Logf(consolelog.KindError, "save transcript: %v", err)
			s.router.Note(router.EntryError, "Error: save transcript: "+err.Error())
			return false
		}
		s.router.Note(router.EntryActivity, "Transcript saved to "+cmd.Path)
	case CommandReconnect:
		s.Reconnect()
	case CommandHelp:
		s.router.Note(router.EntryActivity, helpText)
	case CommandExit:
		return true
	}
	return false
}

func (s *Session) send(ctx context.Context, text string) {
	req, err := protocol.NewRequest(text, s.selection.Map())
	if err != nil {
		if !errors.Is(err, protocol.ErrEmptyQuery) {
			s.router.Note(router.EntryWarning, err.Error())
		}
		return
	}
	if err := s.conn.Send(ctx, req); err != nil {
		s.log.Logf(consolelog.KindError, "send: %v", err)
		s.router.SendFailed(err)
		return
	}
	s.log.Logf(consolelog.KindSend, "%s", consolelog.Preview(req.Query, 200))
	s.router.UserSent(s.selection.Label(), req.Query)
}

func (s *Session) modelsText() string {
	var b strings.Builder
	b.WriteString("Models: " + s.selection.String())
	b.WriteString("\nAvailable: " + strings.Join(s.catalog.Models, ", "))
	if s.catalog.Fallback {
		b.WriteString(" (fallback)")
	}
	return b.String()
}
