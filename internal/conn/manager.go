package conn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"agentconsole/internal/protocol"
)

const (
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectInterval    = 5 * time.Second
	defaultDialTimeout          = 15 * time.Second
	defaultMaxMessageBytes      = 4 << 20
)

var (
	ErrNotConnected     = errors.New("not connected to agent backend")
	ErrRetriesExhausted = errors.New("max reconnect attempts reached")
	ErrManagerClosed    = errors.New("connection manager is closed")
)

const closeReasonSuperseded = "superseded"

// Socket is the subset of *websocket.Conn the manager needs.
type Socket interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

var _ Socket = (*websocket.Conn)(nil)

type DialFunc func(ctx context.Context, url string) (Socket, error)

// Timer is a pending reconnect. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Handler receives lifecycle events. Calls are serialized and events of a
// superseded attempt are never delivered. Handler methods must not call
// back into the Manager.
type Handler interface {
	Opened(endpoint string)
	Message(line string)
	Status(n Notice)
}

type Options struct {
	URL                  string
	MaxReconnectAttempts int
	ReconnectInterval    time.Duration
	DialTimeout          time.Duration
	MaxMessageBytes      int64
	InsecureSkipVerify   bool
	Handler              Handler

	// Dial and AfterFunc default to websocket.Dial and time.AfterFunc.
	Dial      DialFunc
	AfterFunc func(d time.Duration, f func()) Timer

	Logf func(format string, args ...any)
}

// Manager owns at most one live socket to the agent backend and applies a
// bounded, fixed-delay reconnect policy. The close path is the only place
// that schedules reconnects; transport errors are reported and then handled
// as an abnormal close.
type Manager struct {
	url         string
	maxAttempts int
	interval    time.Duration
	dialTimeout time.Duration
	handler     Handler
	dial        DialFunc
	afterFunc   func(d time.Duration, f func()) Timer
	logf        func(format string, args ...any)

	mu      sync.Mutex
	state   State
	retries int
	gen     uint64
	sock    Socket
	cancel  context.CancelFunc
	timer   Timer

	writeMu sync.Mutex
	eventMu sync.Mutex
}

func NewManager(opts Options) (*Manager, error) {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return nil, errors.New("websocket url is required")
	}
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "ws://") && !strings.HasPrefix(lower, "wss://") {
		return nil, fmt.Errorf("websocket url must start with ws:// or wss://, got %q", url)
	}
	maxAttempts := opts.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxReconnectAttempts
	}
	interval := opts.ReconnectInterval
	if interval <= 0 {
		interval = DefaultReconnectInterval
	}
	dialTimeout := opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	maxMsg := opts.MaxMessageBytes
	if maxMsg <= 0 {
		maxMsg = defaultMaxMessageBytes
	}
	handler := opts.Handler
	if handler == nil {
		handler = nopHandler{}
	}
	dial := opts.Dial
	if dial == nil {
		dial = websocketDialer(opts.InsecureSkipVerify, maxMsg)
	}
	afterFunc := opts.AfterFunc
	if afterFunc == nil {
		afterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Manager{
		url:         url,
		maxAttempts: maxAttempts,
		interval:    interval,
		dialTimeout: dialTimeout,
		handler:     handler,
		dial:        dial,
		afterFunc:   afterFunc,
		logf:        logf,
		state:       Disconnected,
	}, nil
}

func websocketDialer(insecure bool, maxMsg int64) DialFunc {
	return func(ctx context.Context, url string) (Socket, error) {
		var dialOpts websocket.DialOptions
		if insecure && strings.HasPrefix(strings.ToLower(url), "wss://") {
			dialOpts.HTTPClient = &http.Client{
				Transport: &http.Transport{
					Proxy:           http.ProxyFromEnvironment,
					TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
				},
			}
		}
		c, _, err := websocket.Dial(ctx, url, &dialOpts)
		if err != nil {
			return nil, err
		}
		c.SetReadLimit(maxMsg)
		return c, nil
	}
}

func (m *Manager) URL() string {
	return m.url
}

func (m *Manager) MaxReconnectAttempts() int {
	return m.maxAttempts
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Retries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retries
}

// Connect starts a connection attempt, superseding any live socket or
// pending reconnect. It does not wait for the dial to finish.
func (m *Manager) Connect() error {
	m.mu.Lock()
	notices, start, err := m.connectLocked()
	gen := m.gen
	m.mu.Unlock()
	m.emit(gen, notices)
	if start != nil {
		start()
	}
	return err
}

// Reconnect is a manual retry: the retry count is reset first.
func (m *Manager) Reconnect() error {
	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.retries = 0
	notices, start, err := m.connectLocked()
	gen := m.gen
	m.mu.Unlock()
	m.emit(gen, notices)
	if start != nil {
		start()
	}
	return err
}

func (m *Manager) connectLocked() ([]Notice, func(), error) {
	if m.state == Closed {
		return nil, nil, ErrManagerClosed
	}
	m.stopTimerLocked()
	m.dropSocketLocked()
	m.gen++

	if m.retries >= m.maxAttempts {
		if m.state == Failed {
			return nil, nil, ErrRetriesExhausted
		}
		m.state = Failed
		m.logf("ws: giving up url=%s attempts=%d", m.url, m.maxAttempts)
		return []Notice{{Kind: NoticeFailed, Attempt: m.retries, Max: m.maxAttempts}}, nil, ErrRetriesExhausted
	}

	m.state = Connecting
	gen := m.gen
	attempt := m.retries + 1
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	notice := Notice{Kind: NoticeConnecting, Attempt: attempt, Max: m.maxAttempts}
	return []Notice{notice}, func() { go m.run(ctx, gen, attempt) }, nil
}

func (m *Manager) run(ctx context.Context, gen uint64, attempt int) {
	connID := uuid.NewString()
	m.logf("ws: dial conn_id=%s url=%s attempt=%d", connID, m.url, attempt)

	dialCtx, cancel := context.WithTimeout(ctx, m.dialTimeout)
	sock, err := m.dial(dialCtx, m.url)
	cancel()
	if err != nil {
		m.logf("ws: dial failed conn_id=%s err=%v", connID, err)
		m.handleDown(gen, connID, err)
		return
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		go func() { _ = sock.Close(websocket.StatusNormalClosure, closeReasonSuperseded) }()
		return
	}
	m.sock = sock
	m.state = Open
	m.retries = 0
	m.mu.Unlock()

	m.logf("ws: open conn_id=%s url=%s", connID, m.url)
	if !m.deliver(gen, func() { m.handler.Opened(m.url) }) {
		return
	}

	for {
		typ, data, err := sock.Read(ctx)
		if err != nil {
			m.handleDown(gen, connID, err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		line := string(data)
		if !m.deliver(gen, func() { m.handler.Message(line) }) {
			return
		}
	}
}

// handleDown is the single authority that decides whether a lost socket is
// retried.
func (m *Manager) handleDown(gen uint64, connID string, err error) {
	code := websocket.CloseStatus(err)

	m.mu.Lock()
	if m.gen != gen || m.state == Closed {
		m.mu.Unlock()
		return
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.sock = nil

	var notices []Notice
	if code == -1 {
		notices = append(notices, Notice{Kind: NoticeError, Err: err})
		code = websocket.StatusAbnormalClosure
	}
	// connectLocked never dials once retries reach the maximum, so a live
	// attempt always has a retry left.
	if !IsCleanClose(code) {
		m.retries++
		m.state = Connecting
		notices = append(notices, Notice{
			Kind:    NoticeReconnecting,
			Attempt: m.retries,
			Max:     m.maxAttempts,
			Code:    code,
			Delay:   m.interval,
			Err:     err,
		})
		m.timer = m.afterFunc(m.interval, func() { m.reconnectDue(gen) })
	} else {
		m.state = Disconnected
		notices = append(notices, Notice{Kind: NoticeClosed, Code: code})
	}
	retries := m.retries
	m.mu.Unlock()

	m.logf("ws: closed conn_id=%s code=%d retries=%d err=%v", connID, int(code), retries, err)
	m.emit(gen, notices)
}

func (m *Manager) reconnectDue(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || m.timer == nil {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	notices, start, _ := m.connectLocked()
	gen = m.gen
	m.mu.Unlock()
	m.emit(gen, notices)
	if start != nil {
		start()
	}
}

// Send writes one request frame. It fails with ErrNotConnected unless the
// connection is open.
func (m *Manager) Send(ctx context.Context, req protocol.Request) error {
	data, err := req.Marshal()
	if err != nil {
		return err
	}
	m.mu.Lock()
	sock := m.sock
	open := m.state == Open && sock != nil
	m.mu.Unlock()
	if !open {
		return ErrNotConnected
	}
	if ctx == nil {
		ctx = context.Background()
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := sock.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	m.logf("ws: sent bytes=%d", len(data))
	return nil
}

// Close tears the manager down: the pending reconnect is cleared and the
// socket is closed with a normal closure. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		return nil
	}
	m.gen++
	m.stopTimerLocked()
	sock := m.sock
	m.sock = nil
	cancel := m.cancel
	m.cancel = nil
	m.state = Closed
	m.mu.Unlock()

	if cancel != nil {
		defer cancel()
	}
	if sock != nil {
		_ = sock.Close(websocket.StatusNormalClosure, "bye")
	}
	return nil
}

func (m *Manager) isCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen == gen
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) dropSocketLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.sock != nil {
		sock := m.sock
		m.sock = nil
		go func() { _ = sock.Close(websocket.StatusNormalClosure, closeReasonSuperseded) }()
	}
}

func (m *Manager) emit(gen uint64, notices []Notice) {
	if len(notices) == 0 {
		return
	}
	m.deliver(gen, func() {
		for _, n := range notices {
			m.handler.Status(n)
		}
	})
}

// deliver runs fn unless gen has been superseded. The generation is checked
// under eventMu so a Connect racing with an older attempt cannot be
// followed by that attempt's events.
func (m *Manager) deliver(gen uint64, fn func()) bool {
	m.eventMu.Lock()
	defer m.eventMu.Unlock()
	if !m.isCurrent(gen) {
		return false
	}
	fn()
	return true
}

// IsCleanClose reports whether a close code marks an intentional shutdown.
func IsCleanClose(code websocket.StatusCode) bool {
	return code == websocket.StatusNormalClosure || code == websocket.StatusGoingAway
}

type nopHandler struct{}

func (nopHandler) Opened(string) {}
func (nopHandler) Message(string) {}
func (nopHandler) Status(Notice) {}
