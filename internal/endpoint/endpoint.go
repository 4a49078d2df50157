// Package endpoint derives the backend addresses from the URL of the page
// (or backend origin) the console is pointed at.
package endpoint

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultAgentPort    = 8000
	DefaultWSPath       = "/ws"
	DefaultModelsPath   = "/api/models"
	DefaultLiveViewPort = 6080
)

type Endpoints struct {
	// WebSocket is {ws|wss}://{page-host}:{agent-port}{ws-path}.
	WebSocket string
	// Models is the model list endpoint on the page origin.
	Models string
	// LiveView is the noVNC page of the agent's browser session.
	LiveView string
}

type Options struct {
	PageURL      string
	AgentPort    int
	WSPath       string
	LiveViewPort int
}

func Derive(opts Options) (Endpoints, error) {
	page, err := parsePageURL(opts.PageURL)
	if err != nil {
		return Endpoints{}, err
	}
	host := page.Hostname()
	if host == "" {
		return Endpoints{}, fmt.Errorf("page url %q has no host", opts.PageURL)
	}

	agentPort := opts.AgentPort
	if agentPort <= 0 {
		agentPort = DefaultAgentPort
	}
	vncPort := opts.LiveViewPort
	if vncPort <= 0 {
		vncPort = DefaultLiveViewPort
	}
	wsPath := strings.TrimSpace(opts.WSPath)
	if wsPath == "" {
		wsPath = DefaultWSPath
	}
	if !strings.HasPrefix(wsPath, "/") {
		wsPath = "/" + wsPath
	}

	scheme := "ws"
	if page.Scheme == "https" {
		scheme = "wss"
	}
	ws := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(agentPort)),
		Path:   wsPath,
	}
	models := url.URL{
		Scheme: page.Scheme,
		Host:   page.Host,
		Path:   DefaultModelsPath,
	}
	live := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(host, strconv.Itoa(vncPort)),
		Path:     "/vnc.html",
		RawQuery: "autoconnect=true&resize=scale&path=websockify",
	}
	return Endpoints{
		WebSocket: ws.String(),
		Models:    models.String(),
		LiveView:  live.String(),
	}, nil
}

func parsePageURL(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("page url is required")
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("page url scheme must be http or https, got %q", u.Scheme)
	}
	return u, nil
}
