package modelsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultModel   = "llama3:latest"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

var ErrNoModels = errors.New("models endpoint returned no models")

type Options struct {
	// URL is the full models endpoint, e.g. http://host:8000/api/models.
	URL        string
	HTTPClient *http.Client
	// Fallback is used whenever the endpoint cannot provide a list.
	// Defaults to [DefaultModel].
	Fallback []string
	Logf     func(format string, args ...any)
}

type Client struct {
	url      string
	http     *http.Client
	fallback []string
	logf     func(format string, args ...any)
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	fallback := cleanNames(opts.Fallback)
	if len(fallback) == 0 {
		fallback = []string{DefaultModel}
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Client{
		url:      strings.TrimSpace(opts.URL),
		http:     hc,
		fallback: fallback,
		logf:     logf,
	}
}

// Catalog is the model list offered to the user.
type Catalog struct {
	Models []string
	// Fallback is set when Models is the configured fallback list.
	Fallback bool
}

// Fetch always returns a usable catalog. The error, when non-nil, explains
// why the fallback list was used.
func (c *Client) Fetch(ctx context.Context) (Catalog, error) {
	models, err := c.fetch(ctx)
	if err != nil {
		c.logf("models fetch failed, using fallback %v: %v", c.fallback, err)
		return Catalog{Models: append([]string(nil), c.fallback...), Fallback: true}, err
	}
	c.logf("models fetched: %d", len(models))
	return Catalog{Models: models}, nil
}

type modelsResponse struct {
	Models []string `json:"models"`
}

func (c *Client) fetch(ctx context.Context) ([]string, error) {
	if c.url == "" {
		return nil, errors.New("models url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("models api error: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	var parsed modelsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}
	models := cleanNames(parsed.Models)
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	return models, nil
}

func cleanNames(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, name := range in {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
