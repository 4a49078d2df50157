package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"agentconsole/internal/endpoint"
	"agentconsole/internal/modelsapi"
	"agentconsole/internal/protocol"
	"agentconsole/internal/util"
)

const (
	DefaultPath       = "config.json"
	DefaultPageURL    = "http://localhost:8000"
	DefaultLogFile    = ".agentconsole/console.log"
	DefaultUI         = "auto"
	sectionName       = "console"
	defaultMaxRetries = 5
	defaultInterval   = 5 * time.Second
)

// ConsoleConfig is the "console" section of config.json (or config.yaml).
type ConsoleConfig struct {
	PageURL              string   `json:"page_url" yaml:"page_url"`
	AgentPort            int      `json:"agent_port" yaml:"agent_port"`
	WSPath               string   `json:"ws_path" yaml:"ws_path"`
	LiveViewPort         int      `json:"live_view_port" yaml:"live_view_port"`
	MaxReconnectAttempts int      `json:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
	ReconnectInterval    string   `json:"reconnect_interval" yaml:"reconnect_interval"`
	DefaultModel         string   `json:"default_model" yaml:"default_model"`
	ModelFields          []string `json:"model_fields" yaml:"model_fields"`
	LogFile              string   `json:"log_file" yaml:"log_file"`
	UI                   string   `json:"ui" yaml:"ui"`
	InsecureSkipVerify   bool     `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`

	interval time.Duration
}

func Default() ConsoleConfig {
	var c ConsoleConfig
	_ = c.applyDefaults()
	return c
}

// Load reads the console section from path. A missing file at the default
// path yields defaults; a missing file that was asked for explicitly is an
// error.
func Load(path string) (ConsoleConfig, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return ConsoleConfig{}, err
	}

	var cfg ConsoleConfig
	if isYAML(path) {
		err = decodeYAMLSection(data, &cfg)
	} else {
		err = decodeJSONSection(data, &cfg)
	}
	if err != nil {
		return ConsoleConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return ConsoleConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func decodeJSONSection(data []byte, cfg *ConsoleConfig) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if raw, ok := root[sectionName]; ok && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("parse config.%s: %w", sectionName, err)
		}
	}
	return nil
}

func decodeYAMLSection(data []byte, cfg *ConsoleConfig) error {
	var root map[string]yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if node, ok := root[sectionName]; ok {
		if err := node.Decode(cfg); err != nil {
			return fmt.Errorf("parse config.%s: %w", sectionName, err)
		}
	}
	return nil
}

func (c *ConsoleConfig) applyDefaults() error {
	c.PageURL = strings.TrimSpace(c.PageURL)
	if c.PageURL == "" {
		c.PageURL = DefaultPageURL
	}
	if c.AgentPort < 0 || c.AgentPort > 65535 {
		return fmt.Errorf("agent_port %d out of range", c.AgentPort)
	}
	if c.AgentPort == 0 {
		c.AgentPort = endpoint.DefaultAgentPort
	}
	if c.LiveViewPort < 0 || c.LiveViewPort > 65535 {
		return fmt.Errorf("live_view_port %d out of range", c.LiveViewPort)
	}
	if c.LiveViewPort == 0 {
		c.LiveViewPort = endpoint.DefaultLiveViewPort
	}
	c.WSPath = strings.TrimSpace(c.WSPath)
	if c.WSPath == "" {
		c.WSPath = endpoint.DefaultWSPath
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = defaultMaxRetries
	}
	c.interval = defaultInterval
	if s := strings.TrimSpace(c.ReconnectInterval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("reconnect_interval: %w", err)
		}
		if d <= 0 {
			return errors.New("reconnect_interval must be positive")
		}
		c.interval = d
	}
	c.ReconnectInterval = c.interval.String()
	c.DefaultModel = strings.TrimSpace(c.DefaultModel)
	if c.DefaultModel == "" {
		c.DefaultModel = modelsapi.DefaultModel
	}
	if len(c.ModelFields) == 0 {
		c.ModelFields = append([]string(nil), modelsapi.DefaultFields...)
	}
	for _, f := range c.ModelFields {
		if strings.TrimSpace(f) == protocol.FieldQuery {
			return fmt.Errorf("model_fields must not contain %q", protocol.FieldQuery)
		}
	}
	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = DefaultLogFile
	}
	c.UI = strings.ToLower(strings.TrimSpace(c.UI))
	if c.UI == "" {
		c.UI = DefaultUI
	}
	switch c.UI {
	case "auto", "tui", "plain":
	default:
		return fmt.Errorf("ui %q must be auto, tui or plain", c.UI)
	}
	return nil
}

// Normalize validates c and fills defaults again, e.g. after flag
// overrides.
func (c *ConsoleConfig) Normalize() error {
	return c.applyDefaults()
}

// Endpoint returns the options endpoint.Derive needs.
func (c ConsoleConfig) Endpoint() endpoint.Options {
	return endpoint.Options{
		PageURL:      c.PageURL,
		AgentPort:    c.AgentPort,
		WSPath:       c.WSPath,
		LiveViewPort: c.LiveViewPort,
	}
}

// Interval is the parsed reconnect delay.
func (c ConsoleConfig) Interval() time.Duration {
	if c.interval <= 0 {
		return defaultInterval
	}
	return c.interval
}

// SetInterval overrides the reconnect delay, e.g. from a flag.
func (c *ConsoleConfig) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	c.interval = d
	c.ReconnectInterval = d.String()
}

// WriteDefault adds a default console section to the JSON config at path,
// creating the file when needed. Other sections are preserved. It reports
// whether anything was written.
func WriteDefault(path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	if isYAML(path) {
		return false, errors.New("init only supports JSON config files")
	}
	root := make(map[string]any)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &root); err != nil {
			return false, fmt.Errorf("parse config: %w", err)
		}
		if _, ok := root[sectionName]; ok {
			return false, nil
		}
	case os.IsNotExist(err):
	default:
		return false, err
	}
	root[sectionName] = Default()

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return false, err
	}
	out = append(out, '\n')

	if err := util.WriteFileAtomic(path, out, 0o600); err != nil {
		return false, err
	}
	return true, nil
}
