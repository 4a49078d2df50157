package main

import (
	"flag"
	"time"

	"agentconsole/internal/config"
)

// consoleFlags are the chat options that can override the config file.
type consoleFlags struct {
	configPath        string
	pageURL           string
	agentPort         int
	wsPath            string
	liveViewPort      int
	model             string
	maxReconnect      int
	reconnectInterval time.Duration
	ui                string
	logFile           string
	insecure          bool
	init              bool
}

func (f *consoleFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "path to config.json (or .yaml)")
	fs.StringVar(&f.pageURL, "url", "", "backend page url")
	fs.IntVar(&f.agentPort, "agent-port", 0, "websocket port")
	fs.StringVar(&f.wsPath, "ws-path", "", "websocket path")
	fs.IntVar(&f.liveViewPort, "live-view-port", 0, "noVNC port")
	fs.StringVar(&f.model, "model", "", "preferred model for every field")
	fs.IntVar(&f.maxReconnect, "max-reconnect", 0, "reconnect attempts before giving up")
	fs.DurationVar(&f.reconnectInterval, "reconnect-interval", 0, "delay between reconnect attempts")
	fs.StringVar(&f.ui, "ui", "", "ui mode: auto, tui or plain")
	fs.StringVar(&f.logFile, "log-file", "", "log file path")
	fs.BoolVar(&f.insecure, "insecure-skip-verify", false, "skip TLS certificate verification for wss://")
	fs.BoolVar(&f.init, "init", false, "add a default console section to the config file, then exit")
}

// apply overrides cfg with the flags that were set explicitly.
func (f *consoleFlags) apply(fs *flag.FlagSet, cfg *config.ConsoleConfig) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "url":
			cfg.PageURL = f.pageURL
		case "agent-port":
			cfg.AgentPort = f.agentPort
		case "ws-path":
			cfg.WSPath = f.wsPath
		case "live-view-port":
			cfg.LiveViewPort = f.liveViewPort
		case "model":
			cfg.DefaultModel = f.model
		case "max-reconnect":
			if f.maxReconnect > 0 {
				cfg.MaxReconnectAttempts = f.maxReconnect
			}
		case "reconnect-interval":
			cfg.SetInterval(f.reconnectInterval)
		case "ui":
			cfg.UI = f.ui
		case "log-file":
			cfg.LogFile = f.logFile
		case "insecure-skip-verify":
			cfg.InsecureSkipVerify = f.insecure
		}
	})
}
