package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"agentconsole/internal/appinfo"
)

func binaryName() string {
	if len(os.Args) == 0 {
		return appinfo.Name
	}
	name := strings.TrimSpace(filepath.Base(os.Args[0]))
	if name == "" {
		return appinfo.Name
	}
	return name
}

func appinfoDisplay() string {
	return appinfo.Display()
}

func printCommandUsage(w io.Writer, command string) {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "chat":
		printChatUsage(w)
	case "models":
		printModelsUsage(w)
	default:
		printRootUsage(w)
	}
}

func printRootUsage(w io.Writer) {
	bin := binaryName()
	fmt.Fprintf(w, `%s - terminal console for a browser agent backend

Usage:
  %s [command] [options]

Commands:
  chat        Connect to the agent and chat (default)
  models      List the models offered by the backend
  version     Print the version

Config:
  - --config is optional; by default ./config.json is read if present.
  - Defaults live in the "console" section of config.json (or a .yaml file):
      page_url, agent_port, ws_path, live_view_port, max_reconnect_attempts,
      reconnect_interval, default_model, model_fields, log_file, ui

Help:
  %s -h
  %s help <command>
`, bin, bin, bin, bin)
}

func printChatUsage(w io.Writer) {
	bin := binaryName()
	fmt.Fprintf(w, `Usage:
  %s chat [options]
  %s [options]        (same as "chat")

Options:
  --config <file>            Config file (default: ./config.json)
  --url <url>                Backend page url (default: console.page_url or http://localhost:8000)
  --agent-port <n>           WebSocket port (default: 8000)
  --ws-path <path>           WebSocket path (default: /ws)
  --live-view-port <n>       noVNC port (default: 6080)
  --model <name>             Preferred model for every field (default: console.default_model)
  --max-reconnect <n>        Reconnect attempts before giving up (default: 5)
  --reconnect-interval <d>   Delay between attempts (default: 5s)
  --ui <auto|tui|plain>      UI mode (default: auto = tui on a terminal)
  --log-file <file>          Log file (default: .agentconsole/console.log)
  --insecure-skip-verify     Skip TLS certificate verification for wss:// (dangerous)

  --init                     Add a default console section to the config file, then exit

In the chat:
  /models, /model <field> <name>, /save <file>, /reconnect, /exit
  Ctrl+R reconnects, Esc or Ctrl+C quits.
`, bin, bin)
}

func printModelsUsage(w io.Writer) {
	bin := binaryName()
	fmt.Fprintf(w, `Usage:
  %s models [options]

Options:
  --config <file>            Config file (default: ./config.json)
  --url <url>                Backend page url (default: console.page_url)
`, bin)
}
