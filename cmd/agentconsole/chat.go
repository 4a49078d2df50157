package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"agentconsole/internal/config"
	"agentconsole/internal/conn"
	"agentconsole/internal/console"
	"agentconsole/internal/consolelog"
	"agentconsole/internal/endpoint"
	"agentconsole/internal/modelsapi"
	"agentconsole/internal/router"
	"agentconsole/internal/view"
)

func runChat(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	fs.Usage = func() { printChatUsage(fs.Output()) }
	var flags consoleFlags
	flags.register(fs)
	fs.Parse(args)

	if flags.init {
		return runInit(flags.configPath)
	}
	cfg, err := loadConfig(fs, &flags)
	if err != nil {
		return err
	}
	eps, err := endpoint.Derive(cfg.Endpoint())
	if err != nil {
		return err
	}

	mode := resolveUIMode(cfg.UI, os.Stdout)
	logger, err := openLogger(cfg.LogFile, mode == "plain")
	if err != nil {
		return err
	}
	defer logger.Close()
	logger.Logf(consolelog.KindInfo, "start ui=%s ws=%s models=%s", mode, eps.WebSocket, eps.Models)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := modelsapi.New(modelsapi.Options{
		URL:      eps.Models,
		Fallback: []string{cfg.DefaultModel},
		Logf:     logger.Func(consolelog.KindInfo),
	}).Fetch(ctx)
	if err != nil {
		logger.Logf(consolelog.KindWarn, "using fallback models: %v", err)
	}
	selection := modelsapi.NewSelection(cfg.ModelFields, cat, cfg.DefaultModel)

	pane := view.NewHTMLPane()
	var (
		tui   *console.TUI
		plain *console.Plain
		front router.Sink
	)
	if mode == "tui" {
		tui = console.NewTUI()
		front = tui.Sink()
	} else {
		plain = console.NewPlain(os.Stdout, consolelog.TermColorEnabled(os.Stdout))
		front = plain
	}

	rt := router.New(console.Tee(pane, front), router.Options{
		LiveViewURL: eps.LiveView,
		Logf:        logger.Func(consolelog.KindRecv),
	})
	mgr, err := conn.NewManager(conn.Options{
		URL:                  eps.WebSocket,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		ReconnectInterval:    cfg.Interval(),
		InsecureSkipVerify:   cfg.InsecureSkipVerify,
		Handler:              rt,
		Logf:                 logger.Func(consolelog.KindWS),
	})
	if err != nil {
		return err
	}
	sess, err := console.NewSession(console.SessionOptions{
		Conn:      mgr,
		Router:    rt,
		Selection: selection,
		Catalog:   cat,
		Pane:      pane,
		Log:       logger,
	})
	if err != nil {
		return err
	}

	if tui != nil {
		return tui.Run(ctx, sess, os.Stdin, os.Stdout)
	}
	fmt.Fprintf(os.Stdout, "%s ready (%s). Type /help for commands, /exit to quit.\n", appinfoDisplay(), selection)
	return plain.Run(ctx, sess, os.Stdin)
}

func loadConfig(fs *flag.FlagSet, flags *consoleFlags) (config.ConsoleConfig, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.ConsoleConfig{}, err
	}
	flags.apply(fs, &cfg)
	if err := cfg.Normalize(); err != nil {
		return config.ConsoleConfig{}, err
	}
	return cfg, nil
}

// resolveUIMode turns "auto" into tui on a terminal and plain otherwise.
func resolveUIMode(mode string, out io.Writer) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "tui":
		return "tui"
	case "plain":
		return "plain"
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "tui"
	}
	return "plain"
}

// openLogger writes to the log file, and to stderr as well in plain mode.
func openLogger(path string, toTerminal bool) (*consolelog.Logger, error) {
	f, err := consolelog.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return consolelog.New(consolelog.Options{
		File:        f,
		Term:        os.Stderr,
		TermEnabled: toTerminal,
		TermColor:   consolelog.TermColorEnabled(os.Stderr),
	}), nil
}

func runInit(configPath string) error {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = config.DefaultPath
	}
	wrote, err := config.WriteDefault(path)
	if err != nil {
		return err
	}
	status := "exists"
	if wrote {
		status = "created"
	}
	fmt.Fprintf(os.Stdout, "config: %s (console section %s)\n", path, status)
	return nil
}
