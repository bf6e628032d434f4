// navi TUI - A terminal client for the NAVI career advice service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/navi-tui/internal/api"
	"github.com/jeranaias/navi-tui/internal/cli"
	"github.com/jeranaias/navi-tui/internal/config"
	"github.com/jeranaias/navi-tui/internal/conversation"
	"github.com/jeranaias/navi-tui/internal/history"
	"github.com/jeranaias/navi-tui/internal/logging"
	"github.com/jeranaias/navi-tui/internal/mockserver"
	"github.com/jeranaias/navi-tui/internal/session"
	"github.com/jeranaias/navi-tui/internal/ui/chat"
	"github.com/jeranaias/navi-tui/internal/ui/components"
	"github.com/jeranaias/navi-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// defaultMockAddr is where mock-server listens without --addr.
const defaultMockAddr = "127.0.0.1:8089"

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])
	os.Exit(run(cmd, args))
}

// run executes cmd and returns the process exit code.
func run(cmd cli.Command, args cli.Args) int {
	// Commands that need neither config nor a backend.
	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		return report(cli.HandleVersion(os.Stdout, args), args)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return report(err, args)
	}

	logger, closer, err := newLogger(cmd, args, cfg)
	if err != nil {
		return report(err, args)
	}
	defer closer.Close()

	logger.WithFields(logrus.Fields{
		"command": cmd.String(),
		"version": Version,
		"server":  cfg.Server.BaseURL,
	}).Debug("starting")

	if cmd == cli.CmdMockServer {
		return report(runMockServer(args, logger), args)
	}

	client := api.NewClient(api.Config{
		BaseURL:           cfg.Server.BaseURL,
		Token:             cfg.Server.Token,
		Timeout:           cfg.ServerTimeout(),
		MaxRetries:        cfg.Server.MaxRetries,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Logger:            logger,
	})

	configPath := args.ConfigPath
	if configPath == "" {
		if configPath, err = config.ConfigPathTOML(); err != nil {
			return report(err, args)
		}
	}

	env := &cli.Env{
		Config:     cfg,
		ConfigPath: configPath,
		Backend:    client,
		Logger:     logger,
		Out:        os.Stdout,
		Err:        os.Stderr,
		Width:      cli.TerminalWidth(),
	}

	ctx := context.Background()
	switch cmd {
	case cli.CmdAsk:
		err = requireServer(client, cli.HandleAsk(ctx, env, args))
	case cli.CmdChat:
		err = requireServer(client, cli.HandleChat(ctx, env, args))
	case cli.CmdSessions:
		err = requireServer(client, cli.HandleSessions(ctx, env, args))
	case cli.CmdConfig:
		err = cli.HandleConfig(env, args)
	default:
		if !client.IsConfigured() {
			err = requireServer(client, api.ErrNotConfigured)
			break
		}
		err = runTUI(cfg, configPath, client, logger)
	}
	return report(err, args)
}

// report prints err, if any, and maps it to an exit code.
func report(err error, args cli.Args) int {
	if err == nil {
		return cli.ExitSuccess
	}
	cli.DisplayError(os.Stderr, err, args.JSON)
	return cli.ExitCode(err)
}

// requireServer replaces a bare api.ErrNotConfigured with a hint.
func requireServer(client *api.Client, err error) error {
	if err != nil && !client.IsConfigured() {
		return cli.NewCommandError("navi", "connect",
			"no server configured; set server.base_url, NAVI_SERVER_URL or --server", api.ErrNotConfigured)
	}
	return err
}

// =============================================================================
// SETUP
// =============================================================================

func loadConfig(args cli.Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		if err := config.LoadDotEnv(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.ServerURL != "" {
		cfg.Server.BaseURL = args.ServerURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger logs to the configured file. The TUI owns the terminal, so only
// the line-oriented commands may send -v output to stderr.
func newLogger(cmd cli.Command, args cli.Args, cfg *config.Config) (*logrus.Logger, io.Closer, error) {
	opts := logging.Options{Level: cfg.Log.Level}
	switch {
	case cmd == cli.CmdMockServer:
		opts.Writer = os.Stderr
	case args.Verbose && cmd != cli.CmdTUI && cmd != cli.CmdChat:
		opts.Writer = os.Stderr
	default:
		path, err := cfg.LogPath()
		if err != nil {
			return nil, nil, err
		}
		opts.Path = path
	}
	return logging.New(opts)
}

// =============================================================================
// TUI
// =============================================================================

// runTUI starts the full-screen interface.
func runTUI(cfg *config.Config, configPath string, client *api.Client, logger *logrus.Logger) error {
	if err := cli.RequireTTY(); err != nil {
		return err
	}

	sessions := session.NewPager(client, session.Options{
		PageSize: cfg.Paging.SessionPageSize,
		Logger:   logger,
	})
	hist := history.NewPager(client, history.Options{
		PageSize: cfg.Paging.MessagePageSize,
		Logger:   logger,
	})
	ctrl := conversation.New(client, sessions, hist, conversation.Options{
		SendTimeout:    cfg.SendTimeout(),
		RevealInterval: cfg.RevealInterval(),
		CardsDelay:     cfg.CardsDelay(),
		Cooldown:       cfg.Cooldown(),
		Logger:         logger,
	})
	defer ctrl.Close()

	theme := styles.NewTheme(cfg.UI.Theme)
	m := chat.New(chat.Deps{
		Sessions:    sessions,
		History:     hist,
		Controller:  ctrl,
		Theme:       theme,
		Markdown:    components.NewMarkdown(theme.GlamourStyle(), cfg.UI.Markdown),
		Logger:      logger,
		ShowDates:   cfg.UI.ShowDates,
		Threshold:   cfg.Scroll.VisibilityThreshold,
		MarginLines: cfg.Scroll.MarginLines,
		ListTimeout: cfg.ServerTimeout(),
	})

	// Create the Bubble Tea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)

	// Edits to the config file apply without a restart. Server settings are
	// only read at startup.
	watcher, err := config.Watch(configPath, logger, func(c *config.Config) {
		p.Send(chat.ConfigReloadedMsg{Config: c})
	})
	if err != nil {
		logger.WithError(err).Warn("config hot reload disabled")
	} else {
		defer watcher.Close()
	}

	start := time.Now()
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running navi: %w", err)
	}
	logger.WithField("duration", time.Since(start).String()).Info("tui exited")
	return nil
}

// =============================================================================
// MOCK SERVER
// =============================================================================

// demoSessions seed `mock-server --seed`.
var demoSessions = [][]string{
	{"How do I move from QA into backend development?", "Which language should I learn first?"},
	{"What does a data engineer do day to day?", "Can you recommend some role models?"},
	{"Is a bootcamp worth it for UX design?"},
}

// runMockServer serves the in-memory backend until SIGINT or SIGTERM.
func runMockServer(args cli.Args, logger *logrus.Logger) error {
	parser := cli.NewArgParser(args.Raw)
	addr := parser.FlagOrDefault("addr", defaultMockAddr)

	var latency time.Duration
	if raw := parser.Flag("latency"); raw != "" {
		ms, err := cli.ParsePositiveInt(raw, "latency")
		if err != nil {
			return err
		}
		latency = time.Duration(ms) * time.Millisecond
	}

	srv := mockserver.New(mockserver.Options{
		Token:   parser.Flag("token"),
		Latency: latency,
		Logger:  logger,
	})
	if parser.BoolFlag("seed") {
		srv.Seed(demoSessions...)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()
	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "mock NAVI server on http://%s (Ctrl+C to stop)\n", addr)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mock server shutdown: %w", err)
	}
	logger.Info("mock server stopped")
	return nil
}
