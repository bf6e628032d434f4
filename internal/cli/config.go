// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for navi.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration (token redacted)
//   get <key>           Print one value
//   set <key> <value>   Set a value and save the config file
//   path                Show configuration file path
//
// Examples:
//   navi config
//   navi config get paging.message_page_size
//   navi config set server.base_url https://navi.example.com/api
//   navi config set stream.tick_ms 20
//   navi config path

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/navi-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(env *Env, args Args) error {
	parser := NewArgParser(args.Raw)
	jsonMode := args.JSON || parser.BoolFlag("json")

	switch parser.Subcommand() {
	case "", "show":
		return showConfig(env, jsonMode)
	case "get":
		key := parser.Positional(1)
		if key == "" {
			return ErrMissingArgument("key", "navi config get server.base_url")
		}
		return getConfig(env, key, jsonMode)
	case "set":
		key, value := parser.Positional(1), strings.Join(parser.PositionalFrom(2), " ")
		if key == "" || parser.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "navi config set stream.tick_ms 20")
		}
		return setConfig(env, key, value, jsonMode)
	case "path":
		if jsonMode {
			return NewJSONResponse("config path", map[string]string{"path": env.ConfigPath}).Write(env.Out)
		}
		fmt.Fprintln(env.Out, env.ConfigPath)
		return nil
	default:
		return NewValidationError("subcommand", parser.Subcommand(), "expected show, get, set or path")
	}
}

func showConfig(env *Env, jsonMode bool) error {
	if jsonMode {
		safe := env.Config.Clone()
		if safe.Server.Token != "" {
			safe.Server.Token = "[REDACTED]"
		}
		return NewJSONResponse("config show", safe).Write(env.Out)
	}

	cfg := env.Config
	token := "(not set)"
	if cfg.Server.Token != "" {
		token = "[REDACTED]"
	}

	out := env.Out
	fmt.Fprintln(out, TitleStyle.Render("navi configuration"))
	fmt.Fprintln(out, DimStyle.Render(env.ConfigPath))
	fmt.Fprintln(out, RenderSeparator())
	fmt.Fprintln(out, RenderLabel("server", cfg.Server.BaseURL))
	fmt.Fprintln(out, RenderLabel("token", token))
	fmt.Fprintln(out, RenderLabel("timeout", cfg.ServerTimeout().String()))
	fmt.Fprintln(out, RenderLabel("retries", fmt.Sprint(cfg.Server.MaxRetries)))
	fmt.Fprintln(out, RenderLabel("rate", fmt.Sprintf("%.1f req/s", cfg.Server.RequestsPerSecond)))
	fmt.Fprintln(out, RenderLabel("page sizes", fmt.Sprintf("sessions %d, messages %d", cfg.Paging.SessionPageSize, cfg.Paging.MessagePageSize)))
	fmt.Fprintln(out, RenderLabel("reveal tick", cfg.RevealInterval().String()))
	fmt.Fprintln(out, RenderLabel("cards delay", cfg.CardsDelay().String()))
	fmt.Fprintln(out, RenderLabel("scroll", fmt.Sprintf("threshold %.2f, margin %d, cooldown %s", cfg.Scroll.VisibilityThreshold, cfg.Scroll.MarginLines, cfg.Cooldown())))
	fmt.Fprintln(out, RenderLabel("send timeout", cfg.SendTimeout().String()))
	fmt.Fprintln(out, RenderLabel("log", fmt.Sprintf("%s %s", cfg.Log.Level, cfg.Log.Path)))
	fmt.Fprintln(out, RenderLabel("ui", fmt.Sprintf("markdown=%t dates=%t theme=%s", cfg.UI.Markdown, cfg.UI.ShowDates, cfg.UI.Theme)))
	return nil
}

func getConfig(env *Env, key string, jsonMode bool) error {
	val, err := env.Config.Get(key)
	if err != nil {
		return NewValidationError("key", key, err.Error())
	}
	if strings.EqualFold(key, "server.token") && val != "" {
		val = "[REDACTED]"
	}
	if jsonMode {
		return NewJSONResponse("config get", map[string]interface{}{"key": key, "value": val}).Write(env.Out)
	}
	fmt.Fprintln(env.Out, val)
	return nil
}

// setConfig edits the config file itself, not the effective config, so
// environment overrides are never written back.
func setConfig(env *Env, key, value string, jsonMode bool) error {
	if strings.HasSuffix(env.ConfigPath, ".json") {
		return NewValidationError("config path", env.ConfigPath, "config set only writes TOML files")
	}

	cfg, err := config.LoadForEdit(env.ConfigPath)
	if err != nil {
		return NewCommandError("config", "set", "could not read config file", err)
	}
	if err := cfg.Set(key, value); err != nil {
		return NewValidationError("key", key, err.Error())
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, env.ConfigPath); err != nil {
		return NewCommandError("config", "set", "could not save config file", err)
	}

	env.logger().WithField("key", key).Info("config updated")

	if jsonMode {
		return NewJSONResponse("config set", map[string]string{"key": key, "path": env.ConfigPath}).Write(env.Out)
	}
	fmt.Fprintf(env.Out, "%s %s updated in %s\n", SuccessStyle.Render("[OK]"), key, env.ConfigPath)
	return nil
}
