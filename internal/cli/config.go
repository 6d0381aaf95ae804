// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for asiafeeds.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: config [subcommand]
// Short:   View and modify configuration
// Aliases: cfg
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print a single configuration value
//   set <key> <value>   Set a configuration value
//   list                List all configuration keys with values
//   init                Write a commented default config file
//   reset               Reset to default configuration
//   path                Show configuration file path
//
// Examples:
//   asiafeeds config                          Show current config (default)
//   asiafeeds config show --json              Config in JSON format
//   asiafeeds config init                     Create ~/.asiafeeds/config.toml
//   asiafeeds config get models.default
//   asiafeeds config set models.default mistral:7b
//   asiafeeds config set models.thinking qwen3:4b
//   asiafeeds config set backend.url http://localhost:8000
//   asiafeeds config set chat.streaming off
//   asiafeeds config set ui.markdown true
//   asiafeeds config set server.listen_addr :9000
//   asiafeeds config reset                    Reset to defaults
//   asiafeeds config path                     Show config file location
//
// Configuration Keys:
//   backend.url                  Relay URL the client talks to
//   backend.request_timeout_secs Request timeout for blocking calls
//   backend.health_timeout_secs  Health probe timeout
//   models.default               Model used when none is requested
//   models.thinking              Model used in thinking mode
//   server.listen_addr           Relay bind address
//   server.upstream_url          Ollama upstream URL
//   server.upstream_timeout_secs Upstream request timeout
//   server.allowed_origins       CORS origins (comma separated)
//   chat.streaming               Stream replies token by token (true/false)
//   chat.history_file            Prompt history location override
//   chat.history_limit           Prompts kept in the history file
//   ui.theme                     UI theme (dark/light/auto)
//   ui.markdown                  Render replies as markdown (true/false)
//   ui.compact_mode              Compact TUI layout (true/false)
//   ui.show_stats                Show timing after each reply (true/false)
//
// Flags:
//   --json              Output in JSON format
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/config"
)

// =============================================================================
// CONFIG STYLES
// =============================================================================

var (
	// Config key style, wide enough for the dotted key names
	configKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(30)

	// Config value style
	configValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")) // Green

	// Path style
	configPathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)

// configPath returns the TOML config file path, or "" when the home
// directory cannot be determined.
func configPath() string {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	return path
}

// =============================================================================
// HANDLE CONFIG
// =============================================================================

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return handleConfigShowJSON()
		}
		return handleConfigShow()

	case "get":
		return handleConfigGet(args.ConfigKey, args.JSON)

	case "set":
		return handleConfigSet(args.ConfigKey, args.ConfigVal)

	case "list":
		return handleConfigList(args.JSON)

	case "init":
		return handleConfigInit(args.JSON)

	case "reset":
		return handleConfigReset()

	case "path":
		if args.JSON {
			return handleConfigPathJSON()
		}
		return handleConfigPath()

	default:
		return NewCommandError("config", args.Subcommand,
			"unknown subcommand (expected show, get, set, list, init, reset, or path)", nil)
	}
}

// loadOrDefaults loads the config file, falling back to defaults with a
// warning when it cannot be read.
func loadOrDefaults() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		return config.Default()
	}
	return cfg
}

// =============================================================================
// SHOW
// =============================================================================

// handleConfigShow displays the current configuration.
func handleConfigShow() error {
	cfg := loadOrDefaults()

	fmt.Println()
	fmt.Println(TitleStyle.Render("asiafeeds Configuration"))
	fmt.Println(RenderSeparator(41))
	fmt.Println()

	// Backend section
	fmt.Println(SectionStyle.Render("[backend]"))
	printConfigLine("url:", cfg.Backend.URL)
	printConfigLine("request_timeout_secs:", fmt.Sprintf("%d", cfg.Backend.RequestTimeoutSecs))
	printConfigLine("health_timeout_secs:", fmt.Sprintf("%d", cfg.Backend.HealthTimeoutSecs))
	fmt.Println()

	// Models section
	fmt.Println(SectionStyle.Render("[models]"))
	printConfigLine("default:", cfg.Models.Default)
	printConfigLine("thinking:", cfg.Models.Thinking)
	fmt.Println()

	// Server section
	fmt.Println(SectionStyle.Render("[server]"))
	printConfigLine("listen_addr:", cfg.Server.ListenAddr)
	printConfigLine("upstream_url:", cfg.Server.UpstreamURL)
	printConfigLine("upstream_timeout_secs:", fmt.Sprintf("%d", cfg.Server.UpstreamTimeoutSecs))
	printConfigLine("allowed_origins:", strings.Join(cfg.Server.AllowedOrigins, ", "))
	fmt.Println()

	// Chat section
	fmt.Println(SectionStyle.Render("[chat]"))
	printConfigLine("streaming:", fmt.Sprintf("%t", cfg.Chat.Streaming))
	historyFile := cfg.Chat.HistoryFile
	if historyFile == "" {
		historyFile = "(default)"
	}
	printConfigLine("history_file:", historyFile)
	printConfigLine("history_limit:", fmt.Sprintf("%d", cfg.Chat.HistoryLimit))
	fmt.Println()

	// UI section
	fmt.Println(SectionStyle.Render("[ui]"))
	printConfigLine("theme:", cfg.UI.Theme)
	printConfigLine("markdown:", fmt.Sprintf("%t", cfg.UI.Markdown))
	printConfigLine("compact_mode:", fmt.Sprintf("%t", cfg.UI.CompactMode))
	printConfigLine("show_stats:", fmt.Sprintf("%t", cfg.UI.ShowStats))
	fmt.Println()

	// Config file path
	fmt.Println(SeparatorStyle.Render(strings.Repeat("-", 41)))
	fmt.Printf("Config file: %s\n", configPathStyle.Render(configPath()))
	fmt.Println()

	return nil
}

// printConfigLine prints one "  key: value" line of the show output.
func printConfigLine(key, value string) {
	fmt.Printf("  %s%s\n",
		configKeyStyle.Render(key),
		configValueStyle.Render(value))
}

// handleConfigShowJSON outputs the whole configuration in JSON format.
// The config struct carries JSON tags, so it marshals as-is.
func handleConfigShowJSON() error {
	cfg := loadOrDefaults()

	resp := NewJSONResponse("config show", map[string]interface{}{
		"config": cfg,
		"path":   configPath(),
	})
	return resp.Print()
}

// =============================================================================
// GET / SET / LIST
// =============================================================================

// handleConfigGet prints a single configuration value.
// The plain form prints just the value, for scripting.
func handleConfigGet(key string, jsonOut bool) error {
	if key == "" {
		return ErrMissingArgument("key", "asiafeeds config get models.default")
	}

	cfg := loadOrDefaults()

	value, err := cfg.Get(strings.ToLower(key))
	if err != nil {
		return NewNotFoundError("config key", key)
	}

	if jsonOut {
		resp := NewJSONResponse("config get", map[string]interface{}{
			"key":   key,
			"value": value,
		})
		return resp.Print()
	}

	fmt.Println(formatConfigValue(value))
	return nil
}

// handleConfigSet sets a configuration value and saves the file.
func handleConfigSet(key, value string) error {
	if key == "" {
		return ErrMissingArgument("key", "asiafeeds config set models.default mistral:7b")
	}
	if value == "" {
		return ErrMissingArgument("value", fmt.Sprintf("asiafeeds config set %s <value>", key))
	}

	cfg := loadOrDefaults()
	key = strings.ToLower(key)

	// Boolean fields also accept on/off and y/n forms
	if current, getErr := cfg.Get(key); getErr == nil {
		if _, isBool := current.(bool); isBool {
			if parsed, parseErr := ParseBoolString(value); parseErr == nil {
				value = fmt.Sprintf("%t", parsed)
			} else {
				return parseErr
			}
		}
	}

	if err := cfg.Set(key, value); err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			return NewNotFoundError("config key", key)
		}
		return NewValidationError(key, value, err.Error())
	}

	// Validate before the new value reaches disk
	if err := cfg.Validate(); err != nil {
		return NewValidationError(key, value, err.Error())
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s %s = %s\n",
		SuccessStyle.Render("[OK]"),
		key,
		value)

	return nil
}

// handleConfigList lists every key with its current value.
func handleConfigList(jsonOut bool) error {
	cfg := loadOrDefaults()
	keys := config.GetAllKeys()

	if jsonOut {
		values := make(map[string]interface{}, len(keys))
		for _, key := range keys {
			if value, err := cfg.Get(key); err == nil {
				values[key] = value
			}
		}
		resp := NewJSONResponse("config list", values)
		return resp.Print()
	}

	for _, key := range keys {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("%s= %s\n",
			configKeyStyle.Render(key),
			configValueStyle.Render(formatConfigValue(value)))
	}

	return nil
}

// formatConfigValue renders a config value for display.
func formatConfigValue(value interface{}) string {
	switch v := value.(type) {
	case []string:
		return strings.Join(v, ", ")
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// =============================================================================
// INIT / RESET / PATH
// =============================================================================

// handleConfigInit writes a commented default config file.
func handleConfigInit(jsonMode bool) error {
	path, err := config.InitDefault()
	if err != nil {
		if jsonMode {
			resp := NewJSONErrorResponse("config init", err)
			resp.Print()
			return err
		}
		if path != "" {
			fmt.Printf("%s %s\n", WarningStyle.Render("[!]"), err)
			fmt.Printf("Edit it directly or run %s first.\n", commandStyle.Render("asiafeeds config reset"))
			return nil
		}
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	if jsonMode {
		resp := NewJSONResponse("config init", map[string]interface{}{
			"path":    path,
			"created": true,
		})
		resp.Print()
		return nil
	}

	fmt.Printf("%s Wrote default configuration\n", SuccessStyle.Render("[OK]"))
	fmt.Printf("Config file: %s\n", configPathStyle.Render(path))

	return nil
}

// handleConfigReset resets configuration to defaults.
func handleConfigReset() error {
	cfg := config.Default()

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	// The running process picks the defaults up too
	config.SetGlobal(cfg)

	fmt.Printf("%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	fmt.Printf("Config file: %s\n", configPathStyle.Render(configPath()))

	return nil
}

// handleConfigPath shows the config file path.
func handleConfigPath() error {
	path := configPath()
	fmt.Println(path)

	// Also show if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "%s (file does not exist - will be created on first use)\n",
			DimStyle.Render("Note"))
	}

	return nil
}

// handleConfigPathJSON outputs config path in JSON format.
func handleConfigPathJSON() error {
	path := configPath()
	_, err := os.Stat(path)
	exists := !os.IsNotExist(err)

	data := map[string]interface{}{
		"path":   path,
		"exists": exists,
	}

	resp := NewJSONResponse("config path", data)
	return resp.Print()
}
