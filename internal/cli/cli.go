// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for asiafeeds.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdServe
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	Model    string
	Thinking bool // Route to the thinking model
	JSON     bool // Output in JSON format

	// Streaming overrides. When neither is set the config decides.
	Stream   bool
	NoStream bool

	// Command-specific
	Query      string
	File       string
	Timeout    int // Request timeout override in seconds (ask)
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Serve overrides
	ListenAddr  string
	UpstreamURL string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `asiafeeds - chat front-end for a local LLM backend

AsiaFeeds AI Assistant is a terminal front-end for a locally running
LLM server. Prompts go to the backend over HTTP; replies render in
your terminal, streamed token by token or in one piece.

Usage:
  asiafeeds                      Start the TUI (default)
  asiafeeds ask "question"       Ask a single question
  asiafeeds chat, c              Interactive chat (readline REPL)
  asiafeeds serve                Run the relay server in front of Ollama
  asiafeeds status, s            Show backend and config status
  asiafeeds config [subcommand]  Configuration management
  asiafeeds version              Show version information
  asiafeeds help                 Show this help

Ask Options:
  -f, --file PATH     Include a file with the question
  --timeout SECS      Override the request timeout
  --stream            Stream the reply token by token
  --no-stream         Wait for the complete reply

Chat Options:
  -m, --model NAME    Start chat with a specific model

Serve Options:
  --listen ADDR       Listen address (default :8000)
  --upstream URL      Ollama server URL (default http://localhost:11434)

Config Commands:
  asiafeeds config show              Show current configuration
  asiafeeds config get KEY           Show one value (dot notation)
  asiafeeds config set KEY VALUE     Set a value and save
  asiafeeds config list              List available keys
  asiafeeds config init              Write a commented default config file
  asiafeeds config path              Show the config file path
  asiafeeds config reset             Restore defaults

Global Flags:
  -q, --quiet         Minimal output
  -v, --verbose       Debug output
  --model NAME        Override the default model
  --think             Use the thinking model
  --json              Output in JSON format

Environment:
  ASIAFEEDS_BACKEND_URL     Backend base URL (default http://localhost:8000)
  ASIAFEEDS_MODEL           Default model override
  ASIAFEEDS_THINKING_MODEL  Thinking model override
  ASIAFEEDS_STREAM          "1"/"true" to stream, anything else disables
  OLLAMA_BASE_URL           Upstream Ollama URL for serve
  NO_COLOR                  Disable colored output

Examples:
  asiafeeds                           Start the TUI
  asiafeeds ask "What is Go?"         One question, then exit
  asiafeeds ask "Review this:" --file main.go
  cat notes.md | asiafeeds ask        Read the question from stdin
  asiafeeds chat --model mistral:7b   Chat on a specific model
  asiafeeds --think ask "Prove it step by step"
  asiafeeds serve --listen :8000      Relay on port 8000
  asiafeeds status --json             Status for scripts
  asiafeeds config set models.default mistral:7b

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("asiafeeds version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	// Check first argument for command
	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat", "c":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "serve", "server":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config", "cfg":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - keep the args and fall back to the TUI
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdTUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--think", "--thinking":
			parsedArgs.Thinking = true
		case "--stream":
			parsedArgs.Stream = true
		case "--no-stream":
			parsedArgs.NoStream = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			// Check for --model=value format
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--timeout":
			if i+1 < len(remaining) {
				i++
				if n, err := ParseIntWithValidation(remaining[i], "timeout"); err == nil {
					args.Timeout = n
				}
			}
		default:
			// Check for --file=value or --model=value format
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if strings.HasPrefix(arg, "--timeout=") {
				if n, err := ParseIntWithValidation(strings.TrimPrefix(arg, "--timeout="), "timeout"); err == nil {
					args.Timeout = n
				}
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseChatArgs parses chat command specific arguments.
func parseChatArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			}
		}
	}
}

// parseServeArgs parses serve command specific arguments.
func parseServeArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "--listen", "-l":
			if i+1 < len(remaining) {
				i++
				args.ListenAddr = remaining[i]
			}
		case "--upstream", "-u":
			if i+1 < len(remaining) {
				i++
				args.UpstreamURL = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--listen=") {
				args.ListenAddr = strings.TrimPrefix(arg, "--listen=")
			} else if strings.HasPrefix(arg, "--upstream=") {
				args.UpstreamURL = strings.TrimPrefix(arg, "--upstream=")
			}
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)
	args.Subcommand = parser.Subcommand()
	args.ConfigKey = parser.Positional(1)
	args.ConfigVal = parser.Positional(2)
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleAsk handles the "ask" command.
// This delegates to the full implementation in ask.go.
func HandleAsk(args Args) {
	if err := HandleAskCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleChat handles the "chat" command.
// This delegates to the full implementation in chat.go.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleServe handles the "serve" command.
// This delegates to the full implementation in serve.go.
func HandleServe(args Args) {
	if err := HandleServeCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
