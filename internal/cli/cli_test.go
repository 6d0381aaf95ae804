// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli_test.go - Tests for argument parsing, command dispatch, and CLI helpers.

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// ARGPARSER TESTS
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "subcommand only",
			args: []string{"show"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Subcommand() != "show" {
					t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), "show")
				}
				if p.PositionalCount() != 1 {
					t.Errorf("PositionalCount() = %d, want 1", p.PositionalCount())
				}
			},
		},
		{
			name: "subcommand with positional values",
			args: []string{"set", "models.default", "mistral:7b"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Subcommand() != "set" {
					t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), "set")
				}
				if p.Positional(1) != "models.default" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "models.default")
				}
				if p.Positional(2) != "mistral:7b" {
					t.Errorf("Positional(2) = %q, want %q", p.Positional(2), "mistral:7b")
				}
			},
		},
		{
			name: "boolean flag",
			args: []string{"show", "--json"},
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) = false, want true")
				}
				if p.Subcommand() != "show" {
					t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), "show")
				}
			},
		},
		{
			name: "explicit boolean value",
			args: []string{"show", "--json=false"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("json") {
					t.Error("BoolFlag(json) = true, want false")
				}
			},
		},
		{
			name: "long flag with equals",
			args: []string{"get", "--output=plain"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("output") != "plain" {
					t.Errorf("Flag(output) = %q, want %q", p.Flag("output"), "plain")
				}
			},
		},
		{
			name: "flag consumes next non-flag value",
			args: []string{"set", "--theme", "light", "--json"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("theme") != "light" {
					t.Errorf("Flag(theme) = %q, want %q", p.Flag("theme"), "light")
				}
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) = false, want true")
				}
				if p.PositionalCount() != 1 {
					t.Errorf("PositionalCount() = %d, want 1", p.PositionalCount())
				}
			},
		},
		{
			name: "short flag with value",
			args: []string{"list", "-n", "5"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("n") != "5" {
					t.Errorf("Flag(n) = %q, want %q", p.Flag("n"), "5")
				}
			},
		},
		{
			name: "flag lookup with leading dashes",
			args: []string{"--listen", ":9000"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("--listen") != ":9000" {
					t.Errorf("Flag(--listen) = %q, want %q", p.Flag("--listen"), ":9000")
				}
			},
		},
		{
			name: "trailing flag with no value is boolean",
			args: []string{"show", "--verbose"},
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("verbose") {
					t.Error("BoolFlag(verbose) = false, want true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args)
			tt.validate(t, parser)
		})
	}
}

func TestArgParser_FlagOrDefault(t *testing.T) {
	parser := NewArgParser([]string{"--listen", ":9000"})

	if got := parser.FlagOrDefault("listen", ":8000"); got != ":9000" {
		t.Errorf("FlagOrDefault(listen) = %q, want %q", got, ":9000")
	}
	if got := parser.FlagOrDefault("upstream", "http://localhost:11434"); got != "http://localhost:11434" {
		t.Errorf("FlagOrDefault(upstream) = %q, want default %q", got, "http://localhost:11434")
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	parser := NewArgParser([]string{"--limit", "250", "--port", "abc"})

	if got := parser.FlagIntOrDefault("limit", 1000); got != 250 {
		t.Errorf("FlagIntOrDefault(limit) = %d, want 250", got)
	}
	if got := parser.FlagIntOrDefault("port", 8000); got != 8000 {
		t.Errorf("FlagIntOrDefault(port) = %d, want default 8000", got)
	}
	if got := parser.FlagIntOrDefault("missing", 42); got != 42 {
		t.Errorf("FlagIntOrDefault(missing) = %d, want default 42", got)
	}
}

func TestArgParser_FlagInt(t *testing.T) {
	parser := NewArgParser([]string{"--timeout", "60"})

	val, err := parser.FlagInt("timeout")
	if err != nil {
		t.Fatalf("FlagInt(timeout) returned error: %v", err)
	}
	if val != 60 {
		t.Errorf("FlagInt(timeout) = %d, want 60", val)
	}

	if _, err := parser.FlagInt("absent"); err == nil {
		t.Error("FlagInt(absent) = nil error, want error")
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	parser := NewArgParser([]string{"show", "--json", "--theme", "dark"})

	if !parser.HasFlag("json") {
		t.Error("HasFlag(json) = false, want true")
	}
	if !parser.HasFlag("--json") {
		t.Error("HasFlag(--json) = false, want true")
	}
	if !parser.HasFlag("theme") {
		t.Error("HasFlag(theme) = false, want true")
	}
	if parser.HasFlag("markdown") {
		t.Error("HasFlag(markdown) = true, want false")
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	parser := NewArgParser([]string{})

	if parser.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", parser.Subcommand())
	}
	if parser.PositionalCount() != 0 {
		t.Errorf("PositionalCount() = %d, want 0", parser.PositionalCount())
	}
	if parser.Flag("anything") != "" {
		t.Errorf("Flag(anything) = %q, want empty", parser.Flag("anything"))
	}
	if parser.BoolFlag("anything") {
		t.Error("BoolFlag(anything) = true, want false")
	}
}

func TestArgParser_PositionalFrom(t *testing.T) {
	parser := NewArgParser([]string{"ask", "what", "is", "go"})

	rest := parser.PositionalFrom(1)
	if len(rest) != 3 {
		t.Fatalf("PositionalFrom(1) returned %d args, want 3", len(rest))
	}
	if got := JoinPositionalArgs(parser, 1); got != "what is go" {
		t.Errorf("JoinPositionalArgs(1) = %q, want %q", got, "what is go")
	}
	if got := parser.PositionalFrom(10); len(got) != 0 {
		t.Errorf("PositionalFrom(10) returned %d args, want 0", len(got))
	}
}

// =============================================================================
// VALUE PARSING TESTS
// =============================================================================

func TestParseBoolString(t *testing.T) {
	trueValues := []string{"true", "yes", "y", "1", "on", "TRUE", "Yes", "ON", " true "}
	for _, v := range trueValues {
		t.Run("true_"+strings.TrimSpace(v), func(t *testing.T) {
			got, err := ParseBoolString(v)
			if err != nil {
				t.Fatalf("ParseBoolString(%q) returned error: %v", v, err)
			}
			if !got {
				t.Errorf("ParseBoolString(%q) = false, want true", v)
			}
		})
	}

	falseValues := []string{"false", "no", "n", "0", "off", "FALSE", "No", "OFF"}
	for _, v := range falseValues {
		t.Run("false_"+v, func(t *testing.T) {
			got, err := ParseBoolString(v)
			if err != nil {
				t.Fatalf("ParseBoolString(%q) returned error: %v", v, err)
			}
			if got {
				t.Errorf("ParseBoolString(%q) = true, want false", v)
			}
		})
	}

	if _, err := ParseBoolString("maybe"); err == nil {
		t.Error("ParseBoolString(maybe) = nil error, want error")
	}
}

func TestParseIntWithValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"valid positive", "42", 42, false},
		{"valid one", "1", 1, false},
		{"zero is invalid", "0", 0, true},
		{"negative is invalid", "-5", 0, true},
		{"empty is invalid", "", 0, true},
		{"non-numeric is invalid", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntWithValidation(tt.input, "timeout")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIntWithValidation(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseIntWithValidation(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// COMMAND DISPATCH TESTS
// =============================================================================

func TestParse_Integration(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	tests := []struct {
		name        string
		osArgs      []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "no args starts the TUI",
			osArgs:      []string{"asiafeeds"},
			wantCommand: CmdTUI,
		},
		{
			name:        "explicit tui command",
			osArgs:      []string{"asiafeeds", "tui"},
			wantCommand: CmdTUI,
		},
		{
			name:        "ask joins words into the query",
			osArgs:      []string{"asiafeeds", "ask", "what", "is", "go"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.Query != "what is go" {
					t.Errorf("Query = %q, want %q", args.Query, "what is go")
				}
			},
		},
		{
			name:        "ask with short model flag",
			osArgs:      []string{"asiafeeds", "ask", "-m", "mistral:7b", "hello"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.Model != "mistral:7b" {
					t.Errorf("Model = %q, want %q", args.Model, "mistral:7b")
				}
				if args.Query != "hello" {
					t.Errorf("Query = %q, want %q", args.Query, "hello")
				}
			},
		},
		{
			name:        "ask with file flag",
			osArgs:      []string{"asiafeeds", "ask", "review", "this", "--file", "main.go"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.File != "main.go" {
					t.Errorf("File = %q, want %q", args.File, "main.go")
				}
				if args.Query != "review this" {
					t.Errorf("Query = %q, want %q", args.Query, "review this")
				}
			},
		},
		{
			name:        "ask with file equals form",
			osArgs:      []string{"asiafeeds", "ask", "--file=notes.md", "summarize"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.File != "notes.md" {
					t.Errorf("File = %q, want %q", args.File, "notes.md")
				}
				if args.Query != "summarize" {
					t.Errorf("Query = %q, want %q", args.Query, "summarize")
				}
			},
		},
		{
			name:        "ask with timeout override",
			osArgs:      []string{"asiafeeds", "ask", "--timeout", "120", "slow", "question"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.Timeout != 120 {
					t.Errorf("Timeout = %d, want 120", args.Timeout)
				}
				if args.Query != "slow question" {
					t.Errorf("Query = %q, want %q", args.Query, "slow question")
				}
			},
		},
		{
			name:        "ask ignores invalid timeout",
			osArgs:      []string{"asiafeeds", "ask", "--timeout", "soon", "hi"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.Timeout != 0 {
					t.Errorf("Timeout = %d, want 0", args.Timeout)
				}
				if args.Query != "hi" {
					t.Errorf("Query = %q, want %q", args.Query, "hi")
				}
			},
		},
		{
			name:        "think flag before the command",
			osArgs:      []string{"asiafeeds", "--think", "ask", "prove", "it"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if !args.Thinking {
					t.Error("Thinking = false, want true")
				}
				if args.Query != "prove it" {
					t.Errorf("Query = %q, want %q", args.Query, "prove it")
				}
			},
		},
		{
			name:        "global model with equals form",
			osArgs:      []string{"asiafeeds", "--model=qwen3:4b", "ask", "hi"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.Model != "qwen3:4b" {
					t.Errorf("Model = %q, want %q", args.Model, "qwen3:4b")
				}
			},
		},
		{
			name:        "global flags after the command",
			osArgs:      []string{"asiafeeds", "status", "--json"},
			wantCommand: CmdStatus,
			validate: func(t *testing.T, args Args) {
				if !args.JSON {
					t.Error("JSON = false, want true")
				}
			},
		},
		{
			name:        "quiet flag with chat",
			osArgs:      []string{"asiafeeds", "-q", "chat"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, args Args) {
				if !args.Quiet {
					t.Error("Quiet = false, want true")
				}
			},
		},
		{
			name:        "chat alias",
			osArgs:      []string{"asiafeeds", "c"},
			wantCommand: CmdChat,
		},
		{
			name:        "chat with short model flag",
			osArgs:      []string{"asiafeeds", "chat", "-m", "qwen3:4b"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, args Args) {
				if args.Model != "qwen3:4b" {
					t.Errorf("Model = %q, want %q", args.Model, "qwen3:4b")
				}
			},
		},
		{
			name:        "stream override",
			osArgs:      []string{"asiafeeds", "--stream", "ask", "hi"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if !args.Stream {
					t.Error("Stream = false, want true")
				}
			},
		},
		{
			name:        "no-stream override after the command",
			osArgs:      []string{"asiafeeds", "ask", "hi", "--no-stream"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if !args.NoStream {
					t.Error("NoStream = false, want true")
				}
			},
		},
		{
			name:        "serve with listen flag",
			osArgs:      []string{"asiafeeds", "serve", "--listen", ":9000"},
			wantCommand: CmdServe,
			validate: func(t *testing.T, args Args) {
				if args.ListenAddr != ":9000" {
					t.Errorf("ListenAddr = %q, want %q", args.ListenAddr, ":9000")
				}
			},
		},
		{
			name:        "server alias with upstream equals form",
			osArgs:      []string{"asiafeeds", "server", "--upstream=http://gpu-box:11434"},
			wantCommand: CmdServe,
			validate: func(t *testing.T, args Args) {
				if args.UpstreamURL != "http://gpu-box:11434" {
					t.Errorf("UpstreamURL = %q, want %q", args.UpstreamURL, "http://gpu-box:11434")
				}
			},
		},
		{
			name:        "status alias",
			osArgs:      []string{"asiafeeds", "s"},
			wantCommand: CmdStatus,
		},
		{
			name:        "config set with key and value",
			osArgs:      []string{"asiafeeds", "config", "set", "models.default", "mistral:7b"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, args Args) {
				if args.Subcommand != "set" {
					t.Errorf("Subcommand = %q, want %q", args.Subcommand, "set")
				}
				if args.ConfigKey != "models.default" {
					t.Errorf("ConfigKey = %q, want %q", args.ConfigKey, "models.default")
				}
				if args.ConfigVal != "mistral:7b" {
					t.Errorf("ConfigVal = %q, want %q", args.ConfigVal, "mistral:7b")
				}
			},
		},
		{
			name:        "config get via cfg alias",
			osArgs:      []string{"asiafeeds", "cfg", "get", "backend.url"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, args Args) {
				if args.Subcommand != "get" {
					t.Errorf("Subcommand = %q, want %q", args.Subcommand, "get")
				}
				if args.ConfigKey != "backend.url" {
					t.Errorf("ConfigKey = %q, want %q", args.ConfigKey, "backend.url")
				}
				if args.ConfigVal != "" {
					t.Errorf("ConfigVal = %q, want empty", args.ConfigVal)
				}
			},
		},
		{
			name:        "bare config command",
			osArgs:      []string{"asiafeeds", "config"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, args Args) {
				if args.Subcommand != "" {
					t.Errorf("Subcommand = %q, want empty", args.Subcommand)
				}
			},
		},
		{
			name:        "version command",
			osArgs:      []string{"asiafeeds", "version"},
			wantCommand: CmdVersion,
		},
		{
			name:        "version flag",
			osArgs:      []string{"asiafeeds", "--version"},
			wantCommand: CmdVersion,
		},
		{
			name:        "help command",
			osArgs:      []string{"asiafeeds", "help"},
			wantCommand: CmdHelp,
		},
		{
			name:        "help short flag",
			osArgs:      []string{"asiafeeds", "-h"},
			wantCommand: CmdHelp,
		},
		{
			name:        "unknown command falls back to the TUI",
			osArgs:      []string{"asiafeeds", "dashboard", "extra"},
			wantCommand: CmdTUI,
			validate: func(t *testing.T, args Args) {
				if len(args.Raw) != 2 {
					t.Fatalf("len(Raw) = %d, want 2", len(args.Raw))
				}
				if args.Raw[0] != "dashboard" {
					t.Errorf("Raw[0] = %q, want %q", args.Raw[0], "dashboard")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.osArgs
			cmd, args := Parse()
			if cmd != tt.wantCommand {
				t.Errorf("Parse() command = %v, want %v", cmd, tt.wantCommand)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

// =============================================================================
// EXIT CODE TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},
		{"validation error", NewValidationError("question", "", "required argument missing"), ExitUsageError},
		{"wrapped validation error", fmt.Errorf("ask failed: %w", NewValidationError("timeout", "0", "must be positive")), ExitUsageError},
		{"tty required error", &TTYRequiredError{Operation: "chat"}, ExitUsageError},
		{"not found error", NewNotFoundError("file", "missing.go"), ExitNotFoundError},
		{"request timed out", errors.New("request timed out after 60s"), ExitTimeoutError},
		{"http client timeout", errors.New("context deadline exceeded (Client.Timeout exceeded while awaiting headers)"), ExitTimeoutError},
		{"config error", errors.New("failed to parse config file"), ExitConfigError},
		{"backend unreachable", errors.New("backend is unreachable at http://localhost:8000 (start it with: asiafeeds serve)"), ExitNetworkError},
		{"connection refused", errors.New("dial tcp 127.0.0.1:11434: connection refused"), ExitNetworkError},
		{"generic error", errors.New("something else went wrong"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestTTYRequiredError_Message(t *testing.T) {
	err := &TTYRequiredError{Operation: "chat"}
	want := "stdin is not a terminal; cannot chat interactively"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &TTYRequiredError{}
	if !strings.Contains(bare.Error(), "not a terminal") {
		t.Errorf("Error() = %q, want mention of missing terminal", bare.Error())
	}
}

// =============================================================================
// TEXT HELPER TESTS
// =============================================================================

func TestWrapText(t *testing.T) {
	if got := WrapText("hello", 30); got != "hello" {
		t.Errorf("WrapText(short) = %q, want unchanged", got)
	}

	if got := WrapText("", 40); got != "" {
		t.Errorf("WrapText(empty) = %q, want empty", got)
	}

	multi := "line one\nline two"
	if got := WrapText(multi, 40); got != multi {
		t.Errorf("WrapText(multiline) = %q, want unchanged", got)
	}

	// Widths above 10 keep a two-column margin.
	long := "one two three four five six seven eight nine ten"
	want := "one two three four\nfive six seven\neight nine ten"
	if got := WrapText(long, 20); got != want {
		t.Errorf("WrapText(long, 20) = %q, want %q", got, want)
	}
	for _, line := range strings.Split(WrapText(long, 20), "\n") {
		if len(line) > 18 {
			t.Errorf("wrapped line %q exceeds effective width 18", line)
		}
	}

	// Narrow widths wrap without the margin.
	if got := WrapText("hello world", 5); got != "hello\nworld" {
		t.Errorf("WrapText(narrow) = %q, want %q", got, "hello\nworld")
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.input); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "0ms"},
		{500 * time.Millisecond, "500ms"},
		{2500 * time.Millisecond, "2.5s"},
		{59 * time.Second, "59.0s"},
		{90 * time.Second, "1m30s"},
		{3700 * time.Second, "1h1m"},
	}

	for _, tt := range tests {
		if got := formatDurationShort(tt.input); got != tt.want {
			t.Errorf("formatDurationShort(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTailLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"fewer lines than limit", "a\nb\n", 5, "a\nb\n"},
		{"exact count unchanged", "a\nb\nc\n", 3, "a\nb\nc\n"},
		{"trims to last n lines", "a\nb\nc\nd\ne\n", 2, "d\ne\n"},
		{"empty input", "", 3, ""},
		{"no trailing newline gains one", "one\ntwo\nthree", 1, "three\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tailLines([]byte(tt.input), tt.limit)); got != tt.want {
				t.Errorf("tailLines(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"ok", "[OK]"},
		{"connected", "[OK]"},
		{"fail", "[FAIL]"},
		{"unreachable", "[FAIL]"},
		{"warn", "[WARN]"},
		{"custom", "[CUSTOM]"},
	}

	for _, tt := range tests {
		if got := RenderStatus(tt.status); !strings.Contains(got, tt.want) {
			t.Errorf("RenderStatus(%q) = %q, want it to contain %q", tt.status, got, tt.want)
		}
	}
}

// =============================================================================
// BENCHMARKS
// =============================================================================

func BenchmarkArgParser_Simple(b *testing.B) {
	args := []string{"show"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}

func BenchmarkArgParser_Complex(b *testing.B) {
	args := []string{"set", "models.default", "mistral:7b", "--json", "--theme", "dark"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}

func BenchmarkArgParser_ManyFlags(b *testing.B) {
	args := []string{"show", "--json", "--theme=dark", "--limit", "100", "--verbose", "--output=plain"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}
