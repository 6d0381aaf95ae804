// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the asiafeeds CLI.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Handles the "asiafeeds chat" command which provides an interactive
// REPL for conversing with the backend.
//
// Command: chat
// Short:   Start an interactive chat session
// Aliases: c
//
// Examples:
//   asiafeeds chat                     Start interactive chat (default model)
//   asiafeeds chat --model mistral:7b  Use specific model
//   asiafeeds chat --think             Route to the thinking model
//   asiafeeds chat --no-stream         Wait for complete replies
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear conversation history
//   /model [name]       Show or switch model
//   /think [on|off]     Show or toggle thinking mode
//   /stream [on|off]    Show or toggle streaming
//   /status, /s         Show session status
//   /history            Show conversation history
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current generation
//   Ctrl+D              Exit chat
package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/chat"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/config"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ollama"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/styles"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// Info style
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// Command style
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// Session summary header
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(styles.Cyan).
				Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line         *liner.State
	historyFile  string
	historyLimit int
}

// NewChatCLI creates a new ChatCLI with input history support.
// The history file location and size limit come from the configuration.
func NewChatCLI(cfg *config.Config) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := cfg.HistoryPath()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		historyFile = filepath.Join(os.TempDir(), "asiafeeds_history")
	}

	cli := &ChatCLI{
		line:         line,
		historyFile:  historyFile,
		historyLimit: cfg.Chat.HistoryLimit,
	}

	cli.LoadHistory()

	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	// Add non-empty input to history
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists command history to file with secure permissions.
// The file is written atomically and trimmed to the configured limit.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	var buf bytes.Buffer
	if _, err := c.line.WriteHistory(&buf); err != nil {
		return
	}

	data := buf.Bytes()
	if c.historyLimit > 0 {
		data = tailLines(data, c.historyLimit)
	}

	// 0600: prompts are private to the user
	util.AtomicWriteFile(c.historyFile, data, 0600)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// tailLines keeps the last n lines of newline-separated data.
func tailLines(data []byte, n int) []byte {
	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n"))
	if len(lines) <= n {
		return data
	}
	kept := bytes.Join(lines[len(lines)-n:], []byte("\n"))
	return append(kept, '\n')
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	// Conversation tracker
	Session *chat.Session

	// Configuration
	Config *config.Config
	Quiet  bool

	// Tracking
	StartTime time.Time

	// Cancel function for the in-flight generation
	CancelFunc context.CancelFunc

	// Input history handler
	InputCLI *ChatCLI
}

// NewChatSession creates a new chat session from parsed arguments.
func NewChatSession(args Args) *ChatSession {
	cfg := config.Global()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:       cfg.Backend.URL,
		Timeout:       cfg.Backend.RequestTimeout(),
		HealthTimeout: cfg.Backend.HealthTimeout(),
	})

	selector := chat.NewSelector(cfg.Models.Default, cfg.Models.Thinking)
	session := chat.NewSession(client, selector)

	session.SetModel(args.Model)
	session.SetThinking(args.Thinking)

	// Flags override the config; with neither flag the config decides.
	streaming := cfg.Chat.Streaming
	if args.Stream {
		streaming = true
	}
	if args.NoStream {
		streaming = false
	}
	session.SetStreaming(streaming)

	return &ChatSession{
		Session:   session,
		Config:    cfg,
		Quiet:     args.Quiet,
		StartTime: time.Now(),
		InputCLI:  NewChatCLI(cfg),
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command with full interactive support.
func HandleChatCommand(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	session := NewChatSession(args)

	// Check that the backend is up before dropping into the REPL
	ctx := context.Background()
	if !session.Session.Client().CheckHealth(ctx) {
		return fmt.Errorf("backend is unreachable at %s (start it with: asiafeeds serve)",
			session.Config.Backend.URL)
	}

	if !session.Quiet {
		printWelcome(session)
	}

	// Ensure input history is saved on exit
	defer session.InputCLI.Close()

	// Set up signal handling for graceful Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for sig := range sigChan {
			if sig == os.Interrupt || sig == syscall.SIGTERM {
				// First Ctrl+C cancels the current generation
				if session.CancelFunc != nil {
					session.CancelFunc()
					session.CancelFunc = nil
					fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
				}
			}
		}
	}()

	// Main REPL loop using liner for input history
	for {
		input, err := session.InputCLI.ReadInput(promptStyle.Render("asiafeeds> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C at the prompt - exit gracefully
				fmt.Println()
				printExitSummary(session)
				return nil
			}
			// EOF (Ctrl+D) or other error - exit gracefully
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)

		if input == "" {
			continue
		}

		// Handle slash commands
		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n",
					ErrorStyle.Render("[Error]"),
					err)
			}
			if !shouldContinue {
				printExitSummary(session)
				return nil
			}
			continue
		}

		// Handle exit/quit without slash
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n",
				ErrorStyle.Render("[Error]"),
				err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage submits a prompt and drives the turn to completion,
// rendering as it goes. Errors are rendered in-band as part of the turn,
// so the returned error covers only submission problems.
func processMessage(session *ChatSession, input string) error {
	if !session.Session.Submit(input) {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	session.CancelFunc = cancel
	defer func() {
		session.CancelFunc = nil
		cancel()
	}()

	// USABILITY: Render markdown on TTY for better formatting.
	// With markdown on, deltas are collected and rendered at the end;
	// without it they print as they arrive.
	useMarkdown := IsStdoutTTY() && session.Config.UI.Markdown
	streamed := session.Session.StreamingEnabled()

	startTime := time.Now()
	fmt.Println() // Space before response

	var last chat.RenderInstruction
loop:
	for {
		instr := session.Session.Advance(ctx)
		switch instr.Kind {
		case chat.RenderStarted:
			// Connection open; deltas follow.
		case chat.RenderDelta:
			if !useMarkdown {
				streamToStdout(instr.Delta)
			}
		case chat.RenderComplete, chat.RenderError, chat.RenderNone:
			last = instr
			break loop
		}
	}

	switch {
	case last.Kind == chat.RenderNone:
		// The turn was orphaned by a clear; nothing left to render.
	case useMarkdown:
		displayResponse(last.Text)
	case streamed:
		// Deltas already printed; the terminal step may carry a last one.
		streamToStdout(last.Delta)
	default:
		streamToStdout(last.Text)
	}

	fmt.Println()
	fmt.Println() // Extra space after response

	if !session.Quiet && last.Kind != chat.RenderNone {
		showBriefStats(session, last, time.Since(startTime))
	}

	return nil
}

// showBriefStats shows a one-line summary after each response.
func showBriefStats(session *ChatSession, last chat.RenderInstruction, duration time.Duration) {
	model := session.Session.EffectiveModel()
	status := commandStyle.Render(model)
	if last.Kind == chat.RenderError {
		status = warningStyle.Render(model + " (errored)")
	}

	fmt.Fprintf(os.Stderr, "%s %s | %d chars | %s\n",
		infoStyle.Render("[Stats]"),
		status,
		util.RuneLen(last.Text),
		duration.Round(time.Millisecond))
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		printChatHelp()
		return true, nil

	case "/clear", "/c":
		session.Session.ClearHistory()
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/model", "/m":
		return handleModelCommand(session, args)

	case "/think", "/t":
		return handleThinkCommand(session, args)

	case "/stream":
		return handleStreamCommand(session, args)

	case "/status", "/s":
		printChatStatus(session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/history":
		printChatHistory(session)
		return true, nil

	case "/":
		// Just "/" shows help
		printChatHelp()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleModelCommand handles the /model command.
func handleModelCommand(session *ChatSession, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Printf("%s Current model: %s\n",
			infoStyle.Render("[Model]"),
			commandStyle.Render(session.Session.EffectiveModel()))
		if session.Session.Thinking() {
			fmt.Println(warningStyle.Render("  (thinking mode overrides the requested model)"))
		}
		return true, nil
	}

	newModel := args[0]
	if newModel == "default" {
		newModel = ""
	}
	session.Session.SetModel(newModel)

	fmt.Printf("%s Switched to model: %s\n",
		commandStyle.Render("[OK]"),
		session.Session.EffectiveModel())

	return true, nil
}

// handleThinkCommand handles the /think command.
func handleThinkCommand(session *ChatSession, args []string) (bool, error) {
	if len(args) == 0 {
		state := "off"
		if session.Session.Thinking() {
			state = "on"
		}
		fmt.Printf("%s Thinking mode is %s\n",
			infoStyle.Render("[Think]"),
			commandStyle.Render(state))
		return true, nil
	}

	on, err := ParseBoolString(args[0])
	if err != nil {
		return true, err
	}

	session.Session.SetThinking(on)
	if on {
		fmt.Printf("%s Thinking mode on, using %s\n",
			commandStyle.Render("[OK]"),
			session.Session.EffectiveModel())
	} else {
		fmt.Printf("%s Thinking mode off\n", commandStyle.Render("[OK]"))
	}

	return true, nil
}

// handleStreamCommand handles the /stream command.
func handleStreamCommand(session *ChatSession, args []string) (bool, error) {
	if len(args) == 0 {
		state := "off"
		if session.Session.StreamingEnabled() {
			state = "on"
		}
		fmt.Printf("%s Streaming is %s\n",
			infoStyle.Render("[Stream]"),
			commandStyle.Render(state))
		return true, nil
	}

	on, err := ParseBoolString(args[0])
	if err != nil {
		return true, err
	}

	session.Session.SetStreaming(on)
	fmt.Printf("%s Streaming %s\n",
		commandStyle.Render("[OK]"),
		map[bool]string{true: "on", false: "off"}[on])

	return true, nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(session *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("AsiaFeeds AI Assistant"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(session.Session.EffectiveModel()))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Backend:"),
		commandStyle.Render(session.Config.Backend.URL))

	if session.Session.Thinking() {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Thinking:"),
			warningStyle.Render("on"))
	}
	if !session.Session.StreamingEnabled() {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Streaming:"),
			warningStyle.Render("off (waiting for complete replies)"))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available commands.
func printChatHelp() {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear conversation history"},
		{"/model [name]", "Show or switch model (\"default\" resets)"},
		{"/think [on|off]", "Show or toggle thinking mode"},
		{"/stream [on|off]", "Show or toggle streaming"},
		{"/status, /s", "Show session status"},
		{"/history", "Show conversation history"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-17s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels current generation, Ctrl+D exits"))
	fmt.Println()
}

// printChatStatus prints session status.
func printChatStatus(session *ChatSession) {
	elapsed := time.Since(session.StartTime).Round(time.Second)
	turns := session.Session.History()

	errored := 0
	for _, t := range turns {
		if t.Status == chat.StatusErrored {
			errored++
		}
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	fmt.Printf("  %s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(session.Session.EffectiveModel()))
	if requested := session.Session.Model(); requested != "" {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Requested:"),
			commandStyle.Render(requested))
	}
	fmt.Printf("  %s %v\n",
		infoStyle.Render("Thinking:"),
		session.Session.Thinking())
	fmt.Printf("  %s %v\n",
		infoStyle.Render("Streaming:"),
		session.Session.StreamingEnabled())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if session.Session.Client().CheckHealth(ctx) {
		fmt.Printf("  %s %s %s\n",
			infoStyle.Render("Backend:"),
			RenderStatus("ok"),
			session.Config.Backend.URL)
	} else {
		fmt.Printf("  %s %s %s\n",
			infoStyle.Render("Backend:"),
			RenderStatus("fail"),
			session.Config.Backend.URL)
	}

	fmt.Println()
	fmt.Printf("  %s %d turns", infoStyle.Render("History:"), len(turns))
	if errored > 0 {
		fmt.Printf(" (%d errored)", errored)
	}
	fmt.Println()
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())

	fmt.Println()
}

// printChatHistory prints conversation history.
func printChatHistory(session *ChatSession) {
	turns := session.Session.History()
	if len(turns) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Conversation History"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	youLabel := lipgloss.NewStyle().Foreground(styles.Cyan).Render("You")
	aiLabel := lipgloss.NewStyle().Foreground(styles.Purple).Render("AI")

	n := 1
	for _, turn := range turns {
		prompt := strings.ReplaceAll(util.TruncateRunes(turn.Prompt, 100), "\n", " ")
		fmt.Printf("  %d. %s: %s\n", n, youLabel, prompt)
		n++

		if turn.Response == "" {
			continue
		}
		response := strings.ReplaceAll(util.TruncateRunes(turn.Response, 100), "\n", " ")
		label := aiLabel
		if turn.Status == chat.StatusErrored {
			label = warningStyle.Render("AI")
		}
		fmt.Printf("  %d. %s: %s\n", n, label, response)
		n++
	}

	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(session *ChatSession) {
	turns := session.Session.History()

	// Skip if nothing was asked
	if len(turns) == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	errored := 0
	var chars int
	for _, t := range turns {
		if t.Status == chat.StatusErrored {
			errored++
		}
		chars += util.RuneLen(t.Response)
	}

	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))

	fmt.Printf("  %s %d", infoStyle.Render("Queries:"), len(turns))
	if errored > 0 {
		fmt.Printf(" (%d errored)", errored)
	}
	fmt.Println()
	fmt.Printf("  %s %s chars\n",
		infoStyle.Render("Received:"),
		formatNumber(chars))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())

	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
