// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the asiafeeds CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering and history for better CLI experience
//
// Handles the "asiafeeds ask" command which sends a single prompt to the
// backend and writes the response to stdout.
//
// Command: ask [question]
// Short:   Ask a single question
// Aliases: (none)
//
// Examples:
//   asiafeeds ask "What is the capital of France?"
//   asiafeeds ask --json "Summarize the latest feed"
//   asiafeeds ask "Review this code:" --file main.go
//   asiafeeds ask --think "Why does this deadlock?"
//   cat notes.txt | asiafeeds ask
//
// Flags:
//   -f, --file FILE     Include file content with the question
//   -m, --model NAME    Use specific model (overrides config)
//   --think             Route to the thinking model
//   --timeout SECS      Request timeout in seconds
//   --no-stream         Wait for the complete reply
//   --json              Output response as JSON
//   -q, --quiet         Minimal output
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/chat"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/config"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ollama"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/styles"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxFileSize is the maximum file size to include (50KB).
	MaxFileSize = 50 * 1024
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
// USABILITY: Renders markdown responses with syntax highlighting and formatting.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse displays a response with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// =============================================================================
// STYLES
// =============================================================================

var (
	// Hint style for stderr notes like "[+] Including file"
	hintStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan)

	// Separator style
	separatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)

	// Summary label style
	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(styles.TextSecondary)

	// Summary value style
	summaryValueStyle = lipgloss.NewStyle().
				Foreground(styles.Emerald)

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)
)

// =============================================================================
// STREAMING OUTPUT
// =============================================================================

// streamToStdout prints tokens directly to stdout.
func streamToStdout(token string) {
	fmt.Print(token)
}

// =============================================================================
// FILE READING
// =============================================================================

// readFileForContext reads a file and formats it for inclusion in a prompt.
// Returns the formatted content or an error.
// Files larger than MaxFileSize are rejected.
func readFileForContext(path string) (string, error) {
	// Check file info
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewNotFoundError("file", path)
		}
		return "", fmt.Errorf("cannot access file: %w", err)
	}

	// Check size
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("file too large: %d bytes (max %d bytes)", info.Size(), MaxFileSize)
	}

	// Read content
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Format with header
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("\n--- File: %s ---\n", path))
	builder.Write(content)
	builder.WriteString("\n--- End of file ---\n")

	return builder.String(), nil
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAskCommand handles the "ask" command with streaming and JSON support.
func HandleAskCommand(args Args) error {
	// Load configuration
	cfg := config.Global()

	// Get the question from args.Query (built by parseAskArgs from positional args)
	question := args.Query

	// If no question from args, try reading from stdin (for piped input)
	if question == "" {
		// Check if stdin has data (is a pipe, not a terminal)
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			// Stdin is a pipe, read from it
			reader := bufio.NewReader(os.Stdin)
			stdinData, err := io.ReadAll(reader)
			if err == nil && len(stdinData) > 0 {
				question = util.NormalizeText(string(stdinData))
				if !args.Quiet && !args.JSON {
					fmt.Fprintf(os.Stderr, "%s Read question from stdin (%d bytes)\n",
						hintStyle.Render("[+]"),
						len(stdinData))
				}
			}
		}
	}

	if question == "" {
		err := ErrMissingArgument("question", "asiafeeds ask \"your question\"")
		if args.JSON {
			resp := NewJSONErrorResponse("ask", err)
			resp.Print()
		}
		return err
	}

	// If file is specified, read and append to question
	if args.File != "" {
		fileContent, err := readFileForContext(args.File)
		if err != nil {
			if args.JSON {
				resp := NewJSONErrorResponse("ask", err)
				resp.Print()
			}
			return err
		}
		question = question + "\n" + fileContent

		if !args.Quiet && !args.JSON {
			fmt.Fprintf(os.Stderr, "%s Including file: %s\n",
				hintStyle.Render("[+]"),
				args.File)
		}
	}

	// Request timeout: flag overrides config
	timeout := cfg.Backend.RequestTimeout()
	if args.Timeout > 0 {
		timeout = time.Duration(args.Timeout) * time.Second
	}

	// Create backend client with config
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:       cfg.Backend.URL,
		Timeout:       timeout,
		HealthTimeout: cfg.Backend.HealthTimeout(),
	})

	// Check that the backend is up
	ctx := context.Background()
	if !client.CheckHealth(ctx) {
		err := fmt.Errorf("backend is unreachable at %s (start it with: asiafeeds serve)", cfg.Backend.URL)
		if args.JSON {
			resp := NewJSONErrorResponse("ask", err)
			resp.Print()
		}
		return err
	}

	// Resolve the model: thinking mode wins, then the flag, then config
	selector := chat.NewSelector(cfg.Models.Default, cfg.Models.Thinking)
	model := selector.Select(args.Model, args.Thinking)

	// Streaming decision: flags override config, JSON is always blocking
	// so token counts from the final reply can be reported.
	streaming := cfg.Chat.Streaming
	if args.Stream {
		streaming = true
	}
	if args.NoStream || args.JSON {
		streaming = false
	}

	startTime := time.Now()

	if streaming {
		return askStreamed(ctx, client, model, question, args, timeout, startTime)
	}
	return askBlocking(ctx, client, model, question, args, startTime)
}

// askBlocking sends the prompt and waits for the complete reply.
// The full response carries token counts, which streaming does not.
func askBlocking(ctx context.Context, client *ollama.Client, model, question string, args Args, startTime time.Time) error {
	resp, err := client.Generate(ctx, model, question)
	duration := time.Since(startTime)

	if err != nil {
		if args.JSON {
			jresp := NewJSONErrorResponse("ask", err)
			jresp.Print()
		}
		return err
	}

	inputTokens := resp.PromptEvalCount
	outputTokens := resp.EvalCount

	// JSON output mode
	if args.JSON {
		data := AskData{
			Response:     resp.Response,
			Model:        resp.Model,
			Thinking:     args.Thinking,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
			DurationMs:   duration.Milliseconds(),
		}
		jresp := NewJSONResponse("ask", data)
		return jresp.Print()
	}

	if !args.Quiet {
		fmt.Println() // Space before response
	}

	// USABILITY: Display response with markdown rendering when on TTY
	if IsStdoutTTY() && config.Global().UI.Markdown {
		displayResponse(resp.Response)
	} else {
		fmt.Print(resp.Response)
	}
	fmt.Println()

	if !args.Quiet {
		displayAskSummary(model, inputTokens+outputTokens, util.RuneLen(resp.Response), duration)
	}

	return nil
}

// askStreamed streams the reply as it is generated. With markdown enabled
// the deltas are collected and rendered once at the end; otherwise they
// print as they arrive.
func askStreamed(ctx context.Context, client *ollama.Client, model, question string, args Args, timeout time.Duration, startTime time.Time) error {
	// The stream is bounded by the context, not the client timeout, so a
	// long generation is not cut off mid-reply. An explicit --timeout is
	// still honored.
	if args.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reader, err := client.OpenStream(ctx, model, question)
	if err != nil {
		return err
	}
	defer reader.Close()

	useMarkdown := IsStdoutTTY() && config.Global().UI.Markdown
	accumulator := ollama.NewStreamAccumulator()

	if !args.Quiet {
		fmt.Println() // Space before response
	}

	for {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		accumulator.Add(frame)
		if !useMarkdown {
			streamToStdout(frame.TextDelta)
		}
		if frame.Final {
			break
		}
	}

	duration := time.Since(startTime)

	// A transport failure mid-stream surfaces as a bracketed marker in the
	// transcript; report it as an error too so scripts see a failure.
	if streamErr := reader.Err(); streamErr != nil {
		if !useMarkdown {
			fmt.Println()
		}
		fmt.Fprintf(os.Stderr, "%s stream interrupted: %v\n",
			errorStyle.Render("[Error]"),
			streamErr)
		return fmt.Errorf("stream interrupted: %w", streamErr)
	}

	if useMarkdown {
		displayResponse(accumulator.GetContent())
	}
	fmt.Println()

	if !args.Quiet {
		displayAskSummary(model, 0, util.RuneLen(accumulator.GetContent()), duration)
	}

	return nil
}

// displayAskSummary shows a one-line summary after the response.
// Token counts are only known for blocking requests; pass 0 to omit them.
func displayAskSummary(model string, totalTokens, chars int, duration time.Duration) {
	separator := strings.Repeat("─", 45)
	fmt.Fprintln(os.Stderr, separatorStyle.Render(separator))

	fmt.Fprintf(os.Stderr, "%s %s | %s %s chars",
		summaryLabelStyle.Render("Model:"),
		summaryValueStyle.Render(model),
		summaryLabelStyle.Render("Received:"),
		summaryValueStyle.Render(formatNumber(chars)))

	if totalTokens > 0 {
		fmt.Fprintf(os.Stderr, " | %s %s",
			summaryLabelStyle.Render("Tokens:"),
			summaryValueStyle.Render(formatNumber(totalTokens)))
	}

	fmt.Fprintf(os.Stderr, " | %s %s\n",
		summaryLabelStyle.Render("Time:"),
		formatDurationShort(duration))
}
