// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for asiafeeds.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: status
// Short:   Display backend and configuration status
// Aliases: s
//
// Examples:
//   asiafeeds status              Show status
//   asiafeeds s                   Show status (short alias)
//   asiafeeds status --json       Status in JSON format
//
// Status Sections:
//   Config:   Config file path, streaming, markdown, theme
//   Models:   Default and thinking model names
//   Backend:  Relay URL, reachability, version, upstream state
//   Stats:    Relay usage counters (only when the relay is up)
//
// Output Fields:
//   Path       Config file location (or "defaults" when absent)
//   Default    Model used when none is requested
//   Thinking   Model used in thinking mode
//   URL        Backend base URL the client talks to
//   Status     Whether the backend answered the health probe
//   Upstream   The relay's view of its Ollama upstream
//   Requests   Total requests served by the relay
//   Tokens     Total tokens processed (streamed replies approximate)
//   Uptime     How long the relay has been running
//
// Flags:
//   --json              Output in JSON format
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/config"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ollama"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/server"
)

// statusProbeTimeout bounds the whole status collection pass.
const statusProbeTimeout = 3 * time.Second

// statusLabelWidth keeps field names in the sections aligned.
const statusLabelWidth = 14

// =============================================================================
// STATUS SNAPSHOT
// =============================================================================

// statusSnapshot holds everything the status command collected in one
// probe pass, so text and JSON rendering work from the same data.
type statusSnapshot struct {
	cfg          *config.Config
	configPath   string
	configOnDisk bool

	reachable bool
	health    *server.HealthResponse
	stats     *server.StatsResponse
}

// collectStatus probes the backend and gathers configuration state.
func collectStatus() *statusSnapshot {
	cfg := config.Global()

	snap := &statusSnapshot{cfg: cfg}

	if path, err := config.ConfigPathTOML(); err == nil {
		snap.configPath = path
		if _, statErr := os.Stat(path); statErr == nil {
			snap.configOnDisk = true
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
	defer cancel()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:       cfg.Backend.URL,
		HealthTimeout: cfg.Backend.HealthTimeout(),
	})
	snap.reachable = client.CheckHealth(ctx)

	if snap.reachable {
		// Both endpoints are relay-specific; a bare Ollama backend
		// answers neither, so failures here just leave the sections out.
		snap.health, _ = fetchRelayHealth(ctx, cfg.Backend.URL)
		snap.stats, _ = fetchRelayStats(ctx, cfg.Backend.URL)
	}

	return snap
}

// fetchRelayHealth reads the relay's health endpoint.
func fetchRelayHealth(ctx context.Context, baseURL string) (*server.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health probe returned %s", resp.Status)
	}

	var health server.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, err
	}
	return &health, nil
}

// fetchRelayStats reads the relay's stats endpoint.
func fetchRelayStats(ctx context.Context, baseURL string) (*server.StatsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/stats", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats endpoint returned %s", resp.Status)
	}

	var stats server.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// =============================================================================
// HANDLE STATUS
// =============================================================================

// HandleStatus handles the "status" command.
// Displays configuration, model routing, and backend reachability.
func HandleStatus(args Args) error {
	snap := collectStatus()

	// JSON output mode
	if args.JSON {
		return printStatusJSON(snap)
	}

	// Print header
	fmt.Println()
	fmt.Println(TitleStyle.Render("asiafeeds Status"))
	fmt.Println(RenderSeparator(41))
	fmt.Println()

	// Config section
	fmt.Println(SectionStyle.Render("Config"))
	fmt.Println(formatConfigSection(snap))
	fmt.Println()

	// Models section
	fmt.Println(SectionStyle.Render("Models"))
	fmt.Println(formatModelsSection(snap.cfg))
	fmt.Println()

	// Backend section
	fmt.Println(SectionStyle.Render("Backend"))
	fmt.Println(formatBackendSection(snap))
	fmt.Println()

	// Stats section, only when the relay answered
	if snap.stats != nil {
		fmt.Println(SectionStyle.Render("Relay Stats"))
		fmt.Println(formatStatsSection(snap.stats))
		fmt.Println()
	}

	return nil
}

// printStatusJSON outputs the snapshot in JSON form.
func printStatusJSON(snap *statusSnapshot) error {
	data := StatusData{
		Backend: StatusBackendInfo{
			URL:       snap.cfg.Backend.URL,
			Reachable: snap.reachable,
		},
		Models: StatusModelsInfo{
			Default:  snap.cfg.Models.Default,
			Thinking: snap.cfg.Models.Thinking,
		},
		Config: StatusConfigInfo{
			Path:      snap.configPath,
			Streaming: snap.cfg.Chat.Streaming,
			Markdown:  snap.cfg.UI.Markdown,
			Theme:     snap.cfg.UI.Theme,
		},
	}

	if snap.health != nil {
		data.Backend.Version = snap.health.Version
		data.Backend.Upstream = snap.health.Upstream
	}

	if snap.stats != nil {
		data.Stats = &StatusStatsInfo{
			TotalRequests:    snap.stats.TotalRequests,
			StreamRequests:   snap.stats.StreamRequests,
			BlockingRequests: snap.stats.BlockingRequests,
			FailedRequests:   snap.stats.FailedRequests,
			TotalTokens:      snap.stats.TotalTokens,
			UptimeSeconds:    snap.stats.UptimeSeconds,
		}
	}

	resp := NewJSONResponse("status", data)
	return resp.Print()
}

// =============================================================================
// SECTION FORMATTERS
// =============================================================================

// formatConfigSection returns the formatted config section body.
func formatConfigSection(snap *statusSnapshot) string {
	var lines []string

	pathStr := snap.configPath
	if pathStr == "" {
		pathStr = "unknown"
	}
	if !snap.configOnDisk {
		pathStr += " " + DimStyle.Render("(defaults, not created yet)")
	}
	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("Path:", statusLabelWidth),
		ValueStyle.Render(pathStr)))

	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("Streaming:", statusLabelWidth),
		formatOnOff(snap.cfg.Chat.Streaming)))

	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("Markdown:", statusLabelWidth),
		formatOnOff(snap.cfg.UI.Markdown)))

	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("Theme:", statusLabelWidth),
		ValueStyle.Render(snap.cfg.UI.Theme)))

	return strings.Join(lines, "\n")
}

// formatModelsSection returns the formatted models section body.
func formatModelsSection(cfg *config.Config) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("Default:", statusLabelWidth),
		ValueStyle.Render(cfg.Models.Default)))

	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("Thinking:", statusLabelWidth),
		ValueStyle.Render(cfg.Models.Thinking)))

	return strings.Join(lines, "\n")
}

// formatBackendSection returns the formatted backend section body.
func formatBackendSection(snap *statusSnapshot) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("URL:", statusLabelWidth),
		ValueStyle.Render(snap.cfg.Backend.URL)))

	if snap.reachable {
		lines = append(lines, fmt.Sprintf("  %s%s",
			RenderLabel("Status:", statusLabelWidth),
			RenderStatus("ok")+" reachable"))
	} else {
		lines = append(lines, fmt.Sprintf("  %s%s",
			RenderLabel("Status:", statusLabelWidth),
			RenderStatus("fail")+" unreachable "+DimStyle.Render("(start it with: asiafeeds serve)")))
	}

	if snap.health != nil {
		lines = append(lines, fmt.Sprintf("  %s%s",
			RenderLabel("Version:", statusLabelWidth),
			ValueStyle.Render(snap.health.Version)))

		upstream := snap.health.Upstream
		if upstream == "connected" {
			lines = append(lines, fmt.Sprintf("  %s%s",
				RenderLabel("Upstream:", statusLabelWidth),
				SuccessStyle.Render(upstream)))
		} else {
			lines = append(lines, fmt.Sprintf("  %s%s",
				RenderLabel("Upstream:", statusLabelWidth),
				WarningStyle.Render(upstream)))
		}
	}

	return strings.Join(lines, "\n")
}

// formatStatsSection returns the formatted relay stats section body.
func formatStatsSection(stats *server.StatsResponse) string {
	var lines []string

	breakdown := fmt.Sprintf("%s (%d streamed, %d blocking",
		formatNumber(int(stats.TotalRequests)),
		stats.StreamRequests,
		stats.BlockingRequests)
	if stats.FailedRequests > 0 {
		breakdown += fmt.Sprintf(", %d failed", stats.FailedRequests)
	}
	breakdown += ")"

	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("Requests:", statusLabelWidth),
		ValueStyle.Render(breakdown)))

	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("Tokens:", statusLabelWidth),
		ValueStyle.Render(formatNumber(int(stats.TotalTokens)))))

	uptime := time.Duration(stats.UptimeSeconds) * time.Second
	lines = append(lines, fmt.Sprintf("  %s%s",
		RenderLabel("Uptime:", statusLabelWidth),
		ValueStyle.Render(uptime.String())))

	return strings.Join(lines, "\n")
}

// formatOnOff renders a boolean as a colored on/off value.
func formatOnOff(on bool) string {
	if on {
		return SuccessStyle.Render("on")
	}
	return DimStyle.Render("off")
}
