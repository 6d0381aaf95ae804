// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Relay server command handler for the asiafeeds CLI.
//
// Handles the "asiafeeds serve" command which runs the HTTP relay in
// front of a local Ollama instance.
//
// Command: serve
// Short:   Run the relay server
// Aliases: server
//
// Examples:
//   asiafeeds serve                          Run with configured defaults
//   asiafeeds serve --listen :9000           Bind to a different port
//   asiafeeds serve --upstream http://gpu-box:11434
//
// Flags:
//   -l, --listen ADDR     Listen address (default from config)
//   -u, --upstream URL    Upstream Ollama URL (default from config)
//   -q, --quiet           Suppress the startup banner
//
// The relay reloads models and the upstream URL when the config file
// changes on disk. Changing the listen address requires a restart.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/config"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/server"
)

// ShutdownTimeout bounds how long a graceful shutdown may take before
// in-flight requests are dropped.
const ShutdownTimeout = 10 * time.Second

// HandleServeCommand handles the "serve" command. It blocks until the
// relay stops or a termination signal arrives.
func HandleServeCommand(args Args) error {
	// Copy the config so flag overrides do not leak into the global
	// instance a concurrent reload would compare against.
	cfg := *config.Global()

	if args.ListenAddr != "" {
		cfg.Server.ListenAddr = args.ListenAddr
	}
	if args.UpstreamURL != "" {
		cfg.Server.UpstreamURL = args.UpstreamURL
	}

	srv := server.NewServer(&cfg)

	if !args.Quiet {
		printServeBanner(&cfg)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Hot-reload model selection and the upstream when the config file
	// changes. Watching is best effort; the relay runs without it.
	listenAddr := cfg.Server.ListenAddr
	watcher, err := config.NewWatcher(func(fresh *config.Config) {
		srv.ApplyConfig(fresh)
		if fresh.Server.ListenAddr != listenAddr {
			fmt.Fprintf(os.Stderr, "%s listen address changed to %s; restart to apply\n",
				WarningStyle.Render("[Notice]"),
				fresh.Server.ListenAddr)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config watching disabled: %v\n", err)
	} else if watchErr := watcher.Watch(); watchErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: config watching disabled: %v\n", watchErr)
		watcher.Close()
	} else {
		defer watcher.Close()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case serveErr := <-errCh:
		if serveErr != nil && serveErr != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", serveErr)
		}
		return nil

	case sig := <-sigChan:
		if !args.Quiet {
			fmt.Fprintf(os.Stderr, "\nReceived %v, shutting down...\n", sig)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("shutdown failed: %w", shutdownErr)
		}

		// Wait for ListenAndServe to hand back ErrServerClosed
		<-errCh
		return nil
	}
}

// printServeBanner prints the startup banner to stdout.
func printServeBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("AsiaFeeds Relay Server"))
	fmt.Printf("%s %s\n",
		RenderLabel("Listening on:"),
		ValueStyle.Render(cfg.Server.ListenAddr))
	fmt.Printf("%s %s\n",
		RenderLabel("Upstream:"),
		ValueStyle.Render(cfg.Server.UpstreamURL))
	fmt.Printf("%s %s\n",
		RenderLabel("Default model:"),
		ValueStyle.Render(cfg.Models.Default))
	fmt.Printf("%s %s\n",
		RenderLabel("Thinking model:"),
		ValueStyle.Render(cfg.Models.Thinking))
	if len(cfg.Server.AllowedOrigins) > 0 {
		fmt.Printf("%s %s\n",
			RenderLabel("Allowed origins:"),
			ValueStyle.Render(strings.Join(cfg.Server.AllowedOrigins, ", ")))
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("Press Ctrl+C to stop"))
	fmt.Println()
}
