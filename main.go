// AsiaFeeds AI Assistant - a terminal front-end for a local LLM backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/cli"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	// Parse CLI arguments
	cmd, args := cli.Parse()

	// Route to appropriate handler
	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdServe:
		cli.HandleServe(args)
	case cli.CmdStatus:
		if err := cli.HandleStatus(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(cli.GetExitCode(err))
		}
	case cli.CmdConfig:
		if err := cli.HandleConfig(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(cli.GetExitCode(err))
		}
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		cli.PrintUsage()
		os.Exit(1)
	}
}

// runTUI starts the interactive terminal interface.
func runTUI(args cli.Args) {
	if err := cli.RequiresTTY("run the interface"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Try 'asiafeeds ask \"question\"' for non-interactive use.")
		os.Exit(cli.GetExitCode(err))
	}

	opts := ui.Options{
		Model:    args.Model,
		Thinking: args.Thinking,
		Stream:   args.Stream,
		NoStream: args.NoStream,
	}

	if err := ui.Run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
