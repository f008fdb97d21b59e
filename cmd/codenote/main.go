// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

// Command codenote is a terminal client for the CodeNote API.
//
// Session cookies persist across invocations in ~/.codenote/session.json,
// so a login survives until the refresh token expires or a logout runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var apiURL string

	root := &cobra.Command{
		Use:           "codenote",
		Short:         "CodeNote: AI code review and contribution dashboards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&apiURL, "api", defaultAPIURL(), "Base URL of the CodeNote API")

	root.AddCommand(
		newLoginCommand(&apiURL),
		newLogoutCommand(&apiURL),
		newStatusCommand(&apiURL),
		newReposCommand(&apiURL),
		newAnalyzeCommand(&apiURL),
		newStatsCommand(&apiURL),
	)
	return root
}

func defaultAPIURL() string {
	if fromEnv := os.Getenv("CODENOTE_API"); fromEnv != "" {
		return fromEnv
	}
	return "http://localhost:8080"
}
