//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// tripagent is the command line entry point of the travel planning
// orchestrator: "serve" runs the HTTP API, "plan" plans one trip from flags.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tripagent",
		Short: "Travel planning orchestrator",
		Long: `tripagent plans multi-step travel itineraries by combining knowledge
retrieval with flight and hotel search under an explicit, inspectable plan.
Sessions are bounded by step and wall-clock budgets and always end in a
composed answer, a partial answer with caveats, or a described failure.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tripagent version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
