//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trip-agent-go/config"
	"trpc.group/trpc-go/trip-agent-go/log"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

func newPlanCmd() *cobra.Command {
	var (
		cfgFile string
		req     travel.Request
	)

	cmd := &cobra.Command{
		Use:   "plan [request text]",
		Short: "Plan one trip and print the itinerary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Text = args[0]
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			return plan(cmd, cfg, req)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "path to the YAML configuration file")
	cmd.Flags().StringVar(&req.Origin, "origin", "", "departure location code, e.g. WAW")
	cmd.Flags().StringVar(&req.Destination, "destination", "", "arrival location code, e.g. BCN")
	cmd.Flags().StringVar(&req.DepartDate, "depart", "", "departure date, 2006-01-02")
	cmd.Flags().StringVar(&req.ReturnDate, "return", "", "return date, 2006-01-02")
	cmd.Flags().IntVar(&req.Travelers, "travelers", 0, "number of travelers")
	cmd.Flags().Float64Var(&req.BudgetCap, "budget", 0, "budget cap per traveler")
	cmd.Flags().StringSliceVar(&req.Interests, "interests", nil, "interests guiding knowledge lookups")
	return cmd
}

func plan(cmd *cobra.Command, cfg *config.Config, req travel.Request) error {
	log.SetLevel(cfg.Log.Level)

	ctx := cmd.Context()
	r, _, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	answer, err := r.Plan(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer.Markdown)
	if answer.Partial() {
		fmt.Fprintf(cmd.OutOrStdout(), "session %s ended %s: %s\n",
			answer.SessionID, answer.Status, answer.Reason)
	}
	return nil
}
