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
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trip-agent-go/config"
	"trpc.group/trpc-go/trip-agent-go/log"
	"trpc.group/trpc-go/trip-agent-go/server"
)

func newServeCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planning HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "path to the YAML configuration file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := startTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	r, registry, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	srv, err := server.New(r,
		server.WithRegistry(registry),
		server.WithCORSOrigins(cfg.Server.CORSOrigins),
	)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("planning API listening on %s (strategy %s)", cfg.Server.Addr, cfg.Strategy.Kind)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Infof("shutting down planning API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
