// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

// omo-dashboard serves the opencode activity dashboard API: live
// tool-call time series and a recent tool-invocation feed, read
// straight from the opencode record store on every poll.
//
// Configuration comes from a YAML file (--config flag or
// OMO_DASHBOARD_CONFIG); without one, built-in defaults point at the
// standard opencode data directory. Flags override the file for the
// two settings people change in practice, the listen address and the
// data directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hainingpan/oh-my-opencode-dashboard/lib/activity"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/clock"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/config"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/dashboard"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/store"
)

const version = "0.3.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var listen string
	var dataDir string
	var showVersion bool

	flagSet := pflag.NewFlagSet("omo-dashboard", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to dashboard YAML config (default: $OMO_DASHBOARD_CONFIG, then built-in defaults)")
	flagSet.StringVar(&listen, "listen", "", "listen address, overrides the config file")
	flagSet.StringVar(&dataDir, "data-dir", "", "opencode storage root, overrides the config file")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("omo-dashboard %s\n", version)
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if dataDir != "" {
		cfg.Store.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	recordStore := store.Open(cfg.Store.DataDir, store.Options{
		AllowedRoots: allowedRoots(cfg),
		Logger:       logger,
	})
	server := dashboard.New(dashboard.Config{
		Store:  recordStore,
		Clock:  clock.Real(),
		Logger: logger,
		Series: activity.SeriesOptions{
			WindowMs:     cfg.Series.WindowMs,
			BucketMs:     cfg.Series.BucketMs,
			MessageLimit: cfg.Series.MessageScanLimit,
			ChildLimit:   cfg.Series.ChildSessionLimit,
		},
		Feed: activity.FeedOptions{
			MessageLimit:  cfg.Feed.MessageScanLimit,
			ToolCallLimit: cfg.Feed.ToolCallLimit,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: server.Handler(),
	}

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- httpServer.ListenAndServe()
	}()
	logger.Info("dashboard running", "listen", cfg.Listen, "data_dir", cfg.Store.DataDir)

	select {
	case err := <-serveDone:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveDone; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// allowedRoots defaults the part-directory guard to the data dir
// itself when the config names no roots: a record id must never pull a
// read outside the store.
func allowedRoots(cfg *config.Config) []string {
	if len(cfg.Store.AllowedRoots) > 0 {
		return cfg.Store.AllowedRoots
	}
	return []string{cfg.Store.DataDir}
}
