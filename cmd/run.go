package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nextlevelbuilder/grindbot/internal/agent"
	"github.com/nextlevelbuilder/grindbot/internal/config"
)

func runAgent() {
	// Setup structured logging
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfgPath := resolveConfigPath()

	// First run: no config file and no token in the environment means
	// there is nothing to connect with, so collect the minimum set up
	// front. With a token in the environment (Docker, CI) the defaults
	// carry the run and the form is skipped.
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) && os.Getenv("GRINDBOT_TELEGRAM_TOKEN") == "" {
		fmt.Println("No configuration found. Starting setup...")
		fmt.Println()
		if !runOnboard(cfgPath) {
			os.Exit(1)
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := agent.New(*cfg)
	if err != nil {
		slog.Error("agent startup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("graceful shutdown initiated", "signal", sig)
		cancel()
		sig = <-sigCh
		slog.Warn("forced exit", "signal", sig)
		os.Exit(1)
	}()

	slog.Info("grindbot starting", "version", Version, "config", cfgPath)

	if err := a.Run(ctx); err != nil {
		slog.Error("agent error", "error", err)
		os.Exit(1)
	}
}
