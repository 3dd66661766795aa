package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/TechnoConserve/discord-cfs/internal/app"
	"github.com/TechnoConserve/discord-cfs/internal/config"
	"github.com/TechnoConserve/discord-cfs/internal/logging"
)

const appName = "discord-cfs"

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger, version); err != nil {
		logger.Error("fatal", "error", err)
		stop()
		os.Exit(1)
	}
}
