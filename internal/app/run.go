// Package app wires the bot together and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"

	"github.com/TechnoConserve/discord-cfs/internal/bot"
	"github.com/TechnoConserve/discord-cfs/internal/chart"
	"github.com/TechnoConserve/discord-cfs/internal/config"
	"github.com/TechnoConserve/discord-cfs/internal/db"
	"github.com/TechnoConserve/discord-cfs/internal/httpapi"
	"github.com/TechnoConserve/discord-cfs/internal/migrate"
	"github.com/TechnoConserve/discord-cfs/internal/observability"
	"github.com/TechnoConserve/discord-cfs/internal/report"
	"github.com/TechnoConserve/discord-cfs/internal/station"
	"github.com/TechnoConserve/discord-cfs/internal/subscription"
	"github.com/TechnoConserve/discord-cfs/internal/usgs"
)

const shutdownTimeout = 10 * time.Second

// Run builds every component, connects to Discord and blocks until the
// context is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, version string) error {
	database, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := migrate.Run(database, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := os.MkdirAll(cfg.ChartDir, 0o755); err != nil {
		return fmt.Errorf("create chart dir %s: %w", cfg.ChartDir, err)
	}

	metrics := observability.NewMetrics()

	usgsClient := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, logger)
	stations := station.NewRepository(database)
	directory := station.NewDirectory(stations, usgsClient, logger)
	ledger := subscription.NewLedger(database, logger)
	renderer := chart.NewRenderer(cfg.ChartDir, logger)
	orchestrator := report.NewOrchestrator(directory, usgsClient, renderer, ledger, metrics, logger)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}

	guilds := bot.NewGuildRepository(database, cfg.DefaultPrefix)
	cooldowns := bot.NewCooldownGate(clockwork.NewRealClock())
	b := bot.New(cfg, version, session, guilds, ledger, directory, orchestrator, cooldowns, metrics, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewMux(database, stations, ledger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("ops server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if err := b.Start(); err != nil {
		return err
	}
	logger.Info("bot started", "version", version, "env", cfg.AppEnv)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		logger.Error("ops server failed", "error", err)
	}

	if err := b.Stop(); err != nil {
		logger.Error("failed to close discord session", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown failed", "error", err)
	}

	return nil
}
