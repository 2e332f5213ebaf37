// Daybook is a trade journal analytics server. It imports executed trades,
// buckets them into timezone-aware calendar days, and serves calendar,
// equity curve, consistency and statistics views over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/daybook/internal/config"
	"github.com/aristath/daybook/internal/di"
	"github.com/aristath/daybook/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("timezone", cfg.Timezone).
		Int("port", cfg.Port).
		Msg("Starting Daybook")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer container.Close()

	container.Scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- container.Server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("Server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := container.Server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	container.Scheduler.Stop()

	log.Info().Msg("Daybook stopped")
}
