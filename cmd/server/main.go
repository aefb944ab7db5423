package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"docsim/internal/app"
	"docsim/internal/config"
	"docsim/internal/handlers/search"
	"docsim/internal/logging"
	"docsim/internal/routing"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default $DOCSIM_CONFIG or ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := logging.New(config.LogConfig{}, nil)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	opts := []search.Option{search.WithLegacyStatusCodes(cfg.Server.LegacyStatusCodes)}
	if a.Reports != nil {
		opts = append(opts, search.WithErrorReporter(a.Reports), search.WithHistory(a.Reports.History()))
	}
	handler := search.NewHandler(a.Pipeline, logger, opts...)
	e := routing.NewServer(cfg.Server, handler, logger)

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
