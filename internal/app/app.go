// Package app assembles the long lived dependencies shared by the server
// and the cli. Everything here is built once, before the first request.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"docsim/internal/config"
	"docsim/internal/corpus"
	"docsim/internal/embedding"
	"docsim/internal/pipeline"
	"docsim/internal/report"
)

type App struct {
	Config   *config.Config
	Embedder embedding.Provider
	Corpus   *corpus.Store
	Reports  *report.Writer // nil when reports are disabled
	Pipeline *pipeline.Handler
}

// New loads the corpus and embeds it. It fails if anything is off, there is
// no degraded mode.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	start := time.Now()
	embedder, err := embedding.New(ctx, cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	entries, err := corpus.LoadCSV(cfg.Corpus.Path, cfg.Corpus.Options)
	if err != nil {
		embedder.Close()
		return nil, err
	}
	store, err := corpus.Build(ctx, embedder, entries)
	if err != nil {
		embedder.Close()
		return nil, err
	}
	logger.Info().
		Str("path", cfg.Corpus.Path).
		Str("model", store.Model()).
		Int("entries", store.Len()).
		Int("dim", store.Dimension()).
		Dur("took", time.Since(start)).
		Msg("corpus ready")

	a := &App{Config: cfg, Embedder: embedder, Corpus: store}
	var reporter pipeline.Reporter
	if cfg.Report.Enabled {
		writer, err := report.NewWriter(cfg.Report.Config, logger)
		if err != nil {
			embedder.Close()
			return nil, err
		}
		a.Reports, reporter = writer, writer
	}
	a.Pipeline = pipeline.NewHandler(embedder, store, reporter, cfg.Search.TopK, logger)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Reports != nil {
		errs = append(errs, a.Reports.Close())
	}
	errs = append(errs, a.Embedder.Close())
	return errors.Join(errs...)
}
