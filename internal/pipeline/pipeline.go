// Package pipeline runs one upload-and-search request end to end:
// extract, embed, rank, report.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docsim/internal/constants"
	"docsim/internal/corpus"
	"docsim/internal/embedding"
	"docsim/internal/extract"
)

// Reporter is the side-effecting sink a successful search ends in.
type Reporter interface {
	Write(ctx context.Context, filename, preview string, results []constants.SimilarityResult) (string, error)
}

// Outcome is what a successful search hands back to the transport layer.
type Outcome struct {
	Filename   string                       `json:"filename"`
	Preview    string                       `json:"preview"`
	Results    []constants.SimilarityResult `json:"results"`
	ReportFile string                       `json:"report_file,omitempty"`
}

// Handler holds the read-only dependencies shared by every request.
type Handler struct {
	embedder embedding.Provider
	corpus   *corpus.Store
	reporter Reporter
	topK     int
	logger   zerolog.Logger
}

// NewHandler wires a pipeline. reporter may be nil, in which case no report
// is written.
func NewHandler(embedder embedding.Provider, store *corpus.Store, reporter Reporter, topK int, logger zerolog.Logger) *Handler {
	if topK <= 0 {
		topK = constants.DefaultTopK
	}
	return &Handler{
		embedder: embedder,
		corpus:   store,
		reporter: reporter,
		topK:     topK,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// Search checks the upload, extracts its text and ranks it against the
// corpus. Errors are tagged with one of the constants.Err* sentinels, see
// constants.KindOf.
func (h *Handler) Search(ctx context.Context, filename string, data []byte) (*Outcome, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, constants.ErrMissingFile
	}
	if len(data) == 0 {
		return nil, constants.ErrEmptyFile
	}
	start := time.Now()

	text, err := extract.Extract(filename, data)
	if err != nil {
		if constants.KindOf(err) == constants.KindUnsupportedFormat {
			return nil, err
		}
		return nil, internal("extract", err)
	}
	if text == "" {
		return nil, constants.ErrNoReadableText
	}

	vectors, err := h.embedder.Encode(ctx, []string{text})
	if err != nil {
		return nil, internal("encode query", err)
	}
	if len(vectors) != 1 {
		return nil, internal("encode query", fmt.Errorf("got %d vectors for one text", len(vectors)))
	}
	results, err := h.corpus.Search(vectors[0], h.topK)
	if err != nil {
		return nil, internal("rank", err)
	}

	outcome := &Outcome{
		Filename: filename,
		Preview:  extract.Preview(text),
		Results:  results,
	}
	if h.reporter != nil {
		name, err := h.reporter.Write(ctx, filename, outcome.Preview, results)
		if err != nil {
			return nil, internal("report", err)
		}
		outcome.ReportFile = name
	}

	event := h.logger.Info().
		Str("file", filename).
		Int("chars", len(text)).
		Int("results", len(results)).
		Dur("took", time.Since(start))
	if len(results) > 0 {
		event = event.Str("top_score", results[0].SimilarityScore).Str("top_status", results[0].Status)
	}
	event.Msg("search done")
	return outcome, nil
}

func internal(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", constants.ErrInternal, step, err)
}
