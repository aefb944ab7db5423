// Package report writes one human readable file per search, keeps the
// append-only search log and, optionally, a SQLite search history.
package report

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docsim/internal/constants"
	"docsim/internal/utils"
)

const (
	reportsDir = "reports"
	errorsDir  = "errors"
	logFile    = "search_log.txt"
	stampTime  = "20060102_150405"
)

type Config struct {
	Dir          string `yaml:"dir"`
	ErrorReports bool   `yaml:"error_reports"`
	HistoryDB    string `yaml:"history_db"`
}

type Writer struct {
	dir          string
	errorReports bool
	history      *History
	logger       zerolog.Logger
	now          func() time.Time
}

func NewWriter(cfg Config, logger zerolog.Logger) (*Writer, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "outputs"
	}
	for _, sub := range []string{reportsDir, errorsDir} {
		if sub == errorsDir && !cfg.ErrorReports {
			continue
		}
		if err := utils.EnsureDir(filepath.Join(dir, sub)); err != nil {
			return nil, fmt.Errorf("create report dir: %w", err)
		}
	}
	w := &Writer{
		dir:          dir,
		errorReports: cfg.ErrorReports,
		logger:       logger.With().Str("component", "report").Logger(),
		now:          time.Now,
	}
	if cfg.HistoryDB != "" {
		history, err := OpenHistory(cfg.HistoryDB)
		if err != nil {
			return nil, err
		}
		w.history = history
	}
	return w, nil
}

// History is nil unless a history database was configured.
func (w *Writer) History() *History { return w.history }

func (w *Writer) Close() error {
	if w.history == nil {
		return nil
	}
	return w.history.Close()
}

// Path resolves a report file name returned by Write.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, reportsDir, filepath.Base(name))
}

// Write stores the report for one search and returns the report file name.
// The search log line and the history row are written after the report so a
// logged name always points at a complete file. A history failure is only
// logged, the report and log line already stand for the search.
func (w *Writer) Write(ctx context.Context, filename, preview string, results []constants.SimilarityResult) (string, error) {
	now := w.now()
	name := fmt.Sprintf("report_%s_%s.txt", now.Format(stampTime), shortID())

	if err := utils.WriteFileAtomic(w.Path(name), []byte(render(filename, preview, results, now))); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	line := strings.Join([]string{now.Format(time.RFC3339), oneLine(filename), name}, " | ")
	if err := utils.AppendLine(filepath.Join(w.dir, logFile), line); err != nil {
		return "", fmt.Errorf("append search log: %w", err)
	}
	if w.history != nil {
		entry := Entry{ID: strings.TrimSuffix(name, ".txt"), CreatedAt: now, Filename: filename, ReportFile: name, Results: len(results)}
		if len(results) > 0 {
			entry.TopScore, entry.TopStatus = results[0].Score, results[0].Status
		}
		if err := w.history.Record(ctx, entry); err != nil {
			w.logger.Warn().Err(err).Str("report", name).Msg("history not recorded")
		}
	}
	w.logger.Debug().Str("file", filename).Str("report", name).Msg("report written")
	return name, nil
}

// WriteError keeps a small file describing a failed request. It is a no-op
// returning "" unless error reports are enabled.
func (w *Writer) WriteError(filename string, kind constants.Kind, cause error) (string, error) {
	if !w.errorReports || cause == nil {
		return "", nil
	}
	now := w.now()
	name := fmt.Sprintf("error_%s_%s.txt", now.Format(stampTime), shortID())
	var b strings.Builder
	fmt.Fprintf(&b, "Timestamp: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "File: %s\n", filename)
	fmt.Fprintf(&b, "Kind: %s\n", kind)
	fmt.Fprintf(&b, "Error: %s\n", cause)
	if err := utils.WriteFileAtomic(filepath.Join(w.dir, errorsDir, name), []byte(b.String())); err != nil {
		return "", fmt.Errorf("write error report: %w", err)
	}
	return name, nil
}

func render(filename, preview string, results []constants.SimilarityResult, at time.Time) string {
	var b strings.Builder
	b.WriteString("Document Similarity Report\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "Uploaded file: %s\n", filename)
	fmt.Fprintf(&b, "Generated at:  %s\n\n", at.Format(time.RFC3339))
	if preview != "" {
		b.WriteString("Preview:\n")
		b.WriteString(preview)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Top %d matches\n", len(results))
	b.WriteString("--------------\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s | %s | Category: %s\n", i+1, r.SimilarityScore, r.Status, r.Category)
		fmt.Fprintf(&b, "   %s\n\n", r.Abstract)
	}
	return b.String()
}

// oneLine keeps a hostile filename from breaking the one-line-per-search log.
func oneLine(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ", "|", "/").Replace(s)
}

func shortID() string {
	return uuid.NewString()[:8]
}
