// Package search serves the upload-and-search endpoint and its helpers.
package search

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"docsim/internal/constants"
	"docsim/internal/handlers"
	"docsim/internal/pipeline"
	"docsim/internal/report"
)

const formField = "file"

type Searcher interface {
	Search(ctx context.Context, filename string, data []byte) (*pipeline.Outcome, error)
}

// ErrorReporter keeps a record of failed requests. WriteError returning ""
// means nothing was written.
type ErrorReporter interface {
	WriteError(filename string, kind constants.Kind, cause error) (string, error)
}

type Handler struct {
	searcher Searcher
	errors   ErrorReporter
	history  *report.History
	legacy   bool
	logger   zerolog.Logger
}

type Option func(*Handler)

func WithErrorReporter(r ErrorReporter) Option { return func(h *Handler) { h.errors = r } }

func WithHistory(history *report.History) Option { return func(h *Handler) { h.history = history } }

// WithLegacyStatusCodes answers every failure with 404, which is what older
// frontend builds expect.
func WithLegacyStatusCodes(on bool) Option { return func(h *Handler) { h.legacy = on } }

func NewHandler(searcher Searcher, logger zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{searcher: searcher, logger: logger.With().Str("component", "http").Logger()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) WelcomeHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, handlers.Success("Welcome to the document similarity API", nil))
}

func (h *Handler) StatusHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, handlers.Success("API is working 🚀", nil))
}

// UploadSearchHandler - POST multipart form with the document in "file".
func (h *Handler) UploadSearchHandler(c echo.Context) error {
	filename, data, err := readUpload(c)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		// body limit hit while parsing, let echo answer 413
		return httpErr
	}
	if err != nil {
		return h.fail(c, filename, err)
	}
	outcome, err := h.searcher.Search(c.Request().Context(), filename, data)
	if err != nil {
		return h.fail(c, filename, err)
	}
	return c.JSON(http.StatusOK, handlers.Success("File processed successfully", outcome))
}

// HistoryHandler lists recent searches when a history database is configured.
func (h *Handler) HistoryHandler(c echo.Context) error {
	if h.history == nil {
		return c.JSON(http.StatusNotFound, handlers.Failure("Search history is disabled", nil))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.history.Recent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("read history")
		return c.JSON(http.StatusInternalServerError, handlers.Failure("Could not read search history", err))
	}
	if entries == nil {
		entries = []report.Entry{}
	}
	return c.JSON(http.StatusOK, handlers.Success("Search history", entries))
}

func readUpload(c echo.Context) (string, []byte, error) {
	header, err := c.FormFile(formField)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
			return "", nil, err
		}
		return "", nil, constants.ErrMissingFile
	}
	if header.Filename == "" {
		return "", nil, constants.ErrMissingFile
	}
	src, err := header.Open()
	if err != nil {
		return header.Filename, nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return header.Filename, nil, err
	}
	return header.Filename, data, nil
}

func (h *Handler) fail(c echo.Context, filename string, err error) error {
	kind := constants.KindOf(err)
	status := statusFor(kind)
	event := h.logger.Warn()
	if kind == constants.KindInternal {
		event = h.logger.Error()
	}
	event.Err(err).Str("file", filename).Str("kind", string(kind)).Int("status", status).Msg("search failed")

	if h.errors != nil {
		if name, werr := h.errors.WriteError(filename, kind, err); werr != nil {
			h.logger.Error().Err(werr).Msg("write error report")
		} else if name != "" {
			h.logger.Debug().Str("error_report", name).Msg("error report written")
		}
	}
	if h.legacy {
		status = http.StatusNotFound
	}
	return c.JSON(status, handlers.Failure(messageFor(kind), err))
}

func statusFor(kind constants.Kind) int {
	switch kind {
	case constants.KindMissingFile, constants.KindEmptyFile, constants.KindUnsupportedFormat:
		return http.StatusBadRequest
	case constants.KindNoReadableText:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(kind constants.Kind) string {
	switch kind {
	case constants.KindMissingFile:
		return "No file uploaded"
	case constants.KindEmptyFile:
		return "Uploaded file is empty"
	case constants.KindUnsupportedFormat:
		return "Unsupported file format"
	case constants.KindNoReadableText:
		return "No readable text found in file"
	default:
		return "Error processing file"
	}
}
