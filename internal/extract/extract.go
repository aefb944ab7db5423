// Package extract turns uploaded PDF, DOCX and plain text files into a single
// normalized string ready to be embedded.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"docsim/internal/constants"
	"docsim/internal/utils"
)

const (
	FormatPDF  = ".pdf"
	FormatDOCX = ".docx"
	FormatTXT  = ".txt"
)

// Format returns the lower-cased extension of filename, so "REPORT.PDF" and
// "report.pdf" pick the same strategy.
func Format(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}

// Supported reports whether filename has an extension Extract understands.
func Supported(filename string) bool {
	switch Format(filename) {
	case FormatPDF, FormatDOCX, FormatTXT:
		return true
	}
	return false
}

// Extract returns the normalized text of the uploaded file. An empty string
// with a nil error means the file parsed fine but held no readable text;
// callers decide how to report that.
func Extract(filename string, data []byte) (string, error) {
	var (
		raw string
		err error
	)
	switch Format(filename) {
	case FormatPDF:
		raw, err = extractPDF(data)
	case FormatDOCX:
		raw, err = extractDOCX(data)
	case FormatTXT:
		raw = extractTXT(data)
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return "", err
	}
	return Normalize(raw), nil
}

// Normalize applies NFKC, drops control characters and collapses every run of
// whitespace into one space.
func Normalize(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return strings.Join(strings.Fields(normed), " ")
}

// Preview - the first PreviewLength runes, used in reports and responses
func Preview(text string) string {
	return utils.Truncate(text, constants.PreviewLength)
}

func extractTXT(data []byte) string {
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	return strings.TrimPrefix(text, "\uFEFF")
}
