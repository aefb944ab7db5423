// Package corpus loads the reference abstracts and embeds them once at
// startup. A Store never changes after Build returns.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docsim/internal/constants"
)

var ErrCorpusLoad = errors.New("corpus load failed")

var (
	abstractColumns = []string{"abstract", "abstracts", "text", "content", "summary", "body"}
	categoryColumns = []string{"category", "categories", "label", "class", "subject"}
)

// Options picks the CSV columns explicitly. Empty fields fall back to
// header auto-detection.
type Options struct {
	AbstractColumn string `yaml:"abstract_column"`
	CategoryColumn string `yaml:"category_column"`
}

// LoadCSV reads a header-first CSV (or TSV, by extension) of abstracts.
// Rows with a blank abstract are skipped. A missing category column or a
// blank category cell leaves the category absent.
func LoadCSV(path string, opts Options) ([]constants.Abstract, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusLoad, err)
	}
	defer f.Close()

	delimiter := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		delimiter = '\t'
	}
	entries, err := Parse(f, delimiter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorpusLoad, path, err)
	}
	return entries, nil
}

// Parse is LoadCSV over an already open reader.
func Parse(r io.Reader, delimiter rune, opts Options) ([]constants.Abstract, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = cleanCell(header[i])
	}

	abstractIdx, err := findColumn(header, opts.AbstractColumn, abstractColumns)
	if err != nil {
		return nil, fmt.Errorf("abstract column: %w", err)
	}
	categoryIdx := -1
	if opts.CategoryColumn != "" {
		if categoryIdx, err = findColumn(header, opts.CategoryColumn, nil); err != nil {
			return nil, fmt.Errorf("category column: %w", err)
		}
	} else if idx, err := findColumn(header, "", categoryColumns); err == nil {
		categoryIdx = idx
	}

	var entries []constants.Abstract
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if abstractIdx >= len(record) {
			continue
		}
		text := cleanCell(record[abstractIdx])
		if text == "" {
			continue
		}
		entry := constants.Abstract{Abstract: text}
		if categoryIdx >= 0 && categoryIdx < len(record) {
			if category := cleanCell(record[categoryIdx]); category != "" {
				entry.Category, entry.HasCategory = category, true
			}
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, errors.New("no abstracts found")
	}
	return entries, nil
}

// findColumn returns the index of explicit if set, otherwise of the first
// header matching one of candidates. Matching ignores case.
func findColumn(header []string, explicit string, candidates []string) (int, error) {
	if explicit != "" {
		candidates = []string{explicit}
	}
	for _, want := range candidates {
		for i, name := range header {
			if strings.EqualFold(name, want) {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("none of %v in header %v", candidates, header)
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
}
