package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"docsim/internal/config"
	"docsim/internal/extract"
	"docsim/internal/logging"
	"docsim/internal/utils"
)

// Builds a corpus csv from a folder of documents. Each file becomes one
// abstract, its parent folder name becomes the category.
//
//	papers/
//	  biology/a.pdf   -> category "biology"
//	  b.docx          -> no category
func main() {
	in := flag.String("in", "", "folder of .pdf/.docx/.txt documents")
	out := flag.String("out", "data/abstracts.csv", "csv file to write")
	maxChars := flag.Int("max-chars", 0, "truncate each abstract to this many characters (0 keeps all)")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel extractions")
	flag.Parse()

	logger := logging.New(config.LogConfig{Level: "info"}, os.Stderr)
	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: corpusgen -in papers/ [-out data/abstracts.csv]")
		os.Exit(2)
	}

	timeStart := time.Now()
	rows, err := collect(*in, *workers, *maxChars, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("collect documents")
	}
	if err := writeCSV(*out, rows); err != nil {
		logger.Fatal().Err(err).Msg("write corpus")
	}
	logger.Info().Int("rows", len(rows)).Str("out", *out).Dur("took", time.Since(timeStart)).Msg("corpus written")
}

type row struct {
	source   string
	abstract string
	category string
}

func collect(root string, workers, maxChars int, logger zerolog.Logger) ([]row, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && extract.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan row)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				r, ok := extractRow(root, path, maxChars, logger)
				if ok {
					results <- r
				}
			}
		}()
	}
	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var rows []row
	for r := range results {
		rows = append(rows, r)
	}
	// workers finish in any order, keep the csv stable between runs
	sort.Slice(rows, func(i, j int) bool { return rows[i].source < rows[j].source })
	return rows, nil
}

func extractRow(root, path string, maxChars int, logger zerolog.Logger) (row, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("file", path).Msg("skip unreadable file")
		return row{}, false
	}
	text, err := extract.Extract(path, data)
	if err != nil || text == "" {
		logger.Warn().Err(err).Str("file", path).Msg("skip file without text")
		return row{}, false
	}
	if maxChars > 0 {
		text = utils.Truncate(text, maxChars)
	}
	rel, _ := filepath.Rel(root, path)
	category := ""
	if dir := filepath.Dir(rel); dir != "." {
		category = filepath.Base(dir)
	}
	return row{source: filepath.ToSlash(rel), abstract: text, category: category}, true
}

func writeCSV(path string, rows []row) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(file)
	_ = w.Write([]string{"abstract", "category", "source"})
	for _, r := range rows {
		_ = w.Write([]string{r.abstract, r.category, r.source})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
