package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"docsim/internal/app"
	"docsim/internal/config"
	"docsim/internal/logging"
	"docsim/internal/pipeline"
	"docsim/internal/utils"
)

// Runs the same search the server does, against files on disk.
func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	topK := flag.Int("top", 0, "number of matches to show (default from config)")
	asJSON := flag.Bool("json", false, "print results as json")
	noReport := flag.Bool("no-report", false, "do not write report files")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: cli [-config config.yaml] [-top 5] [-json] [-no-report] file.pdf [file.docx ...]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if *topK > 0 {
		cfg.Search.TopK = *topK
	}
	if *noReport {
		cfg.Report.Enabled = false
	}
	logger := logging.New(cfg.Log, os.Stderr)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	ok := searchFiles(ctx, a, flag.Args(), *asJSON, logger)
	a.Close()
	if !ok {
		os.Exit(1)
	}
}

func searchFiles(ctx context.Context, a *app.App, paths []string, asJSON bool, logger zerolog.Logger) bool {
	ok := true
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("read file")
			ok = false
			continue
		}
		outcome, err := a.Pipeline.Search(ctx, path, data)
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("search failed")
			ok = false
			continue
		}
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(outcome)
			continue
		}
		reportPath := ""
		if outcome.ReportFile != "" {
			reportPath = a.Reports.Path(outcome.ReportFile)
		}
		printTable(os.Stdout, path, reportPath, outcome)
	}
	return ok
}

func printTable(out io.Writer, path, reportPath string, outcome *pipeline.Outcome) {
	fmt.Fprintf(out, "\n%s\n", path)
	if reportPath != "" {
		fmt.Fprintf(out, "report: %s\n", reportPath)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSCORE\tSTATUS\tCATEGORY\tABSTRACT")
	for i, r := range outcome.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, r.SimilarityScore, r.Status, r.Category, utils.Truncate(r.Abstract, 60))
	}
	w.Flush()
}
