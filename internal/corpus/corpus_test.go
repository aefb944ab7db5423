package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docsim/internal/constants"
	"docsim/internal/embedding"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSVDetectsColumns(t *testing.T) {
	path := writeFile(t, "corpus.csv", "\uFEFFid,Abstract,Category\n"+
		"1,Sample abstract 1,Category A\n"+
		"2,\"Sample abstract 2, with comma\",\n"+
		"3,   ,Category C\n")
	entries, err := LoadCSV(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected blank abstract to be skipped, got %d entries", len(entries))
	}
	if entries[0].Category != "Category A" || !entries[0].HasCategory {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if entries[1].HasCategory || entries[1].CategoryOrDefault() != constants.NotAvailable {
		t.Fatalf("blank category should be absent, got %+v", entries[1])
	}
	if entries[1].Abstract != "Sample abstract 2, with comma" {
		t.Fatalf("quoted cell mangled: %q", entries[1].Abstract)
	}
}

func TestLoadTSVWithoutCategory(t *testing.T) {
	path := writeFile(t, "corpus.TSV", "text\tyear\nfirst text\t2020\nsecond text\t2021\n")
	entries, err := LoadCSV(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].HasCategory {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestLoadCSVExplicitColumns(t *testing.T) {
	path := writeFile(t, "c.csv", "paper,topic\nhello,greetings\n")
	entries, err := LoadCSV(path, Options{AbstractColumn: "paper", CategoryColumn: "TOPIC"})
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Abstract != "hello" || entries[0].Category != "greetings" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if _, err := LoadCSV(path, Options{AbstractColumn: "paper", CategoryColumn: "missing"}); err == nil {
		t.Fatal("expected error for missing explicit category column")
	}
}

func TestLoadCSVFailures(t *testing.T) {
	cases := map[string]string{
		"no abstract column": "title,category\nx,y\n",
		"header only":        "abstract,category\n",
		"empty file":         "",
	}
	for name, content := range cases {
		path := writeFile(t, "c.csv", content)
		if _, err := LoadCSV(path, Options{}); !errors.Is(err, ErrCorpusLoad) {
			t.Errorf("%s: expected ErrCorpusLoad, got %v", name, err)
		}
	}
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), Options{}); !errors.Is(err, ErrCorpusLoad) {
		t.Fatalf("missing file: expected ErrCorpusLoad, got %v", err)
	}
}

func sampleEntries() []constants.Abstract {
	return []constants.Abstract{
		{Abstract: "Sample abstract 1", Category: "Category A", HasCategory: true},
		{Abstract: "Sample abstract 2", Category: "Category B", HasCategory: true},
	}
}

func TestBuildAndSearch(t *testing.T) {
	ctx := context.Background()
	provider := embedding.NewTFIDF()
	store, err := Build(ctx, provider, sampleEntries())
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 2 || len(store.Embeddings()) != 2 || store.Dimension() != provider.Dimension() {
		t.Fatalf("store shape: len=%d dim=%d", store.Len(), store.Dimension())
	}
	if store.Model() != embedding.TypeTFIDF {
		t.Fatalf("model %q", store.Model())
	}

	query, err := provider.Encode(ctx, []string{"Sample abstract 1"})
	if err != nil {
		t.Fatal(err)
	}
	results, err := store.Search(query[0], 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both entries, got %d", len(results))
	}
	top := results[0]
	if top.Category != "Category A" || top.Status != constants.StatusDuplicate || top.SimilarityScore != "100.0%" {
		t.Fatalf("unexpected top result %+v", top)
	}
	if results[1].Status != constants.StatusUnique {
		t.Fatalf("second entry should be unique, got %+v", results[1])
	}
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) Close() error { return nil }
func (failingProvider) Encode(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("model unavailable")
}

func TestBuildFailsFast(t *testing.T) {
	_, err := Build(context.Background(), failingProvider{}, sampleEntries())
	if !errors.Is(err, ErrCorpusLoad) || !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected wrapped ErrCorpusLoad, got %v", err)
	}
	if _, err := Build(context.Background(), embedding.NewTFIDF(), nil); !errors.Is(err, ErrCorpusLoad) {
		t.Fatalf("empty corpus: expected ErrCorpusLoad, got %v", err)
	}
}
