package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"docsim/internal/constants"
	"docsim/internal/corpus"
	"docsim/internal/embedding"
)

type recordingReporter struct {
	calls int
	err   error
}

func (r *recordingReporter) Write(_ context.Context, _, _ string, _ []constants.SimilarityResult) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return "report_test.txt", nil
}

func newHandler(t *testing.T, reporter Reporter) *Handler {
	t.Helper()
	entries := []constants.Abstract{
		{Abstract: "Sample abstract 1", Category: "Category A", HasCategory: true},
		{Abstract: "Sample abstract 2", Category: "Category B", HasCategory: true},
		{Abstract: "Unrelated paper on protein folding"},
	}
	provider := embedding.NewTFIDF()
	store, err := corpus.Build(context.Background(), provider, entries)
	if err != nil {
		t.Fatal(err)
	}
	return NewHandler(provider, store, reporter, 0, zerolog.Nop())
}

func TestSearchDuplicate(t *testing.T) {
	reporter := &recordingReporter{}
	h := newHandler(t, reporter)
	out, err := h.Search(context.Background(), "upload.txt", []byte("Sample abstract 1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 3 {
		t.Fatalf("expected every corpus row, got %d", len(out.Results))
	}
	top := out.Results[0]
	if top.Category != "Category A" || top.Status != constants.StatusDuplicate {
		t.Fatalf("unexpected top result %+v", top)
	}
	for _, r := range out.Results[1:] {
		if r.Status != constants.StatusUnique {
			t.Fatalf("only the exact match should be a duplicate: %+v", r)
		}
	}
	if out.Results[2].Category != constants.NotAvailable {
		t.Fatalf("missing category should read N/A, got %q", out.Results[2].Category)
	}
	if out.Preview != "Sample abstract 1" || out.ReportFile != "report_test.txt" || reporter.calls != 1 {
		t.Fatalf("unexpected outcome %+v (reporter calls %d)", out, reporter.calls)
	}
}

func TestSearchIsIdempotent(t *testing.T) {
	h := newHandler(t, nil)
	first, err := h.Search(context.Background(), "a.txt", []byte("abstract about protein"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.Search(context.Background(), "a.txt", []byte("abstract about protein"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Results, second.Results) {
		t.Fatalf("results differ:\n%+v\n%+v", first.Results, second.Results)
	}
	if first.ReportFile != "" {
		t.Fatal("no reporter means no report file")
	}
}

func TestSearchErrors(t *testing.T) {
	h := newHandler(t, nil)
	cases := []struct {
		name     string
		filename string
		data     []byte
		want     constants.Kind
	}{
		{"no filename", "", []byte("x"), constants.KindMissingFile},
		{"empty bytes", "a.txt", nil, constants.KindEmptyFile},
		{"empty bytes beats bad extension", "a.xyz", []byte{}, constants.KindEmptyFile},
		{"unsupported", "a.xyz", []byte("hello"), constants.KindUnsupportedFormat},
		{"whitespace only", "a.txt", []byte("  \n\t "), constants.KindNoReadableText},
		{"corrupt docx", "a.docx", []byte("not a zip"), constants.KindInternal},
		{"corrupt pdf", "a.pdf", []byte("%PDF-1.4 junk"), constants.KindInternal},
	}
	for _, tc := range cases {
		_, err := h.Search(context.Background(), tc.filename, tc.data)
		if got := constants.KindOf(err); got != tc.want {
			t.Errorf("%s: kind %q, want %q (err: %v)", tc.name, got, tc.want, err)
		}
	}
}

func TestSearchReporterFailureIsInternal(t *testing.T) {
	reporter := &recordingReporter{err: errors.New("disk full")}
	h := newHandler(t, reporter)
	_, err := h.Search(context.Background(), "a.txt", []byte("Sample abstract 2"))
	if !errors.Is(err, constants.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestSearchCanceledContext(t *testing.T) {
	h := newHandler(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Search(ctx, "a.txt", []byte("Sample abstract 2"))
	if !errors.Is(err, context.Canceled) || constants.KindOf(err) != constants.KindInternal {
		t.Fatalf("expected canceled internal error, got %v", err)
	}
}

func TestSearchMatchesCorpusRowWrittenDifferently(t *testing.T) {
	ligatures := "\uFB01nancial \uFB01rms \uFB01le pro\uFB01t reports"
	decomposed := "Cafe\u0301 nai\u0308ve re\u0301sume\u0301 study"
	entries := []constants.Abstract{
		{Abstract: ligatures, Category: "Finance", HasCategory: true},
		{Abstract: decomposed, Category: "Food", HasCategory: true},
		{Abstract: "Unrelated paper\non protein\tfolding", Category: "Biology", HasCategory: true},
	}
	provider := embedding.NewTFIDF()
	store, err := corpus.Build(context.Background(), provider, entries)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(provider, store, nil, 0, zerolog.Nop())

	for _, tc := range []struct {
		text, category string
	}{
		{ligatures, "Finance"},
		{decomposed, "Food"},
		{"Unrelated paper\non protein\tfolding", "Biology"},
	} {
		out, err := h.Search(context.Background(), "q.txt", []byte(tc.text))
		if err != nil {
			t.Fatal(err)
		}
		top := out.Results[0]
		if top.Category != tc.category || top.Status != constants.StatusDuplicate || top.SimilarityScore != "100.0%" {
			t.Errorf("%q: unexpected top result %+v", tc.text, top)
		}
	}
}
