package vector

import (
	"testing"

	"docsim/internal/constants"
)

func TestClassify(t *testing.T) {
	cases := map[float64]string{
		1:      constants.StatusDuplicate,
		0.9001: constants.StatusDuplicate,
		0.90:   constants.StatusUnique,
		0.5:    constants.StatusUnique,
		-0.3:   constants.StatusUnique,
	}
	for score, want := range cases {
		if got := Classify(score); got != want {
			t.Errorf("Classify(%v) = %q, want %q", score, got, want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := map[float64]string{
		1:       "100.0%",
		0.87654: "87.65%",
		0.5:     "50.0%",
		0.1234:  "12.34%",
		0.95:    "95.0%",
		0:       "0.0%",
		-0.25:   "-25.0%",
	}
	for score, want := range cases {
		if got := FormatPercent(score); got != want {
			t.Errorf("FormatPercent(%v) = %q, want %q", score, got, want)
		}
	}
}

func TestResults(t *testing.T) {
	entries := []constants.Abstract{
		{Abstract: "Sample abstract 1", Category: "Category A", HasCategory: true},
		{Abstract: "Sample abstract 2"},
	}
	got := Results([]Match{{Index: 0, Score: 1}, {Index: 1, Score: 0.4}, {Index: 7, Score: 0.1}}, entries)
	if len(got) != 2 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].Category != "Category A" || got[0].Status != constants.StatusDuplicate || got[0].SimilarityScore != "100.0%" {
		t.Fatalf("unexpected first row %+v", got[0])
	}
	if got[1].Category != constants.NotAvailable || got[1].Status != constants.StatusUnique {
		t.Fatalf("unexpected second row %+v", got[1])
	}
}
