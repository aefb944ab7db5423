package vector

import (
	"errors"
	"math"
	"testing"

	"docsim/internal/constants"
)

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tc := range cases {
		got, err := Cosine(tc.a, tc.b)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
	if _, err := Cosine([]float32{1}, []float32{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRankSelfSimilarity(t *testing.T) {
	corpus := [][]float32{{1, 0, 0}, {0.6, 0.8, 0}, {0, 0, 1}}
	for i, row := range corpus {
		matches, err := Rank(row, corpus, 1)
		if err != nil {
			t.Fatal(err)
		}
		if matches[0].Index != i || math.Abs(matches[0].Score-1) > 1e-9 {
			t.Fatalf("row %d ranked %+v first", i, matches[0])
		}
	}
}

func TestRankOrderingAndTies(t *testing.T) {
	corpus := [][]float32{
		{0, 1},   // 0
		{1, 0},   // 1 exact
		{1, 1},   // 2
		{2, 0},   // 3 exact, tie with 1
		{-1, 0},  // 4
		{1, 0.1}, // 5
	}
	matches, err := Rank([]float32{1, 0}, corpus, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != constants.DefaultTopK {
		t.Fatalf("default topK gave %d results", len(matches))
	}
	wantOrder := []int{1, 3, 5, 2, 0}
	for i, m := range matches {
		if m.Index != wantOrder[i] {
			t.Fatalf("position %d: got index %d, want %d (all: %+v)", i, m.Index, wantOrder[i], matches)
		}
		if i > 0 && m.Score > matches[i-1].Score {
			t.Fatal("scores are not descending")
		}
	}
}

func TestRankTopKBeyondCorpus(t *testing.T) {
	corpus := [][]float32{{1, 0}, {0, 1}}
	matches, err := Rank([]float32{1, 1}, corpus, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected all rows, got %d", len(matches))
	}
}

func TestRankEmptyCorpus(t *testing.T) {
	matches, err := Rank([]float32{1}, nil, 5)
	if err != nil || len(matches) != 0 {
		t.Fatalf("got %v, %v", matches, err)
	}
}

func TestRankDimensionMismatch(t *testing.T) {
	if _, err := Rank([]float32{1, 0, 0}, [][]float32{{1, 0}}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := NewIndex([][]float32{{1, 0}, {1}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearchIsDeterministic(t *testing.T) {
	ix, err := NewIndex([][]float32{{0.3, 0.7}, {0.7, 0.3}, {0.5, 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	first, _ := ix.Search([]float32{0.6, 0.4}, 3)
	for n := 0; n < 5; n++ {
		again, _ := ix.Search([]float32{0.6, 0.4}, 3)
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d differs at %d", n, i)
			}
		}
	}
}

func TestZeroQueryScoresZero(t *testing.T) {
	matches, err := Rank([]float32{0, 0}, [][]float32{{1, 0}, {0, 1}}, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if m.Score != 0 {
			t.Fatalf("expected 0, got %v", m.Score)
		}
	}
	if matches[0].Index != 0 {
		t.Fatal("ties must keep corpus order")
	}
}
