// Package vector ranks the corpus against a query embedding by cosine
// similarity. Everything lives in memory; the corpus matrix is built once
// and only read afterwards.
package vector

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"docsim/internal/constants"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Match is one ranked corpus row.
type Match struct {
	Index int
	Score float64
}

// Index holds the corpus embeddings as an N x D matrix with their norms
// precomputed, so a search is one matrix-vector product.
type Index struct {
	matrix *mat.Dense
	norms  []float64
	rows   int
	dim    int
}

// NewIndex copies vectors into a dense matrix. All rows must share a dimension.
func NewIndex(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return &Index{}, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: row 0 is empty", ErrDimensionMismatch)
	}
	data := make([]float64, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
		for _, x := range v {
			data = append(data, float64(x))
		}
	}
	matrix := mat.NewDense(len(vectors), dim, data)
	norms := make([]float64, len(vectors))
	for i := range norms {
		norms[i] = mat.Norm(matrix.RowView(i), 2)
	}
	return &Index{matrix: matrix, norms: norms, rows: len(vectors), dim: dim}, nil
}

func (ix *Index) Len() int { return ix.rows }

func (ix *Index) Dimension() int { return ix.dim }

// Search returns the topK most similar rows, best first. Equal scores keep
// corpus order. topK <= 0 means DefaultTopK; a topK beyond the corpus size
// returns every row.
func (ix *Index) Search(query []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = constants.DefaultTopK
	}
	if ix.rows == 0 {
		return []Match{}, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d, corpus has %d", ErrDimensionMismatch, len(query), ix.dim)
	}

	q := mat.NewVecDense(ix.dim, toFloat64(query))
	qNorm := mat.Norm(q, 2)
	dots := mat.NewVecDense(ix.rows, nil)
	dots.MulVec(ix.matrix, q)

	matches := make([]Match, ix.rows)
	for i := range matches {
		matches[i] = Match{Index: i, Score: cosineFrom(dots.AtVec(i), qNorm, ix.norms[i])}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Rank is a one-shot Search over corpus.
func Rank(query []float32, corpus [][]float32, topK int) ([]Match, error) {
	ix, err := NewIndex(corpus)
	if err != nil {
		return nil, err
	}
	return ix.Search(query, topK)
}

// Cosine similarity of a and b. A zero vector is similar to nothing.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	va := mat.NewVecDense(len(a), toFloat64(a))
	vb := mat.NewVecDense(len(b), toFloat64(b))
	return cosineFrom(mat.Dot(va, vb), mat.Norm(va, 2), mat.Norm(vb, 2)), nil
}

func cosineFrom(dot, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	// rounding can push identical unit vectors a hair past 1
	return math.Max(-1, math.Min(1, dot/(normA*normB)))
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
