package corpus

import (
	"context"
	"fmt"

	"docsim/internal/constants"
	"docsim/internal/embedding"
	"docsim/internal/extract"
	"docsim/internal/vector"
)

// Store is the corpus entries plus one embedding row per entry.
type Store struct {
	entries    []constants.Abstract
	embeddings [][]float32
	index      *vector.Index
	model      string
}

// Build fits the provider if it needs fitting, then encodes every abstract
// exactly once. Abstracts pass through extract.Normalize first, the same
// step uploaded text goes through. Any failure is wrapped in ErrCorpusLoad.
func Build(ctx context.Context, provider embedding.Provider, entries []constants.Abstract) (*Store, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: corpus is empty", ErrCorpusLoad)
	}
	own := make([]constants.Abstract, len(entries))
	texts := make([]string, len(entries))
	for i, e := range entries {
		e.Abstract = extract.Normalize(e.Abstract)
		own[i], texts[i] = e, e.Abstract
	}
	if fitter, ok := provider.(embedding.Fitter); ok {
		if err := fitter.Fit(texts); err != nil {
			return nil, fmt.Errorf("%w: fit %s: %w", ErrCorpusLoad, provider.Name(), err)
		}
	}
	vectors, err := provider.Encode(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: encode with %s: %w", ErrCorpusLoad, provider.Name(), err)
	}
	if len(vectors) != len(entries) {
		return nil, fmt.Errorf("%w: %d embeddings for %d entries", ErrCorpusLoad, len(vectors), len(entries))
	}
	index, err := vector.NewIndex(vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusLoad, err)
	}
	return &Store{entries: own, embeddings: vectors, index: index, model: provider.Name()}, nil
}

func (s *Store) Len() int { return len(s.entries) }

func (s *Store) Dimension() int { return s.index.Dimension() }

// Model names the provider the embeddings came from.
func (s *Store) Model() string { return s.model }

func (s *Store) Entry(i int) constants.Abstract { return s.entries[i] }

// Entries must not be modified by the caller.
func (s *Store) Entries() []constants.Abstract { return s.entries }

// Embeddings is parallel to Entries and equally read-only.
func (s *Store) Embeddings() [][]float32 { return s.embeddings }

// Search ranks the corpus against query and returns client ready rows.
func (s *Store) Search(query []float32, topK int) ([]constants.SimilarityResult, error) {
	matches, err := s.index.Search(query, topK)
	if err != nil {
		return nil, err
	}
	return vector.Results(matches, s.entries), nil
}
