// Package embedding turns text into dense vectors. Every backend satisfies
// Provider and is picked by name through New.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	TypeONNX   = "onnx"
	TypeOllama = "ollama"
	TypeOpenAI = "openai"
	TypeGemini = "gemini"
	TypeTFIDF  = "tfidf"
)

var (
	ErrUnknownProvider   = errors.New("unknown embedding provider")
	ErrNotFitted         = errors.New("embedder has not been fitted on a corpus")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyEmbedding    = errors.New("empty embedding")
)

// Provider encodes a batch of texts into one vector per text, in order.
// Implementations must be safe for concurrent Encode calls and return the
// same vector for the same input.
type Provider interface {
	Name() string
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// Fitter is implemented by providers that learn their vocabulary from the
// corpus before they can encode anything.
type Fitter interface {
	Fit(corpus []string) error
}

type Config struct {
	Type       string        `yaml:"type"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	APIKeyEnv  string        `yaml:"api_key_env"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	BatchSize  int           `yaml:"batch_size"`
	ONNX       ONNXConfig    `yaml:"onnx"`
}

type ONNXConfig struct {
	LibraryPath   string   `yaml:"library_path"`
	ModelPath     string   `yaml:"model_path"`
	TokenizerPath string   `yaml:"tokenizer_path"`
	MaxSeqLen     int      `yaml:"max_seq_len"`
	Dimension     int      `yaml:"dimension"`
	InputNames    []string `yaml:"input_names"`
	OutputName    string   `yaml:"output_name"`
}

// New builds the provider named by cfg.Type.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Type {
	case TypeONNX:
		return NewONNX(cfg.ONNX)
	case TypeOllama:
		return NewOllama(cfg), nil
	case TypeOpenAI:
		return NewOpenAI(cfg)
	case TypeGemini:
		return NewGemini(ctx, cfg)
	case TypeTFIDF:
		return NewTFIDF(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Type)
	}
}

// checkBatch makes sure a backend gave back one non-empty vector per input
// and that they all share a dimension.
func checkBatch(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("expected %d embeddings, got %d", want, len(vectors))
	}
	dim := -1
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w at position %d", ErrEmptyEmbedding, i)
		}
		if dim == -1 {
			dim = len(v)
			continue
		}
		if len(v) != dim {
			return fmt.Errorf("%w: position %d has %d, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}

// inBatches calls encode on consecutive slices of at most size texts and
// concatenates the results.
func inBatches(ctx context.Context, texts []string, size int, encode func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	if size <= 0 {
		size = len(texts)
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+size, len(texts))
		vectors, err := encode(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}
