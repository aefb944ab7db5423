package embedding

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel  = "text-embedding-004"
	defaultGeminiKeyEnv = "GEMINI_API_KEY"
	geminiMaxBatch      = 100 // batchEmbedContents rejects more than this
)

type Gemini struct {
	client    *genai.Client
	model     string
	batchSize int
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaultGeminiKeyEnv
	}
	key := os.Getenv(keyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", keyEnv)
	}
	clientConfig := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	batch := cfg.BatchSize
	if batch <= 0 || batch > geminiMaxBatch {
		batch = geminiMaxBatch
	}
	return &Gemini{client: client, model: model, batchSize: batch}, nil
}

func (g *Gemini) Name() string { return TypeGemini + ":" + g.model }

func (g *Gemini) Close() error { return nil }

func (g *Gemini) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	return inBatches(ctx, texts, g.batchSize, g.embed)
}

func (g *Gemini) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{
			Parts: []*genai.Part{{Text: text}},
			Role:  "user",
		}
	}
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e != nil {
			vectors[i] = e.Values
		}
	}
	if err := checkBatch(vectors, len(texts)); err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	return vectors, nil
}
