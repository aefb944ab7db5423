package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "all-minilm"
)

type ollamaRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Ollama talks to a local ollama server's /api/embed endpoint.
type Ollama struct {
	url       string
	model     string
	batchSize int
	client    *http.Client
}

func NewOllama(cfg Config) *Ollama {
	base := cfg.BaseURL
	if base == "" {
		base = defaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Ollama{
		url:       strings.TrimRight(base, "/") + "/api/embed",
		model:     model,
		batchSize: cfg.BatchSize,
		client:    &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Name() string { return TypeOllama + ":" + o.model }

func (o *Ollama) Close() error { return nil }

func (o *Ollama) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	return inBatches(ctx, texts, o.batchSize, o.embed)
}

func (o *Ollama) embed(ctx context.Context, texts []string) ([][]float32, error) {
	jsonData, err := json.Marshal(ollamaRequest{Model: o.model, Input: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama embed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var embeddings ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("ollama embed: decode: %w", err)
	}
	if err := checkBatch(embeddings.Embeddings, len(texts)); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	return embeddings.Embeddings, nil
}
