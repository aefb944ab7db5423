package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultOpenAIURL    = "https://api.openai.com/v1"
	defaultOpenAIModel  = "text-embedding-3-small"
	defaultOpenAIKeyEnv = "OPENAI_API_KEY"
)

// OpenAI is a client for any OpenAI compatible /embeddings endpoint. Each
// call is made once unless maxRetries is set, then 429 and 5xx answers are
// retried with exponential backoff, honouring Retry-After.
type OpenAI struct {
	url        string
	apiKey     string
	model      string
	batchSize  int
	maxRetries int
	client     *http.Client
}

func NewOpenAI(cfg Config) (*OpenAI, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaultOpenAIKeyEnv
	}
	key := os.Getenv(keyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", keyEnv)
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultOpenAIURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &OpenAI{
		url:        strings.TrimRight(base, "/") + "/embeddings",
		apiKey:     key,
		model:      model,
		batchSize:  cfg.BatchSize,
		maxRetries: retries,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (c *OpenAI) Name() string { return TypeOpenAI + ":" + c.model }

func (c *OpenAI) Close() error { return nil }

func (c *OpenAI) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	return inBatches(ctx, texts, c.batchSize, c.embed)
}

type openAIRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openAIResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *OpenAI) embed(ctx context.Context, texts []string) ([][]float32, error) {
	data, err := json.Marshal(openAIRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		vectors, wait, err := c.do(ctx, data, attempt)
		if err == nil {
			if err := checkBatch(vectors, len(texts)); err != nil {
				return nil, fmt.Errorf("openai embeddings: %w", err)
			}
			return vectors, nil
		}
		lastErr = err
		if wait < 0 || attempt == c.maxRetries {
			break
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// do performs one attempt. A negative wait means the error is final.
func (c *OpenAI) do(ctx context.Context, body []byte, attempt int) ([][]float32, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, -1, ctx.Err()
		}
		return nil, retryDelay(attempt), fmt.Errorf("openai embeddings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		wait := retryDelay(attempt)
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
			wait = time.Duration(secs) * time.Second
		}
		return nil, wait, fmt.Errorf("openai embeddings failed: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, -1, fmt.Errorf("openai embeddings failed: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, retryDelay(attempt), fmt.Errorf("openai embeddings: decode: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, -1, errors.New("openai embeddings: no embedding returned")
	}
	sort.SliceStable(out.Data, func(i, j int) bool { return out.Data[i].Index < out.Data[j].Index })
	vectors := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}
	return vectors, 0, nil
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// exponential backoff capped at 5s
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second || d <= 0 {
		d = 5 * time.Second
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
