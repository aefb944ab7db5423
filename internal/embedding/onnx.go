package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultMaxSeqLen = 256
	defaultDimension = 384 // all-MiniLM-L6-v2
)

var (
	ortOnce    sync.Once
	ortInitErr error
)

func initRuntime(libraryPath string) error {
	ortOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNX runs a sentence-transformer model in-process through onnxruntime.
// Token embeddings are mean pooled over the attention mask and L2 normalized.
type ONNX struct {
	session    *ort.DynamicAdvancedSession
	tk         *tokenizer.Tokenizer
	modelID    string
	inputNames []string
	maxSeqLen  int
	dim        int
	mu         sync.Mutex
}

func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, errors.New("onnx embedder needs model_path and tokenizer_path")
	}
	for _, path := range []string{cfg.ModelPath, cfg.TokenizerPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("onnx embedder: %w", err)
		}
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = defaultMaxSeqLen
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = defaultDimension
	}
	if len(cfg.InputNames) == 0 {
		cfg.InputNames = []string{"input_ids", "attention_mask", "token_type_ids"}
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "last_hidden_state"
	}
	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("init onnxruntime: %w", err)
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, cfg.InputNames, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &ONNX{
		session:    session,
		tk:         tk,
		modelID:    filepath.Base(cfg.ModelPath),
		inputNames: cfg.InputNames,
		maxSeqLen:  cfg.MaxSeqLen,
		dim:        cfg.Dimension,
	}, nil
}

func (o *ONNX) Name() string { return TypeONNX + ":" + o.modelID }

func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}

// Encode runs one text at a time, so no padding is ever fed to the model.
func (o *ONNX) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := o.encodeOne(text)
		if err != nil {
			return nil, fmt.Errorf("onnx encode text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (o *ONNX) encodeOne(text string) ([]float32, error) {
	enc, err := o.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	ids, mask, types := enc.Ids, enc.AttentionMask, enc.TypeIds
	seqLen := min(len(ids), o.maxSeqLen)
	if seqLen == 0 {
		return nil, errors.New("tokenizer produced no tokens")
	}

	feeds := map[string][]int64{
		"input_ids":      toInt64(ids, seqLen),
		"attention_mask": toInt64(mask, seqLen),
		"token_type_ids": toInt64(types, seqLen),
	}
	shape := ort.NewShape(1, int64(seqLen))
	inputs := make([]ort.Value, 0, len(o.inputNames))
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	for _, name := range o.inputNames {
		data, ok := feeds[name]
		if !ok {
			return nil, fmt.Errorf("unsupported model input %q", name)
		}
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("input tensor %s: %w", name, err)
		}
		inputs = append(inputs, tensor)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(o.dim)))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer output.Destroy()

	o.mu.Lock()
	if o.session == nil {
		o.mu.Unlock()
		return nil, errors.New("onnx session is closed")
	}
	err = o.session.Run(inputs, []ort.Value{output})
	o.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	return meanPool(output.GetData(), feeds["attention_mask"], o.dim), nil
}

// meanPool averages the token vectors whose mask is set and L2 normalizes
// the result.
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	sum := make([]float64, dim)
	count := 0.0
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for d, v := range row {
			sum[d] += float64(v)
		}
		count++
	}
	out := make([]float32, dim)
	if count == 0 {
		return out
	}
	norm := 0.0
	for d := range sum {
		sum[d] /= count
		norm += sum[d] * sum[d]
	}
	norm = math.Sqrt(norm)
	for d := range sum {
		if norm > 0 {
			out[d] = float32(sum[d] / norm)
		} else {
			out[d] = float32(sum[d])
		}
	}
	return out
}

func toInt64(values []int, n int) []int64 {
	out := make([]int64, n)
	for i := 0; i < n && i < len(values); i++ {
		out[i] = int64(values[i])
	}
	return out
}
