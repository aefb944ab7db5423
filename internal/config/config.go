// Package config loads the service configuration: defaults, then an optional
// YAML file, then DOCSIM_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"docsim/internal/corpus"
	"docsim/internal/embedding"
	"docsim/internal/report"
)

const defaultPath = "config.yaml"

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	AllowOrigins      []string      `yaml:"allow_origins"`
	BodyLimit         string        `yaml:"body_limit"`
	LegacyStatusCodes bool          `yaml:"legacy_status_codes"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type CorpusConfig struct {
	Path           string `yaml:"path"`
	corpus.Options `yaml:",inline"`
}

type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

type ReportConfig struct {
	Enabled       bool `yaml:"enabled"`
	report.Config `yaml:",inline"`
}

type Config struct {
	Server   ServerConfig     `yaml:"server"`
	Log      LogConfig        `yaml:"log"`
	Corpus   CorpusConfig     `yaml:"corpus"`
	Embedder embedding.Config `yaml:"embedder"`
	Search   SearchConfig     `yaml:"search"`
	Report   ReportConfig     `yaml:"report"`
}

// Default is the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Report: ReportConfig{Enabled: true},
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads path, or DOCSIM_CONFIG, or ./config.yaml. Only the implicit
// ./config.yaml may be missing; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv("DOCSIM_CONFIG")
	}
	if path == "" {
		path, explicit = defaultPath, false
	}

	cfg := &Config{Report: ReportConfig{Enabled: true}}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DOCSIM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DOCSIM_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("DOCSIM_EMBEDDER"); v != "" {
		cfg.Embedder.Type = v
	}
	if v := os.Getenv("DOCSIM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DOCSIM_REPORT_DIR"); v != "" {
		cfg.Report.Dir = v
	}
	if v, err := strconv.ParseBool(os.Getenv("DOCSIM_LEGACY_STATUS_CODES")); err == nil {
		cfg.Server.LegacyStatusCodes = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = []string{"http://localhost:4200"}
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = "20M"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "data/abstracts.csv"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = embedding.TypeONNX
	}
	if cfg.Embedder.ONNX.ModelPath == "" {
		cfg.Embedder.ONNX.ModelPath = "models/all-MiniLM-L6-v2/model.onnx"
	}
	if cfg.Embedder.ONNX.TokenizerPath == "" {
		cfg.Embedder.ONNX.TokenizerPath = "models/all-MiniLM-L6-v2/tokenizer.json"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Report.Dir == "" {
		cfg.Report.Dir = "outputs"
	}
}

// Validate reports the first setting that would make startup fail later.
func (c *Config) Validate() error {
	switch c.Embedder.Type {
	case embedding.TypeONNX, embedding.TypeOllama, embedding.TypeOpenAI, embedding.TypeGemini, embedding.TypeTFIDF:
	default:
		return fmt.Errorf("config: %w: %q", embedding.ErrUnknownProvider, c.Embedder.Type)
	}
	if strings.TrimSpace(c.Corpus.Path) == "" {
		return errors.New("config: corpus.path is empty")
	}
	if c.Search.TopK < 0 {
		return fmt.Errorf("config: search.top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Embedder.MaxRetries < 0 {
		return fmt.Errorf("config: embedder.max_retries must not be negative, got %d", c.Embedder.MaxRetries)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
