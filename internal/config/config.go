// Package config provides configuration loading and structs for the Manabu server, backend, and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the config file.
const (
	EnvYouTubeAPIKey = "MANABU_YOUTUBE_API_KEY"
	EnvLLMAPIKey     = "MANABU_LLM_API_KEY"
)

// Embedding providers.
const (
	EmbeddingAuto   = "auto"
	EmbeddingOpenAI = "openai"
	EmbeddingHash   = "hash"
)

// Render modes for the aggregation coordinator.
const (
	RenderIncremental = "incremental"
	RenderOrdered     = "ordered"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Services ServicesConfig `yaml:"services"`
	Research ResearchConfig `yaml:"research"`
	Storage  StorageConfig  `yaml:"storage"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds settings for the controller HTTP server (form page + research stream).
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BackendConfig holds settings for the backend HTTP server that hosts the
// decomposition, content search, and video search endpoints.
type BackendConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RateLimit is the sustained requests per second allowed per client address.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
	// MaxUploadMB caps the multipart upload size.
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

// ServicesConfig holds the remote endpoints called by the research pipeline.
type ServicesConfig struct {
	DecomposeURL string `yaml:"decompose_url"`
	ContentURL   string `yaml:"content_url"`
	VideoURL     string `yaml:"video_url"`
	// TimeoutSeconds bounds each remote request. Zero means the default.
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	HostAllowlist  []string `yaml:"host_allowlist"`
}

// Timeout returns the per-request timeout.
func (s *ServicesConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ResearchConfig holds settings for the aggregation pipeline.
type ResearchConfig struct {
	// RenderMode is "incremental" (render each sub-topic as it settles) or
	// "ordered" (wait for all sub-topics, render in decomposition order).
	RenderMode string `yaml:"render_mode"`
}

// StorageConfig holds paths for the content library database and indexes.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
}

// YouTubeConfig holds YouTube Data API settings for the video search backend.
type YouTubeConfig struct {
	APIKey          string `yaml:"api_key"`
	MaxResults      int    `yaml:"max_results"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
	// Endpoint overrides the API base URL (used against local fakes).
	Endpoint string `yaml:"endpoint"`
}

// CacheTTL returns the video search cache expiration.
func (y *YouTubeConfig) CacheTTL() time.Duration {
	return time.Duration(y.CacheTTLMinutes) * time.Minute
}

// LLMConfig holds the chat completion settings used for topic decomposition and
// description summaries.
type LLMConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	Prompt        string `yaml:"prompt"`
	SummaryPrompt string `yaml:"summary_prompt"`
	// DisableSummaries skips summarizing descriptions at ingest.
	DisableSummaries bool `yaml:"disable_summaries"`
}

// EmbeddingConfig selects how library videos and sub-topics are embedded. The API provider
// reuses the LLM credentials.
type EmbeddingConfig struct {
	// Provider is "auto", "openai", or "hash".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// CacheSize is the number of query embeddings kept in memory. Zero disables the cache.
	CacheSize int `yaml:"cache_size"`
}

// SearchConfig tunes library content search.
type SearchConfig struct {
	TopK       int     `yaml:"top_k"`
	TitleBoost float64 `yaml:"title_boost"`
	// KeywordWeight and SemanticWeight blend normalized keyword and vector scores.
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	// MinSemanticScore drops vector hits below this cosine similarity.
	MinSemanticScore float64 `yaml:"min_semantic_score"`
	FuzzyFallback    *bool   `yaml:"fuzzy_fallback"`
}

// WatchConfig holds inbox directory watch settings for automatic ingestion.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, expands paths, applies
// environment overrides, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// ApplyEnv overrides secrets with values from the environment when set.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvYouTubeAPIKey); v != "" {
		cfg.YouTube.APIKey = v
	}
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
}

// Validate rejects values that defaults cannot repair.
func Validate(cfg *Config) error {
	switch cfg.Research.RenderMode {
	case RenderIncremental, RenderOrdered:
	default:
		return fmt.Errorf("invalid research.render_mode %q (want %q or %q)",
			cfg.Research.RenderMode, RenderIncremental, RenderOrdered)
	}
	switch cfg.Embedding.Provider {
	case EmbeddingAuto, EmbeddingOpenAI, EmbeddingHash:
	default:
		return fmt.Errorf("invalid embedding.provider %q (want %q, %q, or %q)",
			cfg.Embedding.Provider, EmbeddingAuto, EmbeddingOpenAI, EmbeddingHash)
	}
	if cfg.Search.KeywordWeight < 0 || cfg.Search.SemanticWeight < 0 {
		return fmt.Errorf("search weights must not be negative")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
