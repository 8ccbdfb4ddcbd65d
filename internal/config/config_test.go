package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
services:
  decompose_url: "http://decomposer.internal/generate-sub-topics"
  timeout_seconds: 5
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Services.DecomposeURL != "http://decomposer.internal/generate-sub-topics" {
		t.Errorf("decompose_url: got %s", cfg.Services.DecomposeURL)
	}
	if cfg.Services.Timeout() != 5*time.Second {
		t.Errorf("timeout: got %v", cfg.Services.Timeout())
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Research.RenderMode != RenderIncremental {
		t.Errorf("render_mode: got %q, want %q", cfg.Research.RenderMode, RenderIncremental)
	}
}

func TestLoad_invalidRenderMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
research:
  render_mode: "sometimes"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid render_mode")
	}
}

func TestLoad_envOverridesSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
youtube:
  api_key: "from-file"
llm:
  api_key: "from-file"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvYouTubeAPIKey, "yt-env")
	t.Setenv(EnvLLMAPIKey, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.YouTube.APIKey != "yt-env" {
		t.Errorf("youtube api key: got %q", cfg.YouTube.APIKey)
	}
	if cfg.LLM.APIKey != "from-file" {
		t.Errorf("llm api key should keep file value when env is empty, got %q", cfg.LLM.APIKey)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db/library.db"
watch:
  directories: ["./inbox"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "library.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	wantWatch := filepath.Join(dir, "inbox")
	if cfg.Watch.Directories[0] != wantWatch {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], wantWatch)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.Backend.Port != 5000 {
		t.Errorf("default backend port: got %d", cfg.Backend.Port)
	}
	if cfg.Services.VideoURL != "http://localhost:5000/search_youtube" {
		t.Errorf("default video url: got %s", cfg.Services.VideoURL)
	}
	if cfg.YouTube.MaxResults != 3 {
		t.Errorf("default youtube max_results: got %d, want 3", cfg.YouTube.MaxResults)
	}
	if cfg.YouTube.CacheTTL() != time.Hour {
		t.Errorf("default cache ttl: got %v", cfg.YouTube.CacheTTL())
	}
	if cfg.LLM.Prompt != DefaultLLMPrompt {
		t.Error("llm prompt should default")
	}
	if len(cfg.Watch.Extensions) != 2 || cfg.Watch.Extensions[0] != ".html" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Research: ResearchConfig{RenderMode: RenderOrdered},
		YouTube:  YouTubeConfig{MaxResults: 7},
	}
	ApplyDefaults(cfg)
	if cfg.Research.RenderMode != RenderOrdered {
		t.Errorf("render_mode overwritten: %q", cfg.Research.RenderMode)
	}
	if cfg.YouTube.MaxResults != 7 {
		t.Errorf("max_results overwritten: %d", cfg.YouTube.MaxResults)
	}
}

func TestApplyDefaults_semanticSearch(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Embedding.Provider != EmbeddingAuto || cfg.Embedding.Dimensions != 512 {
		t.Errorf("default embedding: got %+v", cfg.Embedding)
	}
	if cfg.Search.KeywordWeight != 0.5 || cfg.Search.SemanticWeight != 0.5 {
		t.Errorf("default weights: got %v/%v", cfg.Search.KeywordWeight, cfg.Search.SemanticWeight)
	}
	if cfg.Search.FuzzyFallback == nil || !*cfg.Search.FuzzyFallback {
		t.Error("fuzzy fallback should default to on")
	}
	if cfg.Storage.VectorIndexPath == "" {
		t.Error("vector index path should default")
	}
	if cfg.LLM.SummaryPrompt != DefaultSummaryPrompt {
		t.Error("summary prompt should default")
	}
}

func TestApplyDefaults_keepsKeywordOnlyWeights(t *testing.T) {
	fuzzy := false
	cfg := &Config{Search: SearchConfig{KeywordWeight: 1, FuzzyFallback: &fuzzy}}
	ApplyDefaults(cfg)
	if cfg.Search.KeywordWeight != 1 || cfg.Search.SemanticWeight != 0 {
		t.Errorf("weights overwritten: %v/%v", cfg.Search.KeywordWeight, cfg.Search.SemanticWeight)
	}
	if *cfg.Search.FuzzyFallback {
		t.Error("explicit fuzzy_fallback: false overwritten")
	}
}

func TestLoad_invalidEmbeddingProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
embedding:
  provider: "onnx"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown embedding provider")
	}
}
