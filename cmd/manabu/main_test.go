package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/cli"
	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/render"
)

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./library.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
research:
  render_mode: ordered
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Research.RenderMode != config.RenderOrdered {
		t.Errorf("render mode = %q", cfg.Research.RenderMode)
	}
}

// newServices starts fake decomposition, content, and video endpoints.
func newServices(t *testing.T, subTopics string) *config.Config {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/generate-sub-topics", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.DecomposeResponse{SubTopics: &subTopics})
	})
	mux.HandleFunc("/query-subtopic", func(w http.ResponseWriter, r *http.Request) {
		var req models.SubTopicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(models.ContentResponse{Results: []models.ContentResult{
			{Title: "Notes on " + req.SubTopic, Score: 1.5},
		}})
	})
	mux.HandleFunc("/search_youtube", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.VideoResponse{Videos: []models.VideoResult{
			{Title: "Intro", VideoID: "dQw4w9WgXcQ"},
		}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Services: config.ServicesConfig{
		DecomposeURL: srv.URL + "/generate-sub-topics",
		ContentURL:   srv.URL + "/query-subtopic",
		VideoURL:     srv.URL + "/search_youtube",
	}}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestResearchTopic_text(t *testing.T) {
	cfg := newServices(t, "Goroutines\nChannels\n")
	deps := researchDependencies(cfg, zap.NewNop())

	var out bytes.Buffer
	summary, err := researchTopic(context.Background(), deps, cfg,
		researchOptions{Format: cli.OutputText, Plain: true}, "go concurrency", &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.SubTopics != 2 || summary.Rendered != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	got := out.String()
	for _, want := range []string{"Notes on Goroutines", "Notes on Channels", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "2 sub-topics, 0 unavailable"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestResearchTopic_json(t *testing.T) {
	cfg := newServices(t, "Ownership")
	deps := researchDependencies(cfg, zap.NewNop())

	var out bytes.Buffer
	summary, err := researchTopic(context.Background(), deps, cfg,
		researchOptions{Format: cli.OutputJSON}, "rust", &out)
	if err != nil {
		t.Fatal(err)
	}

	var events []render.Event
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var ev render.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("invalid line %q: %v", sc.Text(), err)
		}
		if ev.RunID != summary.RunID {
			t.Errorf("event run id = %q, want %q", ev.RunID, summary.RunID)
		}
		events = append(events, ev)
	}
	if len(events) == 0 || events[len(events)-1].Type != render.EventDone {
		t.Fatalf("last event should be done: %+v", events)
	}
	var records int
	for _, ev := range events {
		if ev.Record != nil {
			records++
		}
	}
	if records != 1 {
		t.Errorf("records = %d, want 1", records)
	}
}

func TestResearchTopic_emptyTopic(t *testing.T) {
	cfg := newServices(t, "unused")
	var out bytes.Buffer
	_, err := researchTopic(context.Background(), researchDependencies(cfg, zap.NewNop()), cfg,
		researchOptions{Format: cli.OutputText, Plain: true}, "   ", &out)
	if err != models.ErrEmptyTopic {
		t.Errorf("err = %v, want ErrEmptyTopic", err)
	}
}

func TestResearchExitCode_interrupted(t *testing.T) {
	cfg := newServices(t, "Goroutines\nChannels")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := researchTopic(ctx, researchDependencies(cfg, zap.NewNop()), cfg,
		researchOptions{Format: cli.OutputText, Plain: true}, "go concurrency", &out)
	if err == nil {
		t.Fatal("expected the cancelled run to fail")
	}
	if got := researchExitCode(ctx, err); got != exitInterrupted {
		t.Errorf("exit code = %d, want %d", got, exitInterrupted)
	}
}

func TestResearchExitCode(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"empty topic", models.ErrEmptyTopic, exitUsage},
		{"failure", errors.New("connection refused"), exitFailure},
		{"canceled below", fmt.Errorf("decompose: %w", context.Canceled), exitInterrupted},
	}
	for _, tt := range tests {
		if got := researchExitCode(ctx, tt.err); got != tt.want {
			t.Errorf("%s: exit code = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{
		DatabasePath:    filepath.Join(dir, "db", "library.db"),
		BleveIndexPath:  filepath.Join(dir, "bleve"),
		VectorIndexPath: filepath.Join(dir, "vectors.bin"),
	}}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestInitializeComponents_withoutKeys(t *testing.T) {
	cfg := testConfig(t)
	c, err := initializeComponents(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	deps := c.Dependencies()
	if deps.Videos != nil {
		t.Error("video search should be disabled without an api key")
	}
	if deps.Decomposer != nil {
		t.Error("decomposer should be disabled without llm config")
	}
	if deps.Content == nil || deps.Ingester == nil || deps.Remover == nil || deps.Library == nil {
		t.Errorf("library services should be wired: %+v", deps)
	}
}

func TestRebuildIndexesIfStale(t *testing.T) {
	cfg := testConfig(t)
	c, err := initializeComponents(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	videos := []*models.Video{
		{ID: "aaaaaaaaaaa", Title: "Goroutines explained"},
		{ID: "bbbbbbbbbbb", Title: "Channel patterns"},
	}
	if err := c.Storage.UpsertVideos(ctx, videos); err != nil {
		t.Fatal(err)
	}
	if err := rebuildIndexesIfStale(ctx, c, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	docs, err := c.KeywordIndex.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if docs != 2 {
		t.Errorf("doc count = %d, want 2", docs)
	}

	results, err := c.Engine.SearchContent(ctx, "goroutines")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Title != "Goroutines explained" {
		t.Errorf("results = %+v", results)
	}
}

func TestInitializeComponents_vectorIndexSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	c, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if c.Embedder.Model() != "hash-512" {
		t.Errorf("embedder without llm credentials = %s, want hash-512", c.Embedder.Model())
	}
	if err := c.Indexer.IndexVideos(ctx, []*models.Video{{ID: "aaaaaaaaaaa", Title: "Goroutines explained"}}); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c, err = initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.VectorIndex.Size() != 1 {
		t.Errorf("vector index size after restart = %d, want 1", c.VectorIndex.Size())
	}
}

func TestInitializeComponents_rebuildsVectorsForNewEmbedder(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	c, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Indexer.IndexVideos(ctx, []*models.Video{
		{ID: "aaaaaaaaaaa", Title: "Goroutines explained"},
		{ID: "bbbbbbbbbbb", Title: "Channel patterns"},
	}); err != nil {
		t.Fatal(err)
	}
	c.Close()

	cfg.Embedding.Dimensions = 128
	c, err = initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.VectorIndex.Size() != 2 {
		t.Errorf("vector index size = %d, want 2 after rebuild", c.VectorIndex.Size())
	}
	results, err := c.Engine.SearchContent(ctx, "channel")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Title != "Channel patterns" {
		t.Errorf("results = %+v", results)
	}
}

func TestIngestFiles(t *testing.T) {
	cfg := testConfig(t)
	c, err := initializeComponents(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	dir := t.TempDir()
	file := filepath.Join(dir, "history.txt")
	if err := os.WriteFile(file, []byte("aaaaaaaaaaa\nbbbbbbbbbbb\n"), 0600); err != nil {
		t.Fatal(err)
	}
	inbox := filepath.Join(dir, "inbox")
	if err := os.MkdirAll(inbox, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "more.txt"), []byte("https://www.youtube.com/watch?v=ccccccccccc\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	files, err := ingestFiles(context.Background(), c.Indexer, []string{file, inbox}, cfg.Watch.Extensions, &out)
	if err != nil {
		t.Fatal(err)
	}
	if files != 2 {
		t.Errorf("files = %d, want 2", files)
	}
	n, err := c.Storage.CountVideos(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("stored videos = %d, want 3", n)
	}
	if !strings.Contains(out.String(), "history.txt: 2 videos") {
		t.Errorf("output = %q", out.String())
	}

	if _, err := ingestFiles(context.Background(), c.Indexer, []string{filepath.Join(dir, "missing.txt")}, nil, &out); err == nil {
		t.Error("expected error for missing file")
	}
}
