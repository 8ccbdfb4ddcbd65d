package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/backend"
	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/embedding"
	"github.com/hyperjump/manabu/internal/indexer"
	"github.com/hyperjump/manabu/internal/keyword"
	"github.com/hyperjump/manabu/internal/llm"
	"github.com/hyperjump/manabu/internal/search"
	"github.com/hyperjump/manabu/internal/storage"
	"github.com/hyperjump/manabu/internal/vector"
	"github.com/hyperjump/manabu/internal/watcher"
	"github.com/hyperjump/manabu/internal/youtube"
)

// Components holds the library and service components behind the backend.
type Components struct {
	Storage      storage.Storage
	KeywordIndex keyword.KeywordIndex
	VectorIndex  vector.VectorIndex
	Embedder     embedding.Embedder
	Indexer      *indexer.Indexer
	Engine       *search.Engine
	Videos       backend.VideoSearcher
	Decomposer   backend.TopicDecomposer
}

// Close releases storage and index resources.
func (c *Components) Close() {
	if c.KeywordIndex != nil {
		c.KeywordIndex.Close()
	}
	if c.VectorIndex != nil {
		c.VectorIndex.Close()
	}
	if c.Storage != nil {
		c.Storage.Close()
	}
}

// Dependencies returns the backend endpoint services. Unconfigured services stay nil.
func (c *Components) Dependencies() backend.Dependencies {
	return backend.Dependencies{
		Decomposer: c.Decomposer,
		Content:    c.Engine,
		Videos:     c.Videos,
		Ingester:   c.Indexer,
		Remover:    c.Indexer,
		Library:    c.Storage,
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	emb, err := embedding.New(cfg.Embedding, cfg.LLM)
	if err != nil {
		keywordIndex.Close()
		store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	vectorIndex, err := openVectorIndex(cfg.Storage.VectorIndexPath, emb, logger)
	if err != nil {
		keywordIndex.Close()
		store.Close()
		return nil, err
	}

	c := &Components{
		Storage:      store,
		KeywordIndex: keywordIndex,
		VectorIndex:  vectorIndex,
		Embedder:     emb,
		Engine: search.NewEngine(store, keywordIndex, search.Options{
			TopK:             cfg.Search.TopK,
			TitleBoost:       cfg.Search.TitleBoost,
			FuzzyFallback:    cfg.Search.FuzzyFallback == nil || *cfg.Search.FuzzyFallback,
			KeywordWeight:    cfg.Search.KeywordWeight,
			SemanticWeight:   cfg.Search.SemanticWeight,
			MinSemanticScore: cfg.Search.MinSemanticScore,
		}).WithSemantic(emb, vectorIndex),
	}

	idxOpts := []indexer.IndexerOption{
		indexer.WithLogger(logger),
		indexer.WithSemantic(emb, vectorIndex, cfg.Storage.VectorIndexPath),
	}
	yt, err := youtube.New(ctx, cfg.YouTube)
	switch {
	case err == nil:
		c.Videos = youtube.NewCachedSearcher(yt, cfg.YouTube.CacheTTL(), logger)
		idxOpts = append(idxOpts, indexer.WithEnricher(yt))
	case errors.Is(err, youtube.ErrNoAPIKey):
		logger.Warn("youtube api key not set, video search disabled")
	default:
		c.Close()
		return nil, fmt.Errorf("failed to initialize youtube client: %w", err)
	}

	dec, err := llm.New(cfg.LLM)
	switch {
	case err == nil:
		c.Decomposer = dec
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("llm not configured, sub-topic generation disabled")
	default:
		c.Close()
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	if c.Decomposer != nil && !cfg.LLM.DisableSummaries {
		sum, err := llm.NewSummarizer(cfg.LLM)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
		}
		idxOpts = append(idxOpts, indexer.WithSummarizer(sum))
	}
	c.Indexer = indexer.NewIndexer(store, keywordIndex, idxOpts...)
	logger.Info("content search ready",
		zap.String("embedding_model", emb.Model()),
		zap.Int("vectors", vectorIndex.Size()),
	)

	if err := rebuildIndexesIfStale(ctx, c, logger); err != nil {
		logger.Warn("index rebuild failed", zap.Error(err))
	}
	return c, nil
}

// openVectorIndex loads the saved vector index for emb. A file written by another embedder is
// ignored so the next rebuild replaces it.
func openVectorIndex(path string, emb embedding.Embedder, logger *zap.Logger) (*vector.MemoryIndex, error) {
	vi, err := vector.NewMemoryIndex(emb.Dimensions(), emb.Model())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if err := vi.Load(path); err != nil {
		if errors.Is(err, vector.ErrIncompatible) {
			logger.Info("vector index built for another embedder, rebuilding", zap.Error(err))
		} else {
			logger.Warn("vector index unreadable, rebuilding", zap.String("path", path), zap.Error(err))
		}
		if vi, err = vector.NewMemoryIndex(emb.Dimensions(), emb.Model()); err != nil {
			return nil, fmt.Errorf("failed to initialize vector index: %w", err)
		}
	}
	return vi, nil
}

// rebuildIndexesIfStale repopulates the keyword and vector indexes from the library database
// when either holds fewer videos than storage.
func rebuildIndexesIfStale(ctx context.Context, c *Components, logger *zap.Logger) error {
	stored, err := c.Storage.CountVideos(ctx)
	if err != nil || stored == 0 {
		return err
	}
	docs, err := c.KeywordIndex.DocCount()
	if err != nil {
		return err
	}
	if int64(docs) >= stored && (c.VectorIndex == nil || int64(c.VectorIndex.Size()) >= stored) {
		return nil
	}
	n, err := c.Indexer.Reindex(ctx)
	if err != nil {
		return err
	}
	logger.Info("indexes rebuilt", zap.Int("videos", n))
	return nil
}

func runBackend() {
	cfg, logger := mustLoad("backend")
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	exts := cfg.Watch.Extensions
	if len(cfg.Watch.Directories) > 0 {
		idx := components.Indexer
		watchSvc := watcher.NewWatcher(cfg.Watch.Directories, exts, func(path string) {
			n, err := idx.IndexFile(ctx, path, exts)
			if err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("watch ingest", zap.String("path", path), zap.Int("videos", n))
		}, watcher.WithLogger(logger))
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := backend.NewServer(components.Dependencies(), &cfg.Backend, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Backend failed", zap.Error(err))
		}
	}()

	waitForSignal()
	logger.Info("Shutting down...")
	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = srv.Stop(stopCtx)
}
