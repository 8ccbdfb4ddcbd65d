// Package indexer ingests watch-history files into the content library: storage, keyword index,
// and optional vector index.
package indexer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/embedding"
	"github.com/hyperjump/manabu/internal/ingest"
	"github.com/hyperjump/manabu/internal/keyword"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/storage"
	"github.com/hyperjump/manabu/internal/vector"
)

// summaryWorkers bounds concurrent summary requests during one ingest.
const summaryWorkers = 4

// Enricher fills in metadata for video IDs. Missing IDs are absent from the result.
type Enricher interface {
	Lookup(ctx context.Context, ids []string) (map[string]*models.Video, error)
}

// Summarizer shortens a video description.
type Summarizer interface {
	Summarize(ctx context.Context, description string) (string, error)
}

// Indexer indexes videos into storage, the keyword index, and the vector index when one is set.
type Indexer struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	enricher     Enricher
	summarizer   Summarizer
	embedder     embedding.Embedder
	vectorIndex  vector.VectorIndex
	vectorPath   string
	logger       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithEnricher sets the metadata source used for videos that arrive without titles or descriptions.
func WithEnricher(e Enricher) IndexerOption {
	return func(idx *Indexer) { idx.enricher = e }
}

// WithSummarizer sets the model used to summarize descriptions of newly ingested videos.
func WithSummarizer(s Summarizer) IndexerOption {
	return func(idx *Indexer) { idx.summarizer = s }
}

// WithSemantic embeds every indexed video into vectorIndex and saves the index to path after
// each change. An empty path keeps the index in memory only.
func WithSemantic(e embedding.Embedder, vectorIndex vector.VectorIndex, path string) IndexerOption {
	return func(idx *Indexer) {
		idx.embedder = e
		idx.vectorIndex = vectorIndex
		idx.vectorPath = path
	}
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(storage storage.Storage, keywordIndex keyword.KeywordIndex, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:      storage,
		keywordIndex: keywordIndex,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexVideos stores videos and indexes the stored (merged) rows for keyword search.
func (idx *Indexer) IndexVideos(ctx context.Context, videos []*models.Video) error {
	if len(videos) == 0 {
		return nil
	}
	ids := make([]string, len(videos))
	for i, v := range videos {
		v.Title = Preprocess(v.Title)
		v.Description = strings.TrimSpace(v.Description)
		ids[i] = v.ID
	}
	if err := idx.storage.UpsertVideos(ctx, videos); err != nil {
		return fmt.Errorf("failed to store videos: %w", err)
	}
	stored, err := idx.storage.GetVideos(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to reload videos: %w", err)
	}
	for _, id := range ids {
		v, ok := stored[id]
		if !ok {
			continue
		}
		if err := idx.keywordIndex.Index(ctx, v); err != nil {
			return fmt.Errorf("failed to index video %s: %w", id, err)
		}
	}
	if idx.embedVideos(ctx, stored, ids) > 0 {
		idx.saveVectors()
	}
	return nil
}

// embedVideos adds the stored videos named by ids to the vector index and returns how many were
// added. Failures are logged; keyword search still covers the videos.
func (idx *Indexer) embedVideos(ctx context.Context, stored map[string]*models.Video, ids []string) int {
	if idx.embedder == nil || idx.vectorIndex == nil {
		return 0
	}
	var (
		vecIDs []string
		texts  []string
	)
	for _, id := range ids {
		if v, ok := stored[id]; ok {
			vecIDs = append(vecIDs, id)
			texts = append(texts, v.EmbedText())
		}
	}
	if len(vecIDs) == 0 {
		return 0
	}
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		idx.logger.Warn("video embedding failed", zap.Int("videos", len(vecIDs)), zap.Error(err))
		return 0
	}
	if err := idx.vectorIndex.Add(ctx, vecIDs, vectors); err != nil {
		idx.logger.Warn("vector index add failed", zap.Int("videos", len(vecIDs)), zap.Error(err))
		return 0
	}
	return len(vecIDs)
}

func (idx *Indexer) saveVectors() {
	if idx.vectorIndex == nil || idx.vectorPath == "" {
		return
	}
	if err := idx.vectorIndex.Save(idx.vectorPath); err != nil {
		idx.logger.Warn("vector index save failed", zap.String("path", idx.vectorPath), zap.Error(err))
	}
}

// summarize fills Summary for videos that have a description and no stored summary.
// Failures are logged and leave the summary empty.
func (idx *Indexer) summarize(ctx context.Context, videos []*models.Video) {
	if idx.summarizer == nil || len(videos) == 0 {
		return
	}
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	existing, err := idx.storage.GetVideos(ctx, ids)
	if err != nil {
		idx.logger.Warn("summary lookup failed", zap.Error(err))
		return
	}

	sem := make(chan struct{}, summaryWorkers)
	var wg sync.WaitGroup
	for _, v := range videos {
		if strings.TrimSpace(v.Description) == "" || v.Summary != "" {
			continue
		}
		if old, ok := existing[v.ID]; ok && old.Summary != "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(v *models.Video) {
			defer wg.Done()
			defer func() { <-sem }()
			summary, err := idx.summarizer.Summarize(ctx, v.Description)
			if err != nil {
				idx.logger.Warn("description summary failed", zap.String("id", v.ID), zap.Error(err))
				return
			}
			v.Summary = summary
		}(v)
	}
	wg.Wait()
}

// IngestEntries converts parsed entries to videos, enriches and summarizes them when those
// steps are configured, and indexes them. Enrichment and summary failures are logged and the
// entries are indexed as they are.
func (idx *Indexer) IngestEntries(ctx context.Context, entries []models.WatchEntry) (int, error) {
	videos := make([]*models.Video, len(entries))
	ids := make([]string, len(entries))
	for i, e := range entries {
		videos[i] = &models.Video{ID: e.VideoID, Title: e.Title, WatchedAt: e.WatchedAt}
		ids[i] = e.VideoID
	}
	if idx.enricher != nil && len(ids) > 0 {
		meta, err := idx.enricher.Lookup(ctx, ids)
		if err != nil {
			idx.logger.Warn("video enrichment failed", zap.Int("videos", len(ids)), zap.Error(err))
		}
		for _, v := range videos {
			m, ok := meta[v.ID]
			if !ok {
				continue
			}
			if m.Title != "" {
				v.Title = m.Title
			}
			v.Description = m.Description
			v.Channel = m.Channel
		}
	}
	idx.summarize(ctx, videos)
	if err := idx.IndexVideos(ctx, videos); err != nil {
		return 0, err
	}
	return len(videos), nil
}

// IngestFile parses r as the watch-history file name and indexes its videos.
func (idx *Indexer) IngestFile(ctx context.Context, name string, r io.Reader) (int, error) {
	entries, err := ingest.Parse(name, r)
	if err != nil {
		return 0, err
	}
	n, err := idx.IngestEntries(ctx, entries)
	if err != nil {
		return 0, err
	}
	idx.logger.Debug("indexer file ingested", zap.String("file", name), zap.Int("videos", n))
	return n, nil
}

// IndexFile reads a file from path and ingests it. If allowedExts is non-empty, the file's
// extension must be in the list (case-insensitive).
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return 0, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}
	f, err := os.Open(absPath)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return idx.IngestFile(ctx, absPath, f)
}

// IndexDirectory walks dir recursively and ingests each regular file whose extension is in
// allowedExts (all files when empty). Returns the number of files ingested.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, indexErr := idx.IndexFile(ctx, path, allowedExts); indexErr != nil {
			return indexErr
		}
		n++
		return nil
	})
	return n, err
}

// Reindex rebuilds the keyword index, and the vector index when set, from storage. Used when an
// index was opened empty or was built for another embedder.
func (idx *Indexer) Reindex(ctx context.Context) (int, error) {
	const page = 500
	total, embedded := 0, 0
	defer func() {
		if embedded > 0 {
			idx.saveVectors()
		}
	}()
	for offset := 0; ; offset += page {
		videos, err := idx.storage.ListVideos(ctx, offset, page)
		if err != nil {
			return total, fmt.Errorf("list videos: %w", err)
		}
		byID := make(map[string]*models.Video, len(videos))
		ids := make([]string, len(videos))
		for i, v := range videos {
			if err := idx.keywordIndex.Index(ctx, v); err != nil {
				return total, fmt.Errorf("failed to index video %s: %w", v.ID, err)
			}
			byID[v.ID] = v
			ids[i] = v.ID
			total++
		}
		embedded += idx.embedVideos(ctx, byID, ids)
		if len(videos) < page {
			return total, nil
		}
	}
}

// DeleteVideo removes a video from storage and both indexes. Returns storage.ErrNotFound
// (wrapped) when the library has no such video.
func (idx *Indexer) DeleteVideo(ctx context.Context, id string) error {
	idx.logger.Debug("indexer deleting video", zap.String("id", id))
	if err := idx.storage.DeleteVideo(ctx, id); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if err := idx.keywordIndex.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	if idx.vectorIndex != nil {
		if err := idx.vectorIndex.Remove(ctx, []string{id}); err != nil {
			return fmt.Errorf("failed to delete from vector index: %w", err)
		}
		idx.saveVectors()
	}
	return nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// Preprocess collapses runs of whitespace in text to single spaces and trims it.
func Preprocess(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
