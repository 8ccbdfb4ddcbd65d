// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/manabu/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		channel TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		watched_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_videos_watched_at ON videos(watched_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return addColumnIfMissing(db, "videos", "summary", "TEXT NOT NULL DEFAULT ''")
}

// addColumnIfMissing upgrades databases created before column existed.
func addColumnIfMissing(db *sql.DB, table, column, decl string) error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

const videoColumns = `id, title, description, channel, summary, watched_at, created_at, updated_at`

// UpsertVideos inserts or updates videos in a transaction. Empty incoming fields keep the
// stored value so a later, poorer source never erases enriched metadata.
func (s *SQLiteStorage) UpsertVideos(ctx context.Context, videos []*models.Video) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO videos (`+videoColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = CASE WHEN excluded.title != '' THEN excluded.title ELSE videos.title END,
			description = CASE WHEN excluded.description != '' THEN excluded.description ELSE videos.description END,
			channel = CASE WHEN excluded.channel != '' THEN excluded.channel ELSE videos.channel END,
			summary = CASE WHEN excluded.summary != '' THEN excluded.summary ELSE videos.summary END,
			watched_at = COALESCE(excluded.watched_at, videos.watched_at),
			updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, v := range videos {
		v.CreatedAt = now
		v.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx,
			v.ID, v.Title, v.Description, v.Channel, v.Summary, nullTime(v.WatchedAt), v.CreatedAt, v.UpdatedAt,
		); err != nil {
			return fmt.Errorf("upsert video %s: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

// GetVideo returns a video by ID.
func (s *SQLiteStorage) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id,
	)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetVideos returns the videos with the given IDs keyed by ID. Missing IDs are absent from the map.
func (s *SQLiteStorage) GetVideos(ctx context.Context, ids []string) (map[string]*models.Video, error) {
	out := make(map[string]*models.Video, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out[v.ID] = v
	}
	return out, rows.Err()
}

// ListVideos returns videos, most recently watched first, with offset and limit.
func (s *SQLiteStorage) ListVideos(ctx context.Context, offset, limit int) ([]*models.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+`
		 FROM videos ORDER BY watched_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// DeleteVideo removes a video by ID. Returns ErrNotFound when no row matched.
func (s *SQLiteStorage) DeleteVideo(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// CountVideos returns the number of videos in the library.
func (s *SQLiteStorage) CountVideos(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row scanner) (*models.Video, error) {
	var v models.Video
	var watched sql.NullTime
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.Channel, &v.Summary, &watched, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if watched.Valid {
		v.WatchedAt = watched.Time
	}
	return &v, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
