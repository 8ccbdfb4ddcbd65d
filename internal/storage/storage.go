// Package storage defines the persistence interface for the content library.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/manabu/internal/models"
)

// ErrNotFound is returned when a video is not in the library.
var ErrNotFound = errors.New("video not found")

// Storage defines content library persistence operations.
type Storage interface {
	// UpsertVideos inserts videos or updates the existing rows with the same ID.
	UpsertVideos(ctx context.Context, videos []*models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	GetVideos(ctx context.Context, ids []string) (map[string]*models.Video, error)
	ListVideos(ctx context.Context, offset, limit int) ([]*models.Video, error)
	DeleteVideo(ctx context.Context, id string) error
	CountVideos(ctx context.Context) (int64, error)

	Close() error
}
