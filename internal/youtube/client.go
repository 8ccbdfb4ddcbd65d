// Package youtube wraps the YouTube Data API for video search and library enrichment.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/models"
)

// lookupBatch is the maximum number of IDs videos.list accepts per call.
const lookupBatch = 50

var (
	// ErrNoAPIKey is returned by New when no API key is configured.
	ErrNoAPIKey = errors.New("youtube: no API key configured")
	// ErrQuotaExceeded indicates the daily API quota is used up.
	ErrQuotaExceeded = errors.New("youtube: quota exceeded")
	// ErrUnauthorized indicates an invalid API key.
	ErrUnauthorized = errors.New("youtube: invalid API key")
)

// Client calls the YouTube Data API v3.
type Client struct {
	svc        *yt.Service
	maxResults int64
}

// New creates a client from cfg. Extra options are appended after the configured ones.
func New(ctx context.Context, cfg config.YouTubeConfig, opts ...option.ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	all := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		all = append(all, option.WithEndpoint(cfg.Endpoint))
	}
	all = append(all, opts...)
	svc, err := yt.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	maxResults := int64(cfg.MaxResults)
	if maxResults <= 0 {
		maxResults = 3
	}
	return &Client{svc: svc, maxResults: maxResults}, nil
}

// SearchVideos returns the top videos for query.
func (c *Client) SearchVideos(ctx context.Context, query string) ([]models.VideoResult, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(c.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError(err)
	}
	videos := make([]models.VideoResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		title := ""
		if item.Snippet != nil {
			title = html.UnescapeString(item.Snippet.Title)
		}
		videos = append(videos, models.VideoResult{Title: title, VideoID: item.Id.VideoId})
	}
	return videos, nil
}

// Lookup fetches snippet metadata for ids. Unknown or private videos are absent from the result.
func (c *Client) Lookup(ctx context.Context, ids []string) (map[string]*models.Video, error) {
	out := make(map[string]*models.Video, len(ids))
	for start := 0; start < len(ids); start += lookupBatch {
		end := start + lookupBatch
		if end > len(ids) {
			end = len(ids)
		}
		resp, err := c.svc.Videos.List([]string{"snippet"}).
			Id(ids[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return out, wrapError(err)
		}
		for _, item := range resp.Items {
			if item.Snippet == nil {
				continue
			}
			out[item.Id] = &models.Video{
				ID:          item.Id,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				Channel:     item.Snippet.ChannelTitle,
			}
		}
	}
	return out, nil
}

func wrapError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		for _, e := range gerr.Errors {
			if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
				return ErrQuotaExceeded
			}
		}
		return ErrUnauthorized
	default:
		return err
	}
}
