package remote

import (
	"context"

	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/models"
)

// Services bundles the three service clients sharing one HTTP client.
type Services struct {
	Decompose *DecomposeClient
	Content   *ContentClient
	Videos    *VideoClient
}

// NewServices builds the service clients from cfg.
func NewServices(cfg config.ServicesConfig) *Services {
	client := NewClient(Options{Timeout: cfg.Timeout(), HostAllowlist: cfg.HostAllowlist})
	return &Services{
		Decompose: NewDecomposeClient(client, cfg.DecomposeURL),
		Content:   NewContentClient(client, cfg.ContentURL),
		Videos:    NewVideoClient(client, cfg.VideoURL),
	}
}

// DecomposeClient calls the decomposition service.
type DecomposeClient struct {
	client *Client
	url    string
}

// NewDecomposeClient creates a decomposition client posting to url.
func NewDecomposeClient(client *Client, url string) *DecomposeClient {
	return &DecomposeClient{client: client, url: url}
}

// Decompose sends {topic} and returns the raw reply.
func (d *DecomposeClient) Decompose(ctx context.Context, topic string) (*models.DecomposeResponse, error) {
	var resp models.DecomposeResponse
	if err := d.client.PostJSON(ctx, d.url, models.DecomposeRequest{Topic: topic}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ContentClient calls the semantic-search (primary) service.
type ContentClient struct {
	client *Client
	url    string
}

// NewContentClient creates a content search client posting to url.
func NewContentClient(client *Client, url string) *ContentClient {
	return &ContentClient{client: client, url: url}
}

// SearchContent sends {subTopic} and returns the "results" list (empty when absent).
func (c *ContentClient) SearchContent(ctx context.Context, sub models.SubTopic) ([]models.ContentResult, error) {
	var resp models.ContentResponse
	if err := c.client.PostJSON(ctx, c.url, models.SubTopicRequest{SubTopic: string(sub)}, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []models.ContentResult{}, nil
	}
	return resp.Results, nil
}

// VideoClient calls the video-search (secondary) service.
type VideoClient struct {
	client *Client
	url    string
}

// NewVideoClient creates a video search client posting to url.
func NewVideoClient(client *Client, url string) *VideoClient {
	return &VideoClient{client: client, url: url}
}

// SearchVideos sends {subTopic} and returns the "videos" list (empty when absent).
func (v *VideoClient) SearchVideos(ctx context.Context, sub models.SubTopic) ([]models.VideoResult, error) {
	var resp models.VideoResponse
	if err := v.client.PostJSON(ctx, v.url, models.SubTopicRequest{SubTopic: string(sub)}, &resp); err != nil {
		return nil, err
	}
	if resp.Videos == nil {
		return []models.VideoResult{}, nil
	}
	return resp.Videos, nil
}
