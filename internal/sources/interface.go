package sources

import (
	"context"

	"github.com/azure/yt-comment-analyzer/internal/models"
)

// FetchResult is one video's metadata plus its flattened comment stream
type FetchResult struct {
	Video    *models.Video
	Comments []models.RawComment
	Stats    models.FetchStats
}

// VideoFetcher defines the contract for upstream comment sources
type VideoFetcher interface {
	GetName() string
	FetchVideo(ctx context.Context, videoID string) (*FetchResult, error)
	IsEnabled() bool
}
