// Package enrichment talks to the optional LLM classification service
package enrichment

import (
	"context"
	"errors"

	"github.com/azure/yt-comment-analyzer/internal/models"
)

// ErrMalformedResponse is returned when the service answers with content that
// does not decode into the required shape
var ErrMalformedResponse = errors.New("malformed enrichment response")

// Result is a validated per-comment classification
type Result struct {
	Category   models.Category
	Sentiment  models.Sentiment
	Topics     []string
	Confidence float64 // 0..1
	Reasoning  string
}

// TopicSummary is the corpus-level digest produced from a sample of comments
type TopicSummary struct {
	Topics  []string `json:"topics"`
	Summary string   `json:"summary"`
}

// Enricher defines the contract for enrichment collaborators. Callers must
// fall back to heuristic classification on any error.
type Enricher interface {
	AnalyzeComment(ctx context.Context, text string) (*Result, error)
	GenerateTopicSummary(ctx context.Context, texts []string) (*TopicSummary, error)
	IsEnabled() bool
}
