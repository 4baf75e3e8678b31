package ingestion

import (
	"encoding/json"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/models"
)

// Metrics holds ingestion metrics
type Metrics struct {
	TotalRuns           int            `json:"total_runs"`
	TotalComments       int            `json:"total_comments"`
	LastRun             time.Time      `json:"last_run"`
	LastVideoID         string         `json:"last_video_id"`
	LastRunDuration     string         `json:"last_run_duration"`
	CategoryBreakdown   map[string]int `json:"category_breakdown"`
	SentimentBreakdown  map[string]int `json:"sentiment_breakdown"`
	ErrorCount          int            `json:"error_count"`
	EnrichmentSuccesses int            `json:"enrichment_successes"`
	EnrichmentFallbacks int            `json:"enrichment_fallbacks"`
	IndexedCorpora      int            `json:"indexed_corpora"`
}

func newMetrics() *Metrics {
	return &Metrics{
		CategoryBreakdown:  make(map[string]int),
		SentimentBreakdown: make(map[string]int),
	}
}

func (s *Service) recordRun(analysis *models.Analysis, outcome classifyOutcome, duration time.Duration) {
	indexed := s.indexes.Len()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalRuns++
	s.metrics.TotalComments += analysis.TotalComments
	s.metrics.LastRun = time.Now()
	s.metrics.LastVideoID = analysis.VideoID
	s.metrics.LastRunDuration = duration.String()
	s.metrics.EnrichmentSuccesses += outcome.enriched
	s.metrics.EnrichmentFallbacks += outcome.fallbacks
	s.metrics.IndexedCorpora = indexed

	// Breakdown reflects the last run only
	s.metrics.CategoryBreakdown = make(map[string]int)
	s.metrics.SentimentBreakdown = make(map[string]int)
	for category, count := range analysis.CategoryCounts {
		s.metrics.CategoryBreakdown[string(category)] = count
	}
	for sentiment, count := range analysis.SentimentCounts {
		s.metrics.SentimentBreakdown[string(sentiment)] = count
	}
}

func (s *Service) recordError() {
	s.mu.Lock()
	s.metrics.ErrorCount++
	s.mu.Unlock()
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
