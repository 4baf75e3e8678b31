package ingestion

import (
	"context"
	"math"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/keywords"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const topTopicsLimit = 10

// summarize derives the Analysis for a classified corpus
func (s *Service) summarize(ctx context.Context, videoID string, comments []models.Comment, outcome classifyOutcome, stats *models.FetchStats) *models.Analysis {
	analysis := &models.Analysis{
		ID:              uuid.NewString(),
		VideoID:         videoID,
		TotalComments:   len(comments),
		CategoryCounts:  make(map[models.Category]int),
		SentimentCounts: make(map[models.Sentiment]int),
		TopWords:        keywords.ExtractTopWords(comments, s.config.TopWordsLimit),
		TopTopics:       keywords.TopTopics(comments, topTopicsLimit),
		FetchStats:      stats,
		CreatedAt:       time.Now().UTC(),
	}

	for _, category := range models.AllCategories() {
		analysis.CategoryCounts[category] = 0
	}
	for _, sentiment := range models.AllSentiments() {
		analysis.SentimentCounts[sentiment] = 0
	}

	for _, c := range comments {
		analysis.CategoryCounts[c.Category]++
		if c.Sentiment != "" {
			analysis.SentimentCounts[c.Sentiment]++
		}
		if c.Enriched {
			analysis.EnrichedCount++
		}
	}

	if len(comments) > 0 {
		percent := float64(analysis.EnrichedCount) / float64(len(comments)) * 100
		analysis.EnrichedPercent = math.Round(percent*10) / 10
	}

	if outcome.enrichmentOK && len(comments) > 0 {
		texts := make([]string, len(comments))
		for i, c := range comments {
			texts[i] = commentText(c)
		}
		digest, err := s.enricher.GenerateTopicSummary(ctx, texts)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"video_id": videoID,
				"stage":    StageSummarizing,
			}).Warn("Topic summary failed")
		} else {
			analysis.Summary = digest.Summary
			if len(analysis.TopTopics) == 0 {
				analysis.TopTopics = digest.Topics
			}
		}
	}

	return analysis
}
