package ingestion

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/azure/yt-comment-analyzer/internal/classifier"
	"github.com/azure/yt-comment-analyzer/internal/enrichment"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/sirupsen/logrus"
)

// classifyOutcome counts how a classification pass went
type classifyOutcome struct {
	enriched  int
	fallbacks int
	// enrichmentOK is false when enrichment was off or the probe call failed
	enrichmentOK bool
}

func commentText(c models.Comment) string {
	if c.TextOriginal != "" {
		return c.TextOriginal
	}
	return c.TextDisplay
}

func (s *Service) enrichmentEnabled() bool {
	return s.enricher != nil && s.enricher.IsEnabled() && s.config.EnrichmentActive()
}

// classifyAll assigns a heuristic result to every comment, then upgrades as
// many as allowed through the enricher. Comments are modified in place.
func (s *Service) classifyAll(ctx context.Context, videoID string, comments []models.Comment) classifyOutcome {
	for i := range comments {
		s.applyHeuristic(&comments[i])
	}

	var outcome classifyOutcome
	if len(comments) == 0 || !s.enrichmentEnabled() {
		return outcome
	}

	logger := logrus.WithFields(logrus.Fields{
		"video_id": videoID,
		"stage":    StageClassifying,
	})

	limit := len(comments)
	if maxComments := s.config.EnrichmentMaxComments; maxComments > 0 && maxComments < limit {
		limit = maxComments
	}

	// A failing probe means the service is unreachable or misconfigured;
	// every comment keeps its heuristic result.
	if err := s.limiter.Wait(ctx); err != nil {
		logger.WithError(err).Warn("Enrichment cancelled before probe")
		return outcome
	}
	probe, err := s.enricher.AnalyzeComment(ctx, commentText(comments[0]))
	if err != nil {
		logger.WithError(err).Warn("Enrichment probe failed, using heuristic classification")
		outcome.fallbacks = limit
		return outcome
	}
	applyEnrichment(&comments[0], probe)
	outcome.enrichmentOK = true

	var enriched, fallbacks int64 = 1, 0
	pool := NewWorkerPool(s.config.EnrichmentWorkers, limit)
	pool.Start(ctx)

	for i := 1; i < limit; i++ {
		comment := &comments[i]
		err := pool.Submit(func(ctx context.Context) error {
			if err := s.limiter.Wait(ctx); err != nil {
				atomic.AddInt64(&fallbacks, 1)
				return err
			}
			result, err := s.enricher.AnalyzeComment(ctx, commentText(*comment))
			if err != nil {
				atomic.AddInt64(&fallbacks, 1)
				logger.WithError(err).WithField("comment_id", comment.ID).Debug("Enrichment failed, keeping heuristic result")
				return err
			}
			applyEnrichment(comment, result)
			atomic.AddInt64(&enriched, 1)
			return nil
		})
		if err != nil {
			break
		}
	}
	pool.Close()

	outcome.enriched = int(atomic.LoadInt64(&enriched))
	outcome.fallbacks = int(atomic.LoadInt64(&fallbacks))

	logger.WithFields(logrus.Fields{
		"enriched":  outcome.enriched,
		"fallbacks": outcome.fallbacks,
		"heuristic": len(comments) - outcome.enriched,
	}).Info("Classification finished")

	return outcome
}

func (s *Service) applyHeuristic(c *models.Comment) {
	result := s.classifier.Classify(commentText(*c))
	confidence := classifier.HeuristicConfidence

	c.Category = result.Category
	c.Sentiment = result.Sentiment
	c.Confidence = &confidence
	c.Topics = nil
	c.Reasoning = ""
	c.Enriched = false
}

func applyEnrichment(c *models.Comment, r *enrichment.Result) {
	confidence := r.Confidence * 100

	c.Category = r.Category
	c.Sentiment = r.Sentiment
	c.Topics = r.Topics
	c.Confidence = &confidence
	c.Reasoning = r.Reasoning
	c.Enriched = true
}

// topQuestions returns up to limit question comments, most liked first
func topQuestions(comments []models.Comment, limit int) []models.Comment {
	var questions []models.Comment
	for _, c := range comments {
		if c.Category == models.CategoryQuestion {
			questions = append(questions, c)
		}
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].LikeCount > questions[j].LikeCount
	})
	if len(questions) > limit {
		questions = questions[:limit]
	}
	return questions
}
