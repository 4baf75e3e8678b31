// Package ingestion drives a video's comments through fetch, classification,
// persistence, indexing and summary, and re-runs classification on demand.
package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/classifier"
	"github.com/azure/yt-comment-analyzer/internal/config"
	"github.com/azure/yt-comment-analyzer/internal/enrichment"
	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/azure/yt-comment-analyzer/internal/index"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/notifications"
	"github.com/azure/yt-comment-analyzer/internal/sources"
	"github.com/azure/yt-comment-analyzer/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	MessageCached     = "Analysis already exists for this video"
	MessageCompleted  = "Analysis completed successfully"
	MessageReanalyzed = "Re-analysis completed successfully"
)

// Result is what an ingestion or re-analysis hands back to the caller
type Result struct {
	Video    *models.Video    `json:"video"`
	Analysis *models.Analysis `json:"analysis"`
	Message  string           `json:"message"`
	Cached   bool             `json:"-"`
}

// Service orchestrates ingestion of comment corpora
type Service struct {
	config              *config.Config
	fetcher             sources.VideoFetcher
	store               store.Repository
	indexes             *index.Registry
	classifier          *classifier.Classifier
	enricher            enrichment.Enricher
	notificationService notifications.NotificationInterface
	limiter             *rate.Limiter
	group               singleflight.Group

	mu      sync.RWMutex
	stages  map[string]Stage
	metrics *Metrics
}

// NewService creates a new ingestion service. enricher and notificationService may be nil.
func NewService(
	cfg *config.Config,
	fetcher sources.VideoFetcher,
	repo store.Repository,
	indexes *index.Registry,
	enricher enrichment.Enricher,
	notificationService notifications.NotificationInterface,
) *Service {
	ratePerSecond := cfg.EnrichmentRatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	burst := cfg.EnrichmentBurst
	if burst < 1 {
		burst = 1
	}

	return &Service{
		config:              cfg,
		fetcher:             fetcher,
		store:               repo,
		indexes:             indexes,
		classifier:          classifier.New(),
		enricher:            enricher,
		notificationService: notificationService,
		limiter:             rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		stages:              make(map[string]Stage),
		metrics:             newMetrics(),
	}
}

// Analyze ingests the video behind rawURL, or returns the stored analysis when
// one already exists. Concurrent calls for the same video share one run.
func (s *Service) Analyze(ctx context.Context, rawURL string) (*Result, error) {
	var videoID string
	if video, err := s.store.GetVideoByURL(ctx, rawURL); err == nil {
		videoID = video.ID
	} else {
		videoID = sources.ExtractVideoID(rawURL)
	}
	if videoID == "" {
		return nil, errs.Validation("analyze", "Invalid YouTube URL")
	}

	if cached, ok := s.cached(ctx, videoID); ok {
		logrus.WithField("video_id", videoID).Info("Returning cached analysis")
		return cached, nil
	}

	v, err, shared := s.group.Do("analyze:"+videoID, func() (interface{}, error) {
		if cached, ok := s.cached(ctx, videoID); ok {
			return cached, nil
		}
		return s.ingest(ctx, videoID, rawURL)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logrus.WithField("video_id", videoID).Debug("Joined in-flight analysis")
	}
	return v.(*Result), nil
}

func (s *Service) cached(ctx context.Context, videoID string) (*Result, bool) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, false
	}
	analysis, err := s.store.GetAnalysis(ctx, videoID)
	if err != nil {
		return nil, false
	}
	return &Result{Video: video, Analysis: analysis, Message: MessageCached, Cached: true}, true
}

func (s *Service) ingest(ctx context.Context, videoID, rawURL string) (*Result, error) {
	start := time.Now()
	logger := logrus.WithField("video_id", videoID)
	logger.Info("Starting comment ingestion")

	s.setStage(videoID, StageFetching)
	fetched, err := s.fetcher.FetchVideo(ctx, videoID)
	if err != nil {
		if errs.KindOf(err) == errs.KindUnknown {
			err = errs.Upstream("fetch video", err)
		}
		s.fail(videoID, StageFetching, err)
		return nil, err
	}

	video := fetched.Video
	if video == nil {
		video = &models.Video{}
	}
	video.ID = videoID
	video.URL = rawURL
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}

	comments := make([]models.Comment, len(fetched.Comments))
	for i, raw := range fetched.Comments {
		comments[i] = models.NewComment(videoID, raw)
	}

	s.setStage(videoID, StageClassifying)
	outcome := s.classifyAll(ctx, videoID, comments)

	s.setStage(videoID, StagePersisting)
	if err := s.store.SaveVideo(ctx, video); err != nil {
		s.fail(videoID, StagePersisting, err)
		return nil, err
	}
	if err := s.store.ReplaceComments(ctx, videoID, comments); err != nil {
		s.fail(videoID, StagePersisting, err)
		return nil, err
	}

	s.setStage(videoID, StageIndexing)
	s.indexes.Rebuild(videoID, comments)

	s.setStage(videoID, StageSummarizing)
	stats := fetched.Stats
	analysis := s.summarize(ctx, videoID, comments, outcome, &stats)
	if err := s.store.SaveAnalysis(ctx, analysis); err != nil {
		s.fail(videoID, StageSummarizing, err)
		return nil, err
	}

	s.setStage(videoID, StageDone)
	s.recordRun(analysis, outcome, time.Since(start))
	s.report(video, analysis, comments)

	logger.WithFields(logrus.Fields{
		"comments": len(comments),
		"enriched": outcome.enriched,
		"duration": time.Since(start).String(),
	}).Info("Comment ingestion completed")

	return &Result{Video: video, Analysis: analysis, Message: MessageCompleted}, nil
}

// Reanalyze re-classifies the stored comments of videoID and rebuilds its summary.
// The comment text does not change, so the index is only rebuilt when none is bound.
func (s *Service) Reanalyze(ctx context.Context, videoID string) (*Result, error) {
	v, err, _ := s.group.Do("reanalyze:"+videoID, func() (interface{}, error) {
		return s.reanalyze(ctx, videoID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (s *Service) reanalyze(ctx context.Context, videoID string) (*Result, error) {
	start := time.Now()

	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, videoID)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"video_id": videoID,
		"comments": len(comments),
	}).Info("Starting re-analysis")

	s.setStage(videoID, StageClassifying)
	outcome := s.classifyAll(ctx, videoID, comments)

	s.setStage(videoID, StagePersisting)
	if err := s.store.ReplaceComments(ctx, videoID, comments); err != nil {
		s.fail(videoID, StagePersisting, err)
		return nil, err
	}

	if _, ok := s.indexes.Get(videoID); !ok {
		s.setStage(videoID, StageIndexing)
		s.indexes.Rebuild(videoID, comments)
	}

	s.setStage(videoID, StageSummarizing)
	var stats *models.FetchStats
	if previous, err := s.store.GetAnalysis(ctx, videoID); err == nil {
		stats = previous.FetchStats
	}
	analysis := s.summarize(ctx, videoID, comments, outcome, stats)
	if err := s.store.SaveAnalysis(ctx, analysis); err != nil {
		s.fail(videoID, StageSummarizing, err)
		return nil, err
	}

	s.setStage(videoID, StageDone)
	s.recordRun(analysis, outcome, time.Since(start))

	return &Result{Video: video, Analysis: analysis, Message: MessageReanalyzed}, nil
}

// ReanalyzeAll re-runs classification for every stored video. Failures are
// logged per video and do not stop the others.
func (s *Service) ReanalyzeAll(ctx context.Context) error {
	start := time.Now()
	logrus.Info("Starting scheduled re-analysis")

	ids, err := s.store.ListVideoIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list videos: %w", err)
	}

	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.Reanalyze(ctx, id); err != nil {
			failed++
			logrus.WithError(err).WithField("video_id", id).Error("Re-analysis failed")
		}
	}

	logrus.WithFields(logrus.Fields{
		"videos":   len(ids),
		"failed":   failed,
		"duration": time.Since(start).String(),
	}).Info("Scheduled re-analysis completed")

	if failed > 0 {
		return fmt.Errorf("%d of %d re-analyses failed", failed, len(ids))
	}
	return nil
}

// GetAnalysis returns the stored video and analysis
func (s *Service) GetAnalysis(ctx context.Context, videoID string) (*Result, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	analysis, err := s.store.GetAnalysis(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return &Result{Video: video, Analysis: analysis}, nil
}

// Status returns the pipeline stage of videoID. Videos analyzed before this
// process started report done.
func (s *Service) Status(ctx context.Context, videoID string) (Stage, error) {
	if stage, ok := s.stage(videoID); ok {
		return stage, nil
	}
	if _, err := s.store.GetAnalysis(ctx, videoID); err == nil {
		return StageDone, nil
	}
	return "", errs.NotFound("status", fmt.Sprintf("no analysis for video %s", videoID))
}

func (s *Service) fail(videoID string, stage Stage, err error) {
	s.setStage(videoID, StageFailed)
	s.recordError()

	logrus.WithError(err).WithFields(logrus.Fields{
		"video_id": videoID,
		"stage":    stage,
	}).Error("Comment ingestion failed")

	if s.notificationService == nil {
		return
	}
	alert := &models.Alert{
		ID:        uuid.NewString(),
		Type:      "critical",
		Title:     fmt.Sprintf("Comment ingestion failed while %s", stage),
		Message:   err.Error(),
		VideoID:   videoID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notificationService.SendAlert(alert); err != nil {
		logrus.WithError(err).WithField("video_id", videoID).Warn("Failed to send ingestion alert")
	}
}

func (s *Service) report(video *models.Video, analysis *models.Analysis, comments []models.Comment) {
	if s.notificationService == nil {
		return
	}
	report := &models.AnalysisReport{
		GeneratedAt:  time.Now().UTC(),
		Video:        video,
		Analysis:     analysis,
		TopQuestions: topQuestions(comments, 10),
	}
	if err := s.notificationService.SendReport(report); err != nil {
		logrus.WithError(err).WithField("video_id", video.ID).Warn("Failed to send analysis report")
	}
}

// RestoreIndexes builds a prefix index for every stored corpus that has none,
// as after loading persisted records at startup
func (s *Service) RestoreIndexes(ctx context.Context) (int, error) {
	ids, err := s.store.ListVideoIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list videos: %w", err)
	}

	restored := 0
	for _, id := range ids {
		if _, ok := s.indexes.Get(id); ok {
			continue
		}
		comments, err := s.store.ListComments(ctx, id)
		if err != nil {
			logrus.WithError(err).WithField("video_id", id).Warn("No stored comments to index")
			continue
		}
		s.indexes.Rebuild(id, comments)
		restored++
	}
	return restored, nil
}
