package scheduler

import (
	"context"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reanalyzer is the part of the ingestion service the scheduler drives
type Reanalyzer interface {
	ReanalyzeAll(ctx context.Context) error
}

// Service handles scheduling of periodic re-analysis
type Service struct {
	config     *config.Config
	reanalyzer Reanalyzer
	cron       *cron.Cron
	timeout    time.Duration
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, reanalyzer Reanalyzer) *Service {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	timeout := cfg.AnalyzeTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	return &Service{
		config:     cfg,
		reanalyzer: reanalyzer,
		// A run still in progress when the next tick fires makes that tick a no-op
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(logger))),
		timeout: timeout,
	}
}

// Start registers the re-analysis job and begins the schedule
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.ReanalyzeSchedule, s.RunNow)
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q", s.config.ReanalyzeSchedule)
	return nil
}

// RunNow performs one re-analysis pass over every stored video
func (s *Service) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logrus.Info("Starting scheduled re-analysis run")
	if err := s.reanalyzer.ReanalyzeAll(ctx); err != nil {
		logrus.Errorf("Scheduled re-analysis run failed: %v", err)
	}
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
