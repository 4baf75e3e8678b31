// Package store holds videos, their comment corpora and analyses
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	videoPrefix    = "videos/"
	commentPrefix  = "comments/"
	analysisPrefix = "analyses/"
)

// Repository is the key-based CRUD contract over videos, comments and analyses.
// Comments are only ever replaced a whole corpus at a time.
type Repository interface {
	SaveVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, videoID string) (*models.Video, error)
	GetVideoByURL(ctx context.Context, url string) (*models.Video, error)
	ListVideoIDs(ctx context.Context) ([]string, error)

	ReplaceComments(ctx context.Context, videoID string, comments []models.Comment) error
	ListComments(ctx context.Context, videoID string) ([]models.Comment, error)
	GetComment(ctx context.Context, commentID string) (*models.Comment, error)
	FilterComments(ctx context.Context, videoID string, keep func(models.Comment) bool) ([]models.Comment, error)

	SaveAnalysis(ctx context.Context, analysis *models.Analysis) error
	GetAnalysis(ctx context.Context, videoID string) (*models.Analysis, error)
}

type commentRef struct {
	videoID string
	index   int
}

// MemoryStore keeps everything in process memory. With a backend configured
// every mutation is written through as a JSON blob before memory is updated.
type MemoryStore struct {
	mu       sync.RWMutex
	videos   map[string]models.Video
	order    []string
	comments map[string][]models.Comment
	byID     map[string]commentRef
	analyses map[string]models.Analysis
	backend  storage.StorageInterface
}

// Ensure MemoryStore implements Repository
var _ Repository = (*MemoryStore)(nil)

// NewMemoryStore creates a store. backend may be nil for a purely in-memory store.
func NewMemoryStore(backend storage.StorageInterface) *MemoryStore {
	return &MemoryStore{
		videos:   make(map[string]models.Video),
		comments: make(map[string][]models.Comment),
		byID:     make(map[string]commentRef),
		analyses: make(map[string]models.Analysis),
		backend:  backend,
	}
}

func videoKey(id string) string    { return videoPrefix + id + ".json" }
func commentsKey(id string) string { return commentPrefix + id + ".json" }
func analysisKey(id string) string { return analysisPrefix + id + ".json" }

func (s *MemoryStore) persist(ctx context.Context, key string, v interface{}) error {
	if s.backend == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.backend.Store(ctx, key, data); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) SaveVideo(ctx context.Context, video *models.Video) error {
	if video == nil || video.ID == "" {
		return errs.Validation("save video", "video id is required")
	}
	if err := s.persist(ctx, videoKey(video.ID), video); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.putVideo(*video)
	return nil
}

func (s *MemoryStore) putVideo(video models.Video) {
	if _, exists := s.videos[video.ID]; !exists {
		s.order = append(s.order, video.ID)
	}
	s.videos[video.ID] = video
}

func (s *MemoryStore) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[videoID]
	if !ok {
		return nil, errs.NotFound("get video", fmt.Sprintf("video %s not found", videoID))
	}
	return &video, nil
}

func (s *MemoryStore) GetVideoByURL(ctx context.Context, url string) (*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if video := s.videos[id]; video.URL == url {
			return &video, nil
		}
	}
	return nil, errs.NotFound("get video", fmt.Sprintf("no video stored for %s", url))
}

// ListVideoIDs returns the stored video ids in the order they were first saved
func (s *MemoryStore) ListVideoIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...), nil
}

// ReplaceComments swaps the whole corpus of videoID for comments
func (s *MemoryStore) ReplaceComments(ctx context.Context, videoID string, comments []models.Comment) error {
	if videoID == "" {
		return errs.Validation("replace comments", "video id is required")
	}
	corpus := make([]models.Comment, len(comments))
	copy(corpus, comments)
	for i := range corpus {
		corpus[i].VideoID = videoID
	}

	if err := s.persist(ctx, commentsKey(videoID), corpus); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.putComments(videoID, corpus)
	return nil
}

func (s *MemoryStore) putComments(videoID string, corpus []models.Comment) {
	for _, old := range s.comments[videoID] {
		if ref, ok := s.byID[old.ID]; ok && ref.videoID == videoID {
			delete(s.byID, old.ID)
		}
	}
	for i, c := range corpus {
		s.byID[c.ID] = commentRef{videoID: videoID, index: i}
	}
	s.comments[videoID] = corpus
}

// ListComments returns a copy of the corpus in insertion order
func (s *MemoryStore) ListComments(ctx context.Context, videoID string) ([]models.Comment, error) {
	return s.FilterComments(ctx, videoID, nil)
}

func (s *MemoryStore) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, ok := s.byID[commentID]
	if !ok {
		return nil, errs.NotFound("get comment", fmt.Sprintf("comment %s not found", commentID))
	}
	c := s.comments[ref.videoID][ref.index]
	return &c, nil
}

// FilterComments scans the corpus of videoID and returns the comments keep accepts.
// A nil keep accepts everything.
func (s *MemoryStore) FilterComments(ctx context.Context, videoID string, keep func(models.Comment) bool) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	corpus, ok := s.comments[videoID]
	if !ok {
		return nil, errs.NotFound("list comments", fmt.Sprintf("no comments stored for video %s", videoID))
	}

	out := make([]models.Comment, 0, len(corpus))
	for _, c := range corpus {
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	if analysis == nil || analysis.VideoID == "" {
		return errs.Validation("save analysis", "video id is required")
	}
	if err := s.persist(ctx, analysisKey(analysis.VideoID), analysis); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[analysis.VideoID] = *analysis
	return nil
}

func (s *MemoryStore) GetAnalysis(ctx context.Context, videoID string) (*models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	analysis, ok := s.analyses[videoID]
	if !ok {
		return nil, errs.NotFound("get analysis", fmt.Sprintf("analysis for video %s not found", videoID))
	}
	return &analysis, nil
}

// Load hydrates the store from the backend. It is a no-op without one.
func (s *MemoryStore) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	videos, err := loadAll[models.Video](ctx, s.backend, videoPrefix)
	if err != nil {
		return err
	}
	corpora, err := loadAll[[]models.Comment](ctx, s.backend, commentPrefix)
	if err != nil {
		return err
	}
	analyses, err := loadAll[models.Analysis](ctx, s.backend, analysisPrefix)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range videos {
		s.putVideo(v.value)
	}
	for _, c := range corpora {
		s.putComments(c.id, c.value)
	}
	for _, a := range analyses {
		s.analyses[a.id] = a.value
	}

	logrus.WithFields(logrus.Fields{
		"videos":   len(videos),
		"corpora":  len(corpora),
		"analyses": len(analyses),
	}).Info("Loaded comment store from blob storage")
	return nil
}

type loaded[T any] struct {
	id    string
	value T
}

func loadAll[T any](ctx context.Context, backend storage.StorageInterface, prefix string) ([]loaded[T], error) {
	keys, err := backend.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	out := make([]loaded[T], 0, len(keys))
	for _, key := range keys {
		data, err := backend.Retrieve(ctx, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to retrieve %s: %w", key, err)
		}

		var value T
		if err := json.Unmarshal(data, &value); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Skipping unreadable record")
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(key, prefix), ".json")
		out = append(out, loaded[T]{id: id, value: value})
	}
	return out, nil
}
