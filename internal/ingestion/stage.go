package ingestion

// Stage is the position of a corpus in the ingestion pipeline
type Stage string

const (
	StageFetching    Stage = "fetching"
	StageClassifying Stage = "classifying"
	StagePersisting  Stage = "persisting"
	StageIndexing    Stage = "indexing"
	StageSummarizing Stage = "summarizing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Terminal reports whether no further transition follows s
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

func (s *Service) setStage(videoID string, stage Stage) {
	s.mu.Lock()
	s.stages[videoID] = stage
	s.mu.Unlock()
}

func (s *Service) stage(videoID string) (Stage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stage, ok := s.stages[videoID]
	return stage, ok
}
