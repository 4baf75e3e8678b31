package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/azure/yt-comment-analyzer/internal/models"
)

// Dump is the on-disk form of one fetched video
type Dump struct {
	Video    models.Video        `json:"video"`
	Comments []models.RawComment `json:"comments"`
}

// FileSource serves a single video from a JSON dump, for offline analysis
type FileSource struct {
	path string
}

// Ensure FileSource implements VideoFetcher
var _ VideoFetcher = (*FileSource)(nil)

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) GetName() string {
	return "File"
}

func (f *FileSource) IsEnabled() bool {
	return f.path != ""
}

// ReadDump decodes the dump without checking the video id
func (f *FileSource) ReadDump() (*Dump, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump %s: %w", f.path, err)
	}
	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("failed to decode dump %s: %w", f.path, err)
	}
	return &dump, nil
}

// FetchVideo returns the dumped video when its id matches videoID
func (f *FileSource) FetchVideo(ctx context.Context, videoID string) (*FetchResult, error) {
	dump, err := f.ReadDump()
	if err != nil {
		return nil, errs.Upstream("read dump", err)
	}
	if dump.Video.ID != "" && dump.Video.ID != videoID {
		return nil, errs.NotFound("read dump", fmt.Sprintf("dump holds video %s, not %s", dump.Video.ID, videoID))
	}

	reported := int(dump.Video.CommentCount)
	if reported < len(dump.Comments) {
		reported = len(dump.Comments)
	}

	video := dump.Video
	return &FetchResult{
		Video:    &video,
		Comments: dump.Comments,
		Stats: models.FetchStats{
			ReportedCount: reported,
			FetchedCount:  len(dump.Comments),
			MissingCount:  reported - len(dump.Comments),
			Pages:         1,
			Complete:      true,
		},
	}, nil
}
