package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dumpJSON = `{
  "video": {"id": "dQw4w9WgXcQ", "title": "Sample", "commentCount": 3},
  "comments": [
    {"id": "c1", "authorDisplayName": "alice", "textDisplay": "first!", "likeCount": 2},
    {"id": "c2", "authorDisplayName": "bob", "textDisplay": "how was this made?"}
  ]
}`

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_FetchVideo(t *testing.T) {
	source := NewFileSource(writeDump(t, dumpJSON))
	assert.True(t, source.IsEnabled())

	result, err := source.FetchVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Sample", result.Video.Title)
	assert.Len(t, result.Comments, 2)
	assert.Equal(t, 3, result.Stats.ReportedCount)
	assert.Equal(t, 2, result.Stats.FetchedCount)
	assert.Equal(t, 1, result.Stats.MissingCount)
}

func TestFileSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		videoID string
		kind    errs.Kind
	}{
		{name: "wrong video", path: writeDump(t, dumpJSON), videoID: "aaaaaaaaaaa", kind: errs.KindNotFound},
		{name: "missing file", path: filepath.Join(t.TempDir(), "absent.json"), videoID: "dQw4w9WgXcQ", kind: errs.KindUpstream},
		{name: "bad json", path: writeDump(t, "{"), videoID: "dQw4w9WgXcQ", kind: errs.KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileSource(tt.path).FetchVideo(context.Background(), tt.videoID)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}
}
