package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoJSON = `{"items":[{"id":"dQw4w9WgXcQ","snippet":{"title":"Go Tutorial","description":"Learn Go","channelTitle":"Gopher TV","publishedAt":"2024-03-01T10:00:00Z","thumbnails":{"default":{"url":"https://i.ytimg.com/default.jpg"},"high":{"url":"https://i.ytimg.com/high.jpg"}}},"contentDetails":{"duration":"PT4M13S"},"statistics":{"viewCount":"1000","likeCount":"50","commentCount":"5"}}]}`

const firstPageJSON = `{"nextPageToken":"p2","items":[
 {"id":"t1","snippet":{"totalReplyCount":0,"topLevelComment":{"id":"c1","snippet":{"authorDisplayName":"Ann","textDisplay":"How do I install this?","textOriginal":"How do I install this?","likeCount":3,"publishedAt":"2024-03-02T10:00:00Z","updatedAt":"2024-03-02T10:00:00Z"}}}},
 {"id":"t2","snippet":{"totalReplyCount":1,"topLevelComment":{"id":"c2","snippet":{"authorDisplayName":"Bob","textDisplay":"great video","likeCount":7,"publishedAt":"2024-03-02T11:00:00Z","updatedAt":"2024-03-03T11:00:00Z"}}},
  "replies":{"comments":[{"id":"c2.r1","snippet":{"authorDisplayName":"Cy","textDisplay":"agreed","likeCount":1,"publishedAt":"2024-03-02T12:00:00Z"}}]}}
]}`

const secondPageJSON = `{"items":[
 {"id":"t3","snippet":{"totalReplyCount":0,"topLevelComment":{"id":"c3","snippet":{"authorDisplayName":"Dee","textDisplay":"lol","likeCount":0,"publishedAt":"2024-03-04T10:00:00Z"}}}}
]}`

type fakeYouTube struct {
	videos       func(w http.ResponseWriter, r *http.Request)
	comments     func(w http.ResponseWriter, r *http.Request)
	commentCalls int32
}

func (f *fakeYouTube) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/videos":
		f.videos(w, r)
	case "/commentThreads":
		atomic.AddInt32(&f.commentCalls, 1)
		f.comments(w, r)
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func servePages(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("pageToken") == "p2" {
		writeJSON(w, http.StatusOK, secondPageJSON)
		return
	}
	writeJSON(w, http.StatusOK, firstPageJSON)
}

func newTestSource(t *testing.T, fake *fakeYouTube, retries int) *YouTubeSource {
	t.Helper()
	if fake.videos == nil {
		fake.videos = func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, videoJSON) }
	}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	return NewYouTubeSource("test-key",
		WithBaseURL(server.URL),
		WithPageDelay(0),
		WithRetries(retries, time.Millisecond),
	)
}

func TestYouTubeSource_FetchVideo(t *testing.T) {
	fake := &fakeYouTube{comments: servePages}
	source := newTestSource(t, fake, 0)

	result, err := source.FetchVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	video := result.Video
	assert.Equal(t, "Go Tutorial", video.Title)
	assert.Equal(t, "Gopher TV", video.ChannelTitle)
	assert.Equal(t, "https://i.ytimg.com/high.jpg", video.ThumbnailURL)
	assert.Equal(t, int64(1000), video.ViewCount)
	assert.Equal(t, int64(5), video.CommentCount)
	assert.Equal(t, "PT4M13S", video.Duration)
	require.NotNil(t, video.PublishedAt)

	require.Len(t, result.Comments, 4)
	ids := []string{}
	for _, c := range result.Comments {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c1", "c2", "c2.r1", "c3"}, ids)

	assert.Equal(t, 1, result.Comments[1].ReplyCount)
	assert.Equal(t, "c2", result.Comments[2].ParentID)
	assert.Empty(t, result.Comments[1].ParentID)
	assert.Nil(t, result.Comments[0].UpdatedAt, "unchanged comments carry no update time")
	assert.NotNil(t, result.Comments[1].UpdatedAt)

	assert.Equal(t, 5, result.Stats.ReportedCount)
	assert.Equal(t, 4, result.Stats.FetchedCount)
	assert.Equal(t, 1, result.Stats.MissingCount)
	assert.Equal(t, 2, result.Stats.Pages)
	assert.False(t, result.Stats.Complete)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fake.commentCalls))
}

func TestYouTubeSource_CommentsForbidden(t *testing.T) {
	fake := &fakeYouTube{comments: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"error":{"message":"commentsDisabled"}}`)
	}}
	source := newTestSource(t, fake, 2)

	_, err := source.FetchVideo(context.Background(), "dQw4w9WgXcQ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommentsUnavailable))
	assert.True(t, errs.Is(err, errs.KindUpstream))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.commentCalls), "403 is not retried")
}

func TestYouTubeSource_VideoNotFound(t *testing.T) {
	fake := &fakeYouTube{
		videos:   func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, `{"items":[]}`) },
		comments: servePages,
	}
	source := newTestSource(t, fake, 0)

	_, err := source.FetchVideo(context.Background(), "missingvid1")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestYouTubeSource_LaterPageFailureKeepsPartialResults(t *testing.T) {
	fake := &fakeYouTube{comments: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "p2" {
			writeJSON(w, http.StatusInternalServerError, `{"error":"backend"}`)
			return
		}
		writeJSON(w, http.StatusOK, firstPageJSON)
	}}
	source := newTestSource(t, fake, 0)

	result, err := source.FetchVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Len(t, result.Comments, 3)
	assert.False(t, result.Stats.Complete)
	assert.Equal(t, 2, result.Stats.MissingCount)
}

func TestYouTubeSource_FirstPageFailureIsFatal(t *testing.T) {
	fake := &fakeYouTube{comments: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":"backend"}`)
	}}
	source := newTestSource(t, fake, 0)

	_, err := source.FetchVideo(context.Background(), "dQw4w9WgXcQ")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindUpstream))
}

func TestYouTubeSource_RetriesTransientErrors(t *testing.T) {
	var calls int32
	fake := &fakeYouTube{comments: func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, secondPageJSON)
	}}
	source := newTestSource(t, fake, 2)

	result, err := source.FetchVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Len(t, result.Comments, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestYouTubeSource_Disabled(t *testing.T) {
	source := NewYouTubeSource("")
	assert.False(t, source.IsEnabled())
	assert.Equal(t, "youtube", source.GetName())

	_, err := source.FetchVideo(context.Background(), "dQw4w9WgXcQ")
	assert.True(t, errs.Is(err, errs.KindUpstream))
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch with extra params", "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"shorts", "https://youtube.com/shorts/abcdefghijk", "abcdefghijk"},
		{"embed", "https://www.youtube.com/embed/A-b_C1d2E3f", "A-b_C1d2E3f"},
		{"v path", "http://youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"id too short", "https://youtu.be/short", ""},
		{"other site", "https://vimeo.com/123456789", ""},
		{"channel page", "https://www.youtube.com/@gophers", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractVideoID(tt.url))
			assert.Equal(t, tt.expected != "", IsSupportedURL(tt.url))
		})
	}
}
