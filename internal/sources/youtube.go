package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"
	DefaultPageDelay      = 100 * time.Millisecond
	DefaultMaxRetries     = 3

	commentsPageSize = 100
)

// ErrCommentsUnavailable is returned when YouTube answers 403 for a comment walk
var ErrCommentsUnavailable = errors.New("comments are disabled for this video or API quota exceeded")

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID returns the 11 character id in a YouTube URL, or "" when the
// URL has none of the watch, short link, shorts, embed or v/ shapes
func ExtractVideoID(rawURL string) string {
	for _, pattern := range videoIDPatterns {
		if match := pattern.FindStringSubmatch(rawURL); match != nil {
			return match[1]
		}
	}
	return ""
}

// IsSupportedURL reports whether rawURL points at a YouTube video
func IsSupportedURL(rawURL string) bool {
	return ExtractVideoID(rawURL) != ""
}

// YouTubeSource fetches video metadata and comment threads from the YouTube Data API
type YouTubeSource struct {
	apiKey    string
	client    *resty.Client
	pageDelay time.Duration
}

// Ensure YouTubeSource implements VideoFetcher
var _ VideoFetcher = (*YouTubeSource)(nil)

// YouTubeOption customizes a YouTubeSource
type YouTubeOption func(*YouTubeSource)

// WithBaseURL points the client at another API root, e.g. a test server
func WithBaseURL(baseURL string) YouTubeOption {
	return func(y *YouTubeSource) {
		y.client.SetBaseURL(baseURL)
	}
}

// WithPageDelay sets the pause between comment pages
func WithPageDelay(d time.Duration) YouTubeOption {
	return func(y *YouTubeSource) {
		y.pageDelay = d
	}
}

// WithRetries sets how often a request is retried on 429, 5xx or transport errors
func WithRetries(count int, wait time.Duration) YouTubeOption {
	return func(y *YouTubeSource) {
		y.client.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(8 * wait)
	}
}

type youTubeVideosResponse struct {
	Items []youTubeVideo `json:"items"`
}

type youTubeThumbnail struct {
	URL string `json:"url"`
}

type youTubeVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
		Thumbnails   struct {
			Default *youTubeThumbnail `json:"default"`
			Medium  *youTubeThumbnail `json:"medium"`
			High    *youTubeThumbnail `json:"high"`
		} `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
}

type youTubeCommentThreadsResponse struct {
	NextPageToken string                 `json:"nextPageToken"`
	Items         []youTubeCommentThread `json:"items"`
}

type youTubeCommentThread struct {
	ID      string `json:"id"`
	Snippet struct {
		TopLevelComment youTubeComment `json:"topLevelComment"`
		TotalReplyCount int            `json:"totalReplyCount"`
	} `json:"snippet"`
	Replies struct {
		Comments []youTubeComment `json:"comments"`
	} `json:"replies"`
}

type youTubeComment struct {
	ID      string `json:"id"`
	Snippet struct {
		AuthorDisplayName     string `json:"authorDisplayName"`
		AuthorProfileImageURL string `json:"authorProfileImageUrl"`
		TextDisplay           string `json:"textDisplay"`
		TextOriginal          string `json:"textOriginal"`
		LikeCount             int    `json:"likeCount"`
		PublishedAt           string `json:"publishedAt"`
		UpdatedAt             string `json:"updatedAt"`
	} `json:"snippet"`
}

// NewYouTubeSource creates a new YouTube source
func NewYouTubeSource(apiKey string, opts ...YouTubeOption) *YouTubeSource {
	y := &YouTubeSource{
		apiKey:    apiKey,
		pageDelay: DefaultPageDelay,
		client: resty.New().
			SetBaseURL(DefaultYouTubeBaseURL).
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", "YT-Comment-Analyzer/1.0").
			SetRetryCount(DefaultMaxRetries).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second).
			AddRetryCondition(retryable),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (y *YouTubeSource) GetName() string {
	return "youtube"
}

func (y *YouTubeSource) IsEnabled() bool {
	return y.apiKey != ""
}

// FetchVideo loads the metadata and every reachable comment of videoID.
// Details and comments are requested concurrently.
func (y *YouTubeSource) FetchVideo(ctx context.Context, videoID string) (*FetchResult, error) {
	if !y.IsEnabled() {
		return nil, errs.Upstream("fetch video", errors.New("YouTube API key is not configured"))
	}

	var (
		video    *models.Video
		comments []models.RawComment
		walk     walkStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		video, err = y.getVideoDetails(gctx, videoID)
		return err
	})
	g.Go(func() error {
		var err error
		comments, walk, err = y.getVideoComments(gctx, videoID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := newFetchStats(int(video.CommentCount), len(comments), walk)
	logger := logrus.WithFields(logrus.Fields{
		"video_id": videoID,
		"reported": stats.ReportedCount,
		"fetched":  stats.FetchedCount,
		"pages":    stats.Pages,
	})
	if stats.MissingCount > 0 {
		logger.WithField("missing", stats.MissingCount).
			Warn("Fetched fewer comments than YouTube reports; private, deleted or held comments are not returned")
	} else {
		logger.Info("Fetched all reported comments")
	}

	return &FetchResult{Video: video, Comments: comments, Stats: stats}, nil
}

func newFetchStats(reported, fetched int, walk walkStats) models.FetchStats {
	missing := reported - fetched
	if missing < 0 {
		missing = 0
	}
	return models.FetchStats{
		ReportedCount: reported,
		FetchedCount:  fetched,
		MissingCount:  missing,
		Pages:         walk.pages,
		Complete:      walk.finished && fetched >= reported,
	}
}

func (y *YouTubeSource) getVideoDetails(ctx context.Context, videoID string) (*models.Video, error) {
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part": "snippet,contentDetails,statistics",
			"id":   videoID,
			"key":  y.apiKey,
		}).
		Get("/videos")
	if err != nil {
		return nil, errs.Upstream("fetch video details", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, errs.NotFound("fetch video details", fmt.Sprintf("video %s not found", videoID))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errs.Upstream("fetch video details",
			fmt.Errorf("youtube API returned status %d: %s", resp.StatusCode(), string(resp.Body())))
	}

	var videosResp youTubeVideosResponse
	if err := json.Unmarshal(resp.Body(), &videosResp); err != nil {
		return nil, errs.Upstream("fetch video details", fmt.Errorf("failed to parse YouTube response: %w", err))
	}
	if len(videosResp.Items) == 0 {
		return nil, errs.NotFound("fetch video details", fmt.Sprintf("video %s not found", videoID))
	}

	return toVideo(videosResp.Items[0]), nil
}

func toVideo(v youTubeVideo) *models.Video {
	video := &models.Video{
		ID:           v.ID,
		URL:          "https://www.youtube.com/watch?v=" + v.ID,
		Title:        v.Snippet.Title,
		ChannelTitle: v.Snippet.ChannelTitle,
		Description:  v.Snippet.Description,
		ViewCount:    parseCount(v.Statistics.ViewCount),
		LikeCount:    parseCount(v.Statistics.LikeCount),
		CommentCount: parseCount(v.Statistics.CommentCount),
		Duration:     v.ContentDetails.Duration,
		CreatedAt:    time.Now().UTC(),
	}

	thumbs := v.Snippet.Thumbnails
	for _, t := range []*youTubeThumbnail{thumbs.High, thumbs.Medium, thumbs.Default} {
		if t != nil && t.URL != "" {
			video.ThumbnailURL = t.URL
			break
		}
	}

	if published, ok := parseTime(v.Snippet.PublishedAt); ok {
		video.PublishedAt = &published
	}
	return video
}

type walkStats struct {
	pages    int
	finished bool
}

// getVideoComments walks every commentThreads page, flattening inline replies
// after their thread. A failure on the first page fails the walk; a failure on
// a later page keeps what was collected so far.
func (y *YouTubeSource) getVideoComments(ctx context.Context, videoID string) ([]models.RawComment, walkStats, error) {
	var (
		comments  []models.RawComment
		walk      walkStats
		pageToken string
	)

	for {
		walk.pages++
		page, err := y.getCommentsPage(ctx, videoID, pageToken)
		if err != nil {
			if walk.pages == 1 || errors.Is(err, ErrCommentsUnavailable) || ctx.Err() != nil {
				return nil, walk, err
			}
			logrus.WithFields(logrus.Fields{
				"video_id": videoID,
				"page":     walk.pages,
				"fetched":  len(comments),
			}).WithError(err).Warn("Comment walk stopped early, keeping partial results")
			return comments, walk, nil
		}

		for _, thread := range page.Items {
			top := toRawComment(thread.Snippet.TopLevelComment)
			top.ReplyCount = thread.Snippet.TotalReplyCount
			comments = append(comments, top)

			for _, reply := range thread.Replies.Comments {
				r := toRawComment(reply)
				r.ParentID = top.ID
				comments = append(comments, r)
			}
		}

		logrus.WithFields(logrus.Fields{
			"video_id": videoID,
			"page":     walk.pages,
			"total":    len(comments),
		}).Debug("Fetched comment page")

		if page.NextPageToken == "" || len(page.Items) == 0 {
			walk.finished = true
			return comments, walk, nil
		}
		pageToken = page.NextPageToken

		select {
		case <-ctx.Done():
			return nil, walk, errs.Upstream("fetch comments", ctx.Err())
		case <-time.After(y.pageDelay):
		}
	}
}

func (y *YouTubeSource) getCommentsPage(ctx context.Context, videoID, pageToken string) (*youTubeCommentThreadsResponse, error) {
	req := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part":       "snippet,replies",
			"videoId":    videoID,
			"maxResults": strconv.Itoa(commentsPageSize),
			"order":      "time",
			"key":        y.apiKey,
		})
	if pageToken != "" {
		req.SetQueryParam("pageToken", pageToken)
	}

	resp, err := req.Get("/commentThreads")
	if err != nil {
		return nil, errs.Upstream("fetch comments", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusForbidden:
		logrus.WithField("video_id", videoID).Errorf("YouTube refused comment access: %s", string(resp.Body()))
		return nil, errs.Upstream("fetch comments", ErrCommentsUnavailable)
	case http.StatusNotFound:
		return nil, errs.NotFound("fetch comments", fmt.Sprintf("video %s not found", videoID))
	default:
		return nil, errs.Upstream("fetch comments",
			fmt.Errorf("youtube comments API returned status %d: %s", resp.StatusCode(), string(resp.Body())))
	}

	var page youTubeCommentThreadsResponse
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return nil, errs.Upstream("fetch comments", fmt.Errorf("failed to parse YouTube comments response: %w", err))
	}
	return &page, nil
}

func toRawComment(c youTubeComment) models.RawComment {
	raw := models.RawComment{
		ID:                    c.ID,
		AuthorDisplayName:     c.Snippet.AuthorDisplayName,
		AuthorProfileImageURL: c.Snippet.AuthorProfileImageURL,
		TextDisplay:           c.Snippet.TextDisplay,
		TextOriginal:          c.Snippet.TextOriginal,
		LikeCount:             c.Snippet.LikeCount,
	}
	if published, ok := parseTime(c.Snippet.PublishedAt); ok {
		raw.PublishedAt = published
	}
	if updated, ok := parseTime(c.Snippet.UpdatedAt); ok && !updated.Equal(raw.PublishedAt) {
		raw.UpdatedAt = &updated
	}
	return raw
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		logrus.Debugf("Failed to parse YouTube timestamp %q: %v", s, err)
		return time.Time{}, false
	}
	return t, true
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
