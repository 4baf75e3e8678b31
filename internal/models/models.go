package models

import "time"

// Category is the closed set of labels a comment can be classified into
type Category string

const (
	CategoryQuestion   Category = "question"
	CategoryJoke       Category = "joke"
	CategoryPositive   Category = "positive"
	CategoryNegative   Category = "negative"
	CategorySpam       Category = "spam"
	CategoryDiscussion Category = "discussion"
)

// AllCategories returns every category in canonical order
func AllCategories() []Category {
	return []Category{
		CategoryQuestion,
		CategoryJoke,
		CategoryPositive,
		CategoryNegative,
		CategorySpam,
		CategoryDiscussion,
	}
}

// Valid reports whether c is a member of the closed category set
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Sentiment is the polarity label assigned alongside a category
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// AllSentiments returns every sentiment in canonical order
func AllSentiments() []Sentiment {
	return []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}
}

func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// Video is the metadata of an ingested video; its ID is also the corpus ID
type Video struct {
	ID           string     `json:"id"`
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	ChannelTitle string     `json:"channelTitle"`
	Description  string     `json:"description,omitempty"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty"`
	ViewCount    int64      `json:"viewCount"`
	LikeCount    int64      `json:"likeCount"`
	CommentCount int64      `json:"commentCount"`
	Duration     string     `json:"duration,omitempty"` // ISO-8601, e.g. PT4M13S
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// RawComment is a comment record as returned by the upstream source
type RawComment struct {
	ID                    string     `json:"id"`
	AuthorDisplayName     string     `json:"authorDisplayName"`
	AuthorProfileImageURL string     `json:"authorProfileImageUrl,omitempty"`
	TextDisplay           string     `json:"textDisplay"`
	TextOriginal          string     `json:"textOriginal"`
	LikeCount             int        `json:"likeCount"`
	ReplyCount            int        `json:"replyCount"`
	PublishedAt           time.Time  `json:"publishedAt"`
	UpdatedAt             *time.Time `json:"updatedAt,omitempty"`
	ParentID              string     `json:"parentId,omitempty"`
}

// Comment is a classified comment belonging to one video's corpus
type Comment struct {
	ID                    string     `json:"id"`
	VideoID               string     `json:"videoId"`
	AuthorDisplayName     string     `json:"authorDisplayName"`
	AuthorProfileImageURL string     `json:"authorProfileImageUrl,omitempty"`
	TextDisplay           string     `json:"textDisplay"`
	TextOriginal          string     `json:"textOriginal"`
	LikeCount             int        `json:"likeCount"`
	ReplyCount            int        `json:"replyCount"`
	PublishedAt           time.Time  `json:"publishedAt"`
	UpdatedAt             *time.Time `json:"updatedAt,omitempty"`
	ParentID              string     `json:"parentId,omitempty"` // back-reference only

	Category   Category  `json:"category"`
	Sentiment  Sentiment `json:"sentiment,omitempty"`
	Topics     []string  `json:"topics,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"` // 0-100
	Reasoning  string    `json:"reasoning,omitempty"`
	Enriched   bool      `json:"isAiAnalyzed"`
}

// NewComment copies the upstream attributes of raw into a Comment for videoID.
// Classification fields are left for the caller to fill.
func NewComment(videoID string, raw RawComment) Comment {
	likes, replies := raw.LikeCount, raw.ReplyCount
	if likes < 0 {
		likes = 0
	}
	if replies < 0 {
		replies = 0
	}
	return Comment{
		ID:                    raw.ID,
		VideoID:               videoID,
		AuthorDisplayName:     raw.AuthorDisplayName,
		AuthorProfileImageURL: raw.AuthorProfileImageURL,
		TextDisplay:           raw.TextDisplay,
		TextOriginal:          raw.TextOriginal,
		LikeCount:             likes,
		ReplyCount:            replies,
		PublishedAt:           raw.PublishedAt,
		UpdatedAt:             raw.UpdatedAt,
		ParentID:              raw.ParentID,
	}
}

// ConfidenceValue returns the confidence score or 0 when none was assigned
func (c Comment) ConfidenceValue() float64 {
	if c.Confidence == nil {
		return 0
	}
	return *c.Confidence
}

// WordCount is a token and its frequency across a corpus
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// FetchStats describes how complete an upstream comment walk was
type FetchStats struct {
	ReportedCount int  `json:"reportedCount"`
	FetchedCount  int  `json:"fetchedCount"`
	MissingCount  int  `json:"missingCount"`
	Pages         int  `json:"pages"`
	Complete      bool `json:"fetchSuccess"`
}

// Analysis is the derived summary of one corpus
type Analysis struct {
	ID              string            `json:"id"`
	VideoID         string            `json:"videoId"`
	TotalComments   int               `json:"totalComments"`
	CategoryCounts  map[Category]int  `json:"categoryCounts"`
	SentimentCounts map[Sentiment]int `json:"sentimentCounts"`
	TopWords        []WordCount       `json:"topWords"`
	TopTopics       []string          `json:"topTopics,omitempty"`
	Summary         string            `json:"aiSummary,omitempty"`
	EnrichedCount   int               `json:"enrichedCount"`
	EnrichedPercent float64           `json:"enrichedPercent"`
	FetchStats      *FetchStats       `json:"fetchingStats,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// Pagination is the metadata attached to a page of search results
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// AnalysisReport is sent to notification channels when an analysis completes
type AnalysisReport struct {
	GeneratedAt  time.Time `json:"generated_at"`
	Video        *Video    `json:"video"`
	Analysis     *Analysis `json:"analysis"`
	TopQuestions []Comment `json:"top_questions,omitempty"` // most liked questions first
}

// Alert represents an ingestion failure worth notifying about
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "urgent", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	VideoID   string    `json:"video_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
