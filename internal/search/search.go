// Package search narrows, filters, ranks and paginates a corpus of classified comments
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/azure/yt-comment-analyzer/internal/index"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/store"
	"github.com/azure/yt-comment-analyzer/internal/tokenizer"
	"github.com/azure/yt-comment-analyzer/internal/trie"
	"github.com/azure/yt-comment-analyzer/internal/validation"
	"github.com/sirupsen/logrus"
)

const (
	All = "all"

	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortLikes      = "likes"
	SortReplies    = "replies"
	SortConfidence = "confidence"

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Request is a validated search over one corpus
type Request struct {
	VideoID   string `json:"videoId" validate:"required"`
	Query     string `json:"query,omitempty" validate:"max=200"`
	Category  string `json:"category" validate:"oneof=all question joke positive negative spam discussion"`
	Sentiment string `json:"sentiment" validate:"oneof=all positive negative neutral"`
	SortBy    string `json:"sortBy" validate:"oneof=newest oldest likes replies confidence"`
	Page      int    `json:"page" validate:"min=1"`
	Limit     int    `json:"limit" validate:"min=1,max=100"`
}

// WithDefaults fills unset fields. Zero page and limit count as unset.
func (r Request) WithDefaults() Request {
	r.fillEnums()
	if r.Page == 0 {
		r.Page = DefaultPage
	}
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	return r
}

func (r *Request) fillEnums() {
	if r.Category == "" {
		r.Category = All
	}
	if r.Sentiment == "" {
		r.Sentiment = All
	}
	if r.SortBy == "" {
		r.SortBy = SortNewest
	}
}

// Params is the wire form of a search. Absent fields take defaults while
// explicit values, including zero, are validated as given.
type Params struct {
	VideoID   string `json:"videoId"`
	Query     string `json:"query"`
	Category  string `json:"category"`
	Sentiment string `json:"sentiment"`
	SortBy    string `json:"sortBy"`
	Page      *int   `json:"page"`
	Limit     *int   `json:"limit"`
}

func (p Params) Request() Request {
	r := Request{
		VideoID:   p.VideoID,
		Query:     p.Query,
		Category:  p.Category,
		Sentiment: p.Sentiment,
		SortBy:    p.SortBy,
		Page:      DefaultPage,
		Limit:     DefaultLimit,
	}
	r.fillEnums()
	if p.Page != nil {
		r.Page = *p.Page
	}
	if p.Limit != nil {
		r.Limit = *p.Limit
	}
	return r
}

// Response is one page of results
type Response struct {
	Comments   []models.Comment  `json:"comments"`
	Pagination models.Pagination `json:"pagination"`
}

// Service answers searches from the comment store and the corpus indexes
type Service struct {
	store   store.Repository
	indexes *index.Registry
}

func NewService(repo store.Repository, indexes *index.Registry) *Service {
	return &Service{store: repo, indexes: indexes}
}

// Search validates req before touching the store, then narrows by query,
// filters by category and sentiment, sorts stably and slices out one page
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	if err := validation.Check("search", req); err != nil {
		return nil, err
	}

	comments, err := s.store.ListComments(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}

	if q := strings.TrimSpace(req.Query); q != "" {
		comments = s.narrow(req.VideoID, q, comments)
	}

	comments = filter(comments, func(c models.Comment) bool {
		if req.Category != All && string(c.Category) != req.Category {
			return false
		}
		if req.Sentiment != All && string(c.Sentiment) != req.Sentiment {
			return false
		}
		return true
	})

	Sort(comments, req.SortBy)

	start, end, pagination := Paginate(len(comments), req.Page, req.Limit)
	page := comments[start:end]
	if page == nil {
		page = []models.Comment{}
	}
	return &Response{Comments: page, Pagination: pagination}, nil
}

// narrow keeps the comments matching query. With an index bound every query
// token is a prefix lookup and the sets are intersected; without one the query
// is matched as a substring of text and author.
func (s *Service) narrow(videoID, query string, comments []models.Comment) []models.Comment {
	t, ok := s.indexes.Get(videoID)
	if !ok {
		logrus.WithField("video_id", videoID).Debug("No prefix index bound, scanning corpus")
		needle := strings.ToLower(query)
		return filter(comments, func(c models.Comment) bool {
			return strings.Contains(strings.ToLower(c.TextDisplay), needle) ||
				strings.Contains(strings.ToLower(c.AuthorDisplayName), needle)
		})
	}

	matches := lookup(t, query)
	return filter(comments, func(c models.Comment) bool {
		return matches.Contains(c.ID)
	})
}

func lookup(t *trie.Trie, query string) trie.IDSet {
	tokens := tokenizer.Tokenize(query)
	if len(tokens) == 0 {
		return t.StartsWith(query)
	}

	set := t.StartsWith(tokens[0])
	for _, tok := range tokens[1:] {
		if set.IsEmpty() {
			break
		}
		set = set.Intersect(t.StartsWith(tok))
	}
	return set
}

func filter(comments []models.Comment, keep func(models.Comment) bool) []models.Comment {
	out := comments[:0:0]
	for _, c := range comments {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// Sort orders comments in place by key; equal elements keep their relative order.
// Unknown keys leave the order untouched.
func Sort(comments []models.Comment, key string) {
	var less func(a, b models.Comment) bool
	switch key {
	case SortNewest:
		less = func(a, b models.Comment) bool { return a.PublishedAt.After(b.PublishedAt) }
	case SortOldest:
		less = func(a, b models.Comment) bool { return a.PublishedAt.Before(b.PublishedAt) }
	case SortLikes:
		less = func(a, b models.Comment) bool { return a.LikeCount > b.LikeCount }
	case SortReplies:
		less = func(a, b models.Comment) bool { return a.ReplyCount > b.ReplyCount }
	case SortConfidence:
		less = func(a, b models.Comment) bool { return a.ConfidenceValue() > b.ConfidenceValue() }
	default:
		return
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return less(comments[i], comments[j])
	})
}

// Paginate returns the [start, end) bounds of page within total items
func Paginate(total, page, limit int) (start, end int, p models.Pagination) {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	// Compare before multiplying; (page-1)*limit overflows for huge pages
	switch {
	case page < 1 || limit < 1:
		start = 0
	case page-1 > total/limit:
		start = total
	default:
		start = (page - 1) * limit
		if start > total {
			start = total
		}
	}
	end = start
	if limit > 0 {
		end = start + min(limit, total-start)
	}

	return start, end, models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
