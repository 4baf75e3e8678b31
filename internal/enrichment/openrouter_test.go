package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer answers every completion with content and records the last prompt
func chatServer(t *testing.T, status int, content string) (*httptest.Server, *string, *int32) {
	t.Helper()
	var lastPrompt string
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && len(req.Messages) > 0 {
			lastPrompt = req.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"nope"}}`))
			return
		}
		body, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, &lastPrompt, &calls
}

func newClient(server *httptest.Server) *OpenRouterClient {
	return NewOpenRouterClient("test-key", WithBaseURL(server.URL), WithRetries(0, time.Millisecond))
}

func TestOpenRouterClient_AnalyzeComment(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		category  models.Category
		sentiment models.Sentiment
	}{
		{
			name:      "plain JSON",
			content:   `{"category":"question","sentiment":"neutral","topics":["install"," "],"confidence":0.9,"reasoning":"asks how"}`,
			category:  models.CategoryQuestion,
			sentiment: models.SentimentNeutral,
		},
		{
			name:      "fenced JSON",
			content:   "```json\n{\"category\":\"positive\",\"sentiment\":\"positive\",\"topics\":[],\"confidence\":0.7,\"reasoning\":\"praise\"}\n```",
			category:  models.CategoryPositive,
			sentiment: models.SentimentPositive,
		},
		{
			name:      "neutral maps to discussion",
			content:   `{"category":"neutral","sentiment":"neutral","topics":[],"confidence":0.5,"reasoning":"statement"}`,
			category:  models.CategoryDiscussion,
			sentiment: models.SentimentNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, prompt, _ := chatServer(t, http.StatusOK, tt.content)
			client := newClient(server)

			result, err := client.AnalyzeComment(context.Background(), `How do I "install" this?`)
			require.NoError(t, err)
			assert.Equal(t, tt.category, result.Category)
			assert.Equal(t, tt.sentiment, result.Sentiment)
			assert.NotEmpty(t, result.Reasoning)
			assert.Contains(t, *prompt, `How do I \"install\" this?`)
		})
	}
}

func TestOpenRouterClient_TrimsTopics(t *testing.T) {
	server, _, _ := chatServer(t, http.StatusOK,
		`{"category":"discussion","sentiment":"neutral","topics":[" golang ","","channels"],"confidence":0.8,"reasoning":"x"}`)

	result, err := newClient(server).AnalyzeComment(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []string{"golang", "channels"}, result.Topics)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestOpenRouterClient_MalformedResponses(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not JSON", "I think this is a question"},
		{"missing sentiment", `{"category":"question","topics":[],"confidence":0.9,"reasoning":"r"}`},
		{"unknown category", `{"category":"rant","sentiment":"negative","topics":[],"confidence":0.9,"reasoning":"r"}`},
		{"confidence out of range", `{"category":"joke","sentiment":"positive","topics":[],"confidence":85,"reasoning":"r"}`},
		{"missing confidence", `{"category":"joke","sentiment":"positive","topics":[],"reasoning":"r"}`},
		{"missing topics", `{"category":"joke","sentiment":"positive","confidence":0.4,"reasoning":"r"}`},
		{"missing reasoning", `{"category":"joke","sentiment":"positive","topics":[],"confidence":0.4}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _, _ := chatServer(t, http.StatusOK, tt.content)

			_, err := newClient(server).AnalyzeComment(context.Background(), "text")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
			assert.True(t, errs.Is(err, errs.KindEnrichment))
		})
	}
}

func TestOpenRouterClient_HTTPErrors(t *testing.T) {
	server, _, calls := chatServer(t, http.StatusTooManyRequests, "")
	client := NewOpenRouterClient("test-key", WithBaseURL(server.URL), WithRetries(2, time.Millisecond))

	_, err := client.AnalyzeComment(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindEnrichment))
	assert.Equal(t, int32(3), atomic.LoadInt32(calls), "429 is retried")
}

func TestOpenRouterClient_Disabled(t *testing.T) {
	client := NewOpenRouterClient("")
	assert.False(t, client.IsEnabled())

	_, err := client.AnalyzeComment(context.Background(), "text")
	assert.True(t, errs.Is(err, errs.KindEnrichment))
}

func TestOpenRouterClient_GenerateTopicSummary(t *testing.T) {
	server, prompt, calls := chatServer(t, http.StatusOK,
		`{"topics":["installation","performance"],"summary":"Viewers ask about setup."}`)
	client := newClient(server)

	texts := make([]string, 30)
	for i := range texts {
		texts[i] = "comment-" + string(rune('A'+i))
	}

	summary, err := client.GenerateTopicSummary(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, []string{"installation", "performance"}, summary.Topics)
	assert.Equal(t, "Viewers ask about setup.", summary.Summary)
	assert.Equal(t, SummarySampleSize, strings.Count(*prompt, "comment-"))

	empty, err := client.GenerateTopicSummary(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Topics)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "empty input makes no call")
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  ```json\n{\"a\":1}```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFence(tt.in))
	}
}
