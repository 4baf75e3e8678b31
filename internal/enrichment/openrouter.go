package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel             = "gpt-3.5-turbo"

	// SummarySampleSize caps how many comments are sent for a topic summary
	SummarySampleSize = 20
)

const commentPrompt = `Analyze this YouTube comment and provide a JSON response with the following structure:
{
  "category": "question|joke|discussion|positive|negative|neutral|spam",
  "sentiment": "positive|negative|neutral",
  "topics": ["topic1", "topic2"],
  "confidence": 0.85,
  "reasoning": "Brief explanation of the classification"
}

Categories:
- question: Asking for information, help, or clarification
- joke: Humorous content, memes, sarcasm
- discussion: Thoughtful commentary or analysis
- positive: Praise, appreciation, positive feedback
- negative: Criticism, complaints, negative feedback
- neutral: Factual statements, neutral observations
- spam: Promotional content, irrelevant messages, or repetitive content

Comment to analyze: %q

Respond only with valid JSON:`

const summaryPrompt = `Analyze these YouTube comments and provide a JSON response with:
{
  "topics": ["topic1", "topic2", "topic3"],
  "summary": "Brief summary of the main discussion themes"
}

Comments:
%s

Respond only with valid JSON:`

// OpenRouterClient implements Enricher against the OpenRouter chat completions API
type OpenRouterClient struct {
	apiKey   string
	model    string
	client   *resty.Client
	validate *validator.Validate
}

// Ensure OpenRouterClient implements Enricher
var _ Enricher = (*OpenRouterClient)(nil)

// Option customizes an OpenRouterClient
type Option func(*OpenRouterClient)

func WithBaseURL(baseURL string) Option {
	return func(c *OpenRouterClient) {
		c.client.SetBaseURL(baseURL)
	}
}

func WithModel(model string) Option {
	return func(c *OpenRouterClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithRetries sets how often a call is retried on 429, 5xx or transport errors
func WithRetries(count int, wait time.Duration) Option {
	return func(c *OpenRouterClient) {
		c.client.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(8 * wait)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// commentPayload is the variant the model is asked to produce
type commentPayload struct {
	Category   string   `json:"category" validate:"required,oneof=question joke discussion positive negative neutral spam"`
	Sentiment  string   `json:"sentiment" validate:"required,oneof=positive negative neutral"`
	Topics     []string `json:"topics" validate:"required"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	Reasoning  string   `json:"reasoning" validate:"required"`
}

type summaryPayload struct {
	Topics  []string `json:"topics" validate:"required"`
	Summary string   `json:"summary" validate:"required"`
}

// NewOpenRouterClient creates a new OpenRouter client
func NewOpenRouterClient(apiKey string, opts ...Option) *OpenRouterClient {
	c := &OpenRouterClient{
		apiKey:   apiKey,
		model:    DefaultModel,
		validate: validator.New(),
		client: resty.New().
			SetBaseURL(DefaultOpenRouterBaseURL).
			SetTimeout(30*time.Second).
			SetAuthToken(apiKey).
			SetHeader("Content-Type", "application/json").
			SetHeader("HTTP-Referer", "https://github.com/azure/yt-comment-analyzer").
			SetHeader("X-Title", "YouTube Comment Analyzer").
			SetRetryCount(2).
			SetRetryWaitTime(time.Second).
			SetRetryMaxWaitTime(10 * time.Second).
			AddRetryCondition(func(resp *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return resp != nil && (resp.StatusCode() == http.StatusTooManyRequests ||
					resp.StatusCode() >= http.StatusInternalServerError)
			}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OpenRouterClient) IsEnabled() bool {
	return c.apiKey != ""
}

// AnalyzeComment classifies a single comment
func (c *OpenRouterClient) AnalyzeComment(ctx context.Context, text string) (*Result, error) {
	content, err := c.complete(ctx, fmt.Sprintf(commentPrompt, text), 300)
	if err != nil {
		return nil, errs.Enrichment("analyze comment", err)
	}

	var payload commentPayload
	if err := c.decode(content, &payload); err != nil {
		logrus.WithError(err).Debugf("Unusable enrichment reply: %s", content)
		return nil, errs.Enrichment("analyze comment", err)
	}

	category := models.Category(payload.Category)
	if payload.Category == "neutral" {
		category = models.CategoryDiscussion
	}

	topics := make([]string, 0, len(payload.Topics))
	for _, topic := range payload.Topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			topics = append(topics, topic)
		}
	}

	return &Result{
		Category:   category,
		Sentiment:  models.Sentiment(payload.Sentiment),
		Topics:     topics,
		Confidence: *payload.Confidence,
		Reasoning:  payload.Reasoning,
	}, nil
}

// GenerateTopicSummary digests at most SummarySampleSize comments
func (c *OpenRouterClient) GenerateTopicSummary(ctx context.Context, texts []string) (*TopicSummary, error) {
	if len(texts) == 0 {
		return &TopicSummary{Topics: []string{}, Summary: "No comments to analyze"}, nil
	}
	if len(texts) > SummarySampleSize {
		texts = texts[:SummarySampleSize]
	}

	content, err := c.complete(ctx, fmt.Sprintf(summaryPrompt, strings.Join(texts, "\n---\n")), 400)
	if err != nil {
		return nil, errs.Enrichment("topic summary", err)
	}

	var payload summaryPayload
	if err := c.decode(content, &payload); err != nil {
		return nil, errs.Enrichment("topic summary", err)
	}
	return &TopicSummary{Topics: payload.Topics, Summary: payload.Summary}, nil
}

func (c *OpenRouterClient) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !c.IsEnabled() {
		return "", fmt.Errorf("OpenRouter API key is not configured")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			MaxTokens:   maxTokens,
			Temperature: 0.3,
		}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("openrouter API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var chat chatResponse
	if err := json.Unmarshal(resp.Body(), &chat); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: no content in response", ErrMalformedResponse)
	}
	return chat.Choices[0].Message.Content, nil
}

func (c *OpenRouterClient) decode(content string, v interface{}) error {
	if err := json.Unmarshal([]byte(stripFence(content)), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// stripFence removes a surrounding markdown code fence such as ```json ... ```
func stripFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
