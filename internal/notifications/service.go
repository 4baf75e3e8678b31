package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/config"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/gomail.v2"
)

const maxListedQuestions = 5

var titleCase = cases.Title(language.English)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	dialer func() *gomail.Dialer
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
		dialer: func() *gomail.Dialer {
			return gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		},
	}
}

// Enabled reports whether any channel is configured
func (s *Service) Enabled() bool {
	return s.config.TeamsWebhookURL != "" || s.config.NotificationEmail != ""
}

// SendReport sends an analysis summary via configured notification channels
func (s *Service) SendReport(report *models.AnalysisReport) error {
	if report == nil || report.Video == nil || report.Analysis == nil {
		return fmt.Errorf("report is missing its video or analysis")
	}

	subject := fmt.Sprintf("Comment analysis: %s (%d comments)", report.Video.Title, report.Analysis.TotalComments)
	return s.dispatch("report",
		func() error { return s.postToTeams(s.buildTeamsReport(report)) },
		func() error {
			html, err := s.buildEmailHTML(report)
			if err != nil {
				return fmt.Errorf("failed to build email HTML: %w", err)
			}
			return s.sendEmail(subject, s.buildEmailText(report), html)
		},
	)
}

// SendAlert sends an ingestion failure notification
func (s *Service) SendAlert(alert *models.Alert) error {
	if alert == nil {
		return fmt.Errorf("alert is nil")
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Type), alert.Title)
	return s.dispatch("alert",
		func() error { return s.postToTeams(s.buildTeamsAlert(alert)) },
		func() error { return s.sendEmail(subject, s.buildAlertText(alert), "") },
	)
}

func (s *Service) dispatch(kind string, teams, email func() error) error {
	var errors []string

	// Send to Teams if configured
	if s.config.TeamsWebhookURL != "" {
		if err := teams(); err != nil {
			logrus.Errorf("Failed to send Teams %s: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Successfully sent %s to Teams", kind)
		}
	}

	// Send via email if configured
	if s.config.NotificationEmail != "" {
		if err := email(); err != nil {
			logrus.Errorf("Failed to send email %s: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Successfully sent %s via email", kind)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) postToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsReport(report *models.AnalysisReport) *TeamsMessage {
	video, analysis := report.Video, report.Analysis

	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "FF0000",
		Title:      fmt.Sprintf("Comment Analysis - %s", video.Title),
		Text: fmt.Sprintf("Classified %d comments on [%s](%s) by %s",
			analysis.TotalComments, video.Title, video.URL, video.ChannelTitle),
	}

	facts := []TeamsFact{
		{Name: "Total Comments", Value: fmt.Sprintf("%d", analysis.TotalComments)},
		{Name: "AI Enriched", Value: fmt.Sprintf("%.1f%%", analysis.EnrichedPercent)},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	for _, category := range models.AllCategories() {
		facts = append(facts, TeamsFact{
			Name:  fmt.Sprintf("%s Comments", titleCase.String(string(category))),
			Value: fmt.Sprintf("%d", analysis.CategoryCounts[category]),
		})
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if analysis.Summary != "" {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "What viewers talk about",
			ActivityText:  analysis.Summary,
			Markdown:      true,
		})
	}

	if len(report.TopQuestions) > 0 {
		var questions []string
		for i, q := range report.TopQuestions {
			if i == maxListedQuestions {
				break
			}
			questions = append(questions, fmt.Sprintf("**%s** (%d likes): %s",
				q.AuthorDisplayName, q.LikeCount, truncate(q.TextOriginal, 200)))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Questions",
			ActivityText:  strings.Join(questions, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) buildTeamsAlert(alert *models.Alert) *TeamsMessage {
	facts := []TeamsFact{
		{Name: "Type", Value: alert.Type},
		{Name: "Time", Value: alert.CreatedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	if alert.VideoID != "" {
		facts = append(facts, TeamsFact{Name: "Video", Value: alert.VideoID})
	}

	return &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "D13438",
		Title:      alert.Title,
		Text:       alert.Message,
		Sections:   []TeamsSection{{Facts: facts}},
	}
}

func (s *Service) sendEmail(subject, textBody, htmlBody string) error {
	// Create message
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	if err := s.dialer().DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const reportTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Comment Analysis</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #cc0000; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .question { border-left: 4px solid #cc0000; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .question-meta { color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Video.Title}}</h1>
        <p>{{.Video.ChannelTitle}} | analysis generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Total Comments:</strong> {{.Analysis.TotalComments}}</p>
        {{range $category, $count := .Analysis.CategoryCounts}}
            <p><strong>{{$category | title}}:</strong> {{$count}}</p>
        {{end}}
        <p><strong>AI Enriched:</strong> {{printf "%.1f" .Analysis.EnrichedPercent}}%</p>
        {{if .Analysis.Summary}}<p>{{.Analysis.Summary}}</p>{{end}}
        {{if .Analysis.TopWords}}
        <p><strong>Top Words:</strong>{{range $i, $w := .Analysis.TopWords}}{{if lt $i 10}} {{$w.Word}} ({{$w.Count}}){{end}}{{end}}</p>
        {{end}}
    </div>

    {{if .TopQuestions}}
    <h2>Top Questions</h2>
    {{range $index, $q := .TopQuestions}}
        {{if lt $index 10}}
        <div class="question">
            <p>{{$q.TextOriginal | truncate 200}}</p>
            <div class="question-meta">By {{$q.AuthorDisplayName}} | {{$q.LikeCount}} likes | {{$q.PublishedAt.Format "Jan 2, 2006"}}</div>
        </div>
        {{end}}
    {{end}}
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the YouTube Comment Analyzer.</small></p>
</body>
</html>
`

func (s *Service) buildEmailHTML(report *models.AnalysisReport) (string, error) {
	// Create template with custom functions
	t := template.New("email").Funcs(template.FuncMap{
		"title": func(c models.Category) string { return titleCase.String(string(c)) },
		"truncate": func(length int, s string) string {
			return truncate(s, length)
		},
	})

	t, err := t.Parse(reportTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(report *models.AnalysisReport) string {
	var text strings.Builder
	analysis := report.Analysis

	text.WriteString(fmt.Sprintf("Comment Analysis - %s\n", report.Video.Title))
	text.WriteString(fmt.Sprintf("Channel: %s\n", report.Video.ChannelTitle))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Total Comments: %d\n", analysis.TotalComments))
	for _, category := range models.AllCategories() {
		text.WriteString(fmt.Sprintf("%s: %d\n", titleCase.String(string(category)), analysis.CategoryCounts[category]))
	}
	text.WriteString(fmt.Sprintf("AI Enriched: %.1f%%\n", analysis.EnrichedPercent))
	if analysis.Summary != "" {
		text.WriteString(fmt.Sprintf("\n%s\n", analysis.Summary))
	}

	if len(report.TopQuestions) > 0 {
		text.WriteString("\nTOP QUESTIONS\n")
		text.WriteString("=============\n")

		limit := 10
		if len(report.TopQuestions) < limit {
			limit = len(report.TopQuestions)
		}

		for i := 0; i < limit; i++ {
			q := report.TopQuestions[i]
			text.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, truncate(q.TextOriginal, 200)))
			text.WriteString(fmt.Sprintf("   Author: %s | Likes: %d | Date: %s\n",
				q.AuthorDisplayName, q.LikeCount, q.PublishedAt.Format("Jan 2, 2006")))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by the YouTube Comment Analyzer.\n")

	return text.String()
}

func (s *Service) buildAlertText(alert *models.Alert) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("%s\n\n%s\n\n", alert.Title, alert.Message))
	if alert.VideoID != "" {
		text.WriteString(fmt.Sprintf("Video: %s\n", alert.VideoID))
	}
	text.WriteString(fmt.Sprintf("Time: %s\n", alert.CreatedAt.Format("2006-01-02 15:04:05 UTC")))
	return text.String()
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length]) + "..."
}
