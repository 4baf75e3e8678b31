package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/config"
	"github.com/azure/yt-comment-analyzer/internal/index"
	"github.com/azure/yt-comment-analyzer/internal/ingestion"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/search"
	"github.com/azure/yt-comment-analyzer/internal/sources"
	"github.com/azure/yt-comment-analyzer/internal/storage"
	"github.com/azure/yt-comment-analyzer/internal/store"
	"github.com/sirupsen/logrus"
)

const outputDir = "test_output"

// TerminalNotificationService outputs reports to terminal and files
type TerminalNotificationService struct{}

func (t *TerminalNotificationService) SendReport(report *models.AnalysisReport) error {
	video, analysis := report.Video, report.Analysis

	// Print to terminal
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("📊 COMMENT ANALYSIS REPORT")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("🎬 Video: %s\n", video.Title)
	if video.ChannelTitle != "" {
		fmt.Printf("📺 Channel: %s\n", video.ChannelTitle)
	}
	fmt.Printf("🕒 Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("💬 Total Comments: %d\n", analysis.TotalComments)
	if stats := analysis.FetchStats; stats != nil && stats.MissingCount > 0 {
		fmt.Printf("⚠️  Missing: %d of %d reported\n", stats.MissingCount, stats.ReportedCount)
	}

	fmt.Println("\n🏷️  Categories:")
	for _, category := range models.AllCategories() {
		fmt.Printf("   • %-12s %d comments\n", string(category)+":", analysis.CategoryCounts[category])
	}

	fmt.Println("\n💭 Sentiment Analysis:")
	for _, sentiment := range models.AllSentiments() {
		emoji := "😐"
		switch sentiment {
		case models.SentimentPositive:
			emoji = "😊"
		case models.SentimentNegative:
			emoji = "😞"
		}
		fmt.Printf("   %s %-10s %d comments\n", emoji, string(sentiment)+":", analysis.SentimentCounts[sentiment])
	}

	if len(analysis.TopWords) > 0 {
		words := make([]string, 0, 10)
		for i, wc := range analysis.TopWords {
			if i >= 10 {
				break
			}
			words = append(words, fmt.Sprintf("%s (%d)", wc.Word, wc.Count))
		}
		fmt.Printf("\n🔤 Top Words: %s\n", strings.Join(words, ", "))
	}

	if len(report.TopQuestions) > 0 {
		fmt.Println("\n❓ Top Questions:")
		for i, q := range report.TopQuestions {
			if i >= 5 {
				fmt.Printf("   ... and %d more questions\n", len(report.TopQuestions)-5)
				break
			}
			fmt.Printf("\n   %d. %s\n", i+1, q.TextDisplay)
			fmt.Printf("      👤 %s | 👍 %d | 💬 %d\n", q.AuthorDisplayName, q.LikeCount, q.ReplyCount)
		}
	}

	// Save to JSON file
	if err := t.saveReportToFile(report); err != nil {
		fmt.Printf("\n⚠️  Warning: Could not save to file: %v\n", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	return nil
}

func (t *TerminalNotificationService) SendAlert(alert *models.Alert) error {
	fmt.Println("\n🚨 ALERT")
	fmt.Printf("Type: %s\n", alert.Type)
	fmt.Printf("Title: %s\n", alert.Title)
	fmt.Printf("Message: %s\n", alert.Message)
	return nil
}

func (t *TerminalNotificationService) saveReportToFile(report *models.AnalysisReport) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	timestamp := report.GeneratedAt.Format("2006-01-02_15-04-05")
	filename := filepath.Join(outputDir, fmt.Sprintf("comment_report_%s_%s.json", report.Video.ID, timestamp))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}

	fmt.Printf("\n💾 Report saved to: %s\n", filename)
	return nil
}

func usage() {
	fmt.Println("Usage: report <dump.json> [search query]")
	fmt.Println()
	fmt.Println("The dump is a JSON object {\"video\": {...}, \"comments\": [...]} of RawComment records.")
}

func main() {
	fmt.Println("🤖 YouTube Comment Analyzer - Offline Report")
	fmt.Println("============================================")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	logrus.SetLevel(logrus.WarnLevel)

	source := sources.NewFileSource(os.Args[1])
	dump, err := source.ReadDump()
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	videoID := dump.Video.ID
	if videoID == "" {
		fmt.Println("❌ Dump has no video id")
		os.Exit(1)
	}

	// Offline runs classify heuristically and keep records under test_output
	cfg := &config.Config{
		TopWordsLimit:           20,
		EnrichmentRatePerSecond: 1,
		EnrichmentBurst:         1,
		EnrichmentWorkers:       1,
	}

	backend, err := storage.NewFileStorage(filepath.Join(outputDir, "records"))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	repo := store.NewMemoryStore(backend)
	indexes := index.NewRegistry()

	service := ingestion.NewService(cfg, source, repo, indexes, nil, &TerminalNotificationService{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Printf("\n📊 Analyzing %d comments from %s...\n", len(dump.Comments), os.Args[1])

	if _, err := service.Analyze(ctx, "https://www.youtube.com/watch?v="+videoID); err != nil {
		fmt.Printf("❌ Error analyzing dump: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 2 {
		query := strings.Join(os.Args[2:], " ")
		printSearch(ctx, search.NewService(repo, indexes), videoID, query)
	}

	fmt.Println("\n✅ Report generation completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Printf("   • Check the '%s' directory for the saved JSON report\n", outputDir)
	fmt.Println("   • Run the server with 'go run ./cmd/analyzer' to analyze live videos")
}

func printSearch(ctx context.Context, searcher *search.Service, videoID, query string) {
	limit := 5
	response, err := searcher.Search(ctx, search.Params{
		VideoID: videoID,
		Query:   query,
		SortBy:  search.SortLikes,
		Limit:   &limit,
	}.Request())
	if err != nil {
		fmt.Printf("\n❌ Search failed: %v\n", err)
		return
	}

	fmt.Printf("\n🔎 %d comments match %q (most liked first):\n", response.Pagination.Total, query)
	for i, c := range response.Comments {
		fmt.Printf("   %d. [%s] %s (👍 %d)\n", i+1, c.Category, c.TextDisplay, c.LikeCount)
	}
}
