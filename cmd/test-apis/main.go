package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/config"
	"github.com/azure/yt-comment-analyzer/internal/enrichment"
	"github.com/azure/yt-comment-analyzer/internal/sources"
	"github.com/joho/godotenv"
)

// A short, long-lived public video with comments enabled
const defaultVideoURL = "https://www.youtube.com/watch?v=jNQXAC9IVRw"

func main() {
	fmt.Println("🔍 YouTube Comment Analyzer - API Connectivity Test")
	fmt.Println("==================================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	videoURL := defaultVideoURL
	if len(os.Args) > 1 {
		videoURL = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("\n📡 Testing API collaborators...")
	fmt.Println(strings.Repeat("-", 40))

	youtube := sources.NewYouTubeSource(cfg.YouTubeAPIKey,
		sources.WithBaseURL(cfg.YouTubeBaseURL),
		sources.WithPageDelay(cfg.FetchPageDelay),
	)
	sample := testYouTube(ctx, youtube, videoURL)

	openRouter := enrichment.NewOpenRouterClient(cfg.OpenRouterAPIKey,
		enrichment.WithBaseURL(cfg.OpenRouterBaseURL),
		enrichment.WithModel(cfg.OpenRouterModel),
	)
	testOpenRouter(ctx, openRouter, sample)

	fmt.Println("\n✅ API connectivity test completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing API keys in .env file")
	fmt.Println("   • Run the server with: go run ./cmd/analyzer")
}

// testYouTube walks the comments of videoURL and returns one comment text for the enrichment probe
func testYouTube(ctx context.Context, source *sources.YouTubeSource, videoURL string) string {
	fmt.Printf("🔸 Testing %s... ", source.GetName())

	if !source.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing API key)\n")
		return ""
	}

	videoID := sources.ExtractVideoID(videoURL)
	if videoID == "" {
		fmt.Printf("❌ ERROR: %q is not a YouTube video URL\n", videoURL)
		return ""
	}

	result, err := source.FetchVideo(ctx, videoID)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return ""
	}

	stats := result.Stats
	fmt.Printf("✅ SUCCESS (%d of %d comments in %d pages)\n", stats.FetchedCount, stats.ReportedCount, stats.Pages)
	fmt.Printf("   🎬 Video: \"%s\" by %s\n", result.Video.Title, result.Video.ChannelTitle)
	if !stats.Complete {
		fmt.Printf("   ⚠️  Walk incomplete, %d comments missing\n", stats.MissingCount)
	}

	if len(result.Comments) == 0 {
		return ""
	}
	sample := result.Comments[0].TextOriginal
	if sample == "" {
		sample = result.Comments[0].TextDisplay
	}
	fmt.Printf("   📝 Sample: \"%s\"\n", sample)
	return sample
}

func testOpenRouter(ctx context.Context, client *enrichment.OpenRouterClient, sample string) {
	fmt.Printf("🔸 Testing OpenRouter... ")

	if !client.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing API key)\n")
		return
	}
	if sample == "" {
		sample = "How did you set up the lighting for this shot?"
	}

	result, err := client.AnalyzeComment(ctx, sample)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS\n")
	fmt.Printf("   🏷️  Category: %s | 💭 Sentiment: %s | 🎯 Confidence: %.2f\n", result.Category, result.Sentiment, result.Confidence)
	if len(result.Topics) > 0 {
		fmt.Printf("   🧵 Topics: %s\n", strings.Join(result.Topics, ", "))
	}
}
