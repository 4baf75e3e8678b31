package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "yt-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.FetchPageDelay)
	assert.Equal(t, 3, cfg.FetchMaxRetries)
	assert.Equal(t, 20, cfg.TopWordsLimit)
	assert.Equal(t, 10*time.Minute, cfg.AnalyzeTimeout)
	assert.Equal(t, "0 0 */6 * * *", cfg.ReanalyzeSchedule)
	assert.False(t, cfg.EnrichmentActive())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("FETCH_PAGE_DELAY", "250ms")
	t.Setenv("ANALYZE_TIMEOUT", "30000")
	t.Setenv("ENABLE_ENRICHMENT", "true")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("ENRICHMENT_RATE_PER_SECOND", "2.5")
	t.Setenv("TOP_WORDS_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.FetchPageDelay)
	assert.Equal(t, 30*time.Second, cfg.AnalyzeTimeout)
	assert.Equal(t, 2.5, cfg.EnrichmentRatePerSecond)
	assert.Equal(t, 20, cfg.TopWordsLimit, "unparseable values fall back to defaults")
	assert.True(t, cfg.EnrichmentActive())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing YouTube key",
			env:     map[string]string{"YOUTUBE_API_KEY": "", "GOOGLE_API_KEY": ""},
			wantErr: "YOUTUBE_API_KEY",
		},
		{
			name:    "enrichment without key",
			env:     map[string]string{"YOUTUBE_API_KEY": "k", "ENABLE_ENRICHMENT": "true", "OPENROUTER_API_KEY": ""},
			wantErr: "OPENROUTER_API_KEY",
		},
		{
			name:    "email without SMTP",
			env:     map[string]string{"YOUTUBE_API_KEY": "k", "NOTIFICATION_EMAIL": "team@example.com", "SMTP_HOST": ""},
			wantErr: "SMTP",
		},
		{
			name:    "bad schedule",
			env:     map[string]string{"YOUTUBE_API_KEY": "k", "ENABLE_SCHEDULER": "true", "REANALYZE_SCHEDULE": "every day"},
			wantErr: "REANALYZE_SCHEDULE",
		},
		{
			name: "google key accepted",
			env:  map[string]string{"YOUTUBE_API_KEY": "", "GOOGLE_API_KEY": "g"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
