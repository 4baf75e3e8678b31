package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Plain sentence",
			input:    "How do I install this??",
			expected: []string{"how", "do", "i", "install", "this"},
		},
		{
			name:     "URLs are removed",
			input:    "watch https://example.com/a?b=c now",
			expected: []string{"watch", "now"},
		},
		{
			name:     "Mentions and hashtags are removed",
			input:    "@john great video #golang #tips",
			expected: []string{"great", "video"},
		},
		{
			name:     "Punctuation splits words",
			input:    "hello-world, it's fine!",
			expected: []string{"hello", "world", "it", "s", "fine"},
		},
		{
			name:     "Whitespace collapses",
			input:    "  spaced \t\n out  ",
			expected: []string{"spaced", "out"},
		},
		{
			name:     "Unicode letters preserved",
			input:    "Café CRÈME",
			expected: []string{"café", "crème"},
		},
		{
			name:     "Fullwidth forms fold to ASCII",
			input:    "ＬＯＬ",
			expected: []string{"lol"},
		},
		{
			name:     "Only symbols",
			input:    "?!...",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
}

func TestTokenize_Deterministic(t *testing.T) {
	input := "Same INPUT, same output: https://x.y @z #w"
	assert.Equal(t, Tokenize(input), Tokenize(input))
}

func TestIndexable(t *testing.T) {
	assert.False(t, Indexable("hi"))
	assert.True(t, Indexable("hey"))
	assert.True(t, Indexable("été"))
}
