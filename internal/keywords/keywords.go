// Package keywords computes frequency-ranked words and topics over a corpus
package keywords

import (
	"sort"
	"strings"

	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/tokenizer"
)

// DefaultLimit is the number of top words kept in an analysis summary
const DefaultLimit = 20

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "i": {}, "you": {}, "he": {}, "she": {},
	"it": {}, "we": {}, "they": {}, "me": {}, "him": {}, "her": {}, "us": {},
	"them": {}, "my": {}, "your": {}, "his": {}, "its": {}, "our": {}, "their": {},
	"am": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "can": {}, "may": {},
	"might": {}, "must": {}, "shall": {}, "not": {}, "no": {}, "yes": {}, "all": {},
	"any": {}, "some": {}, "more": {}, "most": {}, "other": {}, "such": {},
	"only": {}, "own": {}, "same": {}, "so": {}, "than": {}, "too": {}, "very": {},
	"just": {}, "now": {}, "here": {}, "there": {}, "when": {}, "where": {},
	"why": {}, "how": {}, "what": {},
}

// IsStopWord reports whether word is excluded from keyword counts
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

// counter tallies strings and remembers first-seen order for tie breaks
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(s string) {
	if _, seen := c.counts[s]; !seen {
		c.order = append(c.order, s)
	}
	c.counts[s]++
}

func (c *counter) top(limit int) []models.WordCount {
	if limit <= 0 {
		return []models.WordCount{}
	}

	ranked := make([]models.WordCount, 0, len(c.order))
	for _, s := range c.order {
		ranked = append(ranked, models.WordCount{Word: s, Count: c.counts[s]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ExtractTopWords counts the tokens of every comment's display text, skipping
// stop words and tokens of two characters or fewer, and returns at most limit
// entries by descending count. Equal counts keep first-seen order.
func ExtractTopWords(comments []models.Comment, limit int) []models.WordCount {
	c := newCounter()
	for _, comment := range comments {
		for _, tok := range tokenizer.Tokenize(comment.TextDisplay) {
			if !tokenizer.Indexable(tok) || IsStopWord(tok) {
				continue
			}
			c.add(tok)
		}
	}
	return c.top(limit)
}

// TopTopics ranks the enrichment topics attached to comments, case-insensitively
func TopTopics(comments []models.Comment, limit int) []string {
	c := newCounter()
	for _, comment := range comments {
		for _, topic := range comment.Topics {
			topic = strings.ToLower(strings.TrimSpace(topic))
			if topic != "" {
				c.add(topic)
			}
		}
	}

	ranked := c.top(limit)
	topics := make([]string, len(ranked))
	for i, wc := range ranked {
		topics[i] = wc.Word
	}
	return topics
}
