// Package classifier assigns a category and sentiment to comment text with an
// ordered list of keyword and pattern rules. The first rule that matches wins:
// spam, question, joke, positive, negative, then discussion.
package classifier

import (
	"strings"
	"unicode"

	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/tokenizer"
	snowballeng "github.com/kljensen/snowball/english"
)

// HeuristicConfidence is the nominal 0-100 score given to rule-based results
const HeuristicConfidence = 30.0

// spamRunLength is the number of identical consecutive characters that marks spam
const spamRunLength = 5

// Result is the outcome of classifying one comment
type Result struct {
	Category  models.Category
	Sentiment models.Sentiment
}

// text is the prepared form of a comment that rules match against
type text struct {
	raw    string
	lower  string
	tokens []string
	stems  []string
}

type rule struct {
	category models.Category
	match    func(t *text) bool
}

// Classifier is safe for concurrent use once constructed
type Classifier struct {
	rules    []rule
	positive map[string]struct{}
	negative map[string]struct{}
}

var spamPhrases = []string{
	"subscribe to my channel", "sub to my channel", "check out my channel",
	"check my channel", "visit my channel", "free giveaway", "giveaway",
	"click the link", "link in bio", "link in my bio", "make money",
	"earn money", "earn $", "work from home", "dm me", "whatsapp",
	"telegram", "promo code", "sub4sub", "follow for follow", "free gift",
	"onlyfans", "crypto investment", "bitcoin", "forex",
}

var interrogatives = map[string]struct{}{
	"how": {}, "what": {}, "why": {}, "when": {}, "where": {}, "who": {},
	"which": {}, "can": {}, "could": {}, "would": {}, "should": {}, "will": {},
	"do": {}, "does": {}, "did": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"explain": {}, "help": {},
}

var questionPhrases = []string{
	"can someone", "does anyone", "anyone know", "anyone knows", "could you",
	"would you", "how do", "how to", "what is", "why is", "where is",
	"when is", "who is", "which is", "help me", "please help",
}

// humorSubstrings match anywhere inside a token ("lolol", "hahaha")
var humorSubstrings = []string{
	"lol", "lmao", "lmfao", "haha", "hehe", "rofl", "funny", "hilarious",
	"joke", "meme", "savage", "rekt", "cringe", "sigma", "amogus", "poggers",
	"omg", "bruh",
}

// humorWords are too short or too common as substrings and must match a whole token
var humorWords = map[string]struct{}{
	"fr": {}, "xd": {}, "kek": {}, "sus": {}, "based": {}, "chad": {},
	"epic": {}, "owned": {}, "burn": {},
}

var laughingEmoji = []string{"😂", "🤣", "😹", "💀"}

var positiveWords = []string{
	"love", "great", "awesome", "amazing", "excellent", "fantastic", "thank",
	"thanks", "helpful", "best", "beautiful", "perfect", "wonderful",
	"brilliant", "appreciate", "enjoy", "good", "nice", "cool", "incredible",
	"masterpiece", "underrated", "inspiring",
}

var negativeWords = []string{
	"hate", "bad", "terrible", "awful", "worst", "boring", "disappoint",
	"waste", "useless", "horrible", "stupid", "trash", "annoying", "wrong",
	"dislike", "poor", "garbage", "cringey", "overrated", "broken",
}

// New builds a Classifier with the built-in rule set
func New() *Classifier {
	c := &Classifier{
		positive: stemSet(positiveWords),
		negative: stemSet(negativeWords),
	}
	c.rules = []rule{
		{models.CategorySpam, isSpam},
		{models.CategoryQuestion, isQuestion},
		{models.CategoryJoke, isJoke},
		{models.CategoryPositive, func(t *text) bool { return c.hits(t, c.positive) > 0 }},
		{models.CategoryNegative, func(t *text) bool { return c.hits(t, c.negative) > 0 }},
	}
	return c
}

// Classify returns the category of the first matching rule and the
// independently computed sentiment. Empty text is discussion/neutral.
func (c *Classifier) Classify(raw string) Result {
	t := prepare(raw)

	result := Result{
		Category:  models.CategoryDiscussion,
		Sentiment: c.sentiment(t),
	}
	for _, r := range c.rules {
		if r.match(t) {
			result.Category = r.category
			break
		}
	}
	return result
}

// Sentiment returns only the polarity of raw
func (c *Classifier) Sentiment(raw string) models.Sentiment {
	return c.sentiment(prepare(raw))
}

func (c *Classifier) sentiment(t *text) models.Sentiment {
	pos := c.hits(t, c.positive)
	neg := c.hits(t, c.negative)

	if pos > neg {
		return models.SentimentPositive
	} else if neg > pos {
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}

func (c *Classifier) hits(t *text, lexicon map[string]struct{}) int {
	n := 0
	for _, stem := range t.stems {
		if _, ok := lexicon[stem]; ok {
			n++
		}
	}
	return n
}

func prepare(raw string) *text {
	t := &text{
		raw:    raw,
		lower:  strings.ToLower(strings.TrimSpace(raw)),
		tokens: tokenizer.Tokenize(raw),
	}
	t.stems = make([]string, len(t.tokens))
	for i, tok := range t.tokens {
		t.stems[i] = snowballeng.Stem(tok, false)
	}
	return t
}

func isSpam(t *text) bool {
	for _, phrase := range spamPhrases {
		if strings.Contains(t.lower, phrase) {
			return true
		}
	}
	return hasRepeatedRun(t.lower, spamRunLength)
}

// hasRepeatedRun reports whether s contains n identical consecutive non-space runes
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			run = 0
			prev = 0
			continue
		}
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

func isQuestion(t *text) bool {
	if strings.HasSuffix(t.lower, "?") {
		return true
	}
	if len(t.tokens) > 0 {
		if _, ok := interrogatives[t.tokens[0]]; ok {
			return true
		}
	}
	for _, phrase := range questionPhrases {
		if strings.Contains(t.lower, phrase) {
			return true
		}
	}
	return false
}

func isJoke(t *text) bool {
	for _, tok := range t.tokens {
		if _, ok := humorWords[tok]; ok {
			return true
		}
		for _, slang := range humorSubstrings {
			if strings.Contains(tok, slang) {
				return true
			}
		}
	}
	for _, e := range laughingEmoji {
		if strings.Contains(t.raw, e) {
			return true
		}
	}
	return strings.Contains(t.lower, "no cap")
}

func stemSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[snowballeng.Stem(w, false)] = struct{}{}
	}
	return set
}
