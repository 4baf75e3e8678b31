package trie

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func TestTrie_InsertAndStartsWith(t *testing.T) {
	tr := New()
	tr.Insert("hello", "c1")
	tr.Insert("help", "c2")

	assert.Equal(t, []string{"c1", "c2"}, sorted(tr.StartsWith("hel").IDs()))
	assert.Equal(t, []string{"c1"}, tr.StartsWith("hello").IDs())
	assert.Equal(t, []string{"c2"}, tr.StartsWith("help").IDs())
	assert.True(t, tr.StartsWith("helix").IsEmpty())
	assert.True(t, tr.StartsWith("hello world").IsEmpty())
}

func TestTrie_CaseInsensitive(t *testing.T) {
	tr := New()
	tr.Insert("  GoLang ", "c1")

	assert.Equal(t, []string{"c1"}, tr.StartsWith("GO").IDs())
	assert.Equal(t, []string{"c1"}, tr.Search("golang").IDs())
	assert.Equal(t, []string{"c1"}, tr.Search("GOLANG").IDs())
}

func TestTrie_Search(t *testing.T) {
	tr := New()
	tr.Insert("hello", "c1")
	tr.Insert("help", "c2")
	tr.Insert("hell", "c3")
	tr.Insert("helloworld", "c4")

	assert.Equal(t, []string{"c1", "c4"}, tr.Search("hello").IDs())
	assert.Equal(t, []string{"c1", "c3", "c4"}, tr.Search("hell").IDs())
	assert.Equal(t, []string{"c2"}, tr.Search("help").IDs())
	assert.True(t, tr.Search("hel").IsEmpty(), "no word ends at hel")
	assert.True(t, tr.Search("helpful").IsEmpty())
}

func TestTrie_EmptyQueries(t *testing.T) {
	tr := New()
	tr.Insert("", "c1")
	tr.Insert("   ", "c1")
	tr.Insert("word", "c2")

	assert.True(t, tr.StartsWith("").IsEmpty())
	assert.True(t, tr.Search("").IsEmpty())
	assert.Equal(t, 1, tr.Stats().Comments)
}

func TestTrie_DuplicateInsert(t *testing.T) {
	tr := New()
	tr.Insert("repeat", "c1")
	tr.Insert("repeat", "c1")
	tr.Insert("repeat", "c2")

	set := tr.StartsWith("rep")
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"c1", "c2"}, set.IDs())
	assert.Equal(t, 1, tr.Stats().Words)
	assert.Equal(t, 7, tr.Stats().Nodes)
}

func TestTrie_ResultsDoNotAliasNodes(t *testing.T) {
	tr := New()
	tr.Insert("alpha", "c1")

	first := tr.StartsWith("al")
	first.bm.Add(99)

	assert.Equal(t, 1, tr.StartsWith("al").Len())
}

func TestIDSet_Contains(t *testing.T) {
	tr := New()
	tr.Insert("alpha", "c1")
	tr.Insert("beta", "c2")

	set := tr.StartsWith("alp")
	assert.True(t, set.Contains("c1"))
	assert.False(t, set.Contains("c2"))
	assert.False(t, set.Contains("unknown"))

	var zero IDSet
	assert.False(t, zero.Contains("c1"))
	assert.Equal(t, 0, zero.Len())
	assert.True(t, zero.IsEmpty())
	assert.Empty(t, zero.IDs())
}

func TestIDSet_Intersect(t *testing.T) {
	tr := New()
	tr.Insert("golang", "c1")
	tr.Insert("generics", "c1")
	tr.Insert("golang", "c2")
	tr.Insert("generics", "c3")

	both := tr.StartsWith("go").Intersect(tr.StartsWith("gen"))
	assert.Equal(t, []string{"c1"}, both.IDs())
}

func TestFromComments_IndexesTextAndAuthor(t *testing.T) {
	comments := []models.Comment{
		{ID: "c1", AuthorDisplayName: "John Smith", TextDisplay: "Great explanation of channels"},
		{ID: "c2", AuthorDisplayName: "Ann", TextDisplay: "I disagree with John"},
		{ID: "c3", AuthorDisplayName: "Bo", TextDisplay: "go is ok"},
	}

	tr := FromComments(comments)

	assert.Equal(t, []string{"c1", "c2"}, tr.StartsWith("john").IDs())
	assert.Equal(t, []string{"c1"}, tr.StartsWith("smi").IDs())
	assert.Equal(t, []string{"c2"}, tr.StartsWith("ann").IDs())
	assert.True(t, tr.StartsWith("go").IsEmpty(), "two letter tokens are not indexed")
	assert.True(t, tr.StartsWith("bo").IsEmpty())
}

// linearStartsWith is the brute-force reference for StartsWith
func linearStartsWith(comments []models.Comment, prefix string) []string {
	prefix = strings.ToLower(prefix)
	var ids []string
	for _, c := range comments {
		matched := false
		for _, source := range []string{c.TextDisplay, c.AuthorDisplayName} {
			for _, tok := range tokenizer.Tokenize(source) {
				if tokenizer.Indexable(tok) && strings.HasPrefix(tok, prefix) {
					matched = true
				}
			}
		}
		if matched {
			ids = append(ids, c.ID)
		}
	}
	return sorted(ids)
}

func randomCorpus(rng *rand.Rand, n int) []models.Comment {
	vocab := []string{
		"hello", "help", "helpful", "helicopter", "golang", "gopher", "google",
		"tutorial", "tutor", "install", "instant", "insane", "lol", "lolol",
		"great", "grate", "awesome", "awful", "question", "quest", "Zoë", "zoo",
		"a", "is", "of", "the", "https://example.com/x", "@tag", "#topic",
	}
	authors := []string{"John", "Joan", "Ann Marie", "Bob", "Al"}

	comments := make([]models.Comment, n)
	for i := range comments {
		words := make([]string, 1+rng.Intn(8))
		for j := range words {
			words[j] = vocab[rng.Intn(len(vocab))]
			if rng.Intn(4) == 0 {
				words[j] = strings.ToUpper(words[j])
			}
		}
		comments[i] = models.Comment{
			ID:                fmt.Sprintf("c%03d", i),
			AuthorDisplayName: authors[rng.Intn(len(authors))],
			TextDisplay:       strings.Join(words, " ") + "!",
		}
	}
	return comments
}

func TestTrie_StartsWithMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	comments := randomCorpus(rng, 200)
	tr := FromComments(comments)

	queries := []string{
		"h", "he", "hel", "help", "helpf", "go", "goo", "GOL", "tut", "tutor",
		"ins", "lo", "lol", "lolo", "gr", "aw", "que", "zo", "zoë", "jo",
		"john", "joa", "ann", "mar", "bob", "al", "the", "xyz", "http", "tag",
		"topic", "example", "a",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, linearStartsWith(comments, q), sorted(tr.StartsWith(q).IDs()))
		})
	}
}

func TestFromComments_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	comments := randomCorpus(rng, 100)

	a := FromComments(comments)
	b := FromComments(comments)

	require.Equal(t, a.Stats(), b.Stats())
	for _, q := range []string{"h", "hel", "hello", "golang", "tut", "zoo", "john", "nothing"} {
		assert.Equal(t, a.StartsWith(q).IDs(), b.StartsWith(q).IDs(), "startsWith %q", q)
		assert.Equal(t, a.Search(q).IDs(), b.Search(q).IDs(), "search %q", q)
	}
}

func BenchmarkTrie_StartsWith(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	tr := FromComments(randomCorpus(rng, 5000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.StartsWith("hel")
	}
}
