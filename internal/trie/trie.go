// Package trie implements the per-corpus prefix index.
//
// Every node on a word's path records the comment that inserted the word, so a
// prefix lookup is a single walk of len(prefix) steps whose answer is already
// accumulated at the last node. Id-sets are roaring bitmaps over ordinals that
// the trie assigns to comment ids in first-insert order.
//
// A Trie is not safe for concurrent Insert. Build it completely, then publish it;
// a published Trie is read-only and safe for any number of readers.
package trie

import (
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/tokenizer"
)

type node struct {
	children  map[rune]*node
	endOfWord bool
	path      *roaring.Bitmap // comments with any word through this node
}

func newNode() *node {
	return &node{
		children: make(map[rune]*node),
		path:     roaring.New(),
	}
}

// Trie maps token prefixes to the comments containing them
type Trie struct {
	root     *node
	ids      []string
	ordinals map[string]uint32
	nodes    int
	words    int
}

// New returns an empty Trie
func New() *Trie {
	return &Trie{
		root:     newNode(),
		ordinals: make(map[string]uint32),
		nodes:    1,
	}
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

func (t *Trie) ordinal(commentID string) uint32 {
	if ord, ok := t.ordinals[commentID]; ok {
		return ord
	}
	ord := uint32(len(t.ids))
	t.ids = append(t.ids, commentID)
	t.ordinals[commentID] = ord
	return ord
}

// Insert adds word for commentID. Empty words are ignored.
func (t *Trie) Insert(word, commentID string) {
	w := normalize(word)
	if w == "" {
		return
	}

	ord := t.ordinal(commentID)
	current := t.root
	for _, r := range w {
		child, ok := current.children[r]
		if !ok {
			child = newNode()
			current.children[r] = child
			t.nodes++
		}
		current = child
		current.path.Add(ord)
	}

	if !current.endOfWord {
		current.endOfWord = true
		t.words++
	}
}

func (t *Trie) walk(s string) *node {
	w := normalize(s)
	if w == "" {
		return nil
	}
	current := t.root
	for _, r := range w {
		child, ok := current.children[r]
		if !ok {
			return nil
		}
		current = child
	}
	return current
}

// StartsWith returns the comments having at least one word with the given prefix
func (t *Trie) StartsWith(prefix string) IDSet {
	n := t.walk(prefix)
	if n == nil {
		return t.empty()
	}
	return IDSet{bm: n.path.Clone(), trie: t}
}

// Search returns the set accumulated at word's node, provided some inserted
// word ends there. Words that merely extend it, such as "helloworld" for
// "hello", are included.
func (t *Trie) Search(word string) IDSet {
	n := t.walk(word)
	if n == nil || !n.endOfWord {
		return t.empty()
	}
	return IDSet{bm: n.path.Clone(), trie: t}
}

func (t *Trie) empty() IDSet {
	return IDSet{bm: roaring.New(), trie: t}
}

// Stats describes the size of a Trie
type Stats struct {
	Nodes    int `json:"nodes"`
	Words    int `json:"words"`
	Comments int `json:"comments"`
}

func (t *Trie) Stats() Stats {
	return Stats{Nodes: t.nodes, Words: t.words, Comments: len(t.ids)}
}

// FromComments indexes the display text and the author name of every comment.
// Only tokens longer than two characters are inserted. Author names are indexed
// so a search for an author surfaces their comments.
func FromComments(comments []models.Comment) *Trie {
	t := New()
	for _, c := range comments {
		for _, source := range []string{c.TextDisplay, c.AuthorDisplayName} {
			for _, tok := range tokenizer.Tokenize(source) {
				if tokenizer.Indexable(tok) {
					t.Insert(tok, c.ID)
				}
			}
		}
	}
	return t
}

// IDSet is an immutable set of comment ids returned by a lookup
type IDSet struct {
	bm   *roaring.Bitmap
	trie *Trie
}

func (s IDSet) Len() int {
	if s.bm == nil {
		return 0
	}
	return int(s.bm.GetCardinality())
}

func (s IDSet) IsEmpty() bool {
	return s.bm == nil || s.bm.IsEmpty()
}

// Contains reports whether commentID is in the set
func (s IDSet) Contains(commentID string) bool {
	if s.bm == nil || s.trie == nil {
		return false
	}
	ord, ok := s.trie.ordinals[commentID]
	return ok && s.bm.Contains(ord)
}

// IDs returns the members in the order they were first inserted into the trie
func (s IDSet) IDs() []string {
	if s.bm == nil {
		return []string{}
	}
	ids := make([]string, 0, s.bm.GetCardinality())
	it := s.bm.Iterator()
	for it.HasNext() {
		ids = append(ids, s.trie.ids[it.Next()])
	}
	return ids
}

// Intersect returns the members present in both sets. Both must come from the same Trie.
func (s IDSet) Intersect(other IDSet) IDSet {
	if s.bm == nil || other.bm == nil {
		return IDSet{bm: roaring.New(), trie: s.trie}
	}
	return IDSet{bm: roaring.And(s.bm, other.bm), trie: s.trie}
}
