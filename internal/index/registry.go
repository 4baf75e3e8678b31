// Package index binds each corpus to its current prefix index
package index

import (
	"sync"

	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/azure/yt-comment-analyzer/internal/trie"
	"github.com/sirupsen/logrus"
)

// Registry maps corpus ids to tries. Tries are always built off to the side and
// then swapped in whole, so a reader sees either the old or the new index.
type Registry struct {
	mu    sync.RWMutex
	tries map[string]*trie.Trie
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tries: make(map[string]*trie.Trie)}
}

// Get returns the trie bound to corpusID
func (r *Registry) Get(corpusID string) (*trie.Trie, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tries[corpusID]
	return t, ok
}

// Replace binds t to corpusID, dropping any previous trie
func (r *Registry) Replace(corpusID string, t *trie.Trie) {
	r.mu.Lock()
	r.tries[corpusID] = t
	r.mu.Unlock()
}

// Rebuild builds a new trie from comments and swaps it in
func (r *Registry) Rebuild(corpusID string, comments []models.Comment) *trie.Trie {
	t := trie.FromComments(comments)
	r.Replace(corpusID, t)

	stats := t.Stats()
	logrus.WithFields(logrus.Fields{
		"video_id": corpusID,
		"nodes":    stats.Nodes,
		"words":    stats.Words,
		"comments": stats.Comments,
	}).Debug("Prefix index rebuilt")

	return t
}

// Len returns the number of indexed corpora
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tries)
}
