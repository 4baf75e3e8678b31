package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/azure/yt-comment-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("unknown")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_RebuildReplacesWholeIndex(t *testing.T) {
	r := NewRegistry()

	r.Rebuild("vid", []models.Comment{{ID: "c1", TextDisplay: "stale content"}})
	r.Rebuild("vid", []models.Comment{{ID: "c2", TextDisplay: "fresh content"}})

	tr, ok := r.Get("vid")
	require.True(t, ok)
	assert.True(t, tr.StartsWith("stale").IsEmpty(), "entries from the previous corpus must not persist")
	assert.Equal(t, []string{"c2"}, tr.StartsWith("content").IDs())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_CorporaAreIndependent(t *testing.T) {
	r := NewRegistry()
	r.Rebuild("a", []models.Comment{{ID: "a1", TextDisplay: "shared word"}})
	r.Rebuild("b", []models.Comment{{ID: "b1", TextDisplay: "shared word"}})

	ta, _ := r.Get("a")
	tb, _ := r.Get("b")
	assert.Equal(t, []string{"a1"}, ta.StartsWith("shared").IDs())
	assert.Equal(t, []string{"b1"}, tb.StartsWith("shared").IDs())
}

func TestRegistry_ConcurrentReadersSeeCompleteIndexes(t *testing.T) {
	r := NewRegistry()

	corpus := func(gen int) []models.Comment {
		comments := make([]models.Comment, 50)
		for i := range comments {
			comments[i] = models.Comment{
				ID:          fmt.Sprintf("g%d-c%d", gen, i),
				TextDisplay: "generation marker",
			}
		}
		return comments
	}
	r.Rebuild("vid", corpus(0))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for gen := 1; gen <= 20; gen++ {
			r.Rebuild("vid", corpus(gen))
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tr, ok := r.Get("vid")
				if !assert.True(t, ok) {
					return
				}
				assert.Equal(t, 50, tr.StartsWith("marker").Len())
			}
		}()
	}
	wg.Wait()
}
