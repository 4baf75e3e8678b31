package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Store(ctx, "videos/abc.json", []byte(`{"id":"abc"}`)))
	require.NoError(t, s.Store(ctx, "videos/def.json", []byte(`{"id":"def"}`)))
	require.NoError(t, s.Store(ctx, "comments/abc.json", []byte(`[]`)))

	data, err := s.Retrieve(ctx, "videos/abc.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc"}`, string(data))

	keys, err := s.List(ctx, "videos/")
	require.NoError(t, err)
	assert.Equal(t, []string{"videos/abc.json", "videos/def.json"}, keys)

	require.NoError(t, s.Delete(ctx, "videos/abc.json"))
	require.NoError(t, s.Delete(ctx, "videos/abc.json"))

	_, err = s.Retrieve(ctx, "videos/abc.json")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestFileStorage_RejectsEscapingKeys(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../outside.json", "/etc/passwd", ""} {
		t.Run(key, func(t *testing.T) {
			assert.Error(t, s.Store(context.Background(), key, []byte("x")))
		})
	}
}

func TestNewFileStorage_RequiresDir(t *testing.T) {
	_, err := NewFileStorage("")
	assert.Error(t, err)
}
