package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterSplitterFixedWindows(t *testing.T) {
	sp, err := newCharacterSplitter(map[string]any{"chunkSize": 5, "chunkOverlap": 0})
	require.NoError(t, err)

	chunks, err := sp.Split("aaaaabbbbb")
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaa", "bbbbb"}, chunks)
}

func TestCharacterSplitterOverlap(t *testing.T) {
	sp, err := newCharacterSplitter(map[string]any{"chunkSize": 4, "chunkOverlap": 2})
	require.NoError(t, err)

	chunks, err := sp.Split("abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, []string{"abcd", "cdef", "efgh"}, chunks)
}

func TestCharacterSplitterShortText(t *testing.T) {
	sp, err := newCharacterSplitter(map[string]any{"chunkSize": 100})
	require.NoError(t, err)

	chunks, err := sp.Split("tiny")
	require.NoError(t, err)
	assert.Equal(t, []string{"tiny"}, chunks)
}

func TestCharacterSplitterEmptyText(t *testing.T) {
	sp, err := newCharacterSplitter(map[string]any{"chunkSize": 5})
	require.NoError(t, err)

	chunks, err := sp.Split("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestCharacterSplitterRejectsBadConfig(t *testing.T) {
	_, err := newCharacterSplitter(map[string]any{"chunkSize": 5, "chunkOverlap": 5})
	assert.Error(t, err)

	_, err = newCharacterSplitter(map[string]any{"chunkSize": 0})
	assert.Error(t, err)
}

func TestCharacterSplitterAcceptsJSONNumbers(t *testing.T) {
	// Stored configs decode numbers as float64.
	sp, err := newCharacterSplitter(map[string]any{"chunkSize": float64(5), "chunkOverlap": float64(0)})
	require.NoError(t, err)

	chunks, err := sp.Split("aaaaabbbbb")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}
