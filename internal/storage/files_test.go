package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAddGetRemove(t *testing.T) {
	s := NewStore(t.TempDir())

	size, err := s.Add("store1", "a.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	data, err := s.Get("store1", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	require.NoError(t, s.Remove("store1", "a.txt"))
	_, err = s.Get("store1", "a.txt")
	assert.Error(t, err)

	// removing twice is fine
	assert.NoError(t, s.Remove("store1", "a.txt"))
}

func TestStoreRemoveAll(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Add("store1", "a.txt", []byte("a"))
	require.NoError(t, err)
	_, err = s.Add("store1", "b.txt", []byte("b"))
	require.NoError(t, err)

	require.NoError(t, s.RemoveAll("store1"))
	_, err = s.Get("store1", "a.txt")
	assert.Error(t, err)
}

func TestMarkerRoundTrip(t *testing.T) {
	v := MarkerValue([]string{"a.pdf", "b.pdf"})
	assert.Equal(t, `FILE-STORAGE::["a.pdf","b.pdf"]`, v)

	names, err := MarkerNames(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, names)
}

func TestMarkerNamesBareName(t *testing.T) {
	names, err := MarkerNames("FILE-STORAGE::report.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"report.pdf"}, names)
}

func TestDataURIRoundTrip(t *testing.T) {
	v := FormatDataURI("text/plain", []byte("hello"), "a.txt")
	assert.True(t, IsDataURI(v))

	mime, data, name, err := ParseDataURI(v)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "a.txt", name)
}

func TestParseDataURIWithoutFilename(t *testing.T) {
	mime, data, name, err := ParseDataURI("data:text/plain;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Equal(t, []byte("hi"), data)
	assert.Empty(t, name)
}

func TestParseDataURIRejectsPlainValue(t *testing.T) {
	_, _, _, err := ParseDataURI("just text")
	assert.Error(t, err)
}
