package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferSink struct {
	frames []string
	fail   bool
}

func (b *bufferSink) WriteFrame(frame string) error {
	if b.fail {
		return errors.New("client gone")
	}
	b.frames = append(b.frames, frame)
	return nil
}

func TestStreamTokenFrameFormat(t *testing.T) {
	s := NewSSEStreamer()
	sink := &bufferSink{}
	s.AddClient("x", sink)

	s.StreamTokenEvent("x", "hi")
	require.Len(t, sink.frames, 1)
	assert.Equal(t, "event:\ndata:{\"data\":\"hi\",\"event\":\"token\"}\n\n", sink.frames[0])
}

func TestStreamStartAtMostOnce(t *testing.T) {
	s := NewSSEStreamer()
	sink := &bufferSink{}
	s.AddClient("x", sink)

	s.StreamStartEvent("x", "")
	s.StreamStartEvent("x", "")
	assert.Len(t, sink.frames, 1)
	assert.Contains(t, sink.frames[0], `"event":"start"`)
}

func TestEmitUnknownChatIDIsNoOp(t *testing.T) {
	s := NewSSEStreamer()

	assert.NotPanics(t, func() {
		s.StreamTokenEvent("nobody", "hi")
		s.StreamStartEvent("nobody", "")
		s.StreamErrorEvent("nobody", "boom")
	})
}

func TestRemoveClientWritesEndFrame(t *testing.T) {
	s := NewSSEStreamer()
	sink := &bufferSink{}
	s.AddClient("x", sink)

	s.RemoveClient("x")
	require.Len(t, sink.frames, 1)
	assert.Contains(t, sink.frames[0], `"event":"end"`)
	assert.Contains(t, sink.frames[0], `"[DONE]"`)

	// detached: subsequent emits produce no frame
	s.StreamTokenEvent("x", "late")
	assert.Len(t, sink.frames, 1)
	assert.False(t, s.HasClient("x"))
}

func TestRemoveUnknownClientIsNoOp(t *testing.T) {
	s := NewSSEStreamer()
	assert.NotPanics(t, func() { s.RemoveClient("nobody") })
}

func TestSinkFailureDoesNotPropagate(t *testing.T) {
	s := NewSSEStreamer()
	sink := &bufferSink{fail: true}
	s.AddClient("x", sink)

	assert.NotPanics(t, func() {
		s.StreamTokenEvent("x", "hi")
		s.RemoveClient("x")
	})
}

func TestStreamMetadataOnlyWhenNonEmpty(t *testing.T) {
	s := NewSSEStreamer()
	sink := &bufferSink{}
	s.AddClient("x", sink)

	s.StreamMetadataEvent("x", MetadataDetails{})
	assert.Empty(t, sink.frames)

	s.StreamMetadataEvent("x", MetadataDetails{ChatID: "x", Question: "q"})
	require.Len(t, sink.frames, 1)
	assert.Contains(t, sink.frames[0], `"event":"metadata"`)
	assert.Contains(t, sink.frames[0], `"question":"q"`)
}

func TestStreamErrorRewritesKnownSignatures(t *testing.T) {
	s := NewSSEStreamer()
	sink := &bufferSink{}
	s.AddClient("x", sink)

	s.StreamErrorEvent("x", "googleapi: Error 401: API key not valid")
	require.Len(t, sink.frames, 1)
	assert.Contains(t, sink.frames[0], "Invalid API key")
	assert.NotContains(t, sink.frames[0], "googleapi")

	s.StreamErrorEvent("x", "quota exceeded for model")
	require.Len(t, sink.frames, 2)
	assert.Contains(t, sink.frames[1], "rate limiting")

	s.StreamErrorEvent("x", "something else broke")
	require.Len(t, sink.frames, 3)
	assert.Contains(t, sink.frames[2], "something else broke")
}

func TestStreamCustomEvent(t *testing.T) {
	s := NewSSEStreamer()
	sink := &bufferSink{}
	s.AddClient("x", sink)

	s.StreamCustomEvent("x", "progress", map[string]any{"pct": 50})
	require.Len(t, sink.frames, 1)
	assert.Contains(t, sink.frames[0], `"event":"progress"`)
	assert.True(t, strings.HasPrefix(sink.frames[0], "event:\ndata:"))
	assert.True(t, strings.HasSuffix(sink.frames[0], "\n\n"))
}
