package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore-platform/internal/broker"
)

func newRelayFixture(t *testing.T) (*EventRelay, *EventPublisher, *SSEStreamer, *bufferSink) {
	t.Helper()
	b := broker.NewMemoryBroker()
	streamer := NewSSEStreamer()
	sink := &bufferSink{}
	return NewEventRelay(b, streamer), NewEventPublisher(b), streamer, sink
}

func TestRelayDeliversTokenToAttachedSink(t *testing.T) {
	ctx := context.Background()
	relay, pub, streamer, sink := newRelayFixture(t)

	streamer.AddClient("x", sink)
	require.NoError(t, relay.EnsureSubscribed(ctx, "x"))

	require.NoError(t, pub.Publish(ctx, "token", "x", "hi"))
	require.Len(t, sink.frames, 1)
	assert.Contains(t, sink.frames[0], `"event":"token"`)
	assert.Contains(t, sink.frames[0], `"data":"hi"`)

	// detach, then publish again: frame is lost, not queued
	streamer.RemoveClient("x")
	require.NoError(t, pub.Publish(ctx, "token", "x", "late"))
	assert.Len(t, sink.frames, 2) // token + end frame only
	assert.Contains(t, sink.frames[1], `"event":"end"`)
}

func TestRelaySubscribesOncePerChatID(t *testing.T) {
	ctx := context.Background()
	relay, pub, streamer, sink := newRelayFixture(t)

	streamer.AddClient("x", sink)
	require.NoError(t, relay.EnsureSubscribed(ctx, "x"))
	require.NoError(t, relay.EnsureSubscribed(ctx, "x"))
	require.NoError(t, relay.EnsureSubscribed(ctx, "x"))

	require.NoError(t, pub.Publish(ctx, "token", "x", "once"))
	assert.Len(t, sink.frames, 1)
}

func TestRelayDropsUnknownEventType(t *testing.T) {
	ctx := context.Background()
	relay, pub, streamer, sink := newRelayFixture(t)

	streamer.AddClient("x", sink)
	require.NoError(t, relay.EnsureSubscribed(ctx, "x"))

	require.NoError(t, pub.Publish(ctx, "definitelyNotAnEvent", "x", "zzz"))
	assert.Empty(t, sink.frames)
}

func TestRelayUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	relay, pub, streamer, sink := newRelayFixture(t)

	streamer.AddClient("x", sink)
	require.NoError(t, relay.EnsureSubscribed(ctx, "x"))
	relay.Unsubscribe("x")

	require.NoError(t, pub.Publish(ctx, "token", "x", "hi"))
	assert.Empty(t, sink.frames)
}

func TestRelayDispatchesErrorWithRewrite(t *testing.T) {
	ctx := context.Background()
	relay, pub, streamer, sink := newRelayFixture(t)

	streamer.AddClient("x", sink)
	require.NoError(t, relay.EnsureSubscribed(ctx, "x"))

	require.NoError(t, pub.Publish(ctx, "error", "x", "Error 401: unauthorized"))
	require.Len(t, sink.frames, 1)
	assert.Contains(t, sink.frames[0], "Invalid API key")
}

func TestRelayDispatchesMetadata(t *testing.T) {
	ctx := context.Background()
	relay, pub, streamer, sink := newRelayFixture(t)

	streamer.AddClient("x", sink)
	require.NoError(t, relay.EnsureSubscribed(ctx, "x"))

	require.NoError(t, pub.Publish(ctx, "metadata", "x", MetadataDetails{ChatID: "x", Question: "q"}))
	require.Len(t, sink.frames, 1)
	assert.Contains(t, sink.frames[0], `"event":"metadata"`)
}

func TestRelayStartOnceAcrossPublishes(t *testing.T) {
	ctx := context.Background()
	relay, pub, streamer, sink := newRelayFixture(t)

	streamer.AddClient("x", sink)
	require.NoError(t, relay.EnsureSubscribed(ctx, "x"))

	require.NoError(t, pub.Publish(ctx, "start", "x", ""))
	require.NoError(t, pub.Publish(ctx, "start", "x", ""))
	assert.Len(t, sink.frames, 1)
}
