package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBrokerPublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	var got []string
	unsub, err := b.Subscribe(ctx, "events", func(payload []byte) {
		got = append(got, string(payload))
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "events", []byte("one")))
	require.NoError(t, b.Publish(ctx, "other", []byte("ignored")))
	assert.Equal(t, []string{"one"}, got)

	unsub()
	require.NoError(t, b.Publish(ctx, "events", []byte("two")))
	assert.Equal(t, []string{"one"}, got)
}

func TestMemoryBrokerPublishWithoutSubscribers(t *testing.T) {
	b := NewMemoryBroker()
	assert.NoError(t, b.Publish(context.Background(), "nobody", []byte("lost")))
}
