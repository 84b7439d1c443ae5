// Package broker is the pub/sub fabric that carries streaming events between
// worker processes and API instances holding SSE connections. Delivery is
// at-most-once and non-durable: events published while nobody subscribes to a
// channel are lost.
package broker

import "context"

// Handler receives the raw payload published on a channel.
type Handler func(payload []byte)

// Broker publishes and subscribes to named channels.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe registers a handler for a channel and returns a function that
	// cancels the subscription.
	Subscribe(ctx context.Context, channel string, handler Handler) (func(), error)
}
