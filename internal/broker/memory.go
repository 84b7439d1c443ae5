package broker

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process Broker for single-node deployments and tests.
type MemoryBroker struct {
	mu       sync.RWMutex
	handlers map[string]map[int]Handler
	nextID   int
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{handlers: make(map[string]map[int]Handler)}
}

func (b *MemoryBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	subs := make([]Handler, 0, len(b.handlers[channel]))
	for _, h := range b.handlers[channel] {
		subs = append(subs, h)
	}
	b.mu.RUnlock()

	for _, h := range subs {
		h(payload)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, channel string, handler Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[channel] == nil {
		b.handlers[channel] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[channel][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[channel], id)
		if len(b.handlers[channel]) == 0 {
			delete(b.handlers, channel)
		}
	}, nil
}
