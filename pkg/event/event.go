// Package event provides a simple synchronous/async event dispatcher.
//
// The gateway uses it to publish screen state transitions: every controller
// commit fires ScreenUpdated, and the server bridges those events onto the
// WebSocket state stream.
package event

import (
	"sync"
)

// Event names published by the screen layer.
const (
	ScreenUpdated = "screen.updated"
)

// Handler is a function that receives an event payload.
type Handler func(payload interface{})

// Bus is an in-process event dispatcher. The zero value is ready to use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	subs     map[string]map[uint64]chan interface{}
	nextSub  uint64
}

// Default is the process-wide bus.
var Default = &Bus{}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = map[string][]Handler{}
	}
	b.handlers[event] = append(b.handlers[event], handler)
}

// Subscribe returns a channel fed every payload fired for event, plus a
// cancel func that detaches it. A subscriber that falls behind drops
// payloads rather than blocking Fire.
func (b *Bus) Subscribe(event string, buffer int) (<-chan interface{}, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan interface{}, buffer)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = map[string]map[uint64]chan interface{}{}
	}
	if b.subs[event] == nil {
		b.subs[event] = map[uint64]chan interface{}{}
	}
	b.nextSub++
	id := b.nextSub
	b.subs[event][id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if m := b.subs[event]; m != nil {
			delete(m, id)
		}
	}
	return ch, cancel
}

// Fire dispatches an event synchronously to all registered listeners.
func (b *Bus) Fire(event string, payload interface{}) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	chs := make([]chan interface{}, 0, len(b.subs[event]))
	for _, ch := range b.subs[event] {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
	for _, ch := range chs {
		select {
		case ch <- payload:
		default:
		}
	}
}

// FireAsync dispatches the event to all listeners concurrently.
// It returns immediately without waiting for handlers to complete.
func (b *Bus) FireAsync(event string, payload interface{}) {
	go b.Fire(event, payload)
}

// Flush removes all listeners (useful in tests).
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

// Listen registers a handler on the default bus.
func Listen(event string, handler Handler) { Default.Listen(event, handler) }

// Subscribe attaches a channel subscriber on the default bus.
func Subscribe(event string, buffer int) (<-chan interface{}, func()) {
	return Default.Subscribe(event, buffer)
}

// Fire dispatches on the default bus.
func Fire(event string, payload interface{}) { Default.Fire(event, payload) }

// FireAsync dispatches asynchronously on the default bus.
func FireAsync(event string, payload interface{}) { Default.FireAsync(event, payload) }

// Flush clears the default bus.
func Flush() { Default.Flush() }
