package controllers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/event"
)

func newTestRegistry() *Registry {
	return NewRegistry(Services{
		Orders:   newFakeOrders(),
		Products: newFakeProducts(),
		Uploads:  &fakeUploads{},
		Payments: newFakePayments(""),
	})
}

func TestRegistryControllersArePerSession(t *testing.T) {
	r := newTestRegistry()

	a := r.Product("session-a")
	b := r.Product("session-b")
	assert.NotSame(t, a, b)

	// Same session always gets the same instance back.
	assert.Same(t, a, r.Product("session-a"))
	assert.Same(t, r.Order("session-a"), r.Order("session-a"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistrySweepDropsIdleSessions(t *testing.T) {
	r := newTestRegistry()
	r.Product("stale")
	require.Equal(t, 1, r.Len())

	time.Sleep(10 * time.Millisecond)
	removed := r.Sweep(time.Millisecond)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, r.Len())

	// A swept session simply gets fresh controllers on its next request.
	r.Product("stale")
	assert.Equal(t, 1, r.Len())
}

func TestRegistryEmitsScreenEventsForOwningSession(t *testing.T) {
	defer event.Flush()

	var got []ScreenEvent
	event.Listen(event.ScreenUpdated, func(payload interface{}) {
		if ev, ok := payload.(ScreenEvent); ok {
			got = append(got, ev)
		}
	})

	r := NewRegistry(Services{
		Orders:   newFakeOrders(),
		Products: newFakeProducts(testProduct("p1", 2)),
		Uploads:  &fakeUploads{},
		Payments: newFakePayments(""),
	})

	r.Product("session-a").Visit(context.Background(), nil, "p1")

	require.NotEmpty(t, got)
	for _, ev := range got {
		assert.Equal(t, "session-a", ev.Session)
		assert.Equal(t, "product", ev.Screen)
	}
}
