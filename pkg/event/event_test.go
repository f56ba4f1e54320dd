package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireReachesListeners(t *testing.T) {
	var bus Bus

	var got []interface{}
	bus.Listen("screen.updated", func(payload interface{}) {
		got = append(got, payload)
	})

	bus.Fire("screen.updated", "one")
	bus.Fire("other", "ignored")

	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0])
}

func TestSubscribeAndCancel(t *testing.T) {
	var bus Bus

	ch, cancel := bus.Subscribe("screen.updated", 4)
	bus.Fire("screen.updated", 1)
	bus.Fire("screen.updated", 2)

	assert.Equal(t, 1, <-ch)
	assert.Equal(t, 2, <-ch)

	cancel()
	bus.Fire("screen.updated", 3)
	select {
	case v := <-ch:
		t.Fatalf("received %v after cancel", v)
	default:
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	var bus Bus

	ch, cancel := bus.Subscribe("screen.updated", 1)
	defer cancel()

	bus.Fire("screen.updated", "kept")
	bus.Fire("screen.updated", "dropped") // buffer full

	assert.Equal(t, "kept", <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected %v", v)
	default:
	}
}

func TestFlushRemovesListeners(t *testing.T) {
	var bus Bus

	fired := 0
	bus.Listen("x", func(interface{}) { fired++ })
	bus.Flush()
	bus.Fire("x", nil)

	assert.Zero(t, fired)
}
