package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBus(t *testing.T) *EventBus {
	t.Helper()
	bus := NewEventBus()
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		bus.Stop(ctx)
	})
	return bus
}

func collect(received *[]Event, mu *sync.Mutex) EventHandler {
	return func(e Event) {
		mu.Lock()
		*received = append(*received, e)
		mu.Unlock()
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never satisfied")
}

func TestPublishReachesSubscriber(t *testing.T) {
	bus := startBus(t)

	var mu sync.Mutex
	var received []Event
	bus.Subscribe("test", EventFilter{}, collect(&received, &mu))

	require.NoError(t, bus.PublishAsync(Event{Type: EventScanStarted, Source: "scanner", Target: "drive-1"}))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, EventScanStarted, received[0].Type)
	assert.NotEmpty(t, received[0].ID, "missing ID is filled in")
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestFilterByType(t *testing.T) {
	bus := startBus(t)

	var mu sync.Mutex
	var scans, all []Event
	bus.Subscribe("scan-only", EventFilter{Types: []EventType{EventScanCompleted}}, collect(&scans, &mu))
	bus.Subscribe("everything", EventFilter{}, collect(&all, &mu))

	require.NoError(t, bus.PublishAsync(Event{Type: EventScanCompleted, Source: "scanner"}))
	require.NoError(t, bus.PublishAsync(Event{Type: EventDriveRegistered, Source: "drives"}))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(all) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, scans, 1)
	assert.Equal(t, EventScanCompleted, scans[0].Type)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := startBus(t)

	var mu sync.Mutex
	var first, second []Event
	id := bus.Subscribe("a", EventFilter{}, collect(&first, &mu))
	bus.Subscribe("b", EventFilter{}, collect(&second, &mu))

	bus.Unsubscribe(id)
	require.NoError(t, bus.PublishAsync(Event{Type: EventAssetCreated, Source: "scanner"}))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(second) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, first)
}

func TestPublishRequiresRunningBus(t *testing.T) {
	bus := NewEventBus()
	assert.Error(t, bus.PublishAsync(Event{Type: EventScanStarted}))
}

func TestPublishRequiresType(t *testing.T) {
	bus := startBus(t)
	assert.Error(t, bus.PublishAsync(Event{Source: "scanner"}))
}

func TestPanickingHandlerDoesNotKillDispatch(t *testing.T) {
	bus := startBus(t)

	var mu sync.Mutex
	var received []Event
	bus.Subscribe("bad", EventFilter{}, func(Event) { panic("boom") })
	bus.Subscribe("good", EventFilter{}, collect(&received, &mu))

	require.NoError(t, bus.PublishAsync(Event{Type: EventScanStarted, Source: "scanner"}))
	require.NoError(t, bus.PublishAsync(Event{Type: EventScanCompleted, Source: "scanner"}))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	})
}
