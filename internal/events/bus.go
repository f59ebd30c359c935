package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

// EventBus dispatches events to subscribers asynchronously
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	eventChannel  chan Event
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

const defaultBufferSize = 1000

// NewEventBus creates a new event bus instance
func NewEventBus() *EventBus {
	return &EventBus{
		subscriptions: make(map[string]*Subscription),
		eventChannel:  make(chan Event, defaultBufferSize),
		stopCh:        make(chan struct{}),
	}
}

// Start starts the event dispatcher goroutine
func (eb *EventBus) Start(ctx context.Context) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.running {
		return fmt.Errorf("event bus is already running")
	}

	eb.running = true
	eb.stopCh = make(chan struct{})

	eb.wg.Add(1)
	go eb.processEvents(ctx)

	return nil
}

// Stop stops the event bus gracefully
func (eb *EventBus) Stop(ctx context.Context) error {
	eb.mu.Lock()
	if !eb.running {
		eb.mu.Unlock()
		return nil
	}
	eb.running = false
	eb.mu.Unlock()

	close(eb.stopCh)

	done := make(chan struct{})
	go func() {
		eb.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logger.Warn("Event bus stop timed out")
		return ctx.Err()
	}
}

// PublishAsync publishes an event without blocking. Events are dropped with
// a warning when the buffer is full.
func (eb *EventBus) PublishAsync(event Event) error {
	eb.mu.RLock()
	running := eb.running
	eb.mu.RUnlock()

	if !running {
		return fmt.Errorf("event bus is not running")
	}

	if event.ID == "" {
		event.ID = utils.GenerateUUID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}

	select {
	case eb.eventChannel <- event:
		return nil
	default:
		logger.Warn("Event channel full, dropping event (type=%s)", event.Type)
		return fmt.Errorf("event channel full")
	}
}

// Subscribe registers a handler for events matching the filter and returns
// the subscription ID for later unsubscribe.
func (eb *EventBus) Subscribe(subscriber string, filter EventFilter, handler EventHandler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	sub := &Subscription{
		ID:         utils.GenerateUUID(),
		Filter:     filter,
		Handler:    handler,
		Subscriber: subscriber,
		Created:    time.Now(),
	}
	eb.subscriptions[sub.ID] = sub
	return sub.ID
}

// Unsubscribe removes a subscription
func (eb *EventBus) Unsubscribe(id string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	delete(eb.subscriptions, id)
}

func (eb *EventBus) processEvents(ctx context.Context) {
	defer eb.wg.Done()

	for {
		select {
		case event := <-eb.eventChannel:
			eb.dispatch(event)
		case <-eb.stopCh:
			// Drain remaining events before exiting
			for {
				select {
				case event := <-eb.eventChannel:
					eb.dispatch(event)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (eb *EventBus) dispatch(event Event) {
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.subscriptions))
	for _, sub := range eb.subscriptions {
		if sub.Filter.Matches(event) {
			handlers = append(handlers, sub.Handler)
		}
	}
	eb.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Event handler panicked: %v (type=%s)", r, event.Type)
				}
			}()
			handler(event)
		}()
	}
}

// Global bus

var (
	globalBus  *EventBus
	globalOnce sync.Once
)

// GetGlobalBus returns the process-wide event bus
func GetGlobalBus() *EventBus {
	globalOnce.Do(func() {
		globalBus = NewEventBus()
	})
	return globalBus
}

// Publish publishes an event on the global bus, ignoring buffer-full errors
func Publish(event Event) {
	_ = GetGlobalBus().PublishAsync(event)
}
