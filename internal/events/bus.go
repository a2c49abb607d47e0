package events

import (
	"sync"
	"time"
)

// Handler receives published events. Handlers run synchronously on the
// emitting goroutine and must not block.
type Handler func(event *Event)

// SubscriptionID identifies a handler registration for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus is an in-process publish/subscribe hub
type Bus struct {
	mu     sync.RWMutex
	nextID SubscriptionID
	subs   map[EventType][]subscription
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]subscription)}
}

// Subscribe registers handler for eventType
func (b *Bus) Subscribe(eventType EventType, handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[eventType] = append(b.subs[eventType], subscription{id: b.nextID, handler: handler})
	return b.nextID
}

// Unsubscribe removes every registration made under id
func (b *Bus) Unsubscribe(ids ...SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	drop := make(map[SubscriptionID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	for eventType, subs := range b.subs {
		kept := subs[:0]
		for _, s := range subs {
			if !drop[s.id] {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(b.subs, eventType)
			continue
		}
		b.subs[eventType] = kept
	}
}

// Emit publishes an event to all subscribers of eventType
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	b.Publish(&Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	})
}

// Publish delivers an already built event. Handlers are snapshotted under
// the read lock and called after it is released, so a handler may
// subscribe or unsubscribe.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	subs := b.subs[event.Type]
	handlers := make([]Handler, len(subs))
	for i, s := range subs {
		handlers[i] = s.handler
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// SubscriberCount returns how many handlers listen for eventType
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[eventType])
}
