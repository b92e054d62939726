package event

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Bus distributes events to subscribers with fan-out.
type Bus interface {
	// Publish delivers an event to every matching subscription.
	Publish(evt Event)

	// Subscribe registers a handler for specific event types.
	Subscribe(types []Type, handler Handler) Subscription

	// SubscribeAll registers a handler for every event.
	SubscribeAll(handler Handler) Subscription

	// Close shuts down the bus and all subscriptions.
	Close() error
}

// Handler processes one event. Handlers run on the subscription's own
// goroutine, never on the publisher's.
type Handler func(evt Event)

// Subscription is an active subscription.
type Subscription interface {
	// Unsubscribe removes the subscription and stops delivery.
	Unsubscribe()
}

// BusConfig configures a LocalBus.
type BusConfig struct {
	// BufferSize is the per-subscription channel buffer.
	// Default: 256.
	BufferSize int

	// OnDrop is called when a subscription's buffer is full and an
	// event is discarded. May be nil.
	OnDrop func(evt Event, subscriberID string)
}

// DefaultBusConfig provides reasonable defaults.
var DefaultBusConfig = BusConfig{
	BufferSize: 256,
}

// LocalBus is an in-memory Bus. Publish never blocks: when a
// subscriber's buffer is full the event is dropped for that subscriber.
type LocalBus struct {
	config BusConfig

	mu            sync.RWMutex
	subscriptions map[string]*subscription

	nextID atomic.Int64
	closed atomic.Bool
}

// NewBus creates a local in-memory event bus.
func NewBus(config BusConfig) *LocalBus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBusConfig.BufferSize
	}
	return &LocalBus{
		config:        config,
		subscriptions: make(map[string]*subscription),
	}
}

// subscription is the internal Subscription implementation.
type subscription struct {
	id      string
	types   map[Type]bool // nil = all types
	handler Handler
	events  chan Event
	done    chan struct{}
	once    sync.Once
	bus     *LocalBus
}

// Publish implements Bus.
func (b *LocalBus) Publish(evt Event) {
	if b.closed.Load() {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscriptions {
		if sub.types != nil && !sub.types[evt.Type] {
			continue
		}
		select {
		case sub.events <- evt:
		default:
			if b.config.OnDrop != nil {
				b.config.OnDrop(evt, sub.id)
			}
		}
	}
}

// Subscribe implements Bus.
func (b *LocalBus) Subscribe(types []Type, handler Handler) Subscription {
	typeSet := make(map[Type]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	return b.subscribe(typeSet, handler)
}

// SubscribeAll implements Bus.
func (b *LocalBus) SubscribeAll(handler Handler) Subscription {
	return b.subscribe(nil, handler)
}

func (b *LocalBus) subscribe(types map[Type]bool, handler Handler) Subscription {
	sub := &subscription{
		id:      fmt.Sprintf("sub-%d", b.nextID.Add(1)),
		types:   types,
		handler: handler,
		events:  make(chan Event, b.config.BufferSize),
		done:    make(chan struct{}),
		bus:     b,
	}

	b.mu.Lock()
	b.subscriptions[sub.id] = sub
	b.mu.Unlock()

	go sub.deliver()
	return sub
}

// deliver pumps buffered events into the handler until the subscription
// ends. Events already buffered when Unsubscribe is called are dropped.
func (s *subscription) deliver() {
	for {
		select {
		case <-s.done:
			return
		case evt := <-s.events:
			s.handler(evt)
		}
	}
}

// Unsubscribe implements Subscription.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.bus.mu.Lock()
		delete(s.bus.subscriptions, s.id)
		s.bus.mu.Unlock()
	})
}

// Close implements Bus. Close is idempotent.
func (b *LocalBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	return nil
}
