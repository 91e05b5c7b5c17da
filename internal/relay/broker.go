package relay

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

const subscriberBufSize = 64

// Feed names.
const (
	FeedState  = "state"
	FeedAction = "action"
)

// Event is a single event sent via SSE.
type Event struct {
	Feed    string
	Payload string
}

// Broker fans out review events to all subscribed SSE clients.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan Event
	nextID      atomic.Int64

	lastMu sync.RWMutex
	last   map[string]Event
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]chan Event),
		last:        make(map[string]Event),
	}
}

// Subscribe registers a new client. The channel is buffered; slow consumers
// have events dropped.
func (b *Broker) Subscribe() (int64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers without blocking.
func (b *Broker) Publish(evt Event) {
	b.lastMu.Lock()
	b.last[evt.Feed] = evt
	b.lastMu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// PublishJSON marshals v as the payload of feed.
func (b *Broker) PublishJSON(feed string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("relay marshal failed", "feed", feed, "error", err)
		return
	}
	b.Publish(Event{Feed: feed, Payload: string(data)})
}

// Last returns the most recent event published on feed.
func (b *Broker) Last(feed string) (Event, bool) {
	b.lastMu.RLock()
	defer b.lastMu.RUnlock()
	evt, ok := b.last[feed]
	return evt, ok
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
