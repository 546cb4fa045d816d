package hub

import (
	"sync"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

// sendBuffer is the per-subscriber queue depth. A subscriber that falls
// this far behind is dropped rather than blocking the publisher.
const sendBuffer = 64

// Hub fans committed message inserts out to subscribers. Each active feed
// holds exactly one subscription.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	closed bool
}

type Subscriber struct {
	hub  *Hub
	ch   chan model.Message
	once sync.Once
}

func New() *Hub {
	return &Hub{
		subs: map[*Subscriber]struct{}{},
	}
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		hub: h,
		ch:  make(chan model.Message, sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish delivers message to every live subscriber. Slow subscribers are
// dropped silently; an interrupted feed just stops delivering.
func (h *Hub) Publish(message model.Message) {
	h.mu.Lock()
	var dropped []*Subscriber
	for sub := range h.subs {
		select {
		case sub.ch <- message:
		default:
			dropped = append(dropped, sub)
		}
	}
	for _, sub := range dropped {
		delete(h.subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range dropped {
		sub.once.Do(func() { close(sub.ch) })
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = map[*Subscriber]struct{}{}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() { close(sub.ch) })
	}
}

// C yields inserts in publish order. The channel closes when the
// subscription ends.
func (s *Subscriber) C() <-chan model.Message {
	return s.ch
}

func (s *Subscriber) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}
