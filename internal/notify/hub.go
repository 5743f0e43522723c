// Package notify fans a paired record out to every observer waiting on its
// code. It knows nothing about the transport the observers sit behind.
package notify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/pairing-relay-go/internal/model"
)

// Subscription is one observer registered for exactly one code.
type Subscription struct {
	ID   string
	Code string

	// Events receives at most one event. It has room for it, so Publish
	// never blocks on a slow reader.
	Events <-chan model.PairingEvent

	// Done is closed by Unsubscribe and by hub shutdown.
	Done <-chan struct{}

	events chan model.PairingEvent
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) finish() {
	s.once.Do(func() { close(s.done) })
}

type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{} // code -> observers
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers an observer for code. Events published before this
// call are not replayed; callers check current status afterwards.
func (h *Hub) Subscribe(code string) *Subscription {
	events := make(chan model.PairingEvent, 1)
	done := make(chan struct{})
	sub := &Subscription{
		ID:     uuid.NewString(),
		Code:   code,
		Events: events,
		Done:   done,
		events: events,
		done:   done,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.finish()
		return sub
	}
	if h.subs[code] == nil {
		h.subs[code] = make(map[*Subscription]struct{})
	}
	h.subs[code][sub] = struct{}{}
	count := len(h.subs[code])
	h.mu.Unlock()

	log.Debug().
		Str("code", code).
		Str("subscriptionId", sub.ID).
		Int("subscriberCount", count).
		Msg("observer subscribed")

	return sub
}

// Unsubscribe removes sub. It is safe to call more than once and after the
// subscription has already been served.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if subs, ok := h.subs[sub.Code]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subs, sub.Code)
		}
	}
	h.mu.Unlock()

	sub.finish()
}

// Publish delivers rec to every current observer of code and clears the
// code's observer list. It returns the number of observers reached.
func (h *Hub) Publish(code string, rec model.PairingRecord) int {
	h.mu.Lock()
	subs := h.subs[code]
	delete(h.subs, code)
	h.mu.Unlock()

	if len(subs) == 0 {
		return 0
	}

	event := model.NewPairingEvent(rec)
	delivered := 0
	for sub := range subs {
		select {
		case sub.events <- event:
			delivered++
		default:
			log.Warn().
				Str("code", code).
				Str("subscriptionId", sub.ID).
				Msg("observer already holds an event, dropping")
		}
	}

	log.Debug().
		Str("code", code).
		Int("delivered", delivered).
		Msg("pairing event published")

	return delivered
}

// Close ends every outstanding subscription. Later subscriptions end
// immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]map[*Subscription]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, set := range subs {
		for sub := range set {
			sub.finish()
		}
	}
}

func (h *Hub) SubscriberCount(code string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[code])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := 0
	for _, subs := range h.subs {
		total += len(subs)
	}
	return total
}
