// README: Typed lifecycle events with channel-per-subscriber fan-out.
package events

import (
	"sync"
	"time"

	"tableside/internal/types"
)

type Type string

const (
	NewOrder             Type = "newOrder"
	OrderStatusUpdated   Type = "orderStatusUpdated"
	PaymentStatusUpdated Type = "paymentStatusUpdated"
	OrderReady           Type = "orderReady"
	TableStatusUpdated   Type = "tableStatusUpdated"
)

// Event carries the minimal delta of one lifecycle change.
type Event struct {
	Type        Type      `json:"type"`
	OrderID     types.ID  `json:"order_id,omitempty"`
	OrderNumber string    `json:"order_number,omitempty"`
	TableID     types.ID  `json:"table_id,omitempty"`
	TableNumber int       `json:"table_number,omitempty"`
	Status      string    `json:"status,omitempty"`
	CustomerID  types.ID  `json:"customer_id,omitempty"`
	At          time.Time `json:"at"`
}

const subscriberBuffer = 64

type subscriber struct {
	ch    chan Event
	types map[Type]bool // empty means all types
}

// Hub fans events out to subscribers. Publication is fire-and-forget: a
// subscriber whose buffer is full misses the event; the mutation that
// produced it has already committed.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe returns a receive channel and a cancel function. With no
// types given, the subscriber receives every event.
func (h *Hub) Subscribe(filter ...Type) (<-chan Event, func()) {
	sub := &subscriber{
		ch:    make(chan Event, subscriberBuffer),
		types: make(map[Type]bool, len(filter)),
	}
	for _, t := range filter {
		sub.types[t] = true
	}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if len(sub.types) > 0 && !sub.types[e.Type] {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			// Slow subscriber; drop rather than block the writer path.
		}
	}
}
