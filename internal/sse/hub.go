package sse

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventType is the SSE event name written on the wire.
type EventType string

const (
	EventSyncStageChanged EventType = "sync.stage_changed"
	EventSyncFinished     EventType = "sync.finished"
)

const subscriberBuffer = 64

// SyncEvent reports the progress of one catalog sync run.
type SyncEvent struct {
	Event       EventType `json:"event"`
	RunID       string    `json:"runId"`
	Trigger     string    `json:"trigger"`
	Stage       string    `json:"stage"`
	Fetched     int       `json:"fetched"`
	Skipped     int       `json:"skipped"`
	Written     int       `json:"written"`
	Deactivated int       `json:"deactivated"`
	Error       *string   `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Subscriber receives events until Close is called.
type Subscriber struct {
	ID      string
	C       <-chan SyncEvent
	ch      chan SyncEvent
	dropped int
	hub     *Hub
}

// Close detaches the subscriber from its hub.
func (s *Subscriber) Close() {
	s.hub.unsubscribe(s)
}

// Hub fans sync events out to admin streams. It also remembers the latest
// event of every run still in flight so late subscribers can catch up.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]*Subscriber
	inFlight map[string]SyncEvent
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:     make(map[string]*Subscriber),
		inFlight: make(map[string]SyncEvent),
	}
}

// Subscribe registers a new stream. label is only used in logs.
func (h *Hub) Subscribe(label string) *Subscriber {
	ch := make(chan SyncEvent, subscriberBuffer)
	s := &Subscriber{ID: label + "-" + uuid.New().String()[:8], C: ch, ch: ch, hub: h}

	h.mu.Lock()
	h.subs[s.ID] = s
	n := len(h.subs)
	h.mu.Unlock()

	log.Info().Str("subscriber", s.ID).Int("subscribers", n).Msg("SSE subscriber attached")
	return s
}

func (h *Hub) unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s.ID]; !ok {
		return
	}
	delete(h.subs, s.ID)
	close(s.ch)
	log.Info().
		Str("subscriber", s.ID).
		Int("dropped", s.dropped).
		Int("subscribers", len(h.subs)).
		Msg("SSE subscriber detached")
}

// Publish delivers ev to every subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(ev SyncEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ev.Event == EventSyncFinished {
		delete(h.inFlight, ev.RunID)
	} else {
		h.inFlight[ev.RunID] = ev
	}

	for _, s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			s.dropped++
			log.Warn().Str("subscriber", s.ID).Str("run_id", ev.RunID).Msg("SSE buffer full, event dropped")
		}
	}
}

// InFlight returns the latest event of each run that has not finished.
func (h *Hub) InFlight() []SyncEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]SyncEvent, 0, len(h.inFlight))
	for _, ev := range h.inFlight {
		out = append(out, ev)
	}
	return out
}

// Subscribers returns the number of attached streams.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
