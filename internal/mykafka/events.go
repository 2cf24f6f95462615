package mykafka

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func NewEvent(typ string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Recorder keeps published events in memory. Tests use it to assert on
// side effects.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	Topic string
	Key   string
	Event any
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	r.Events = append(r.Events, Recorded{Topic: topic, Key: key, Event: event})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		if ev, ok := e.Event.(Event); ok {
			out = append(out, ev.Type)
		}
	}
	return out
}
