package render

import (
	"encoding/json"
	"io"
	"sync"

	"filebridge/internal/events"
)

// Renderer emits events to an output target.
type Renderer interface {
	Emit(events.Event)
	Close() error
}

// JSONLRenderer writes one JSON document per event.
type JSONLRenderer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLRenderer creates a renderer that streams events as JSON lines.
func NewJSONLRenderer(w io.Writer) *JSONLRenderer {
	return &JSONLRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONLRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(event)
}

func (r *JSONLRenderer) Close() error { return nil }

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *Recorder) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}
