package rendezvous

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventKind names a unit state transition.
type EventKind string

const (
	EventRunStarted     EventKind = "run_started"
	EventProduced       EventKind = "produced"
	EventProducerDone   EventKind = "producer_done"
	EventProducerFailed EventKind = "producer_failed"
	EventConsumed       EventKind = "consumed"
	EventEndMarker      EventKind = "end_marker"
	EventQueueEmpty     EventKind = "queue_empty"
	EventConsumerDone   EventKind = "consumer_done"
	EventConsumerFailed EventKind = "consumer_failed"
	EventRunCompleted   EventKind = "run_completed"
)

// Event is one observable transition of a unit. Message text is for humans
// and may change; Kind, Producer and Index are stable.
type Event struct {
	Time     time.Time
	RunID    string
	Unit     string
	Kind     EventKind
	Producer int // originating producer, -1 if none
	Index    int // payload index, -1 if none
	Message  string
}

// Sink receives events. Emit is called concurrently from every unit.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(e Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// MultiSink fans every event out to all sinks in order.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			s.Emit(e)
		}
	})
}

// LogSink writes events through a structured logger.
// Empty-queue polls are logged at debug level, everything else at info.
type LogSink struct {
	Logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Emit(e Event) {
	level := slog.LevelInfo
	switch e.Kind {
	case EventQueueEmpty:
		level = slog.LevelDebug
	case EventProducerFailed, EventConsumerFailed:
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.Time("at", e.Time),
		slog.String("run_id", e.RunID),
		slog.String("unit", e.Unit),
		slog.String("event", string(e.Kind)),
	}
	if e.Producer >= 0 {
		attrs = append(attrs, slog.Int("producer", e.Producer))
	}
	if e.Index >= 0 {
		attrs = append(attrs, slog.Int("index", e.Index))
	}
	s.Logger.LogAttrs(context.Background(), level, e.Message, attrs...)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events of the given kind, optionally restricted
// to one unit ("" matches every unit).
func (r *Recorder) Filter(kind EventKind, unit string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind && (unit == "" || e.Unit == unit) {
			out = append(out, e)
		}
	}
	return out
}

// WithRunID stamps runID on every event passing through sink.
func WithRunID(sink Sink, runID string) Sink {
	return SinkFunc(func(e Event) {
		e.RunID = runID
		sink.Emit(e)
	})
}

// emitter stamps events for one unit.
type emitter struct {
	sink Sink
	unit string
}

func (em emitter) emit(kind EventKind, producer, index int, msg string) {
	em.sink.Emit(Event{
		Time:     time.Now(),
		Unit:     em.unit,
		Kind:     kind,
		Producer: producer,
		Index:    index,
		Message:  msg,
	})
}
