package rendezvous

import (
	"errors"
	"strconv"
	"testing"
)

type pushRecorder struct {
	slots  []Slot
	failAt int // number of successful pushes before failing, -1 never
}

var errInjected = errors.New("injected push failure")

func (r *pushRecorder) Push(s Slot) error {
	if r.failAt >= 0 && len(r.slots) == r.failAt {
		return errInjected
	}
	r.slots = append(r.slots, s)
	return nil
}

func TestProducerSequence(t *testing.T) {
	const items = 50
	q := &pushRecorder{failAt: -1}
	rec := NewRecorder()

	if err := (Producer{ID: 7, Items: items}).Run(q, rec); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(q.slots) != items+1 {
		t.Fatalf("expected %d slots, got %d", items+1, len(q.slots))
	}
	for i := 0; i < items; i++ {
		s := q.slots[i]
		if s.Kind != KindPayload || s.Producer != 7 || s.Index != i {
			t.Fatalf("slot %d: unexpected %+v", i, s)
		}
		if want := "Task 7 - Item " + strconv.Itoa(i); s.Payload != want {
			t.Fatalf("slot %d: expected %q, got %q", i, want, s.Payload)
		}
	}
	if last := q.slots[items]; !last.IsEndMarker() || last.Producer != 7 {
		t.Fatalf("expected end-marker last, got %+v", last)
	}

	produced := rec.Filter(EventProduced, ProducerUnit(7))
	if len(produced) != items {
		t.Fatalf("expected %d produced events, got %d", items, len(produced))
	}
	for i, e := range produced {
		if e.Index != i {
			t.Fatalf("produced event %d has index %d", i, e.Index)
		}
	}
	events := rec.Events()
	if events[len(events)-1].Kind != EventProducerDone {
		t.Fatalf("expected producer_done as last event, got %s", events[len(events)-1].Kind)
	}
}

func TestProducerZeroItems(t *testing.T) {
	q := &pushRecorder{failAt: -1}
	if err := (Producer{ID: 1}).Run(q, Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(q.slots) != 1 || !q.slots[0].IsEndMarker() {
		t.Fatalf("expected a single end-marker, got %+v", q.slots)
	}
}

// A failed push aborts the producer: nothing after it, no end-marker.
func TestProducerFailure(t *testing.T) {
	q := &pushRecorder{failAt: 3}
	rec := NewRecorder()

	err := (Producer{ID: 2, Items: 10}).Run(q, rec)
	if !errors.Is(err, ErrProducerFailure) {
		t.Fatalf("expected ErrProducerFailure, got %v", err)
	}
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}

	if len(q.slots) != 3 {
		t.Fatalf("expected 3 slots before failure, got %d", len(q.slots))
	}
	for _, s := range q.slots {
		if s.IsEndMarker() {
			t.Fatalf("failed producer pushed its end-marker")
		}
	}

	failed := rec.Filter(EventProducerFailed, "")
	if len(failed) != 1 || failed[0].Index != 3 {
		t.Fatalf("expected one producer_failed event at index 3, got %+v", failed)
	}
	if len(rec.Filter(EventProducerDone, "")) != 0 {
		t.Fatalf("failed producer reported done")
	}
}

func TestProducerEndMarkerFailure(t *testing.T) {
	q := &pushRecorder{failAt: 2}
	err := (Producer{ID: 0, Items: 2}).Run(q, Discard)
	if !errors.Is(err, ErrProducerFailure) {
		t.Fatalf("expected ErrProducerFailure, got %v", err)
	}
}
