package rendezvous

import (
	"errors"
	"fmt"
)

// ErrProducerFailure marks a producer that could not push. It is fatal for
// that producer only: its end-marker is never sent.
var ErrProducerFailure = errors.New("producer failure")

// Producer emits Items payloads followed by exactly one end-marker.
type Producer struct {
	ID    int
	Items int
}

// ProducerUnit returns the unit name used in events for producer id.
func ProducerUnit(id int) string {
	return fmt.Sprintf("producer-%d", id)
}

// PayloadText is the payload a producer pushes at index i.
func PayloadText(id, i int) string {
	return fmt.Sprintf("Task %d - Item %d", id, i)
}

// Run pushes the payload sequence and the end-marker, then returns.
// The first failed push aborts the producer without retry.
func (p Producer) Run(q Pusher, sink Sink) error {
	em := emitter{sink: sink, unit: ProducerUnit(p.ID)}

	for i := 0; i < p.Items; i++ {
		s := NewPayload(p.ID, i, PayloadText(p.ID, i))
		if err := q.Push(s); err != nil {
			return p.fail(em, i, err)
		}
		em.emit(EventProduced, p.ID, i, "put: "+s.Payload)
	}

	if err := q.Push(NewEndMarker(p.ID)); err != nil {
		return p.fail(em, -1, err)
	}
	em.emit(EventProducerDone, p.ID, -1, "put end-marker")
	return nil
}

func (p Producer) fail(em emitter, index int, cause error) error {
	err := fmt.Errorf("%w: producer %d at index %d: %w", ErrProducerFailure, p.ID, index, cause)
	em.emit(EventProducerFailed, p.ID, index, err.Error())
	return err
}
