package rendezvous

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var (
	// ErrEmpty is returned by Pop when no slot arrived within the timeout.
	// It is a retry-later signal, not a failure.
	ErrEmpty = errors.New("queue is empty")
	// ErrQueueIsFull is returned by Push on a bounded queue with no free cell.
	ErrQueueIsFull = errors.New("queue is full")
)

// Pusher is the producer side of a Queue.
type Pusher interface {
	Push(s Slot) error
}

// Popper is the consumer side of a Queue.
type Popper interface {
	Pop(ctx context.Context, timeout time.Duration) (Slot, error)
}

type backend interface {
	Enqueue(s Slot) bool
	Dequeue() (Slot, bool)
}

// Queue is the item queue shared by producers and the consumer.
// Push may be called from any number of goroutines; Pop from exactly one.
type Queue struct {
	b       backend
	bounded bool
	ready   chan struct{} // wakes a Pop waiting on an empty queue

	pushAttempts      atomic.Uint64
	pushFailedQIsFull atomic.Uint64
	popAttempts       atomic.Uint64
	popFailedQIsEmpty atomic.Uint64
	popTimeouts       atomic.Uint64
	pushed            atomic.Uint64
	popped            atomic.Uint64
}

type QueueStats struct {
	PushAttempts      uint64
	PushFailedQIsFull uint64
	PopAttempts       uint64
	PopFailedQIsEmpty uint64
	PopTimeouts       uint64
	Pushed            uint64
	Popped            uint64
}

// NewQueue creates an unbounded queue. Push never blocks and never fails.
func NewQueue() *Queue {
	return newQueue(NewLinked[Slot](), false)
}

// NewBoundedQueue creates a queue backed by a fixed ring.
// Capacity must be a power of two (1<<k). Push returns ErrQueueIsFull on
// overflow instead of blocking.
func NewBoundedQueue(capacity uint64) *Queue {
	return newQueue(NewRing[Slot](capacity), true)
}

func newQueue(b backend, bounded bool) *Queue {
	return &Queue{
		b:       b,
		bounded: bounded,
		ready:   make(chan struct{}, 1),
	}
}

// Push appends s to the tail of the queue.
func (q *Queue) Push(s Slot) error {
	q.pushAttempts.Add(1)
	if !q.b.Enqueue(s) {
		q.pushFailedQIsFull.Add(1)
		return ErrQueueIsFull
	}
	q.pushed.Add(1)

	select {
	case q.ready <- struct{}{}:
	default:
		// a wakeup is already pending
	}
	return nil
}

// Pop removes and returns the head slot, waiting up to timeout for one to
// arrive. Returns ErrEmpty on timeout and ctx.Err() if ctx ends first.
// IMPORTANT: must be called from a single consumer goroutine.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (Slot, error) {
	if s, ok := q.tryPop(); ok {
		return s, nil
	}
	if timeout <= 0 {
		q.popTimeouts.Add(1)
		return Slot{}, ErrEmpty
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.ready:
			if s, ok := q.tryPop(); ok {
				return s, nil
			}
			// stale wakeup; the pending producer signals again once it publishes
		case <-timer.C:
			if s, ok := q.tryPop(); ok {
				return s, nil
			}
			q.popTimeouts.Add(1)
			return Slot{}, ErrEmpty
		case <-ctx.Done():
			return Slot{}, ctx.Err()
		}
	}
}

func (q *Queue) tryPop() (Slot, bool) {
	q.popAttempts.Add(1)
	s, ok := q.b.Dequeue()
	if !ok {
		q.popFailedQIsEmpty.Add(1)
		return Slot{}, false
	}
	q.popped.Add(1)
	return s, true
}

// Len returns the approximate number of slots waiting in the queue.
func (q *Queue) Len() int {
	popped := q.popped.Load()
	pushed := q.pushed.Load()
	if pushed < popped {
		return 0
	}
	return int(pushed - popped)
}

// Bounded reports whether Push can fail with ErrQueueIsFull.
func (q *Queue) Bounded() bool {
	return q.bounded
}

// Stats retrieves the current statistics of the Queue
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		PushAttempts:      q.pushAttempts.Load(),
		PushFailedQIsFull: q.pushFailedQIsFull.Load(),
		PopAttempts:       q.popAttempts.Load(),
		PopFailedQIsEmpty: q.popFailedQIsEmpty.Load(),
		PopTimeouts:       q.popTimeouts.Load(),
		Pushed:            q.pushed.Load(),
		Popped:            q.popped.Load(),
	}
}
