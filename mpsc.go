package rendezvous

import (
	"runtime"
	"sync/atomic"
)

const goschedEvery = 64 // reduce runtime.Gosched() frequency in hot loops

// Ring is a multi-producer, single-consumer, bounded, lock-free queue.
type Ring[T any] struct {
	// Optional padding to avoid false sharing between frequently accessed fields
	_        [64]byte
	mask     uint64
	capacity uint64
	cells    []cell[T]
	_        [64]byte
	enqueue  atomic.Uint64 // logical "tail", updated by multiple producers
	_        [64]byte
	dequeue  uint64 // logical "head", updated by a single consumer
	_        [64]byte
}

// NewRing creates a new bounded ring queue.
// Capacity must be a power of two (1<<k).
func NewRing[T any](capacity uint64) *Ring[T] {
	if !validCapacity(capacity) {
		panic("capacity must be power of 2 and > 0")
	}

	cells := make([]cell[T], capacity)
	for i := uint64(0); i < capacity; i++ {
		// initial sequence value per cell
		cells[i].seq.Store(i)
	}

	return &Ring[T]{
		mask:     capacity - 1,
		capacity: capacity,
		cells:    cells,
	}
}

func validCapacity(capacity uint64) bool {
	return capacity != 0 && capacity&(capacity-1) == 0
}

// Enqueue pushes an element into the queue.
// Returns false if the queue is full (overflow).
// May be called concurrently from many goroutines (producers).
func (q *Ring[T]) Enqueue(v T) bool {
	var spins uint32
	for {
		pos := q.enqueue.Load()
		c := &q.cells[pos&q.mask]

		seq := c.seq.Load()
		diff := int64(seq) - int64(pos)

		if diff == 0 {
			// cell is free for this position, try to reserve it
			if q.enqueue.CompareAndSwap(pos, pos+1) {
				c.val = v
				// publish the value: seq = pos+1
				c.seq.Store(pos + 1)
				return true
			}
		} else if diff < 0 {
			// cell has not been freed by the consumer yet
			// => queue is full
			return false
		}
		// contention, or diff > 0 (cell still belongs to a previous cycle)
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// Dequeue pops an element from the queue.
// Returns (zero, false) if the queue is empty or the producer owning the head
// cell has not published yet.
// IMPORTANT: must be called from a single consumer goroutine.
func (q *Ring[T]) Dequeue() (T, bool) {
	var zero T

	pos := q.dequeue
	c := &q.cells[pos&q.mask]

	if int64(c.seq.Load())-int64(pos+1) != 0 {
		return zero, false
	}

	q.dequeue = pos + 1
	v := c.val
	c.val = zero
	// free the cell for the next cycle:
	// next time this physical cell will be used at pos+capacity
	c.seq.Store(pos + q.capacity)

	return v, true
}

// Capacity returns the fixed queue capacity.
func (q *Ring[T]) Capacity() uint64 {
	return q.capacity
}

// Linked is a multi-producer, single-consumer, unbounded, lock-free queue.
// Enqueue never fails.
type Linked[T any] struct {
	_    [64]byte
	tail atomic.Pointer[node[T]] // updated by multiple producers
	_    [64]byte
	head *node[T] // stub; updated by a single consumer
	_    [64]byte
}

// NewLinked creates an empty unbounded queue.
func NewLinked[T any]() *Linked[T] {
	q := &Linked[T]{}
	stub := &node[T]{}
	q.head = stub
	q.tail.Store(stub)
	return q
}

// Enqueue appends v to the tail. Always returns true.
// May be called concurrently from many goroutines (producers).
func (q *Linked[T]) Enqueue(v T) bool {
	n := &node[T]{val: v}
	prev := q.tail.Swap(n)
	// between Swap and Store the queue is in an intermediate state:
	// the consumer sees prev as the last node until next is linked
	prev.next.Store(n)
	return true
}

// Dequeue pops the head element.
// Returns (zero, false) if the queue is empty or the next producer has not
// linked its node yet.
// IMPORTANT: must be called from a single consumer goroutine.
func (q *Linked[T]) Dequeue() (T, bool) {
	var zero T

	next := q.head.next.Load()
	if next == nil {
		return zero, false
	}

	v := next.val
	next.val = zero
	q.head = next
	return v, true
}
