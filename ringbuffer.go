package rendezvous

import "sync/atomic"

// Bounded ring algorithm by Dmitry Vyukov
// https://www.1024cores.net/home/lock-free-algorithms/queues/bounded-mpmc-queue
//
// Unbounded node queue by Dmitry Vyukov
// https://www.1024cores.net/home/lock-free-algorithms/queues/non-intrusive-mpsc-node-based-queue

// cell is one physical position of a Ring.
type cell[T any] struct {
	seq atomic.Uint64 // sequence number (controls visibility and cell ownership)
	val T             // actual value stored in this cell
}

// node is one element of a Linked queue.
type node[T any] struct {
	next atomic.Pointer[node[T]]
	val  T
}
