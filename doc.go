// Package rendezvous coordinates many producers and one consumer over a
// shared queue, using one end-marker per producer to detect completion.
//
// Each Producer pushes a fixed sequence of payload slots followed by exactly
// one end-marker slot. The Consumer drains the queue and stops once it has
// counted one end-marker per producer. A Coordinator starts every unit,
// joins the producers, then joins the consumer.
//
// Two queue backends are available: NewQueue (unbounded, Push never fails)
// and NewBoundedQueue (fixed ring, Push reports ErrQueueIsFull). A producer
// whose push fails never sends its end-marker, so the consumer waits until
// its context ends; set Coordinator.Deadline to bound that wait.
//
// Units report their transitions to an injected Sink. LogSink writes them
// through log/slog, Recorder keeps them in memory.
package rendezvous
