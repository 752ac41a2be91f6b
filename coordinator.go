package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultProducers = 4
	DefaultItems     = 50
)

// CoordinatorUnit is the unit name used in coordinator events.
const CoordinatorUnit = "coordinator"

// ItemQueue is the queue a Coordinator shares between its units.
type ItemQueue interface {
	Pusher
	Popper
}

// Coordinator starts Producers producers and one consumer on a shared queue
// and waits for all of them.
type Coordinator struct {
	Producers int
	Items     int // payloads per producer

	// Consumer polling settings; Consumer.Producers is set by Run.
	Consumer Consumer

	// Queue is the shared queue. Nil means a fresh unbounded queue per run.
	Queue ItemQueue
	// Sink receives every event. Nil means Discard.
	Sink Sink

	// Deadline bounds the consumer's wait. Zero waits forever, so a producer
	// that dies before its end-marker hangs Run.
	Deadline time.Duration
}

// Report summarizes one run.
type Report struct {
	RunID           string
	Producers       int
	Items           int
	Produced        int // producers that pushed their end-marker
	FailedProducers []int
	Consumer        ConsumerResult
	Queue           QueueStats
	Elapsed         time.Duration
}

// Run executes one rendezvous. It joins every producer, in any order, and
// only then joins the consumer. The returned error joins every producer
// failure and the consumer error, if any.
func (c *Coordinator) Run(ctx context.Context) (Report, error) {
	if c.Producers < 0 {
		return Report{}, fmt.Errorf("coordinator: negative producer count %d", c.Producers)
	}
	if c.Items < 0 {
		return Report{}, fmt.Errorf("coordinator: negative item count %d", c.Items)
	}

	q := c.Queue
	if q == nil {
		q = NewQueue()
	}
	sink := c.Sink
	if sink == nil {
		sink = Discard
	}

	report := Report{
		RunID:     uuid.New().String(),
		Producers: c.Producers,
		Items:     c.Items,
	}
	sink = WithRunID(sink, report.RunID)
	em := emitter{sink: sink, unit: CoordinatorUnit}

	if c.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Deadline)
		defer cancel()
	}

	start := time.Now()
	em.emit(EventRunStarted, -1, -1, fmt.Sprintf("starting %d producers x %d items", c.Producers, c.Items))

	var (
		mu       sync.Mutex
		failures []error
		g        errgroup.Group
	)
	for id := 0; id < c.Producers; id++ {
		p := Producer{ID: id, Items: c.Items}
		g.Go(func() error {
			err := p.Run(q, sink)
			if err != nil {
				mu.Lock()
				failures = append(failures, err)
				report.FailedProducers = append(report.FailedProducers, p.ID)
				mu.Unlock()
			}
			return err
		})
	}

	type consumed struct {
		res ConsumerResult
		err error
	}
	done := make(chan consumed, 1)
	consumer := c.Consumer
	consumer.Producers = c.Producers
	go func() {
		res, err := consumer.Run(ctx, q, sink)
		done <- consumed{res: res, err: err}
	}()

	// every failure is already in failures
	_ = g.Wait()
	slices.Sort(report.FailedProducers)
	report.Produced = c.Producers - len(report.FailedProducers)

	out := <-done
	report.Consumer = out.res
	report.Elapsed = time.Since(start)
	if sq, ok := q.(interface{ Stats() QueueStats }); ok {
		report.Queue = sq.Stats()
	}

	err := errors.Join(errors.Join(failures...), out.err)
	if err != nil {
		em.emit(EventRunCompleted, -1, -1, fmt.Sprintf("run ended with errors: %v", err))
		return report, err
	}
	em.emit(EventRunCompleted, -1, -1, "all tasks completed")
	return report, nil
}
