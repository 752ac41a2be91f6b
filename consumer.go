package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/valyala/fastrand"
)

const (
	DefaultPollTimeout   = time.Second
	DefaultBackoff       = 100 * time.Millisecond
	DefaultBackoffJitter = 10 * time.Millisecond
)

// ConsumerUnit is the unit name used in consumer events.
const ConsumerUnit = "consumer"

// Consumer drains a queue until it has counted one end-marker per producer.
type Consumer struct {
	Producers     int
	PollTimeout   time.Duration // zero means DefaultPollTimeout
	Backoff       time.Duration // zero means DefaultBackoff
	BackoffJitter time.Duration // random extra sleep in [0, BackoffJitter)
}

// ConsumerResult is what the consumer observed before stopping.
type ConsumerResult struct {
	Payloads    int
	EndMarkers  int
	EmptyPolls  int
	PerProducer map[int]int // payloads per producer id
}

// Done reports whether every producer's end-marker was counted.
func (r ConsumerResult) Done(producers int) bool {
	return r.EndMarkers == producers
}

// Run pops until Producers end-markers were counted. With zero producers it
// returns immediately without touching the queue. It never pops again after
// the last end-marker. Run only gives up early when ctx ends.
// IMPORTANT: must be the only goroutine popping from q.
func (c Consumer) Run(ctx context.Context, q Popper, sink Sink) (ConsumerResult, error) {
	em := emitter{sink: sink, unit: ConsumerUnit}
	res := ConsumerResult{PerProducer: make(map[int]int)}

	if c.Producers < 0 {
		return res, fmt.Errorf("consumer: negative producer count %d", c.Producers)
	}

	timeout := c.PollTimeout
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}

	for res.EndMarkers < c.Producers {
		s, err := q.Pop(ctx, timeout)
		if errors.Is(err, ErrEmpty) {
			res.EmptyPolls++
			em.emit(EventQueueEmpty, -1, -1, "queue empty, backing off")
			if err = sleep(ctx, c.backoff()); err == nil {
				continue
			}
		}
		if err != nil {
			em.emit(EventConsumerFailed, -1, -1, fmt.Sprintf("stopped with %d/%d end-markers: %v", res.EndMarkers, c.Producers, err))
			return res, fmt.Errorf("consumer: %w", err)
		}

		if s.IsEndMarker() {
			res.EndMarkers++
			em.emit(EventEndMarker, s.Producer, -1, "received end-marker (producer finished)")
			continue
		}

		res.Payloads++
		res.PerProducer[s.Producer]++
		em.emit(EventConsumed, s.Producer, s.Index, "received: "+s.Payload)
	}

	em.emit(EventConsumerDone, -1, -1, "finished processing all items")
	return res, nil
}

func (c Consumer) backoff() time.Duration {
	d := c.Backoff
	if d <= 0 {
		d = DefaultBackoff
	}
	if c.BackoffJitter > 0 {
		n := uint32(math.MaxUint32)
		if c.BackoffJitter < time.Duration(math.MaxUint32) {
			n = uint32(c.BackoffJitter)
		}
		d += time.Duration(fastrand.Uint32n(n))
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
