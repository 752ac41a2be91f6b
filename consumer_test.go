package rendezvous

import (
	"context"
	"errors"
	"testing"
	"time"
)

type popFunc func(ctx context.Context, timeout time.Duration) (Slot, error)

func (f popFunc) Pop(ctx context.Context, timeout time.Duration) (Slot, error) {
	return f(ctx, timeout)
}

func TestConsumerZeroProducers(t *testing.T) {
	q := popFunc(func(context.Context, time.Duration) (Slot, error) {
		t.Fatalf("consumer with zero producers must not pop")
		return Slot{}, nil
	})
	rec := NewRecorder()

	res, err := (Consumer{}).Run(context.Background(), q, rec)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.EndMarkers != 0 || res.Payloads != 0 || !res.Done(0) {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(rec.Filter(EventConsumerDone, ConsumerUnit)) != 1 {
		t.Fatalf("expected one consumer_done event")
	}
}

// The consumer stops on the last end-marker and leaves anything behind it.
func TestConsumerStopsAtLastEndMarker(t *testing.T) {
	q := NewQueue()
	slots := []Slot{
		NewPayload(0, 0, PayloadText(0, 0)),
		NewPayload(1, 0, PayloadText(1, 0)),
		NewEndMarker(0),
		NewPayload(1, 1, PayloadText(1, 1)),
		NewEndMarker(1),
		NewEndMarker(2), // stray; must never be popped
	}
	for _, s := range slots {
		if err := q.Push(s); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	rec := NewRecorder()
	res, err := (Consumer{Producers: 2, PollTimeout: 10 * time.Millisecond}).Run(context.Background(), q, rec)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.EndMarkers != 2 || res.Payloads != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.PerProducer[0] != 1 || res.PerProducer[1] != 2 {
		t.Fatalf("unexpected per-producer counts %v", res.PerProducer)
	}
	if q.Len() != 1 {
		t.Fatalf("expected the stray end-marker to stay queued, len=%d", q.Len())
	}

	events := rec.Events()
	if last := events[len(events)-1]; last.Kind != EventConsumerDone {
		t.Fatalf("expected consumer_done last, got %s", last.Kind)
	}
	ends := rec.Filter(EventEndMarker, ConsumerUnit)
	if len(ends) != 2 || ends[0].Producer != 0 || ends[1].Producer != 1 {
		t.Fatalf("unexpected end-marker events %+v", ends)
	}
}

// Empty polls back off and retry until the end-marker shows up.
func TestConsumerBacksOffOnEmpty(t *testing.T) {
	q := NewQueue()
	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = q.Push(NewPayload(0, 0, PayloadText(0, 0)))
		_ = q.Push(NewEndMarker(0))
	}()

	c := Consumer{
		Producers:     1,
		PollTimeout:   5 * time.Millisecond,
		Backoff:       time.Millisecond,
		BackoffJitter: time.Millisecond,
	}
	rec := NewRecorder()
	res, err := c.Run(context.Background(), q, rec)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.EmptyPolls == 0 {
		t.Fatalf("expected at least one empty poll")
	}
	if len(rec.Filter(EventQueueEmpty, ConsumerUnit)) != res.EmptyPolls {
		t.Fatalf("expected one queue_empty event per empty poll")
	}
	if res.Payloads != 1 || res.EndMarkers != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestConsumerContextDeadline(t *testing.T) {
	q := NewQueue()
	_ = q.Push(NewEndMarker(0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	rec := NewRecorder()
	c := Consumer{Producers: 2, PollTimeout: 10 * time.Millisecond, Backoff: time.Millisecond}
	res, err := c.Run(ctx, q, rec)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if res.EndMarkers != 1 || res.Done(2) {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(rec.Filter(EventConsumerFailed, ConsumerUnit)) != 1 {
		t.Fatalf("expected one consumer_failed event")
	}
	if len(rec.Filter(EventConsumerDone, ConsumerUnit)) != 0 {
		t.Fatalf("consumer reported done without every end-marker")
	}
}

func TestConsumerBackoff(t *testing.T) {
	if d := (Consumer{}).backoff(); d != DefaultBackoff {
		t.Fatalf("expected default backoff %v, got %v", DefaultBackoff, d)
	}

	c := Consumer{Backoff: 10 * time.Millisecond, BackoffJitter: 5 * time.Millisecond}
	for i := 0; i < 1000; i++ {
		d := c.backoff()
		if d < 10*time.Millisecond || d >= 15*time.Millisecond {
			t.Fatalf("backoff %v outside [10ms, 15ms)", d)
		}
	}
}
