package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"llmobs-hq/copilot/pkg/config"
)

// Sink delivers events to an observability backend. Deliver may be
// called from the emitter's worker goroutine only; sinks need not be
// concurrency-safe with respect to each other.
type Sink interface {
	Deliver(ev Event) error
}

// Emitter is the fire-and-forget boundary between the evaluation
// pipeline and the observability backend. Emit never blocks: events go
// onto a bounded queue, and when the queue is full the oldest pending
// event is dropped to make room. A single worker drains the queue and
// delivers to every sink with a bounded retry; delivery failures are
// logged and swallowed, never propagated to callers.
type Emitter struct {
	cfg    *config.TelemetryConfig
	sinks  []Sink
	logger *slog.Logger

	queue   chan Event
	dropped atomic.Int64

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

// NewEmitter creates an emitter delivering to the given sinks and
// starts its worker.
func NewEmitter(cfg *config.TelemetryConfig, sinks ...Sink) *Emitter {
	e := &Emitter{
		cfg:     cfg,
		sinks:   sinks,
		logger:  slog.Default().With("component", "telemetry"),
		queue:   make(chan Event, cfg.QueueSize),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit enqueues an event for delivery. It never blocks and never
// returns an error; under backpressure the oldest pending event is
// dropped in favor of the new one.
func (e *Emitter) Emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	select {
	case <-e.stopped:
		return
	default:
	}

	select {
	case e.queue <- ev:
		return
	default:
	}

	// Queue full: drop the oldest pending event to make room.
	select {
	case <-e.queue:
		e.dropped.Add(1)
	default:
	}
	select {
	case e.queue <- ev:
	default:
		e.dropped.Add(1)
	}
}

// EmitAll enqueues a batch of events.
func (e *Emitter) EmitAll(events []Event) {
	for _, ev := range events {
		e.Emit(ev)
	}
}

// Dropped returns the number of events discarded under backpressure.
func (e *Emitter) Dropped() int64 {
	return e.dropped.Load()
}

// Close stops accepting events, drains the queue, and waits for the
// worker to finish. The context bounds the drain.
func (e *Emitter) Close(ctx context.Context) error {
	e.stopOnce.Do(func() {
		close(e.stopped)
	})

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Emitter) run() {
	defer close(e.done)

	for {
		select {
		case ev := <-e.queue:
			e.deliver(ev)
		case <-e.stopped:
			// Drain what is already queued, then exit.
			for {
				select {
				case ev := <-e.queue:
					e.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

// deliver attempts each sink with a bounded retry and backoff. A sink
// that still fails after the final attempt is logged and skipped; a
// TelemetryDeliveryError never reaches the pipeline.
func (e *Emitter) deliver(ev Event) {
	for _, sink := range e.sinks {
		var err error
		for attempt := 0; attempt <= e.cfg.RetryAttempts; attempt++ {
			if attempt > 0 {
				time.Sleep(e.cfg.RetryBackoff * time.Duration(attempt))
			}
			if err = sink.Deliver(ev); err == nil {
				break
			}
		}
		if err != nil {
			e.logger.Debug("telemetry delivery abandoned",
				"metric", ev.Name,
				"attempts", e.cfg.RetryAttempts+1,
				"error", err)
		}
	}
}
