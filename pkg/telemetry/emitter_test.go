package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"llmobs-hq/copilot/pkg/config"
)

// captureSink records every delivered event, optionally failing the
// first failUntil attempts per event.
type captureSink struct {
	mu        sync.Mutex
	events    []Event
	failUntil int
	attempts  int
}

func (c *captureSink) Deliver(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts++
	if c.attempts <= c.failUntil {
		return errors.New("backend unavailable")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *captureSink) captured() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func testTelemetryConfig(queueSize int) *config.TelemetryConfig {
	return &config.TelemetryConfig{
		QueueSize:     queueSize,
		RetryAttempts: 2,
		RetryBackoff:  time.Millisecond,
	}
}

func TestEmitter_Delivers(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter(testTelemetryConfig(16), sink)

	tags := Tags{Service: "copilot", Env: "test", Model: "gpt-4o", SafeMode: true}
	e.Emit(Counter(MetricChatRequest, tags))
	e.Emit(Gauge(MetricCostTotalUSD, 0.0125, tags))
	e.Emit(Histogram(MetricChatLatencyMs, 840, tags))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	events := sink.captured()
	if len(events) != 3 {
		t.Fatalf("delivered %d events, want 3", len(events))
	}
	if events[0].Name != MetricChatRequest || events[0].Kind != KindCounter || events[0].Value != 1 {
		t.Errorf("first event = %+v, want request counter of 1", events[0])
	}
	if events[0].Tags != tags {
		t.Errorf("tags = %+v, want %+v", events[0].Tags, tags)
	}
	if events[0].Time.IsZero() {
		t.Error("event time not stamped")
	}
}

func TestEmitter_RetriesThenSucceeds(t *testing.T) {
	sink := &captureSink{failUntil: 2}
	e := NewEmitter(testTelemetryConfig(16), sink)

	e.Emit(Counter(MetricChatOK, Tags{}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := len(sink.captured()); got != 1 {
		t.Errorf("delivered %d events, want 1 after retries", got)
	}
}

func TestEmitter_SwallowsDeliveryFailure(t *testing.T) {
	// Fails more times than the retry budget allows; the event is
	// abandoned and nothing is surfaced to the caller.
	sink := &captureSink{failUntil: 100}
	e := NewEmitter(testTelemetryConfig(16), sink)

	e.Emit(Counter(MetricChatError, Tags{}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := len(sink.captured()); got != 0 {
		t.Errorf("delivered %d events, want 0", got)
	}
}

func TestEmitter_DropsOldestUnderBackpressure(t *testing.T) {
	// A sink that blocks until released, forcing the queue to fill.
	release := make(chan struct{})
	var delivered sync.WaitGroup
	delivered.Add(1)
	var deliveredOnce sync.Once
	blocking := sinkFunc(func(ev Event) error {
		deliveredOnce.Do(delivered.Done)
		<-release
		return nil
	})

	e := NewEmitter(&config.TelemetryConfig{QueueSize: 2, RetryAttempts: 0, RetryBackoff: 0}, blocking)

	// First event occupies the worker; wait so the rest hit the queue.
	e.Emit(Counter(MetricChatRequest, Tags{}))
	delivered.Wait()

	for i := 0; i < 10; i++ {
		e.Emit(Counter(MetricChatRequest, Tags{}))
	}

	if e.Dropped() == 0 {
		t.Error("Dropped() = 0, want > 0 with a full queue")
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestEmitter_EmitNeverBlocks(t *testing.T) {
	stuck := sinkFunc(func(ev Event) error {
		time.Sleep(time.Hour)
		return nil
	})
	e := NewEmitter(&config.TelemetryConfig{QueueSize: 1, RetryAttempts: 0, RetryBackoff: 0}, stuck)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			e.Emit(Counter(MetricChatRequest, Tags{}))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Emit blocked the caller")
	}
}

type sinkFunc func(Event) error

func (f sinkFunc) Deliver(ev Event) error { return f(ev) }
