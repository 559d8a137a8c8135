package publish

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sidekiq-metrics-agent/internal/cluster"
	"github.com/sidekiq-metrics-agent/pkg/metrics"
)

// State is the lifecycle state of a Publisher.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateQuieting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateQuieting:
		return "quieting"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// ErrPublisherStopped is returned by Start after Stop: the publisher is a
// one-shot lifecycle object and cannot be restarted.
var ErrPublisherStopped = errors.New("publish: publisher is stopped and cannot be restarted")

// DefaultInterval is the publishing cadence when none is configured.
const DefaultInterval = 60 * time.Second

// Options configures a Publisher.
type Options struct {
	Interval   time.Duration
	Namespace  string
	Dimensions []Dimension
	Logger     *zap.Logger
	Metrics    *metrics.PublisherMetrics
}

// Publisher owns one background goroutine that collects a cluster snapshot
// on a fixed interval, transforms it into measurements, and submits them in
// batches to the sink. The sink handle, namespace, and dimensions are
// immutable after construction; the lifecycle state is the only mutable
// cross-goroutine data.
type Publisher struct {
	source     cluster.Source
	sink       Sink
	interval   time.Duration
	namespace  string
	dimensions []Dimension
	log        *zap.Logger
	metrics    *metrics.PublisherMetrics
	now        func() time.Time

	stopFlag atomic.Bool

	mu    sync.Mutex
	state State
	wake  chan struct{}
	done  chan struct{}
}

// New creates a Publisher. Zero-value options fall back to DefaultInterval,
// the "Sidekiq" namespace, and a no-op logger.
func New(source cluster.Source, sink Sink, opts Options) *Publisher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Namespace == "" {
		opts.Namespace = "Sidekiq"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Publisher{
		source:     source,
		sink:       sink,
		interval:   opts.Interval,
		namespace:  opts.Namespace,
		dimensions: opts.Dimensions,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

// Start spawns the publishing loop. Calling Start while the loop is alive is
// a no-op; calling it after Stop returns ErrPublisherStopped.
func (p *Publisher) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return ErrPublisherStopped
	}
	if p.aliveLocked() {
		return nil
	}
	// A quieted loop that already drained is as final as a stopped one.
	if p.state == StateQuieting {
		return ErrPublisherStopped
	}

	p.wake = make(chan struct{})
	p.done = make(chan struct{})
	p.state = StateRunning
	p.log.Info("metrics publisher starting",
		zap.Duration("interval", p.interval),
		zap.String("namespace", p.namespace))
	go p.run()
	return nil
}

// Quiet asks the loop to exit at its next natural tick boundary. An
// in-progress cycle finishes and a sleeping loop keeps sleeping; only the
// top-of-loop flag check observes the request. No-op unless running.
func (p *Publisher) Quiet() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateRunning || !p.aliveLocked() {
		return
	}
	p.stopFlag.Store(true)
	p.state = StateQuieting
	p.log.Info("metrics publisher quieting")
}

// Stop requests exit, wakes the loop if it is sleeping between ticks, and
// blocks until the loop goroutine has fully exited. An in-flight cycle is
// never aborted; the loop exits at the next flag check. Safe to call at any
// time, including before Start and more than once.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if p.state == StateIdle {
		p.state = StateStopped
		p.mu.Unlock()
		p.log.Info("metrics publisher stopped before start")
		return
	}

	done := p.done
	if p.state != StateStopped {
		p.stopFlag.Store(true)
		close(p.wake)
		p.state = StateStopped
		p.log.Info("metrics publisher stopping")
	}
	p.mu.Unlock()

	if done != nil {
		<-done
	}
	p.log.Info("metrics publisher stopped")
}

// Running reports whether the loop goroutine exists and has not yet exited.
func (p *Publisher) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aliveLocked()
}

// State returns the current lifecycle state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Publisher) aliveLocked() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// run is the drift-corrected scheduling loop. Each tick is anchored to the
// previous scheduled time, clamped to now when a cycle overruns the interval,
// so overruns never compound into a backlog and the sleep is never negative.
func (p *Publisher) run() {
	defer close(p.done)

	tick := p.now()
	for !p.stopFlag.Load() {
		p.cycle()

		now := p.now()
		tick = nextTick(tick, now, p.interval)
		if d := tick.Sub(now); d > 0 {
			p.sleep(d)
		}
	}
	p.log.Info("publishing loop exited")
}

// nextTick schedules the tick after prev: prev+interval, or now when the
// cycle already ran past that.
func nextTick(prev, now time.Time, interval time.Duration) time.Time {
	next := prev.Add(interval)
	if next.Before(now) {
		return now
	}
	return next
}

// sleep waits for d or until Stop forces a wake, whichever comes first. The
// top-of-loop flag check distinguishes the two.
func (p *Publisher) sleep(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.wake:
	}
}

// cycle runs one collect-transform-publish pass. Errors are logged and
// counted, never fatal: a failed tick must not take publishing down for the
// rest of the process's life, and the next tick gets a fresh attempt.
func (p *Publisher) cycle() {
	ctx := context.Background()
	start := time.Now()

	snap, err := p.source.Snapshot(ctx)
	if err != nil {
		p.log.Error("collecting cluster snapshot failed", zap.Error(err))
		if p.metrics != nil {
			p.metrics.CycleErrors.WithLabelValues("collect").Inc()
		}
		return
	}

	measurements := BuildMeasurements(snap, p.now(), p.dimensions)
	published := 0
	for _, batch := range Chunk(measurements, SinkBatchLimit) {
		if err := p.sink.Submit(ctx, p.namespace, batch); err != nil {
			p.log.Error("submitting measurement batch failed",
				zap.Error(err),
				zap.Int("batch_size", len(batch)),
				zap.Int("published", published))
			if p.metrics != nil {
				p.metrics.CycleErrors.WithLabelValues("publish").Inc()
			}
			return
		}
		published += len(batch)
	}

	if p.metrics != nil {
		p.metrics.Cycles.Inc()
		p.metrics.MeasurementsPublished.Add(float64(published))
		p.metrics.LastCycleMeasurements.Set(float64(published))
		p.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}
	p.log.Debug("published cluster metrics",
		zap.Int("measurements", published),
		zap.Int("queues", len(snap.Queues)),
		zap.Int("processes", len(snap.Processes)))
}
