package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/eventpulse/internal/analytics"
	"github.com/gyaneshwarpardhi/eventpulse/internal/config"
	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
	"github.com/gyaneshwarpardhi/eventpulse/internal/metrics"
	"github.com/gyaneshwarpardhi/eventpulse/internal/store"
)

// Snapshotter supplies the latest loaded data.
type Snapshotter interface {
	Snapshot() *store.Snapshot
}

// Result is the outcome of computing the indicators of a single event.
type Result struct {
	Event            event.Event      `json:"event"`
	Report           analytics.Report `json:"report"`
	Pacing           analytics.Pacing `json:"pacing"`
	SnapshotLoadedAt time.Time        `json:"snapshot_loaded_at"`
	DurationMs       int64            `json:"duration_ms"`
}

// BatchItem is the outcome for one id of a batch request.
type BatchItem struct {
	EventID int64   `json:"event_id"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`

	Err error `json:"-"`
}

// Engine computes event reports on a bounded worker pool.
type Engine struct {
	data Snapshotter
	pool *workerPool[*computeWork, *Result]
	conf atomic.Pointer[config.EngineConf]
	now  func() time.Time
}

type computeWork struct {
	ds       event.Dataset
	loadedAt time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for pacing indicators.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine using conf and starts the worker pool.
func New(ctx context.Context, data Snapshotter, conf config.EngineConf, opts ...Option) *Engine {
	e := &Engine{data: data, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.conf.Store(&conf)
	e.pool = newWorkerPool[*computeWork, *Result](ctx, conf.Workers, conf.QueueDepth, e.compute)
	return e
}

// SetConf applies a reloaded config. Timeout and bulk limit take effect
// immediately; pool sizing is fixed until restart.
func (e *Engine) SetConf(conf config.EngineConf) {
	old := e.conf.Swap(&conf)
	if old.Workers != conf.Workers || old.QueueDepth != conf.QueueDepth {
		slog.Warn("engine pool size changes need a restart",
			"workers", old.Workers, "queue_depth", old.QueueDepth)
	}
}

// Conf returns the engine settings in effect.
func (e *Engine) Conf() config.EngineConf {
	return *e.conf.Load()
}

// ComputeSync computes the report of one event and waits for it.
func (e *Engine) ComputeSync(ctx context.Context, id int64) (*Result, error) {
	timeout := e.Conf().Timeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := e.submit(id)
	if err != nil {
		return nil, err
	}
	return e.await(ctx, reply, timeout)
}

// ComputeBatch computes several events concurrently. All of them share one
// deadline; failures are reported per item.
func (e *Engine) ComputeBatch(ctx context.Context, ids []int64) []BatchItem {
	timeout := e.Conf().Timeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	items := make([]BatchItem, len(ids))
	replies := make([]<-chan *Result, len(ids))
	for i, id := range ids {
		items[i].EventID = id
		replies[i], items[i].Err = e.submit(id)
	}
	for i := range items {
		if items[i].Err == nil {
			items[i].Result, items[i].Err = e.await(ctx, replies[i], timeout)
		}
		if items[i].Err != nil {
			items[i].Error = items[i].Err.Error()
		}
	}
	return items
}

func (e *Engine) submit(id int64) (<-chan *Result, error) {
	snap := e.data.Snapshot()
	if snap == nil {
		metrics.ComputationsRejected.WithLabelValues("no_snapshot").Inc()
		return nil, ErrNoSnapshot
	}
	ds, ok := snap.Dataset(id)
	if !ok {
		metrics.ComputationsRejected.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %d", ErrEventNotFound, id)
	}

	reply := make(chan *Result, 1)
	if !e.pool.Submit(&computeWork{ds: ds, loadedAt: snap.LoadedAt}, reply) {
		metrics.ComputationsRejected.WithLabelValues("queue_full").Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.ComputationsEnqueued.Inc()
	metrics.QueueUtilization.Set(e.QueueUtilization())
	return reply, nil
}

func (e *Engine) await(ctx context.Context, reply <-chan *Result, timeout time.Duration) (*Result, error) {
	select {
	case res := <-reply:
		if res == nil {
			metrics.ComputationsRejected.WithLabelValues("failed").Inc()
			return nil, ErrComputeFailed
		}
		return res, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.ComputationsRejected.WithLabelValues("timeout").Inc()
			return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

func (e *Engine) compute(_ context.Context, w *computeWork) *Result {
	start := time.Now()
	report := analytics.Compute(w.ds)
	res := &Result{
		Event:            w.ds.Event,
		Report:           report,
		Pacing:           analytics.ComputePacing(w.ds.Event, report.Enrollments.Total, e.now()),
		SnapshotLoadedAt: w.loadedAt,
	}
	elapsed := time.Since(start)
	res.DurationMs = elapsed.Milliseconds()

	metrics.ComputationsCompleted.Inc()
	metrics.ComputationDuration.Observe(float64(elapsed.Microseconds()) / 1000)
	recordDiagnostics(w.ds.Event, report.Diagnostics)
	return res
}

func recordDiagnostics(ev event.Event, d analytics.Diagnostics) {
	for reason, n := range d.ExcludedEnrollments {
		metrics.RecordsExcluded.WithLabelValues("enrollment", reason).Add(float64(n))
	}
	for reason, n := range d.ExcludedTransactions {
		metrics.RecordsExcluded.WithLabelValues("transaction", reason).Add(float64(n))
	}
	if d.InvalidDateRange {
		metrics.InvalidDateRanges.Inc()
		slog.Warn("event opening date is not before its start date",
			"event_id", ev.ID, "opening", ev.OpeningDate, "start", ev.StartDate)
	}

	enrollments, transactions := d.Excluded()
	if enrollments+transactions+d.DroppedAnswers+d.PostStartEnrollments+d.PostStartTransactions == 0 {
		return
	}
	slog.Debug("records left out of indicators",
		"event_id", ev.ID,
		"enrollments", enrollments,
		"transactions", transactions,
		"dropped_answers", d.DroppedAnswers,
		"post_start_enrollments", d.PostStartEnrollments,
		"post_start_transactions", d.PostStartTransactions,
	)
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
