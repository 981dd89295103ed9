package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/eventpulse/internal/analytics"
	"github.com/gyaneshwarpardhi/eventpulse/internal/config"
	"github.com/gyaneshwarpardhi/eventpulse/internal/engine"
	"github.com/gyaneshwarpardhi/eventpulse/internal/store"
	"github.com/gyaneshwarpardhi/eventpulse/internal/store/storetest"
)

var asOf = time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

func defaultConf() config.EngineConf {
	return config.EngineConf{Workers: 2, QueueDepth: 16, TimeoutMs: 2000, BulkLimit: 5}
}

func newEngine(t *testing.T, data engine.Snapshotter, conf config.EngineConf) *engine.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	e := engine.New(ctx, data, conf, engine.WithClock(func() time.Time { return asOf }))
	t.Cleanup(func() {
		cancel()
		e.Shutdown()
	})
	return e
}

func TestComputeSync(t *testing.T) {
	e := newEngine(t, storetest.Store(t), defaultConf())

	res, err := e.ComputeSync(context.Background(), storetest.RetreatID)
	if err != nil {
		t.Fatalf("ComputeSync: %v", err)
	}
	r := res.Report
	if r.EventID != storetest.RetreatID || res.Event.Name != "Retiro" {
		t.Errorf("wrong event: %+v", res.Event)
	}
	if got := r.Revenue.Total.String(); got != "180" {
		t.Errorf("total revenue: got %s, want 180", got)
	}
	if got := r.Revenue.TicketPrice.Decimal.StringFixed(2); got != "100.00" {
		t.Errorf("ticket price: got %s", got)
	}
	if r.Enrollments.Total != 2 {
		t.Errorf("total enrollments: got %d, want 2", r.Enrollments.Total)
	}
	if got := r.Enrollments.AverageDaily.String(); got != "0.2" {
		t.Errorf("avg daily: got %s, want 0.2", got)
	}
	if !res.Pacing.IsActive || res.Pacing.DaysRemaining != 5 {
		t.Errorf("pacing: %+v", res.Pacing)
	}
	if got := res.Pacing.DailyGoal.String(); got != "9.6" {
		t.Errorf("daily goal: got %s, want 9.6", got)
	}
	if len(r.Fields.Distributions) != 2 {
		t.Errorf("expected 2 field distributions, got %d", len(r.Fields.Distributions))
	}
	if res.SnapshotLoadedAt.IsZero() {
		t.Error("snapshot time not set")
	}

	d := r.Diagnostics
	wantEnrollments := map[string]int{analytics.ReasonStatus: 1, analytics.ReasonCanceled: 1}
	wantTransactions := map[string]int{analytics.ReasonEnrollment: 1, analytics.ReasonScope: 1}
	for reason, n := range wantEnrollments {
		if d.ExcludedEnrollments[reason] != n {
			t.Errorf("excluded enrollments %s: got %d, want %d", reason, d.ExcludedEnrollments[reason], n)
		}
	}
	for reason, n := range wantTransactions {
		if d.ExcludedTransactions[reason] != n {
			t.Errorf("excluded transactions %s: got %d, want %d", reason, d.ExcludedTransactions[reason], n)
		}
	}
}

func TestComputeSync_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		e := newEngine(t, storetest.Store(t), defaultConf())
		_, err := e.ComputeSync(context.Background(), 999)
		if !errors.Is(err, engine.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("no snapshot", func(t *testing.T) {
		empty := store.New(store.NewCSVSource(t.TempDir(), storetest.OrgID))
		e := newEngine(t, empty, defaultConf())
		_, err := e.ComputeSync(context.Background(), storetest.RetreatID)
		if !errors.Is(err, engine.ErrNoSnapshot) {
			t.Fatalf("expected ErrNoSnapshot, got %v", err)
		}
	})

	t.Run("timeout and queue full", func(t *testing.T) {
		// No workers: the first job sits in the queue until the deadline.
		conf := config.EngineConf{Workers: 0, QueueDepth: 1, TimeoutMs: 20}
		e := newEngine(t, storetest.Store(t), conf)

		_, err := e.ComputeSync(context.Background(), storetest.RetreatID)
		if !errors.Is(err, engine.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
		if u := e.QueueUtilization(); u != 1 {
			t.Errorf("queue utilization: got %v, want 1", u)
		}
		_, err = e.ComputeSync(context.Background(), storetest.RetreatID)
		if !errors.Is(err, engine.ErrQueueFull) {
			t.Fatalf("expected ErrQueueFull, got %v", err)
		}
	})
}

func TestComputeBatch(t *testing.T) {
	e := newEngine(t, storetest.Store(t), defaultConf())

	items := e.ComputeBatch(context.Background(), []int64{storetest.RetreatID, 999, storetest.CampID})
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Result == nil || items[0].Err != nil {
		t.Errorf("item 0: %+v", items[0])
	}
	if !errors.Is(items[1].Err, engine.ErrEventNotFound) || items[1].Error == "" {
		t.Errorf("item 1 should be not found: %+v", items[1])
	}
	camp := items[2].Result
	if camp == nil {
		t.Fatalf("item 2: %+v", items[2])
	}
	if !camp.Report.Diagnostics.InvalidDateRange {
		t.Error("camp opens on its start date; expected InvalidDateRange")
	}
	if camp.Report.Enrollments.SpanDays != 1 {
		t.Errorf("span days: got %d, want 1", camp.Report.Enrollments.SpanDays)
	}
}

func TestSetConf(t *testing.T) {
	e := newEngine(t, storetest.Store(t), defaultConf())
	conf := defaultConf()
	conf.TimeoutMs = 100
	conf.BulkLimit = 3
	e.SetConf(conf)
	if got := e.Conf(); got.BulkLimit != 3 || got.Timeout() != 100*time.Millisecond {
		t.Errorf("conf not applied: %+v", got)
	}
}
