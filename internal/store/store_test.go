package store_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/eventpulse/internal/store"
)

// flakySource serves the CSV fixture until failing is set.
type flakySource struct {
	inner   store.Source
	failing atomic.Bool
	loads   atomic.Int32
}

func (f *flakySource) Name() string { return "flaky" }

func (f *flakySource) Load(ctx context.Context) (*store.Snapshot, error) {
	f.loads.Add(1)
	if f.failing.Load() {
		return nil, errors.New("source unavailable")
	}
	return f.inner.Load(ctx)
}

func TestStore_RefreshKeepsPreviousOnError(t *testing.T) {
	src := &flakySource{inner: store.NewCSVSource(writeFiles(t, fixture()), orgID)}
	s := store.New(src)
	if s.Snapshot() != nil {
		t.Fatal("snapshot should be nil before the first refresh")
	}

	first, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s.Snapshot() != first {
		t.Fatal("refresh did not swap in the new snapshot")
	}

	src.failing.Store(true)
	if _, err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if s.Snapshot() != first {
		t.Error("failed refresh must keep the previous snapshot")
	}
}

func TestStore_RunRefreshesUntilCancelled(t *testing.T) {
	src := &flakySource{inner: store.NewCSVSource(writeFiles(t, fixture()), orgID)}
	s := store.New(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, func() time.Duration { return 5 * time.Millisecond })
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for src.loads.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 loads, got %d", src.loads.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if s.Snapshot() == nil {
		t.Error("expected a snapshot after periodic refresh")
	}
}

func TestStore_RunDisabledDoesNotLoad(t *testing.T) {
	src := &flakySource{inner: store.NewCSVSource(writeFiles(t, fixture()), orgID)}
	s := store.New(src)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	s.Run(ctx, func() time.Duration { return -1 })
	if n := src.loads.Load(); n != 0 {
		t.Errorf("disabled refresh loaded %d times", n)
	}
}
