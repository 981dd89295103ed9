// Package store loads raw event records from an external source and keeps the
// latest consistent copy in memory.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/eventpulse/internal/metrics"
)

// Source produces a complete snapshot on every call to Load.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Snapshot, error)
}

// Store holds the current snapshot. Readers never block on a refresh.
type Store struct {
	src     Source
	current atomic.Pointer[Snapshot]
}

// New creates a Store over src. It holds no data until Refresh succeeds.
func New(src Source) *Store {
	return &Store{src: src}
}

// Snapshot returns the latest loaded snapshot, or nil before the first load.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Refresh loads a new snapshot and swaps it in. On failure the previous
// snapshot stays in effect.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap, err := s.src.Load(ctx)
	if err != nil {
		metrics.SnapshotRefreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load %s: %w", s.src.Name(), err)
	}
	s.current.Store(snap)

	counts := snap.Counts()
	for _, kind := range []string{"events", "enrollments", "transactions", "fields"} {
		metrics.SnapshotRecords.WithLabelValues(kind).Set(float64(counts[kind]))
	}
	metrics.SnapshotRefreshes.WithLabelValues("ok").Inc()
	metrics.SnapshotLoadedAt.Set(float64(snap.LoadedAt.Unix()))
	slog.Info("snapshot loaded",
		"source", snap.Source,
		"events", counts["events"],
		"enrollments", counts["enrollments"],
		"transactions", counts["transactions"],
		"duration", time.Since(start),
	)
	return snap, nil
}

// Run refreshes on every tick until ctx is cancelled. interval is consulted
// before each wait so config reloads take effect; a non-positive value pauses
// refreshing and is checked again a minute later.
func (s *Store) Run(ctx context.Context, interval func() time.Duration) {
	for {
		d := interval()
		enabled := d > 0
		if !enabled {
			d = time.Minute
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		if !enabled {
			continue
		}
		if _, err := s.Refresh(ctx); err != nil {
			slog.Warn("snapshot refresh failed, keeping previous snapshot", "err", err)
		}
	}
}
