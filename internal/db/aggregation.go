package db

import (
	"context"
	"log"
	"time"
)

// SnapshotFunc turns the flights of the current window into one snapshot
// row per route.
type SnapshotFunc func(flights []Flight, at time.Time) []RouteAnalysis

// RunSnapshotOnce recomputes the route snapshots from flights collected in
// the last windowDays days and stores them in place.
func RunSnapshotOnce(ctx context.Context, s *Store, windowDays int, build SnapshotFunc) (int, error) {
	now := time.Now().UTC()
	flights, err := s.ListFlights(ctx, FlightFilter{Since: now.Add(-time.Duration(windowDays) * 24 * time.Hour)})
	if err != nil {
		return 0, err
	}
	rows := build(flights, now)
	if err := s.UpsertSnapshots(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// StartSnapshotWorker runs the route snapshot at startup, then every hour.
func StartSnapshotWorker(ctx context.Context, s *Store, windowDays int, build SnapshotFunc) {
	go func() {
		if _, err := RunSnapshotOnce(ctx, s, windowDays, build); err != nil {
			log.Printf("route snapshot error (startup): %v", err)
		}

		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				n, err := RunSnapshotOnce(ctx, s, windowDays, build)
				if err != nil {
					log.Printf("route snapshot error for %s: %v", t.UTC().Format(time.RFC3339), err)
					continue
				}
				log.Printf("route snapshot: %d routes", n)
			}
		}
	}()
}
