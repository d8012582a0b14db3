package db

import (
	"context"
	"log"
	"time"
)

// PurgeResult reports how many rows a retention pass removed.
type PurgeResult struct {
	Flights  int64 `json:"flights"`
	Insights int64 `json:"insights"`
	Runs     int64 `json:"collection_runs"`
}

// PurgeOlderThan deletes flights, insights and collection runs created
// before cutoff.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (PurgeResult, error) {
	var res PurgeResult
	db := s.db.WithContext(ctx)

	r := db.Where("created_at < ?", cutoff).Delete(&Flight{})
	if r.Error != nil {
		return res, r.Error
	}
	res.Flights = r.RowsAffected

	r = db.Where("created_at < ?", cutoff).Delete(&Insight{})
	if r.Error != nil {
		return res, r.Error
	}
	res.Insights = r.RowsAffected

	r = db.Where("started_at < ?", cutoff).Delete(&CollectionRun{})
	if r.Error != nil {
		return res, r.Error
	}
	res.Runs = r.RowsAffected
	return res, nil
}

// RunRetentionOnce performs a single pass of retention cleanup for the
// given window in days.
func RunRetentionOnce(ctx context.Context, s *Store, retentionDays int) (PurgeResult, error) {
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	res, err := s.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return res, err
	}
	if res.Flights > 0 || res.Insights > 0 || res.Runs > 0 {
		log.Printf("retention: removed %d flights, %d insights, %d runs older than %s",
			res.Flights, res.Insights, res.Runs, cutoff.Format(time.RFC3339))
	}
	return res, nil
}

// StartRetentionWorker launches a background goroutine that runs the
// retention cleanup once at startup and then once per day.
func StartRetentionWorker(ctx context.Context, s *Store, retentionDays int) {
	go func() {
		if _, err := RunRetentionOnce(ctx, s, retentionDays); err != nil {
			log.Printf("retention cleanup error (startup): %v", err)
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := RunRetentionOnce(ctx, s, retentionDays); err != nil {
					log.Printf("retention cleanup error: %v", err)
				}
			}
		}
	}()
}
