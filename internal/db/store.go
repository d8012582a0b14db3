package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps the gorm handle with the queries the service needs.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FlightFilter narrows ListFlights. Zero values mean "no constraint".
type FlightFilter struct {
	// Since bounds CreatedAt (collection time), not the travel date.
	Since       time.Time
	MinPrice    *float64
	MaxPrice    *float64
	Airline     string
	Origin      string
	Destination string
	Route       string
	DateFrom    *time.Time
	DateTo      *time.Time
	Limit       int
}

func (f FlightFilter) apply(q *gorm.DB) *gorm.DB {
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Airline != "" {
		q = q.Where("airline = ?", f.Airline)
	}
	if f.Origin != "" {
		q = q.Where("origin = ?", f.Origin)
	}
	if f.Destination != "" {
		q = q.Where("destination = ?", f.Destination)
	}
	if f.Route != "" {
		q = q.Where("route = ?", f.Route)
	}
	if f.DateFrom != nil {
		q = q.Where("date >= ?", Day(*f.DateFrom))
	}
	if f.DateTo != nil {
		q = q.Where("date <= ?", Day(*f.DateTo))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q
}

// SaveFlights normalizes and inserts flights. Rows whose natural key
// (route, airline, date, flight_number) already exists are skipped, so a
// stored record is never overwritten. It returns the number of new rows.
func (s *Store) SaveFlights(ctx context.Context, flights []Flight) (int64, error) {
	if len(flights) == 0 {
		return 0, nil
	}
	for i := range flights {
		flights[i].Normalize()
		if err := flights[i].Validate(); err != nil {
			return 0, fmt.Errorf("flight %d: %w", i, err)
		}
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&flights, 200)
	if res.Error != nil {
		return 0, fmt.Errorf("save flights: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListFlights returns flights matching f, newest travel date first.
func (s *Store) ListFlights(ctx context.Context, f FlightFilter) ([]Flight, error) {
	var out []Flight
	q := f.apply(s.db.WithContext(ctx).Model(&Flight{}))
	if err := q.Order("date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	return out, nil
}

func (s *Store) GetFlight(ctx context.Context, id uint) (*Flight, error) {
	var f Flight
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get flight %d: %w", id, err)
	}
	return &f, nil
}

func (s *Store) SaveInsights(ctx context.Context, insights []Insight) error {
	if len(insights) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&insights).Error; err != nil {
		return fmt.Errorf("save insights: %w", err)
	}
	return nil
}

// ListInsights returns insights created after since, optionally limited to
// one category, newest first.
func (s *Store) ListInsights(ctx context.Context, since time.Time, category string) ([]Insight, error) {
	var out []Insight
	q := s.db.WithContext(ctx).Where("created_at >= ?", since)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	return out, nil
}

func (s *Store) SaveRun(ctx context.Context, run *CollectionRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("save collection run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent collection run or ErrNotFound.
func (s *Store) LatestRun(ctx context.Context) (*CollectionRun, error) {
	var run CollectionRun
	err := s.db.WithContext(ctx).Order("started_at DESC").Limit(1).Find(&run).Error
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	if run.ID == 0 {
		return nil, ErrNotFound
	}
	return &run, nil
}

// Snapshots returns the stored route snapshots keyed by route.
func (s *Store) Snapshots(ctx context.Context) (map[string]RouteAnalysis, error) {
	var rows []RouteAnalysis
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	out := make(map[string]RouteAnalysis, len(rows))
	for _, r := range rows {
		out[r.Route] = r
	}
	return out, nil
}

// UpsertSnapshots replaces the snapshot row of each route in place.
func (s *Store) UpsertSnapshots(ctx context.Context, rows []RouteAnalysis) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "route"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"origin", "destination", "avg_price", "min_price", "max_price",
			"flight_count", "demand_score", "popularity_rank", "competition",
			"status", "snapshot_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert snapshots: %w", err)
	}
	return nil
}

func (s *Store) FindUser(ctx context.Context, username string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
