package handlers

import (
	"context"
	"time"

	"flightdash/internal/collector"
	dbpkg "flightdash/internal/db"
)

// The interfaces below are the slices of *db.Store, *cache.RedisCache and
// *collector.Collector each handler depends on.

type FlightReader interface {
	ListFlights(ctx context.Context, f dbpkg.FlightFilter) ([]dbpkg.Flight, error)
	Snapshots(ctx context.Context) (map[string]dbpkg.RouteAnalysis, error)
}

type FlightGetter interface {
	GetFlight(ctx context.Context, id uint) (*dbpkg.Flight, error)
}

type FlightWriter interface {
	SaveFlights(ctx context.Context, flights []dbpkg.Flight) (int64, error)
}

type InsightReader interface {
	ListInsights(ctx context.Context, since time.Time, category string) ([]dbpkg.Insight, error)
}

type StatsReader interface {
	Statistics(ctx context.Context) (*dbpkg.Statistics, error)
	QualityReport(ctx context.Context, now time.Time) (*dbpkg.QualityReport, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Purger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (dbpkg.PurgeResult, error)
}

type UserFinder interface {
	FindUser(ctx context.Context, username string) (*dbpkg.User, error)
}

type Collector interface {
	Collect(ctx context.Context) (*collector.Result, error)
}

type DashboardCache interface {
	GetDashboard(ctx context.Context, days int) ([]byte, bool, error)
	SetDashboard(ctx context.Context, days int, payload []byte) error
	InvalidateDashboard(ctx context.Context) error
}
