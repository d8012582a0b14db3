package db

import (
	"time"

	"gorm.io/datatypes"
)

// Flight is one row of flight/pricing data. Rows are never updated after
// insert; the retention worker deletes them once CreatedAt falls outside the
// configured window.
type Flight struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Route is always Origin + "-" + Destination.
	Route       string `gorm:"size:128;not null;index;uniqueIndex:idx_flight_natural,priority:1" json:"route"`
	Origin      string `gorm:"size:64;not null;index" json:"origin"`
	Destination string `gorm:"size:64;not null;index" json:"destination"`
	Airline     string `gorm:"size:64;not null;index;uniqueIndex:idx_flight_natural,priority:2" json:"airline"`

	Price float64 `gorm:"not null;index" json:"price"`

	// Date is the travel day (midnight UTC).
	Date time.Time `gorm:"type:date;not null;index;uniqueIndex:idx_flight_natural,priority:3" json:"date"`

	// FlightCount is the number of departures this row stands for.
	FlightCount int     `gorm:"not null;default:1" json:"flight_count"`
	DemandScore float64 `gorm:"not null" json:"demand_score"`

	FlightNumber string  `gorm:"size:16;uniqueIndex:idx_flight_natural,priority:4" json:"flight_number"`
	AircraftType string  `gorm:"size:64" json:"aircraft_type"`
	DurationMin  int     `json:"duration_min"`
	DistanceKM   float64 `json:"distance_km"`
	BookingClass string  `gorm:"size:32;default:Economy" json:"booking_class"`
	Availability int     `json:"availability"`

	// Source names where the row came from: aviationstack, scrape, synthetic or import.
	Source string `gorm:"size:32;index" json:"source"`
}

// Insight is a persisted market insight produced after each collection.
type Insight struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Type        string  `gorm:"size:64;not null;index" json:"type"`
	Description string  `gorm:"not null" json:"description"`
	Value       float64 `json:"value"`
	Trend       string  `gorm:"size:32" json:"trend"`
	Confidence  float64 `gorm:"not null" json:"confidence"`
	Category    string  `gorm:"size:32;index;default:general" json:"category"`
	Severity    string  `gorm:"size:16;default:medium" json:"severity"`
	Actionable  bool    `gorm:"not null" json:"actionable"`
}

// RouteAnalysis is the latest hourly snapshot for a route. One row per
// route, overwritten by the snapshot worker; route summaries compare against
// it to derive a price trend.
type RouteAnalysis struct {
	ID uint `gorm:"primaryKey"`

	Route       string `gorm:"size:128;uniqueIndex;not null"`
	Origin      string `gorm:"size:64"`
	Destination string `gorm:"size:64"`

	AvgPrice       float64 `gorm:"not null"`
	MinPrice       float64 `gorm:"not null"`
	MaxPrice       float64 `gorm:"not null"`
	FlightCount    int     `gorm:"not null"`
	DemandScore    float64 `gorm:"not null"`
	PopularityRank int
	Competition    string `gorm:"size:16"`
	Status         string `gorm:"size:16"`

	SnapshotAt time.Time `gorm:"index;not null"`
}

// CollectionRun records one execution of the collector.
type CollectionRun struct {
	ID uint `gorm:"primaryKey"`

	RunID      string    `gorm:"size:36;uniqueIndex;not null"`
	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time

	Status   string `gorm:"size:16;not null"` // success, partial
	Total    int
	Saved    int64
	Insights int

	Sources  datatypes.JSON
	Errors   datatypes.JSON
	Warnings datatypes.JSON
}
