package db

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Statistics describes what the store currently holds.
type Statistics struct {
	TotalFlights    int64            `json:"total_flights"`
	TotalRoutes     int64            `json:"total_routes"`
	TotalAirlines   int64            `json:"total_airlines"`
	TotalInsights   int64            `json:"total_insights"`
	TotalRuns       int64            `json:"total_collection_runs"`
	EarliestDate    *time.Time       `json:"earliest_date,omitempty"`
	LatestDate      *time.Time       `json:"latest_date,omitempty"`
	LastCollection  *time.Time       `json:"last_collection,omitempty"`
	FlightsBySource map[string]int64 `json:"flights_by_source"`
}

// QualityReport counts records with missing or suspicious fields.
type QualityReport struct {
	TotalRecords        int64    `json:"total_records"`
	MissingFlightNumber int64    `json:"missing_flight_number"`
	MissingAircraft     int64    `json:"missing_aircraft_type"`
	ZeroPrice           int64    `json:"zero_price"`
	DemandOutOfRange    int64    `json:"demand_out_of_range"`
	PastDates           int64    `json:"past_dates"`
	CompletenessScore   float64  `json:"completeness_score"`
	Issues              []string `json:"issues"`
}

func (s *Store) Statistics(ctx context.Context) (*Statistics, error) {
	db := s.db.WithContext(ctx)
	st := &Statistics{FlightsBySource: map[string]int64{}}

	if err := db.Model(&Flight{}).Count(&st.TotalFlights).Error; err != nil {
		return nil, fmt.Errorf("count flights: %w", err)
	}
	if err := db.Model(&Flight{}).Distinct("route").Count(&st.TotalRoutes).Error; err != nil {
		return nil, fmt.Errorf("count routes: %w", err)
	}
	if err := db.Model(&Flight{}).Distinct("airline").Count(&st.TotalAirlines).Error; err != nil {
		return nil, fmt.Errorf("count airlines: %w", err)
	}
	if err := db.Model(&Insight{}).Count(&st.TotalInsights).Error; err != nil {
		return nil, fmt.Errorf("count insights: %w", err)
	}
	if err := db.Model(&CollectionRun{}).Count(&st.TotalRuns).Error; err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	var first, last Flight
	if err := db.Order("date ASC, id ASC").Limit(1).Find(&first).Error; err != nil {
		return nil, fmt.Errorf("earliest date: %w", err)
	}
	if err := db.Order("date DESC, id DESC").Limit(1).Find(&last).Error; err != nil {
		return nil, fmt.Errorf("latest date: %w", err)
	}
	if first.ID != 0 {
		st.EarliestDate, st.LatestDate = &first.Date, &last.Date
	}

	if run, err := s.LatestRun(ctx); err == nil {
		t := run.FinishedAt
		st.LastCollection = &t
	}

	var bySource []struct {
		Source string
		Count  int64
	}
	if err := db.Model(&Flight{}).Select("source, COUNT(*) AS count").Group("source").Scan(&bySource).Error; err != nil {
		return nil, fmt.Errorf("flights by source: %w", err)
	}
	for _, r := range bySource {
		st.FlightsBySource[r.Source] = r.Count
	}
	return st, nil
}

func (s *Store) QualityReport(ctx context.Context, now time.Time) (*QualityReport, error) {
	db := s.db.WithContext(ctx)
	r := &QualityReport{}

	counts := []struct {
		dst   *int64
		where string
		args  []any
	}{
		{&r.TotalRecords, "1 = 1", nil},
		{&r.MissingFlightNumber, "flight_number IS NULL OR flight_number = ''", nil},
		{&r.MissingAircraft, "aircraft_type IS NULL OR aircraft_type = ''", nil},
		{&r.ZeroPrice, "price <= 0", nil},
		{&r.DemandOutOfRange, "demand_score < 0 OR demand_score > 1", nil},
		{&r.PastDates, "date < ?", []any{Day(now)}},
	}
	for _, c := range counts {
		if err := db.Model(&Flight{}).Where(c.where, c.args...).Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("quality report: %w", err)
		}
	}
	r.finish()
	return r, nil
}

// finish derives the completeness score and the issue list from the counts.
// The score is the share of checked fields that passed, as a percentage.
func (r *QualityReport) finish() {
	r.Issues = []string{}
	if r.TotalRecords == 0 {
		r.CompletenessScore = 0
		r.Issues = append(r.Issues, "no flight records stored")
		return
	}

	failed := r.MissingFlightNumber + r.MissingAircraft + r.ZeroPrice + r.DemandOutOfRange
	checked := r.TotalRecords * 4
	r.CompletenessScore = math.Round(float64(checked-failed)/float64(checked)*10000) / 100

	if r.MissingFlightNumber > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%d records without flight number", r.MissingFlightNumber))
	}
	if r.MissingAircraft > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%d records without aircraft type", r.MissingAircraft))
	}
	if r.ZeroPrice > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%d records with zero price", r.ZeroPrice))
	}
	if r.DemandOutOfRange > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%d records with demand score outside [0,1]", r.DemandOutOfRange))
	}
	if r.PastDates > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("%d records for dates already past", r.PastDates))
	}
}
