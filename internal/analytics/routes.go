package analytics

import (
	"math"
	"sort"
	"time"

	"flightdash/internal/db"
)

// Status is the demand level of a route derived from its flight count.
type Status string

const (
	StatusLow    Status = "low"
	StatusMedium Status = "medium"
	StatusHigh   Status = "high"
)

// ClassifyStatus maps a route's total flight count onto a status:
// more than 50 is high, more than 20 is medium, anything else is low.
func ClassifyStatus(flightCount int) Status {
	switch {
	case flightCount > 50:
		return StatusHigh
	case flightCount > 20:
		return StatusMedium
	default:
		return StatusLow
	}
}

// ParseStatus reports whether s names a known status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusLow, StatusMedium, StatusHigh:
		return Status(s), true
	}
	return "", false
}

// Competition labels a route by the number of distinct airlines serving it.
func Competition(airlines int) string {
	switch {
	case airlines >= 3:
		return "high"
	case airlines == 2:
		return "medium"
	default:
		return "monopoly"
	}
}

const trendThreshold = 0.05

// PriceTrend compares a current average price with a previous one.
func PriceTrend(current, previous float64) string {
	if previous <= 0 {
		return "stable"
	}
	change := (current - previous) / previous
	switch {
	case change > trendThreshold:
		return "increasing"
	case change < -trendThreshold:
		return "decreasing"
	default:
		return "stable"
	}
}

// RouteSummary is the per-route aggregate shown on the routes page.
type RouteSummary struct {
	Route          string  `json:"route"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	FlightCount    int     `json:"flight_count"`
	RecordCount    int     `json:"record_count"`
	AveragePrice   float64 `json:"average_price"`
	MinPrice       float64 `json:"min_price"`
	MaxPrice       float64 `json:"max_price"`
	DemandScore    float64 `json:"demand_score"`
	AirlineCount   int     `json:"airline_count"`
	Competition    string  `json:"competition"`
	Status         Status  `json:"status"`
	PriceTrend     string  `json:"price_trend"`
	PopularityRank int     `json:"popularity_rank"`
}

// RouteSummaries groups records by route, sorted by flight count
// descending and then by route name. snapshots may be nil.
func RouteSummaries(records []db.Flight, snapshots map[string]db.RouteAnalysis) []RouteSummary {
	type acc struct {
		sum       RouteSummary
		priceSum  float64
		demandSum float64
		airlines  map[string]struct{}
	}
	groups := map[string]*acc{}
	for _, r := range records {
		a, ok := groups[r.Route]
		if !ok {
			a = &acc{
				sum: RouteSummary{
					Route:       r.Route,
					Origin:      r.Origin,
					Destination: r.Destination,
					MinPrice:    r.Price,
					MaxPrice:    r.Price,
				},
				airlines: map[string]struct{}{},
			}
			groups[r.Route] = a
		}
		a.sum.FlightCount += flightCount(r)
		a.sum.RecordCount++
		a.sum.MinPrice = math.Min(a.sum.MinPrice, r.Price)
		a.sum.MaxPrice = math.Max(a.sum.MaxPrice, r.Price)
		a.priceSum += r.Price
		a.demandSum += r.DemandScore
		a.airlines[r.Airline] = struct{}{}
	}

	out := make([]RouteSummary, 0, len(groups))
	for _, a := range groups {
		s := a.sum
		n := float64(s.RecordCount)
		s.AveragePrice = a.priceSum / n
		s.DemandScore = a.demandSum / n
		s.AirlineCount = len(a.airlines)
		s.Competition = Competition(s.AirlineCount)
		s.Status = ClassifyStatus(s.FlightCount)
		s.PriceTrend = "stable"
		if snap, ok := snapshots[s.Route]; ok {
			s.PriceTrend = PriceTrend(s.AveragePrice, snap.AvgPrice)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FlightCount != out[j].FlightCount {
			return out[i].FlightCount > out[j].FlightCount
		}
		return out[i].Route < out[j].Route
	})
	for i := range out {
		out[i].PopularityRank = i + 1
	}
	return out
}

// FilterByStatus keeps the summaries with the given status.
func FilterByStatus(routes []RouteSummary, status Status) []RouteSummary {
	out := make([]RouteSummary, 0, len(routes))
	for _, r := range routes {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Rounded returns a copy with prices and demand rounded to two places.
func (s RouteSummary) Rounded() RouteSummary {
	s.AveragePrice = Round2(s.AveragePrice)
	s.MinPrice = Round2(s.MinPrice)
	s.MaxPrice = Round2(s.MaxPrice)
	s.DemandScore = Round2(s.DemandScore)
	return s
}

// Snapshots converts the route summaries of records into snapshot rows
// stamped with at. It matches db.SnapshotFunc.
func Snapshots(records []db.Flight, at time.Time) []db.RouteAnalysis {
	routes := RouteSummaries(records, nil)
	out := make([]db.RouteAnalysis, 0, len(routes))
	for _, r := range routes {
		out = append(out, db.RouteAnalysis{
			Route:          r.Route,
			Origin:         r.Origin,
			Destination:    r.Destination,
			AvgPrice:       Round2(r.AveragePrice),
			MinPrice:       r.MinPrice,
			MaxPrice:       r.MaxPrice,
			FlightCount:    r.FlightCount,
			DemandScore:    Round2(r.DemandScore),
			PopularityRank: r.PopularityRank,
			Competition:    r.Competition,
			Status:         string(r.Status),
			SnapshotAt:     at,
		})
	}
	return out
}
