// Package analytics computes aggregates over flight records: the dashboard
// summary, per-route summaries, time series and rule-based market insights.
// Every function accepts an empty slice and returns zero values for it.
package analytics

import (
	"math"

	"flightdash/internal/db"
)

// Summary is the headline block of the dashboard.
type Summary struct {
	TotalRecords        int     `json:"total_records"`
	TotalFlights        int     `json:"total_flights"`
	TotalRoutes         int     `json:"total_routes"`
	TotalAirlines       int     `json:"total_airlines"`
	AveragePrice        float64 `json:"avg_price"`
	AverageDemand       float64 `json:"avg_demand"`
	AvgFlightsPerRoute  float64 `json:"avg_flights_per_route"`
	MinPrice            float64 `json:"min_price"`
	MaxPrice            float64 `json:"max_price"`
	PopularRoute        string  `json:"popular_route"`
	PopularRouteFlights int     `json:"popular_route_flights"`
}

// Summarize reduces records to a Summary. Averages are exact arithmetic
// means; use Rounded for display.
func Summarize(records []db.Flight) Summary {
	var s Summary
	if len(records) == 0 {
		return s
	}

	routes := map[string]int{}
	airlines := map[string]struct{}{}
	var priceSum, demandSum float64
	s.MinPrice = records[0].Price
	s.MaxPrice = records[0].Price

	for _, r := range records {
		s.TotalFlights += flightCount(r)
		routes[r.Route] += flightCount(r)
		airlines[r.Airline] = struct{}{}
		priceSum += r.Price
		demandSum += r.DemandScore
		s.MinPrice = math.Min(s.MinPrice, r.Price)
		s.MaxPrice = math.Max(s.MaxPrice, r.Price)
	}

	n := float64(len(records))
	s.TotalRecords = len(records)
	s.TotalRoutes = len(routes)
	s.TotalAirlines = len(airlines)
	s.AveragePrice = priceSum / n
	s.AverageDemand = demandSum / n
	s.AvgFlightsPerRoute = float64(s.TotalFlights) / float64(len(routes))

	for route, count := range routes {
		if count > s.PopularRouteFlights || (count == s.PopularRouteFlights && route < s.PopularRoute) {
			s.PopularRoute = route
			s.PopularRouteFlights = count
		}
	}
	return s
}

// Rounded returns a copy with monetary and score fields rounded to two places.
func (s Summary) Rounded() Summary {
	s.AveragePrice = Round2(s.AveragePrice)
	s.AverageDemand = Round2(s.AverageDemand)
	s.AvgFlightsPerRoute = Round2(s.AvgFlightsPerRoute)
	s.MinPrice = Round2(s.MinPrice)
	s.MaxPrice = Round2(s.MaxPrice)
	return s
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// flightCount treats stored counts below one as a single departure.
func flightCount(r db.Flight) int {
	if r.FlightCount < 1 {
		return 1
	}
	return r.FlightCount
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// stddev is the sample standard deviation; zero for fewer than two values.
func stddev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	m := mean(vs)
	var ss float64
	for _, v := range vs {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vs)-1))
}
