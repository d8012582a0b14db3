package analytics

import (
	"sort"
	"time"

	"flightdash/internal/db"
)

// Share is one airline's slice of the market, by record count.
type Share struct {
	Airline string  `json:"airline"`
	Records int     `json:"records"`
	Flights int     `json:"flights"`
	Percent float64 `json:"percent"`
}

// AirlineShares returns airlines ordered by record count, largest first.
func AirlineShares(records []db.Flight) []Share {
	idx := map[string]int{}
	var out []Share
	for _, r := range records {
		i, ok := idx[r.Airline]
		if !ok {
			i = len(out)
			idx[r.Airline] = i
			out = append(out, Share{Airline: r.Airline})
		}
		out[i].Records++
		out[i].Flights += flightCount(r)
	}
	for i := range out {
		out[i].Percent = float64(out[i].Records) / float64(len(records)) * 100
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Records != out[j].Records {
			return out[i].Records > out[j].Records
		}
		return out[i].Airline < out[j].Airline
	})
	return out
}

// Bin is one bucket of a histogram, covering [Start, End).
// The last bin also includes End.
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// PriceHistogram splits the price range into bins of equal width.
// When every price is identical a single bin is returned.
func PriceHistogram(records []db.Flight, bins int) []Bin {
	if len(records) == 0 || bins < 1 {
		return nil
	}
	lo, hi := records[0].Price, records[0].Price
	for _, r := range records {
		if r.Price < lo {
			lo = r.Price
		}
		if r.Price > hi {
			hi = r.Price
		}
	}
	if hi == lo {
		return []Bin{{Start: lo, End: hi, Count: len(records)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Start = lo + float64(i)*width
		out[i].End = lo + float64(i+1)*width
	}
	out[bins-1].End = hi
	for _, r := range records {
		i := int((r.Price - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// RouteValue pairs a route with one numeric measure.
type RouteValue struct {
	Route string  `json:"route"`
	Value float64 `json:"value"`
}

// RouteDemand returns the n routes with the highest average demand score.
func RouteDemand(records []db.Flight, n int) []RouteValue {
	scores := map[string][]float64{}
	for _, r := range records {
		scores[r.Route] = append(scores[r.Route], r.DemandScore)
	}
	out := make([]RouteValue, 0, len(scores))
	for route, vs := range scores {
		out = append(out, RouteValue{Route: route, Value: mean(vs)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Route < out[j].Route
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopRoutesByRecords returns the n routes with the most records.
func TopRoutesByRecords(records []db.Flight, n int) []string {
	counts := map[string]int{}
	for _, r := range records {
		counts[r.Route]++
	}
	routes := make([]string, 0, len(counts))
	for route := range counts {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool {
		if counts[routes[i]] != counts[routes[j]] {
			return counts[routes[i]] > counts[routes[j]]
		}
		return routes[i] < routes[j]
	})
	if n > 0 && len(routes) > n {
		routes = routes[:n]
	}
	return routes
}

type PricePoint struct {
	Date     string  `json:"date"`
	AvgPrice float64 `json:"avg_price"`
}

type TrendSeries struct {
	Route  string       `json:"route"`
	Points []PricePoint `json:"points"`
}

// PriceTrends returns the daily average price of each of routes, in the
// order given, with points sorted by date.
func PriceTrends(records []db.Flight, routes []string) []TrendSeries {
	wanted := map[string]map[string][]float64{}
	for _, route := range routes {
		wanted[route] = map[string][]float64{}
	}
	for _, r := range records {
		byDate, ok := wanted[r.Route]
		if !ok {
			continue
		}
		d := r.Date.Format("2006-01-02")
		byDate[d] = append(byDate[d], r.Price)
	}

	out := make([]TrendSeries, 0, len(routes))
	for _, route := range routes {
		byDate := wanted[route]
		dates := make([]string, 0, len(byDate))
		for d := range byDate {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		s := TrendSeries{Route: route, Points: make([]PricePoint, 0, len(dates))}
		for _, d := range dates {
			s.Points = append(s.Points, PricePoint{Date: d, AvgPrice: Round2(mean(byDate[d]))})
		}
		out = append(out, s)
	}
	return out
}

// PeriodDemand is the average demand for one month or weekday.
type PeriodDemand struct {
	Label     string  `json:"label"`
	AvgDemand float64 `json:"avg_demand"`
	AvgPrice  float64 `json:"avg_price"`
	Records   int     `json:"records"`
}

// MonthlyDemand returns one entry per calendar month present, January first.
func MonthlyDemand(records []db.Flight) []PeriodDemand {
	var demand, price [13][]float64
	for _, r := range records {
		m := r.Date.Month()
		demand[m] = append(demand[m], r.DemandScore)
		price[m] = append(price[m], r.Price)
	}
	var out []PeriodDemand
	for m := time.January; m <= time.December; m++ {
		if len(demand[m]) == 0 {
			continue
		}
		out = append(out, PeriodDemand{
			Label:     m.String()[:3],
			AvgDemand: mean(demand[m]),
			AvgPrice:  mean(price[m]),
			Records:   len(demand[m]),
		})
	}
	return out
}

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayDemand returns one entry per weekday present, Monday first.
func WeekdayDemand(records []db.Flight) []PeriodDemand {
	var demand, price [7][]float64
	for _, r := range records {
		d := r.Date.Weekday()
		demand[d] = append(demand[d], r.DemandScore)
		price[d] = append(price[d], r.Price)
	}
	var out []PeriodDemand
	for _, d := range weekOrder {
		if len(demand[d]) == 0 {
			continue
		}
		out = append(out, PeriodDemand{
			Label:     d.String(),
			AvgDemand: mean(demand[d]),
			AvgPrice:  mean(price[d]),
			Records:   len(demand[d]),
		})
	}
	return out
}

// UniqueDates counts the distinct travel days in records.
func UniqueDates(records []db.Flight) int {
	seen := map[string]struct{}{}
	for _, r := range records {
		seen[r.Date.Format("2006-01-02")] = struct{}{}
	}
	return len(seen)
}
