package analytics

import (
	"fmt"
	"sort"
	"time"

	"flightdash/internal/db"
)

const (
	CategoryPrice       = "price"
	CategoryDemand      = "demand"
	CategoryRoute       = "route"
	CategoryAirline     = "airline"
	CategorySeasonal    = "seasonal"
	CategoryCompetition = "competition"
)

// Categories lists every insight category in display order.
var Categories = []string{
	CategoryPrice, CategoryDemand, CategoryRoute,
	CategoryAirline, CategorySeasonal, CategoryCompetition,
}

const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
	TrendVolatile   = "volatile"
)

type Insight struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Trend       string  `json:"trend"`
	Confidence  float64 `json:"confidence"`
	Category    string  `json:"category"`
	Severity    string  `json:"severity"`
	Actionable  bool    `json:"actionable"`
}

// Model converts the insight into its stored form.
func (i Insight) Model(at time.Time) db.Insight {
	return db.Insight{
		CreatedAt:   at,
		Type:        i.Type,
		Description: i.Description,
		Value:       i.Value,
		Trend:       i.Trend,
		Confidence:  i.Confidence,
		Category:    i.Category,
		Severity:    i.Severity,
		Actionable:  i.Actionable,
	}
}

// FromModels converts stored insights back into Insight values.
func FromModels(rows []db.Insight) []Insight {
	out := make([]Insight, 0, len(rows))
	for _, r := range rows {
		out = append(out, Insight{
			Type:        r.Type,
			Description: r.Description,
			Value:       r.Value,
			Trend:       r.Trend,
			Confidence:  r.Confidence,
			Category:    r.Category,
			Severity:    r.Severity,
			Actionable:  r.Actionable,
		})
	}
	return out
}

func newInsight(typ, category, trend string, value, confidence float64, desc string) Insight {
	return Insight{
		Type:        typ,
		Description: desc,
		Value:       value,
		Trend:       trend,
		Confidence:  confidence,
		Category:    category,
		Severity:    "medium",
		Actionable:  true,
	}
}

// GenerateInsights applies the market rules to records. The result is
// empty for empty input.
func GenerateInsights(records []db.Flight) []Insight {
	if len(records) == 0 {
		return []Insight{}
	}
	var out []Insight
	out = append(out, priceInsights(records)...)
	out = append(out, demandInsights(records)...)
	out = append(out, routeInsights(records)...)
	out = append(out, airlineInsights(records)...)
	out = append(out, seasonalInsights(records)...)
	out = append(out, competitionInsights(records)...)
	return out
}

func prices(records []db.Flight) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Price
	}
	return out
}

func priceInsights(records []db.Flight) []Insight {
	ps := prices(records)
	avg := mean(ps)
	var volatility float64
	if avg > 0 {
		volatility = stddev(ps) / avg
	}

	level, trend, severity := "low", TrendStable, "medium"
	switch {
	case volatility > 0.3:
		level, trend, severity = "high", TrendVolatile, "high"
	case volatility > 0.15:
		level = "moderate"
	}
	vi := newInsight("Price Volatility", CategoryPrice, trend, volatility, 0.85,
		fmt.Sprintf("Market shows %s price volatility at %.1f%%", level, volatility*100))
	vi.Severity = severity
	out := []Insight{vi}

	segments := []struct {
		name   string
		lo, hi float64
	}{
		{"Budget", 0, 150},
		{"Mid-range", 150, 300},
		{"Premium", 300, -1},
	}
	for _, seg := range segments {
		n := 0
		for _, p := range ps {
			if p >= seg.lo && (seg.hi < 0 || p < seg.hi) {
				n++
			}
		}
		pct := float64(n) / float64(len(ps)) * 100
		if pct > 40 {
			out = append(out, newInsight("Price Segment", CategoryPrice, TrendStable, pct, 0.9,
				fmt.Sprintf("%s flights dominate the market at %.1f%%", seg.name, pct)))
		}
	}
	return out
}

func demandInsights(records []db.Flight) []Insight {
	demand := make([]float64, len(records))
	var availability []float64
	for i, r := range records {
		demand[i] = r.DemandScore
		availability = append(availability, float64(r.Availability))
	}
	avg := mean(demand)

	level, severity := "low", "medium"
	switch {
	case avg > 0.8:
		level, severity = "very high", "high"
	case avg > 0.6:
		level, severity = "high", "high"
	case avg > 0.4:
		level = "medium"
	}
	overall := newInsight("Overall Demand", CategoryDemand, TrendStable, avg, 0.9,
		fmt.Sprintf("Market demand is %s with an average score of %.2f", level, avg))
	overall.Severity = severity
	out := []Insight{overall}

	avgAvail := mean(availability)
	if avgAvail > 0 {
		constrained := map[string]struct{}{}
		for _, r := range records {
			if float64(r.Availability) < avgAvail*0.8 {
				constrained[r.Route] = struct{}{}
			}
		}
		if len(constrained) > 0 {
			c := newInsight("Capacity Constraint", CategoryDemand, TrendDecreasing, float64(len(constrained)), 0.8,
				fmt.Sprintf("%d routes showing capacity constraints", len(constrained)))
			c.Severity = "high"
			out = append(out, c)
		}
	}
	return out
}

func routeInsights(records []db.Flight) []Insight {
	var out []Insight
	s := Summarize(records)
	if s.PopularRoute != "" {
		out = append(out, newInsight("Most Popular Route", CategoryRoute, TrendIncreasing, float64(s.PopularRouteFlights), 0.95,
			fmt.Sprintf("Route '%s' is most popular with %d flights", s.PopularRoute, s.PopularRouteFlights)))
	}

	value := 0
	for _, r := range RouteSummaries(records, nil) {
		if r.DemandScore > 0.6 && r.AveragePrice < s.AveragePrice {
			value++
		}
	}
	if value > 0 {
		out = append(out, newInsight("Value Routes", CategoryRoute, TrendStable, float64(value), 0.8,
			fmt.Sprintf("Found %d routes with high demand but competitive pricing", value)))
	}
	return out
}

func airlineInsights(records []db.Flight) []Insight {
	shares := AirlineShares(records)
	if len(shares) == 0 {
		return nil
	}
	leader := shares[0]
	out := []Insight{newInsight("Market Leader", CategoryAirline, TrendStable, leader.Percent, 0.95,
		fmt.Sprintf("%s leads the market with %.1f%% market share", leader.Airline, leader.Percent))}

	var top3 float64
	for i := 0; i < len(shares) && i < 3; i++ {
		top3 += shares[i].Percent
	}
	c := newInsight("Market Concentration", CategoryAirline, TrendStable, top3, 0.9,
		fmt.Sprintf("Top 3 airlines control %.1f%% of the market", top3))
	if top3 > 70 {
		c.Severity = "high"
	}
	return append(out, c)
}

func seasonalInsights(records []db.Flight) []Insight {
	var out []Insight
	months := MonthlyDemand(records)
	if len(months) > 0 {
		peak := months[0]
		for _, m := range months[1:] {
			if m.AvgDemand > peak.AvgDemand {
				peak = m
			}
		}
		out = append(out, newInsight("Peak Demand Month", CategorySeasonal, TrendIncreasing, peak.AvgDemand, 0.8,
			fmt.Sprintf("%s shows highest demand with score %.2f", peak.Label, peak.AvgDemand)))
	}

	var weekend, weekday []float64
	for _, r := range records {
		if wd := r.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend = append(weekend, r.DemandScore)
		} else {
			weekday = append(weekday, r.DemandScore)
		}
	}
	if len(weekend) > 0 && len(weekday) > 0 {
		we, wd := mean(weekend), mean(weekday)
		if wd > 0 && we > wd*1.1 {
			out = append(out, newInsight("Weekend Premium", CategorySeasonal, TrendIncreasing, we/wd, 0.85,
				fmt.Sprintf("Weekend flights show %.1f%% higher demand", (we/wd-1)*100)))
		}
	}
	return out
}

func competitionInsights(records []db.Flight) []Insight {
	var competitive, monopoly int
	for _, r := range RouteSummaries(records, nil) {
		switch {
		case r.AirlineCount >= 3:
			competitive++
		case r.AirlineCount == 1:
			monopoly++
		}
	}
	var out []Insight
	if competitive > 0 {
		out = append(out, newInsight("Competitive Routes", CategoryCompetition, TrendIncreasing, float64(competitive), 0.9,
			fmt.Sprintf("%d routes have 3+ airlines competing", competitive)))
	}
	if monopoly > 0 {
		m := newInsight("Monopolistic Routes", CategoryCompetition, TrendStable, float64(monopoly), 0.9,
			fmt.Sprintf("%d routes served by single airline", monopoly))
		m.Severity = "high"
		out = append(out, m)
	}
	return out
}

// FilterByCategory keeps insights of one category.
func FilterByCategory(insights []Insight, category string) []Insight {
	out := make([]Insight, 0, len(insights))
	for _, i := range insights {
		if i.Category == category {
			out = append(out, i)
		}
	}
	return out
}

type Finding struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Report summarizes a set of insights.
type Report struct {
	TotalInsights        int            `json:"total_insights"`
	Categories           map[string]int `json:"categories"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
	ActionableInsights   int            `json:"actionable_insights"`
	KeyFindings          []Finding      `json:"key_findings"`
	Recommendations      []string       `json:"recommendations"`
}

// BuildReport counts insights per category and severity, lists findings
// with confidence above 0.8 and derives recommendations.
func BuildReport(insights []Insight) Report {
	r := Report{
		TotalInsights:        len(insights),
		Categories:           map[string]int{},
		SeverityDistribution: map[string]int{"high": 0, "medium": 0, "low": 0},
		KeyFindings:          []Finding{},
	}
	for _, i := range insights {
		r.Categories[i.Category]++
		r.SeverityDistribution[i.Severity]++
		if i.Actionable {
			r.ActionableInsights++
		}
		if i.Confidence > 0.8 {
			r.KeyFindings = append(r.KeyFindings, Finding{Type: i.Type, Description: i.Description, Confidence: i.Confidence})
		}
	}
	sort.SliceStable(r.KeyFindings, func(a, b int) bool {
		return r.KeyFindings[a].Confidence > r.KeyFindings[b].Confidence
	})
	r.Recommendations = recommendations(insights)
	return r
}

func recommendations(insights []Insight) []string {
	has := func(typ string, pred func(Insight) bool) bool {
		for _, i := range insights {
			if i.Type == typ && (pred == nil || pred(i)) {
				return true
			}
		}
		return false
	}

	out := []string{}
	if has("Price Volatility", func(i Insight) bool { return i.Value > 0.3 }) {
		out = append(out, "Consider dynamic pricing strategies to capitalize on price volatility")
	}
	if has("Overall Demand", func(i Insight) bool { return i.Value > 0.7 }) {
		out = append(out, "Increase capacity on high-demand routes to capture market share")
	}
	if has("Value Routes", nil) {
		out = append(out, "Focus marketing efforts on value routes with high demand and competitive pricing")
	}
	if has("Monopolistic Routes", nil) {
		out = append(out, "Explore opportunities on monopolistic routes for potential market entry")
	}
	if has("Capacity Constraint", nil) {
		out = append(out, "Review seat allocation on routes with constrained availability")
	}
	return out
}
