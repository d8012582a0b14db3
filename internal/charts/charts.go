// Package charts shapes flight aggregates into Plotly figure definitions.
// The browser passes each Chart straight to Plotly.newPlot.
package charts

import (
	"sort"

	"flightdash/internal/analytics"
	"flightdash/internal/db"
)

// Palette is cycled through for multi-series charts.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

var statusColors = map[analytics.Status]string{
	analytics.StatusHigh:   "#d62728",
	analytics.StatusMedium: "#ff7f0e",
	analytics.StatusLow:    "#2ca02c",
}

const (
	histogramBins = 30
	topDemand     = 10
	topTrends     = 5
	topPrices     = 10
)

type Bundle map[string]Chart

type Chart struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

type Trace struct {
	Type        string    `json:"type"`
	Name        string    `json:"name,omitempty"`
	X           any       `json:"x,omitempty"`
	Y           any       `json:"y,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	Values      []float64 `json:"values,omitempty"`
	Width       []float64 `json:"width,omitempty"`
	Orientation string    `json:"orientation,omitempty"`
	Mode        string    `json:"mode,omitempty"`
	Marker      *Marker   `json:"marker,omitempty"`
	ErrorY      *ErrorBar `json:"error_y,omitempty"`
}

type Marker struct {
	Color  any      `json:"color,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

type ErrorBar struct {
	Type       string    `json:"type"`
	Array      []float64 `json:"array"`
	ArrayMinus []float64 `json:"arrayminus"`
	Visible    bool      `json:"visible"`
}

type Text struct {
	Text string `json:"text"`
}

type Axis struct {
	Title      Text `json:"title"`
	AutoMargin bool `json:"automargin,omitempty"`
}

type Font struct {
	Color string `json:"color"`
}

type Layout struct {
	Title        Text    `json:"title"`
	XAxis        *Axis   `json:"xaxis,omitempty"`
	YAxis        *Axis   `json:"yaxis,omitempty"`
	PaperBGColor string  `json:"paper_bgcolor"`
	PlotBGColor  string  `json:"plot_bgcolor"`
	Font         Font    `json:"font"`
	ShowLegend   bool    `json:"showlegend"`
	BarGap       float64 `json:"bargap,omitempty"`
}

func layout(title, xTitle, yTitle string) Layout {
	l := Layout{
		Title:        Text{title},
		PaperBGColor: "#111111",
		PlotBGColor:  "#111111",
		Font:         Font{Color: "#f2f5fa"},
	}
	if xTitle != "" {
		l.XAxis = &Axis{Title: Text{xTitle}, AutoMargin: true}
	}
	if yTitle != "" {
		l.YAxis = &Axis{Title: Text{yTitle}, AutoMargin: true}
	}
	return l
}

func colors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = Palette[i%len(Palette)]
	}
	return out
}

// Build returns the dashboard charts for records. An empty input yields an
// empty bundle.
func Build(records []db.Flight) Bundle {
	b := Bundle{}
	if len(records) == 0 {
		return b
	}

	routes := analytics.RouteSummaries(records, nil)

	b["price_distribution"] = priceDistribution(records)
	b["route_demand"] = routeDemand(records)
	b["market_share"] = marketShare(records)
	b["route_status"] = routeStatus(routes)

	if analytics.UniqueDates(records) > 1 {
		b["price_trends"] = priceTrends(records)
	} else {
		b["price_by_route"] = priceByRoute(routes)
	}

	if months := analytics.MonthlyDemand(records); len(months) > 1 {
		b["seasonal_demand"] = periodDemand(months, "Seasonal Demand Patterns", "Month")
	} else {
		b["daily_demand"] = periodDemand(analytics.WeekdayDemand(records), "Demand Patterns by Day of Week", "Day of Week")
	}
	return b
}

func priceDistribution(records []db.Flight) Chart {
	bins := analytics.PriceHistogram(records, histogramBins)
	x := make([]float64, len(bins))
	y := make([]int, len(bins))
	w := make([]float64, len(bins))
	for i, bin := range bins {
		x[i] = analytics.Round2((bin.Start + bin.End) / 2)
		y[i] = bin.Count
		w[i] = bin.End - bin.Start
	}
	if len(bins) == 1 {
		w = nil
	}
	l := layout("Price Distribution", "Ticket Price ($)", "Count")
	l.BarGap = 0.05
	return Chart{
		Data:   []Trace{{Type: "bar", Name: "price", X: x, Y: y, Width: w, Marker: &Marker{Color: Palette[0]}}},
		Layout: l,
	}
}

func routeDemand(records []db.Flight) Chart {
	top := analytics.RouteDemand(records, topDemand)
	x := make([]float64, len(top))
	y := make([]string, len(top))
	for i, r := range top {
		x[i] = analytics.Round2(r.Value)
		y[i] = r.Route
	}
	return Chart{
		Data: []Trace{{
			Type: "bar", Orientation: "h", X: x, Y: y,
			Marker: &Marker{Color: colors(len(top))},
		}},
		Layout: layout("Top 10 Routes by Demand", "Average Demand Score", "Route"),
	}
}

func marketShare(records []db.Flight) Chart {
	shares := analytics.AirlineShares(records)
	labels := make([]string, len(shares))
	values := make([]float64, len(shares))
	for i, s := range shares {
		labels[i] = s.Airline
		values[i] = float64(s.Records)
	}
	l := layout("Airline Market Share", "", "")
	l.ShowLegend = true
	return Chart{
		Data:   []Trace{{Type: "pie", Labels: labels, Values: values, Marker: &Marker{Colors: colors(len(shares))}}},
		Layout: l,
	}
}

func routeStatus(routes []analytics.RouteSummary) Chart {
	x := make([]string, len(routes))
	y := make([]int, len(routes))
	c := make([]string, len(routes))
	for i, r := range routes {
		x[i] = r.Route
		y[i] = r.FlightCount
		c[i] = statusColors[r.Status]
	}
	return Chart{
		Data:   []Trace{{Type: "bar", X: x, Y: y, Marker: &Marker{Color: c}}},
		Layout: layout("Flights per Route by Status", "Route", "Flights"),
	}
}

func priceTrends(records []db.Flight) Chart {
	series := analytics.PriceTrends(records, analytics.TopRoutesByRecords(records, topTrends))
	traces := make([]Trace, 0, len(series))
	for i, s := range series {
		x := make([]string, len(s.Points))
		y := make([]float64, len(s.Points))
		for j, p := range s.Points {
			x[j] = p.Date
			y[j] = p.AvgPrice
		}
		traces = append(traces, Trace{
			Type: "scatter", Mode: "lines+markers", Name: s.Route, X: x, Y: y,
			Marker: &Marker{Color: Palette[i%len(Palette)]},
		})
	}
	l := layout("Price Trends for Top 5 Routes", "Date", "Average Price ($)")
	l.ShowLegend = true
	return Chart{Data: traces, Layout: l}
}

func priceByRoute(routes []analytics.RouteSummary) Chart {
	sorted := make([]analytics.RouteSummary, len(routes))
	copy(sorted, routes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AveragePrice > sorted[j].AveragePrice
	})
	if len(sorted) > topPrices {
		sorted = sorted[:topPrices]
	}

	x := make([]string, len(sorted))
	y := make([]float64, len(sorted))
	plus := make([]float64, len(sorted))
	minus := make([]float64, len(sorted))
	for i, r := range sorted {
		x[i] = r.Route
		y[i] = analytics.Round2(r.AveragePrice)
		plus[i] = analytics.Round2(r.MaxPrice - r.AveragePrice)
		minus[i] = analytics.Round2(r.AveragePrice - r.MinPrice)
	}
	return Chart{
		Data: []Trace{{
			Type: "bar", X: x, Y: y,
			Marker: &Marker{Color: colors(len(sorted))},
			ErrorY: &ErrorBar{Type: "data", Array: plus, ArrayMinus: minus, Visible: true},
		}},
		Layout: layout("Average Prices by Route (Top 10)", "Route", "Average Price ($)"),
	}
}

func periodDemand(periods []analytics.PeriodDemand, title, xTitle string) Chart {
	x := make([]string, len(periods))
	y := make([]float64, len(periods))
	for i, p := range periods {
		x[i] = p.Label
		y[i] = analytics.Round2(p.AvgDemand)
	}
	return Chart{
		Data:   []Trace{{Type: "bar", X: x, Y: y, Marker: &Marker{Color: colors(len(periods))}}},
		Layout: layout(title, xTitle, "Average Demand Score"),
	}
}
