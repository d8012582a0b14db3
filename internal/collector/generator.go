package collector

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"flightdash/internal/db"
)

// ErrInvalidCount is returned by Generate for a non-positive count.
var ErrInvalidCount = errors.New("count must be positive")

type cityPair struct{ origin, destination string }

var cityPairs = []cityPair{
	{"Sydney", "Melbourne"}, {"Melbourne", "Brisbane"}, {"Brisbane", "Gold Coast"},
	{"Perth", "Adelaide"}, {"Sydney", "Brisbane"}, {"Melbourne", "Perth"},
	{"Adelaide", "Darwin"}, {"Canberra", "Sydney"}, {"Gold Coast", "Sydney"},
	{"Brisbane", "Cairns"}, {"Sydney", "Perth"}, {"Melbourne", "Adelaide"},
	{"Brisbane", "Darwin"}, {"Perth", "Darwin"}, {"Sydney", "Cairns"},
	{"Melbourne", "Gold Coast"}, {"Adelaide", "Brisbane"}, {"Canberra", "Melbourne"},
	{"Sydney", "Adelaide"}, {"Melbourne", "Darwin"}, {"Brisbane", "Perth"},
	{"Gold Coast", "Melbourne"}, {"Cairns", "Brisbane"}, {"Darwin", "Brisbane"},
	{"Perth", "Brisbane"}, {"Adelaide", "Perth"}, {"Sydney", "Darwin"},
	{"Melbourne", "Cairns"}, {"Canberra", "Brisbane"}, {"Hobart", "Melbourne"},
}

// Airlines are the carriers synthetic and scraped records are assigned to.
var Airlines = []string{
	"Qantas", "Virgin Australia", "Jetstar", "Tigerair Australia",
	"Regional Express", "Alliance Airlines", "Bonza",
}

var aircraftTypes = []string{"Boeing 737", "Airbus A320", "Boeing 787", "Airbus A330", "Embraer E190"}

var majorCities = map[string]bool{"Sydney": true, "Melbourne": true, "Brisbane": true, "Perth": true}

var durations = map[cityPair]int{
	{"Sydney", "Melbourne"}:    95,
	{"Melbourne", "Brisbane"}:  140,
	{"Brisbane", "Gold Coast"}: 45,
	{"Perth", "Adelaide"}:      135,
	{"Sydney", "Brisbane"}:     110,
	{"Melbourne", "Perth"}:     210,
	{"Adelaide", "Darwin"}:     165,
	{"Canberra", "Sydney"}:     45,
	{"Sydney", "Perth"}:        310,
	{"Brisbane", "Cairns"}:     140,
	{"Sydney", "Darwin"}:       260,
	{"Melbourne", "Darwin"}:    200,
}

var distances = map[cityPair]float64{
	{"Sydney", "Melbourne"}:    713,
	{"Melbourne", "Brisbane"}:  1374,
	{"Brisbane", "Gold Coast"}: 78,
	{"Perth", "Adelaide"}:      2130,
	{"Sydney", "Brisbane"}:     732,
	{"Melbourne", "Perth"}:     2721,
	{"Adelaide", "Darwin"}:     1530,
	{"Canberra", "Sydney"}:     248,
	{"Sydney", "Perth"}:        3278,
	{"Brisbane", "Cairns"}:     1388,
	{"Sydney", "Darwin"}:       3146,
	{"Melbourne", "Darwin"}:    3148,
}

// Generator produces synthetic flight records and prices externally
// sourced ones. It is safe for concurrent use.
type Generator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	now         func() time.Time
	horizonDays int
}

func NewGenerator(rng *rand.Rand, now func() time.Time, horizonDays int) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	if horizonDays < 1 {
		horizonDays = 1
	}
	return &Generator{rng: rng, now: now, horizonDays: horizonDays}
}

// Generate returns exactly count synthetic records spread over the
// generator's date horizon.
func (g *Generator) Generate(count int) ([]db.Flight, error) {
	if count <= 0 {
		return nil, fmt.Errorf("generate %d records: %w", count, ErrInvalidCount)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	today := db.Day(g.now())
	out := make([]db.Flight, 0, count)
	for i := 0; i < count; i++ {
		p := cityPairs[g.rng.Intn(len(cityPairs))]
		airline := Airlines[g.rng.Intn(len(Airlines))]
		date := today.AddDate(0, 0, g.rng.Intn(g.horizonDays))

		f := g.record(p.origin, p.destination, airline, date)
		f.FlightNumber = g.flightNumber(airline)
		f.AircraftType = aircraftTypes[g.rng.Intn(len(aircraftTypes))]
		f.Source = "synthetic"
		out = append(out, f)
	}
	return out, nil
}

// Price fills the pricing and scoring fields of f from its origin,
// destination and date. A zero date is replaced by today.
func (g *Generator) Price(f *db.Flight) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if f.Date.IsZero() {
		f.Date = db.Day(g.now())
	}
	priced := g.record(f.Origin, f.Destination, f.Airline, f.Date)
	f.Route = priced.Route
	f.Price = priced.Price
	f.DemandScore = priced.DemandScore
	f.FlightCount = priced.FlightCount
	f.DurationMin = priced.DurationMin
	f.DistanceKM = priced.DistanceKM
	f.Availability = priced.Availability
	f.BookingClass = priced.BookingClass
	if f.FlightNumber == "" {
		f.FlightNumber = g.flightNumber(f.Airline)
	}
}

// RandomAirline picks one of the known Australian carriers.
func (g *Generator) RandomAirline() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Airlines[g.rng.Intn(len(Airlines))]
}

// record must be called with g.mu held.
func (g *Generator) record(origin, destination, airline string, date time.Time) db.Flight {
	demand := g.demandScore(origin, destination, date)
	price := g.basePrice(origin, destination) * uniform(g.rng, 0.7, 1.4)

	return db.Flight{
		Route:        db.RouteKey(origin, destination),
		Origin:       origin,
		Destination:  destination,
		Airline:      airline,
		Price:        round(price, 2),
		Date:         db.Day(date),
		FlightCount:  g.flightCount(demand),
		DemandScore:  demand,
		DurationMin:  g.duration(origin, destination),
		DistanceKM:   g.distance(origin, destination),
		BookingClass: "Economy",
		Availability: 50 + g.rng.Intn(151),
	}
}

func (g *Generator) basePrice(origin, destination string) float64 {
	switch {
	case majorCities[origin] && majorCities[destination]:
		return uniform(g.rng, 150, 350)
	case majorCities[origin] || majorCities[destination]:
		return uniform(g.rng, 120, 280)
	default:
		return uniform(g.rng, 80, 200)
	}
}

func (g *Generator) demandScore(origin, destination string, date time.Time) float64 {
	d := 0.5
	if majorCities[origin] && majorCities[destination] {
		d += 0.2
	}
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		d += 0.1
	}
	switch date.Month() {
	case time.December, time.January, time.February, time.June, time.July:
		d += 0.15
	}
	d += uniform(g.rng, -0.1, 0.1)
	return round(math.Max(0.1, math.Min(0.9, d)), 2)
}

// flightCount maps demand onto 1..12 departures.
func (g *Generator) flightCount(demand float64) int {
	n := 1 + g.rng.Intn(4) + int(math.Round(demand*8))
	if n > 12 {
		n = 12
	}
	return n
}

func (g *Generator) duration(origin, destination string) int {
	if d, ok := durations[cityPair{origin, destination}]; ok {
		return d
	}
	if d, ok := durations[cityPair{destination, origin}]; ok {
		return d
	}
	return 60 + g.rng.Intn(241)
}

func (g *Generator) distance(origin, destination string) float64 {
	if d, ok := distances[cityPair{origin, destination}]; ok {
		return d
	}
	if d, ok := distances[cityPair{destination, origin}]; ok {
		return d
	}
	return round(uniform(g.rng, 200, 3500), 1)
}

func (g *Generator) flightNumber(airline string) string {
	prefix := strings.ToUpper(airline)
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return fmt.Sprintf("%s%d", prefix, 100+g.rng.Intn(900))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
