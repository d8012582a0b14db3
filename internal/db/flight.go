package db

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Column sizes of the text fields of Flight.
const (
	maxRouteLen        = 128
	maxPlaceLen        = 64
	maxAirlineLen      = 64
	maxFlightNumberLen = 16
	maxAircraftLen     = 64
	maxBookingClassLen = 32
	maxSourceLen       = 32
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFlight wraps every validation failure reported by Flight.Validate.
	ErrInvalidFlight = errors.New("invalid flight")
)

// Normalize trims the text fields, derives Route, truncates Date to the day
// and raises FlightCount to at least 1.
func (f *Flight) Normalize() {
	f.Origin = strings.TrimSpace(f.Origin)
	f.Destination = strings.TrimSpace(f.Destination)
	f.Airline = strings.TrimSpace(f.Airline)
	f.FlightNumber = strings.TrimSpace(f.FlightNumber)
	f.Route = RouteKey(f.Origin, f.Destination)
	if !f.Date.IsZero() {
		f.Date = Day(f.Date)
	}
	if f.FlightCount < 1 {
		f.FlightCount = 1
	}
	if f.BookingClass == "" {
		f.BookingClass = "Economy"
	}
}

// Validate checks the fields a flight must carry before it is stored.
func (f *Flight) Validate() error {
	switch {
	case f.Origin == "":
		return fmt.Errorf("%w: origin is required", ErrInvalidFlight)
	case f.Destination == "":
		return fmt.Errorf("%w: destination is required", ErrInvalidFlight)
	case f.Airline == "":
		return fmt.Errorf("%w: airline is required", ErrInvalidFlight)
	case f.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidFlight)
	case f.DemandScore < 0 || f.DemandScore > 1:
		return fmt.Errorf("%w: demand_score must be within [0,1]", ErrInvalidFlight)
	case f.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidFlight)
	}
	return f.checkLengths()
}

func (f *Flight) checkLengths() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"route", f.Route, maxRouteLen},
		{"origin", f.Origin, maxPlaceLen},
		{"destination", f.Destination, maxPlaceLen},
		{"airline", f.Airline, maxAirlineLen},
		{"flight_number", f.FlightNumber, maxFlightNumberLen},
		{"aircraft_type", f.AircraftType, maxAircraftLen},
		{"booking_class", f.BookingClass, maxBookingClassLen},
		{"source", f.Source, maxSourceLen},
	}
	for _, fl := range fields {
		if utf8.RuneCountInString(fl.value) > fl.max {
			return fmt.Errorf("%w: %s longer than %d characters", ErrInvalidFlight, fl.name, fl.max)
		}
	}
	return nil
}

// RouteKey builds the "ORIGIN-DEST" route identifier.
func RouteKey(origin, destination string) string {
	return origin + "-" + destination
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
