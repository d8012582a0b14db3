// Package report renders flight data for download: a CSV export of the
// filtered records and a one-page PDF market report.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"flightdash/internal/db"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{
	"id", "created_at", "route", "origin", "destination", "airline", "price", "date",
	"flight_count", "demand_score", "flight_number", "aircraft_type", "duration_min",
	"distance_km", "booking_class", "availability", "source",
}

// WriteCSV writes the header and one row per record. It returns the number
// of data rows written, which always equals len(records) on success.
func WriteCSV(w io.Writer, records []db.Flight) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	n := 0
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return n, fmt.Errorf("write csv row %d: %w", n, err)
		}
		n++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, nil
}

func row(r db.Flight) []string {
	return []string{
		strconv.FormatUint(uint64(r.ID), 10),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.Route,
		r.Origin,
		r.Destination,
		r.Airline,
		strconv.FormatFloat(r.Price, 'f', 2, 64),
		r.Date.Format("2006-01-02"),
		strconv.Itoa(r.FlightCount),
		strconv.FormatFloat(r.DemandScore, 'f', 2, 64),
		r.FlightNumber,
		r.AircraftType,
		strconv.Itoa(r.DurationMin),
		strconv.FormatFloat(r.DistanceKM, 'f', -1, 64),
		r.BookingClass,
		strconv.Itoa(r.Availability),
		r.Source,
	}
}

// Filename returns the download name for an export taken at t.
func Filename(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, t.UTC().Format("20060102_150405"), ext)
}
