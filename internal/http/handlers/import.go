package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"

	dbpkg "flightdash/internal/db"
)

type ImportFlight struct {
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	Airline      string  `json:"airline"`
	Price        float64 `json:"price"`
	Date         string  `json:"date"`
	FlightCount  int     `json:"flight_count"`
	DemandScore  float64 `json:"demand_score"`
	FlightNumber string  `json:"flight_number,omitempty"`
	AircraftType string  `json:"aircraft_type,omitempty"`
	DurationMin  int     `json:"duration_min,omitempty"`
	DistanceKM   float64 `json:"distance_km,omitempty"`
	BookingClass string  `json:"booking_class,omitempty"`
	Availability int     `json:"availability,omitempty"`
}

type importRequest struct {
	Flights []ImportFlight `json:"flights"`
}

type rejectedFlight struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

func (in ImportFlight) model() (dbpkg.Flight, error) {
	date, err := parseDay(in.Date)
	if err != nil {
		return dbpkg.Flight{}, fmt.Errorf("%w: date must be YYYY-MM-DD", dbpkg.ErrInvalidFlight)
	}
	f := dbpkg.Flight{
		Origin:       in.Origin,
		Destination:  in.Destination,
		Airline:      in.Airline,
		Price:        in.Price,
		Date:         date,
		FlightCount:  in.FlightCount,
		DemandScore:  in.DemandScore,
		FlightNumber: in.FlightNumber,
		AircraftType: in.AircraftType,
		DurationMin:  in.DurationMin,
		DistanceKM:   in.DistanceKM,
		BookingClass: in.BookingClass,
		Availability: in.Availability,
		Source:       "import",
	}
	f.Normalize()
	if err := f.Validate(); err != nil {
		return dbpkg.Flight{}, err
	}
	return f, nil
}

// ImportFlights stores externally supplied records. Invalid entries are
// reported back and skipped; the request fails only when none is valid.
func ImportFlights(flights FlightWriter, cache DashboardCache) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload importRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(payload.Flights) == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "no flights provided")
			return
		}

		records := make([]dbpkg.Flight, 0, len(payload.Flights))
		rejected := []rejectedFlight{}
		for i, in := range payload.Flights {
			f, err := in.model()
			if err != nil {
				rejected = append(rejected, rejectedFlight{Index: i, Error: err.Error()})
				continue
			}
			records = append(records, f)
		}

		if len(records) == 0 {
			jsonResponse(ctx, fasthttp.StatusBadRequest, map[string]any{
				"status":   "error",
				"message":  "no valid flights after validation",
				"rejected": rejected,
			})
			return
		}

		saved, err := flights.SaveFlights(ctx, records)
		if err != nil {
			internalError(ctx, "failed to persist flights", err)
			return
		}
		if saved > 0 {
			invalidate(ctx, cache)
		}

		jsonResponse(ctx, fasthttp.StatusAccepted, map[string]any{
			"status": "success",
			"data": map[string]any{
				"received": len(payload.Flights),
				"accepted": len(records),
				"saved":    saved,
				"rejected": rejected,
			},
		})
	}
}
