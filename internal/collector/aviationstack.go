package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flightdash/internal/db"
)

// AviationStack fetches scheduled flights from the AviationStack API and
// prices them with the generator's rules.
type AviationStack struct {
	fetcher *Fetcher
	gen     *Generator
	baseURL string
	apiKey  string
	limit   int
}

func NewAviationStack(f *Fetcher, gen *Generator, baseURL, apiKey string, limit int) *AviationStack {
	return &AviationStack{
		fetcher: f,
		gen:     gen,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limit:   limit,
	}
}

func (a *AviationStack) Name() string { return "aviationstack" }

func (a *AviationStack) Fetch(ctx context.Context) ([]db.Flight, error) {
	q := url.Values{}
	q.Set("access_key", a.apiKey)
	q.Set("limit", strconv.Itoa(a.limit))
	q.Set("flight_status", "scheduled")

	body, err := a.fetcher.Get(ctx, a.baseURL+"/flights?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return parseAviationStack(body, a.gen)
}

type avsResponse struct {
	Data  []avsFlight `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type avsFlight struct {
	Flight struct {
		Number string `json:"number"`
		IATA   string `json:"iata"`
	} `json:"flight"`
	Airline struct {
		Name string `json:"name"`
	} `json:"airline"`
	Departure avsEndpoint `json:"departure"`
	Arrival   avsEndpoint `json:"arrival"`
	Aircraft  *struct {
		IATA string `json:"iata"`
	} `json:"aircraft"`
}

type avsEndpoint struct {
	Airport   string `json:"airport"`
	Scheduled string `json:"scheduled"`
}

// parseAviationStack converts an API response into priced flights. Entries
// without an airline or either airport are skipped.
func parseAviationStack(body []byte, gen *Generator) ([]db.Flight, error) {
	var resp avsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode aviationstack response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("aviationstack error %s: %s", resp.Error.Code, resp.Error.Message)
	}

	out := make([]db.Flight, 0, len(resp.Data))
	for _, item := range resp.Data {
		origin := strings.TrimSpace(item.Departure.Airport)
		dest := strings.TrimSpace(item.Arrival.Airport)
		airline := strings.TrimSpace(item.Airline.Name)
		if origin == "" || dest == "" || airline == "" {
			continue
		}

		f := db.Flight{
			Origin:       origin,
			Destination:  dest,
			Airline:      airline,
			FlightNumber: item.Flight.IATA,
			AircraftType: "N/A",
			Source:       "aviationstack",
		}
		if f.FlightNumber == "" {
			f.FlightNumber = item.Flight.Number
		}
		if item.Aircraft != nil && item.Aircraft.IATA != "" {
			f.AircraftType = item.Aircraft.IATA
		}
		if t, err := time.Parse(time.RFC3339, item.Departure.Scheduled); err == nil {
			f.Date = db.Day(t)
		}
		gen.Price(&f)
		out = append(out, f)
	}
	return out, nil
}
