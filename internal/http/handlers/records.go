package handlers

import (
	"errors"
	"strconv"

	"github.com/valyala/fasthttp"

	"flightdash/internal/charts"
	dbpkg "flightdash/internal/db"
)

// FilterData returns the records matching the query filter together with
// charts built from them.
func FilterData(flights FlightReader) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		filter, err := parseFilter(ctx)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		records, err := flights.ListFlights(ctx, filter)
		if err != nil {
			internalError(ctx, "failed to filter flights", err)
			return
		}
		if records == nil {
			records = []dbpkg.Flight{}
		}

		success(ctx, map[string]any{
			"total_flights": len(records),
			"charts":        charts.Build(records),
			"filtered_data": records,
		})
	}
}

func FlightDetail(flights FlightGetter) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idStr, ok := ctx.UserValue("id").(string)
		if !ok {
			errResponse(ctx, fasthttp.StatusBadRequest, "id required")
			return
		}
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil || id == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid id")
			return
		}

		f, err := flights.GetFlight(ctx, uint(id))
		if err != nil {
			if errors.Is(err, dbpkg.ErrNotFound) {
				errResponse(ctx, fasthttp.StatusNotFound, "flight not found")
				return
			}
			internalError(ctx, "failed to load flight", err)
			return
		}
		success(ctx, f)
	}
}
