package handlers

import (
	"log"

	"github.com/valyala/fasthttp"

	"flightdash/internal/analytics"
	"flightdash/internal/config"
	dbpkg "flightdash/internal/db"
)

// RouteAnalysis returns ranked route summaries, optionally restricted to
// one route or one status.
func RouteAnalysis(flights FlightReader, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		days, err := queryPositiveInt(ctx, "days", cfg.DashboardDays)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		var status analytics.Status
		if s := queryString(ctx, "status"); s != "" {
			var ok bool
			if status, ok = analytics.ParseStatus(s); !ok {
				errResponse(ctx, fasthttp.StatusBadRequest, "status must be one of high, medium, low")
				return
			}
		}

		records, err := flights.ListFlights(ctx, dbpkg.FlightFilter{
			Since: now().AddDate(0, 0, -days),
			Route: queryString(ctx, "route"),
		})
		if err != nil {
			internalError(ctx, "failed to load flights", err)
			return
		}

		snapshots, err := flights.Snapshots(ctx)
		if err != nil {
			log.Printf("warning: load route snapshots: %v", err)
			snapshots = nil
		}

		routes := analytics.RouteSummaries(records, snapshots)
		if status != "" {
			routes = analytics.FilterByStatus(routes, status)
		}
		for i := range routes {
			routes[i] = routes[i].Rounded()
		}

		success(ctx, map[string]any{
			"routes":       routes,
			"total_routes": len(routes),
		})
	}
}
