package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/valyala/fasthttp"

	"flightdash/internal/analytics"
	"flightdash/internal/charts"
	"flightdash/internal/config"
	dbpkg "flightdash/internal/db"
)

type dashboardData struct {
	analytics.Summary
	Insights    []analytics.Insight `json:"insights"`
	Charts      charts.Bundle       `json:"charts"`
	Days        int                 `json:"days"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// DashboardData returns the summary, live insights and chart bundle for
// the records collected in the last `days` days. Responses are cached per
// window; cache errors fall through to the database.
func DashboardData(flights FlightReader, cache DashboardCache, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		days, err := queryPositiveInt(ctx, "days", cfg.DashboardDays)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		if cache != nil {
			body, ok, err := cache.GetDashboard(ctx, days)
			if err != nil {
				log.Printf("warning: dashboard cache read: %v", err)
			} else if ok {
				ctx.Response.Header.Set("X-Cache", "HIT")
				ctx.SetContentType("application/json")
				ctx.SetBody(body)
				return
			}
		}

		at := now()
		records, err := flights.ListFlights(ctx, dbpkg.FlightFilter{Since: at.AddDate(0, 0, -days)})
		if err != nil {
			internalError(ctx, "failed to load flights", err)
			return
		}

		body, err := json.Marshal(map[string]any{
			"status": "success",
			"data": dashboardData{
				Summary:     analytics.Summarize(records).Rounded(),
				Insights:    analytics.GenerateInsights(records),
				Charts:      charts.Build(records),
				Days:        days,
				GeneratedAt: at,
			},
		})
		if err != nil {
			internalError(ctx, "failed to encode dashboard", err)
			return
		}

		if cache != nil {
			if err := cache.SetDashboard(ctx, days, body); err != nil {
				log.Printf("warning: dashboard cache write: %v", err)
			}
		}
		ctx.Response.Header.Set("X-Cache", "MISS")
		ctx.SetContentType("application/json")
		ctx.SetBody(body)
	}
}
