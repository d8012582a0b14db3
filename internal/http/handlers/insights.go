package handlers

import (
	"slices"

	"github.com/valyala/fasthttp"

	"flightdash/internal/analytics"
	"flightdash/internal/config"
	dbpkg "flightdash/internal/db"
)

// Insights returns the insights of the latest collection within the last
// `days` days with their report. When nothing has been stored yet they are
// generated from the records of the same window.
func Insights(insights InsightReader, flights FlightReader, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		category := queryString(ctx, "category")
		if category != "" && !slices.Contains(analytics.Categories, category) {
			errResponse(ctx, fasthttp.StatusBadRequest, "unknown insight category")
			return
		}
		days, err := queryPositiveInt(ctx, "days", cfg.DashboardDays)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		since := now().AddDate(0, 0, -days)

		rows, err := insights.ListInsights(ctx, since, category)
		if err != nil {
			internalError(ctx, "failed to load insights", err)
			return
		}

		source := "stored"
		list := analytics.FromModels(latestBatch(rows))
		if len(list) == 0 {
			records, err := flights.ListFlights(ctx, dbpkg.FlightFilter{Since: since})
			if err != nil {
				internalError(ctx, "failed to load flights", err)
				return
			}
			source = "live"
			list = analytics.GenerateInsights(records)
			if category != "" {
				list = analytics.FilterByCategory(list, category)
			}
		}

		success(ctx, map[string]any{
			"insights": list,
			"report":   analytics.BuildReport(list),
			"source":   source,
			"days":     days,
		})
	}
}

// latestBatch keeps the rows written by the most recent collection. Every
// insight of a run carries the run's start time, and rows arrive newest first.
func latestBatch(rows []dbpkg.Insight) []dbpkg.Insight {
	for i := range rows {
		if !rows[i].CreatedAt.Equal(rows[0].CreatedAt) {
			return rows[:i]
		}
	}
	return rows
}
