package handlers

import (
	"log"
	"time"

	"github.com/valyala/fasthttp"

	"flightdash/internal/config"
)

func Health(db Pinger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if err := db.Ping(ctx); err != nil {
			jsonResponse(ctx, fasthttp.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"message":  "database unreachable",
				"database": "unavailable",
			})
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"status":   "healthy",
			"message":  "flight dashboard is running",
			"database": "connected",
		})
	}
}

// Statistics reports store totals and the data quality of the stored records.
func Statistics(stats StatsReader) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		st, err := stats.Statistics(ctx)
		if err != nil {
			internalError(ctx, "failed to load statistics", err)
			return
		}
		quality, err := stats.QualityReport(ctx, now())
		if err != nil {
			internalError(ctx, "failed to build quality report", err)
			return
		}
		var last time.Time
		if st.LastCollection != nil {
			last = *st.LastCollection
		}
		success(ctx, map[string]any{
			"statistics":      st,
			"data_quality":    quality,
			"last_collection": displayTime(last),
		})
	}
}

// Cleanup applies the retention policy immediately. days overrides the
// configured retention window for this run.
func Cleanup(store Purger, cache DashboardCache, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		days, err := queryPositiveInt(ctx, "days", cfg.RetentionDays)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		res, err := store.PurgeOlderThan(ctx, now().AddDate(0, 0, -days))
		if err != nil {
			internalError(ctx, "cleanup failed", err)
			return
		}
		log.Printf("cleanup by %s: removed %d flights, %d insights, %d runs older than %d days",
			actor(ctx), res.Flights, res.Insights, res.Runs, days)
		if res.Flights > 0 || res.Insights > 0 {
			invalidate(ctx, cache)
		}
		success(ctx, map[string]any{
			"retention_days": days,
			"deleted":        res,
		})
	}
}
