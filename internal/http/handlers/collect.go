package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/valyala/fasthttp"

	"flightdash/internal/collector"
)

// CollectData runs one collection synchronously. A run already in progress
// yields 409.
func CollectData(c Collector) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		log.Printf("data collection requested by %s", actor(ctx))
		res, err := c.Collect(ctx)
		if err != nil {
			if errors.Is(err, collector.ErrCollectionInProgress) {
				errResponse(ctx, fasthttp.StatusConflict, err.Error())
				return
			}
			internalError(ctx, "data collection failed", err)
			return
		}

		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"status":         "success",
			"message":        fmt.Sprintf("Collected %d flights", res.Total),
			"insights_count": res.Insights,
			"data":           res,
		})
	}
}
