package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	dbpkg "flightdash/internal/db"
)

func queryString(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(key)))
}

// queryPositiveInt returns def when key is absent and an error when it is
// present but not a positive integer.
func queryPositiveInt(ctx *fasthttp.RequestCtx, key string, def int) (int, error) {
	v := queryString(ctx, key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func queryFloat(ctx *fasthttp.RequestCtx, key string) (*float64, error) {
	v := queryString(ctx, key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

func queryDay(ctx *fasthttp.RequestCtx, key string) (*time.Time, error) {
	v := queryString(ctx, key)
	if v == "" {
		return nil, nil
	}
	t, err := parseDay(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", key)
	}
	return &t, nil
}

// parseFilter reads the record filter shared by filter-data and export-data.
func parseFilter(ctx *fasthttp.RequestCtx) (dbpkg.FlightFilter, error) {
	f := dbpkg.FlightFilter{
		Airline:     queryString(ctx, "airline"),
		Origin:      queryString(ctx, "origin"),
		Destination: queryString(ctx, "destination"),
		Route:       queryString(ctx, "route"),
	}
	var err error
	if f.MinPrice, err = queryFloat(ctx, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryFloat(ctx, "max_price"); err != nil {
		return f, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, fmt.Errorf("min_price must not exceed max_price")
	}
	if f.DateFrom, err = queryDay(ctx, "date_from"); err != nil {
		return f, err
	}
	if f.DateTo, err = queryDay(ctx, "date_to"); err != nil {
		return f, err
	}
	if f.Limit, err = queryPositiveInt(ctx, "limit", 0); err != nil {
		return f, err
	}
	return f, nil
}
