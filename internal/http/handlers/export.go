package handlers

import (
	"bytes"
	"log"

	"github.com/valyala/fasthttp"

	"flightdash/internal/analytics"
	"flightdash/internal/config"
	dbpkg "flightdash/internal/db"
	"flightdash/internal/report"
)

// ExportData exports the filtered records as CSV. format=csv streams the
// file itself; the default wraps it in the JSON envelope.
func ExportData(flights FlightReader) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		format := queryString(ctx, "format")
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "csv" {
			errResponse(ctx, fasthttp.StatusBadRequest, "format must be csv or json")
			return
		}
		filter, err := parseFilter(ctx)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		records, err := flights.ListFlights(ctx, filter)
		if err != nil {
			internalError(ctx, "failed to load flights", err)
			return
		}

		var buf bytes.Buffer
		rows, err := report.WriteCSV(&buf, records)
		if err != nil {
			internalError(ctx, "failed to write csv", err)
			return
		}
		filename := report.Filename("airline_data", "csv", now())

		if format == "csv" {
			ctx.SetContentType("text/csv; charset=utf-8")
			ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
			ctx.SetBody(buf.Bytes())
			return
		}
		success(ctx, map[string]any{
			"csv_data": buf.String(),
			"filename": filename,
			"rows":     rows,
		})
	}
}

// ExportReport renders the PDF market report for the dashboard window.
func ExportReport(flights FlightReader, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		days, err := queryPositiveInt(ctx, "days", cfg.DashboardDays)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		at := now()
		records, err := flights.ListFlights(ctx, dbpkg.FlightFilter{Since: at.AddDate(0, 0, -days)})
		if err != nil {
			internalError(ctx, "failed to load flights", err)
			return
		}
		snapshots, err := flights.Snapshots(ctx)
		if err != nil {
			log.Printf("warning: load route snapshots: %v", err)
		}

		var buf bytes.Buffer
		err = report.WritePDF(&buf,
			analytics.Summarize(records),
			analytics.RouteSummaries(records, snapshots),
			analytics.GenerateInsights(records),
		)
		if err != nil {
			internalError(ctx, "failed to render report", err)
			return
		}

		ctx.SetContentType("application/pdf")
		ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+report.Filename("market_report", "pdf", at)+`"`)
		ctx.SetBody(buf.Bytes())
	}
}
