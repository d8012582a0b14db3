package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"flightdash/internal/analytics"
)

var now = time.Now

const maxPDFRoutes = 10

// WritePDF renders a one-page A4 market report.
func WritePDF(w io.Writer, summary analytics.Summary, routes []analytics.RouteSummary, insights []analytics.Insight) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Airline Market Report", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Airline Market Report")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(0x66, 0x66, 0x66)
	pdf.Cell(0, 6, "Generated "+now().UTC().Format("2006-01-02 15:04 MST"))
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(10)

	section(pdf, "Summary")
	s := summary.Rounded()
	kv := [][2]string{
		{"Records", fmt.Sprintf("%d", s.TotalRecords)},
		{"Flights", fmt.Sprintf("%d", s.TotalFlights)},
		{"Routes", fmt.Sprintf("%d", s.TotalRoutes)},
		{"Airlines", fmt.Sprintf("%d", s.TotalAirlines)},
		{"Average price", fmt.Sprintf("$%.2f", s.AveragePrice)},
		{"Price range", fmt.Sprintf("$%.2f - $%.2f", s.MinPrice, s.MaxPrice)},
		{"Average demand", fmt.Sprintf("%.2f", s.AverageDemand)},
		{"Most popular route", orNA(s.PopularRoute)},
	}
	pdf.SetFont("Arial", "", 10)
	for _, p := range kv {
		pdf.CellFormat(50, 6, p[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(p[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Top routes")
	cols := []struct {
		title string
		width float64
		align string
	}{
		{"#", 10, "C"}, {"Route", 60, "L"}, {"Flights", 20, "R"}, {"Avg price", 28, "R"},
		{"Demand", 20, "R"}, {"Airlines", 20, "R"}, {"Status", 22, "C"},
	}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(0xe8, 0xec, 0xf1)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for i, r := range routes {
		if i == maxPDFRoutes {
			break
		}
		r = r.Rounded()
		cells := []string{
			fmt.Sprintf("%d", r.PopularityRank),
			tr(r.Route),
			fmt.Sprintf("%d", r.FlightCount),
			fmt.Sprintf("$%.2f", r.AveragePrice),
			fmt.Sprintf("%.2f", r.DemandScore),
			fmt.Sprintf("%d", r.AirlineCount),
			string(r.Status),
		}
		for j, c := range cols {
			pdf.CellFormat(c.width, 6, cells[j], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(routes) == 0 {
		pdf.CellFormat(0, 6, "No route data collected yet.", "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Insights")
	pdf.SetFont("Arial", "", 9)
	for _, in := range insights {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s (%s, %s)", in.Type, in.Category, in.Severity)), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(in.Description), "", "L", false)
	}
	if len(insights) == 0 {
		pdf.CellFormat(0, 6, "No insights available.", "", 1, "L", false, 0, "")
	}

	if recs := analytics.BuildReport(insights).Recommendations; len(recs) > 0 {
		pdf.Ln(3)
		section(pdf, "Recommendations")
		pdf.SetFont("Arial", "", 9)
		for _, rec := range recs {
			pdf.MultiCell(0, 5, tr("- "+rec), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
