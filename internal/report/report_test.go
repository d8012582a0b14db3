package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightdash/internal/analytics"
	"flightdash/internal/db"
)

func sample(n int) []db.Flight {
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	out := make([]db.Flight, n)
	for i := range out {
		out[i] = db.Flight{
			ID:           uint(i + 1),
			CreatedAt:    day,
			Route:        "Sydney-Melbourne",
			Origin:       "Sydney",
			Destination:  "Melbourne",
			Airline:      "Virgin Australia",
			Price:        199.999,
			Date:         day.AddDate(0, 0, i),
			FlightCount:  3,
			DemandScore:  0.75,
			FlightNumber: "VI123",
			DistanceKM:   713,
			Source:       "synthetic",
		}
	}
	return out
}

func TestWriteCSV_RowCountMatchesRecords(t *testing.T) {
	for _, n := range []int{0, 1, 17} {
		var buf bytes.Buffer
		written, err := WriteCSV(&buf, sample(n))
		require.NoError(t, err)
		assert.Equal(t, n, written)

		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, n+1)
		assert.Equal(t, CSVHeader, rows[0])
	}
}

func TestWriteCSV_Formatting(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteCSV(&buf, sample(1))
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	r := rows[1]
	assert.Equal(t, "1", r[0])
	assert.Equal(t, "Sydney-Melbourne", r[2])
	assert.Equal(t, "200.00", r[6])
	assert.Equal(t, "2026-04-01", r[7])
	assert.Equal(t, "0.75", r[9])
	assert.Equal(t, "713", r[13])
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriterError(t *testing.T) {
	_, err := WriteCSV(failWriter{}, sample(3))
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 4, 1, 9, 5, 3, 0, time.UTC)
	assert.Equal(t, "airline_data_20260401_090503.csv", Filename("airline_data", "csv", ts))
}

func TestWritePDF(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC) }
	defer func() { now = time.Now }()

	records := sample(4)
	insights := analytics.GenerateInsights(records)

	var buf bytes.Buffer
	err := WritePDF(&buf, analytics.Summarize(records), analytics.RouteSummaries(records, nil), insights)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDF_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, analytics.Summary{}, nil, nil))
	assert.Greater(t, buf.Len(), 0)
}
