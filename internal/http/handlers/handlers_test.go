package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"flightdash/internal/analytics"
	"flightdash/internal/collector"
	"flightdash/internal/config"
	dbpkg "flightdash/internal/db"
	httpctx "flightdash/internal/http/ctx"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		AdminUser:     "admin",
		SecretKey:     "test-secret",
		ImportToken:   "import-token",
		RetentionDays: 30,
		DashboardDays: 30,
	}
}

func fixClock(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return testNow }
	t.Cleanup(func() { now = prev })
}

func newCtx(method, uri string, body []byte) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	return env
}

func sampleFlights() []dbpkg.Flight {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	mk := func(id uint, origin, dest, airline string, price float64, count int) dbpkg.Flight {
		return dbpkg.Flight{
			ID: id, CreatedAt: testNow, Route: origin + "-" + dest, Origin: origin, Destination: dest,
			Airline: airline, Price: price, Date: day, FlightCount: count, DemandScore: 0.6,
			FlightNumber: "XX1", Availability: 120, Source: "synthetic",
		}
	}
	return []dbpkg.Flight{
		mk(1, "Sydney", "Melbourne", "Qantas", 200, 30),
		mk(2, "Sydney", "Melbourne", "Jetstar", 100, 25),
		mk(3, "Perth", "Darwin", "Qantas", 300, 5),
	}
}

// MockStore is a mock implementation of every store-facing handler interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListFlights(ctx context.Context, f dbpkg.FlightFilter) ([]dbpkg.Flight, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]dbpkg.Flight), args.Error(1)
}

func (m *MockStore) Snapshots(ctx context.Context) (map[string]dbpkg.RouteAnalysis, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]dbpkg.RouteAnalysis), args.Error(1)
}

func (m *MockStore) GetFlight(ctx context.Context, id uint) (*dbpkg.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbpkg.Flight), args.Error(1)
}

func (m *MockStore) SaveFlights(ctx context.Context, flights []dbpkg.Flight) (int64, error) {
	args := m.Called(ctx, flights)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ListInsights(ctx context.Context, since time.Time, category string) ([]dbpkg.Insight, error) {
	args := m.Called(ctx, since, category)
	return args.Get(0).([]dbpkg.Insight), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Statistics(ctx context.Context) (*dbpkg.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbpkg.Statistics), args.Error(1)
}

func (m *MockStore) QualityReport(ctx context.Context, at time.Time) (*dbpkg.QualityReport, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbpkg.QualityReport), args.Error(1)
}

func (m *MockStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (dbpkg.PurgeResult, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(dbpkg.PurgeResult), args.Error(1)
}

func (m *MockStore) FindUser(ctx context.Context, username string) (*dbpkg.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbpkg.User), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetDashboard(ctx context.Context, days int) ([]byte, bool, error) {
	args := m.Called(ctx, days)
	b, _ := args.Get(0).([]byte)
	return b, args.Bool(1), args.Error(2)
}

func (m *MockCache) SetDashboard(ctx context.Context, days int, payload []byte) error {
	return m.Called(ctx, days, payload).Error(0)
}

func (m *MockCache) InvalidateDashboard(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockCollector struct {
	mock.Mock
}

func (m *MockCollector) Collect(ctx context.Context) (*collector.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collector.Result), args.Error(1)
}

func TestDashboardData_CacheMissBuildsAndStores(t *testing.T) {
	fixClock(t)
	store := &MockStore{}
	cache := &MockCache{}

	store.On("ListFlights", mock.Anything, dbpkg.FlightFilter{Since: testNow.AddDate(0, 0, -7)}).Return(sampleFlights(), nil)
	cache.On("GetDashboard", mock.Anything, 7).Return(nil, false, nil)
	cache.On("SetDashboard", mock.Anything, 7, mock.Anything).Return(nil)

	ctx := newCtx("GET", "/api/dashboard-data?days=7", nil)
	DashboardData(store, cache, testConfig())(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "MISS", string(ctx.Response.Header.Peek("X-Cache")))

	env := decode(t, ctx)
	assert.Equal(t, "success", env.Status)
	var data struct {
		TotalRecords int                        `json:"total_records"`
		TotalFlights int                        `json:"total_flights"`
		AvgPrice     float64                    `json:"avg_price"`
		PopularRoute string                     `json:"popular_route"`
		Charts       map[string]json.RawMessage `json:"charts"`
		Insights     []json.RawMessage          `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 3, data.TotalRecords)
	assert.Equal(t, 60, data.TotalFlights)
	assert.Equal(t, 200.0, data.AvgPrice)
	assert.Equal(t, "Sydney-Melbourne", data.PopularRoute)
	assert.Contains(t, data.Charts, "price_distribution")
	assert.NotEmpty(t, data.Insights)

	store.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestDashboardData_CacheHitSkipsDatabase(t *testing.T) {
	store := &MockStore{}
	cache := &MockCache{}
	cached := []byte(`{"status":"success","data":{"total_records":99}}`)
	cache.On("GetDashboard", mock.Anything, 30).Return(cached, true, nil)

	ctx := newCtx("GET", "/api/dashboard-data", nil)
	DashboardData(store, cache, testConfig())(ctx)

	assert.Equal(t, "HIT", string(ctx.Response.Header.Peek("X-Cache")))
	assert.Equal(t, cached, ctx.Response.Body())
	store.AssertNotCalled(t, "ListFlights", mock.Anything, mock.Anything)
}

func TestDashboardData_EmptyStore(t *testing.T) {
	store := &MockStore{}
	store.On("ListFlights", mock.Anything, mock.Anything).Return([]dbpkg.Flight{}, nil)

	ctx := newCtx("GET", "/api/dashboard-data", nil)
	DashboardData(store, nil, testConfig())(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var data struct {
		TotalRecords int            `json:"total_records"`
		AvgPrice     float64        `json:"avg_price"`
		Charts       map[string]any `json:"charts"`
		Insights     []any          `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	assert.Zero(t, data.TotalRecords)
	assert.Zero(t, data.AvgPrice)
	assert.Empty(t, data.Charts)
	assert.NotNil(t, data.Insights)
}

func TestInvalidNumericParametersAreRejected(t *testing.T) {
	store := &MockStore{}
	cfg := testConfig()
	cases := []struct {
		name    string
		uri     string
		handler fasthttp.RequestHandler
	}{
		{"dashboard days", "/api/dashboard-data?days=abc", DashboardData(store, nil, cfg)},
		{"dashboard zero days", "/api/dashboard-data?days=0", DashboardData(store, nil, cfg)},
		{"route status", "/api/route-analysis?status=busy", RouteAnalysis(store, cfg)},
		{"min price", "/api/filter-data?min_price=cheap", FilterData(store)},
		{"price range", "/api/filter-data?min_price=300&max_price=100", FilterData(store)},
		{"date", "/api/filter-data?date_from=03/02/2026", FilterData(store)},
		{"limit", "/api/export-data?limit=-1", ExportData(store)},
		{"format", "/api/export-data?format=xml", ExportData(store)},
		{"category", "/api/insights?category=weather", Insights(store, store, cfg)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newCtx("GET", tc.uri, nil)
			tc.handler(ctx)
			assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
			assert.Equal(t, "error", decode(t, ctx).Status)
		})
	}
	store.AssertNotCalled(t, "ListFlights", mock.Anything, mock.Anything)
}

func TestRouteAnalysis_RanksAndFilters(t *testing.T) {
	store := &MockStore{}
	store.On("ListFlights", mock.Anything, mock.Anything).Return(sampleFlights(), nil)
	store.On("Snapshots", mock.Anything).Return(map[string]dbpkg.RouteAnalysis{
		"Sydney-Melbourne": {Route: "Sydney-Melbourne", AvgPrice: 100},
	}, nil)

	ctx := newCtx("GET", "/api/route-analysis", nil)
	RouteAnalysis(store, testConfig())(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var data struct {
		Routes []struct {
			Route       string  `json:"route"`
			FlightCount int     `json:"flight_count"`
			AvgPrice    float64 `json:"average_price"`
			Status      string  `json:"status"`
			Trend       string  `json:"price_trend"`
			Rank        int     `json:"popularity_rank"`
		} `json:"routes"`
		TotalRoutes int `json:"total_routes"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	require.Equal(t, 2, data.TotalRoutes)
	assert.Equal(t, "Sydney-Melbourne", data.Routes[0].Route)
	assert.Equal(t, 55, data.Routes[0].FlightCount)
	assert.Equal(t, "high", data.Routes[0].Status)
	assert.Equal(t, "increasing", data.Routes[0].Trend)
	assert.Equal(t, 1, data.Routes[0].Rank)
	assert.Equal(t, "low", data.Routes[1].Status)

	ctx = newCtx("GET", "/api/route-analysis?status=low", nil)
	RouteAnalysis(store, testConfig())(ctx)
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	require.Len(t, data.Routes, 1)
	assert.Equal(t, "Perth-Darwin", data.Routes[0].Route)
}

func TestFilterData_PassesFilter(t *testing.T) {
	store := &MockStore{}
	store.On("ListFlights", mock.Anything, mock.MatchedBy(func(f dbpkg.FlightFilter) bool {
		return f.MinPrice != nil && *f.MinPrice == 150 && f.MaxPrice == nil &&
			f.Airline == "Qantas" && f.Limit == 10 &&
			f.DateFrom != nil && f.DateFrom.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	})).Return(sampleFlights()[:1], nil)

	ctx := newCtx("GET", "/api/filter-data?min_price=150&airline=Qantas&limit=10&date_from=2026-03-01", nil)
	FilterData(store)(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var data struct {
		TotalFlights int            `json:"total_flights"`
		Filtered     []dbpkg.Flight `json:"filtered_data"`
		Charts       map[string]any `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	assert.Equal(t, 1, data.TotalFlights)
	assert.Len(t, data.Filtered, 1)
	assert.NotEmpty(t, data.Charts)
	store.AssertExpectations(t)
}

func TestExportData_RowCountMatchesFilteredRecords(t *testing.T) {
	fixClock(t)
	store := &MockStore{}
	store.On("ListFlights", mock.Anything, mock.Anything).Return(sampleFlights(), nil)

	ctx := newCtx("GET", "/api/export-data?format=csv", nil)
	ExportData(store)(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "text/csv; charset=utf-8", string(ctx.Response.Header.ContentType()))
	assert.Contains(t, string(ctx.Response.Header.Peek("Content-Disposition")), "airline_data_20260302_120000.csv")
	rows, err := csv.NewReader(bytes.NewReader(ctx.Response.Body())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	ctx = newCtx("GET", "/api/export-data", nil)
	ExportData(store)(ctx)
	var data struct {
		CSV      string `json:"csv_data"`
		Filename string `json:"filename"`
		Rows     int    `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	assert.Equal(t, 3, data.Rows)
	assert.Equal(t, "airline_data_20260302_120000.csv", data.Filename)
	assert.NotEmpty(t, data.CSV)
}

func TestExportReport_ServesPDF(t *testing.T) {
	store := &MockStore{}
	store.On("ListFlights", mock.Anything, mock.Anything).Return(sampleFlights(), nil)
	store.On("Snapshots", mock.Anything).Return(map[string]dbpkg.RouteAnalysis{}, nil)

	ctx := newCtx("GET", "/api/export-report", nil)
	ExportReport(store, testConfig())(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/pdf", string(ctx.Response.Header.ContentType()))
	assert.True(t, bytes.HasPrefix(ctx.Response.Body(), []byte("%PDF-")))
}

func TestFlightDetail(t *testing.T) {
	store := &MockStore{}
	f := sampleFlights()[0]
	store.On("GetFlight", mock.Anything, uint(1)).Return(&f, nil)
	store.On("GetFlight", mock.Anything, uint(2)).Return(nil, dbpkg.ErrNotFound)

	cases := []struct {
		id   any
		code int
	}{
		{"1", fasthttp.StatusOK},
		{"2", fasthttp.StatusNotFound},
		{"abc", fasthttp.StatusBadRequest},
		{"0", fasthttp.StatusBadRequest},
		{nil, fasthttp.StatusBadRequest},
	}
	for _, tc := range cases {
		ctx := newCtx("GET", "/api/flights/x", nil)
		if tc.id != nil {
			ctx.SetUserValue("id", tc.id)
		}
		FlightDetail(store)(ctx)
		assert.Equal(t, tc.code, ctx.Response.StatusCode(), "id=%v", tc.id)
	}
}

func TestImportFlights_SkipsInvalidRecords(t *testing.T) {
	store := &MockStore{}
	cache := &MockCache{}
	store.On("SaveFlights", mock.Anything, mock.MatchedBy(func(fs []dbpkg.Flight) bool {
		return len(fs) == 1 && fs[0].Route == "Sydney-Hobart" && fs[0].Source == "import" && fs[0].FlightCount == 1
	})).Return(int64(1), nil)
	cache.On("InvalidateDashboard", mock.Anything).Return(nil)

	body := []byte(`{"flights":[
		{"origin":"Sydney","destination":"Hobart","airline":"Qantas","price":180.5,"date":"2026-03-20","demand_score":0.4},
		{"origin":"Sydney","destination":"Hobart","airline":"Qantas","price":-1,"date":"2026-03-20"},
		{"origin":"Sydney","destination":"Hobart","airline":"Qantas","price":10,"date":"tomorrow"}
	]}`)
	ctx := newCtx("POST", "/api/flights", body)
	ImportFlights(store, cache)(ctx)

	require.Equal(t, fasthttp.StatusAccepted, ctx.Response.StatusCode())
	var data struct {
		Received int              `json:"received"`
		Accepted int              `json:"accepted"`
		Saved    int64            `json:"saved"`
		Rejected []rejectedFlight `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	assert.Equal(t, 3, data.Received)
	assert.Equal(t, 1, data.Accepted)
	assert.Equal(t, int64(1), data.Saved)
	require.Len(t, data.Rejected, 2)
	assert.Equal(t, 1, data.Rejected[0].Index)
	assert.Equal(t, 2, data.Rejected[1].Index)

	store.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestImportFlights_OverlongFieldsAreRejectedNotSaved(t *testing.T) {
	store := &MockStore{}
	cache := &MockCache{}
	store.On("SaveFlights", mock.Anything, mock.MatchedBy(func(fs []dbpkg.Flight) bool {
		return len(fs) == 1 && fs[0].Airline == "Virgin Australia"
	})).Return(int64(1), nil)
	cache.On("InvalidateDashboard", mock.Anything).Return(nil)

	body := []byte(fmt.Sprintf(`{"flights":[
		{"origin":"Perth","destination":"Darwin","airline":"Virgin Australia","price":220,"date":"2026-03-21"},
		{"origin":"Perth","destination":"Darwin","airline":%q,"price":220,"date":"2026-03-21"},
		{"origin":"Perth","destination":"Darwin","airline":"Qantas","flight_number":%q,"price":220,"date":"2026-03-21"}
	]}`, strings.Repeat("X", 100), strings.Repeat("9", 40)))
	ctx := newCtx("POST", "/api/flights", body)
	ImportFlights(store, cache)(ctx)

	require.Equal(t, fasthttp.StatusAccepted, ctx.Response.StatusCode())
	var data struct {
		Accepted int              `json:"accepted"`
		Rejected []rejectedFlight `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	assert.Equal(t, 1, data.Accepted)
	require.Len(t, data.Rejected, 2)
	assert.Contains(t, data.Rejected[0].Error, "airline")
	assert.Contains(t, data.Rejected[1].Error, "flight_number")
	store.AssertExpectations(t)
}

func TestImportFlights_BadBodies(t *testing.T) {
	store := &MockStore{}
	for _, body := range []string{`not json`, `{"flights":[]}`, `{"flights":[{"origin":"","date":"2026-03-20"}]}`} {
		ctx := newCtx("POST", "/api/flights", []byte(body))
		ImportFlights(store, nil)(ctx)
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), body)
	}
	store.AssertNotCalled(t, "SaveFlights", mock.Anything, mock.Anything)
}

func TestCollectData(t *testing.T) {
	c := &MockCollector{}
	c.On("Collect", mock.Anything).Return(&collector.Result{RunID: "r1", Status: "success", Total: 60, Insights: 9}, nil).Once()
	c.On("Collect", mock.Anything).Return(nil, collector.ErrCollectionInProgress).Once()
	c.On("Collect", mock.Anything).Return(nil, errors.New("db down")).Once()

	ctx := newCtx("POST", "/api/collect-data", nil)
	CollectData(c)(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var body map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, "Collected 60 flights", body["message"])
	assert.Equal(t, float64(9), body["insights_count"])

	ctx = newCtx("POST", "/api/collect-data", nil)
	CollectData(c)(ctx)
	assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())

	ctx = newCtx("POST", "/api/collect-data", nil)
	CollectData(c)(ctx)
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.Equal(t, "error", decode(t, ctx).Status)
}

func TestInsights_FallsBackToLiveGeneration(t *testing.T) {
	fixClock(t)
	store := &MockStore{}
	since := testNow.AddDate(0, 0, -30)
	store.On("ListInsights", mock.Anything, since, "price").Return([]dbpkg.Insight{}, nil)
	store.On("ListFlights", mock.Anything, dbpkg.FlightFilter{Since: since}).Return(sampleFlights(), nil)

	ctx := newCtx("GET", "/api/insights?category=price", nil)
	Insights(store, store, testConfig())(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var data struct {
		Insights []struct {
			Category string `json:"category"`
		} `json:"insights"`
		Source string `json:"source"`
		Report struct {
			Total int `json:"total_insights"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	assert.Equal(t, "live", data.Source)
	require.NotEmpty(t, data.Insights)
	for _, in := range data.Insights {
		assert.Equal(t, "price", in.Category)
	}
	assert.Equal(t, len(data.Insights), data.Report.Total)
}

func TestInsights_UsesStoredRows(t *testing.T) {
	store := &MockStore{}
	store.On("ListInsights", mock.Anything, mock.Anything, "").Return([]dbpkg.Insight{
		{Type: "Overall Demand", Category: "demand", Confidence: 0.9, Severity: "high", Actionable: true},
	}, nil)

	ctx := newCtx("GET", "/api/insights", nil)
	Insights(store, store, testConfig())(ctx)

	var data struct {
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	assert.Equal(t, "stored", data.Source)
	store.AssertNotCalled(t, "ListFlights", mock.Anything, mock.Anything)
}

func TestInsights_ServesLatestCollectionOnly(t *testing.T) {
	latest := testNow.Add(-time.Hour)
	earlier := testNow.Add(-25 * time.Hour)
	store := &MockStore{}
	store.On("ListInsights", mock.Anything, mock.Anything, "").Return([]dbpkg.Insight{
		{ID: 4, CreatedAt: latest, Type: "Overall Demand", Category: "demand", Confidence: 0.9, Severity: "high", Actionable: true},
		{ID: 3, CreatedAt: latest, Type: "Market Leader", Category: "airline", Confidence: 0.7, Severity: "low"},
		{ID: 2, CreatedAt: earlier, Type: "Overall Demand", Category: "demand", Confidence: 0.9, Severity: "high", Actionable: true},
		{ID: 1, CreatedAt: earlier, Type: "Market Leader", Category: "airline", Confidence: 0.7, Severity: "low"},
	}, nil)

	ctx := newCtx("GET", "/api/insights", nil)
	Insights(store, store, testConfig())(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var data struct {
		Insights []analytics.Insight `json:"insights"`
		Report   analytics.Report    `json:"report"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	require.Len(t, data.Insights, 2)
	assert.Equal(t, 2, data.Report.TotalInsights)
	assert.False(t, data.Insights[1].Actionable)
}

func TestLatestBatch(t *testing.T) {
	assert.Empty(t, latestBatch(nil))

	at := testNow
	rows := []dbpkg.Insight{{ID: 2, CreatedAt: at}, {ID: 1, CreatedAt: at}}
	assert.Len(t, latestBatch(rows), 2)
}

func TestHealth(t *testing.T) {
	store := &MockStore{}
	store.On("Ping", mock.Anything).Return(nil).Once()
	store.On("Ping", mock.Anything).Return(errors.New("refused")).Once()

	ctx := newCtx("GET", "/health", nil)
	Health(store)(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "healthy", decode(t, ctx).Status)

	ctx = newCtx("GET", "/health", nil)
	Health(store)(ctx)
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
}

func TestStatistics(t *testing.T) {
	fixClock(t)
	last := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	store := &MockStore{}
	store.On("Statistics", mock.Anything).Return(&dbpkg.Statistics{
		TotalFlights:   12,
		TotalRoutes:    3,
		LastCollection: &last,
	}, nil)
	store.On("QualityReport", mock.Anything, testNow).Return(&dbpkg.QualityReport{
		TotalRecords:      12,
		CompletenessScore: 100,
	}, nil)

	ctx := newCtx("GET", "/api/statistics", nil)
	Statistics(store)(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var data struct {
		Stats          dbpkg.Statistics    `json:"statistics"`
		Quality        dbpkg.QualityReport `json:"data_quality"`
		LastCollection string              `json:"last_collection"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	assert.Equal(t, int64(12), data.Stats.TotalFlights)
	assert.Equal(t, int64(12), data.Quality.TotalRecords)
	assert.Equal(t, "02 Mar 2026 09:30 UTC", data.LastCollection)
	store.AssertExpectations(t)
}

func TestStatistics_StoreError(t *testing.T) {
	store := &MockStore{}
	store.On("Statistics", mock.Anything).Return(nil, errors.New("connection reset"))

	ctx := newCtx("GET", "/api/statistics", nil)
	Statistics(store)(ctx)

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.Equal(t, "error", decode(t, ctx).Status)
	store.AssertNotCalled(t, "QualityReport", mock.Anything, mock.Anything)
}

func TestCleanup(t *testing.T) {
	fixClock(t)
	store := &MockStore{}
	cache := &MockCache{}
	store.On("PurgeOlderThan", mock.Anything, testNow.AddDate(0, 0, -7)).Return(dbpkg.PurgeResult{Flights: 4}, nil)
	cache.On("InvalidateDashboard", mock.Anything).Return(nil)

	ctx := newCtx("POST", "/api/admin/cleanup?days=7", nil)
	Cleanup(store, cache, testConfig())(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var data struct {
		Days    int               `json:"retention_days"`
		Deleted dbpkg.PurgeResult `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &data))
	assert.Equal(t, 7, data.Days)
	assert.Equal(t, int64(4), data.Deleted.Flights)
	store.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestMetricsHandler_FiltersByAirline(t *testing.T) {
	reg := prometheus.NewRegistry()
	byAirline := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_flights_total", Help: "h"}, []string{"airline"})
	plain := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_runs_total", Help: "h"})
	reg.MustRegister(byAirline, plain)
	byAirline.WithLabelValues("Qantas").Add(3)
	byAirline.WithLabelValues("Jetstar").Add(2)
	plain.Inc()

	ctx := newCtx("GET", "/metrics?airline=Qantas", nil)
	MetricsHandler(reg)(ctx)

	body := string(ctx.Response.Body())
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, body, `test_flights_total{airline="Qantas"} 3`)
	assert.NotContains(t, body, "Jetstar")
	assert.Contains(t, body, "test_runs_total 1")

	ctx = newCtx("GET", "/metrics", nil)
	MetricsHandler(reg)(ctx)
	assert.Contains(t, string(ctx.Response.Body()), "Jetstar")
}

func TestLoginSubmit(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	store := &MockStore{}
	store.On("FindUser", mock.Anything, "admin").Return(&dbpkg.User{Username: "admin", PasswordHash: string(hash)}, nil)
	store.On("FindUser", mock.Anything, "ghost").Return(nil, dbpkg.ErrNotFound)
	cfg := testConfig()

	login := func(user, pass string) *fasthttp.RequestCtx {
		var req fasthttp.Request
		req.Header.SetMethod("POST")
		req.SetRequestURI("/login")
		req.Header.SetContentType("application/x-www-form-urlencoded")
		req.SetBodyString("username=" + user + "&password=" + pass)
		ctx := &fasthttp.RequestCtx{}
		ctx.Init(&req, nil, nil)
		LoginSubmit(store, cfg)(ctx)
		return ctx
	}

	ctx := login("admin", "s3cret")
	require.Equal(t, fasthttp.StatusSeeOther, ctx.Response.StatusCode())
	var c fasthttp.Cookie
	c.SetKey(httpctx.SessionCookieKey)
	require.True(t, ctx.Response.Header.Cookie(&c))
	username, ok := httpctx.VerifySession(cfg.SecretKey, string(c.Value()))
	assert.True(t, ok)
	assert.Equal(t, "admin", username)

	assert.Equal(t, fasthttp.StatusUnauthorized, login("admin", "wrong").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusUnauthorized, login("ghost", "s3cret").Response.StatusCode())
}

func TestPagesRender(t *testing.T) {
	cfg := testConfig()
	for path, h := range map[string]fasthttp.RequestHandler{
		"/":         Dashboard(cfg),
		"/routes":   RoutesPage(cfg),
		"/insights": InsightsPage(cfg),
		"/login":    LoginForm(cfg),
	} {
		ctx := newCtx("GET", path, nil)
		h(ctx)
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), path)
		assert.Contains(t, string(ctx.Response.Body()), "Flight Dashboard", path)
	}

	ctx := newCtx("GET", "/nope", nil)
	NotFound(cfg)(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	ctx = newCtx("GET", "/api/nope", nil)
	NotFound(cfg)(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "error", decode(t, ctx).Status)
}
