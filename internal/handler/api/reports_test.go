package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"IndexImpact/internal/domain/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReports struct {
	latest     *models.Report
	defs       []models.IndexDefinition
	refreshes  int
	refreshErr error
}

func (f *fakeReports) Latest() (*models.Report, bool) { return f.latest, f.latest != nil }

func (f *fakeReports) Refresh(ctx context.Context) *models.Report {
	f.refreshes++
	f.refreshErr = ctx.Err()
	f.latest = sampleReport()
	return f.latest
}

func (f *fakeReports) Indices() []models.IndexDefinition { return f.defs }

func sampleReport() *models.Report {
	rows := []models.WeightedRow{
		{Identifier: "AAPL", WeightPct: 50, ReturnPct: 2, ImpactPct: 1, Direction: models.DirectionPositive},
		{Identifier: "MSFT", WeightPct: 30, ReturnPct: 1, ImpactPct: 0.3, Direction: models.DirectionPositive},
		{Identifier: "IBM", WeightPct: 20, ReturnPct: -1, ImpactPct: -0.2, Direction: models.DirectionNegative},
	}
	return &models.Report{
		GeneratedAt: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC),
		Indices: []models.IndexReport{
			{Name: "DJIA", Regime: models.RegimePrice, Rows: rows, Contribution: 1.1},
		},
	}
}

func definitions(t *testing.T) []models.IndexDefinition {
	t.Helper()
	d, err := models.NewIndexDefinition("DJIA", []models.Identifier{"AAPL", "MSFT", "IBM"}, models.RegimePrice, 0)
	require.NoError(t, err)
	return []models.IndexDefinition{d}
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func serve(t *testing.T, h *ReportsHandler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestReportsHandler_ListBeforeFirstCycle(t *testing.T) {
	h := NewReportsHandler(nil, &fakeReports{defs: definitions(t)})

	rec, env := serve(t, h, http.MethodGet, "/api/indices")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.Status)
}

func TestReportsHandler_ListTop(t *testing.T) {
	h := NewReportsHandler(nil, &fakeReports{defs: definitions(t), latest: sampleReport()})

	rec, env := serve(t, h, http.MethodGet, "/api/indices?top=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Indices, 1)
	assert.Len(t, got.Indices[0].Rows, 2)
	assert.Equal(t, models.Identifier("AAPL"), got.Indices[0].Rows[0].Identifier)
}

func TestReportsHandler_ListDoesNotMutateStoredReport(t *testing.T) {
	fr := &fakeReports{defs: definitions(t), latest: sampleReport()}
	h := NewReportsHandler(nil, fr)

	serve(t, h, http.MethodGet, "/api/indices?top=1")
	assert.Len(t, fr.latest.Indices[0].Rows, 3)
}

func TestReportsHandler_GetSides(t *testing.T) {
	h := NewReportsHandler(nil, &fakeReports{defs: definitions(t), latest: sampleReport()})

	tests := []struct {
		name  string
		query string
		want  []models.Identifier
	}{
		{name: "all", query: "", want: []models.Identifier{"AAPL", "MSFT", "IBM"}},
		{name: "top", query: "?top=1", want: []models.Identifier{"AAPL"}},
		{name: "leaders", query: "?side=leaders", want: []models.Identifier{"AAPL", "MSFT"}},
		{name: "laggards", query: "?side=laggards", want: []models.Identifier{"IBM"}},
		{name: "case insensitive name", query: "?side=laggards&top=5", want: []models.Identifier{"IBM"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/indices/DJIA"
			if tt.name == "case insensitive name" {
				path = "/api/indices/djia"
			}
			rec, env := serve(t, h, http.MethodGet, path+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var ir models.IndexReport
			require.NoError(t, json.Unmarshal(env.Data, &ir))
			ids := make([]models.Identifier, 0, len(ir.Rows))
			for _, r := range ir.Rows {
				ids = append(ids, r.Identifier)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestReportsHandler_GetUnknownIndex(t *testing.T) {
	h := NewReportsHandler(nil, &fakeReports{defs: definitions(t), latest: sampleReport()})

	rec, env := serve(t, h, http.MethodGet, "/api/indices/FTSE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestReportsHandler_GetInvalidSide(t *testing.T) {
	h := NewReportsHandler(nil, &fakeReports{defs: definitions(t), latest: sampleReport()})

	rec, _ := serve(t, h, http.MethodGet, "/api/indices/DJIA?side=middle")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsHandler_RefreshAndHealth(t *testing.T) {
	fr := &fakeReports{defs: definitions(t)}
	h := NewReportsHandler(nil, fr)

	_, env := serve(t, h, http.MethodGet, "/health")
	var before healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &before))
	assert.Equal(t, "ok", before.Status)
	assert.Nil(t, before.LastReport)
	assert.Equal(t, 1, before.Indices)

	rec, _ := serve(t, h, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fr.refreshes)

	_, env = serve(t, h, http.MethodGet, "/health")
	var after healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &after))
	require.NotNil(t, after.LastReport)
	assert.True(t, after.LastReport.Equal(sampleReport().GeneratedAt))
}

func TestReportsHandler_RefreshOutlivesClient(t *testing.T) {
	fr := &fakeReports{defs: definitions(t)}
	h := NewReportsHandler(nil, fr)
	e := echo.New()
	h.RegisterRoutes(e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, 1, fr.refreshes)
	assert.NoError(t, fr.refreshErr)
}
