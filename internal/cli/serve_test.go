package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/sismos/internal/app"
	"github.com/law-makers/sismos/internal/config"
	"github.com/law-makers/sismos/internal/engine"
	"github.com/law-makers/sismos/pkg/models"
)

type fakeCell string

func (c fakeCell) Text() string         { return string(c) }
func (c fakeCell) Lines() []string      { return strings.Fields(string(c)) }
func (c fakeCell) Link() (string, bool) { return "", false }

type fakeRow []engine.Cell

func (r fakeRow) Cells() ([]engine.Cell, error) { return r, nil }

type fakePage []engine.Row

func (p fakePage) Rows() ([]engine.Row, error) { return p, nil }
func (p fakePage) Close() error                { return nil }

type fakeFetcher struct {
	page engine.Page
	err  error
}

func (f fakeFetcher) Fetch(context.Context) (engine.Page, error) { return f.page, f.err }
func (f fakeFetcher) Name() string                               { return "fake" }
func (f fakeFetcher) Label() string                              { return "fake fetch" }

func newTestApp(f engine.Fetcher) *app.Application {
	cfg := config.Default()
	cfg.Sink = models.SinkNone
	cfg.IDStrategy = models.IDSequential
	return app.Assemble(cfg, f, nil)
}

func onePage() engine.Page {
	return fakePage{
		fakeRow{fakeCell("Sismo IGP/CENSIS/RS-2024-0001"), fakeCell("10 km al S de Lima"), fakeCell("01/01/2024 10:00"), fakeCell("4.5")},
	}
}

func TestRouter_Run(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestApp(fakeFetcher{page: onePage()})))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Total   int             `json:"total_sismos"`
		Records []models.Record `json:"sismos"`
		RunID   string          `json:"run_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Records, 1)
	assert.Equal(t, "IGP/CENSIS/RS-2024-0001", body.Records[0].ReportCode)
	assert.NotEmpty(t, body.RunID)
}

func TestRouter_RunPropagatesStatus(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestApp(fakeFetcher{err: engine.ErrTableNotFound})))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "table not found in the web page", body["error"])
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	a := newTestApp(fakeFetcher{page: onePage()})
	srv := httptest.NewServer(newRouter(a))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	rec := httptest.NewRecorder()
	newRouter(a).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sismos_runs_total{status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "sismos_records_extracted_total 1")
}

func TestRouter_RunRejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(newTestApp(fakeFetcher{})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
