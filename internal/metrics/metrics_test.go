package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/sismos/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserver(t *testing.T) {
	r := New()
	r.RowExtracted(1, models.Record{})
	r.RowExtracted(2, models.Record{})
	r.RowSkipped(3)
	r.RowFailed(4, errors.New("stale"))

	if got := testutil.ToFloat64(r.rowsSeen); got != 4 {
		t.Errorf("rows seen = %v, want 4", got)
	}
	if got := testutil.ToFloat64(r.recordsExtracted); got != 2 {
		t.Errorf("records extracted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.rowsSkipped.WithLabelValues("fault")); got != 1 {
		t.Errorf("faults = %v, want 1", got)
	}
}

func TestObserveRun(t *testing.T) {
	r := New()
	start := time.Unix(1700000000, 0)

	r.ObserveRun(http.StatusOK, start, start.Add(3*time.Second))
	r.ObserveRun(http.StatusNotFound, start, start.Add(5*time.Second))

	if got := testutil.ToFloat64(r.runsTotal.WithLabelValues("200")); got != 1 {
		t.Errorf("runs{200} = %v", got)
	}
	if got := testutil.ToFloat64(r.lastRunDuration); got != 5 {
		t.Errorf("last duration = %v, want 5", got)
	}
	if got := testutil.ToFloat64(r.lastSuccess); got != 1700000003 {
		t.Errorf("last success = %v, want the successful run's finish time", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveRun(http.StatusOK, time.Now(), time.Now())

	path := filepath.Join(t.TempDir(), "sismos.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `sismos_runs_total{status="200"} 1`) {
		t.Errorf("textfile missing run counter:\n%s", data)
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.RowSkipped(1)

	server := httptest.NewServer(r.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "sismos_rows_skipped_total") {
		t.Errorf("metrics output missing skipped counter:\n%s", body)
	}
}
