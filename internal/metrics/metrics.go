// Package metrics exposes Prometheus collectors for scraper runs.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/law-makers/sismos/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a registry and the run collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	rowsSeen         prometheus.Counter
	recordsExtracted prometheus.Counter
	rowsSkipped      *prometheus.CounterVec
	runsTotal        *prometheus.CounterVec
	lastRun          prometheus.Gauge
	lastRunDuration  prometheus.Gauge
	lastSuccess      prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		rowsSeen: factory.NewCounter(prometheus.CounterOpts{
			Name: "sismos_rows_seen_total",
			Help: "Table rows handed to the extractor.",
		}),
		recordsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sismos_records_extracted_total",
			Help: "Earthquake records extracted from table rows.",
		}),
		rowsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sismos_rows_skipped_total",
			Help: "Rows that produced no record, labeled by reason.",
		}, []string{"reason"}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sismos_runs_total",
			Help: "Completed runs, labeled by result status code.",
		}, []string{"status"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sismos_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
		lastRunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sismos_last_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sismos_last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished.",
		}),
	}
}

// Registry returns the registry backing the recorder
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun records the outcome of one run.
func (r *Recorder) ObserveRun(status int, started, finished time.Time) {
	r.runsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	r.lastRun.Set(float64(finished.Unix()))
	r.lastRunDuration.Set(finished.Sub(started).Seconds())
	if status == http.StatusOK {
		r.lastSuccess.Set(float64(finished.Unix()))
	}
}

// Handler returns an http.Handler exposing the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// RowExtracted implements extract.Observer
func (r *Recorder) RowExtracted(int, models.Record) {
	r.rowsSeen.Inc()
	r.recordsExtracted.Inc()
}

// RowSkipped implements extract.Observer
func (r *Recorder) RowSkipped(int) {
	r.rowsSeen.Inc()
	r.rowsSkipped.WithLabelValues("short_row").Inc()
}

// RowFailed implements extract.Observer
func (r *Recorder) RowFailed(int, error) {
	r.rowsSeen.Inc()
	r.rowsSkipped.WithLabelValues("fault").Inc()
}
