package extract

import (
	"github.com/law-makers/sismos/pkg/models"
	"github.com/rs/zerolog"
)

// Observer receives per-row extraction events. Rows are numbered from 1.
type Observer interface {
	RowExtracted(row int, rec models.Record)
	RowSkipped(row int)
	RowFailed(row int, err error)
}

// Starter is implemented by observers that want the row count before the
// first event.
type Starter interface {
	Start(total int)
}

// NopObserver discards all events
type NopObserver struct{}

func (NopObserver) RowExtracted(int, models.Record) {}
func (NopObserver) RowSkipped(int)                  {}
func (NopObserver) RowFailed(int, error)            {}

// LogObserver narrates extraction through zerolog.
type LogObserver struct {
	Logger zerolog.Logger
}

func (o LogObserver) RowExtracted(row int, rec models.Record) {
	o.Logger.Debug().
		Int("row", row).
		Str("codigo_reporte", rec.ReportCode).
		Str("magnitud", rec.Magnitude).
		Msg("Row extracted")
}

func (o LogObserver) RowSkipped(row int) {
	o.Logger.Debug().Int("row", row).Msg("Row skipped: fewer than 4 cells")
}

func (o LogObserver) RowFailed(row int, err error) {
	o.Logger.Warn().Int("row", row).Err(err).Msg("Error processing row")
}

type multiObserver []Observer

// Multi fans events out to every non-nil observer.
func Multi(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) Start(total int) {
	for _, o := range m {
		if s, ok := o.(Starter); ok {
			s.Start(total)
		}
	}
}

func (m multiObserver) RowExtracted(row int, rec models.Record) {
	for _, o := range m {
		o.RowExtracted(row, rec)
	}
}

func (m multiObserver) RowSkipped(row int) {
	for _, o := range m {
		o.RowSkipped(row)
	}
}

func (m multiObserver) RowFailed(row int, err error) {
	for _, o := range m {
		o.RowFailed(row, err)
	}
}
