// Package extract turns table rows into earthquake records.
//
// Extraction is best-effort: rows with fewer than four cells are skipped,
// rows that fail or panic while being read are recorded as faults, and the
// remaining rows are still extracted.
package extract

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/law-makers/sismos/internal/engine"
	urlutil "github.com/law-makers/sismos/internal/utils/url"
	"github.com/law-makers/sismos/pkg/models"
)

// MinCells is the number of cells a row needs to produce a record.
const MinCells = 4

// NotAvailable fills report fields that cannot be derived from the first cell.
const NotAvailable = "N/A"

// RowFault is a row that could not be read.
type RowFault struct {
	Row int // 1-based
	Err error
}

func (f RowFault) Error() string {
	return fmt.Sprintf("row %d: %v", f.Row, f.Err)
}

// Extraction is the outcome of one Extract call.
type Extraction struct {
	Records  []models.Record
	RowsSeen int
	Skipped  int
	Faults   []RowFault
}

// Extractor maps rows to records. The zero value splits on whitespace,
// assigns random IDs and leaves links unresolved.
type Extractor struct {
	// BaseURL is the page URL relative links are resolved against.
	BaseURL    string
	TokenMode  models.TokenMode
	IDStrategy models.IDStrategy
	Observer   Observer

	// NewID generates record IDs for the random strategy. Defaults to UUID v4.
	NewID func() string
}

// New creates an Extractor resolving links against sourceURL.
func New(sourceURL string, tokens models.TokenMode, ids models.IDStrategy, obs Observer) *Extractor {
	return &Extractor{
		BaseURL:    sourceURL,
		TokenMode:  tokens,
		IDStrategy: ids,
		Observer:   obs,
	}
}

// Extract converts rows in order. It never fails as a whole; an empty
// Records slice means no row qualified.
func (e *Extractor) Extract(rows []engine.Row) Extraction {
	obs := e.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	if s, ok := obs.(Starter); ok {
		s.Start(len(rows))
	}

	out := Extraction{Records: make([]models.Record, 0, len(rows))}
	for i, row := range rows {
		pos := i + 1
		out.RowsSeen++

		rec, ok, err := e.extractRow(pos, row)
		switch {
		case err != nil:
			fault := RowFault{Row: pos, Err: err}
			out.Faults = append(out.Faults, fault)
			out.Skipped++
			obs.RowFailed(pos, err)
		case !ok:
			out.Skipped++
			obs.RowSkipped(pos)
		default:
			out.Records = append(out.Records, rec)
			obs.RowExtracted(pos, rec)
		}
	}
	return out
}

func (e *Extractor) extractRow(pos int, row engine.Row) (rec models.Record, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, ok, err = models.Record{}, false, fmt.Errorf("panic: %v", r)
		}
	}()

	if row == nil {
		return rec, false, nil
	}
	cells, err := row.Cells()
	if err != nil {
		return rec, false, err
	}
	if len(cells) < MinCells {
		return rec, false, nil
	}

	tokens := e.tokens(cells[0])
	rec = models.Record{
		ReportCode:    NotAvailable,
		ReportType:    NotAvailable,
		Reference:     cells[1].Text(),
		LocalDateTime: cells[2].Text(),
		Magnitude:     cells[3].Text(),
	}
	if n := len(tokens); n > 0 {
		rec.ReportCode = tokens[n-1]
		if n > 1 {
			rec.ReportType = strings.Join(tokens[:n-1], " ")
		}
	}
	if len(cells) > MinCells {
		if href, found := cells[MinCells].Link(); found {
			rec.ReportLink = urlutil.Resolve(e.BaseURL, strings.TrimSpace(href))
		}
	}

	switch e.IDStrategy {
	case models.IDSequential:
		rec.Number = pos
	default:
		rec.ID = e.newID()
	}
	return rec, true, nil
}

// tokens splits the first cell according to the token mode.
func (e *Extractor) tokens(c engine.Cell) []string {
	lines := c.Lines()
	if len(lines) == 0 {
		if text := c.Text(); text != "" {
			lines = []string{text}
		}
	}
	if e.TokenMode == models.TokenLines {
		return lines
	}
	return strings.Fields(strings.Join(lines, " "))
}

func (e *Extractor) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}
