package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/law-makers/sismos/pkg/models"
	"github.com/rs/zerolog/log"
)

// TableStore holds the latest snapshot of records keyed by ID.
type TableStore interface {
	// Clear removes every stored record and returns how many were removed.
	Clear(ctx context.Context) (int, error)
	// BulkWrite inserts records and returns how many were written.
	BulkWrite(ctx context.Context, records []models.Record, extractedAt time.Time) (int, error)
	// Location names the table for receipts and logs.
	Location() string
}

// Table replaces the store's contents with each batch.
//
// Clearing and writing are two separate steps, not a transaction. A reader
// between them sees an empty table, and two overlapping runs may interleave.
type Table struct {
	store TableStore
}

// NewTable creates a full-replace sink on top of store.
func NewTable(store TableStore) *Table {
	return &Table{store: store}
}

func (t *Table) Name() string { return string(models.SinkTable) }

func (t *Table) Write(ctx context.Context, batch Batch) (Receipt, error) {
	for i, rec := range batch.Records {
		if rec.ID == "" {
			return Receipt{}, fmt.Errorf("record %d has no id; the table sink needs the random id strategy", i+1)
		}
	}

	cleared, err := t.store.Clear(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("clear table: %w", err)
	}
	log.Debug().Str("table", t.store.Location()).Int("deleted", cleared).Msg("Table cleared")

	written, err := t.store.BulkWrite(ctx, batch.Records, batch.ExtractedAt)
	if err != nil {
		return Receipt{Sink: t.Name(), Location: t.store.Location(), Cleared: cleared},
			fmt.Errorf("write table: %w", err)
	}

	log.Info().
		Str("table", t.store.Location()).
		Int("deleted", cleared).
		Int("inserted", written).
		Msg("Table replaced")
	return Receipt{Sink: t.Name(), Location: t.store.Location(), Written: written, Cleared: cleared}, nil
}
