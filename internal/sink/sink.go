// Package sink persists extracted records.
package sink

import (
	"context"
	"time"

	"github.com/law-makers/sismos/pkg/models"
)

// Batch is one run's worth of records plus the metadata the sinks record.
type Batch struct {
	Records     []models.Record
	SourceURL   string
	Method      string
	ExtractedAt time.Time
}

// Receipt describes what a sink did with a batch.
type Receipt struct {
	Sink     string
	Location string // file path, object URI or table name
	Written  int
	Cleared  int
}

// Sink is the minimal interface all sinks must implement.
type Sink interface {
	Name() string
	Write(ctx context.Context, batch Batch) (Receipt, error)
}

// Null accepts batches without persisting them.
type Null struct{}

func (Null) Name() string { return string(models.SinkNone) }

func (Null) Write(_ context.Context, batch Batch) (Receipt, error) {
	return Receipt{Sink: string(models.SinkNone), Written: len(batch.Records)}, nil
}
