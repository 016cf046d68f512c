package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/law-makers/sismos/internal/sink/blob"
	"github.com/law-makers/sismos/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	// FilePrefix starts every document name.
	FilePrefix = "sismos_igp_"
	// FileTimeLayout is the timestamp suffix layout, YYYYMMDD_HHMMSS.
	FileTimeLayout = "20060102_150405"

	maxNameAttempts = 100
)

// File writes each batch as one JSON document with a timestamped name.
type File struct {
	store blob.Store
}

// NewFile creates a file sink on top of store.
func NewFile(store blob.Store) *File {
	return &File{store: store}
}

func (f *File) Name() string { return string(models.SinkFile) }

// Write never replaces an earlier document: when the timestamped name is
// taken a _N suffix is tried instead.
func (f *File) Write(ctx context.Context, batch Batch) (Receipt, error) {
	data, err := EncodeDocument(batch)
	if err != nil {
		return Receipt{}, err
	}

	base := FilePrefix + batch.ExtractedAt.Format(FileTimeLayout)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := base + ".json"
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d.json", base, attempt)
		}

		location, err := f.store.Create(ctx, name, "application/json", data)
		if errors.Is(err, blob.ErrExist) {
			log.Debug().Str("name", name).Msg("Document name taken, trying next suffix")
			continue
		}
		if err != nil {
			return Receipt{}, fmt.Errorf("write document: %w", err)
		}

		log.Info().
			Str("location", location).
			Int("records", len(batch.Records)).
			Msg("Document saved")
		return Receipt{Sink: f.Name(), Location: location, Written: len(batch.Records)}, nil
	}
	return Receipt{}, fmt.Errorf("write document: no free name for %s after %d attempts", base, maxNameAttempts)
}

// EncodeDocument renders the batch as indented UTF-8 JSON.
func EncodeDocument(batch Batch) ([]byte, error) {
	records := batch.Records
	if records == nil {
		records = []models.Record{}
	}
	doc := models.Document{
		ExtractedAt: batch.ExtractedAt,
		Total:       len(records),
		SourceURL:   batch.SourceURL,
		Method:      batch.Method,
		Records:     records,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}
