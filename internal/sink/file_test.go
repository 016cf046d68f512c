package sink

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/sismos/internal/sink/blob"
	"github.com/law-makers/sismos/internal/sink/blob/local"
	"github.com/law-makers/sismos/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var extractedAt = time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC)

func sampleBatch() Batch {
	return Batch{
		Records: []models.Record{{
			Number:        1,
			ReportType:    "Reporte Sismico",
			ReportCode:    "N001",
			Reference:     "12 km al S de Lima",
			LocalDateTime: "2024-01-01 10:00",
			Magnitude:     "4.5",
			ReportLink:    "https://ultimosismo.igp.gob.pe/r/1?a=1&b=2",
		}},
		SourceURL:   "https://ultimosismo.igp.gob.pe/ultimo-sismo/sismos-reportados",
		Method:      "static HTTP",
		ExtractedAt: extractedAt,
	}
}

func TestFile_WritesDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := local.New(dir)
	require.NoError(t, err)

	receipt, err := NewFile(store).Write(context.Background(), sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sismos_igp_20240101_100005.json"), receipt.Location)
	assert.Equal(t, 1, receipt.Written)

	raw, err := os.ReadFile(receipt.Location)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "a=1&b=2", "links must not be HTML-escaped")
	assert.Contains(t, string(raw), "\n  \"total_sismos\": 1", "document is indented")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.EqualValues(t, 1, doc["total_sismos"])
	assert.Equal(t, "static HTTP", doc["metodo"])
	assert.Equal(t, sampleBatch().SourceURL, doc["url_origen"])
	assert.Contains(t, doc, "fecha_extraccion")

	recs := doc["sismos"].([]any)
	require.Len(t, recs, 1)
	first := recs[0].(map[string]any)
	assert.EqualValues(t, 1, first["numero"])
	assert.NotContains(t, first, "id")
}

func TestFile_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	store, err := local.New(dir)
	require.NoError(t, err)
	sink := NewFile(store)

	var locations []string
	for i := 0; i < 3; i++ {
		receipt, err := sink.Write(context.Background(), sampleBatch())
		require.NoError(t, err)
		locations = append(locations, filepath.Base(receipt.Location))
	}

	assert.Equal(t, []string{
		"sismos_igp_20240101_100005.json",
		"sismos_igp_20240101_100005_1.json",
		"sismos_igp_20240101_100005_2.json",
	}, locations)
}

func TestFile_EmptyBatchHasEmptyList(t *testing.T) {
	data, err := EncodeDocument(Batch{ExtractedAt: extractedAt})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"sismos": []`))
}

type failingBlobs struct{ err error }

func (f failingBlobs) Create(context.Context, string, string, []byte) (string, error) {
	return "", f.err
}

func TestFile_StoreError(t *testing.T) {
	boom := errors.New("read-only file system")
	_, err := NewFile(failingBlobs{err: boom}).Write(context.Background(), sampleBatch())
	assert.ErrorIs(t, err, boom)
}

func TestFile_GivesUpWhenAllNamesTaken(t *testing.T) {
	_, err := NewFile(failingBlobs{err: blob.ErrExist}).Write(context.Background(), sampleBatch())
	assert.ErrorContains(t, err, "no free name")
}

func TestNull(t *testing.T) {
	receipt, err := Null{}.Write(context.Background(), sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, "none", receipt.Sink)
	assert.Equal(t, 1, receipt.Written)
}
