package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/law-makers/sismos/pkg/models"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *TableStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewTableStoreWithPool(mock, "")
	require.NoError(t, err)
	return mock, store
}

func TestNewTableStoreWithPool_Validation(t *testing.T) {
	_, err := NewTableStoreWithPool(nil, "sismos")
	assert.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewTableStoreWithPool(mock, "sismos; DROP TABLE x")
	assert.Error(t, err)

	store, err := NewTableStoreWithPool(mock, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTable, store.Location())
}

func TestNewTableStore_RequiresDSN(t *testing.T) {
	_, err := NewTableStore(context.Background(), Config{})
	assert.Error(t, err)
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	mock, store := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sismos_igp").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClear_ScansThenDeletesIDs(t *testing.T) {
	t.Parallel()
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT id FROM sismos_igp").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))
	mock.ExpectExec("DELETE FROM sismos_igp").
		WithArgs([]string{"a", "b"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err := store.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClear_EmptyTableSkipsDelete(t *testing.T) {
	t.Parallel()
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT id FROM sismos_igp").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	n, err := store.Clear(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClear_QueryError(t *testing.T) {
	t.Parallel()
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT id FROM sismos_igp").WillReturnError(errors.New("connection reset"))

	_, err := store.Clear(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestBulkWrite_CopiesRecords(t *testing.T) {
	t.Parallel()
	mock, store := newMockStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"sismos_igp"}, columns).WillReturnResult(2)

	records := []models.Record{
		{ID: "a", ReportCode: "N001", ReportType: "Reporte Sismico"},
		{ID: "b", ReportCode: "N002", ReportType: "Reporte Sismico"},
	}
	n, err := store.BulkWrite(context.Background(), records, time.Unix(1700000000, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkWrite_Empty(t *testing.T) {
	t.Parallel()
	mock, store := newMockStore(t)

	n, err := store.BulkWrite(context.Background(), nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
