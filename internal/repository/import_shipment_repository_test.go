package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs-freight/forwarding-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { _ = sqlxDB.Close() })
	return sqlxDB, mock
}

func TestImportShipmentRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "job_ref", "rs_to_clear"}).
		AddRow("imp-1", 26001, true)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM import_shipments WHERE id = $1`)).
		WithArgs("imp-1").
		WillReturnRows(rows)

	shipment, err := repo.FindByID(context.Background(), "imp-1")
	require.NoError(t, err)
	assert.Equal(t, 26001, shipment.JobRef)
	assert.True(t, shipment.RSToClear)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportShipmentRepositoryCreateWithClearance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO custom_clearances`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO import_shipments`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	clearanceID := "clr-1"
	shipment := &models.ImportShipment{ID: "imp-1", JobRef: 26001, RSToClear: true, LinkedClearanceID: &clearanceID}
	clearance := &models.CustomClearance{ID: clearanceID, JobRef: 26002, JobType: models.JobTypeImport}

	require.NoError(t, repo.CreateWithClearance(context.Background(), shipment, clearance))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportShipmentRepositoryCreateWithClearanceRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO custom_clearances`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateWithClearance(context.Background(), &models.ImportShipment{ID: "imp-1"}, &models.CustomClearance{ID: "clr-1"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportShipmentRepositoryDeleteCascadesClearance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM custom_clearances WHERE id = $1`)).
		WithArgs("clr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM import_shipments WHERE id = $1`)).
		WithArgs("imp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	clearanceID := "clr-1"
	require.NoError(t, repo.Delete(context.Background(), "imp-1", &clearanceID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportShipmentRepositoryDeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM import_shipments WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrNoRowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportShipmentRepositoryUpdateIndicator(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE import_shipments SET delivery_booked_status_indicator = $1, delivery_booked_status_time = $2, updated_at = $2 WHERE id = $3`)).
		WithArgs(models.StatusIndicatorDone, at, "imp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateIndicator(context.Background(), "imp-1", models.IndicatorDeliveryBooked, models.StatusIndicatorDone, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportShipmentRepositoryUpdateIndicatorUnknown(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	err := repo.UpdateIndicator(context.Background(), "imp-1", "bogus", models.StatusIndicatorDone, time.Now())
	require.Error(t, err)
}

func TestImportShipmentRepositoryPropagateClearanceStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE import_shipments SET clearance_status_indicator = $1, clearance_status_time = $2, updated_at = $2 WHERE id = $3`)).
		WithArgs(models.StatusIndicatorInProgress, at, "imp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE custom_clearances SET advise_agent_status_indicator = $1, advise_agent_status_time = $2, updated_at = $2 WHERE id = $3`)).
		WithArgs(models.StatusIndicatorInProgress, at, "clr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.PropagateClearanceStatus(context.Background(), "imp-1", "clr-1", models.StatusIndicatorInProgress, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportShipmentRepositoryMaxJobRef(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(job_ref), 0) FROM import_shipments`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(26010))

	max, err := repo.MaxJobRef(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 26010, max)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportShipmentRepositoryList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportShipmentRepository(db)

	jobRef := 26001
	rows := sqlmock.NewRows([]string{"id", "job_ref"}).AddRow("imp-1", 26001)
	mock.ExpectQuery(`SELECT \* FROM import_shipments WHERE 1=1 AND job_ref = \$1 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs(jobRef).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM import_shipments WHERE 1=1 AND job_ref = \$1`).
		WithArgs(jobRef).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	shipments, total, err := repo.List(context.Background(), models.ImportShipmentFilter{JobRef: &jobRef})
	require.NoError(t, err)
	assert.Len(t, shipments, 1)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
