package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs-freight/forwarding-api/internal/models"
)

func TestClearanceRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClearanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "job_ref", "job_type", "status"}).
		AddRow("clr-1", 26002, "import", models.ClearanceStatusAwaitingEntry)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM custom_clearances WHERE id = $1`)).
		WithArgs("clr-1").
		WillReturnRows(rows)

	clearance, err := repo.FindByID(context.Background(), "clr-1")
	require.NoError(t, err)
	assert.Equal(t, 26002, clearance.JobRef)
	assert.Equal(t, models.JobTypeImport, clearance.JobType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearanceRepositoryDeleteStandalone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClearanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM custom_clearances WHERE id = $1`)).
		WithArgs("clr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), &models.CustomClearance{ID: "clr-1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearanceRepositoryDeleteDerivedClearsShipmentLink(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClearanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE import_shipments SET linked_clearance_id = NULL WHERE id = $1`)).
		WithArgs("imp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM custom_clearances WHERE id = $1`)).
		WithArgs("clr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	fromType := string(models.EntityImportShipment)
	shipmentID := "imp-1"
	clearance := &models.CustomClearance{ID: "clr-1", CreatedFromType: &fromType, CreatedFromID: &shipmentID}

	require.NoError(t, repo.Delete(context.Background(), clearance))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearanceRepositoryDeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClearanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM custom_clearances WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), &models.CustomClearance{ID: "missing"})
	assert.ErrorIs(t, err, ErrNoRowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearanceRepositoryUpdateIndicatorNullable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClearanceRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE custom_clearances SET send_haulier_ead_status_indicator = $1, send_haulier_ead_status_time = $2, updated_at = $2 WHERE id = $3`)).
		WithArgs(nil, at, "clr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateIndicator(context.Background(), "clr-1", models.IndicatorSendHaulierEad, nil, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearanceRepositoryUpdateIndicatorNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClearanceRepository(db)

	at := time.Now().UTC()
	value := models.StatusIndicatorDone
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE custom_clearances SET send_entry_to_customer_status_indicator = $1, send_entry_to_customer_status_time = $2, updated_at = $2 WHERE id = $3`)).
		WithArgs(value, at, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateIndicator(context.Background(), "missing", models.IndicatorSendEntryToCustomer, &value, at)
	assert.ErrorIs(t, err, ErrNoRowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearanceRepositoryPropagateAdviseAgentStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClearanceRepository(db)

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE custom_clearances SET advise_agent_status_indicator = $1, advise_agent_status_time = $2, updated_at = $2 WHERE id = $3`)).
		WithArgs(models.StatusIndicatorDone, at, "clr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE import_shipments SET clearance_status_indicator = $1, clearance_status_time = $2, updated_at = $2 WHERE id = $3`)).
		WithArgs(models.StatusIndicatorDone, at, "imp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.PropagateAdviseAgentStatus(context.Background(), "clr-1", "imp-1", models.StatusIndicatorDone, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearanceRepositoryListByJobType(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClearanceRepository(db)

	jobType := models.JobTypeImport
	rows := sqlmock.NewRows([]string{"id", "job_ref", "job_type"}).
		AddRow("clr-1", 26002, "import")
	mock.ExpectQuery(`SELECT \* FROM custom_clearances WHERE 1=1 AND job_type = \$1 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs(jobType).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM custom_clearances WHERE 1=1 AND job_type = \$1`).
		WithArgs(jobType).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	clearances, total, err := repo.List(context.Background(), models.CustomClearanceFilter{JobType: &jobType})
	require.NoError(t, err)
	assert.Len(t, clearances, 1)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
