package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs-freight/forwarding-api/internal/models"
)

func TestJobFileGroupRepositoryFindByJobRef(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobFileGroupRepository(db)

	rows := sqlmock.NewRows([]string{"id", "job_ref", "documents"}).
		AddRow("grp-1", 26001, []byte(`[{"file_name":"invoice.pdf","key":"k1"}]`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM job_file_groups WHERE job_ref = $1`)).
		WithArgs(26001).
		WillReturnRows(rows)

	group, err := repo.FindByJobRef(context.Background(), 26001)
	require.NoError(t, err)
	assert.Equal(t, 26001, group.JobRef)
	require.Len(t, group.Documents, 1)
	assert.Equal(t, "invoice.pdf", group.Documents[0].FileName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobFileGroupRepositorySyncDocumentsExistingGroup(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobFileGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job_file_groups WHERE job_ref = $1 FOR UPDATE`)).
		WithArgs(26001).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("grp-existing"))
	mock.ExpectExec(`UPDATE job_file_groups SET documents =`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	group := &models.JobFileGroup{
		ID:        "grp-new",
		JobRef:    26001,
		Documents: models.DocumentList{{FileName: "invoice.pdf", Key: "k1"}},
	}
	require.NoError(t, repo.SyncDocuments(context.Background(), group, nil))

	// The pre-generated id is replaced by the locked row's id.
	assert.Equal(t, "grp-existing", group.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobFileGroupRepositorySyncDocumentsMirrorsLinkedClearance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobFileGroupRepository(db)

	// The shipment's pool sits under job ref 26001 while the derived
	// clearance was minted as job 26002; the mirror write must go by id.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job_file_groups WHERE job_ref = $1 FOR UPDATE`)).
		WithArgs(26001).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("grp-1"))
	mock.ExpectExec(`UPDATE job_file_groups SET documents =`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE custom_clearances SET transport_documents = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "clr-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	group := &models.JobFileGroup{
		ID:        "grp-1",
		JobRef:    26001,
		Documents: models.DocumentList{{FileName: "invoice.pdf", Key: "k1"}},
	}
	mirror := &models.EntityRef{Type: models.EntityCustomClearance, ID: "clr-2"}
	require.NoError(t, repo.SyncDocuments(context.Background(), group, mirror))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobFileGroupRepositorySyncDocumentsMirrorsSourceShipment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobFileGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job_file_groups WHERE job_ref = $1 FOR UPDATE`)).
		WithArgs(26002).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("grp-2"))
	mock.ExpectExec(`UPDATE job_file_groups SET documents =`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE import_shipments SET attachments = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "imp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	group := &models.JobFileGroup{
		ID:        "grp-2",
		JobRef:    26002,
		Documents: models.DocumentList{{FileName: "t1.pdf", Key: "k3"}},
	}
	mirror := &models.EntityRef{Type: models.EntityImportShipment, ID: "imp-1"}
	require.NoError(t, repo.SyncDocuments(context.Background(), group, mirror))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobFileGroupRepositorySyncDocumentsNewGroup(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobFileGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job_file_groups WHERE job_ref = $1 FOR UPDATE`)).
		WithArgs(26005).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO job_file_groups`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	group := &models.JobFileGroup{
		ID:        "grp-1",
		JobRef:    26005,
		Documents: models.DocumentList{{FileName: "cmr.pdf", Key: "k2"}},
	}
	require.NoError(t, repo.SyncDocuments(context.Background(), group, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobFileGroupRepositorySyncDocumentsRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobFileGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job_file_groups WHERE job_ref = $1 FOR UPDATE`)).
		WithArgs(26001).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("grp-1"))
	mock.ExpectExec(`UPDATE job_file_groups SET documents =`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	group := &models.JobFileGroup{ID: "grp-1", JobRef: 26001}
	err := repo.SyncDocuments(context.Background(), group, &models.EntityRef{Type: models.EntityImportShipment, ID: "imp-1"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobFileGroupRepositoryListEntityDocuments(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobFileGroupRepository(db)

	rows := sqlmock.NewRows([]string{"job_ref", "documents"}).
		AddRow(26001, []byte(`[{"file_name":"invoice.pdf","key":"k1"}]`)).
		AddRow(26002, []byte(`[]`))
	mock.ExpectQuery(`SELECT job_ref, attachments AS documents FROM import_shipments`).
		WillReturnRows(rows)

	docs, err := repo.ListEntityDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 26001, docs[0].JobRef)
	assert.Len(t, docs[0].Documents, 1)
	assert.Empty(t, docs[1].Documents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobFileGroupRepositoryMaxJobRef(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobFileGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(job_ref), 0) FROM job_file_groups`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	max, err := repo.MaxJobRef(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, max)
	require.NoError(t, mock.ExpectationsWereMet())
}
