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

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnResult(sqlmock.NewResult(0, 1))

	log := &models.AuditLog{
		ID:        "log-1",
		Action:    models.AuditActionClearanceAutoCreate,
		Resource:  "custom_clearances",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), log))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListByResource(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)

	rows := sqlmock.NewRows([]string{"id", "action", "resource"}).
		AddRow("log-2", models.AuditActionStatusPropagate, "custom_clearances").
		AddRow("log-1", models.AuditActionClearanceAutoCreate, "custom_clearances")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM audit_logs WHERE resource = $1 AND resource_id = $2 ORDER BY created_at DESC LIMIT $3`)).
		WithArgs("custom_clearances", "clr-1", 50).
		WillReturnRows(rows)

	logs, err := repo.ListByResource(context.Background(), "custom_clearances", "clr-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditActionStatusPropagate, logs[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}
