package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs-freight/forwarding-api/internal/models"
	"github.com/rs-freight/forwarding-api/internal/repository"
	"github.com/rs-freight/forwarding-api/internal/service"
)

type jobFileStoreStub struct {
	group *models.JobFileGroup
}

func (s *jobFileStoreStub) FindByJobRef(ctx context.Context, jobRef int) (*models.JobFileGroup, error) {
	if s.group == nil || s.group.JobRef != jobRef {
		return nil, sql.ErrNoRows
	}
	return s.group, nil
}

func (s *jobFileStoreStub) Create(ctx context.Context, group *models.JobFileGroup) error { return nil }

func (s *jobFileStoreStub) Update(ctx context.Context, group *models.JobFileGroup) error { return nil }

func (s *jobFileStoreStub) SyncDocuments(ctx context.Context, group *models.JobFileGroup, mirror *models.EntityRef) error {
	return nil
}

func (s *jobFileStoreStub) ListEntityDocuments(ctx context.Context) ([]repository.JobDocuments, error) {
	return nil, nil
}

func newJobFileHandler(store *jobFileStoreStub, backfillEnabled bool) *JobFileHandler {
	return NewJobFileHandler(service.NewJobFileService(store, nil, nil, nil, backfillEnabled, nil))
}

func TestJobFileHandlerGet(t *testing.T) {
	h := newJobFileHandler(&jobFileStoreStub{group: &models.JobFileGroup{
		ID:        "grp-1",
		JobRef:    26001,
		Documents: models.DocumentList{{FileName: "invoice.pdf", Key: "k1"}},
	}}, true)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/job-files/26001", nil)
	c.Params = gin.Params{{Key: "jobRef", Value: "26001"}}
	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.JobFileGroup `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 26001, envelope.Data.JobRef)
	require.Len(t, envelope.Data.Documents, 1)
}

func TestJobFileHandlerGetNonNumericRef(t *testing.T) {
	h := newJobFileHandler(&jobFileStoreStub{}, true)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/job-files/abc", nil)
	c.Params = gin.Params{{Key: "jobRef", Value: "abc"}}
	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobFileHandlerGetNotFound(t *testing.T) {
	h := newJobFileHandler(&jobFileStoreStub{}, true)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/job-files/26001", nil)
	c.Params = gin.Params{{Key: "jobRef", Value: "26001"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobFileHandlerBackfillDisabled(t *testing.T) {
	h := newJobFileHandler(&jobFileStoreStub{}, false)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/job-files/backfill", nil)
	h.Backfill(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
