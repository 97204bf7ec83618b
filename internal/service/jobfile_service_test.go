package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs-freight/forwarding-api/internal/models"
	"github.com/rs-freight/forwarding-api/internal/repository"
	appErrors "github.com/rs-freight/forwarding-api/pkg/errors"
	"github.com/rs-freight/forwarding-api/pkg/jobs"
)

type jobFileStoreStub struct {
	groups map[int]*models.JobFileGroup
	rows   []repository.JobDocuments

	synced       *models.JobFileGroup
	syncedMirror *models.EntityRef
	created      []*models.JobFileGroup
	updated      []*models.JobFileGroup
}

func newJobFileStoreStub() *jobFileStoreStub {
	return &jobFileStoreStub{groups: make(map[int]*models.JobFileGroup)}
}

func (s *jobFileStoreStub) FindByJobRef(ctx context.Context, jobRef int) (*models.JobFileGroup, error) {
	group, ok := s.groups[jobRef]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *group
	return &copied, nil
}

func (s *jobFileStoreStub) Create(ctx context.Context, group *models.JobFileGroup) error {
	s.created = append(s.created, group)
	s.groups[group.JobRef] = group
	return nil
}

func (s *jobFileStoreStub) Update(ctx context.Context, group *models.JobFileGroup) error {
	s.updated = append(s.updated, group)
	s.groups[group.JobRef] = group
	return nil
}

func (s *jobFileStoreStub) SyncDocuments(ctx context.Context, group *models.JobFileGroup, mirror *models.EntityRef) error {
	s.synced = group
	s.syncedMirror = mirror
	s.groups[group.JobRef] = group
	return nil
}

func (s *jobFileStoreStub) ListEntityDocuments(ctx context.Context) ([]repository.JobDocuments, error) {
	return s.rows, nil
}

type signerStub struct{}

func (signerStub) Generate(jobRef, fileKey string) (string, time.Time, error) {
	return jobRef + ":" + fileKey, time.Now().Add(time.Hour), nil
}

func newJobFileService(store *jobFileStoreStub, backfillEnabled bool) *JobFileService {
	return NewJobFileService(store, signerStub{}, nil, NewAuditService(&auditRepoStub{}, nil), backfillEnabled, nil)
}

func TestJobFileGroupNotFound(t *testing.T) {
	svc := newJobFileService(newJobFileStoreStub(), true)

	_, err := svc.Group(context.Background(), 26001)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestJobFileDocumentLinks(t *testing.T) {
	store := newJobFileStoreStub()
	store.groups[26001] = &models.JobFileGroup{
		ID:     "grp-1",
		JobRef: 26001,
		Documents: models.DocumentList{
			{FileName: "invoice.pdf", Key: "k1"},
			{FileName: "cmr.pdf", Key: "k2"},
		},
	}
	svc := newJobFileService(store, true)

	links, err := svc.DocumentLinks(context.Background(), 26001)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "invoice.pdf", links[0].FileName)
	assert.Equal(t, "26001:k1", links[0].Token)
	assert.False(t, links[0].ExpiresAt.IsZero())
}

func TestJobFileApplySyncKeepsListAsSupplied(t *testing.T) {
	store := newJobFileStoreStub()
	svc := newJobFileService(store, true)

	// Live pool writes are full replacements; repeated keys survive.
	err := svc.ApplySync(context.Background(), DocumentSyncPayload{
		JobRef: 26001,
		Documents: models.DocumentList{
			{FileName: "invoice.pdf", Key: "k1"},
			{FileName: "invoice-copy.pdf", Key: "k1"},
			{FileName: "cmr.pdf", Key: "k2"},
			{FileName: "packing-list.pdf"},
			{FileName: "packing-list.pdf"},
		},
		Source:   models.EntityImportShipment,
		SourceID: "imp-1",
	})
	require.NoError(t, err)

	require.NotNil(t, store.synced)
	require.Len(t, store.synced.Documents, 5)
	assert.Equal(t, "invoice.pdf", store.synced.Documents[0].FileName)
	assert.Equal(t, "invoice-copy.pdf", store.synced.Documents[1].FileName)
}

func TestJobFileApplySyncPassesCounterpart(t *testing.T) {
	store := newJobFileStoreStub()
	svc := newJobFileService(store, true)

	// The shipment's pool lives under 26001; its derived clearance is a
	// separate job and is only reachable by id.
	err := svc.ApplySync(context.Background(), DocumentSyncPayload{
		JobRef:      26001,
		Documents:   models.DocumentList{{FileName: "invoice.pdf", Key: "k1"}},
		Source:      models.EntityImportShipment,
		SourceID:    "imp-1",
		Counterpart: &models.EntityRef{Type: models.EntityCustomClearance, ID: "clr-1"},
	})
	require.NoError(t, err)

	require.NotNil(t, store.syncedMirror)
	assert.Equal(t, models.EntityCustomClearance, store.syncedMirror.Type)
	assert.Equal(t, "clr-1", store.syncedMirror.ID)
}

func TestJobFileApplySyncPreservesInvoices(t *testing.T) {
	store := newJobFileStoreStub()
	store.groups[26001] = &models.JobFileGroup{
		ID:         "grp-1",
		JobRef:     26001,
		RSInvoices: models.DocumentList{{FileName: "rs-invoice.pdf", Key: "inv1"}},
	}
	svc := newJobFileService(store, true)

	err := svc.ApplySync(context.Background(), DocumentSyncPayload{
		JobRef:    26001,
		Documents: models.DocumentList{{FileName: "cmr.pdf", Key: "k2"}},
		Source:    models.EntityCustomClearance,
		SourceID:  "clr-1",
	})
	require.NoError(t, err)

	require.NotNil(t, store.synced)
	require.Len(t, store.synced.RSInvoices, 1)
	assert.Equal(t, "rs-invoice.pdf", store.synced.RSInvoices[0].FileName)
}

func TestJobFileBackfillDisabled(t *testing.T) {
	svc := newJobFileService(newJobFileStoreStub(), false)

	_, err := svc.Backfill(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBackfillDisabled.Code, appErrors.FromError(err).Code)
}

func TestJobFileBackfillCreatesAndUpdates(t *testing.T) {
	store := newJobFileStoreStub()
	store.groups[26001] = &models.JobFileGroup{
		ID:        "grp-1",
		JobRef:    26001,
		Documents: models.DocumentList{{FileName: "invoice.pdf", Key: "k1"}},
	}
	store.rows = []repository.JobDocuments{
		{JobRef: 26001, Documents: models.DocumentList{{FileName: "invoice.pdf", Key: "k1"}}},
		{JobRef: 26001, Documents: models.DocumentList{{FileName: "cmr.pdf", Key: "k2"}}},
		{JobRef: 26002, Documents: models.DocumentList{{FileName: "t1.pdf", Key: "k3"}}},
	}
	svc := newJobFileService(store, true)

	result, err := svc.Backfill(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.JobRefsSeen)
	assert.Equal(t, 1, result.GroupsCreated)
	assert.Equal(t, 1, result.GroupsUpdated)
	assert.Equal(t, 3, result.DocumentsTotal)

	// The existing group merged the new document without duplicating k1.
	require.Len(t, store.updated, 1)
	assert.Len(t, store.updated[0].Documents, 2)

	require.Len(t, store.created, 1)
	assert.Equal(t, 26002, store.created[0].JobRef)
}

func TestJobFileBackfillRunsOnPool(t *testing.T) {
	store := newJobFileStoreStub()
	store.rows = []repository.JobDocuments{
		{JobRef: 26001, Documents: models.DocumentList{{FileName: "invoice.pdf", Key: "k1"}}},
		{JobRef: 26002, Documents: models.DocumentList{{FileName: "cmr.pdf", Key: "k2"}}},
	}
	svc := newJobFileService(store, true)
	svc.AttachPool(jobs.NewPool(1, 0, nil))

	result, err := svc.Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.JobRefsSeen)
	assert.Equal(t, 2, result.GroupsCreated)
}

func TestJobFileBackfillIdempotent(t *testing.T) {
	store := newJobFileStoreStub()
	store.rows = []repository.JobDocuments{
		{JobRef: 26001, Documents: models.DocumentList{{FileName: "invoice.pdf", Key: "k1"}}},
	}
	svc := newJobFileService(store, true)

	first, err := svc.Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.GroupsCreated)

	second, err := svc.Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.GroupsCreated)
	assert.Equal(t, 1, second.GroupsUpdated)
	assert.Equal(t, 1, second.DocumentsTotal)
}
