package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rs-freight/forwarding-api/internal/dto"
	"github.com/rs-freight/forwarding-api/internal/models"
	"github.com/rs-freight/forwarding-api/internal/repository"
	appErrors "github.com/rs-freight/forwarding-api/pkg/errors"
	"github.com/rs-freight/forwarding-api/pkg/jobs"
)

type jobFileGroupStore interface {
	FindByJobRef(ctx context.Context, jobRef int) (*models.JobFileGroup, error)
	Create(ctx context.Context, group *models.JobFileGroup) error
	Update(ctx context.Context, group *models.JobFileGroup) error
	SyncDocuments(ctx context.Context, group *models.JobFileGroup, mirror *models.EntityRef) error
	ListEntityDocuments(ctx context.Context) ([]repository.JobDocuments, error)
}

type documentSigner interface {
	Generate(jobRef, fileKey string) (string, time.Time, error)
}

// DocumentSyncPayload carries one document pool replacement. Counterpart is
// the linked record that mirrors the pool; it lives under its own job
// reference, so it is addressed by id.
type DocumentSyncPayload struct {
	JobRef      int
	Documents   models.DocumentList
	Source      models.EntityType
	SourceID    string
	Counterpart *models.EntityRef
}

// JobFileService aggregates per-job document pools, issues signed download
// links and owns the historical backfill. Pool replacements from entity
// writes apply synchronously; only the backfill fans out over a worker pool.
type JobFileService struct {
	repo            jobFileGroupStore
	signer          documentSigner
	cache           *CacheService
	audit           *AuditService
	pool            *jobs.Pool
	backfillEnabled bool
	logger          *zap.Logger
}

// NewJobFileService constructs a JobFileService.
func NewJobFileService(repo jobFileGroupStore, signer documentSigner, cache *CacheService, audit *AuditService, backfillEnabled bool, logger *zap.Logger) *JobFileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobFileService{
		repo:            repo,
		signer:          signer,
		cache:           cache,
		audit:           audit,
		backfillEnabled: backfillEnabled,
		logger:          logger,
	}
}

// AttachPool sets the worker pool the backfill runs on. Without one the
// backfill processes job references sequentially.
func (s *JobFileService) AttachPool(pool *jobs.Pool) {
	s.pool = pool
}

// Group returns the document pool for a job reference.
func (s *JobFileService) Group(ctx context.Context, jobRef int) (*models.JobFileGroup, error) {
	cacheKey := jobFileCacheKey(jobRef)
	var cached models.JobFileGroup
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	group, err := s.repo.FindByJobRef(ctx, jobRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no job files for job ref %d", jobRef))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "fetch job files")
	}

	_ = s.cache.Set(ctx, cacheKey, group, 0)
	return group, nil
}

// DocumentLinks returns signed download links for every document of a job.
func (s *JobFileService) DocumentLinks(ctx context.Context, jobRef int) ([]dto.DocumentLink, error) {
	group, err := s.Group(ctx, jobRef)
	if err != nil {
		return nil, err
	}

	links := make([]dto.DocumentLink, 0, len(group.Documents))
	for _, doc := range group.Documents {
		token, expiresAt, err := s.signer.Generate(strconv.Itoa(jobRef), doc.Key)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign document link")
		}
		links = append(links, dto.DocumentLink{
			FileName:  doc.FileName,
			Token:     token,
			ExpiresAt: expiresAt,
		})
	}
	return links, nil
}

// ApplySync replaces the document pool for one job with the list exactly as
// supplied and overwrites the linked counterpart's list in the same
// transaction. The entity row the list came from was already written by the
// caller.
func (s *JobFileService) ApplySync(ctx context.Context, payload DocumentSyncPayload) error {
	now := time.Now().UTC()
	group := &models.JobFileGroup{
		ID:        uuid.NewString(),
		JobRef:    payload.JobRef,
		Documents: payload.Documents,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.repo.FindByJobRef(ctx, payload.JobRef); err == nil {
		group.RSInvoices = existing.RSInvoices
	}

	if err := s.repo.SyncDocuments(ctx, group, payload.Counterpart); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sync job documents")
	}

	s.audit.Record(ctx, models.AuditActionJobFilesOverwrite, "job_file_groups", group.ID, nil, group)
	_ = s.cache.Invalidate(ctx, jobFileCacheKey(payload.JobRef))
	return nil
}

// Backfill builds or repairs groups for every job reference found across the
// entity tables. Documents are merged with set semantics so repeated runs are
// idempotent. Job references fan out over the attached worker pool.
func (s *JobFileService) Backfill(ctx context.Context) (*dto.BackfillResult, error) {
	if !s.backfillEnabled {
		return nil, appErrors.ErrBackfillDisabled
	}

	rows, err := s.repo.ListEntityDocuments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "collect entity documents")
	}

	merged := make(map[int]models.DocumentList)
	for _, row := range rows {
		merged[row.JobRef] = append(merged[row.JobRef], row.Documents...)
	}

	refs := make([]int, 0, len(merged))
	for ref := range merged {
		refs = append(refs, ref)
	}
	sort.Ints(refs)

	var mu sync.Mutex
	result := &dto.BackfillResult{JobRefsSeen: len(refs)}

	tasks := make([]jobs.Task, 0, len(refs))
	for _, ref := range refs {
		ref := ref
		docs := dedupeDocuments(merged[ref])
		tasks = append(tasks, jobs.Task{
			Name: fmt.Sprintf("backfill-%d", ref),
			Run: func(ctx context.Context) error {
				created, total, err := s.backfillGroup(ctx, ref, docs)
				if err != nil {
					return err
				}
				mu.Lock()
				if created {
					result.GroupsCreated++
				} else {
					result.GroupsUpdated++
				}
				result.DocumentsTotal += total
				mu.Unlock()
				return nil
			},
		})
	}

	if err := s.runTasks(ctx, tasks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "backfill job files")
	}

	s.audit.Record(ctx, models.AuditActionJobFilesBackfill, "job_file_groups", "", nil, result)
	_ = s.cache.Invalidate(ctx, "job-files:*")
	s.logger.Info("job file backfill complete",
		zap.Int("job_refs", result.JobRefsSeen),
		zap.Int("created", result.GroupsCreated),
		zap.Int("updated", result.GroupsUpdated))
	return result, nil
}

func (s *JobFileService) runTasks(ctx context.Context, tasks []jobs.Task) error {
	if s.pool != nil {
		return s.pool.Run(ctx, tasks)
	}
	for _, task := range tasks {
		if err := task.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// backfillGroup merges one job's collected documents into its group, creating
// the row when none exists. Returns whether a row was created and the final
// document count.
func (s *JobFileService) backfillGroup(ctx context.Context, ref int, docs models.DocumentList) (bool, int, error) {
	now := time.Now().UTC()

	existing, err := s.repo.FindByJobRef(ctx, ref)
	switch {
	case err == nil:
		existing.Documents = dedupeDocuments(append(existing.Documents, docs...))
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return false, 0, fmt.Errorf("update job file group: %w", err)
		}
		return false, len(existing.Documents), nil
	case errors.Is(err, sql.ErrNoRows):
		group := &models.JobFileGroup{
			ID:        uuid.NewString(),
			JobRef:    ref,
			Documents: docs,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(ctx, group); err != nil {
			return false, 0, fmt.Errorf("create job file group: %w", err)
		}
		return true, len(docs), nil
	default:
		return false, 0, fmt.Errorf("fetch job file group: %w", err)
	}
}

func jobFileCacheKey(jobRef int) string {
	return fmt.Sprintf("job-files:%d", jobRef)
}

// dedupeDocuments keeps the first occurrence of each document key while
// preserving order. Documents without a key fall back to the file name. Only
// the backfill merge dedupes; live pool writes keep the list as supplied.
func dedupeDocuments(docs models.DocumentList) models.DocumentList {
	seen := make(map[string]struct{}, len(docs))
	out := make(models.DocumentList, 0, len(docs))
	for _, doc := range docs {
		key := doc.Key
		if key == "" {
			key = doc.FileName
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, doc)
	}
	return out
}
