package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rs-freight/forwarding-api/internal/models"
)

const jobFileGroupInsert = `
INSERT INTO job_file_groups (id, job_ref, documents, rs_invoices, created_at, updated_at)
VALUES (:id, :job_ref, :documents, :rs_invoices, :created_at, :updated_at)`

const jobFileGroupUpdate = `
UPDATE job_file_groups SET documents = :documents, rs_invoices = :rs_invoices, updated_at = :updated_at
WHERE job_ref = :job_ref`

// JobDocuments is one job's document list as read from an entity table during
// backfill.
type JobDocuments struct {
	JobRef    int                 `db:"job_ref"`
	Documents models.DocumentList `db:"documents"`
}

// JobFileGroupRepository manages the per-job document pools and keeps linked
// entity document columns in step with them.
type JobFileGroupRepository struct {
	db *sqlx.DB
}

// NewJobFileGroupRepository constructs a JobFileGroupRepository.
func NewJobFileGroupRepository(db *sqlx.DB) *JobFileGroupRepository {
	return &JobFileGroupRepository{db: db}
}

// FindByJobRef fetches the group for a job reference.
func (r *JobFileGroupRepository) FindByJobRef(ctx context.Context, jobRef int) (*models.JobFileGroup, error) {
	const query = `SELECT * FROM job_file_groups WHERE job_ref = $1`
	var group models.JobFileGroup
	if err := r.db.GetContext(ctx, &group, query, jobRef); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create inserts a group row.
func (r *JobFileGroupRepository) Create(ctx context.Context, group *models.JobFileGroup) error {
	if _, err := r.db.NamedExecContext(ctx, jobFileGroupInsert, group); err != nil {
		return fmt.Errorf("insert job file group: %w", err)
	}
	return nil
}

// Update rewrites the document pools of a group.
func (r *JobFileGroupRepository) Update(ctx context.Context, group *models.JobFileGroup) error {
	if _, err := r.db.NamedExecContext(ctx, jobFileGroupUpdate, group); err != nil {
		return fmt.Errorf("update job file group: %w", err)
	}
	return nil
}

// SyncDocuments replaces the group's document pool and overwrites the linked
// counterpart's list when one is given. A derived clearance holds its own job
// reference, so the counterpart is addressed by id. The group row is locked
// for the duration so concurrent writers to the same job serialize.
func (r *JobFileGroupRepository) SyncDocuments(ctx context.Context, group *models.JobFileGroup, mirror *models.EntityRef) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin document sync: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existingID string
	err = tx.GetContext(ctx, &existingID, `SELECT id FROM job_file_groups WHERE job_ref = $1 FOR UPDATE`, group.JobRef)
	switch {
	case err == nil:
		group.ID = existingID
		if _, err = tx.NamedExecContext(ctx, jobFileGroupUpdate, group); err != nil {
			return fmt.Errorf("update job file group: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		if _, err = tx.NamedExecContext(ctx, jobFileGroupInsert, group); err != nil {
			return fmt.Errorf("insert job file group: %w", err)
		}
	default:
		return fmt.Errorf("lock job file group: %w", err)
	}

	if mirror != nil {
		var query string
		switch mirror.Type {
		case models.EntityImportShipment:
			query = `UPDATE import_shipments SET attachments = $1, updated_at = $2 WHERE id = $3`
		case models.EntityExportShipment:
			query = `UPDATE export_shipments SET attachments = $1, updated_at = $2 WHERE id = $3`
		case models.EntityCustomClearance:
			query = `UPDATE custom_clearances SET transport_documents = $1, updated_at = $2 WHERE id = $3`
		default:
			err = fmt.Errorf("unknown mirror entity %q", mirror.Type)
			return err
		}
		if _, err = tx.ExecContext(ctx, query, group.Documents, time.Now().UTC(), mirror.ID); err != nil {
			return fmt.Errorf("mirror documents to %s: %w", mirror.Type, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit document sync: %w", err)
	}
	return nil
}

// ListEntityDocuments reads every job reference and its document list across
// the three entity tables. Rows with empty lists are included so backfill can
// still create a group for the job.
func (r *JobFileGroupRepository) ListEntityDocuments(ctx context.Context) ([]JobDocuments, error) {
	const query = `
SELECT job_ref, attachments AS documents FROM import_shipments
UNION ALL
SELECT job_ref, attachments AS documents FROM export_shipments
UNION ALL
SELECT job_ref, transport_documents AS documents FROM custom_clearances`
	var rows []JobDocuments
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list entity documents: %w", err)
	}
	return rows, nil
}

// ListGroupedJobRefs returns the job references that already have a group.
func (r *JobFileGroupRepository) ListGroupedJobRefs(ctx context.Context) ([]int, error) {
	var refs []int
	if err := r.db.SelectContext(ctx, &refs, `SELECT job_ref FROM job_file_groups`); err != nil {
		return nil, fmt.Errorf("list grouped job refs: %w", err)
	}
	return refs, nil
}

// MaxJobRef returns the highest job reference present, or zero on an empty table.
func (r *JobFileGroupRepository) MaxJobRef(ctx context.Context) (int, error) {
	var max int
	if err := r.db.GetContext(ctx, &max, `SELECT COALESCE(MAX(job_ref), 0) FROM job_file_groups`); err != nil {
		return 0, fmt.Errorf("max job file group job ref: %w", err)
	}
	return max, nil
}
