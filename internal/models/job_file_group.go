package models

import "time"

// JobFileGroup holds the shared document pool for a job reference. At most one
// row exists per job_ref (unique constraint); it is the source of truth for
// the files belonging to a job even though linked entities mirror the list.
type JobFileGroup struct {
	ID         string       `db:"id" json:"id"`
	JobRef     int          `db:"job_ref" json:"job_ref"`
	Documents  DocumentList `db:"documents" json:"documents"`
	RSInvoices DocumentList `db:"rs_invoices" json:"rs_invoices"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// EntityType identifies which table a job-like record lives in.
type EntityType string

const (
	EntityImportShipment  EntityType = "import"
	EntityExportShipment  EntityType = "export"
	EntityCustomClearance EntityType = "clearance"
)

// EntityRef addresses one job-like record. Linked records carry their own job
// references, so cross-record writes go by id, never by job_ref.
type EntityRef struct {
	Type EntityType
	ID   string
}
