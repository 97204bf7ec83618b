package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rs-freight/forwarding-api/internal/models"
)

const clearanceInsert = `
INSERT INTO custom_clearances (
	id, job_ref, job_type, status, created_from_type, created_from_id,
	customer_id, receiver_id, customer_ref, supplier_name, eta,
	container_number, trailer_number, departure_country, vessel,
	pieces, weight, cube, goods_description,
	invoice_value, transport_cost, clearance_charge, currency,
	additional_commodity_codes, additional_commodity_code_charge,
	vat_zero_rated, clearance_type, transport_documents,
	advise_agent_status_indicator, send_haulier_ead_status_indicator,
	send_haulier_clearance_doc_status_indicator,
	send_entry_to_customer_status_indicator,
	invoice_customer_status_indicator, send_cleared_entry_status_indicator,
	created_at, updated_at
) VALUES (
	:id, :job_ref, :job_type, :status, :created_from_type, :created_from_id,
	:customer_id, :receiver_id, :customer_ref, :supplier_name, :eta,
	:container_number, :trailer_number, :departure_country, :vessel,
	:pieces, :weight, :cube, :goods_description,
	:invoice_value, :transport_cost, :clearance_charge, :currency,
	:additional_commodity_codes, :additional_commodity_code_charge,
	:vat_zero_rated, :clearance_type, :transport_documents,
	:advise_agent_status_indicator, :send_haulier_ead_status_indicator,
	:send_haulier_clearance_doc_status_indicator,
	:send_entry_to_customer_status_indicator,
	:invoice_customer_status_indicator, :send_cleared_entry_status_indicator,
	:created_at, :updated_at
)`

const clearanceUpdate = `
UPDATE custom_clearances SET
	status = :status,
	customer_id = :customer_id,
	receiver_id = :receiver_id,
	customer_ref = :customer_ref,
	supplier_name = :supplier_name,
	eta = :eta,
	container_number = :container_number,
	trailer_number = :trailer_number,
	departure_country = :departure_country,
	vessel = :vessel,
	pieces = :pieces,
	weight = :weight,
	cube = :cube,
	goods_description = :goods_description,
	invoice_value = :invoice_value,
	transport_cost = :transport_cost,
	clearance_charge = :clearance_charge,
	currency = :currency,
	additional_commodity_codes = :additional_commodity_codes,
	additional_commodity_code_charge = :additional_commodity_code_charge,
	vat_zero_rated = :vat_zero_rated,
	clearance_type = :clearance_type,
	transport_documents = :transport_documents,
	updated_at = :updated_at
WHERE id = :id`

// ClearanceRepository manages persistence for custom clearances, including
// the reverse status propagation onto a source import shipment.
type ClearanceRepository struct {
	db *sqlx.DB
}

// NewClearanceRepository constructs a ClearanceRepository.
func NewClearanceRepository(db *sqlx.DB) *ClearanceRepository {
	return &ClearanceRepository{db: db}
}

// Create inserts a clearance record.
func (r *ClearanceRepository) Create(ctx context.Context, clearance *models.CustomClearance) error {
	if _, err := r.db.NamedExecContext(ctx, clearanceInsert, clearance); err != nil {
		return fmt.Errorf("insert clearance: %w", err)
	}
	return nil
}

// FindByID fetches a clearance by id.
func (r *ClearanceRepository) FindByID(ctx context.Context, id string) (*models.CustomClearance, error) {
	const query = `SELECT * FROM custom_clearances WHERE id = $1`
	var clearance models.CustomClearance
	if err := r.db.GetContext(ctx, &clearance, query, id); err != nil {
		return nil, err
	}
	return &clearance, nil
}

// List returns clearances matching filters along with total count.
func (r *ClearanceRepository) List(ctx context.Context, filter models.CustomClearanceFilter) ([]models.CustomClearance, int, error) {
	base := "FROM custom_clearances WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.JobRef != nil {
		conditions = append(conditions, fmt.Sprintf("job_ref = $%d", len(args)+1))
		args = append(args, *filter.JobRef)
	}
	if filter.JobType != nil {
		conditions = append(conditions, fmt.Sprintf("job_type = $%d", len(args)+1))
		args = append(args, *filter.JobType)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(COALESCE(customer_ref, '')) LIKE $%d OR LOWER(COALESCE(supplier_name, '')) LIKE $%d OR LOWER(COALESCE(container_number, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	column := sortColumn(filter.SortBy, map[string]string{
		"job_ref":    "job_ref",
		"eta":        "eta",
		"status":     "status",
		"created_at": "created_at",
		"updated_at": "updated_at",
	})
	order := sortOrder(filter.SortOrder)
	page, size := pageBounds(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var clearances []models.CustomClearance
	if err := r.db.SelectContext(ctx, &clearances, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list clearances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count clearances: %w", err)
	}

	return clearances, total, nil
}

// Update rewrites the mutable columns of a clearance.
func (r *ClearanceRepository) Update(ctx context.Context, clearance *models.CustomClearance) error {
	if _, err := r.db.NamedExecContext(ctx, clearanceUpdate, clearance); err != nil {
		return fmt.Errorf("update clearance: %w", err)
	}
	return nil
}

// Delete removes a clearance. When the clearance is derived, the source
// shipment's link is cleared in the same transaction.
func (r *ClearanceRepository) Delete(ctx context.Context, clearance *models.CustomClearance) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if clearance.DerivedFromShipment() {
		table, ok := shipmentTables[models.EntityType(*clearance.CreatedFromType)]
		if ok {
			query := fmt.Sprintf(`UPDATE %s SET linked_clearance_id = NULL WHERE id = $1`, table)
			if _, err = tx.ExecContext(ctx, query, *clearance.CreatedFromID); err != nil {
				return fmt.Errorf("clear shipment link: %w", err)
			}
		}
	}
	res, execErr := tx.ExecContext(ctx, `DELETE FROM custom_clearances WHERE id = $1`, clearance.ID)
	if execErr != nil {
		err = fmt.Errorf("delete clearance: %w", execErr)
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		err = ErrNoRowsAffected
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// UpdateIndicator writes a single status indicator and its timestamp. The
// value pointer is stored as-is so optional indicators can be cleared.
func (r *ClearanceRepository) UpdateIndicator(ctx context.Context, id, indicator string, value *int, at time.Time) error {
	column, ok := clearanceIndicatorColumns[indicator]
	if !ok {
		return fmt.Errorf("unknown clearance indicator %q", indicator)
	}
	query := fmt.Sprintf(`UPDATE custom_clearances SET %s_indicator = $1, %s_time = $2, updated_at = $2 WHERE id = $3`, column, column)
	res, err := r.db.ExecContext(ctx, query, value, at, id)
	if err != nil {
		return fmt.Errorf("update clearance indicator %s: %w", indicator, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// PropagateAdviseAgentStatus writes the advise-agent indicator on the
// clearance and mirrors the value back onto the source import shipment's
// clearance indicator in one transaction.
func (r *ClearanceRepository) PropagateAdviseAgentStatus(ctx context.Context, clearanceID, shipmentID string, value int, at time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status propagation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE custom_clearances SET advise_agent_status_indicator = $1, advise_agent_status_time = $2, updated_at = $2 WHERE id = $3`, value, at, clearanceID); err != nil {
		return fmt.Errorf("update advise agent status: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE import_shipments SET clearance_status_indicator = $1, clearance_status_time = $2, updated_at = $2 WHERE id = $3`, value, at, shipmentID); err != nil {
		return fmt.Errorf("mirror shipment clearance status: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit status propagation: %w", err)
	}
	return nil
}

// MaxJobRef returns the highest job reference present, or zero on an empty table.
func (r *ClearanceRepository) MaxJobRef(ctx context.Context) (int, error) {
	var max int
	if err := r.db.GetContext(ctx, &max, `SELECT COALESCE(MAX(job_ref), 0) FROM custom_clearances`); err != nil {
		return 0, fmt.Errorf("max clearance job ref: %w", err)
	}
	return max, nil
}

// clearanceIndicatorColumns maps indicator names to column prefixes.
var clearanceIndicatorColumns = map[string]string{
	models.IndicatorAdviseAgent:             "advise_agent_status",
	models.IndicatorSendHaulierEad:          "send_haulier_ead_status",
	models.IndicatorSendHaulierClearanceDoc: "send_haulier_clearance_doc_status",
	models.IndicatorSendEntryToCustomer:     "send_entry_to_customer_status",
	models.IndicatorInvoiceCustomer:         "invoice_customer_status",
	models.IndicatorSendClearedEntry:        "send_cleared_entry_status",
}

// shipmentTables maps shipment entity types to their tables.
var shipmentTables = map[models.EntityType]string{
	models.EntityImportShipment: "import_shipments",
	models.EntityExportShipment: "export_shipments",
}
