package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rs-freight/forwarding-api/internal/models"
)

const exportShipmentInsert = `
INSERT INTO export_shipments (
	id, job_ref, clearance_agent, linked_clearance_id,
	destination_customer_id, receiver_id, customer_ref, supplier,
	booking_date, trailer_number, departure_from,
	pieces, weight, cube, goods_description,
	value, freight_rate_out, clearance_charge, currency, clearance_type,
	attachments, expenses_to_charge_out,
	haulier_booking_status_indicator, invoice_customer_status_indicator,
	send_pod_to_customer_status_indicator,
	created_at, updated_at
) VALUES (
	:id, :job_ref, :clearance_agent, :linked_clearance_id,
	:destination_customer_id, :receiver_id, :customer_ref, :supplier,
	:booking_date, :trailer_number, :departure_from,
	:pieces, :weight, :cube, :goods_description,
	:value, :freight_rate_out, :clearance_charge, :currency, :clearance_type,
	:attachments, :expenses_to_charge_out,
	:haulier_booking_status_indicator, :invoice_customer_status_indicator,
	:send_pod_to_customer_status_indicator,
	:created_at, :updated_at
)`

const exportShipmentUpdate = `
UPDATE export_shipments SET
	clearance_agent = :clearance_agent,
	linked_clearance_id = :linked_clearance_id,
	destination_customer_id = :destination_customer_id,
	receiver_id = :receiver_id,
	customer_ref = :customer_ref,
	supplier = :supplier,
	booking_date = :booking_date,
	trailer_number = :trailer_number,
	departure_from = :departure_from,
	pieces = :pieces,
	weight = :weight,
	cube = :cube,
	goods_description = :goods_description,
	value = :value,
	freight_rate_out = :freight_rate_out,
	clearance_charge = :clearance_charge,
	currency = :currency,
	clearance_type = :clearance_type,
	attachments = :attachments,
	expenses_to_charge_out = :expenses_to_charge_out,
	updated_at = :updated_at
WHERE id = :id`

// ExportShipmentRepository manages persistence for export shipments and their
// linked clearance writes, mirroring the import repository.
type ExportShipmentRepository struct {
	db *sqlx.DB
}

// NewExportShipmentRepository constructs an ExportShipmentRepository.
func NewExportShipmentRepository(db *sqlx.DB) *ExportShipmentRepository {
	return &ExportShipmentRepository{db: db}
}

// Create inserts a shipment with no linked clearance.
func (r *ExportShipmentRepository) Create(ctx context.Context, shipment *models.ExportShipment) error {
	if _, err := r.db.NamedExecContext(ctx, exportShipmentInsert, shipment); err != nil {
		return fmt.Errorf("insert export shipment: %w", err)
	}
	return nil
}

// CreateWithClearance inserts the derived clearance and the shipment in one
// transaction.
func (r *ExportShipmentRepository) CreateWithClearance(ctx context.Context, shipment *models.ExportShipment, clearance *models.CustomClearance) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin linked create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, clearanceInsert, clearance); err != nil {
		return fmt.Errorf("insert derived clearance: %w", err)
	}
	if _, err = tx.NamedExecContext(ctx, exportShipmentInsert, shipment); err != nil {
		return fmt.Errorf("insert export shipment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit linked create: %w", err)
	}
	return nil
}

// FindByID fetches a shipment by id.
func (r *ExportShipmentRepository) FindByID(ctx context.Context, id string) (*models.ExportShipment, error) {
	const query = `SELECT * FROM export_shipments WHERE id = $1`
	var shipment models.ExportShipment
	if err := r.db.GetContext(ctx, &shipment, query, id); err != nil {
		return nil, err
	}
	return &shipment, nil
}

// List returns shipments matching filters along with total count.
func (r *ExportShipmentRepository) List(ctx context.Context, filter models.ExportShipmentFilter) ([]models.ExportShipment, int, error) {
	base := "FROM export_shipments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.JobRef != nil {
		conditions = append(conditions, fmt.Sprintf("job_ref = $%d", len(args)+1))
		args = append(args, *filter.JobRef)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(COALESCE(customer_ref, '')) LIKE $%d OR LOWER(COALESCE(supplier, '')) LIKE $%d OR LOWER(COALESCE(trailer_number, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	column := sortColumn(filter.SortBy, map[string]string{
		"job_ref":      "job_ref",
		"booking_date": "booking_date",
		"created_at":   "created_at",
		"updated_at":   "updated_at",
	})
	order := sortOrder(filter.SortOrder)
	page, size := pageBounds(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var shipments []models.ExportShipment
	if err := r.db.SelectContext(ctx, &shipments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list export shipments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count export shipments: %w", err)
	}

	return shipments, total, nil
}

// Update rewrites the mutable columns of a shipment.
func (r *ExportShipmentRepository) Update(ctx context.Context, shipment *models.ExportShipment) error {
	if _, err := r.db.NamedExecContext(ctx, exportShipmentUpdate, shipment); err != nil {
		return fmt.Errorf("update export shipment: %w", err)
	}
	return nil
}

// UpdateWithClearanceCreate inserts a freshly derived clearance and rewrites
// the shipment in one transaction.
func (r *ExportShipmentRepository) UpdateWithClearanceCreate(ctx context.Context, shipment *models.ExportShipment, clearance *models.CustomClearance) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin linked update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, clearanceInsert, clearance); err != nil {
		return fmt.Errorf("insert derived clearance: %w", err)
	}
	if _, err = tx.NamedExecContext(ctx, exportShipmentUpdate, shipment); err != nil {
		return fmt.Errorf("update export shipment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit linked update: %w", err)
	}
	return nil
}

// UpdateWithClearanceDelete removes the linked clearance and rewrites the
// shipment in one transaction.
func (r *ExportShipmentRepository) UpdateWithClearanceDelete(ctx context.Context, shipment *models.ExportShipment, clearanceID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin linked update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM custom_clearances WHERE id = $1`, clearanceID); err != nil {
		return fmt.Errorf("delete linked clearance: %w", err)
	}
	if _, err = tx.NamedExecContext(ctx, exportShipmentUpdate, shipment); err != nil {
		return fmt.Errorf("update export shipment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit linked update: %w", err)
	}
	return nil
}

// Delete removes the shipment, deleting the linked clearance first when one
// exists.
func (r *ExportShipmentRepository) Delete(ctx context.Context, id string, linkedClearanceID *string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if linkedClearanceID != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM custom_clearances WHERE id = $1`, *linkedClearanceID); err != nil {
			return fmt.Errorf("delete linked clearance: %w", err)
		}
	}
	res, execErr := tx.ExecContext(ctx, `DELETE FROM export_shipments WHERE id = $1`, id)
	if execErr != nil {
		err = fmt.Errorf("delete export shipment: %w", execErr)
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

// UpdateIndicator writes a single status indicator and its timestamp.
func (r *ExportShipmentRepository) UpdateIndicator(ctx context.Context, id, indicator string, value int, at time.Time) error {
	column, ok := exportIndicatorColumns[indicator]
	if !ok {
		return fmt.Errorf("unknown export indicator %q", indicator)
	}
	query := fmt.Sprintf(`UPDATE export_shipments SET %s_indicator = $1, %s_time = $2, updated_at = $2 WHERE id = $3`, column, column)
	res, err := r.db.ExecContext(ctx, query, value, at, id)
	if err != nil {
		return fmt.Errorf("update export indicator %s: %w", indicator, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// MaxJobRef returns the highest job reference present, or zero on an empty table.
func (r *ExportShipmentRepository) MaxJobRef(ctx context.Context) (int, error) {
	var max int
	if err := r.db.GetContext(ctx, &max, `SELECT COALESCE(MAX(job_ref), 0) FROM export_shipments`); err != nil {
		return 0, fmt.Errorf("max export job ref: %w", err)
	}
	return max, nil
}

// exportIndicatorColumns maps indicator names to column prefixes.
var exportIndicatorColumns = map[string]string{
	models.IndicatorHaulierBooking:    "haulier_booking_status",
	models.IndicatorInvoiceCustomer:   "invoice_customer_status",
	models.IndicatorSendPodToCustomer: "send_pod_to_customer_status",
}
