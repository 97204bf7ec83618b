package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rs-freight/forwarding-api/internal/models"
)

const importShipmentInsert = `
INSERT INTO import_shipments (
	id, job_ref, rs_to_clear, linked_clearance_id,
	import_customer_id, customer_ref, supplier_name, eta,
	container_number, trailer_number, departure_country, vessel,
	pieces, weight, cube, goods_description,
	invoice_value, freight_charge, clearance_charge, currency,
	additional_commodity_codes, additional_commodity_code_charge,
	vat_zero_rated, clearance_type,
	attachments, expenses_to_charge_out, additional_expenses,
	clearance_status_indicator, delivery_booked_status_indicator,
	haulier_booking_status_indicator, container_release_status_indicator,
	invoice_customer_status_indicator, send_pod_to_customer_status_indicator,
	created_at, updated_at
) VALUES (
	:id, :job_ref, :rs_to_clear, :linked_clearance_id,
	:import_customer_id, :customer_ref, :supplier_name, :eta,
	:container_number, :trailer_number, :departure_country, :vessel,
	:pieces, :weight, :cube, :goods_description,
	:invoice_value, :freight_charge, :clearance_charge, :currency,
	:additional_commodity_codes, :additional_commodity_code_charge,
	:vat_zero_rated, :clearance_type,
	:attachments, :expenses_to_charge_out, :additional_expenses,
	:clearance_status_indicator, :delivery_booked_status_indicator,
	:haulier_booking_status_indicator, :container_release_status_indicator,
	:invoice_customer_status_indicator, :send_pod_to_customer_status_indicator,
	:created_at, :updated_at
)`

const importShipmentUpdate = `
UPDATE import_shipments SET
	rs_to_clear = :rs_to_clear,
	linked_clearance_id = :linked_clearance_id,
	import_customer_id = :import_customer_id,
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
	freight_charge = :freight_charge,
	clearance_charge = :clearance_charge,
	currency = :currency,
	additional_commodity_codes = :additional_commodity_codes,
	additional_commodity_code_charge = :additional_commodity_code_charge,
	vat_zero_rated = :vat_zero_rated,
	clearance_type = :clearance_type,
	attachments = :attachments,
	expenses_to_charge_out = :expenses_to_charge_out,
	additional_expenses = :additional_expenses,
	updated_at = :updated_at
WHERE id = :id`

// ImportShipmentRepository manages persistence for import shipments and the
// linked-write sequences that keep a derived clearance consistent with its
// shipment. Every multi-entity sequence runs inside a single transaction.
type ImportShipmentRepository struct {
	db *sqlx.DB
}

// NewImportShipmentRepository constructs an ImportShipmentRepository.
func NewImportShipmentRepository(db *sqlx.DB) *ImportShipmentRepository {
	return &ImportShipmentRepository{db: db}
}

// Create inserts a shipment with no linked clearance.
func (r *ImportShipmentRepository) Create(ctx context.Context, shipment *models.ImportShipment) error {
	if _, err := r.db.NamedExecContext(ctx, importShipmentInsert, shipment); err != nil {
		return fmt.Errorf("insert import shipment: %w", err)
	}
	return nil
}

// CreateWithClearance inserts the derived clearance and the shipment in one
// transaction. The shipment's LinkedClearanceID must already reference the
// clearance.
func (r *ImportShipmentRepository) CreateWithClearance(ctx context.Context, shipment *models.ImportShipment, clearance *models.CustomClearance) (err error) {
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
	if _, err = tx.NamedExecContext(ctx, importShipmentInsert, shipment); err != nil {
		return fmt.Errorf("insert import shipment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit linked create: %w", err)
	}
	return nil
}

// FindByID fetches a shipment by id.
func (r *ImportShipmentRepository) FindByID(ctx context.Context, id string) (*models.ImportShipment, error) {
	const query = `SELECT * FROM import_shipments WHERE id = $1`
	var shipment models.ImportShipment
	if err := r.db.GetContext(ctx, &shipment, query, id); err != nil {
		return nil, err
	}
	return &shipment, nil
}

// List returns shipments matching filters along with total count.
func (r *ImportShipmentRepository) List(ctx context.Context, filter models.ImportShipmentFilter) ([]models.ImportShipment, int, error) {
	base := "FROM import_shipments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.JobRef != nil {
		conditions = append(conditions, fmt.Sprintf("job_ref = $%d", len(args)+1))
		args = append(args, *filter.JobRef)
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
		"created_at": "created_at",
		"updated_at": "updated_at",
	})
	order := sortOrder(filter.SortOrder)
	page, size := pageBounds(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var shipments []models.ImportShipment
	if err := r.db.SelectContext(ctx, &shipments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list import shipments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count import shipments: %w", err)
	}

	return shipments, total, nil
}

// Update rewrites the mutable columns of a shipment.
func (r *ImportShipmentRepository) Update(ctx context.Context, shipment *models.ImportShipment) error {
	if _, err := r.db.NamedExecContext(ctx, importShipmentUpdate, shipment); err != nil {
		return fmt.Errorf("update import shipment: %w", err)
	}
	return nil
}

// UpdateWithClearanceCreate inserts a freshly derived clearance and rewrites
// the shipment (now pointing at it) in one transaction.
func (r *ImportShipmentRepository) UpdateWithClearanceCreate(ctx context.Context, shipment *models.ImportShipment, clearance *models.CustomClearance) (err error) {
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
	if _, err = tx.NamedExecContext(ctx, importShipmentUpdate, shipment); err != nil {
		return fmt.Errorf("update import shipment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit linked update: %w", err)
	}
	return nil
}

// UpdateWithClearanceDelete removes the linked clearance and rewrites the
// shipment (link cleared) in one transaction.
func (r *ImportShipmentRepository) UpdateWithClearanceDelete(ctx context.Context, shipment *models.ImportShipment, clearanceID string) (err error) {
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
	if _, err = tx.NamedExecContext(ctx, importShipmentUpdate, shipment); err != nil {
		return fmt.Errorf("update import shipment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit linked update: %w", err)
	}
	return nil
}

// Delete removes the shipment, deleting the linked clearance first when one
// exists. The cascade is manual; no foreign key enforces it.
func (r *ImportShipmentRepository) Delete(ctx context.Context, id string, linkedClearanceID *string) (err error) {
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
	res, execErr := tx.ExecContext(ctx, `DELETE FROM import_shipments WHERE id = $1`, id)
	if execErr != nil {
		err = fmt.Errorf("delete import shipment: %w", execErr)
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
func (r *ImportShipmentRepository) UpdateIndicator(ctx context.Context, id, indicator string, value int, at time.Time) error {
	column, ok := importIndicatorColumns[indicator]
	if !ok {
		return fmt.Errorf("unknown import indicator %q", indicator)
	}
	query := fmt.Sprintf(`UPDATE import_shipments SET %s_indicator = $1, %s_time = $2, updated_at = $2 WHERE id = $3`, column, column)
	res, err := r.db.ExecContext(ctx, query, value, at, id)
	if err != nil {
		return fmt.Errorf("update import indicator %s: %w", indicator, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// PropagateClearanceStatus writes the clearance indicator on the shipment and
// mirrors the value onto the linked clearance's advise-agent indicator in one
// transaction.
func (r *ImportShipmentRepository) PropagateClearanceStatus(ctx context.Context, shipmentID, clearanceID string, value int, at time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status propagation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE import_shipments SET clearance_status_indicator = $1, clearance_status_time = $2, updated_at = $2 WHERE id = $3`, value, at, shipmentID); err != nil {
		return fmt.Errorf("update shipment clearance status: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE custom_clearances SET advise_agent_status_indicator = $1, advise_agent_status_time = $2, updated_at = $2 WHERE id = $3`, value, at, clearanceID); err != nil {
		return fmt.Errorf("mirror advise agent status: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit status propagation: %w", err)
	}
	return nil
}

// MaxJobRef returns the highest job reference present, or zero on an empty table.
func (r *ImportShipmentRepository) MaxJobRef(ctx context.Context) (int, error) {
	var max int
	if err := r.db.GetContext(ctx, &max, `SELECT COALESCE(MAX(job_ref), 0) FROM import_shipments`); err != nil {
		return 0, fmt.Errorf("max import job ref: %w", err)
	}
	return max, nil
}

// importIndicatorColumns maps indicator names to column prefixes.
var importIndicatorColumns = map[string]string{
	models.IndicatorClearance:         "clearance_status",
	models.IndicatorDeliveryBooked:    "delivery_booked_status",
	models.IndicatorHaulierBooking:    "haulier_booking_status",
	models.IndicatorContainerRelease:  "container_release_status",
	models.IndicatorInvoiceCustomer:   "invoice_customer_status",
	models.IndicatorSendPodToCustomer: "send_pod_to_customer_status",
}
