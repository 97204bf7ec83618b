package models

import "time"

// ClearanceAgentRS is the agent value that marks an export shipment as
// cleared in-house, deriving a linked CustomClearance record.
const ClearanceAgentRS = "R.S"

// ExportShipment represents one outbound leg of a job stored in the
// export_shipments table.
type ExportShipment struct {
	ID                string  `db:"id" json:"id"`
	JobRef            int     `db:"job_ref" json:"job_ref"`
	ClearanceAgent    *string `db:"clearance_agent" json:"clearance_agent,omitempty"`
	LinkedClearanceID *string `db:"linked_clearance_id" json:"linked_clearance_id,omitempty"`

	DestinationCustomerID *string    `db:"destination_customer_id" json:"destination_customer_id,omitempty"`
	ReceiverID            *string    `db:"receiver_id" json:"receiver_id,omitempty"`
	CustomerRef           *string    `db:"customer_ref" json:"customer_ref,omitempty"`
	Supplier              *string    `db:"supplier" json:"supplier,omitempty"`
	BookingDate           *time.Time `db:"booking_date" json:"booking_date,omitempty"`
	TrailerNumber         *string    `db:"trailer_number" json:"trailer_number,omitempty"`
	DepartureFrom         *string    `db:"departure_from" json:"departure_from,omitempty"`
	Pieces                *int       `db:"pieces" json:"pieces,omitempty"`
	Weight                *float64   `db:"weight" json:"weight,omitempty"`
	Cube                  *float64   `db:"cube" json:"cube,omitempty"`
	GoodsDescription      *string    `db:"goods_description" json:"goods_description,omitempty"`

	Value           *string `db:"value" json:"value,omitempty"`
	FreightRateOut  *string `db:"freight_rate_out" json:"freight_rate_out,omitempty"`
	ClearanceCharge *string `db:"clearance_charge" json:"clearance_charge,omitempty"`
	Currency        *string `db:"currency" json:"currency,omitempty"`
	ClearanceType   *string `db:"clearance_type" json:"clearance_type,omitempty"`

	Attachments         DocumentList `db:"attachments" json:"attachments"`
	ExpensesToChargeOut ExpenseList  `db:"expenses_to_charge_out" json:"expenses_to_charge_out"`

	HaulierBookingStatusIndicator    int        `db:"haulier_booking_status_indicator" json:"haulier_booking_status_indicator"`
	HaulierBookingStatusTime         *time.Time `db:"haulier_booking_status_time" json:"haulier_booking_status_time,omitempty"`
	InvoiceCustomerStatusIndicator   int        `db:"invoice_customer_status_indicator" json:"invoice_customer_status_indicator"`
	InvoiceCustomerStatusTime        *time.Time `db:"invoice_customer_status_time" json:"invoice_customer_status_time,omitempty"`
	SendPodToCustomerStatusIndicator int        `db:"send_pod_to_customer_status_indicator" json:"send_pod_to_customer_status_indicator"`
	SendPodToCustomerStatusTime      *time.Time `db:"send_pod_to_customer_status_time" json:"send_pod_to_customer_status_time,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClearanceTrigger reports whether the shipment requires a linked clearance.
func (s *ExportShipment) ClearanceTrigger() bool {
	return s.ClearanceAgent != nil && *s.ClearanceAgent == ClearanceAgentRS
}

// ExportShipmentFilter captures list filtering criteria.
type ExportShipmentFilter struct {
	Search    string
	JobRef    *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
