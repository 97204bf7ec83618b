package models

import "time"

// ImportShipment represents one inbound leg of a job stored in the
// import_shipments table. When RSToClear is set the company performs the
// customs clearance itself and a linked CustomClearance record is derived.
type ImportShipment struct {
	ID                string  `db:"id" json:"id"`
	JobRef            int     `db:"job_ref" json:"job_ref"`
	RSToClear         bool    `db:"rs_to_clear" json:"rs_to_clear"`
	LinkedClearanceID *string `db:"linked_clearance_id" json:"linked_clearance_id,omitempty"`

	ImportCustomerID *string    `db:"import_customer_id" json:"import_customer_id,omitempty"`
	CustomerRef      *string    `db:"customer_ref" json:"customer_ref,omitempty"`
	SupplierName     *string    `db:"supplier_name" json:"supplier_name,omitempty"`
	ETA              *time.Time `db:"eta" json:"eta,omitempty"`
	ContainerNumber  *string    `db:"container_number" json:"container_number,omitempty"`
	TrailerNumber    *string    `db:"trailer_number" json:"trailer_number,omitempty"`
	DepartureCountry *string    `db:"departure_country" json:"departure_country,omitempty"`
	Vessel           *string    `db:"vessel" json:"vessel,omitempty"`
	Pieces           *int       `db:"pieces" json:"pieces,omitempty"`
	Weight           *float64   `db:"weight" json:"weight,omitempty"`
	Cube             *float64   `db:"cube" json:"cube,omitempty"`
	GoodsDescription *string    `db:"goods_description" json:"goods_description,omitempty"`

	InvoiceValue                  *string `db:"invoice_value" json:"invoice_value,omitempty"`
	FreightCharge                 *string `db:"freight_charge" json:"freight_charge,omitempty"`
	ClearanceCharge               *string `db:"clearance_charge" json:"clearance_charge,omitempty"`
	Currency                      *string `db:"currency" json:"currency,omitempty"`
	AdditionalCommodityCodes      int     `db:"additional_commodity_codes" json:"additional_commodity_codes"`
	AdditionalCommodityCodeCharge *string `db:"additional_commodity_code_charge" json:"additional_commodity_code_charge,omitempty"`
	VATZeroRated                  bool    `db:"vat_zero_rated" json:"vat_zero_rated"`
	ClearanceType                 *string `db:"clearance_type" json:"clearance_type,omitempty"`

	Attachments         DocumentList `db:"attachments" json:"attachments"`
	ExpensesToChargeOut ExpenseList  `db:"expenses_to_charge_out" json:"expenses_to_charge_out"`
	AdditionalExpenses  ExpenseList  `db:"additional_expenses" json:"additional_expenses"`

	ClearanceStatusIndicator         int        `db:"clearance_status_indicator" json:"clearance_status_indicator"`
	ClearanceStatusTime              *time.Time `db:"clearance_status_time" json:"clearance_status_time,omitempty"`
	DeliveryBookedStatusIndicator    int        `db:"delivery_booked_status_indicator" json:"delivery_booked_status_indicator"`
	DeliveryBookedStatusTime         *time.Time `db:"delivery_booked_status_time" json:"delivery_booked_status_time,omitempty"`
	HaulierBookingStatusIndicator    int        `db:"haulier_booking_status_indicator" json:"haulier_booking_status_indicator"`
	HaulierBookingStatusTime         *time.Time `db:"haulier_booking_status_time" json:"haulier_booking_status_time,omitempty"`
	ContainerReleaseStatusIndicator  int        `db:"container_release_status_indicator" json:"container_release_status_indicator"`
	ContainerReleaseStatusTime       *time.Time `db:"container_release_status_time" json:"container_release_status_time,omitempty"`
	InvoiceCustomerStatusIndicator   int        `db:"invoice_customer_status_indicator" json:"invoice_customer_status_indicator"`
	InvoiceCustomerStatusTime        *time.Time `db:"invoice_customer_status_time" json:"invoice_customer_status_time,omitempty"`
	SendPodToCustomerStatusIndicator int        `db:"send_pod_to_customer_status_indicator" json:"send_pod_to_customer_status_indicator"`
	SendPodToCustomerStatusTime      *time.Time `db:"send_pod_to_customer_status_time" json:"send_pod_to_customer_status_time,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClearanceTrigger reports whether the shipment requires a linked clearance.
func (s *ImportShipment) ClearanceTrigger() bool {
	return s.RSToClear
}

// ImportShipmentFilter captures list filtering criteria.
type ImportShipmentFilter struct {
	Search    string
	JobRef    *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
