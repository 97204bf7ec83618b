package models

import "time"

// JobType discriminates the direction of a clearance job.
type JobType string

const (
	JobTypeImport JobType = "import"
	JobTypeExport JobType = "export"
)

// ClearanceStatusAwaitingEntry is the initial workflow status assigned when a
// clearance record is created.
const ClearanceStatusAwaitingEntry = "Awaiting Entry"

// CustomClearance represents a customs entry stored in the custom_clearances
// table. A clearance is either derived from a shipment (CreatedFromType/ID
// set) or created standalone by a user.
type CustomClearance struct {
	ID              string  `db:"id" json:"id"`
	JobRef          int     `db:"job_ref" json:"job_ref"`
	JobType         JobType `db:"job_type" json:"job_type"`
	Status          string  `db:"status" json:"status"`
	CreatedFromType *string `db:"created_from_type" json:"created_from_type,omitempty"`
	CreatedFromID   *string `db:"created_from_id" json:"created_from_id,omitempty"`

	CustomerID       *string    `db:"customer_id" json:"customer_id,omitempty"`
	ReceiverID       *string    `db:"receiver_id" json:"receiver_id,omitempty"`
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
	TransportCost                 *string `db:"transport_cost" json:"transport_cost,omitempty"`
	ClearanceCharge               *string `db:"clearance_charge" json:"clearance_charge,omitempty"`
	Currency                      *string `db:"currency" json:"currency,omitempty"`
	AdditionalCommodityCodes      int     `db:"additional_commodity_codes" json:"additional_commodity_codes"`
	AdditionalCommodityCodeCharge *string `db:"additional_commodity_code_charge" json:"additional_commodity_code_charge,omitempty"`
	VATZeroRated                  bool    `db:"vat_zero_rated" json:"vat_zero_rated"`
	ClearanceType                 *string `db:"clearance_type" json:"clearance_type,omitempty"`

	TransportDocuments DocumentList `db:"transport_documents" json:"transport_documents"`

	AdviseAgentStatusIndicator             int        `db:"advise_agent_status_indicator" json:"advise_agent_status_indicator"`
	AdviseAgentStatusTime                  *time.Time `db:"advise_agent_status_time" json:"advise_agent_status_time,omitempty"`
	SendHaulierEadStatusIndicator          *int       `db:"send_haulier_ead_status_indicator" json:"send_haulier_ead_status_indicator,omitempty"`
	SendHaulierEadStatusTime               *time.Time `db:"send_haulier_ead_status_time" json:"send_haulier_ead_status_time,omitempty"`
	SendHaulierClearanceDocStatusIndicator *int       `db:"send_haulier_clearance_doc_status_indicator" json:"send_haulier_clearance_doc_status_indicator,omitempty"`
	SendHaulierClearanceDocStatusTime      *time.Time `db:"send_haulier_clearance_doc_status_time" json:"send_haulier_clearance_doc_status_time,omitempty"`
	SendEntryToCustomerStatusIndicator     int        `db:"send_entry_to_customer_status_indicator" json:"send_entry_to_customer_status_indicator"`
	SendEntryToCustomerStatusTime          *time.Time `db:"send_entry_to_customer_status_time" json:"send_entry_to_customer_status_time,omitempty"`
	InvoiceCustomerStatusIndicator         int        `db:"invoice_customer_status_indicator" json:"invoice_customer_status_indicator"`
	InvoiceCustomerStatusTime              *time.Time `db:"invoice_customer_status_time" json:"invoice_customer_status_time,omitempty"`
	SendClearedEntryStatusIndicator        int        `db:"send_cleared_entry_status_indicator" json:"send_cleared_entry_status_indicator"`
	SendClearedEntryStatusTime             *time.Time `db:"send_cleared_entry_status_time" json:"send_cleared_entry_status_time,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DerivedFromShipment reports whether the clearance was auto-created from a
// shipment and therefore participates in reverse propagation.
func (c *CustomClearance) DerivedFromShipment() bool {
	return c.CreatedFromType != nil && c.CreatedFromID != nil
}

// CustomClearanceFilter captures list filtering criteria.
type CustomClearanceFilter struct {
	Search    string
	JobRef    *int
	JobType   *JobType
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
