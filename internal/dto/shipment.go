package dto

import (
	"time"

	"github.com/rs-freight/forwarding-api/internal/models"
)

// CreateImportShipmentRequest carries the full payload for a new import leg.
type CreateImportShipmentRequest struct {
	RSToClear        bool       `json:"rs_to_clear"`
	ImportCustomerID *string    `json:"import_customer_id" validate:"omitempty,min=1"`
	CustomerRef      *string    `json:"customer_ref"`
	SupplierName     *string    `json:"supplier_name"`
	ETA              *time.Time `json:"eta"`
	ContainerNumber  *string    `json:"container_number"`
	TrailerNumber    *string    `json:"trailer_number"`
	DepartureCountry *string    `json:"departure_country"`
	Vessel           *string    `json:"vessel"`
	Pieces           *int       `json:"pieces" validate:"omitempty,min=0"`
	Weight           *float64   `json:"weight" validate:"omitempty,min=0"`
	Cube             *float64   `json:"cube" validate:"omitempty,min=0"`
	GoodsDescription *string    `json:"goods_description"`

	InvoiceValue                  *string `json:"invoice_value"`
	FreightCharge                 *string `json:"freight_charge"`
	ClearanceCharge               *string `json:"clearance_charge"`
	Currency                      *string `json:"currency" validate:"omitempty,len=3"`
	AdditionalCommodityCodes      int     `json:"additional_commodity_codes" validate:"min=0"`
	AdditionalCommodityCodeCharge *string `json:"additional_commodity_code_charge"`
	VATZeroRated                  bool    `json:"vat_zero_rated"`
	ClearanceType                 *string `json:"clearance_type"`

	Attachments         []models.Document `json:"attachments"`
	ExpensesToChargeOut []models.Expense  `json:"expenses_to_charge_out"`
	AdditionalExpenses  []models.Expense  `json:"additional_expenses"`
}

// UpdateImportShipmentRequest is a partial update; nil fields are left
// untouched. Attachments use a pointer so "field absent" and "empty list"
// are distinguishable; only an explicit list triggers file reconciliation.
type UpdateImportShipmentRequest struct {
	RSToClear        *bool      `json:"rs_to_clear"`
	ImportCustomerID *string    `json:"import_customer_id"`
	CustomerRef      *string    `json:"customer_ref"`
	SupplierName     *string    `json:"supplier_name"`
	ETA              *time.Time `json:"eta"`
	ContainerNumber  *string    `json:"container_number"`
	TrailerNumber    *string    `json:"trailer_number"`
	DepartureCountry *string    `json:"departure_country"`
	Vessel           *string    `json:"vessel"`
	Pieces           *int       `json:"pieces" validate:"omitempty,min=0"`
	Weight           *float64   `json:"weight" validate:"omitempty,min=0"`
	Cube             *float64   `json:"cube" validate:"omitempty,min=0"`
	GoodsDescription *string    `json:"goods_description"`

	InvoiceValue                  *string `json:"invoice_value"`
	FreightCharge                 *string `json:"freight_charge"`
	ClearanceCharge               *string `json:"clearance_charge"`
	Currency                      *string `json:"currency" validate:"omitempty,len=3"`
	AdditionalCommodityCodes      *int    `json:"additional_commodity_codes" validate:"omitempty,min=0"`
	AdditionalCommodityCodeCharge *string `json:"additional_commodity_code_charge"`
	VATZeroRated                  *bool   `json:"vat_zero_rated"`
	ClearanceType                 *string `json:"clearance_type"`

	Attachments         *[]models.Document `json:"attachments"`
	ExpensesToChargeOut *[]models.Expense  `json:"expenses_to_charge_out"`
	AdditionalExpenses  *[]models.Expense  `json:"additional_expenses"`
}

// CreateExportShipmentRequest carries the full payload for a new export leg.
type CreateExportShipmentRequest struct {
	ClearanceAgent        *string    `json:"clearance_agent"`
	DestinationCustomerID *string    `json:"destination_customer_id"`
	ReceiverID            *string    `json:"receiver_id"`
	CustomerRef           *string    `json:"customer_ref"`
	Supplier              *string    `json:"supplier"`
	BookingDate           *time.Time `json:"booking_date"`
	TrailerNumber         *string    `json:"trailer_number"`
	DepartureFrom         *string    `json:"departure_from"`
	Pieces                *int       `json:"pieces" validate:"omitempty,min=0"`
	Weight                *float64   `json:"weight" validate:"omitempty,min=0"`
	Cube                  *float64   `json:"cube" validate:"omitempty,min=0"`
	GoodsDescription      *string    `json:"goods_description"`

	Value           *string `json:"value"`
	FreightRateOut  *string `json:"freight_rate_out"`
	ClearanceCharge *string `json:"clearance_charge"`
	Currency        *string `json:"currency" validate:"omitempty,len=3"`
	ClearanceType   *string `json:"clearance_type"`

	Attachments         []models.Document `json:"attachments"`
	ExpensesToChargeOut []models.Expense  `json:"expenses_to_charge_out"`
}

// UpdateExportShipmentRequest is a partial update mirroring the import shape.
type UpdateExportShipmentRequest struct {
	ClearanceAgent        *string    `json:"clearance_agent"`
	DestinationCustomerID *string    `json:"destination_customer_id"`
	ReceiverID            *string    `json:"receiver_id"`
	CustomerRef           *string    `json:"customer_ref"`
	Supplier              *string    `json:"supplier"`
	BookingDate           *time.Time `json:"booking_date"`
	TrailerNumber         *string    `json:"trailer_number"`
	DepartureFrom         *string    `json:"departure_from"`
	Pieces                *int       `json:"pieces" validate:"omitempty,min=0"`
	Weight                *float64   `json:"weight" validate:"omitempty,min=0"`
	Cube                  *float64   `json:"cube" validate:"omitempty,min=0"`
	GoodsDescription      *string    `json:"goods_description"`

	Value           *string `json:"value"`
	FreightRateOut  *string `json:"freight_rate_out"`
	ClearanceCharge *string `json:"clearance_charge"`
	Currency        *string `json:"currency" validate:"omitempty,len=3"`
	ClearanceType   *string `json:"clearance_type"`

	Attachments         *[]models.Document `json:"attachments"`
	ExpensesToChargeOut *[]models.Expense  `json:"expenses_to_charge_out"`
}
