package dto

import (
	"time"

	"github.com/rs-freight/forwarding-api/internal/models"
)

// CreateCustomClearanceRequest creates a standalone clearance record. Derived
// clearances are built internally by the shipment services, never through
// this payload.
type CreateCustomClearanceRequest struct {
	JobType models.JobType `json:"job_type" validate:"required,oneof=import export"`

	CustomerID       *string    `json:"customer_id"`
	ReceiverID       *string    `json:"receiver_id"`
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
	TransportCost                 *string `json:"transport_cost"`
	ClearanceCharge               *string `json:"clearance_charge"`
	Currency                      *string `json:"currency" validate:"omitempty,len=3"`
	AdditionalCommodityCodes      int     `json:"additional_commodity_codes" validate:"min=0"`
	AdditionalCommodityCodeCharge *string `json:"additional_commodity_code_charge"`
	VATZeroRated                  bool    `json:"vat_zero_rated"`
	ClearanceType                 *string `json:"clearance_type" validate:"required,min=1"`

	TransportDocuments []models.Document `json:"transport_documents"`
}

// UpdateCustomClearanceRequest is a partial update; nil fields are untouched.
// TransportDocuments use a pointer so only an explicit list triggers file
// reconciliation.
type UpdateCustomClearanceRequest struct {
	Status           *string    `json:"status"`
	CustomerID       *string    `json:"customer_id"`
	ReceiverID       *string    `json:"receiver_id"`
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
	TransportCost                 *string `json:"transport_cost"`
	ClearanceCharge               *string `json:"clearance_charge"`
	Currency                      *string `json:"currency" validate:"omitempty,len=3"`
	AdditionalCommodityCodes      *int    `json:"additional_commodity_codes" validate:"omitempty,min=0"`
	AdditionalCommodityCodeCharge *string `json:"additional_commodity_code_charge"`
	VATZeroRated                  *bool   `json:"vat_zero_rated"`
	ClearanceType                 *string `json:"clearance_type"`

	TransportDocuments *[]models.Document `json:"transport_documents"`
}

// UpdateStatusRequest carries a single indicator value for the dedicated
// status endpoints. A null status is only legal for optional indicators.
type UpdateStatusRequest struct {
	Status *int `json:"status"`
}
