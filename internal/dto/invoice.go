package dto

import "github.com/rs-freight/forwarding-api/internal/models"

// VAT codes accepted on invoice line items. Code "1" (zero rated) is the
// default at derivation time; only code "2" yields a non-zero VAT amount.
const (
	VATCodeZeroRated = "1"
	VATCodeStandard  = "2"
	VATCodeExempt    = "3"
)

// InvoiceLineItem is one chargeable row on a draft invoice. Amounts are
// 2-decimal strings at this boundary.
type InvoiceLineItem struct {
	Description  string `json:"description" validate:"required,min=1"`
	ChargeAmount string `json:"charge_amount" validate:"required"`
	VATCode      string `json:"vat_code" validate:"required,oneof=1 2 3"`
	VATAmount    string `json:"vat_amount"`
}

// DeriveLineItemsRequest holds the charge fields default line items are
// derived from.
type DeriveLineItemsRequest struct {
	FreightCharge                 *string          `json:"freight_charge"`
	ClearanceCharge               *string          `json:"clearance_charge"`
	AdditionalCommodityCodes      int              `json:"additional_commodity_codes" validate:"min=0"`
	AdditionalCommodityCodeCharge *string          `json:"additional_commodity_code_charge"`
	ExpensesToChargeOut           []models.Expense `json:"expenses_to_charge_out"`
	AdditionalExpenses            []models.Expense `json:"additional_expenses"`
}

// TotalsRequest recomputes VAT amounts and aggregate totals after the line
// items have been edited.
type TotalsRequest struct {
	LineItems []InvoiceLineItem `json:"line_items" validate:"dive"`
}

// InvoiceTotals is the aggregate result over a set of line items.
type InvoiceTotals struct {
	LineItems []InvoiceLineItem `json:"line_items"`
	Subtotal  string            `json:"subtotal"`
	VAT       string            `json:"vat"`
	Total     string            `json:"total"`
}
