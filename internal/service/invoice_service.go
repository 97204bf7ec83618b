package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rs-freight/forwarding-api/internal/dto"
	appErrors "github.com/rs-freight/forwarding-api/pkg/errors"
)

var vatRate = decimal.NewFromFloat(0.20)

// InvoiceService derives draft invoice line items from job charge fields and
// recomputes VAT and totals after the lines have been edited. All amounts
// cross the API boundary as 2-decimal strings; arithmetic runs on decimals.
type InvoiceService struct {
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(validate *validator.Validate, logger *zap.Logger) *InvoiceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{validator: validate, logger: logger}
}

// DeriveLineItems produces the default chargeable rows for a job. Lines are
// created only for charges that parse to a positive amount. Every derived
// line starts on the zero-rated VAT code; codes are edited before totalling.
func (s *InvoiceService) DeriveLineItems(req dto.DeriveLineItemsRequest) ([]dto.InvoiceLineItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid charges payload")
	}

	items := make([]dto.InvoiceLineItem, 0, 4+len(req.ExpensesToChargeOut)+len(req.AdditionalExpenses))

	if line, ok, err := chargeLine("Freight Charges", req.FreightCharge); err != nil {
		return nil, err
	} else if ok {
		items = append(items, line)
	}

	if line, ok, err := chargeLine("Clearance Charges", req.ClearanceCharge); err != nil {
		return nil, err
	} else if ok {
		items = append(items, line)
	}

	if line, ok, err := commodityCodeLine(req.AdditionalCommodityCodes, req.AdditionalCommodityCodeCharge); err != nil {
		return nil, err
	} else if ok {
		items = append(items, line)
	}

	for _, expense := range append(req.ExpensesToChargeOut, req.AdditionalExpenses...) {
		if expense.Description == "" {
			continue
		}
		amount := expense.Amount
		if line, ok, err := chargeLine(expense.Description, &amount); err != nil {
			return nil, err
		} else if ok {
			items = append(items, line)
		}
	}

	return items, nil
}

// Totals recomputes per-line VAT amounts and aggregates over the set.
func (s *InvoiceService) Totals(req dto.TotalsRequest) (*dto.InvoiceTotals, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid line items payload")
	}

	subtotal := decimal.Zero
	vat := decimal.Zero

	items := make([]dto.InvoiceLineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		charge, err := parseAmount(item.Description, item.ChargeAmount)
		if err != nil {
			return nil, err
		}

		lineVAT := decimal.Zero
		if item.VATCode == dto.VATCodeStandard {
			lineVAT = charge.Mul(vatRate).Round(2)
		}

		item.VATAmount = lineVAT.StringFixed(2)
		item.ChargeAmount = charge.StringFixed(2)
		items = append(items, item)

		subtotal = subtotal.Add(charge)
		vat = vat.Add(lineVAT)
	}

	return &dto.InvoiceTotals{
		LineItems: items,
		Subtotal:  subtotal.StringFixed(2),
		VAT:       vat.StringFixed(2),
		Total:     subtotal.Add(vat).StringFixed(2),
	}, nil
}

// chargeLine builds a zero-rated line when the raw amount parses positive.
func chargeLine(description string, raw *string) (dto.InvoiceLineItem, bool, error) {
	if raw == nil || *raw == "" {
		return dto.InvoiceLineItem{}, false, nil
	}
	amount, err := parseAmount(description, *raw)
	if err != nil {
		return dto.InvoiceLineItem{}, false, err
	}
	if !amount.IsPositive() {
		return dto.InvoiceLineItem{}, false, nil
	}
	return dto.InvoiceLineItem{
		Description:  description,
		ChargeAmount: amount.StringFixed(2),
		VATCode:      dto.VATCodeZeroRated,
		VATAmount:    "0.00",
	}, true, nil
}

// commodityCodeLine charges for commodity codes beyond the first. One code is
// included in the clearance charge, so two codes yield one chargeable unit.
func commodityCodeLine(codes int, perCode *string) (dto.InvoiceLineItem, bool, error) {
	if codes <= 1 || perCode == nil || *perCode == "" {
		return dto.InvoiceLineItem{}, false, nil
	}
	unit, err := parseAmount("Additional Commodity Codes", *perCode)
	if err != nil {
		return dto.InvoiceLineItem{}, false, err
	}
	if !unit.IsPositive() {
		return dto.InvoiceLineItem{}, false, nil
	}
	chargeable := codes - 1
	amount := unit.Mul(decimal.NewFromInt(int64(chargeable)))
	return dto.InvoiceLineItem{
		Description:  fmt.Sprintf("Additional Commodity Codes (%d)", chargeable),
		ChargeAmount: amount.StringFixed(2),
		VATCode:      dto.VATCodeZeroRated,
		VATAmount:    "0.00",
	}, true, nil
}

func parseAmount(description, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid amount %q for %s", raw, description))
	}
	return amount, nil
}
