package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rs-freight/forwarding-api/internal/dto"
	"github.com/rs-freight/forwarding-api/internal/service"
	appErrors "github.com/rs-freight/forwarding-api/pkg/errors"
	"github.com/rs-freight/forwarding-api/pkg/response"
)

// InvoiceHandler exposes invoice calculation endpoints.
type InvoiceHandler struct {
	invoices *service.InvoiceService
}

// NewInvoiceHandler constructs InvoiceHandler.
func NewInvoiceHandler(invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// DeriveLineItems godoc
// @Summary Derive default invoice line items from job charges
// @Tags Invoices
// @Accept json
// @Produce json
// @Param payload body dto.DeriveLineItemsRequest true "Charge fields"
// @Success 200 {object} response.Envelope
// @Router /invoices/line-items [post]
func (h *InvoiceHandler) DeriveLineItems(c *gin.Context) {
	var req dto.DeriveLineItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	items, err := h.invoices.DeriveLineItems(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Totals godoc
// @Summary Compute VAT and totals over edited line items
// @Tags Invoices
// @Accept json
// @Produce json
// @Param payload body dto.TotalsRequest true "Line items"
// @Success 200 {object} response.Envelope
// @Router /invoices/totals [post]
func (h *InvoiceHandler) Totals(c *gin.Context) {
	var req dto.TotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	totals, err := h.invoices.Totals(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, totals, nil)
}
