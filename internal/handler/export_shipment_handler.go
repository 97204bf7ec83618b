package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rs-freight/forwarding-api/internal/dto"
	"github.com/rs-freight/forwarding-api/internal/models"
	"github.com/rs-freight/forwarding-api/internal/service"
	appErrors "github.com/rs-freight/forwarding-api/pkg/errors"
	"github.com/rs-freight/forwarding-api/pkg/response"
)

// ExportShipmentHandler exposes export shipment endpoints.
type ExportShipmentHandler struct {
	shipments *service.ExportShipmentService
}

// NewExportShipmentHandler constructs ExportShipmentHandler.
func NewExportShipmentHandler(shipments *service.ExportShipmentService) *ExportShipmentHandler {
	return &ExportShipmentHandler{shipments: shipments}
}

// List godoc
// @Summary List export shipments
// @Tags Export Shipments
// @Produce json
// @Param search query string false "Search by customer ref, supplier or trailer"
// @Param jobRef query int false "Filter by job reference"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /export-shipments [get]
func (h *ExportShipmentHandler) List(c *gin.Context) {
	var filter models.ExportShipmentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := c.Query("jobRef"); raw != "" {
		if ref, err := strconv.Atoi(raw); err == nil {
			filter.JobRef = &ref
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	shipments, pagination, err := h.shipments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shipments, pagination)
}

// Get godoc
// @Summary Get export shipment detail
// @Tags Export Shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} response.Envelope
// @Router /export-shipments/{id} [get]
func (h *ExportShipmentHandler) Get(c *gin.Context) {
	shipment, err := h.shipments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shipment, nil)
}

// Create godoc
// @Summary Create export shipment
// @Tags Export Shipments
// @Accept json
// @Produce json
// @Param payload body dto.CreateExportShipmentRequest true "Shipment payload"
// @Success 201 {object} response.Envelope
// @Router /export-shipments [post]
func (h *ExportShipmentHandler) Create(c *gin.Context) {
	var req dto.CreateExportShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	shipment, err := h.shipments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, shipment)
}

// Update godoc
// @Summary Update export shipment
// @Tags Export Shipments
// @Accept json
// @Produce json
// @Param id path string true "Shipment ID"
// @Param payload body dto.UpdateExportShipmentRequest true "Shipment payload"
// @Success 200 {object} response.Envelope
// @Router /export-shipments/{id} [put]
func (h *ExportShipmentHandler) Update(c *gin.Context) {
	var req dto.UpdateExportShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	shipment, err := h.shipments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shipment, nil)
}

// Delete godoc
// @Summary Delete export shipment
// @Tags Export Shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 204
// @Router /export-shipments/{id} [delete]
func (h *ExportShipmentHandler) Delete(c *gin.Context) {
	if err := h.shipments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateStatus godoc
// @Summary Update a single status indicator
// @Tags Export Shipments
// @Accept json
// @Produce json
// @Param id path string true "Shipment ID"
// @Param indicator path string true "Indicator name"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /export-shipments/{id}/status/{indicator} [patch]
func (h *ExportShipmentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	shipment, err := h.shipments.UpdateStatus(c.Request.Context(), c.Param("id"), c.Param("indicator"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shipment, nil)
}
