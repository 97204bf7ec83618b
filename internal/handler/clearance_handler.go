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

// ClearanceHandler exposes custom clearance endpoints.
type ClearanceHandler struct {
	clearances *service.ClearanceService
}

// NewClearanceHandler constructs ClearanceHandler.
func NewClearanceHandler(clearances *service.ClearanceService) *ClearanceHandler {
	return &ClearanceHandler{clearances: clearances}
}

// List godoc
// @Summary List custom clearances
// @Tags Custom Clearances
// @Produce json
// @Param search query string false "Search by customer ref, supplier or container"
// @Param jobRef query int false "Filter by job reference"
// @Param jobType query string false "Filter by job type (import/export)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /custom-clearances [get]
func (h *ClearanceHandler) List(c *gin.Context) {
	var filter models.CustomClearanceFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := c.Query("jobRef"); raw != "" {
		if ref, err := strconv.Atoi(raw); err == nil {
			filter.JobRef = &ref
		}
	}
	if raw := c.Query("jobType"); raw == string(models.JobTypeImport) || raw == string(models.JobTypeExport) {
		jobType := models.JobType(raw)
		filter.JobType = &jobType
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	clearances, pagination, err := h.clearances.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clearances, pagination)
}

// Get godoc
// @Summary Get custom clearance detail
// @Tags Custom Clearances
// @Produce json
// @Param id path string true "Clearance ID"
// @Success 200 {object} response.Envelope
// @Router /custom-clearances/{id} [get]
func (h *ClearanceHandler) Get(c *gin.Context) {
	clearance, err := h.clearances.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clearance, nil)
}

// Create godoc
// @Summary Create standalone custom clearance
// @Tags Custom Clearances
// @Accept json
// @Produce json
// @Param payload body dto.CreateCustomClearanceRequest true "Clearance payload"
// @Success 201 {object} response.Envelope
// @Router /custom-clearances [post]
func (h *ClearanceHandler) Create(c *gin.Context) {
	var req dto.CreateCustomClearanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	clearance, err := h.clearances.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, clearance)
}

// Update godoc
// @Summary Update custom clearance
// @Tags Custom Clearances
// @Accept json
// @Produce json
// @Param id path string true "Clearance ID"
// @Param payload body dto.UpdateCustomClearanceRequest true "Clearance payload"
// @Success 200 {object} response.Envelope
// @Router /custom-clearances/{id} [put]
func (h *ClearanceHandler) Update(c *gin.Context) {
	var req dto.UpdateCustomClearanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	clearance, err := h.clearances.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clearance, nil)
}

// Delete godoc
// @Summary Delete custom clearance
// @Tags Custom Clearances
// @Produce json
// @Param id path string true "Clearance ID"
// @Success 204
// @Router /custom-clearances/{id} [delete]
func (h *ClearanceHandler) Delete(c *gin.Context) {
	if err := h.clearances.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateStatus godoc
// @Summary Update a single status indicator
// @Tags Custom Clearances
// @Accept json
// @Produce json
// @Param id path string true "Clearance ID"
// @Param indicator path string true "Indicator name"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /custom-clearances/{id}/status/{indicator} [patch]
func (h *ClearanceHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	clearance, err := h.clearances.UpdateStatus(c.Request.Context(), c.Param("id"), c.Param("indicator"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clearance, nil)
}
