package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rs-freight/forwarding-api/internal/service"
	appErrors "github.com/rs-freight/forwarding-api/pkg/errors"
	"github.com/rs-freight/forwarding-api/pkg/response"
)

// JobFileHandler exposes job file group endpoints.
type JobFileHandler struct {
	files *service.JobFileService
}

// NewJobFileHandler constructs JobFileHandler.
func NewJobFileHandler(files *service.JobFileService) *JobFileHandler {
	return &JobFileHandler{files: files}
}

// Get godoc
// @Summary Get the document pool for a job
// @Tags Job Files
// @Produce json
// @Param jobRef path int true "Job reference"
// @Success 200 {object} response.Envelope
// @Router /job-files/{jobRef} [get]
func (h *JobFileHandler) Get(c *gin.Context) {
	jobRef, err := strconv.Atoi(c.Param("jobRef"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "job reference must be numeric"))
		return
	}
	group, err := h.files.Group(c.Request.Context(), jobRef)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// DocumentLinks godoc
// @Summary Get signed download links for a job's documents
// @Tags Job Files
// @Produce json
// @Param jobRef path int true "Job reference"
// @Success 200 {object} response.Envelope
// @Router /job-files/{jobRef}/documents/links [get]
func (h *JobFileHandler) DocumentLinks(c *gin.Context) {
	jobRef, err := strconv.Atoi(c.Param("jobRef"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "job reference must be numeric"))
		return
	}
	links, err := h.files.DocumentLinks(c.Request.Context(), jobRef)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// Backfill godoc
// @Summary Backfill job file groups from existing records
// @Tags Job Files
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /job-files/backfill [post]
func (h *JobFileHandler) Backfill(c *gin.Context) {
	result, err := h.files.Backfill(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
