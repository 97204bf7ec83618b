package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rs-freight/forwarding-api/internal/dto"
	"github.com/rs-freight/forwarding-api/internal/models"
	"github.com/rs-freight/forwarding-api/internal/repository"
	appErrors "github.com/rs-freight/forwarding-api/pkg/errors"
)

type clearanceStore interface {
	Create(ctx context.Context, clearance *models.CustomClearance) error
	FindByID(ctx context.Context, id string) (*models.CustomClearance, error)
	List(ctx context.Context, filter models.CustomClearanceFilter) ([]models.CustomClearance, int, error)
	Update(ctx context.Context, clearance *models.CustomClearance) error
	Delete(ctx context.Context, clearance *models.CustomClearance) error
	UpdateIndicator(ctx context.Context, id, indicator string, value *int, at time.Time) error
	PropagateAdviseAgentStatus(ctx context.Context, clearanceID, shipmentID string, value int, at time.Time) error
}

// ClearanceService owns standalone clearance records and the reverse half of
// the advise-agent status channel back onto import shipments.
type ClearanceService struct {
	repo      clearanceStore
	jobRefs   jobRefAllocator
	files     documentPoolSyncer
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClearanceService constructs a ClearanceService.
func NewClearanceService(repo clearanceStore, jobRefs jobRefAllocator, files documentPoolSyncer, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *ClearanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClearanceService{
		repo:      repo,
		jobRefs:   jobRefs,
		files:     files,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// Create stores a standalone clearance under a fresh job reference.
func (s *ClearanceService) Create(ctx context.Context, req dto.CreateCustomClearanceRequest) (*models.CustomClearance, error) {
	if err := s.validator.Struct(req); err != nil {
		if isBlank(req.ClearanceType) {
			return nil, appErrors.ErrMissingClearanceType
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clearance payload")
	}

	jobRef, err := s.jobRefs.Next(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "allocate job ref")
	}

	now := time.Now().UTC()
	notStarted := models.StatusIndicatorNotStarted
	sendHaulierEad := notStarted
	sendHaulierClearanceDoc := notStarted
	clearance := &models.CustomClearance{
		ID:      uuid.NewString(),
		JobRef:  jobRef,
		JobType: req.JobType,
		Status:  models.ClearanceStatusAwaitingEntry,

		CustomerID:       req.CustomerID,
		ReceiverID:       req.ReceiverID,
		CustomerRef:      req.CustomerRef,
		SupplierName:     req.SupplierName,
		ETA:              req.ETA,
		ContainerNumber:  req.ContainerNumber,
		TrailerNumber:    req.TrailerNumber,
		DepartureCountry: req.DepartureCountry,
		Vessel:           req.Vessel,
		Pieces:           req.Pieces,
		Weight:           req.Weight,
		Cube:             req.Cube,
		GoodsDescription: req.GoodsDescription,

		InvoiceValue:                  req.InvoiceValue,
		TransportCost:                 req.TransportCost,
		ClearanceCharge:               req.ClearanceCharge,
		Currency:                      req.Currency,
		AdditionalCommodityCodes:      req.AdditionalCommodityCodes,
		AdditionalCommodityCodeCharge: req.AdditionalCommodityCodeCharge,
		VATZeroRated:                  req.VATZeroRated,
		ClearanceType:                 req.ClearanceType,

		TransportDocuments: models.DocumentList(req.TransportDocuments),

		AdviseAgentStatusIndicator:             notStarted,
		SendHaulierEadStatusIndicator:          &sendHaulierEad,
		SendHaulierClearanceDocStatusIndicator: &sendHaulierClearanceDoc,
		SendEntryToCustomerStatusIndicator:     notStarted,
		InvoiceCustomerStatusIndicator:         notStarted,
		SendClearedEntryStatusIndicator:        notStarted,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, clearance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create clearance")
	}

	if err := s.files.ApplySync(ctx, DocumentSyncPayload{
		JobRef:    clearance.JobRef,
		Documents: clearance.TransportDocuments,
		Source:    models.EntityCustomClearance,
		SourceID:  clearance.ID,
	}); err != nil {
		s.logger.Warn("document sync failed after create", zap.String("clearance_id", clearance.ID), zap.Error(err))
	}

	return clearance, nil
}

// Get returns a single clearance.
func (s *ClearanceService) Get(ctx context.Context, id string) (*models.CustomClearance, error) {
	clearance, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clearance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "fetch clearance")
	}
	return clearance, nil
}

// List returns clearances matching the filter with pagination metadata.
func (s *ClearanceService) List(ctx context.Context, filter models.CustomClearanceFilter) ([]models.CustomClearance, *models.Pagination, error) {
	clearances, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list clearances")
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	return clearances, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update applies a partial update. Derived clearances accept edits the same
// way standalone ones do; shipment fields are never written back.
func (s *ClearanceService) Update(ctx context.Context, id string, req dto.UpdateCustomClearanceRequest) (*models.CustomClearance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clearance payload")
	}

	clearance, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.applyUpdate(clearance, req)
	clearance.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, clearance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update clearance")
	}

	if req.TransportDocuments != nil {
		if err := s.files.ApplySync(ctx, DocumentSyncPayload{
			JobRef:      clearance.JobRef,
			Documents:   clearance.TransportDocuments,
			Source:      models.EntityCustomClearance,
			SourceID:    clearance.ID,
			Counterpart: shipmentMirror(clearance),
		}); err != nil {
			s.logger.Warn("document sync failed after update", zap.String("clearance_id", clearance.ID), zap.Error(err))
		}
	}

	return clearance, nil
}

// Delete removes a clearance. Deleting a derived clearance detaches it from
// the source shipment but leaves the shipment itself untouched.
func (s *ClearanceService) Delete(ctx context.Context, id string) error {
	clearance, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, clearance); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "clearance not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete clearance")
	}
	return nil
}

// UpdateStatus writes a single indicator. The advise-agent indicator of a
// clearance derived from an import shipment propagates back onto the
// shipment's clearance indicator.
func (s *ClearanceService) UpdateStatus(ctx context.Context, id, indicator string, req dto.UpdateStatusRequest) (*models.CustomClearance, error) {
	known, optional := models.KnownClearanceIndicator(indicator)
	if !known {
		return nil, appErrors.ErrUnknownIndicator
	}
	if !models.ValidStatusValue(req.Status, optional) {
		return nil, appErrors.ErrInvalidStatusValue
	}

	clearance, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fromImport := clearance.DerivedFromShipment() && *clearance.CreatedFromType == string(models.EntityImportShipment)

	if indicator == models.IndicatorAdviseAgent && fromImport {
		if err := s.repo.PropagateAdviseAgentStatus(ctx, clearance.ID, *clearance.CreatedFromID, *req.Status, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "propagate advise agent status")
		}
		s.audit.Record(ctx, models.AuditActionStatusPropagate, "custom_clearances", clearance.ID, clearance.AdviseAgentStatusIndicator, *req.Status)
	} else {
		if err := s.repo.UpdateIndicator(ctx, clearance.ID, indicator, req.Status, now); err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "clearance not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update status indicator")
		}
	}

	return s.Get(ctx, id)
}

// shipmentMirror addresses the source shipment of a derived clearance for a
// document pool sync. Standalone clearances have no mirror target.
func shipmentMirror(clearance *models.CustomClearance) *models.EntityRef {
	if !clearance.DerivedFromShipment() {
		return nil
	}
	return &models.EntityRef{
		Type: models.EntityType(*clearance.CreatedFromType),
		ID:   *clearance.CreatedFromID,
	}
}

func (s *ClearanceService) applyUpdate(clearance *models.CustomClearance, req dto.UpdateCustomClearanceRequest) {
	if req.Status != nil {
		clearance.Status = *req.Status
	}
	if req.CustomerID != nil {
		clearance.CustomerID = req.CustomerID
	}
	if req.ReceiverID != nil {
		clearance.ReceiverID = req.ReceiverID
	}
	if req.CustomerRef != nil {
		clearance.CustomerRef = req.CustomerRef
	}
	if req.SupplierName != nil {
		clearance.SupplierName = req.SupplierName
	}
	if req.ETA != nil {
		clearance.ETA = req.ETA
	}
	if req.ContainerNumber != nil {
		clearance.ContainerNumber = req.ContainerNumber
	}
	if req.TrailerNumber != nil {
		clearance.TrailerNumber = req.TrailerNumber
	}
	if req.DepartureCountry != nil {
		clearance.DepartureCountry = req.DepartureCountry
	}
	if req.Vessel != nil {
		clearance.Vessel = req.Vessel
	}
	if req.Pieces != nil {
		clearance.Pieces = req.Pieces
	}
	if req.Weight != nil {
		clearance.Weight = req.Weight
	}
	if req.Cube != nil {
		clearance.Cube = req.Cube
	}
	if req.GoodsDescription != nil {
		clearance.GoodsDescription = req.GoodsDescription
	}
	if req.InvoiceValue != nil {
		clearance.InvoiceValue = req.InvoiceValue
	}
	if req.TransportCost != nil {
		clearance.TransportCost = req.TransportCost
	}
	if req.ClearanceCharge != nil {
		clearance.ClearanceCharge = req.ClearanceCharge
	}
	if req.Currency != nil {
		clearance.Currency = req.Currency
	}
	if req.AdditionalCommodityCodes != nil {
		clearance.AdditionalCommodityCodes = *req.AdditionalCommodityCodes
	}
	if req.AdditionalCommodityCodeCharge != nil {
		clearance.AdditionalCommodityCodeCharge = req.AdditionalCommodityCodeCharge
	}
	if req.VATZeroRated != nil {
		clearance.VATZeroRated = *req.VATZeroRated
	}
	if req.ClearanceType != nil {
		clearance.ClearanceType = req.ClearanceType
	}
	if req.TransportDocuments != nil {
		clearance.TransportDocuments = models.DocumentList(*req.TransportDocuments)
	}
}
