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

type exportShipmentStore interface {
	Create(ctx context.Context, shipment *models.ExportShipment) error
	CreateWithClearance(ctx context.Context, shipment *models.ExportShipment, clearance *models.CustomClearance) error
	FindByID(ctx context.Context, id string) (*models.ExportShipment, error)
	List(ctx context.Context, filter models.ExportShipmentFilter) ([]models.ExportShipment, int, error)
	Update(ctx context.Context, shipment *models.ExportShipment) error
	UpdateWithClearanceCreate(ctx context.Context, shipment *models.ExportShipment, clearance *models.CustomClearance) error
	UpdateWithClearanceDelete(ctx context.Context, shipment *models.ExportShipment, clearanceID string) error
	Delete(ctx context.Context, id string, linkedClearanceID *string) error
	UpdateIndicator(ctx context.Context, id, indicator string, value int, at time.Time) error
}

// ExportShipmentService owns the export leg lifecycle. A shipment cleared by
// the in-house agent derives a linked clearance the same way imports do.
type ExportShipmentService struct {
	repo      exportShipmentStore
	jobRefs   jobRefAllocator
	files     documentPoolSyncer
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportShipmentService constructs an ExportShipmentService.
func NewExportShipmentService(repo exportShipmentStore, jobRefs jobRefAllocator, files documentPoolSyncer, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ExportShipmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportShipmentService{
		repo:      repo,
		jobRefs:   jobRefs,
		files:     files,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Create stores a new shipment, deriving a clearance when the agent is the
// in-house one.
func (s *ExportShipmentService) Create(ctx context.Context, req dto.CreateExportShipmentRequest) (*models.ExportShipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export shipment payload")
	}
	triggered := req.ClearanceAgent != nil && *req.ClearanceAgent == models.ClearanceAgentRS
	if triggered && isBlank(req.ClearanceType) {
		return nil, appErrors.ErrMissingClearanceType
	}

	jobRef, err := s.jobRefs.Next(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "allocate job ref")
	}

	now := time.Now().UTC()
	shipment := &models.ExportShipment{
		ID:             uuid.NewString(),
		JobRef:         jobRef,
		ClearanceAgent: req.ClearanceAgent,

		DestinationCustomerID: req.DestinationCustomerID,
		ReceiverID:            req.ReceiverID,
		CustomerRef:           req.CustomerRef,
		Supplier:              req.Supplier,
		BookingDate:           req.BookingDate,
		TrailerNumber:         req.TrailerNumber,
		DepartureFrom:         req.DepartureFrom,
		Pieces:                req.Pieces,
		Weight:                req.Weight,
		Cube:                  req.Cube,
		GoodsDescription:      req.GoodsDescription,

		Value:           req.Value,
		FreightRateOut:  req.FreightRateOut,
		ClearanceCharge: req.ClearanceCharge,
		Currency:        req.Currency,
		ClearanceType:   req.ClearanceType,

		Attachments:         models.DocumentList(req.Attachments),
		ExpensesToChargeOut: models.ExpenseList(req.ExpensesToChargeOut),

		HaulierBookingStatusIndicator:    models.StatusIndicatorNotStarted,
		InvoiceCustomerStatusIndicator:   models.StatusIndicatorNotStarted,
		SendPodToCustomerStatusIndicator: models.StatusIndicatorNotStarted,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if shipment.ClearanceTrigger() {
		clearance, err := s.deriveClearance(ctx, shipment, now)
		if err != nil {
			return nil, err
		}
		if err := s.repo.CreateWithClearance(ctx, shipment, clearance); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create export shipment")
		}
		s.audit.Record(ctx, models.AuditActionClearanceAutoCreate, "custom_clearances", clearance.ID, nil, clearance)
		s.metrics.RecordClearanceSync(models.JobTypeExport, "create")
	} else {
		if err := s.repo.Create(ctx, shipment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create export shipment")
		}
	}

	if err := s.files.ApplySync(ctx, DocumentSyncPayload{
		JobRef:      shipment.JobRef,
		Documents:   shipment.Attachments,
		Source:      models.EntityExportShipment,
		SourceID:    shipment.ID,
		Counterpart: clearanceMirror(shipment.LinkedClearanceID),
	}); err != nil {
		s.logger.Warn("document sync failed after create", zap.String("shipment_id", shipment.ID), zap.Error(err))
	}

	return shipment, nil
}

// Get returns a single shipment.
func (s *ExportShipmentService) Get(ctx context.Context, id string) (*models.ExportShipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export shipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "fetch export shipment")
	}
	return shipment, nil
}

// List returns shipments matching the filter with pagination metadata.
func (s *ExportShipmentService) List(ctx context.Context, filter models.ExportShipmentFilter) ([]models.ExportShipment, *models.Pagination, error) {
	shipments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list export shipments")
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	return shipments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update applies a partial update, flipping the linked clearance when the
// agent changes to or from the in-house value.
func (s *ExportShipmentService) Update(ctx context.Context, id string, req dto.UpdateExportShipmentRequest) (*models.ExportShipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export shipment payload")
	}

	shipment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	hadTrigger := shipment.ClearanceTrigger()
	previousClearanceID := shipment.LinkedClearanceID

	s.applyUpdate(shipment, req)
	shipment.UpdatedAt = time.Now().UTC()

	if shipment.ClearanceTrigger() && isBlank(shipment.ClearanceType) {
		return nil, appErrors.ErrMissingClearanceType
	}

	// A triggered shipment without a link re-derives, covering both the
	// agent changing to the in-house one and a derived clearance having
	// been deleted directly.
	hasTrigger := shipment.ClearanceTrigger()
	switch {
	case hasTrigger && shipment.LinkedClearanceID == nil:
		clearance, err := s.deriveClearance(ctx, shipment, shipment.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateWithClearanceCreate(ctx, shipment, clearance); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update export shipment")
		}
		s.audit.Record(ctx, models.AuditActionClearanceAutoCreate, "custom_clearances", clearance.ID, nil, clearance)
		s.metrics.RecordClearanceSync(models.JobTypeExport, "create")

	case hadTrigger && !hasTrigger && previousClearanceID != nil:
		clearanceID := *previousClearanceID
		shipment.LinkedClearanceID = nil
		if err := s.repo.UpdateWithClearanceDelete(ctx, shipment, clearanceID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update export shipment")
		}
		s.audit.Record(ctx, models.AuditActionClearanceAutoDelete, "custom_clearances", clearanceID, nil, nil)
		s.metrics.RecordClearanceSync(models.JobTypeExport, "delete")

	default:
		if err := s.repo.Update(ctx, shipment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update export shipment")
		}
	}

	if req.Attachments != nil {
		if err := s.files.ApplySync(ctx, DocumentSyncPayload{
			JobRef:      shipment.JobRef,
			Documents:   shipment.Attachments,
			Source:      models.EntityExportShipment,
			SourceID:    shipment.ID,
			Counterpart: clearanceMirror(shipment.LinkedClearanceID),
		}); err != nil {
			s.logger.Warn("document sync failed after update", zap.String("shipment_id", shipment.ID), zap.Error(err))
		}
	}

	return shipment, nil
}

// Delete removes the shipment and any linked clearance.
func (s *ExportShipmentService) Delete(ctx context.Context, id string) error {
	shipment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, shipment.LinkedClearanceID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "export shipment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete export shipment")
	}

	if shipment.LinkedClearanceID != nil {
		s.audit.Record(ctx, models.AuditActionClearanceAutoDelete, "custom_clearances", *shipment.LinkedClearanceID, nil, nil)
		s.metrics.RecordClearanceSync(models.JobTypeExport, "delete")
	}
	return nil
}

// UpdateStatus writes a single indicator.
func (s *ExportShipmentService) UpdateStatus(ctx context.Context, id, indicator string, req dto.UpdateStatusRequest) (*models.ExportShipment, error) {
	if !models.KnownExportIndicator(indicator) {
		return nil, appErrors.ErrUnknownIndicator
	}
	if !models.ValidStatusValue(req.Status, false) {
		return nil, appErrors.ErrInvalidStatusValue
	}

	if err := s.repo.UpdateIndicator(ctx, id, indicator, *req.Status, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export shipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update status indicator")
	}

	return s.Get(ctx, id)
}

// deriveClearance builds the in-house clearance record for an export leg.
func (s *ExportShipmentService) deriveClearance(ctx context.Context, shipment *models.ExportShipment, now time.Time) (*models.CustomClearance, error) {
	jobRef, err := s.jobRefs.Next(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "allocate clearance job ref")
	}

	fromType := string(models.EntityExportShipment)
	notStarted := models.StatusIndicatorNotStarted
	sendHaulierEad := notStarted
	sendHaulierClearanceDoc := notStarted
	clearance := &models.CustomClearance{
		ID:              uuid.NewString(),
		JobRef:          jobRef,
		JobType:         models.JobTypeExport,
		Status:          models.ClearanceStatusAwaitingEntry,
		CreatedFromType: &fromType,
		CreatedFromID:   &shipment.ID,

		CustomerID:       shipment.DestinationCustomerID,
		ReceiverID:       shipment.ReceiverID,
		CustomerRef:      shipment.CustomerRef,
		SupplierName:     shipment.Supplier,
		ETA:              shipment.BookingDate,
		TrailerNumber:    shipment.TrailerNumber,
		DepartureCountry: shipment.DepartureFrom,
		Pieces:           shipment.Pieces,
		Weight:           shipment.Weight,
		Cube:             shipment.Cube,
		GoodsDescription: shipment.GoodsDescription,

		InvoiceValue:    shipment.Value,
		TransportCost:   shipment.FreightRateOut,
		ClearanceCharge: shipment.ClearanceCharge,
		Currency:        shipment.Currency,
		ClearanceType:   shipment.ClearanceType,

		TransportDocuments: models.DocumentList{},

		AdviseAgentStatusIndicator:             notStarted,
		SendHaulierEadStatusIndicator:          &sendHaulierEad,
		SendHaulierClearanceDocStatusIndicator: &sendHaulierClearanceDoc,
		SendEntryToCustomerStatusIndicator:     notStarted,
		InvoiceCustomerStatusIndicator:         notStarted,
		SendClearedEntryStatusIndicator:        notStarted,

		CreatedAt: now,
		UpdatedAt: now,
	}

	shipment.LinkedClearanceID = &clearance.ID
	return clearance, nil
}

func (s *ExportShipmentService) applyUpdate(shipment *models.ExportShipment, req dto.UpdateExportShipmentRequest) {
	if req.ClearanceAgent != nil {
		shipment.ClearanceAgent = req.ClearanceAgent
	}
	if req.DestinationCustomerID != nil {
		shipment.DestinationCustomerID = req.DestinationCustomerID
	}
	if req.ReceiverID != nil {
		shipment.ReceiverID = req.ReceiverID
	}
	if req.CustomerRef != nil {
		shipment.CustomerRef = req.CustomerRef
	}
	if req.Supplier != nil {
		shipment.Supplier = req.Supplier
	}
	if req.BookingDate != nil {
		shipment.BookingDate = req.BookingDate
	}
	if req.TrailerNumber != nil {
		shipment.TrailerNumber = req.TrailerNumber
	}
	if req.DepartureFrom != nil {
		shipment.DepartureFrom = req.DepartureFrom
	}
	if req.Pieces != nil {
		shipment.Pieces = req.Pieces
	}
	if req.Weight != nil {
		shipment.Weight = req.Weight
	}
	if req.Cube != nil {
		shipment.Cube = req.Cube
	}
	if req.GoodsDescription != nil {
		shipment.GoodsDescription = req.GoodsDescription
	}
	if req.Value != nil {
		shipment.Value = req.Value
	}
	if req.FreightRateOut != nil {
		shipment.FreightRateOut = req.FreightRateOut
	}
	if req.ClearanceCharge != nil {
		shipment.ClearanceCharge = req.ClearanceCharge
	}
	if req.Currency != nil {
		shipment.Currency = req.Currency
	}
	if req.ClearanceType != nil {
		shipment.ClearanceType = req.ClearanceType
	}
	if req.Attachments != nil {
		shipment.Attachments = models.DocumentList(*req.Attachments)
	}
	if req.ExpensesToChargeOut != nil {
		shipment.ExpensesToChargeOut = models.ExpenseList(*req.ExpensesToChargeOut)
	}
}
