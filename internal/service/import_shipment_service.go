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

type importShipmentStore interface {
	Create(ctx context.Context, shipment *models.ImportShipment) error
	CreateWithClearance(ctx context.Context, shipment *models.ImportShipment, clearance *models.CustomClearance) error
	FindByID(ctx context.Context, id string) (*models.ImportShipment, error)
	List(ctx context.Context, filter models.ImportShipmentFilter) ([]models.ImportShipment, int, error)
	Update(ctx context.Context, shipment *models.ImportShipment) error
	UpdateWithClearanceCreate(ctx context.Context, shipment *models.ImportShipment, clearance *models.CustomClearance) error
	UpdateWithClearanceDelete(ctx context.Context, shipment *models.ImportShipment, clearanceID string) error
	Delete(ctx context.Context, id string, linkedClearanceID *string) error
	UpdateIndicator(ctx context.Context, id, indicator string, value int, at time.Time) error
	PropagateClearanceStatus(ctx context.Context, shipmentID, clearanceID string, value int, at time.Time) error
}

type jobRefAllocator interface {
	Next(ctx context.Context) (int, error)
}

type documentPoolSyncer interface {
	ApplySync(ctx context.Context, payload DocumentSyncPayload) error
}

// ImportShipmentService owns the import leg lifecycle, including derivation
// and teardown of the linked clearance record.
type ImportShipmentService struct {
	repo      importShipmentStore
	jobRefs   jobRefAllocator
	files     documentPoolSyncer
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewImportShipmentService constructs an ImportShipmentService.
func NewImportShipmentService(repo importShipmentStore, jobRefs jobRefAllocator, files documentPoolSyncer, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ImportShipmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportShipmentService{
		repo:      repo,
		jobRefs:   jobRefs,
		files:     files,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Create stores a new shipment. When the clearance trigger is set an
// in-house clearance record is derived under its own job reference and both
// rows land in one transaction.
func (s *ImportShipmentService) Create(ctx context.Context, req dto.CreateImportShipmentRequest) (*models.ImportShipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import shipment payload")
	}
	if req.RSToClear && isBlank(req.ClearanceType) {
		return nil, appErrors.ErrMissingClearanceType
	}

	jobRef, err := s.jobRefs.Next(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "allocate job ref")
	}

	now := time.Now().UTC()
	shipment := &models.ImportShipment{
		ID:        uuid.NewString(),
		JobRef:    jobRef,
		RSToClear: req.RSToClear,

		ImportCustomerID: req.ImportCustomerID,
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
		FreightCharge:                 req.FreightCharge,
		ClearanceCharge:               req.ClearanceCharge,
		Currency:                      req.Currency,
		AdditionalCommodityCodes:      req.AdditionalCommodityCodes,
		AdditionalCommodityCodeCharge: req.AdditionalCommodityCodeCharge,
		VATZeroRated:                  req.VATZeroRated,
		ClearanceType:                 req.ClearanceType,

		Attachments:         models.DocumentList(req.Attachments),
		ExpensesToChargeOut: models.ExpenseList(req.ExpensesToChargeOut),
		AdditionalExpenses:  models.ExpenseList(req.AdditionalExpenses),

		ClearanceStatusIndicator:         models.StatusIndicatorNotStarted,
		DeliveryBookedStatusIndicator:    models.StatusIndicatorNotStarted,
		HaulierBookingStatusIndicator:    models.StatusIndicatorNotStarted,
		ContainerReleaseStatusIndicator:  models.StatusIndicatorNotStarted,
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
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create import shipment")
		}
		s.audit.Record(ctx, models.AuditActionClearanceAutoCreate, "custom_clearances", clearance.ID, nil, clearance)
		s.metrics.RecordClearanceSync(models.JobTypeImport, "create")
	} else {
		if err := s.repo.Create(ctx, shipment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create import shipment")
		}
	}

	if err := s.files.ApplySync(ctx, DocumentSyncPayload{
		JobRef:      shipment.JobRef,
		Documents:   shipment.Attachments,
		Source:      models.EntityImportShipment,
		SourceID:    shipment.ID,
		Counterpart: clearanceMirror(shipment.LinkedClearanceID),
	}); err != nil {
		s.logger.Warn("document sync failed after create", zap.String("shipment_id", shipment.ID), zap.Error(err))
	}

	return shipment, nil
}

// Get returns a single shipment.
func (s *ImportShipmentService) Get(ctx context.Context, id string) (*models.ImportShipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import shipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "fetch import shipment")
	}
	return shipment, nil
}

// List returns shipments matching the filter with pagination metadata.
func (s *ImportShipmentService) List(ctx context.Context, filter models.ImportShipmentFilter) ([]models.ImportShipment, *models.Pagination, error) {
	shipments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list import shipments")
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	return shipments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update applies a partial update. Flipping the clearance trigger creates or
// deletes the linked clearance; mirrored fields are not re-synced after the
// clearance exists.
func (s *ImportShipmentService) Update(ctx context.Context, id string, req dto.UpdateImportShipmentRequest) (*models.ImportShipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import shipment payload")
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
	// trigger flipping on and a derived clearance having been deleted
	// directly (which detaches the shipment but leaves the trigger set).
	hasTrigger := shipment.ClearanceTrigger()
	switch {
	case hasTrigger && shipment.LinkedClearanceID == nil:
		clearance, err := s.deriveClearance(ctx, shipment, shipment.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateWithClearanceCreate(ctx, shipment, clearance); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update import shipment")
		}
		s.audit.Record(ctx, models.AuditActionClearanceAutoCreate, "custom_clearances", clearance.ID, nil, clearance)
		s.metrics.RecordClearanceSync(models.JobTypeImport, "create")

	case hadTrigger && !hasTrigger && previousClearanceID != nil:
		clearanceID := *previousClearanceID
		shipment.LinkedClearanceID = nil
		if err := s.repo.UpdateWithClearanceDelete(ctx, shipment, clearanceID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update import shipment")
		}
		s.audit.Record(ctx, models.AuditActionClearanceAutoDelete, "custom_clearances", clearanceID, nil, nil)
		s.metrics.RecordClearanceSync(models.JobTypeImport, "delete")

	default:
		if err := s.repo.Update(ctx, shipment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update import shipment")
		}
	}

	if req.Attachments != nil {
		if err := s.files.ApplySync(ctx, DocumentSyncPayload{
			JobRef:      shipment.JobRef,
			Documents:   shipment.Attachments,
			Source:      models.EntityImportShipment,
			SourceID:    shipment.ID,
			Counterpart: clearanceMirror(shipment.LinkedClearanceID),
		}); err != nil {
			s.logger.Warn("document sync failed after update", zap.String("shipment_id", shipment.ID), zap.Error(err))
		}
	}

	return shipment, nil
}

// Delete removes the shipment and any linked clearance.
func (s *ImportShipmentService) Delete(ctx context.Context, id string) error {
	shipment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, shipment.LinkedClearanceID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "import shipment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete import shipment")
	}

	if shipment.LinkedClearanceID != nil {
		s.audit.Record(ctx, models.AuditActionClearanceAutoDelete, "custom_clearances", *shipment.LinkedClearanceID, nil, nil)
		s.metrics.RecordClearanceSync(models.JobTypeImport, "delete")
	}
	return nil
}

// UpdateStatus writes a single indicator. The clearance indicator of a linked
// shipment propagates onto the clearance's advise-agent indicator.
func (s *ImportShipmentService) UpdateStatus(ctx context.Context, id, indicator string, req dto.UpdateStatusRequest) (*models.ImportShipment, error) {
	if !models.KnownImportIndicator(indicator) {
		return nil, appErrors.ErrUnknownIndicator
	}
	if !models.ValidStatusValue(req.Status, false) {
		return nil, appErrors.ErrInvalidStatusValue
	}

	shipment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	value := *req.Status

	if indicator == models.IndicatorClearance && shipment.LinkedClearanceID != nil {
		if err := s.repo.PropagateClearanceStatus(ctx, shipment.ID, *shipment.LinkedClearanceID, value, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "propagate clearance status")
		}
		s.audit.Record(ctx, models.AuditActionStatusPropagate, "import_shipments", shipment.ID, shipment.ClearanceStatusIndicator, value)
	} else {
		if err := s.repo.UpdateIndicator(ctx, shipment.ID, indicator, value, now); err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "import shipment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update status indicator")
		}
	}

	return s.Get(ctx, id)
}

// deriveClearance builds the in-house clearance record for a shipment. The
// clearance is a separate job and receives its own reference; shared fields
// are copied once at creation time and never re-synced afterwards.
func (s *ImportShipmentService) deriveClearance(ctx context.Context, shipment *models.ImportShipment, now time.Time) (*models.CustomClearance, error) {
	jobRef, err := s.jobRefs.Next(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "allocate clearance job ref")
	}

	fromType := string(models.EntityImportShipment)
	notStarted := models.StatusIndicatorNotStarted
	sendHaulierEad := notStarted
	sendHaulierClearanceDoc := notStarted
	clearance := &models.CustomClearance{
		ID:              uuid.NewString(),
		JobRef:          jobRef,
		JobType:         models.JobTypeImport,
		Status:          models.ClearanceStatusAwaitingEntry,
		CreatedFromType: &fromType,
		CreatedFromID:   &shipment.ID,

		CustomerID:       shipment.ImportCustomerID,
		CustomerRef:      shipment.CustomerRef,
		SupplierName:     shipment.SupplierName,
		ETA:              shipment.ETA,
		ContainerNumber:  shipment.ContainerNumber,
		TrailerNumber:    shipment.TrailerNumber,
		DepartureCountry: shipment.DepartureCountry,
		Vessel:           shipment.Vessel,
		Pieces:           shipment.Pieces,
		Weight:           shipment.Weight,
		Cube:             shipment.Cube,
		GoodsDescription: shipment.GoodsDescription,

		InvoiceValue:                  shipment.InvoiceValue,
		TransportCost:                 shipment.FreightCharge,
		ClearanceCharge:               shipment.ClearanceCharge,
		Currency:                      shipment.Currency,
		AdditionalCommodityCodes:      shipment.AdditionalCommodityCodes,
		AdditionalCommodityCodeCharge: shipment.AdditionalCommodityCodeCharge,
		VATZeroRated:                  shipment.VATZeroRated,
		ClearanceType:                 shipment.ClearanceType,

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

func (s *ImportShipmentService) applyUpdate(shipment *models.ImportShipment, req dto.UpdateImportShipmentRequest) {
	if req.RSToClear != nil {
		shipment.RSToClear = *req.RSToClear
	}
	if req.ImportCustomerID != nil {
		shipment.ImportCustomerID = req.ImportCustomerID
	}
	if req.CustomerRef != nil {
		shipment.CustomerRef = req.CustomerRef
	}
	if req.SupplierName != nil {
		shipment.SupplierName = req.SupplierName
	}
	if req.ETA != nil {
		shipment.ETA = req.ETA
	}
	if req.ContainerNumber != nil {
		shipment.ContainerNumber = req.ContainerNumber
	}
	if req.TrailerNumber != nil {
		shipment.TrailerNumber = req.TrailerNumber
	}
	if req.DepartureCountry != nil {
		shipment.DepartureCountry = req.DepartureCountry
	}
	if req.Vessel != nil {
		shipment.Vessel = req.Vessel
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
	if req.InvoiceValue != nil {
		shipment.InvoiceValue = req.InvoiceValue
	}
	if req.FreightCharge != nil {
		shipment.FreightCharge = req.FreightCharge
	}
	if req.ClearanceCharge != nil {
		shipment.ClearanceCharge = req.ClearanceCharge
	}
	if req.Currency != nil {
		shipment.Currency = req.Currency
	}
	if req.AdditionalCommodityCodes != nil {
		shipment.AdditionalCommodityCodes = *req.AdditionalCommodityCodes
	}
	if req.AdditionalCommodityCodeCharge != nil {
		shipment.AdditionalCommodityCodeCharge = req.AdditionalCommodityCodeCharge
	}
	if req.VATZeroRated != nil {
		shipment.VATZeroRated = *req.VATZeroRated
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
	if req.AdditionalExpenses != nil {
		shipment.AdditionalExpenses = models.ExpenseList(*req.AdditionalExpenses)
	}
}

// clearanceMirror addresses the linked clearance for a document pool sync.
// The clearance carries its own job reference, so mirroring goes by id.
func clearanceMirror(linkedClearanceID *string) *models.EntityRef {
	if linkedClearanceID == nil {
		return nil
	}
	return &models.EntityRef{Type: models.EntityCustomClearance, ID: *linkedClearanceID}
}

func isBlank(value *string) bool {
	return value == nil || *value == ""
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
