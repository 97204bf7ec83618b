package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs-freight/forwarding-api/internal/dto"
	"github.com/rs-freight/forwarding-api/internal/models"
	appErrors "github.com/rs-freight/forwarding-api/pkg/errors"
)

type exportStoreStub struct {
	existing *models.ExportShipment

	created          *models.ExportShipment
	createdClearance *models.CustomClearance
	updated          *models.ExportShipment
	deletedClearance string
	deletedID        string

	indicator      string
	indicatorValue int
}

func (s *exportStoreStub) Create(ctx context.Context, shipment *models.ExportShipment) error {
	s.created = shipment
	return nil
}

func (s *exportStoreStub) CreateWithClearance(ctx context.Context, shipment *models.ExportShipment, clearance *models.CustomClearance) error {
	s.created = shipment
	s.createdClearance = clearance
	return nil
}

func (s *exportStoreStub) FindByID(ctx context.Context, id string) (*models.ExportShipment, error) {
	if s.existing == nil || s.existing.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *s.existing
	return &copied, nil
}

func (s *exportStoreStub) List(ctx context.Context, filter models.ExportShipmentFilter) ([]models.ExportShipment, int, error) {
	if s.existing == nil {
		return nil, 0, nil
	}
	return []models.ExportShipment{*s.existing}, 1, nil
}

func (s *exportStoreStub) Update(ctx context.Context, shipment *models.ExportShipment) error {
	s.updated = shipment
	return nil
}

func (s *exportStoreStub) UpdateWithClearanceCreate(ctx context.Context, shipment *models.ExportShipment, clearance *models.CustomClearance) error {
	s.updated = shipment
	s.createdClearance = clearance
	return nil
}

func (s *exportStoreStub) UpdateWithClearanceDelete(ctx context.Context, shipment *models.ExportShipment, clearanceID string) error {
	s.updated = shipment
	s.deletedClearance = clearanceID
	return nil
}

func (s *exportStoreStub) Delete(ctx context.Context, id string, linkedClearanceID *string) error {
	s.deletedID = id
	if linkedClearanceID != nil {
		s.deletedClearance = *linkedClearanceID
	}
	return nil
}

func (s *exportStoreStub) UpdateIndicator(ctx context.Context, id, indicator string, value int, at time.Time) error {
	s.indicator = indicator
	s.indicatorValue = value
	return nil
}

func newExportService(store *exportStoreStub, refs *jobRefStub, files *filesStub, audit *auditRepoStub) *ExportShipmentService {
	return NewExportShipmentService(store, refs, files, NewAuditService(audit, nil), nil, nil, nil)
}

func TestExportShipmentCreateWithThirdPartyAgent(t *testing.T) {
	store := &exportStoreStub{}
	files := &filesStub{}
	svc := newExportService(store, &jobRefStub{next: 26000}, files, &auditRepoStub{})

	shipment, err := svc.Create(context.Background(), dto.CreateExportShipmentRequest{
		ClearanceAgent: strPtr("Borderline Customs Ltd"),
	})
	require.NoError(t, err)

	assert.Equal(t, 26001, shipment.JobRef)
	assert.Nil(t, shipment.LinkedClearanceID)
	assert.Nil(t, store.createdClearance)

	require.Len(t, files.payloads, 1)
	assert.Equal(t, models.EntityExportShipment, files.payloads[0].Source)
}

func TestExportShipmentCreateWithInHouseAgent(t *testing.T) {
	store := &exportStoreStub{}
	audit := &auditRepoStub{}
	svc := newExportService(store, &jobRefStub{next: 26000}, &filesStub{}, audit)

	booked := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	shipment, err := svc.Create(context.Background(), dto.CreateExportShipmentRequest{
		ClearanceAgent: strPtr(models.ClearanceAgentRS),
		ClearanceType:  strPtr("EX-A"),
		Supplier:       strPtr("Acme GmbH"),
		BookingDate:    &booked,
		DepartureFrom:  strPtr("Felixstowe"),
		FreightRateOut: strPtr("320.00"),
	})
	require.NoError(t, err)

	clearance := store.createdClearance
	require.NotNil(t, clearance)
	assert.Equal(t, 26002, clearance.JobRef)
	assert.Equal(t, models.JobTypeExport, clearance.JobType)
	require.NotNil(t, shipment.LinkedClearanceID)
	assert.Equal(t, clearance.ID, *shipment.LinkedClearanceID)
	require.NotNil(t, clearance.CreatedFromType)
	assert.Equal(t, string(models.EntityExportShipment), *clearance.CreatedFromType)

	require.NotNil(t, clearance.SupplierName)
	assert.Equal(t, "Acme GmbH", *clearance.SupplierName)
	require.NotNil(t, clearance.DepartureCountry)
	assert.Equal(t, "Felixstowe", *clearance.DepartureCountry)
	require.NotNil(t, clearance.TransportCost)
	assert.Equal(t, "320.00", *clearance.TransportCost)

	// The booking date lands as the clearance ETA.
	require.NotNil(t, clearance.ETA)
	assert.Equal(t, booked, *clearance.ETA)

	assert.Contains(t, audit.actions(), models.AuditActionClearanceAutoCreate)
}

func TestExportShipmentCreateRequiresClearanceType(t *testing.T) {
	svc := newExportService(&exportStoreStub{}, &jobRefStub{next: 26000}, &filesStub{}, &auditRepoStub{})

	_, err := svc.Create(context.Background(), dto.CreateExportShipmentRequest{
		ClearanceAgent: strPtr(models.ClearanceAgentRS),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingClearanceType.Code, appErrors.FromError(err).Code)
}

func TestExportShipmentUpdateAgentChangeCreatesClearance(t *testing.T) {
	store := &exportStoreStub{existing: &models.ExportShipment{
		ID:             "exp-1",
		JobRef:         26020,
		ClearanceAgent: strPtr("Borderline Customs Ltd"),
	}}
	svc := newExportService(store, &jobRefStub{next: 26200}, &filesStub{}, &auditRepoStub{})

	shipment, err := svc.Update(context.Background(), "exp-1", dto.UpdateExportShipmentRequest{
		ClearanceAgent: strPtr(models.ClearanceAgentRS),
		ClearanceType:  strPtr("EX-A"),
	})
	require.NoError(t, err)

	require.NotNil(t, store.createdClearance)
	assert.Equal(t, 26201, store.createdClearance.JobRef)
	require.NotNil(t, shipment.LinkedClearanceID)
}

func TestExportShipmentUpdateRederivesAfterDetachedClearance(t *testing.T) {
	// An in-house shipment whose derived clearance was deleted directly has
	// no link; the next update derives a fresh clearance.
	store := &exportStoreStub{existing: &models.ExportShipment{
		ID:             "exp-1",
		JobRef:         26020,
		ClearanceAgent: strPtr(models.ClearanceAgentRS),
		ClearanceType:  strPtr("EX-A"),
	}}
	svc := newExportService(store, &jobRefStub{next: 26200}, &filesStub{}, &auditRepoStub{})

	shipment, err := svc.Update(context.Background(), "exp-1", dto.UpdateExportShipmentRequest{
		Supplier: strPtr("Acme GmbH"),
	})
	require.NoError(t, err)

	require.NotNil(t, store.createdClearance)
	assert.Equal(t, 26201, store.createdClearance.JobRef)
	require.NotNil(t, shipment.LinkedClearanceID)
}

func TestExportShipmentUpdateAgentChangeDeletesClearance(t *testing.T) {
	linked := "clr-9"
	store := &exportStoreStub{existing: &models.ExportShipment{
		ID:                "exp-1",
		JobRef:            26020,
		ClearanceAgent:    strPtr(models.ClearanceAgentRS),
		ClearanceType:     strPtr("EX-A"),
		LinkedClearanceID: &linked,
	}}
	audit := &auditRepoStub{}
	svc := newExportService(store, &jobRefStub{next: 26200}, &filesStub{}, audit)

	shipment, err := svc.Update(context.Background(), "exp-1", dto.UpdateExportShipmentRequest{
		ClearanceAgent: strPtr("Borderline Customs Ltd"),
	})
	require.NoError(t, err)

	assert.Equal(t, "clr-9", store.deletedClearance)
	assert.Nil(t, shipment.LinkedClearanceID)
	assert.Contains(t, audit.actions(), models.AuditActionClearanceAutoDelete)
}

func TestExportShipmentUpdateStatus(t *testing.T) {
	store := &exportStoreStub{existing: &models.ExportShipment{ID: "exp-1"}}
	svc := newExportService(store, &jobRefStub{}, &filesStub{}, &auditRepoStub{})

	done := models.StatusIndicatorDone
	_, err := svc.UpdateStatus(context.Background(), "exp-1", models.IndicatorHaulierBooking, dto.UpdateStatusRequest{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.IndicatorHaulierBooking, store.indicator)
	assert.Equal(t, models.StatusIndicatorDone, store.indicatorValue)

	// Import-only indicators are rejected on the export side.
	_, err = svc.UpdateStatus(context.Background(), "exp-1", models.IndicatorClearance, dto.UpdateStatusRequest{Status: &done})
	assert.Equal(t, appErrors.ErrUnknownIndicator.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(context.Background(), "exp-1", models.IndicatorDeliveryBooked, dto.UpdateStatusRequest{Status: &done})
	assert.Equal(t, appErrors.ErrUnknownIndicator.Code, appErrors.FromError(err).Code)
}

func TestExportShipmentDeleteCascadesClearance(t *testing.T) {
	linked := "clr-9"
	store := &exportStoreStub{existing: &models.ExportShipment{ID: "exp-1", LinkedClearanceID: &linked}}
	svc := newExportService(store, &jobRefStub{}, &filesStub{}, &auditRepoStub{})

	require.NoError(t, svc.Delete(context.Background(), "exp-1"))
	assert.Equal(t, "exp-1", store.deletedID)
	assert.Equal(t, "clr-9", store.deletedClearance)
}
