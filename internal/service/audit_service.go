package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rs-freight/forwarding-api/internal/models"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService records system-initiated changes such as automatic clearance
// creation and job file overwrites. Recording failures are logged and
// swallowed so audit problems never fail the triggering request.
type AuditService struct {
	repo   auditStore
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditStore, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record writes one audit entry. Old and new values are marshalled to JSON;
// nil values are stored as empty payloads.
func (s *AuditService) Record(ctx context.Context, action, resource string, resourceID string, oldValue, newValue interface{}) {
	if s == nil || s.repo == nil {
		return
	}

	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Resource:  resource,
		CreatedAt: time.Now().UTC(),
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if oldValue != nil {
		if data, err := json.Marshal(oldValue); err == nil {
			entry.OldValues = data
		}
	}
	if newValue != nil {
		if data, err := json.Marshal(newValue); err == nil {
			entry.NewValues = data
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("audit record failed",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err))
	}
}
