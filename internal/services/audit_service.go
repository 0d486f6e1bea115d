package services

import (
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"erario/internal/logger"
	"erario/internal/models"
)

type auditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewAuditService returns an AuditServicer that appends to the audit_logs table.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db, log: logger.Named("audit")}
}

// Log appends one audit row. The audited change is already committed when
// this runs, so failures are reported to the log and swallowed.
func (s *auditService) Log(actorID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	entry := &models.AuditLog{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      s.encodeChanges(action, changes),
	}

	if err := s.db.Create(entry).Error; err != nil {
		s.log.Errorw("audit write failed",
			"error", err,
			"actor_id", actorID,
			"action", action,
			"resource", resourceType+"/"+resourceID,
		)
	}
}

func (s *auditService) encodeChanges(action string, changes map[string]any) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		s.log.Warnw("audit changes not serializable", "error", err, "action", action)
		return "{}"
	}
	return string(data)
}
