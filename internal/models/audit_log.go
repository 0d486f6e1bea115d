package models

// AuditLog records who drove a budget or ledger operation and what changed.
type AuditLog struct {
	Base
	ActorID      string `gorm:"not null;index" json:"actor_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null;index:idx_audit_resource,priority:1" json:"resource_type"`
	ResourceID   string `gorm:"index:idx_audit_resource,priority:2" json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
