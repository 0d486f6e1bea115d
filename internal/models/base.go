package models

import (
	"time"

	"erario/internal/uuid"

	"gorm.io/gorm"
)

// Base contains the columns shared by every ledger table. Ledger rows are
// never soft-deleted: transactions are kept forever and line items are only
// removed physically when nothing references them.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
