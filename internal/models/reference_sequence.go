package models

// ReferenceSequence is the per prefix and fiscal year counter behind
// transaction references. It is only ever advanced with an atomic upsert.
type ReferenceSequence struct {
	Prefix     string `gorm:"type:varchar(16);primaryKey"`
	FiscalYear int    `gorm:"primaryKey;autoIncrement:false"`
	LastValue  int64  `gorm:"not null"`
}
