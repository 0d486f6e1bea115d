package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus represents the lifecycle state of a fiscal-year budget
type BudgetStatus string

const (
	BudgetStatusDraft  BudgetStatus = "DRAFT"
	BudgetStatusActive BudgetStatus = "ACTIVE"
	BudgetStatusClosed BudgetStatus = "CLOSED"
)

// budgetTransitions lists the legal lifecycle moves. CLOSED is terminal.
var budgetTransitions = map[BudgetStatus]BudgetStatus{
	BudgetStatusDraft:  BudgetStatusActive,
	BudgetStatusActive: BudgetStatusClosed,
}

// IsValid reports whether s is a known budget status.
func (s BudgetStatus) IsValid() bool {
	switch s {
	case BudgetStatusDraft, BudgetStatusActive, BudgetStatusClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether a budget in status s may move to next.
func (s BudgetStatus) CanTransitionTo(next BudgetStatus) bool {
	return budgetTransitions[s] == next
}

// Budget is the fiscal-year container that owns a set of line items.
type Budget struct {
	Base
	FiscalYear  int             `gorm:"not null;uniqueIndex" json:"fiscal_year"`
	Name        string          `gorm:"not null" json:"name"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_amount"`
	Status      BudgetStatus    `gorm:"type:varchar(16);not null;default:'DRAFT';index" json:"status"`
	ApprovedBy  *string         `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	ClosedBy    *string         `json:"closed_by,omitempty"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`

	// Relationships
	LineItems []BudgetLineItem `gorm:"foreignKey:BudgetID" json:"line_items,omitempty"`
}

// IsActive reports whether line items of this budget may be created or re-allocated.
func (b *Budget) IsActive() bool {
	return b.Status == BudgetStatusActive
}
