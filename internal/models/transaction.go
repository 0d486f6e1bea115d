package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a budget transaction
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "EXPENSE"
	TransactionTypeIncome  TransactionType = "INCOME"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeExpense || t == TransactionTypeIncome
}

// ReferencePrefix returns the reference prefix used for transactions of type t
// (G for gasto, I for ingreso).
func (t TransactionType) ReferencePrefix() string {
	if t == TransactionTypeIncome {
		return "TRX-I"
	}
	return "TRX-G"
}

// TransactionStatus is a state of the expenditure cycle.
type TransactionStatus string

const (
	TransactionStatusCommitment TransactionStatus = "COMMITMENT"
	TransactionStatusAccrued    TransactionStatus = "ACCRUED"
	TransactionStatusPaid       TransactionStatus = "PAID"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
)

// transitions is the complete table of legal moves; anything missing is illegal.
var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusCommitment: {TransactionStatusAccrued, TransactionStatusCancelled},
	TransactionStatusAccrued:    {TransactionStatusPaid, TransactionStatusCancelled},
}

// IsValid reports whether s is a known status.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusCommitment, TransactionStatusAccrued, TransactionStatusPaid, TransactionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s TransactionStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Operation returns the line item operation that entering status s applies.
func (s TransactionStatus) Operation() LineItemOperation {
	switch s {
	case TransactionStatusCommitment:
		return OperationCommit
	case TransactionStatusAccrued:
		return OperationAccrue
	case TransactionStatusPaid:
		return OperationPay
	case TransactionStatusCancelled:
		return OperationCancel
	}
	return ""
}

// Transaction is one movement through the expenditure cycle against a line item.
// Rows are never deleted; only status, the per-transition stamps and the
// payment link change after creation.
type Transaction struct {
	Base
	Reference    string            `gorm:"type:varchar(32);not null;uniqueIndex" json:"reference"`
	Type         TransactionType   `gorm:"type:varchar(16);not null;index" json:"type"`
	Amount       decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"amount"`
	Status       TransactionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	LineItemID   *string           `gorm:"type:uuid;index" json:"line_item_id,omitempty"`
	FiscalYear   int               `gorm:"not null;index" json:"fiscal_year"`
	Description  string            `json:"description"`
	CommittedAt  time.Time         `gorm:"not null" json:"committed_at"`
	AccruedAt    *time.Time        `json:"accrued_at,omitempty"`
	PaidAt       *time.Time        `json:"paid_at,omitempty"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	CreatedBy    string            `gorm:"not null" json:"created_by"`
	AccruedBy    *string           `json:"accrued_by,omitempty"`
	PaidBy       *string           `json:"paid_by,omitempty"`
	CancelledBy  *string           `json:"cancelled_by,omitempty"`
	CancelReason string            `json:"cancel_reason,omitempty"`
	PaymentRef   *string           `gorm:"type:varchar(64)" json:"payment_ref,omitempty"`

	// Relationships
	LineItem *BudgetLineItem `gorm:"foreignKey:LineItemID" json:"line_item,omitempty"`
}

// StampsConsistent reports whether the transition timestamps agree with the
// status: a paid transaction carries ordered committed/accrued/paid stamps.
func (t *Transaction) StampsConsistent() bool {
	if t.PaidAt != nil {
		if t.Status != TransactionStatusPaid || t.AccruedAt == nil {
			return false
		}
		return !t.CommittedAt.After(*t.AccruedAt) && !t.AccruedAt.After(*t.PaidAt)
	}
	if t.Status == TransactionStatusPaid {
		return false
	}
	if t.AccruedAt != nil && t.CommittedAt.After(*t.AccruedAt) {
		return false
	}
	return true
}
