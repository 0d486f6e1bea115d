package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItemOperation is one of the four balance mutations a ledger transition
// can apply to a line item.
type LineItemOperation string

const (
	OperationCommit LineItemOperation = "commit"
	OperationAccrue LineItemOperation = "accrue"
	OperationPay    LineItemOperation = "pay"
	OperationCancel LineItemOperation = "cancel"
)

var (
	// ErrUnknownOperation is returned by Apply for an operation outside the four known ones.
	ErrUnknownOperation = errors.New("unknown line item operation")
	// ErrNegativeAmount is returned by Apply when asked to move a negative amount.
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// AmountScale is the number of decimal places amounts are stored with.
const AmountScale = 2

// HasAmountScale reports whether d fits in AmountScale decimal places.
func HasAmountScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(AmountScale))
}

// IsValid reports whether op is one of the known operations.
func (op LineItemOperation) IsValid() bool {
	switch op {
	case OperationCommit, OperationAccrue, OperationPay, OperationCancel:
		return true
	}
	return false
}

// BudgetLineItem (partida) is a single allocated spending line of a budget.
//
// Invariant after every mutation: Available = Allocated - Committed.
// Accrued and Paid are independent running totals layered on top of
// Committed; they are never drawn down from it.
type BudgetLineItem struct {
	Base
	BudgetID  string          `gorm:"type:uuid;not null;uniqueIndex:idx_line_item_budget_code,priority:1" json:"budget_id"`
	Code      string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_line_item_budget_code,priority:2" json:"code"`
	Name      string          `gorm:"not null" json:"name"`
	Category  string          `gorm:"type:varchar(64);not null;index" json:"category"`
	Allocated decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"allocated"`
	Committed decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"committed"`
	Accrued   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"accrued"`
	Paid      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"paid"`
	Available decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"available"`
	Version   int64           `gorm:"not null;default:0" json:"version"`

	// Relationships
	Budget *Budget `gorm:"foreignKey:BudgetID" json:"budget,omitempty"`
}

// NewBudgetLineItem returns a line item with its whole allocation available.
func NewBudgetLineItem(budgetID, code, name, category string, allocated decimal.Decimal) *BudgetLineItem {
	return &BudgetLineItem{
		BudgetID:  budgetID,
		Code:      code,
		Name:      name,
		Category:  category,
		Allocated: allocated,
		Committed: decimal.Zero,
		Accrued:   decimal.Zero,
		Paid:      decimal.Zero,
		Available: allocated,
	}
}

// Apply returns a copy of the line item with op applied for amount and the
// version bumped. The receiver is left untouched.
func (li BudgetLineItem) Apply(op LineItemOperation, amount decimal.Decimal) (BudgetLineItem, error) {
	if amount.IsNegative() {
		return li, ErrNegativeAmount
	}

	switch op {
	case OperationCommit:
		li.Committed = li.Committed.Add(amount)
		li.Available = li.Available.Sub(amount)
	case OperationAccrue:
		li.Accrued = li.Accrued.Add(amount)
	case OperationPay:
		li.Paid = li.Paid.Add(amount)
	case OperationCancel:
		li.Committed = li.Committed.Sub(amount)
		li.Available = li.Available.Add(amount)
	default:
		return li, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}

	li.Version++
	return li, nil
}

// Reallocate returns a copy with the new allocation and Available recomputed
// from it. The second return value is false when the new allocation would
// fall below what is already committed.
func (li BudgetLineItem) Reallocate(allocated decimal.Decimal) (BudgetLineItem, bool) {
	available := allocated.Sub(li.Committed)
	if available.IsNegative() {
		return li, false
	}
	li.Allocated = allocated
	li.Available = available
	li.Version++
	return li, true
}

// Balanced reports whether the core invariant holds.
func (li *BudgetLineItem) Balanced() bool {
	return li.Available.Equal(li.Allocated.Sub(li.Committed))
}

// BalanceSnapshot is a point-in-time copy of a line item's five amounts.
type BalanceSnapshot struct {
	Allocated decimal.Decimal `json:"allocated"`
	Committed decimal.Decimal `json:"committed"`
	Accrued   decimal.Decimal `json:"accrued"`
	Paid      decimal.Decimal `json:"paid"`
	Available decimal.Decimal `json:"available"`
}

// Snapshot copies the line item's amounts.
func (li *BudgetLineItem) Snapshot() BalanceSnapshot {
	return BalanceSnapshot{
		Allocated: li.Allocated,
		Committed: li.Committed,
		Accrued:   li.Accrued,
		Paid:      li.Paid,
		Available: li.Available,
	}
}
