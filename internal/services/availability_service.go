package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "erario/internal/errors"
	"erario/internal/models"
)

// availabilityService answers "could this amount be committed now" without
// locking or writing anything. Commit re-validates inside its own unit of work.
type availabilityService struct {
	db *gorm.DB
}

// NewAvailabilityService creates a new AvailabilityChecker.
func NewAvailabilityService(db *gorm.DB) AvailabilityChecker {
	return &availabilityService{db: db}
}

// Check reports whether amount fits in the line item's available balance and
// its budget is ACTIVE.
func (s *availabilityService) Check(ctx context.Context, lineItemID string, amount decimal.Decimal) (*AvailabilityResult, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	var item models.BudgetLineItem
	if err := s.db.WithContext(ctx).Preload("Budget").Where("id = ?", lineItemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLineItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &AvailabilityResult{
		LineItemID: item.ID,
		Amount:     amount,
		Available:  true,
		Snapshot:   item.Snapshot(),
	}
	if item.Budget != nil {
		result.BudgetStatus = item.Budget.Status
	}

	switch {
	case result.BudgetStatus != models.BudgetStatusActive:
		result.Available = false
		result.Reason = fmt.Sprintf("budget is %s, not ACTIVE", result.BudgetStatus)
	case amount.GreaterThan(item.Available):
		result.Available = false
		result.Reason = fmt.Sprintf("requested %s but only %s available",
			formatAmount(amount), formatAmount(item.Available))
	}
	return result, nil
}
