package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "erario/internal/errors"
	"erario/internal/models"
	"erario/internal/pagination"
)

// lineItemService owns the five running amounts of every budget line item.
type lineItemService struct {
	db   *gorm.DB
	opts LedgerOptions
}

// NewLineItemService creates a new LineItemServicer.
func NewLineItemService(db *gorm.DB, opts LedgerOptions) LineItemServicer {
	return &lineItemService{db: db, opts: opts}
}

// CreateLineItem adds a line item to an active budget with its whole
// allocation available.
func (s *lineItemService) CreateLineItem(ctx context.Context, budgetID string, input CreateLineItemInput) (*models.BudgetLineItem, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "line item code is required")
	}
	if input.Allocated.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocated amount must not be negative")
	}
	if err := checkScale("allocated amount", input.Allocated); err != nil {
		return nil, err
	}

	item := models.NewBudgetLineItem(budgetID, code, input.Name, input.Category, input.Allocated)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		budget, err := lockBudget(tx, budgetID, "SHARE")
		if err != nil {
			return err
		}
		if !budget.IsActive() {
			return apperrors.Newf(apperrors.ErrBudgetNotActive,
				"budget %d is %s; line items can only be created while it is ACTIVE", budget.FiscalYear, budget.Status)
		}

		var count int64
		if err := tx.Model(&models.BudgetLineItem{}).
			Where("budget_id = ? AND code = ?", budgetID, code).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return duplicateCode(code)
		}

		if err := tx.Create(item).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateCode(code)
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func duplicateCode(code string) error {
	return apperrors.Newf(apperrors.ErrDuplicateCode, "line item code %q already exists in this budget", code)
}

// GetLineItem returns a line item by ID.
func (s *lineItemService) GetLineItem(ctx context.Context, lineItemID string) (*models.BudgetLineItem, error) {
	var item models.BudgetLineItem
	if err := s.db.WithContext(ctx).Where("id = ?", lineItemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLineItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}

// ListLineItems returns a paginated list of a budget's line items ordered by code.
func (s *lineItemService) ListLineItems(
	ctx context.Context,
	budgetID string,
	page pagination.PageRequest,
	category *string,
) (*pagination.PageResponse[models.BudgetLineItem], error) {
	db := s.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&models.Budget{}).Where("id = ?", budgetID).Count(&exists).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if exists == 0 {
		return nil, apperrors.ErrBudgetNotFound
	}

	base := db.Model(&models.BudgetLineItem{}).Where("budget_id = ?", budgetID)
	if category != nil {
		base = base.Where("category = ?", *category)
	}

	result, err := pagination.Find[models.BudgetLineItem](base, page, "code ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// UpdateAllocation changes a line item's allocation and recomputes its
// available amount. The new allocation may not drop below what is committed.
func (s *lineItemService) UpdateAllocation(ctx context.Context, lineItemID string, allocated decimal.Decimal) (*models.BudgetLineItem, error) {
	if allocated.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocated amount must not be negative")
	}
	if err := checkScale("allocated amount", allocated); err != nil {
		return nil, err
	}

	var result *models.BudgetLineItem
	err := runInUnit(ctx, s.db, s.opts, func(tx *gorm.DB) error {
		item, err := s.LockForDraw(tx, lineItemID)
		if err != nil {
			return err
		}
		if !item.Budget.IsActive() {
			return apperrors.Newf(apperrors.ErrBudgetNotActive,
				"budget %d is %s; allocations can only change while it is ACTIVE", item.Budget.FiscalYear, item.Budget.Status)
		}

		next, ok := item.Reallocate(allocated)
		if !ok {
			return apperrors.Newf(apperrors.ErrInsufficientAllocation,
				"allocation %s is below the committed amount %s of line item %s",
				formatAmount(allocated), formatAmount(item.Committed), item.Code)
		}
		if err := saveAmounts(tx, item, &next); err != nil {
			return err
		}
		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteLineItem removes a line item that has never been drawn against.
func (s *lineItemService) DeleteLineItem(ctx context.Context, lineItemID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.LockForDraw(tx, lineItemID)
		if err != nil {
			return err
		}
		if item.Budget.Status == models.BudgetStatusClosed {
			return apperrors.Newf(apperrors.ErrBudgetClosed,
				"budget %d is CLOSED; its line items cannot be deleted", item.Budget.FiscalYear)
		}

		var count int64
		if err := tx.Model(&models.Transaction{}).Where("line_item_id = ?", lineItemID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.Newf(apperrors.ErrHasTransactions,
				"line item %s has %d transactions and cannot be deleted", item.Code, count)
		}

		if err := tx.Delete(&models.BudgetLineItem{}, "id = ?", lineItemID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// LockForDraw loads a line item for update together with its budget, which
// is share-locked so the budget cannot be closed underneath the unit of work.
// Lock order is line item first, then budget.
func (s *lineItemService) LockForDraw(tx *gorm.DB, lineItemID string) (*models.BudgetLineItem, error) {
	var item models.BudgetLineItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", lineItemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLineItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget, err := lockBudget(tx, item.BudgetID, "SHARE")
	if err != nil {
		return nil, err
	}
	item.Budget = budget
	return &item, nil
}

// ApplyOperation applies one ledger operation to a line item inside the
// caller's unit of work. It is the only write path for committed, accrued,
// paid and available.
func (s *lineItemService) ApplyOperation(
	tx *gorm.DB,
	lineItemID string,
	op models.LineItemOperation,
	amount decimal.Decimal,
) (*models.BudgetLineItem, error) {
	if !op.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidOperation, "unknown line item operation %q", op)
	}
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	item, err := s.LockForDraw(tx, lineItemID)
	if err != nil {
		return nil, err
	}
	if item.Budget.Status == models.BudgetStatusClosed {
		return nil, apperrors.Newf(apperrors.ErrBudgetClosed,
			"budget %d is CLOSED; line item %s cannot be mutated", item.Budget.FiscalYear, item.Code)
	}

	next, err := item.Apply(op, amount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidOperation, err)
	}
	if next.Available.IsNegative() {
		return nil, apperrors.Newf(apperrors.ErrInsufficientBudget,
			"requested %s but only %s available on line item %s",
			formatAmount(amount), formatAmount(item.Available), item.Code)
	}
	if next.Committed.IsNegative() {
		return nil, apperrors.Newf(apperrors.ErrInvalidOperation,
			"cannot release %s from line item %s with only %s committed",
			formatAmount(amount), item.Code, formatAmount(item.Committed))
	}

	if err := saveAmounts(tx, item, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// lockBudget loads a budget row with the given lock strength.
func lockBudget(tx *gorm.DB, budgetID, strength string) (*models.Budget, error) {
	var budget models.Budget
	if err := tx.Clauses(clause.Locking{Strength: strength}).Where("id = ?", budgetID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// saveAmounts writes next over prev, guarded by prev's version.
func saveAmounts(tx *gorm.DB, prev, next *models.BudgetLineItem) error {
	res := tx.Model(&models.BudgetLineItem{}).
		Where("id = ? AND version = ?", prev.ID, prev.Version).
		Updates(map[string]any{
			"allocated": next.Allocated,
			"committed": next.Committed,
			"accrued":   next.Accrued,
			"paid":      next.Paid,
			"available": next.Available,
			"version":   next.Version,
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return errConcurrentModification
	}
	return nil
}
