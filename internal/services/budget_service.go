package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "erario/internal/errors"
	"erario/internal/models"
	"erario/internal/pagination"
)

// budgetService handles the fiscal-year budget lifecycle and its reports.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates the DRAFT budget of a fiscal year.
func (s *budgetService) CreateBudget(ctx context.Context, fiscalYear int, name string, totalAmount decimal.Decimal) (*models.Budget, error) {
	if fiscalYear < 1900 || fiscalYear > 9999 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "fiscal year %d is out of range", fiscalYear)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if totalAmount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total amount must not be negative")
	}
	if err := checkScale("total amount", totalAmount); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Budget{}).Where("fiscal_year = ?", fiscalYear).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, duplicateFiscalYear(fiscalYear)
	}

	budget := &models.Budget{
		FiscalYear:  fiscalYear,
		Name:        name,
		TotalAmount: totalAmount,
		Status:      models.BudgetStatusDraft,
	}
	if err := db.Create(budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateFiscalYear(fiscalYear)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

func duplicateFiscalYear(fiscalYear int) error {
	return apperrors.Newf(apperrors.ErrDuplicateFiscalYear, "a budget for fiscal year %d already exists", fiscalYear)
}

// ActivateBudget approves a DRAFT budget.
func (s *budgetService) ActivateBudget(ctx context.Context, budgetID, approverID string) (*models.Budget, error) {
	return s.moveTo(ctx, budgetID, models.BudgetStatusActive, func(b *models.Budget, at time.Time) map[string]any {
		b.ApprovedBy = &approverID
		b.ApprovedAt = &at
		return map[string]any{"approved_by": approverID, "approved_at": at}
	})
}

// CloseBudget closes an ACTIVE budget. Nothing under it can change afterwards.
func (s *budgetService) CloseBudget(ctx context.Context, budgetID, actorID string) (*models.Budget, error) {
	return s.moveTo(ctx, budgetID, models.BudgetStatusClosed, func(b *models.Budget, at time.Time) map[string]any {
		b.ClosedBy = &actorID
		b.ClosedAt = &at
		return map[string]any{"closed_by": actorID, "closed_at": at}
	})
}

func (s *budgetService) moveTo(
	ctx context.Context,
	budgetID string,
	to models.BudgetStatus,
	stamp func(b *models.Budget, at time.Time) map[string]any,
) (*models.Budget, error) {
	var result *models.Budget
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		budget, err := lockBudget(tx, budgetID, "UPDATE")
		if err != nil {
			return err
		}
		if !budget.Status.CanTransitionTo(to) {
			return apperrors.Newf(apperrors.ErrIllegalBudgetTransition,
				"budget %d cannot move from %s to %s", budget.FiscalYear, budget.Status, to)
		}

		updates := stamp(budget, time.Now().UTC())
		updates["status"] = to
		if err := tx.Model(budget).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		budget.Status = to
		result = budget
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetBudget returns a budget by ID.
func (s *budgetService) GetBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	return s.findBudget(s.db.WithContext(ctx).Where("id = ?", budgetID))
}

// GetBudgetByFiscalYear returns the budget of a fiscal year.
func (s *budgetService) GetBudgetByFiscalYear(ctx context.Context, fiscalYear int) (*models.Budget, error) {
	return s.findBudget(s.db.WithContext(ctx).Where("fiscal_year = ?", fiscalYear))
}

func (s *budgetService) findBudget(q *gorm.DB) (*models.Budget, error) {
	var budget models.Budget
	if err := q.First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// ListBudgets returns a paginated list of budgets, newest fiscal year first.
func (s *budgetService) ListBudgets(
	ctx context.Context,
	page pagination.PageRequest,
	status *models.BudgetStatus,
) (*pagination.PageResponse[models.Budget], error) {
	base := s.db.WithContext(ctx).Model(&models.Budget{})
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	result, err := pagination.Find[models.Budget](base, page, "fiscal_year DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetExecutionSummary totals the five amounts of a budget's line items per
// category and overall. ExecutionPct is accrued over allocated.
func (s *budgetService) GetExecutionSummary(ctx context.Context, budgetID string) (*ExecutionSummary, error) {
	budget, err := s.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	var items []models.BudgetLineItem
	if err := s.db.WithContext(ctx).Where("budget_id = ?", budgetID).Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byCategory := make(map[string]*CategorySummary)
	totals := newCategorySummary("")
	for i := range items {
		item := &items[i]
		cs, ok := byCategory[item.Category]
		if !ok {
			cs = newCategorySummary(item.Category)
			byCategory[item.Category] = cs
		}
		cs.add(item)
		totals.add(item)
	}

	categories := make([]CategorySummary, 0, len(byCategory))
	for _, cs := range byCategory {
		cs.ExecutionPct = executionPct(cs.Accrued, cs.Allocated)
		categories = append(categories, *cs)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Category < categories[j].Category })
	totals.ExecutionPct = executionPct(totals.Accrued, totals.Allocated)

	return &ExecutionSummary{
		BudgetID:   budget.ID,
		FiscalYear: budget.FiscalYear,
		Status:     budget.Status,
		Categories: categories,
		Totals:     *totals,
	}, nil
}

func newCategorySummary(category string) *CategorySummary {
	return &CategorySummary{
		Category:  category,
		Allocated: decimal.Zero,
		Committed: decimal.Zero,
		Accrued:   decimal.Zero,
		Paid:      decimal.Zero,
		Available: decimal.Zero,
	}
}

func (cs *CategorySummary) add(item *models.BudgetLineItem) {
	cs.LineItems++
	cs.Allocated = cs.Allocated.Add(item.Allocated)
	cs.Committed = cs.Committed.Add(item.Committed)
	cs.Accrued = cs.Accrued.Add(item.Accrued)
	cs.Paid = cs.Paid.Add(item.Paid)
	cs.Available = cs.Available.Add(item.Available)
}

func executionPct(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
