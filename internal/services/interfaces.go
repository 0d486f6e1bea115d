package services

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"erario/internal/events"
	"erario/internal/models"
	"erario/internal/pagination"
)

// CategorySummary aggregates the five amounts of every line item in a category.
type CategorySummary struct {
	Category     string          `json:"category"`
	LineItems    int             `json:"line_items"`
	Allocated    decimal.Decimal `json:"allocated"`
	Committed    decimal.Decimal `json:"committed"`
	Accrued      decimal.Decimal `json:"accrued"`
	Paid         decimal.Decimal `json:"paid"`
	Available    decimal.Decimal `json:"available"`
	ExecutionPct float64         `json:"execution_pct"`
}

// ExecutionSummary is the read-only budget execution report for one budget.
type ExecutionSummary struct {
	BudgetID   string              `json:"budget_id"`
	FiscalYear int                 `json:"fiscal_year"`
	Status     models.BudgetStatus `json:"status"`
	Categories []CategorySummary   `json:"categories"`
	Totals     CategorySummary     `json:"totals"`
}

// BudgetServicer defines the contract for the fiscal-year budget aggregate.
type BudgetServicer interface {
	CreateBudget(ctx context.Context, fiscalYear int, name string, totalAmount decimal.Decimal) (*models.Budget, error)
	ActivateBudget(ctx context.Context, budgetID, approverID string) (*models.Budget, error)
	CloseBudget(ctx context.Context, budgetID, actorID string) (*models.Budget, error)
	GetBudget(ctx context.Context, budgetID string) (*models.Budget, error)
	GetBudgetByFiscalYear(ctx context.Context, fiscalYear int) (*models.Budget, error)
	ListBudgets(ctx context.Context, page pagination.PageRequest, status *models.BudgetStatus) (*pagination.PageResponse[models.Budget], error)
	GetExecutionSummary(ctx context.Context, budgetID string) (*ExecutionSummary, error)
}

// CreateLineItemInput holds the fields of a new budget line item.
type CreateLineItemInput struct {
	Code      string
	Name      string
	Category  string
	Allocated decimal.Decimal
}

// LineItemServicer is the budget line item store. ApplyOperation is the only
// write path for the running totals; it runs inside the caller's unit of work.
type LineItemServicer interface {
	CreateLineItem(ctx context.Context, budgetID string, input CreateLineItemInput) (*models.BudgetLineItem, error)
	GetLineItem(ctx context.Context, lineItemID string) (*models.BudgetLineItem, error)
	ListLineItems(ctx context.Context, budgetID string, page pagination.PageRequest, category *string) (*pagination.PageResponse[models.BudgetLineItem], error)
	UpdateAllocation(ctx context.Context, lineItemID string, allocated decimal.Decimal) (*models.BudgetLineItem, error)
	DeleteLineItem(ctx context.Context, lineItemID string) error
	LockForDraw(tx *gorm.DB, lineItemID string) (*models.BudgetLineItem, error)
	ApplyOperation(tx *gorm.DB, lineItemID string, op models.LineItemOperation, amount decimal.Decimal) (*models.BudgetLineItem, error)
}

// AvailabilityResult answers whether a draw could be committed right now.
type AvailabilityResult struct {
	LineItemID   string                 `json:"line_item_id"`
	Amount       decimal.Decimal        `json:"amount"`
	Available    bool                   `json:"available"`
	Reason       string                 `json:"reason,omitempty"`
	BudgetStatus models.BudgetStatus    `json:"budget_status"`
	Snapshot     models.BalanceSnapshot `json:"snapshot"`
}

// AvailabilityChecker is the advisory, read-only pre-check for commitments.
type AvailabilityChecker interface {
	Check(ctx context.Context, lineItemID string, amount decimal.Decimal) (*AvailabilityResult, error)
}

// ReferenceGenerator issues transaction references from a counter that is
// advanced outside the caller's unit of work.
type ReferenceGenerator interface {
	Next(ctx context.Context, txType models.TransactionType, fiscalYear int) (string, error)
}

// CreateTransactionInput holds the fields of a new commitment.
type CreateTransactionInput struct {
	Type        models.TransactionType
	Amount      decimal.Decimal
	LineItemID  *string
	FiscalYear  int
	Description string
	ActorID     string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Status     *models.TransactionStatus
	Type       *models.TransactionType
	LineItemID *string
	FiscalYear *int
}

// LedgerServicer is the transaction state machine.
type LedgerServicer interface {
	CreateTransaction(ctx context.Context, input CreateTransactionInput) (*models.Transaction, error)
	Accrue(ctx context.Context, transactionID, actorID string) (*models.Transaction, error)
	Pay(ctx context.Context, transactionID, actorID string, paymentRef *string) (*models.Transaction, error)
	Cancel(ctx context.Context, transactionID, actorID, reason string) (*models.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// EventPublisher delivers committed ledger transitions to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event events.TransitionEvent) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(actorID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
