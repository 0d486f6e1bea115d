package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "erario/internal/errors"
	"erario/internal/events"
	"erario/internal/logger"
	"erario/internal/models"
	"erario/internal/pagination"
)

// ledgerService drives transactions through the expenditure cycle. Every
// transition and its line item mutation run as one unit of work.
type ledgerService struct {
	db         *gorm.DB
	lineItems  LineItemServicer
	references ReferenceGenerator
	publisher  EventPublisher
	opts       LedgerOptions
	log        *zap.SugaredLogger
	now        func() time.Time
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(
	db *gorm.DB,
	lineItems LineItemServicer,
	references ReferenceGenerator,
	publisher EventPublisher,
	opts LedgerOptions,
) LedgerServicer {
	return &ledgerService{
		db:         db,
		lineItems:  lineItems,
		references: references,
		publisher:  publisher,
		opts:       opts,
		log:        logger.Named("ledger"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// errReferenceTaken is returned from the commit unit when the drawn reference
// is already stored. The caller draws a fresh one instead of replaying the unit.
var errReferenceTaken = errors.New("transaction reference already taken")

// CreateTransaction records a new commitment. For a line item it reserves the
// amount, re-validating availability under the line item's lock.
//
// The reference is drawn before the unit of work opens so that commitments on
// unrelated line items never wait on each other for the counter row. A unit
// that fails after the draw leaves a gap in the sequence.
func (s *ledgerService) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*models.Transaction, error) {
	if !input.Type.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unknown transaction type %q", input.Type)
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if err := checkScale("amount", input.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ActorID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "actor is required")
	}
	if input.Type == models.TransactionTypeExpense && input.LineItemID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "expense transactions require a line item")
	}

	fiscalYear := input.FiscalYear
	if input.LineItemID != nil {
		// Unlocked pre-check: a request that is already doomed does not burn
		// a reference number.
		var item models.BudgetLineItem
		if err := s.db.WithContext(ctx).Preload("Budget").Where("id = ?", *input.LineItemID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrLineItemNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := checkDraw(&item, input.Amount); err != nil {
			return nil, err
		}
		fiscalYear = item.Budget.FiscalYear
	}
	if fiscalYear == 0 {
		fiscalYear = s.now().Year()
	}

	var (
		created *models.Transaction
		err     error
	)
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		var reference string
		reference, err = s.references.Next(ctx, input.Type, fiscalYear)
		if err != nil {
			return nil, err
		}
		created, err = s.commit(ctx, input, reference, fiscalYear)
		if !errors.Is(err, errReferenceTaken) {
			break
		}
		s.log.Warnw("drawn reference already stored, drawing another", "reference", reference)
	}
	if errors.Is(err, errReferenceTaken) {
		return nil, apperrors.Wrap(apperrors.ErrConcurrencyConflict, err)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewTransitionEvent(created, "", input.ActorID, created.CommittedAt))
	return created, nil
}

// commit inserts the COMMITMENT row under reference and reserves its amount
// on the line item, as one unit of work.
func (s *ledgerService) commit(
	ctx context.Context,
	input CreateTransactionInput,
	reference string,
	fiscalYear int,
) (*models.Transaction, error) {
	var created *models.Transaction
	err := runInUnit(ctx, s.db, s.opts, func(tx *gorm.DB) error {
		if input.LineItemID != nil {
			item, err := s.lineItems.LockForDraw(tx, *input.LineItemID)
			if err != nil {
				return err
			}
			if err := checkDraw(item, input.Amount); err != nil {
				return err
			}
			if _, err := s.lineItems.ApplyOperation(tx, item.ID, models.OperationCommit, input.Amount); err != nil {
				return err
			}
		}

		t := &models.Transaction{
			Reference:   reference,
			Type:        input.Type,
			Amount:      input.Amount,
			Status:      models.TransactionStatusCommitment,
			LineItemID:  input.LineItemID,
			FiscalYear:  fiscalYear,
			Description: input.Description,
			CommittedAt: s.now(),
			CreatedBy:   input.ActorID,
		}
		if err := tx.Create(t).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", errReferenceTaken, reference)
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// checkDraw reports why amount cannot be committed against item, if it cannot.
func checkDraw(item *models.BudgetLineItem, amount decimal.Decimal) error {
	if item.Budget == nil || !item.Budget.IsActive() {
		status := models.BudgetStatus("UNKNOWN")
		year := 0
		if item.Budget != nil {
			status, year = item.Budget.Status, item.Budget.FiscalYear
		}
		return apperrors.Newf(apperrors.ErrInsufficientBudget,
			"budget %d is %s; commitments require an ACTIVE budget", year, status)
	}
	if amount.GreaterThan(item.Available) {
		return apperrors.Newf(apperrors.ErrInsufficientBudget,
			"requested %s but only %s available on line item %s",
			formatAmount(amount), formatAmount(item.Available), item.Code)
	}
	return nil
}

// Accrue moves a commitment to ACCRUED.
func (s *ledgerService) Accrue(ctx context.Context, transactionID, actorID string) (*models.Transaction, error) {
	return s.transition(ctx, transactionID, actorID, models.TransactionStatusAccrued, func(t *models.Transaction, at time.Time) map[string]any {
		t.AccruedAt = &at
		t.AccruedBy = &actorID
		return map[string]any{"accrued_at": at, "accrued_by": actorID}
	})
}

// Pay moves an accrued transaction to PAID and links the payment.
func (s *ledgerService) Pay(ctx context.Context, transactionID, actorID string, paymentRef *string) (*models.Transaction, error) {
	return s.transition(ctx, transactionID, actorID, models.TransactionStatusPaid, func(t *models.Transaction, at time.Time) map[string]any {
		t.PaidAt = &at
		t.PaidBy = &actorID
		updates := map[string]any{"paid_at": at, "paid_by": actorID}
		if paymentRef != nil && *paymentRef != "" {
			t.PaymentRef = paymentRef
			updates["payment_ref"] = *paymentRef
		}
		return updates
	})
}

// Cancel releases a commitment or accrual back to the line item.
func (s *ledgerService) Cancel(ctx context.Context, transactionID, actorID, reason string) (*models.Transaction, error) {
	return s.transition(ctx, transactionID, actorID, models.TransactionStatusCancelled, func(t *models.Transaction, at time.Time) map[string]any {
		t.CancelledAt = &at
		t.CancelledBy = &actorID
		t.CancelReason = reason
		return map[string]any{"cancelled_at": at, "cancelled_by": actorID, "cancel_reason": reason}
	})
}

// transition moves a transaction to status to. stamp records the transition
// on the in-memory row and returns the matching column updates.
func (s *ledgerService) transition(
	ctx context.Context,
	transactionID, actorID string,
	to models.TransactionStatus,
	stamp func(t *models.Transaction, at time.Time) map[string]any,
) (*models.Transaction, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "actor is required")
	}

	var (
		result *models.Transaction
		from   models.TransactionStatus
		at     time.Time
	)
	err := runInUnit(ctx, s.db, s.opts, func(tx *gorm.DB) error {
		var t models.Transaction
		if err := tx.Where("id = ?", transactionID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !t.Status.CanTransitionTo(to) {
			return apperrors.Newf(apperrors.ErrIllegalTransition,
				"transaction %s cannot move from %s to %s", t.Reference, t.Status, to)
		}

		if t.LineItemID != nil {
			if _, err := s.lineItems.ApplyOperation(tx, *t.LineItemID, to.Operation(), t.Amount); err != nil {
				return err
			}
		}

		from = t.Status
		at = s.now()
		updates := stamp(&t, at)
		updates["status"] = to

		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", t.ID, from).
			Updates(updates)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return errConcurrentModification
		}

		t.Status = to
		result = &t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewTransitionEvent(result, from, actorID, at))
	return result, nil
}

// publish hands a committed transition to the publisher. The state change has
// already happened, so a delivery failure is only logged.
func (s *ledgerService) publish(ctx context.Context, event events.TransitionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Errorw("failed to publish ledger transition",
			"error", err,
			"transaction_id", event.TransactionID,
			"reference", event.Reference,
			"to", event.To,
		)
	}
}

// GetTransaction returns a transaction by ID.
func (s *ledgerService) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", transactionID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &t, nil
}

// ListTransactions returns a paginated, filtered list of transactions, newest first.
func (s *ledgerService) ListTransactions(
	ctx context.Context,
	page pagination.PageRequest,
	filter TransactionFilter,
) (*pagination.PageResponse[models.Transaction], error) {
	base := applyTransactionFilters(s.db.WithContext(ctx).Model(&models.Transaction{}), filter)

	result, err := pagination.Find[models.Transaction](base, page, "committed_at DESC", "reference DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.LineItemID != nil {
		q = q.Where("line_item_id = ?", *f.LineItemID)
	}
	if f.FiscalYear != nil {
		q = q.Where("fiscal_year = ?", *f.FiscalYear)
	}
	return q
}
