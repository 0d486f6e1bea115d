// Package events defines the notifications the ledger emits after a
// transition has been committed, for downstream consumers such as the
// accounting-entry generator.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"erario/internal/models"
)

// TransitionEvent describes one committed ledger transition. From is empty
// for the creation of a commitment.
type TransitionEvent struct {
	TransactionID string                   `json:"transaction_id"`
	Reference     string                   `json:"reference"`
	Type          models.TransactionType   `json:"type"`
	From          models.TransactionStatus `json:"from,omitempty"`
	To            models.TransactionStatus `json:"to"`
	Amount        decimal.Decimal          `json:"amount"`
	LineItemID    *string                  `json:"line_item_id,omitempty"`
	FiscalYear    int                      `json:"fiscal_year"`
	ActorID       string                   `json:"actor_id"`
	PaymentRef    *string                  `json:"payment_ref,omitempty"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

// NewTransitionEvent builds the event for tx having moved from -> tx.Status.
func NewTransitionEvent(tx *models.Transaction, from models.TransactionStatus, actorID string, at time.Time) TransitionEvent {
	return TransitionEvent{
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Type:          tx.Type,
		From:          from,
		To:            tx.Status,
		Amount:        tx.Amount,
		LineItemID:    tx.LineItemID,
		FiscalYear:    tx.FiscalYear,
		ActorID:       actorID,
		PaymentRef:    tx.PaymentRef,
		OccurredAt:    at,
	}
}

// PartitionKey keeps every event of one line item in the same partition so
// consumers see its transitions in order. Income without a line item is
// keyed by transaction.
func (e TransitionEvent) PartitionKey() string {
	if e.LineItemID != nil {
		return *e.LineItemID
	}
	return e.TransactionID
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	log *zap.SugaredLogger
}

// NewLogPublisher creates a LogPublisher writing through log.
func NewLogPublisher(log *zap.SugaredLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event TransitionEvent) error {
	p.log.Infow("ledger transition",
		"transaction_id", event.TransactionID,
		"reference", event.Reference,
		"from", event.From,
		"to", event.To,
		"amount", event.Amount.String(),
		"actor_id", event.ActorID,
	)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
