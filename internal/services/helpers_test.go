package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"erario/internal/events"
	"erario/internal/testutil"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TransitionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []events.TransitionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.TransitionEvent(nil), p.events...)
}

type ledgerFixture struct {
	db        *gorm.DB
	lineItems LineItemServicer
	refs      ReferenceGenerator
	ledger    LedgerServicer
	publisher *recordingPublisher
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	opts := LedgerOptions{MaxRetries: 5, RetryBackoff: time.Millisecond}
	lineItems := NewLineItemService(db, opts)
	refs := NewReferenceService(db)
	pub := &recordingPublisher{}

	return &ledgerFixture{
		db:        db,
		lineItems: lineItems,
		refs:      refs,
		ledger:    NewLedgerService(db, lineItems, refs, pub, opts),
		publisher: pub,
	}
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}
