package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"erario/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestActorID is the actor stamped on fixtures and used by service tests.
const TestActorID = "0190a5c4-0000-7000-8000-000000000001"

// Amount parses a decimal literal, failing the test if it is malformed.
func Amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid amount %q: %v", s, err)
	}
	return d
}

// CreateTestBudget creates an ACTIVE budget for a unique fiscal year.
func CreateTestBudget(t *testing.T, db *gorm.DB) *models.Budget {
	t.Helper()
	return CreateTestBudgetWithStatus(t, db, models.BudgetStatusActive)
}

// CreateTestBudgetWithStatus creates a budget in the given status for a unique fiscal year.
func CreateTestBudgetWithStatus(t *testing.T, db *gorm.DB, status models.BudgetStatus) *models.Budget {
	t.Helper()

	n := nextID()
	budget := &models.Budget{
		FiscalYear:  2000 + int(n),
		Name:        fmt.Sprintf("Test Budget %d", n),
		TotalAmount: decimal.NewFromInt(1_000_000),
		Status:      status,
	}
	if status != models.BudgetStatusDraft {
		approver := TestActorID
		now := time.Now().UTC()
		budget.ApprovedBy = &approver
		budget.ApprovedAt = &now
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestLineItem creates a line item with the given allocation under budgetID.
func CreateTestLineItem(t *testing.T, db *gorm.DB, budgetID string, allocated decimal.Decimal) *models.BudgetLineItem {
	t.Helper()

	n := nextID()
	item := models.NewBudgetLineItem(budgetID, fmt.Sprintf("LI-%05d", n), fmt.Sprintf("Test Line Item %d", n), "operations", allocated)
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test line item: %v", err)
	}
	return item
}

// SetBudgetStatus forces a budget into status, bypassing the lifecycle rules.
func SetBudgetStatus(t *testing.T, db *gorm.DB, budgetID string, status models.BudgetStatus) {
	t.Helper()

	if err := db.Model(&models.Budget{}).Where("id = ?", budgetID).Update("status", status).Error; err != nil {
		t.Fatalf("failed to set budget status: %v", err)
	}
}

// ReloadLineItem reads a line item's current amounts from the database.
func ReloadLineItem(t *testing.T, db *gorm.DB, lineItemID string) *models.BudgetLineItem {
	t.Helper()

	var item models.BudgetLineItem
	if err := db.Where("id = ?", lineItemID).First(&item).Error; err != nil {
		t.Fatalf("failed to reload line item: %v", err)
	}
	return &item
}
