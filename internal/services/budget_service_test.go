package services

import (
	"context"
	"testing"

	"erario/internal/models"
	"erario/internal/pagination"
	"erario/internal/testutil"
)

func TestCreateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		budget, err := svc.CreateBudget(ctx, 2025, "Municipal budget 2025", amt("2500000"))
		testutil.AssertNoError(t, err)

		if budget.ID == "" {
			t.Fatal("expected budget ID")
		}
		if budget.Status != models.BudgetStatusDraft {
			t.Errorf("expected status DRAFT, got %s", budget.Status)
		}
		if !budget.TotalAmount.Equal(amt("2500000")) {
			t.Errorf("expected total 2500000, got %s", budget.TotalAmount)
		}
		if budget.ApprovedAt != nil {
			t.Error("expected no approval stamp on a draft")
		}
	})

	t.Run("duplicate_fiscal_year", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		_, err := svc.CreateBudget(ctx, 2025, "First", amt("1"))
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(ctx, 2025, "Second", amt("1"))
		testutil.AssertAppError(t, err, "DUPLICATE_FISCAL_YEAR")
	})

	t.Run("invalid_input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		_, err := svc.CreateBudget(ctx, 25, "Too early", amt("1"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateBudget(ctx, 2025, " ", amt("1"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateBudget(ctx, 2025, "Negative", amt("-1"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateBudget(ctx, 2025, "Fractional cents", amt("2500000.125"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestBudgetLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("draft_active_closed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		budget, err := svc.CreateBudget(ctx, 2025, "Budget", amt("100"))
		testutil.AssertNoError(t, err)

		active, err := svc.ActivateBudget(ctx, budget.ID, testutil.TestActorID)
		testutil.AssertNoError(t, err)
		if active.Status != models.BudgetStatusActive {
			t.Errorf("expected ACTIVE, got %s", active.Status)
		}
		if active.ApprovedBy == nil || *active.ApprovedBy != testutil.TestActorID {
			t.Error("expected approver to be stamped")
		}
		if active.ApprovedAt == nil {
			t.Error("expected approval time to be stamped")
		}

		closed, err := svc.CloseBudget(ctx, budget.ID, testutil.TestActorID)
		testutil.AssertNoError(t, err)
		if closed.Status != models.BudgetStatusClosed {
			t.Errorf("expected CLOSED, got %s", closed.Status)
		}

		stored, err := svc.GetBudget(ctx, budget.ID)
		testutil.AssertNoError(t, err)
		if stored.Status != models.BudgetStatusClosed || stored.ClosedAt == nil {
			t.Errorf("expected stored budget to be CLOSED with a close stamp, got %s", stored.Status)
		}
	})

	t.Run("illegal_moves", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		draft := testutil.CreateTestBudgetWithStatus(t, db, models.BudgetStatusDraft)
		_, err := svc.CloseBudget(ctx, draft.ID, testutil.TestActorID)
		testutil.AssertAppError(t, err, "ILLEGAL_BUDGET_TRANSITION")

		closed := testutil.CreateTestBudgetWithStatus(t, db, models.BudgetStatusClosed)
		_, err = svc.ActivateBudget(ctx, closed.ID, testutil.TestActorID)
		testutil.AssertAppError(t, err, "ILLEGAL_BUDGET_TRANSITION")
		_, err = svc.CloseBudget(ctx, closed.ID, testutil.TestActorID)
		testutil.AssertAppError(t, err, "ILLEGAL_BUDGET_TRANSITION")

		active := testutil.CreateTestBudget(t, db)
		_, err = svc.ActivateBudget(ctx, active.ID, testutil.TestActorID)
		testutil.AssertAppError(t, err, "ILLEGAL_BUDGET_TRANSITION")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		_, err := svc.ActivateBudget(ctx, "0190a5c4-ffff-7000-8000-000000000000", testutil.TestActorID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")

		_, err = svc.GetBudgetByFiscalYear(ctx, 1999)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestListBudgets(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)

	testutil.CreateTestBudgetWithStatus(t, db, models.BudgetStatusDraft)
	testutil.CreateTestBudget(t, db)
	newest := testutil.CreateTestBudget(t, db)

	result, err := svc.ListBudgets(ctx, pagination.PageRequest{}, nil)
	testutil.AssertNoError(t, err)
	if result.TotalItems != 3 {
		t.Errorf("expected 3 budgets, got %d", result.TotalItems)
	}
	if result.Data[0].ID != newest.ID {
		t.Errorf("expected newest fiscal year first, got %d", result.Data[0].FiscalYear)
	}

	active := models.BudgetStatusActive
	result, err = svc.ListBudgets(ctx, pagination.PageRequest{}, &active)
	testutil.AssertNoError(t, err)
	if result.TotalItems != 2 {
		t.Errorf("expected 2 active budgets, got %d", result.TotalItems)
	}

	byYear, err := svc.GetBudgetByFiscalYear(ctx, newest.FiscalYear)
	testutil.AssertNoError(t, err)
	if byYear.ID != newest.ID {
		t.Errorf("expected budget %s, got %s", newest.ID, byYear.ID)
	}
}

func TestGetExecutionSummary(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	svc := NewBudgetService(f.db)
	budget := testutil.CreateTestBudget(t, f.db)

	works, err := f.lineItems.CreateLineItem(ctx, budget.ID, CreateLineItemInput{Code: "6.1", Category: "works", Allocated: amt("1000")})
	testutil.AssertNoError(t, err)
	_, err = f.lineItems.CreateLineItem(ctx, budget.ID, CreateLineItemInput{Code: "6.2", Category: "works", Allocated: amt("1000")})
	testutil.AssertNoError(t, err)
	_, err = f.lineItems.CreateLineItem(ctx, budget.ID, CreateLineItemInput{Code: "2.1", Category: "supplies", Allocated: amt("500")})
	testutil.AssertNoError(t, err)

	tx := commitExpense(t, f, works.ID, "400")
	_, err = f.ledger.Accrue(ctx, tx.ID, testutil.TestActorID)
	testutil.AssertNoError(t, err)

	summary, err := svc.GetExecutionSummary(ctx, budget.ID)
	testutil.AssertNoError(t, err)

	if len(summary.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(summary.Categories))
	}
	if summary.Categories[0].Category != "supplies" || summary.Categories[1].Category != "works" {
		t.Errorf("expected categories sorted by name, got %s, %s", summary.Categories[0].Category, summary.Categories[1].Category)
	}

	w := summary.Categories[1]
	if w.LineItems != 2 {
		t.Errorf("expected 2 works line items, got %d", w.LineItems)
	}
	testutil.AssertAmount(t, "works.allocated", "2000", w.Allocated)
	testutil.AssertAmount(t, "works.committed", "400", w.Committed)
	testutil.AssertAmount(t, "works.accrued", "400", w.Accrued)
	testutil.AssertAmount(t, "works.available", "1600", w.Available)
	if w.ExecutionPct != 20 {
		t.Errorf("expected works execution 20%%, got %v", w.ExecutionPct)
	}

	testutil.AssertAmount(t, "totals.allocated", "2500", summary.Totals.Allocated)
	testutil.AssertAmount(t, "totals.available", "2100", summary.Totals.Available)
	if summary.Totals.ExecutionPct != 16 {
		t.Errorf("expected total execution 16%%, got %v", summary.Totals.ExecutionPct)
	}
}
