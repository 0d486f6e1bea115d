package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "erario/internal/errors"
	"erario/internal/models"
	"erario/internal/pagination"
	"erario/internal/services"
)

// --- mock budget service ---

type mockBudgetService struct {
	createBudgetFn          func(ctx context.Context, fiscalYear int, name string, totalAmount decimal.Decimal) (*models.Budget, error)
	activateBudgetFn        func(ctx context.Context, budgetID, approverID string) (*models.Budget, error)
	closeBudgetFn           func(ctx context.Context, budgetID, actorID string) (*models.Budget, error)
	getBudgetFn             func(ctx context.Context, budgetID string) (*models.Budget, error)
	getBudgetByFiscalYearFn func(ctx context.Context, fiscalYear int) (*models.Budget, error)
	listBudgetsFn           func(ctx context.Context, page pagination.PageRequest, status *models.BudgetStatus) (*pagination.PageResponse[models.Budget], error)
	getExecutionSummaryFn   func(ctx context.Context, budgetID string) (*services.ExecutionSummary, error)
}

func (m *mockBudgetService) CreateBudget(ctx context.Context, fiscalYear int, name string, totalAmount decimal.Decimal) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(ctx, fiscalYear, name, totalAmount)
	}
	return &models.Budget{Base: models.Base{ID: testBudgetID}}, nil
}

func (m *mockBudgetService) ActivateBudget(ctx context.Context, budgetID, approverID string) (*models.Budget, error) {
	if m.activateBudgetFn != nil {
		return m.activateBudgetFn(ctx, budgetID, approverID)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}, Status: models.BudgetStatusActive}, nil
}

func (m *mockBudgetService) CloseBudget(ctx context.Context, budgetID, actorID string) (*models.Budget, error) {
	if m.closeBudgetFn != nil {
		return m.closeBudgetFn(ctx, budgetID, actorID)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}, Status: models.BudgetStatusClosed}, nil
}

func (m *mockBudgetService) GetBudget(ctx context.Context, budgetID string) (*models.Budget, error) {
	if m.getBudgetFn != nil {
		return m.getBudgetFn(ctx, budgetID)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}}, nil
}

func (m *mockBudgetService) GetBudgetByFiscalYear(ctx context.Context, fiscalYear int) (*models.Budget, error) {
	if m.getBudgetByFiscalYearFn != nil {
		return m.getBudgetByFiscalYearFn(ctx, fiscalYear)
	}
	return &models.Budget{FiscalYear: fiscalYear}, nil
}

func (m *mockBudgetService) ListBudgets(ctx context.Context, page pagination.PageRequest, status *models.BudgetStatus) (*pagination.PageResponse[models.Budget], error) {
	if m.listBudgetsFn != nil {
		return m.listBudgetsFn(ctx, page, status)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetExecutionSummary(ctx context.Context, budgetID string) (*services.ExecutionSummary, error) {
	if m.getExecutionSummaryFn != nil {
		return m.getExecutionSummaryFn(ctx, budgetID)
	}
	return &services.ExecutionSummary{BudgetID: budgetID}, nil
}

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectActorID(testActorID))
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/:id", handler.GetBudget)
	auth.POST("/budgets/:id/activate", handler.ActivateBudget)
	auth.POST("/budgets/:id/close", handler.CloseBudget)
	auth.GET("/budgets/:id/summary", handler.GetExecutionSummary)
	auth.GET("/fiscal-years/:year/budget", handler.GetBudgetByFiscalYear)
	return r
}

// --- tests ---

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var gotYear int
		var gotTotal decimal.Decimal
		svc := &mockBudgetService{
			createBudgetFn: func(_ context.Context, fiscalYear int, name string, total decimal.Decimal) (*models.Budget, error) {
				gotYear, gotTotal = fiscalYear, total
				return &models.Budget{
					Base:        models.Base{ID: testBudgetID},
					FiscalYear:  fiscalYear,
					Name:        name,
					TotalAmount: total,
					Status:      models.BudgetStatusDraft,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(svc, audit))

		rec := doRequest(r, "POST", "/budgets", `{"fiscal_year":2025,"name":"Municipal 2025","total_amount":"2500000.00"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotYear != 2025 || !gotTotal.Equal(decimal.RequireFromString("2500000")) {
			t.Errorf("unexpected service args: year=%d total=%s", gotYear, gotTotal)
		}
		if status := field(t, parseJSON(t, rec), "budget", "status"); status != "DRAFT" {
			t.Errorf("expected status DRAFT, got %v", status)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "CREATE_BUDGET" {
			t.Errorf("expected CREATE_BUDGET audit, got %v", got)
		}
	})

	t.Run("returns 400 on invalid payloads", func(t *testing.T) {
		bodies := map[string]string{
			"missing_year":   `{"name":"Budget","total_amount":"100"}`,
			"year_too_early": `{"fiscal_year":25,"name":"Budget","total_amount":"100"}`,
			"negative_total": `{"fiscal_year":2025,"name":"Budget","total_amount":"-1"}`,
			"three_decimals": `{"fiscal_year":2025,"name":"Budget","total_amount":"1.005"}`,
			"missing_name":   `{"fiscal_year":2025,"total_amount":"100"}`,
		}
		for name, body := range bodies {
			t.Run(name, func(t *testing.T) {
				r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))
				rec := doRequest(r, "POST", "/budgets", body)
				if rec.Code != http.StatusBadRequest {
					t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
				}
				assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
			})
		}
	})

	t.Run("returns 409 on duplicate fiscal year", func(t *testing.T) {
		svc := &mockBudgetService{
			createBudgetFn: func(context.Context, int, string, decimal.Decimal) (*models.Budget, error) {
				return nil, apperrors.ErrDuplicateFiscalYear
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets", `{"fiscal_year":2025,"name":"Budget","total_amount":"100"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_FISCAL_YEAR")
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := gin.New()
		r.POST("/budgets", handler.CreateBudget)

		rec := doRequest(r, "POST", "/budgets", `{"fiscal_year":2025,"name":"Budget","total_amount":"100"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	t.Run("passes status filter to service", func(t *testing.T) {
		var captured *models.BudgetStatus
		svc := &mockBudgetService{
			listBudgetsFn: func(_ context.Context, _ pagination.PageRequest, status *models.BudgetStatus) (*pagination.PageResponse[models.Budget], error) {
				captured = status
				resp := pagination.NewPageResponse([]models.Budget{{FiscalYear: 2025}}, 1, 20, 1)
				return &resp, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets?status=ACTIVE", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured == nil || *captured != models.BudgetStatusActive {
			t.Error("expected status=ACTIVE to be passed")
		}
		if total := parseJSON(t, rec)["total_items"].(float64); total != 1 {
			t.Errorf("expected total_items=1, got %v", total)
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets?status=OPEN", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetFn: func(context.Context, string) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})

	t.Run("looks up by fiscal year", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/fiscal-years/2026/budget", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if year := field(t, parseJSON(t, rec), "budget", "fiscal_year"); year != float64(2026) {
			t.Errorf("expected fiscal_year 2026, got %v", year)
		}
	})

	t.Run("rejects non-numeric fiscal year", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/fiscal-years/next/budget", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_StatusChanges(t *testing.T) {
	t.Run("activate stamps caller as approver", func(t *testing.T) {
		var approver string
		svc := &mockBudgetService{
			activateBudgetFn: func(_ context.Context, budgetID, approverID string) (*models.Budget, error) {
				approver = approverID
				return &models.Budget{Base: models.Base{ID: budgetID}, Status: models.BudgetStatusActive, ApprovedBy: &approverID}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(svc, audit))

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/activate", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if approver != testActorID {
			t.Errorf("expected approver %s, got %s", testActorID, approver)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "ACTIVATE_BUDGET" {
			t.Errorf("expected ACTIVATE_BUDGET audit, got %v", got)
		}
	})

	t.Run("close of draft is a conflict", func(t *testing.T) {
		svc := &mockBudgetService{
			closeBudgetFn: func(context.Context, string, string) (*models.Budget, error) {
				return nil, apperrors.ErrIllegalBudgetTransition
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(svc, audit))

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/close", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ILLEGAL_BUDGET_TRANSITION")
		if len(audit.actions()) != 0 {
			t.Error("expected no audit entry for a failed change")
		}
	})
}

func TestBudgetHandler_GetExecutionSummary(t *testing.T) {
	svc := &mockBudgetService{
		getExecutionSummaryFn: func(_ context.Context, budgetID string) (*services.ExecutionSummary, error) {
			return &services.ExecutionSummary{
				BudgetID: budgetID,
				Categories: []services.CategorySummary{
					{Category: "works", LineItems: 2, Allocated: decimal.RequireFromString("2000"), ExecutionPct: 20},
				},
			}, nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/summary", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	categories := field(t, parseJSON(t, rec), "summary", "categories").([]interface{})
	if len(categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(categories))
	}
	if pct := categories[0].(map[string]interface{})["execution_pct"]; pct != float64(20) {
		t.Errorf("expected execution_pct 20, got %v", pct)
	}
}
