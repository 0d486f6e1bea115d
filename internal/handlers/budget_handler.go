package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "erario/internal/errors"
	"erario/internal/models"
	"erario/internal/pagination"
	"erario/internal/services"
)

// BudgetHandler handles fiscal-year budget requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	FiscalYear  int             `json:"fiscal_year" binding:"required,fiscal_year"`
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	TotalAmount decimal.Decimal `json:"total_amount" swaggertype:"string" example:"2500000.00" binding:"money"`
}

// CreateBudget handles the creation of a fiscal-year budget.
// @Summary     Create a budget
// @Description Create the DRAFT budget of a fiscal year
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Fiscal year already budgeted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), req.FiscalYear, req.Name, req.TotalAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"fiscal_year": req.FiscalYear, "total_amount": req.TotalAmount.String()})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing budgets.
// @Summary     List budgets
// @Description Get a paginated list of budgets, newest fiscal year first
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "Filter by status (DRAFT, ACTIVE, CLOSED)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.BudgetStatus
	if v := c.Query("status"); v != "" {
		s := models.BudgetStatus(v)
		if !s.IsValid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be DRAFT, ACTIVE or CLOSED"))
			return
		}
		status = &s
	}

	result, err := h.budgetService.ListBudgets(c.Request.Context(), page, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudget handles retrieving a single budget.
// @Summary     Get a budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id  path     string true "Budget ID"
// @Success     200 {object} models.Budget "Budget"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudget(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetBudgetByFiscalYear handles retrieving the budget of a fiscal year.
// @Summary     Get a budget by fiscal year
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       year path     int true "Fiscal year"
// @Success     200  {object} models.Budget "Budget"
// @Failure     400  {object} ErrorResponse "Invalid year"
// @Failure     404  {object} ErrorResponse "Budget not found"
// @Router      /fiscal-years/{year}/budget [get]
func (h *BudgetHandler) GetBudgetByFiscalYear(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid year"))
		return
	}

	budget, err := h.budgetService.GetBudgetByFiscalYear(c.Request.Context(), year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// ActivateBudget handles approving a DRAFT budget.
// @Summary     Activate a budget
// @Description Approve a DRAFT budget; the caller is recorded as approver
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id  path     string true "Budget ID"
// @Success     200 {object} models.Budget "Budget activated"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget is not DRAFT"
// @Router      /budgets/{id}/activate [post]
func (h *BudgetHandler) ActivateBudget(c *gin.Context) {
	h.changeStatus(c, "ACTIVATE_BUDGET", h.budgetService.ActivateBudget)
}

// CloseBudget handles closing an ACTIVE budget.
// @Summary     Close a budget
// @Description Close an ACTIVE budget; no line item under it can change afterwards
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id  path     string true "Budget ID"
// @Success     200 {object} models.Budget "Budget closed"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget is not ACTIVE"
// @Router      /budgets/{id}/close [post]
func (h *BudgetHandler) CloseBudget(c *gin.Context) {
	h.changeStatus(c, "CLOSE_BUDGET", h.budgetService.CloseBudget)
}

func (h *BudgetHandler) changeStatus(
	c *gin.Context,
	action string,
	move func(ctx context.Context, budgetID, actorID string) (*models.Budget, error),
) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := move(c.Request.Context(), budgetID, actorID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, action, "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"status": budget.Status})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetExecutionSummary handles the budget execution report.
// @Summary     Budget execution summary
// @Description Allocated, committed, accrued, paid and available totals per category
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id  path     string true "Budget ID"
// @Success     200 {object} services.ExecutionSummary "Execution summary"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/summary [get]
func (h *BudgetHandler) GetExecutionSummary(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.GetExecutionSummary(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
