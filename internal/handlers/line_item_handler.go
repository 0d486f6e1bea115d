package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "erario/internal/errors"
	"erario/internal/pagination"
	"erario/internal/services"
)

// LineItemHandler handles budget line item requests.
type LineItemHandler struct {
	lineItemService     services.LineItemServicer
	availabilityChecker services.AvailabilityChecker
	auditService        services.AuditServicer
}

// NewLineItemHandler creates a new LineItemHandler.
func NewLineItemHandler(
	lineItemService services.LineItemServicer,
	availabilityChecker services.AvailabilityChecker,
	auditService services.AuditServicer,
) *LineItemHandler {
	return &LineItemHandler{
		lineItemService:     lineItemService,
		availabilityChecker: availabilityChecker,
		auditService:        auditService,
	}
}

// CreateLineItemRequest represents the request payload for creating a line item.
type CreateLineItemRequest struct {
	Code      string          `json:"code" binding:"required,min=1,max=64"`
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	Category  string          `json:"category" binding:"required,min=1,max=64"`
	Allocated decimal.Decimal `json:"allocated" swaggertype:"string" example:"1000.00" binding:"money"`
}

// UpdateAllocationRequest represents the request payload for changing an allocation.
type UpdateAllocationRequest struct {
	Allocated decimal.Decimal `json:"allocated" swaggertype:"string" example:"1500.00" binding:"money"`
}

// CreateLineItem handles adding a line item to an active budget.
// @Summary     Create a line item
// @Description Add a line item to an ACTIVE budget; its whole allocation starts available
// @Tags        line-items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Budget ID"
// @Param       request body CreateLineItemRequest true "Line item details"
// @Success     201 {object} models.BudgetLineItem "Line item created"
// @Failure     400 {object} ErrorResponse "Invalid input or budget not active"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Router      /budgets/{id}/line-items [post]
func (h *LineItemHandler) CreateLineItem(c *gin.Context) {
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

	var req CreateLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.lineItemService.CreateLineItem(c.Request.Context(), budgetID, services.CreateLineItemInput{
		Code:      req.Code,
		Name:      req.Name,
		Category:  req.Category,
		Allocated: req.Allocated,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "CREATE_LINE_ITEM", "line_item", item.ID, c.ClientIP(),
		map[string]interface{}{"budget_id": budgetID, "code": item.Code, "allocated": item.Allocated.String()})

	c.JSON(http.StatusCreated, gin.H{"line_item": item})
}

// GetLineItems handles listing a budget's line items.
// @Summary     List line items
// @Tags        line-items
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Budget ID"
// @Param       category  query string false "Filter by category"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetLineItem] "Paginated line items"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/line-items [get]
func (h *LineItemHandler) GetLineItems(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var category *string
	if v := c.Query("category"); v != "" {
		category = &v
	}

	result, err := h.lineItemService.ListLineItems(c.Request.Context(), budgetID, page, category)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLineItem handles retrieving a line item with its five amounts.
// @Summary     Get a line item
// @Tags        line-items
// @Produce     json
// @Security    BearerAuth
// @Param       id  path     string true "Line item ID"
// @Success     200 {object} models.BudgetLineItem "Line item"
// @Failure     404 {object} ErrorResponse "Line item not found"
// @Router      /line-items/{id} [get]
func (h *LineItemHandler) GetLineItem(c *gin.Context) {
	lineItemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	item, err := h.lineItemService.GetLineItem(c.Request.Context(), lineItemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"line_item": item})
}

// UpdateAllocation handles changing a line item's allocation.
// @Summary     Change an allocation
// @Description Set a new allocation; it may not drop below the committed amount
// @Tags        line-items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Line item ID"
// @Param       request body UpdateAllocationRequest true "New allocation"
// @Success     200 {object} models.BudgetLineItem "Line item updated"
// @Failure     400 {object} ErrorResponse "Below committed or budget not active"
// @Failure     404 {object} ErrorResponse "Line item not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Router      /line-items/{id}/allocation [put]
func (h *LineItemHandler) UpdateAllocation(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	lineItemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.lineItemService.UpdateAllocation(c.Request.Context(), lineItemID, req.Allocated)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "UPDATE_ALLOCATION", "line_item", item.ID, c.ClientIP(),
		map[string]interface{}{"allocated": item.Allocated.String(), "available": item.Available.String()})

	c.JSON(http.StatusOK, gin.H{"line_item": item})
}

// DeleteLineItem handles removing a line item that was never drawn against.
// @Summary     Delete a line item
// @Tags        line-items
// @Produce     json
// @Security    BearerAuth
// @Param       id  path     string true "Line item ID"
// @Success     200 {object} MessageResponse "Line item deleted"
// @Failure     404 {object} ErrorResponse "Line item not found"
// @Failure     409 {object} ErrorResponse "Has transactions or budget closed"
// @Router      /line-items/{id} [delete]
func (h *LineItemHandler) DeleteLineItem(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	lineItemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.lineItemService.DeleteLineItem(c.Request.Context(), lineItemID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "DELETE_LINE_ITEM", "line_item", lineItemID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Line item deleted successfully"})
}

// CheckAvailability handles the advisory availability pre-check.
// @Summary     Check availability
// @Description Report whether an amount could be committed now. Advisory only; commit re-validates.
// @Tags        line-items
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  string true "Line item ID"
// @Param       amount query string true "Amount to check"
// @Success     200 {object} services.AvailabilityResult "Availability"
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     404 {object} ErrorResponse "Line item not found"
// @Router      /line-items/{id}/availability [get]
func (h *LineItemHandler) CheckAvailability(c *gin.Context) {
	lineItemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be a decimal number"))
		return
	}

	result, err := h.availabilityChecker.Check(c.Request.Context(), lineItemID, amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"availability": result})
}
