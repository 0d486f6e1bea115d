package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "erario/internal/errors"
	"erario/internal/models"
	"erario/internal/pagination"
	"erario/internal/services"
	"erario/internal/uuid"
)

// TransactionHandler handles expenditure cycle requests.
type TransactionHandler struct {
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerService services.LedgerServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for committing a transaction
type CreateTransactionRequest struct {
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount      decimal.Decimal        `json:"amount" swaggertype:"string" example:"400.00" binding:"positive_money"`
	LineItemID  *string                `json:"line_item_id" binding:"omitempty,uuid"`
	FiscalYear  int                    `json:"fiscal_year" binding:"omitempty,fiscal_year"`
	Description string                 `json:"description" binding:"max=500"`
}

// PayTransactionRequest represents the request payload for paying an accrued transaction
type PayTransactionRequest struct {
	PaymentRef *string `json:"payment_ref" binding:"omitempty,min=1,max=64"`
}

// CancelTransactionRequest represents the request payload for cancelling a transaction
type CancelTransactionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// TransactionListQuery holds the optional list filters.
type TransactionListQuery struct {
	Status     string `form:"status" binding:"omitempty,transaction_status"`
	Type       string `form:"type" binding:"omitempty,transaction_type"`
	LineItemID string `form:"line_item_id" binding:"omitempty,uuid"`
	FiscalYear int    `form:"fiscal_year" binding:"omitempty,fiscal_year"`
}

func (q TransactionListQuery) filter() services.TransactionFilter {
	var f services.TransactionFilter
	if q.Status != "" {
		s := models.TransactionStatus(q.Status)
		f.Status = &s
	}
	if q.Type != "" {
		t := models.TransactionType(q.Type)
		f.Type = &t
	}
	if q.LineItemID != "" {
		id := q.LineItemID
		f.LineItemID = &id
	}
	if q.FiscalYear != 0 {
		y := q.FiscalYear
		f.FiscalYear = &y
	}
	return f
}

// CreateTransaction handles committing funds against a line item
// @Summary     Commit a transaction
// @Description Reserve funds on a line item; the transaction starts in COMMITMENT with a generated reference
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction committed"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient budget"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Line item not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.LineItemID != nil {
		id, err := uuid.Parse(*req.LineItemID)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid line_item_id"))
			return
		}
		req.LineItemID = &id
	}

	tx, err := h.ledgerService.CreateTransaction(c.Request.Context(), services.CreateTransactionInput{
		Type:        req.Type,
		Amount:      req.Amount,
		LineItemID:  req.LineItemID,
		FiscalYear:  req.FiscalYear,
		Description: req.Description,
		ActorID:     actorID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "COMMIT_TRANSACTION", "transaction", tx.ID, c.ClientIP(),
		map[string]interface{}{"reference": tx.Reference, "amount": tx.Amount.String(), "type": tx.Type})

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// GetTransactions handles listing transactions
// @Summary     List transactions
// @Description Get a paginated list of transactions, most recent commitment first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       status       query string false "Filter by status (COMMITMENT, ACCRUED, PAID, CANCELLED)"
// @Param       type         query string false "Filter by type (EXPENSE, INCOME)"
// @Param       line_item_id query string false "Filter by line item"
// @Param       fiscal_year  query int    false "Filter by fiscal year"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var query TransactionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.ledgerService.ListTransactions(c.Request.Context(), page, query.filter())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID handles retrieving a transaction by ID
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id  path     string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.ledgerService.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// AccrueTransaction handles recognising a committed obligation
// @Summary     Accrue a transaction
// @Description Move a COMMITMENT to ACCRUED once goods or services are received
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id  path     string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction accrued"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Illegal transition or budget closed"
// @Router      /transactions/{id}/accrue [post]
func (h *TransactionHandler) AccrueTransaction(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.ledgerService.Accrue(c.Request.Context(), transactionID, actorID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "ACCRUE_TRANSACTION", "transaction", tx.ID, c.ClientIP(),
		map[string]interface{}{"reference": tx.Reference})

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// PayTransaction handles paying an accrued obligation
// @Summary     Pay a transaction
// @Description Move an ACCRUED transaction to PAID, optionally linking the payment reference
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true  "Transaction ID"
// @Param       request body PayTransactionRequest false "Payment details"
// @Success     200 {object} models.Transaction "Transaction paid"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Illegal transition or budget closed"
// @Router      /transactions/{id}/pay [post]
func (h *TransactionHandler) PayTransaction(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PayTransactionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	tx, err := h.ledgerService.Pay(c.Request.Context(), transactionID, actorID, req.PaymentRef)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "PAY_TRANSACTION", "transaction", tx.ID, c.ClientIP(),
		map[string]interface{}{"reference": tx.Reference, "payment_ref": req.PaymentRef})

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// CancelTransaction handles cancelling a commitment or accrued obligation
// @Summary     Cancel a transaction
// @Description Cancel a COMMITMENT or ACCRUED transaction and release its committed funds
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body CancelTransactionRequest true "Cancellation reason"
// @Success     200 {object} models.Transaction "Transaction cancelled"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Illegal transition or budget closed"
// @Router      /transactions/{id}/cancel [post]
func (h *TransactionHandler) CancelTransaction(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CancelTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tx, err := h.ledgerService.Cancel(c.Request.Context(), transactionID, actorID, req.Reason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "CANCEL_TRANSACTION", "transaction", tx.ID, c.ClientIP(),
		map[string]interface{}{"reference": tx.Reference, "reason": req.Reason})

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}
