package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "erario/internal/errors"
	"erario/internal/services"
)

// PaymentHandler receives settlement callbacks from the payment subsystem.
type PaymentHandler struct {
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ledgerService services.LedgerServicer, auditService services.AuditServicer) *PaymentHandler {
	return &PaymentHandler{ledgerService: ledgerService, auditService: auditService}
}

// PaymentCallbackRequest is sent when the payment subsystem settles an obligation.
type PaymentCallbackRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required,min=1,max=64"`
	ActorID    string `json:"actor_id" binding:"required,uuid"`
}

// RecordPayment handles a settlement callback for an accrued transaction.
// @Summary     Record a settlement
// @Description Mark an ACCRUED transaction PAID on behalf of the payment subsystem
// @Tags        integrations
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string                 true "Transaction ID"
// @Param       request body PaymentCallbackRequest true "Settlement details"
// @Success     200 {object} models.Transaction "Transaction paid"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Illegal transition"
// @Router      /integrations/payments/{id} [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tx, err := h.ledgerService.Pay(c.Request.Context(), transactionID, req.ActorID, &req.PaymentRef)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(req.ActorID, "PAY_TRANSACTION", "transaction", tx.ID, c.ClientIP(),
		map[string]interface{}{"reference": tx.Reference, "payment_ref": req.PaymentRef, "source": "payments"})

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}
