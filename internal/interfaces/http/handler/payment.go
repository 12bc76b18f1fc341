package handler

import (
	"time"

	paymentapp "github.com/autoshop/backend/internal/application/payment"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/autoshop/backend/internal/interfaces/http/dto"
	"github.com/autoshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles invoice payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.PaymentService
	orchestrator   *paymentapp.PaymentOrchestrator
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.PaymentService, orchestrator *paymentapp.PaymentOrchestrator) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		orchestrator:   orchestrator,
	}
}

// ApplyPaymentRequest represents a request to apply a payment to one invoice.
// Amounts travel as decimal strings to avoid float rounding on the wire.
type ApplyPaymentRequest struct {
	Amount          string `json:"amount" binding:"required" example:"400.00"`
	PaymentMethodID string `json:"payment_method_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	PaymentDate     string `json:"payment_date" binding:"omitempty" example:"2026-01-24T10:00:00Z"`
	TransactionRef  string `json:"transaction_ref" binding:"max=128" example:"TXN-20260124-001"`
	Notes           string `json:"notes" binding:"max=500" example:"Counter payment"`
}

// ProcessPaymentRequest represents one payment event against a vehicle's invoices
type ProcessPaymentRequest struct {
	VehicleID       string   `json:"vehicle_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	TotalAmount     string   `json:"total_amount" binding:"required" example:"2290.00"`
	PaymentMethodID string   `json:"payment_method_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	InvoiceIDs      []string `json:"invoice_ids" binding:"omitempty,dive,uuid"`
	PaymentDate     string   `json:"payment_date" binding:"omitempty" example:"2026-01-24T10:00:00Z"`
	TransactionRef  string   `json:"transaction_ref" binding:"max=128" example:"TXN-20260124-001"`
	Notes           string   `json:"notes" binding:"max=500" example:"Settles open invoices"`
}

// ApplyPayment applies a payment to a single invoice
// POST /billing/invoices/:id/payments
func (h *PaymentHandler) ApplyPayment(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	invoiceID, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	amount, err := valueobject.NewMoneyFromString(req.Amount)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidAmount, "Invalid amount format")
		return
	}
	methodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		h.BadRequest(c, "Invalid payment method ID")
		return
	}
	paymentDate, err := parsePaymentDate(req.PaymentDate)
	if err != nil {
		h.BadRequest(c, "Invalid payment date, expected RFC3339")
		return
	}

	result, err := h.paymentService.ApplyPayment(c.Request.Context(), paymentapp.ApplyPaymentRequest{
		InvoiceID:       invoiceID,
		Amount:          amount,
		PaymentMethodID: methodID,
		PaymentDate:     paymentDate,
		TransactionRef:  req.TransactionRef,
		Notes:           req.Notes,
		ProcessedBy:     getUserID(c),
	})
	if err != nil {
		// The record, sum, and status update share one transaction; an
		// error means nothing persisted and the caller retries the payment.
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// RecomputeStatus re-derives an invoice's payment status from its history
// POST /billing/invoices/:id/payments/recompute
func (h *PaymentHandler) RecomputeStatus(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	invoiceID, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	result, err := h.paymentService.RecomputeStatus(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ProcessPayment allocates one payment across a vehicle's invoices
// POST /billing/payments/process
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		h.BadRequest(c, "Invalid vehicle ID")
		return
	}
	total, err := valueobject.NewMoneyFromString(req.TotalAmount)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidAmount, "Invalid total amount format")
		return
	}
	methodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		h.BadRequest(c, "Invalid payment method ID")
		return
	}
	paymentDate, err := parsePaymentDate(req.PaymentDate)
	if err != nil {
		h.BadRequest(c, "Invalid payment date, expected RFC3339")
		return
	}
	branchID, err := getBranchID(c)
	if err != nil {
		h.BadRequest(c, "Missing or invalid X-Branch-ID header")
		return
	}

	invoiceIDs := make([]uuid.UUID, 0, len(req.InvoiceIDs))
	for _, raw := range req.InvoiceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID in list: "+raw)
			return
		}
		invoiceIDs = append(invoiceIDs, id)
	}

	result, err := h.orchestrator.ProcessPayment(c.Request.Context(), paymentapp.ProcessPaymentRequest{
		VehicleID:       vehicleID,
		TotalAmount:     total,
		PaymentMethodID: methodID,
		InvoiceIDs:      invoiceIDs,
		BranchID:        branchID,
		PaymentDate:     paymentDate,
		TransactionRef:  req.TransactionRef,
		Notes:           req.Notes,
		ProcessedBy:     getUserID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// parsePaymentDate parses an optional RFC3339 payment date. An empty string
// yields the zero time, which the domain replaces with now.
func parsePaymentDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
