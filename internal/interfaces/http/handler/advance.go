package handler

import (
	paymentapp "github.com/autoshop/backend/internal/application/payment"
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/autoshop/backend/internal/interfaces/http/dto"
	"github.com/autoshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdvanceHandler handles vehicle advance credit API endpoints
type AdvanceHandler struct {
	BaseHandler
	advanceService *paymentapp.AdvanceService
}

// NewAdvanceHandler creates a new AdvanceHandler
func NewAdvanceHandler(advanceService *paymentapp.AdvanceService) *AdvanceHandler {
	return &AdvanceHandler{
		advanceService: advanceService,
	}
}

// RecordAdvanceRequest represents a request to record advance credit
type RecordAdvanceRequest struct {
	Amount          string `json:"amount" binding:"required" example:"150.00"`
	PaymentMethodID string `json:"payment_method_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	PaymentDate     string `json:"payment_date" binding:"omitempty" example:"2026-01-24T10:00:00Z"`
	TransactionRef  string `json:"transaction_ref" binding:"max=128" example:"TXN-20260124-002"`
	Notes           string `json:"notes" binding:"max=500" example:"Deposit for upcoming service"`
}

// RecordAdvance records unlinked credit for a vehicle
// POST /billing/vehicles/:id/advances
func (h *AdvanceHandler) RecordAdvance(c *gin.Context) {
	vehicleID, ok := h.vehicleID(c)
	if !ok {
		return
	}

	var req RecordAdvanceRequest
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
	branchID, err := getBranchID(c)
	if err != nil {
		h.BadRequest(c, "Missing or invalid X-Branch-ID header")
		return
	}

	result, err := h.advanceService.RecordAdvance(c.Request.Context(), paymentapp.RecordAdvanceRequest{
		VehicleID:       vehicleID,
		Amount:          amount,
		PaymentMethodID: methodID,
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

	h.Created(c, result)
}

// GetBalance returns a vehicle's current advance balance
// GET /billing/vehicles/:id/advances/balance
func (h *AdvanceHandler) GetBalance(c *gin.Context) {
	vehicleID, ok := h.vehicleID(c)
	if !ok {
		return
	}

	result, err := h.advanceService.GetBalance(c.Request.Context(), vehicleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListTransactions returns a vehicle's advance records, newest first
// GET /billing/vehicles/:id/advances
func (h *AdvanceHandler) ListTransactions(c *gin.Context) {
	vehicleID, ok := h.vehicleID(c)
	if !ok {
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}
	if listReq.Page == 0 {
		listReq.Page = 1
	}
	if listReq.PageSize == 0 {
		listReq.PageSize = 20
	}

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
	}

	result, err := h.advanceService.GetTransactions(c.Request.Context(), vehicleID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result, result.Total, listReq.Page, listReq.PageSize)
}

func (h *AdvanceHandler) vehicleID(c *gin.Context) (uuid.UUID, bool) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid vehicle ID")
		return uuid.Nil, false
	}
	vehicleID, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid vehicle ID format")
		return uuid.Nil, false
	}
	return vehicleID, true
}
