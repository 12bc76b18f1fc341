package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/autoshop/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentOrchestrator drives the end-to-end workflow for one payment event:
// allocate the total across the target invoices, apply each leg through the
// PaymentService, and convert any leftover into advance credit.
//
// There is deliberately no cross-invoice transaction. Each leg commits on
// its own; a failed leg never rolls back the ones before it, and its outcome
// is reported per invoice instead.
type PaymentOrchestrator struct {
	invoiceRepo    billing.InvoiceRepository
	recordRepo     billing.PaymentRecordRepository
	vehicles       billing.VehicleDirectory
	paymentService *PaymentService
	advanceService *AdvanceService
}

// NewPaymentOrchestrator creates a new PaymentOrchestrator
func NewPaymentOrchestrator(
	invoiceRepo billing.InvoiceRepository,
	recordRepo billing.PaymentRecordRepository,
	vehicles billing.VehicleDirectory,
	paymentService *PaymentService,
	advanceService *AdvanceService,
) *PaymentOrchestrator {
	return &PaymentOrchestrator{
		invoiceRepo:    invoiceRepo,
		recordRepo:     recordRepo,
		vehicles:       vehicles,
		paymentService: paymentService,
		advanceService: advanceService,
	}
}

// ProcessPaymentRequest represents one incoming payment event
type ProcessPaymentRequest struct {
	VehicleID       uuid.UUID
	TotalAmount     valueobject.Money
	PaymentMethodID uuid.UUID
	// InvoiceIDs lists the target invoices oldest-first. When empty, the
	// vehicle's outstanding invoices are resolved automatically.
	InvoiceIDs     []uuid.UUID
	BranchID       uuid.UUID
	PaymentDate    time.Time
	TransactionRef string
	Notes          string
	ProcessedBy    *uuid.UUID
}

// InvoiceOutcome is the per-invoice result of a payment event
type InvoiceOutcome struct {
	InvoiceID uuid.UUID             `json:"invoice_id"`
	Allocated valueobject.Money     `json:"allocated"`
	Status    billing.PaymentStatus `json:"status,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// ProcessPaymentResult aggregates the outcomes of one payment event.
// UnrecordedLeftover is only set when leftover existed but the advance
// record could not be written; the caller must not treat that money as
// applied anywhere.
type ProcessPaymentResult struct {
	VehicleID          uuid.UUID            `json:"vehicle_id"`
	Results            []InvoiceOutcome     `json:"results"`
	Advance            *RecordAdvanceResult `json:"advance,omitempty"`
	UnrecordedLeftover *valueobject.Money   `json:"unrecorded_leftover,omitempty"`
}

// ProcessPayment allocates and applies a payment for a vehicle
func (o *PaymentOrchestrator) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*ProcessPaymentResult, error) {
	if !req.TotalAmount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment total must be positive")
	}
	if req.VehicleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Vehicle reference is required")
	}

	exists, err := o.vehicles.Exists(ctx, req.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check vehicle: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("NOT_FOUND", "Vehicle not found")
	}

	result := &ProcessPaymentResult{
		VehicleID: req.VehicleID,
		Results:   make([]InvoiceOutcome, 0, len(req.InvoiceIDs)),
	}

	targets, err := o.resolveTargets(ctx, req, result)
	if err != nil {
		return nil, err
	}

	allocation, err := billing.AllocatePayment(req.TotalAmount, targets)
	if err != nil {
		return nil, err
	}

	for _, alloc := range allocation.Allocations {
		outcome := InvoiceOutcome{
			InvoiceID: alloc.InvoiceID,
			Allocated: alloc.Applied,
		}

		applied, applyErr := o.paymentService.ApplyPayment(ctx, ApplyPaymentRequest{
			InvoiceID:       alloc.InvoiceID,
			Amount:          alloc.Applied,
			PaymentMethodID: req.PaymentMethodID,
			PaymentDate:     req.PaymentDate,
			TransactionRef:  req.TransactionRef,
			Notes:           req.Notes,
			ProcessedBy:     req.ProcessedBy,
		})
		if applyErr != nil {
			outcome.Error = applyErr.Error()
			logger.FromContext(ctx).Warn("Payment leg failed",
				zap.String("invoice_id", alloc.InvoiceID.String()),
				zap.Error(applyErr),
			)
		} else {
			outcome.Status = applied.NewStatus
		}
		result.Results = append(result.Results, outcome)
	}

	if allocation.Leftover.IsPositive() {
		advance, advErr := o.advanceService.RecordAdvance(ctx, RecordAdvanceRequest{
			VehicleID:       req.VehicleID,
			Amount:          allocation.Leftover,
			PaymentMethodID: req.PaymentMethodID,
			BranchID:        req.BranchID,
			PaymentDate:     req.PaymentDate,
			TransactionRef:  req.TransactionRef,
			Notes:           req.Notes,
			ProcessedBy:     req.ProcessedBy,
		})
		if advErr != nil {
			// Surface the unapplied leftover instead of failing the whole
			// event; the invoice legs above already committed.
			leftover := allocation.Leftover
			result.UnrecordedLeftover = &leftover
			logger.FromContext(ctx).Error("Advance recording failed, leftover not persisted",
				zap.String("vehicle_id", req.VehicleID.String()),
				zap.String("leftover", leftover.String()),
				zap.Error(advErr),
			)
		} else {
			result.Advance = advance
		}
	}

	return result, nil
}

// resolveTargets builds allocation targets with freshly computed pending
// balances. Explicit invoice ids are honored in caller order; duplicates
// collapse to a single target so an invoice cannot be allocated twice from
// one event. Invoices that cannot be resolved are reported in the result and
// excluded from allocation.
func (o *PaymentOrchestrator) resolveTargets(ctx context.Context, req ProcessPaymentRequest, result *ProcessPaymentResult) ([]billing.AllocationTarget, error) {
	if len(req.InvoiceIDs) == 0 {
		invoices, err := o.invoiceRepo.FindOutstandingByVehicle(ctx, req.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("failed to list outstanding invoices: %w", err)
		}
		return o.targetsFor(ctx, invoices, result)
	}

	invoices := make([]*billing.Invoice, 0, len(req.InvoiceIDs))
	seen := make(map[uuid.UUID]struct{}, len(req.InvoiceIDs))
	for _, id := range req.InvoiceIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		invoice, err := o.invoiceRepo.FindByID(ctx, id)
		if err != nil {
			result.Results = append(result.Results, InvoiceOutcome{
				InvoiceID: id,
				Allocated: valueobject.Zero(),
				Error:     err.Error(),
			})
			continue
		}
		invoices = append(invoices, invoice)
	}
	return o.targetsFor(ctx, invoices, result)
}

func (o *PaymentOrchestrator) targetsFor(ctx context.Context, invoices []*billing.Invoice, result *ProcessPaymentResult) ([]billing.AllocationTarget, error) {
	targets := make([]billing.AllocationTarget, 0, len(invoices))
	for _, invoice := range invoices {
		totalPaid, err := o.recordRepo.SumCompletedByInvoice(ctx, invoice.GetID())
		if err != nil {
			result.Results = append(result.Results, InvoiceOutcome{
				InvoiceID: invoice.GetID(),
				Allocated: valueobject.Zero(),
				Error:     fmt.Sprintf("failed to compute pending balance: %v", err),
			})
			continue
		}
		targets = append(targets, billing.AllocationTarget{
			InvoiceID:      invoice.GetID(),
			PendingBalance: invoice.PendingBalance(totalPaid),
		})
	}
	return targets, nil
}
