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

// PaymentService applies payments to individual invoices and keeps each
// invoice's payment status consistent with its full payment history
type PaymentService struct {
	invoiceRepo billing.InvoiceRepository
	recordRepo  billing.PaymentRecordRepository
	txManager   billing.TransactionManager
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	invoiceRepo billing.InvoiceRepository,
	recordRepo billing.PaymentRecordRepository,
	txManager billing.TransactionManager,
) *PaymentService {
	return &PaymentService{
		invoiceRepo: invoiceRepo,
		recordRepo:  recordRepo,
		txManager:   txManager,
	}
}

// ApplyPaymentRequest represents a request to apply a payment to one invoice
type ApplyPaymentRequest struct {
	InvoiceID       uuid.UUID
	Amount          valueobject.Money
	PaymentMethodID uuid.UUID
	PaymentDate     time.Time
	TransactionRef  string
	Notes           string
	ProcessedBy     *uuid.UUID
}

// ApplyPaymentResult represents the outcome of applying a payment.
// RecordedAmount is what was written against the invoice; Excess is the part
// of the request that exceeded the invoice total and must be redirected by
// the caller. RecordWritten reports whether the payment record is durable;
// the insert, sum, and status save share one transaction, so a returned
// error means nothing persisted and the payment must be retried.
type ApplyPaymentResult struct {
	InvoiceID       uuid.UUID             `json:"invoice_id"`
	PaymentRecordID uuid.UUID             `json:"payment_record_id"`
	RecordedAmount  valueobject.Money     `json:"recorded_amount"`
	Excess          valueobject.Money     `json:"excess"`
	NewStatus       billing.PaymentStatus `json:"new_status"`
	TotalPaid       valueobject.Money     `json:"total_paid"`
	RecordWritten   bool                  `json:"record_written"`
}

// ApplyPayment records a payment against an invoice and re-derives the
// invoice's status from its cumulative history. The record insert, the sum
// recompute, and the status update share one transaction, so the recompute
// always observes the record it just wrote.
func (s *PaymentService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*ApplyPaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	// Never attribute more to one invoice than its total. The excess stays
	// in the result for the caller to redirect, not silently dropped.
	recorded := valueobject.Min(req.Amount, invoice.TotalAmount)
	excess := req.Amount.Subtract(recorded)

	record, err := billing.NewPaymentRecord(
		invoice.GetID(),
		invoice.VehicleID,
		req.PaymentMethodID,
		invoice.BranchID,
		recorded,
		req.PaymentDate,
	)
	if err != nil {
		return nil, err
	}
	record.WithTransactionRef(req.TransactionRef).WithNotes(req.Notes)
	if req.ProcessedBy != nil {
		record.WithProcessedBy(*req.ProcessedBy)
	}

	result := &ApplyPaymentResult{
		InvoiceID:      invoice.GetID(),
		RecordedAmount: recorded,
		Excess:         excess,
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to create payment record: %w", err)
		}

		totalPaid, err := s.recordRepo.SumCompletedByInvoice(txCtx, invoice.GetID())
		if err != nil {
			return fmt.Errorf("failed to sum payment records: %w", err)
		}

		if invoice.RefreshPaymentStatus(totalPaid, record.PaymentDate) {
			if err := s.invoiceRepo.Save(txCtx, invoice); err != nil {
				return fmt.Errorf("failed to save invoice status: %w", err)
			}
		}

		result.NewStatus = invoice.PaymentStatus
		result.TotalPaid = totalPaid
		return nil
	})
	if err != nil {
		// The transaction rolled back, so the record is gone with it
		return nil, err
	}
	result.PaymentRecordID = record.GetID()
	result.RecordWritten = true

	s.logEvents(ctx, invoice)
	logEvent(ctx, billing.NewPaymentRecordedEvent(record.GetID(), invoice.GetID(), invoice.VehicleID, recorded))
	logger.FromContext(ctx).Info("Payment applied",
		zap.String("invoice_id", invoice.GetID().String()),
		zap.String("recorded_amount", recorded.String()),
		zap.String("new_status", result.NewStatus.String()),
	)

	return result, nil
}

// RecomputeStatusResult represents the outcome of a status recompute
type RecomputeStatusResult struct {
	InvoiceID uuid.UUID             `json:"invoice_id"`
	Status    billing.PaymentStatus `json:"status"`
	TotalPaid valueobject.Money     `json:"total_paid"`
	Changed   bool                  `json:"changed"`
}

// RecomputeStatus re-derives an invoice's status from its persisted payment
// history. It is the repair operation for a status that went stale outside
// the normal path (a crash after commit, an out-of-band record change), and
// is safe to run any number of times.
func (s *PaymentService) RecomputeStatus(ctx context.Context, invoiceID uuid.UUID) (*RecomputeStatusResult, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	totalPaid, err := s.recordRepo.SumCompletedByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payment records: %w", err)
	}

	changed := invoice.RefreshPaymentStatus(totalPaid, time.Now())
	if changed {
		if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
			return nil, fmt.Errorf("failed to save invoice status: %w", err)
		}
		s.logEvents(ctx, invoice)
	}

	return &RecomputeStatusResult{
		InvoiceID: invoice.GetID(),
		Status:    invoice.PaymentStatus,
		TotalPaid: totalPaid,
		Changed:   changed,
	}, nil
}

// logEvents drains the aggregate's domain events into the structured log
func (s *PaymentService) logEvents(ctx context.Context, invoice *billing.Invoice) {
	for _, event := range invoice.GetDomainEvents() {
		logEvent(ctx, event)
	}
	invoice.ClearDomainEvents()
}

// logEvent writes a single domain event into the structured log
func logEvent(ctx context.Context, event shared.DomainEvent) {
	logger.FromContext(ctx).Info("Domain event",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
}
