package billing

import (
	"time"

	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentStatus represents the settlement state of an invoice
type PaymentStatus string

const (
	// StatusUnpaid indicates no completed payments exist for the invoice
	StatusUnpaid PaymentStatus = "UNPAID"
	// StatusPartial indicates completed payments cover part of the total
	StatusPartial PaymentStatus = "PARTIAL"
	// StatusPaid indicates completed payments cover the full total
	StatusPaid PaymentStatus = "PAID"
)

// IsValid checks if the payment status is a known value
func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusUnpaid, StatusPartial, StatusPaid:
		return true
	}
	return false
}

// String returns the string representation
func (s PaymentStatus) String() string {
	return string(s)
}

// Invoice is a billable record for work done on a vehicle. The engine only
// ever mutates its payment status and payment date; all other fields belong
// to the invoicing subsystem.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	TotalAmount   valueobject.Money
	PaymentStatus PaymentStatus
	PaymentDate   *time.Time
	VehicleID     uuid.UUID
	CustomerID    uuid.UUID
	BranchID      uuid.UUID
}

// NewInvoice creates an invoice in UNPAID state
func NewInvoice(number string, total valueobject.Money, vehicleID, customerID, branchID uuid.UUID) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice number is required")
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice total cannot be negative")
	}
	if vehicleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Vehicle reference is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer reference is required")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Branch reference is required")
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     number,
		TotalAmount:       total,
		PaymentStatus:     StatusUnpaid,
		VehicleID:         vehicleID,
		CustomerID:        customerID,
		BranchID:          branchID,
	}, nil
}

// DeriveStatus computes the payment status implied by a cumulative paid total
func DeriveStatus(totalPaid, totalAmount valueobject.Money) PaymentStatus {
	switch {
	case !totalPaid.IsPositive():
		return StatusUnpaid
	case totalPaid.GreaterThanOrEqual(totalAmount):
		return StatusPaid
	default:
		return StatusPartial
	}
}

// PendingBalance returns how much of the total is not yet covered by the
// given cumulative paid amount. Never negative.
func (i *Invoice) PendingBalance(totalPaid valueobject.Money) valueobject.Money {
	pending := i.TotalAmount.Subtract(totalPaid)
	if pending.IsNegative() {
		return valueobject.Zero()
	}
	return pending
}

// RefreshPaymentStatus sets the status derived from the cumulative paid total
// and stamps the payment date on the first transition out of UNPAID.
// Returns true when the status actually changed.
func (i *Invoice) RefreshPaymentStatus(totalPaid valueobject.Money, at time.Time) bool {
	newStatus := DeriveStatus(totalPaid, i.TotalAmount)
	if newStatus == i.PaymentStatus {
		return false
	}

	previous := i.PaymentStatus
	i.PaymentStatus = newStatus
	if previous == StatusUnpaid && i.PaymentDate == nil {
		i.PaymentDate = &at
	}
	i.UpdatedAt = time.Now()

	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i.GetID(), previous, newStatus, totalPaid))
	return true
}

// IsSettled returns true when the invoice is fully paid
func (i *Invoice) IsSettled() bool {
	return i.PaymentStatus == StatusPaid
}
