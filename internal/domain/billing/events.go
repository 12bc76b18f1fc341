package billing

import (
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Event type constants
const (
	EventInvoiceStatusChanged = "billing.invoice.status_changed"
	EventPaymentRecorded      = "billing.payment.recorded"
	EventAdvanceRecorded      = "billing.advance.recorded"
)

// InvoiceStatusChangedEvent is raised when a status recompute changes the
// persisted payment status of an invoice
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	PreviousStatus PaymentStatus     `json:"previous_status"`
	NewStatus      PaymentStatus     `json:"new_status"`
	TotalPaid      valueobject.Money `json:"total_paid"`
}

// NewInvoiceStatusChangedEvent creates a status change event
func NewInvoiceStatusChangedEvent(invoiceID uuid.UUID, previous, next PaymentStatus, totalPaid valueobject.Money) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceStatusChanged, "Invoice", invoiceID),
		PreviousStatus:  previous,
		NewStatus:       next,
		TotalPaid:       totalPaid,
	}
}

// PaymentRecordedEvent is raised when a payment record is written against
// an invoice
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID         `json:"invoice_id"`
	VehicleID uuid.UUID         `json:"vehicle_id"`
	Amount    valueobject.Money `json:"amount"`
}

// NewPaymentRecordedEvent creates a payment recorded event
func NewPaymentRecordedEvent(recordID, invoiceID, vehicleID uuid.UUID, amount valueobject.Money) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentRecorded, "PaymentRecord", recordID),
		InvoiceID:       invoiceID,
		VehicleID:       vehicleID,
		Amount:          amount,
	}
}

// AdvanceRecordedEvent is raised when unlinked credit is written for a vehicle
type AdvanceRecordedEvent struct {
	shared.BaseDomainEvent
	VehicleID uuid.UUID         `json:"vehicle_id"`
	Amount    valueobject.Money `json:"amount"`
}

// NewAdvanceRecordedEvent creates an advance recorded event
func NewAdvanceRecordedEvent(recordID, vehicleID uuid.UUID, amount valueobject.Money) *AdvanceRecordedEvent {
	return &AdvanceRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventAdvanceRecorded, "PaymentRecord", recordID),
		VehicleID:       vehicleID,
		Amount:          amount,
	}
}
