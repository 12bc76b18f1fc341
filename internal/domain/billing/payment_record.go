package billing

import (
	"time"

	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// RecordStatus represents the lifecycle state of a payment record
type RecordStatus string

// StatusCompleted is the only record status this engine produces.
// Other states (refunds, reversals) belong to subsystems out of scope here.
const StatusCompleted RecordStatus = "COMPLETED"

// PaymentRecord is an immutable ledger row. A record linked to an invoice
// documents money applied to that invoice; a record with a nil invoice
// reference documents unlinked advance credit held for a vehicle.
// Corrections are modeled as soft deletion, never in-place updates.
type PaymentRecord struct {
	shared.BaseEntity
	InvoiceID       *uuid.UUID
	VehicleID       uuid.UUID
	PaymentMethodID uuid.UUID
	Amount          valueobject.Money
	Status          RecordStatus
	TransactionRef  string
	Notes           string
	BranchID        uuid.UUID
	ProcessedBy     *uuid.UUID
	PaymentDate     time.Time
}

// NewPaymentRecord creates a record applied against a specific invoice
func NewPaymentRecord(invoiceID, vehicleID, methodID, branchID uuid.UUID, amount valueobject.Money, paymentDate time.Time) (*PaymentRecord, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice reference is required")
	}
	record, err := newRecord(vehicleID, methodID, branchID, amount, paymentDate)
	if err != nil {
		return nil, err
	}
	record.InvoiceID = &invoiceID
	return record, nil
}

// NewAdvanceRecord creates an unlinked credit record for a vehicle.
// The vehicle reference is mandatory: without an invoice it is the only
// attribute that ties the credit to anyone.
func NewAdvanceRecord(vehicleID, methodID, branchID uuid.UUID, amount valueobject.Money, paymentDate time.Time) (*PaymentRecord, error) {
	return newRecord(vehicleID, methodID, branchID, amount, paymentDate)
}

func newRecord(vehicleID, methodID, branchID uuid.UUID, amount valueobject.Money, paymentDate time.Time) (*PaymentRecord, error) {
	if vehicleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Vehicle reference is required")
	}
	if methodID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment method reference is required")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Branch reference is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	return &PaymentRecord{
		BaseEntity:      shared.NewBaseEntity(),
		VehicleID:       vehicleID,
		PaymentMethodID: methodID,
		Amount:          amount,
		Status:          StatusCompleted,
		BranchID:        branchID,
		PaymentDate:     paymentDate,
	}, nil
}

// WithTransactionRef sets the external transaction reference
func (r *PaymentRecord) WithTransactionRef(ref string) *PaymentRecord {
	r.TransactionRef = ref
	return r
}

// WithNotes sets free-text notes
func (r *PaymentRecord) WithNotes(notes string) *PaymentRecord {
	r.Notes = notes
	return r
}

// WithProcessedBy sets the actor who processed the payment
func (r *PaymentRecord) WithProcessedBy(actorID uuid.UUID) *PaymentRecord {
	if actorID != uuid.Nil {
		r.ProcessedBy = &actorID
	}
	return r
}

// IsAdvance returns true when the record is unlinked credit
func (r *PaymentRecord) IsAdvance() bool {
	return r.InvoiceID == nil
}
