package billing

import (
	"context"

	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// InvoiceRepository provides persistence for invoices.
// All lookups exclude soft-deleted rows.
type InvoiceRepository interface {
	// FindByID returns the invoice or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindOutstandingByVehicle returns the vehicle's invoices that are not
	// fully paid, ordered oldest first
	FindOutstandingByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*Invoice, error)

	// Save persists status and payment date changes with an optimistic
	// version check; returns shared.ErrConcurrencyConflict on a stale version
	Save(ctx context.Context, invoice *Invoice) error
}

// PaymentRecordRepository provides persistence for payment records.
// Aggregate queries only count active rows with COMPLETED status.
type PaymentRecordRepository interface {
	// Create inserts a new record; records are never updated in place
	Create(ctx context.Context, record *PaymentRecord) error

	// SumCompletedByInvoice returns the cumulative amount applied to an
	// invoice, freshly aggregated from the store
	SumCompletedByInvoice(ctx context.Context, invoiceID uuid.UUID) (valueobject.Money, error)

	// SumAdvanceByVehicle returns the cumulative unlinked credit held for
	// a vehicle
	SumAdvanceByVehicle(ctx context.Context, vehicleID uuid.UUID) (valueobject.Money, error)

	// CountAdvanceByVehicle returns how many active advance records exist
	// for a vehicle
	CountAdvanceByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error)

	// FindAdvancesByVehicle returns the vehicle's active advance records,
	// newest first, with the total count for pagination
	FindAdvancesByVehicle(ctx context.Context, vehicleID uuid.UUID, filter shared.Filter) ([]*PaymentRecord, int64, error)
}

// VehicleDirectory is the read-only collaborator used to verify that a
// vehicle exists before attributing credit to it
type VehicleDirectory interface {
	Exists(ctx context.Context, vehicleID uuid.UUID) (bool, error)
}

// TransactionManager scopes a function to a single storage transaction.
// Repository calls made with the context passed to fn observe each other's
// writes and commit or roll back together.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
