// Package billing provides the domain model for payment allocation and
// reconciliation in the vehicle service shop.
//
// This package implements the billing bounded context, which is responsible
// for:
//   - Deriving an invoice's payment status from its full payment history
//   - Allocating a single payment across multiple invoices, oldest first
//   - Holding excess money as unlinked advance credit attributed to a vehicle
//
// Key Aggregates:
//   - Invoice: Carries the immutable total and the derived payment status
//   - PaymentRecord: Append-only ledger row; a nil invoice reference marks
//     advance credit
//
// Payment records are never updated in place. Corrections are modeled as
// soft deletion, and every status transition is recomputed from the sum of
// the active records, so the ledger is always the source of truth.
package billing
