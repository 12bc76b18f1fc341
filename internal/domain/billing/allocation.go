package billing

import (
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AllocationTarget is one invoice considered for allocation, identified by id
// and its currently pending balance. Callers pass targets oldest-first.
type AllocationTarget struct {
	InvoiceID      uuid.UUID
	PendingBalance valueobject.Money
}

// Allocation is the amount assigned to a single invoice
type Allocation struct {
	InvoiceID uuid.UUID
	Applied   valueobject.Money
}

// AllocationResult is the outcome of distributing a payment across targets.
// TotalAllocated plus Leftover always equals the input total.
type AllocationResult struct {
	Allocations    []Allocation
	TotalAllocated valueobject.Money
	Leftover       valueobject.Money
}

// AllocatePayment distributes a payment total across invoices in the order
// given. Each invoice receives the smaller of the remaining payment and its
// pending balance; invoices whose pending balance is already covered get no
// allocation entry. Whatever cannot be applied to any target is returned as
// Leftover for the caller to convert into advance credit.
func AllocatePayment(total valueobject.Money, targets []AllocationTarget) (*AllocationResult, error) {
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment total must be positive")
	}
	for _, target := range targets {
		if target.PendingBalance.IsNegative() {
			return nil, shared.NewDomainError("INVALID_BALANCE", "Pending balance cannot be negative")
		}
	}

	result := &AllocationResult{
		Allocations:    make([]Allocation, 0, len(targets)),
		TotalAllocated: valueobject.Zero(),
	}

	remaining := total
	for _, target := range targets {
		if !remaining.IsPositive() {
			break
		}

		applied := valueobject.Min(remaining, target.PendingBalance)
		if !applied.IsPositive() {
			continue
		}

		result.Allocations = append(result.Allocations, Allocation{
			InvoiceID: target.InvoiceID,
			Applied:   applied,
		})
		result.TotalAllocated = result.TotalAllocated.Add(applied)
		remaining = remaining.Subtract(applied)
	}

	result.Leftover = remaining
	return result, nil
}
