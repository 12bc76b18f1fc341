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

// AdvanceService manages unlinked credit held per vehicle. Balances are
// always derived from the active advance records, never cached.
type AdvanceService struct {
	recordRepo billing.PaymentRecordRepository
	vehicles   billing.VehicleDirectory
}

// NewAdvanceService creates a new AdvanceService
func NewAdvanceService(recordRepo billing.PaymentRecordRepository, vehicles billing.VehicleDirectory) *AdvanceService {
	return &AdvanceService{
		recordRepo: recordRepo,
		vehicles:   vehicles,
	}
}

// RecordAdvanceRequest represents a request to record unlinked credit
type RecordAdvanceRequest struct {
	VehicleID       uuid.UUID
	Amount          valueobject.Money
	PaymentMethodID uuid.UUID
	BranchID        uuid.UUID
	PaymentDate     time.Time
	TransactionRef  string
	Notes           string
	ProcessedBy     *uuid.UUID
}

// RecordAdvanceResult represents the outcome of recording an advance
type RecordAdvanceResult struct {
	PaymentRecordID uuid.UUID         `json:"payment_record_id"`
	VehicleID       uuid.UUID         `json:"vehicle_id"`
	Amount          valueobject.Money `json:"amount"`
}

// RecordAdvance persists an unlinked payment record for a vehicle. The
// vehicle must exist: advance credit is only meaningful when it can be
// attributed to a real vehicle.
func (s *AdvanceService) RecordAdvance(ctx context.Context, req RecordAdvanceRequest) (*RecordAdvanceResult, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Advance amount must be positive")
	}
	if req.VehicleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Vehicle reference is required")
	}

	exists, err := s.vehicles.Exists(ctx, req.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check vehicle: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("NOT_FOUND", "Vehicle not found")
	}

	record, err := billing.NewAdvanceRecord(req.VehicleID, req.PaymentMethodID, req.BranchID, req.Amount, req.PaymentDate)
	if err != nil {
		return nil, err
	}
	record.WithTransactionRef(req.TransactionRef).WithNotes(req.Notes)
	if req.ProcessedBy != nil {
		record.WithProcessedBy(*req.ProcessedBy)
	}

	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create advance record: %w", err)
	}

	logEvent(ctx, billing.NewAdvanceRecordedEvent(record.GetID(), record.VehicleID, record.Amount))
	logger.FromContext(ctx).Info("Advance credit recorded",
		zap.String("vehicle_id", req.VehicleID.String()),
		zap.String("amount", req.Amount.String()),
	)

	return &RecordAdvanceResult{
		PaymentRecordID: record.GetID(),
		VehicleID:       record.VehicleID,
		Amount:          record.Amount,
	}, nil
}

// AdvanceBalanceResult represents a vehicle's current advance position
type AdvanceBalanceResult struct {
	VehicleID   uuid.UUID         `json:"vehicle_id"`
	Balance     valueobject.Money `json:"balance"`
	RecordCount int64             `json:"record_count"`
}

// GetBalance returns the vehicle's advance balance, freshly summed from the
// active unlinked records
func (s *AdvanceService) GetBalance(ctx context.Context, vehicleID uuid.UUID) (*AdvanceBalanceResult, error) {
	if vehicleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Vehicle reference is required")
	}

	balance, err := s.recordRepo.SumAdvanceByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum advance records: %w", err)
	}

	count, err := s.recordRepo.CountAdvanceByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to count advance records: %w", err)
	}

	return &AdvanceBalanceResult{
		VehicleID:   vehicleID,
		Balance:     balance,
		RecordCount: count,
	}, nil
}

// AdvanceTransactionsResult represents a page of advance records
type AdvanceTransactionsResult struct {
	VehicleID uuid.UUID                `json:"vehicle_id"`
	Records   []*billing.PaymentRecord `json:"records"`
	Total     int64                    `json:"total"`
}

// GetTransactions returns the vehicle's active advance records, newest first
func (s *AdvanceService) GetTransactions(ctx context.Context, vehicleID uuid.UUID, filter shared.Filter) (*AdvanceTransactionsResult, error) {
	if vehicleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Vehicle reference is required")
	}

	records, total, err := s.recordRepo.FindAdvancesByVehicle(ctx, vehicleID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list advance records: %w", err)
	}

	return &AdvanceTransactionsResult{
		VehicleID: vehicleID,
		Records:   records,
		Total:     total,
	}, nil
}
