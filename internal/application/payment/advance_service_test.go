package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecordAdvance_Success(t *testing.T) {
	recordRepo := new(MockPaymentRecordRepository)
	vehicles := new(MockVehicleDirectory)
	service := NewAdvanceService(recordRepo, vehicles)

	vehicleID := uuid.New()
	vehicles.On("Exists", mock.Anything, vehicleID).Return(true, nil)
	recordRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *billing.PaymentRecord) bool {
		return r.IsAdvance() && r.VehicleID == vehicleID && r.Amount.Equals(money(t, "1000.00"))
	})).Return(nil)

	result, err := service.RecordAdvance(context.Background(), RecordAdvanceRequest{
		VehicleID:       vehicleID,
		Amount:          money(t, "1000.00"),
		PaymentMethodID: uuid.New(),
		BranchID:        uuid.New(),
		PaymentDate:     time.Now(),
		Notes:           "overpayment on INV-2025-0042",
	})

	require.NoError(t, err)
	assert.Equal(t, vehicleID, result.VehicleID)
	assert.True(t, result.Amount.Equals(money(t, "1000.00")))
	assert.NotEqual(t, uuid.Nil, result.PaymentRecordID)

	vehicles.AssertExpectations(t)
	recordRepo.AssertExpectations(t)
}

func TestRecordAdvance_LogsAdvanceRecordedEvent(t *testing.T) {
	recordRepo := new(MockPaymentRecordRepository)
	vehicles := new(MockVehicleDirectory)
	service := NewAdvanceService(recordRepo, vehicles)

	vehicleID := uuid.New()
	vehicles.On("Exists", mock.Anything, vehicleID).Return(true, nil)
	recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.PaymentRecord")).Return(nil)

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	_, err := service.RecordAdvance(ctx, RecordAdvanceRequest{
		VehicleID:       vehicleID,
		Amount:          money(t, "150.00"),
		PaymentMethodID: uuid.New(),
		BranchID:        uuid.New(),
		PaymentDate:     time.Now(),
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("Domain event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, billing.EventAdvanceRecorded, entries[0].ContextMap()["event_type"])
	assert.Equal(t, "PaymentRecord", entries[0].ContextMap()["aggregate_type"])
}

func TestRecordAdvance_InvalidAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"zero", "0.00"},
		{"negative", "-1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recordRepo := new(MockPaymentRecordRepository)
			vehicles := new(MockVehicleDirectory)
			service := NewAdvanceService(recordRepo, vehicles)

			result, err := service.RecordAdvance(context.Background(), RecordAdvanceRequest{
				VehicleID: uuid.New(),
				Amount:    money(t, tt.amount),
			})

			require.Error(t, err)
			assert.Nil(t, result)

			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)

			// Rejected before any lookup or write
			vehicles.AssertNotCalled(t, "Exists")
			recordRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestRecordAdvance_VehicleNotFound(t *testing.T) {
	recordRepo := new(MockPaymentRecordRepository)
	vehicles := new(MockVehicleDirectory)
	service := NewAdvanceService(recordRepo, vehicles)

	vehicleID := uuid.New()
	vehicles.On("Exists", mock.Anything, vehicleID).Return(false, nil)

	result, err := service.RecordAdvance(context.Background(), RecordAdvanceRequest{
		VehicleID: vehicleID,
		Amount:    money(t, "50.00"),
	})

	require.Error(t, err)
	assert.Nil(t, result)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	recordRepo.AssertNotCalled(t, "Create")
}

func TestRecordAdvance_MissingVehicleReference(t *testing.T) {
	recordRepo := new(MockPaymentRecordRepository)
	vehicles := new(MockVehicleDirectory)
	service := NewAdvanceService(recordRepo, vehicles)

	result, err := service.RecordAdvance(context.Background(), RecordAdvanceRequest{
		VehicleID: uuid.Nil,
		Amount:    money(t, "50.00"),
	})

	require.Error(t, err)
	assert.Nil(t, result)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestRecordAdvance_CreateFails(t *testing.T) {
	recordRepo := new(MockPaymentRecordRepository)
	vehicles := new(MockVehicleDirectory)
	service := NewAdvanceService(recordRepo, vehicles)

	vehicleID := uuid.New()
	vehicles.On("Exists", mock.Anything, vehicleID).Return(true, nil)
	recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.PaymentRecord")).Return(errors.New("disk full"))

	result, err := service.RecordAdvance(context.Background(), RecordAdvanceRequest{
		VehicleID:       vehicleID,
		Amount:          money(t, "50.00"),
		PaymentMethodID: uuid.New(),
		BranchID:        uuid.New(),
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to create advance record")
}

func TestGetBalance_DerivedFromRecords(t *testing.T) {
	recordRepo := new(MockPaymentRecordRepository)
	vehicles := new(MockVehicleDirectory)
	service := NewAdvanceService(recordRepo, vehicles)

	vehicleID := uuid.New()
	recordRepo.On("SumAdvanceByVehicle", mock.Anything, vehicleID).Return(money(t, "150.00"), nil)
	recordRepo.On("CountAdvanceByVehicle", mock.Anything, vehicleID).Return(int64(2), nil)

	result, err := service.GetBalance(context.Background(), vehicleID)

	require.NoError(t, err)
	assert.True(t, result.Balance.Equals(money(t, "150.00")))
	assert.Equal(t, int64(2), result.RecordCount)
	recordRepo.AssertExpectations(t)
}

func TestGetBalance_NoRecords(t *testing.T) {
	recordRepo := new(MockPaymentRecordRepository)
	vehicles := new(MockVehicleDirectory)
	service := NewAdvanceService(recordRepo, vehicles)

	vehicleID := uuid.New()
	recordRepo.On("SumAdvanceByVehicle", mock.Anything, vehicleID).Return(money(t, "0"), nil)
	recordRepo.On("CountAdvanceByVehicle", mock.Anything, vehicleID).Return(int64(0), nil)

	result, err := service.GetBalance(context.Background(), vehicleID)

	require.NoError(t, err)
	assert.True(t, result.Balance.IsZero())
	assert.Equal(t, int64(0), result.RecordCount)
}

func TestGetTransactions_NewestFirst(t *testing.T) {
	recordRepo := new(MockPaymentRecordRepository)
	vehicles := new(MockVehicleDirectory)
	service := NewAdvanceService(recordRepo, vehicles)

	vehicleID := uuid.New()
	newer, err := billing.NewAdvanceRecord(vehicleID, uuid.New(), uuid.New(), money(t, "50.00"), time.Now())
	require.NoError(t, err)
	older, err := billing.NewAdvanceRecord(vehicleID, uuid.New(), uuid.New(), money(t, "100.00"), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	filter := shared.DefaultFilter()
	recordRepo.On("FindAdvancesByVehicle", mock.Anything, vehicleID, filter).
		Return([]*billing.PaymentRecord{newer, older}, int64(2), nil)

	result, err := service.GetTransactions(context.Background(), vehicleID, filter)

	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, newer.GetID(), result.Records[0].GetID())
	assert.Equal(t, int64(2), result.Total)
}
