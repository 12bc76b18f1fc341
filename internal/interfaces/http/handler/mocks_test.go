package handler

import (
	"context"

	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindOutstandingByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*billing.Invoice, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

type mockPaymentRecordRepository struct {
	mock.Mock
}

func (m *mockPaymentRecordRepository) Create(ctx context.Context, record *billing.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockPaymentRecordRepository) SumCompletedByInvoice(ctx context.Context, invoiceID uuid.UUID) (valueobject.Money, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(valueobject.Money), args.Error(1)
}

func (m *mockPaymentRecordRepository) SumAdvanceByVehicle(ctx context.Context, vehicleID uuid.UUID) (valueobject.Money, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(valueobject.Money), args.Error(1)
}

func (m *mockPaymentRecordRepository) CountAdvanceByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPaymentRecordRepository) FindAdvancesByVehicle(ctx context.Context, vehicleID uuid.UUID, filter shared.Filter) ([]*billing.PaymentRecord, int64, error) {
	args := m.Called(ctx, vehicleID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*billing.PaymentRecord), args.Get(1).(int64), args.Error(2)
}

type mockVehicleDirectory struct {
	mock.Mock
}

func (m *mockVehicleDirectory) Exists(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	args := m.Called(ctx, vehicleID)
	return args.Bool(0), args.Error(1)
}

type passthroughTxManager struct{}

func (passthroughTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
