package payment

import (
	"context"

	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstandingByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*billing.Invoice, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockPaymentRecordRepository is a mock implementation of billing.PaymentRecordRepository
type MockPaymentRecordRepository struct {
	mock.Mock
}

func (m *MockPaymentRecordRepository) Create(ctx context.Context, record *billing.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPaymentRecordRepository) SumCompletedByInvoice(ctx context.Context, invoiceID uuid.UUID) (valueobject.Money, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(valueobject.Money), args.Error(1)
}

func (m *MockPaymentRecordRepository) SumAdvanceByVehicle(ctx context.Context, vehicleID uuid.UUID) (valueobject.Money, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(valueobject.Money), args.Error(1)
}

func (m *MockPaymentRecordRepository) CountAdvanceByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindAdvancesByVehicle(ctx context.Context, vehicleID uuid.UUID, filter shared.Filter) ([]*billing.PaymentRecord, int64, error) {
	args := m.Called(ctx, vehicleID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*billing.PaymentRecord), args.Get(1).(int64), args.Error(2)
}

// MockVehicleDirectory is a mock implementation of billing.VehicleDirectory
type MockVehicleDirectory struct {
	mock.Mock
}

func (m *MockVehicleDirectory) Exists(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	args := m.Called(ctx, vehicleID)
	return args.Bool(0), args.Error(1)
}

// passthroughTxManager runs the function directly; the transactional
// behavior itself is covered by the persistence layer tests
type passthroughTxManager struct{}

func (passthroughTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
