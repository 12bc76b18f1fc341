package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/autoshop/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func money(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyFromString(s)
	require.NoError(t, err)
	return m
}

func createTestInvoice(t *testing.T, total string) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice("INV-2025-0042", money(t, total), uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)
	return inv
}

func newPaymentService(invoiceRepo *MockInvoiceRepository, recordRepo *MockPaymentRecordRepository) *PaymentService {
	return NewPaymentService(invoiceRepo, recordRepo, passthroughTxManager{})
}

func TestApplyPayment_FirstPartialPayment(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoice := createTestInvoice(t, "1000.00")
	invoiceRepo.On("FindByID", mock.Anything, invoice.GetID()).Return(invoice, nil)
	recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.PaymentRecord")).Return(nil)
	recordRepo.On("SumCompletedByInvoice", mock.Anything, invoice.GetID()).Return(money(t, "400.00"), nil)
	invoiceRepo.On("Save", mock.Anything, invoice).Return(nil)

	result, err := service.ApplyPayment(context.Background(), ApplyPaymentRequest{
		InvoiceID:       invoice.GetID(),
		Amount:          money(t, "400.00"),
		PaymentMethodID: uuid.New(),
		PaymentDate:     time.Now(),
	})

	require.NoError(t, err)
	assert.Equal(t, billing.StatusPartial, result.NewStatus)
	assert.True(t, result.RecordedAmount.Equals(money(t, "400.00")))
	assert.True(t, result.Excess.IsZero())
	assert.True(t, result.TotalPaid.Equals(money(t, "400.00")))
	assert.True(t, result.RecordWritten)
	assert.NotEqual(t, uuid.Nil, result.PaymentRecordID)

	invoiceRepo.AssertExpectations(t)
	recordRepo.AssertExpectations(t)
}

func TestApplyPayment_SecondPaymentSettlesFromHistory(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoice := createTestInvoice(t, "1000.00")
	invoice.RefreshPaymentStatus(money(t, "400.00"), time.Now())
	invoice.ClearDomainEvents()
	require.Equal(t, billing.StatusPartial, invoice.PaymentStatus)

	invoiceRepo.On("FindByID", mock.Anything, invoice.GetID()).Return(invoice, nil)
	recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.PaymentRecord")).Return(nil)
	// The fresh sum includes the prior partial and the new record
	recordRepo.On("SumCompletedByInvoice", mock.Anything, invoice.GetID()).Return(money(t, "1000.00"), nil)
	invoiceRepo.On("Save", mock.Anything, invoice).Return(nil)

	result, err := service.ApplyPayment(context.Background(), ApplyPaymentRequest{
		InvoiceID:       invoice.GetID(),
		Amount:          money(t, "600.00"),
		PaymentMethodID: uuid.New(),
		PaymentDate:     time.Now(),
	})

	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, result.NewStatus)
	assert.True(t, result.TotalPaid.Equals(money(t, "1000.00")))

	invoiceRepo.AssertExpectations(t)
	recordRepo.AssertExpectations(t)
}

func TestApplyPayment_CapsRecordedAmountAtInvoiceTotal(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoice := createTestInvoice(t, "1290.00")
	invoiceRepo.On("FindByID", mock.Anything, invoice.GetID()).Return(invoice, nil)
	recordRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *billing.PaymentRecord) bool {
		return r.Amount.Equals(money(t, "1290.00")) && !r.IsAdvance()
	})).Return(nil)
	recordRepo.On("SumCompletedByInvoice", mock.Anything, invoice.GetID()).Return(money(t, "1290.00"), nil)
	invoiceRepo.On("Save", mock.Anything, invoice).Return(nil)

	result, err := service.ApplyPayment(context.Background(), ApplyPaymentRequest{
		InvoiceID:       invoice.GetID(),
		Amount:          money(t, "2290.00"),
		PaymentMethodID: uuid.New(),
		PaymentDate:     time.Now(),
	})

	require.NoError(t, err)
	assert.True(t, result.RecordedAmount.Equals(money(t, "1290.00")))
	assert.True(t, result.Excess.Equals(money(t, "1000.00")), "excess must be surfaced, not discarded")
	assert.Equal(t, billing.StatusPaid, result.NewStatus)

	recordRepo.AssertExpectations(t)
}

func TestApplyPayment_InvalidAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"zero", "0.00"},
		{"negative", "-100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoiceRepo := new(MockInvoiceRepository)
			recordRepo := new(MockPaymentRecordRepository)
			service := newPaymentService(invoiceRepo, recordRepo)

			result, err := service.ApplyPayment(context.Background(), ApplyPaymentRequest{
				InvoiceID: uuid.New(),
				Amount:    money(t, tt.amount),
			})

			require.Error(t, err)
			assert.Nil(t, result)

			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)

			invoiceRepo.AssertNotCalled(t, "FindByID")
			recordRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestApplyPayment_InvoiceNotFound(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoiceID := uuid.New()
	invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(nil, shared.ErrNotFound)

	result, err := service.ApplyPayment(context.Background(), ApplyPaymentRequest{
		InvoiceID: invoiceID,
		Amount:    money(t, "100.00"),
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	recordRepo.AssertNotCalled(t, "Create")
}

func TestApplyPayment_RecordInsertFails(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoice := createTestInvoice(t, "1000.00")
	invoiceRepo.On("FindByID", mock.Anything, invoice.GetID()).Return(invoice, nil)
	recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.PaymentRecord")).Return(errors.New("connection reset"))

	result, err := service.ApplyPayment(context.Background(), ApplyPaymentRequest{
		InvoiceID: invoice.GetID(),
		Amount:    money(t, "100.00"),
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to create payment record")
	// The status update never runs when the record insert failed
	invoiceRepo.AssertNotCalled(t, "Save")
	assert.Equal(t, billing.StatusUnpaid, invoice.PaymentStatus)
}

func TestApplyPayment_StatusSaveFails_NoPartialResult(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoice := createTestInvoice(t, "1000.00")
	invoiceRepo.On("FindByID", mock.Anything, invoice.GetID()).Return(invoice, nil)
	recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.PaymentRecord")).Return(nil)
	recordRepo.On("SumCompletedByInvoice", mock.Anything, invoice.GetID()).Return(money(t, "100.00"), nil)
	invoiceRepo.On("Save", mock.Anything, invoice).Return(shared.ErrConcurrencyConflict)

	result, err := service.ApplyPayment(context.Background(), ApplyPaymentRequest{
		InvoiceID: invoice.GetID(),
		Amount:    money(t, "100.00"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	// The whole transaction rolls back, so no partial result may suggest
	// that the record survived
	assert.Nil(t, result)
}

func TestApplyPayment_LogsPaymentRecordedEvent(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoice := createTestInvoice(t, "1000.00")
	invoiceRepo.On("FindByID", mock.Anything, invoice.GetID()).Return(invoice, nil)
	recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.PaymentRecord")).Return(nil)
	recordRepo.On("SumCompletedByInvoice", mock.Anything, invoice.GetID()).Return(money(t, "400.00"), nil)
	invoiceRepo.On("Save", mock.Anything, invoice).Return(nil)

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	_, err := service.ApplyPayment(ctx, ApplyPaymentRequest{
		InvoiceID:       invoice.GetID(),
		Amount:          money(t, "400.00"),
		PaymentMethodID: uuid.New(),
		PaymentDate:     time.Now(),
	})
	require.NoError(t, err)

	var eventTypes []string
	for _, entry := range logs.FilterMessage("Domain event").All() {
		eventTypes = append(eventTypes, entry.ContextMap()["event_type"].(string))
	}
	assert.Contains(t, eventTypes, billing.EventPaymentRecorded)
	assert.Contains(t, eventTypes, billing.EventInvoiceStatusChanged)
}

func TestRecomputeStatus_RepairsStaleStatus(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoice := createTestInvoice(t, "1000.00")
	invoiceRepo.On("FindByID", mock.Anything, invoice.GetID()).Return(invoice, nil)
	recordRepo.On("SumCompletedByInvoice", mock.Anything, invoice.GetID()).Return(money(t, "1000.00"), nil)
	invoiceRepo.On("Save", mock.Anything, invoice).Return(nil)

	result, err := service.RecomputeStatus(context.Background(), invoice.GetID())

	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, billing.StatusPaid, result.Status)
	invoiceRepo.AssertExpectations(t)
}

func TestRecomputeStatus_NoChangeSkipsSave(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoice := createTestInvoice(t, "1000.00")
	invoiceRepo.On("FindByID", mock.Anything, invoice.GetID()).Return(invoice, nil)
	recordRepo.On("SumCompletedByInvoice", mock.Anything, invoice.GetID()).Return(valueobject.Zero(), nil)

	result, err := service.RecomputeStatus(context.Background(), invoice.GetID())

	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, billing.StatusUnpaid, result.Status)
	invoiceRepo.AssertNotCalled(t, "Save")
}

func TestRecomputeStatus_Idempotent(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	recordRepo := new(MockPaymentRecordRepository)
	service := newPaymentService(invoiceRepo, recordRepo)

	invoice := createTestInvoice(t, "1000.00")
	invoiceRepo.On("FindByID", mock.Anything, invoice.GetID()).Return(invoice, nil)
	recordRepo.On("SumCompletedByInvoice", mock.Anything, invoice.GetID()).Return(money(t, "400.00"), nil)
	invoiceRepo.On("Save", mock.Anything, invoice).Return(nil).Once()

	first, err := service.RecomputeStatus(context.Background(), invoice.GetID())
	require.NoError(t, err)
	assert.True(t, first.Changed)

	second, err := service.RecomputeStatus(context.Background(), invoice.GetID())
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Status, second.Status)
}
