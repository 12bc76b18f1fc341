package persistence

import (
	"context"
	"fmt"

	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/autoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRecordRepository implements billing.PaymentRecordRepository using GORM
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewGormPaymentRecordRepository creates a new GormPaymentRecordRepository
func NewGormPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// Create persists a new payment record
func (r *GormPaymentRecordRepository) Create(ctx context.Context, record *billing.PaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(record)
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	return nil
}

// SumCompletedByInvoice returns the sum of all active completed payment
// record amounts of the invoice. Soft-deleted records are excluded by GORM.
func (r *GormPaymentRecordRepository) SumCompletedByInvoice(ctx context.Context, invoiceID uuid.UUID) (valueobject.Money, error) {
	var total decimal.Decimal
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("invoice_id = ? AND status = ?", invoiceID, string(billing.StatusCompleted)).
		Scan(&total).Error
	if err != nil {
		return valueobject.Zero(), fmt.Errorf("failed to sum invoice payments: %w", err)
	}
	return valueobject.NewMoney(total), nil
}

// SumAdvanceByVehicle returns the sum of all active advance record amounts
// of the vehicle
func (r *GormPaymentRecordRepository) SumAdvanceByVehicle(ctx context.Context, vehicleID uuid.UUID) (valueobject.Money, error) {
	var total decimal.Decimal
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("vehicle_id = ? AND invoice_id IS NULL AND status = ?", vehicleID, string(billing.StatusCompleted)).
		Scan(&total).Error
	if err != nil {
		return valueobject.Zero(), fmt.Errorf("failed to sum advances: %w", err)
	}
	return valueobject.NewMoney(total), nil
}

// CountAdvanceByVehicle returns the number of active advance records of
// the vehicle
func (r *GormPaymentRecordRepository) CountAdvanceByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	var count int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("vehicle_id = ? AND invoice_id IS NULL AND status = ?", vehicleID, string(billing.StatusCompleted)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count advances: %w", err)
	}
	return count, nil
}

// FindAdvancesByVehicle retrieves the vehicle's advance records newest
// first, with the total count for pagination
func (r *GormPaymentRecordRepository) FindAdvancesByVehicle(ctx context.Context, vehicleID uuid.UUID, filter shared.Filter) ([]*billing.PaymentRecord, int64, error) {
	db := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("vehicle_id = ? AND invoice_id IS NULL", vehicleID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count advance records: %w", err)
	}

	var modelList []models.PaymentRecordModel
	err := db.
		Order("payment_date DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&modelList).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find advance records: %w", err)
	}

	records := make([]*billing.PaymentRecord, 0, len(modelList))
	for i := range modelList {
		records = append(records, modelList[i].ToDomain())
	}
	return records, total, nil
}

var _ billing.PaymentRecordRepository = (*GormPaymentRecordRepository)(nil)
