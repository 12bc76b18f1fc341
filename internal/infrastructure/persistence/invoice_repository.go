package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/domain/shared"
	"github.com/autoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID retrieves an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return model.ToDomain(), nil
}

// FindOutstandingByVehicle retrieves all invoices of a vehicle that are not
// fully paid, oldest first
func (r *GormInvoiceRepository) FindOutstandingByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*billing.Invoice, error) {
	var modelList []models.InvoiceModel
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("vehicle_id = ? AND payment_status <> ?", vehicleID, billing.StatusPaid.String()).
		Order("created_at ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find outstanding invoices: %w", err)
	}

	invoices := make([]*billing.Invoice, 0, len(modelList))
	for i := range modelList {
		invoices = append(invoices, modelList[i].ToDomain())
	}
	return invoices, nil
}

// Save persists the invoice's payment state with an optimistic version check
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)

	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatus,
			"payment_date":   model.PaymentDate,
			"version":        model.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("invoice %s version %d: %w", model.ID, model.Version, shared.ErrConcurrencyConflict)
	}

	invoice.Version = model.Version + 1
	return nil
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
