package persistence

import (
	"context"
	"fmt"

	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVehicleDirectory implements billing.VehicleDirectory against the
// vehicles table owned by the workshop subsystem
type GormVehicleDirectory struct {
	db *gorm.DB
}

// NewGormVehicleDirectory creates a new GormVehicleDirectory
func NewGormVehicleDirectory(db *gorm.DB) *GormVehicleDirectory {
	return &GormVehicleDirectory{db: db}
}

// Exists reports whether the vehicle is present and not soft-deleted
func (d *GormVehicleDirectory) Exists(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	var count int64
	err := dbFromContext(ctx, d.db).WithContext(ctx).
		Model(&models.VehicleModel{}).
		Where("id = ?", vehicleID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check vehicle existence: %w", err)
	}
	return count > 0, nil
}

var _ billing.VehicleDirectory = (*GormVehicleDirectory)(nil)
