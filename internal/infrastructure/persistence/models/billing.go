package models

import (
	"time"

	"github.com/autoshop/backend/internal/domain/billing"
	"github.com/autoshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceModel is the persistence model for billing.Invoice
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentStatus string          `gorm:"type:varchar(16);not null;index"`
	PaymentDate   *time.Time
	VehicleID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	CustomerID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	BranchID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	invoice := &billing.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		TotalAmount:   valueobject.NewMoney(m.TotalAmount),
		PaymentStatus: billing.PaymentStatus(m.PaymentStatus),
		PaymentDate:   m.PaymentDate,
		VehicleID:     m.VehicleID,
		CustomerID:    m.CustomerID,
		BranchID:      m.BranchID,
	}
	invoice.ID = m.ID
	invoice.CreatedAt = m.CreatedAt
	invoice.UpdatedAt = m.UpdatedAt
	invoice.Version = m.Version
	return invoice
}

// InvoiceModelFromDomain converts the domain aggregate to the persistence model
func InvoiceModelFromDomain(invoice *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber: invoice.InvoiceNumber,
		TotalAmount:   invoice.TotalAmount.Amount(),
		PaymentStatus: invoice.PaymentStatus.String(),
		PaymentDate:   invoice.PaymentDate,
		VehicleID:     invoice.VehicleID,
		CustomerID:    invoice.CustomerID,
		BranchID:      invoice.BranchID,
	}
	m.FromDomainAggregateRoot(invoice.BaseAggregateRoot)
	return m
}

// PaymentRecordModel is the persistence model for billing.PaymentRecord
type PaymentRecordModel struct {
	BaseModel
	InvoiceID       *uuid.UUID      `gorm:"type:uuid;index"`
	VehicleID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentMethodID uuid.UUID       `gorm:"type:uuid;not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status          string          `gorm:"type:varchar(16);not null;index"`
	TransactionRef  string          `gorm:"type:varchar(128)"`
	Notes           string          `gorm:"type:text"`
	BranchID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProcessedBy     *uuid.UUID      `gorm:"type:uuid"`
	PaymentDate     time.Time       `gorm:"not null;index"`
	DeletedAt       gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for PaymentRecordModel
func (PaymentRecordModel) TableName() string {
	return "payment_records"
}

// ToDomain converts the persistence model to the domain entity
func (m *PaymentRecordModel) ToDomain() *billing.PaymentRecord {
	record := &billing.PaymentRecord{
		InvoiceID:       m.InvoiceID,
		VehicleID:       m.VehicleID,
		PaymentMethodID: m.PaymentMethodID,
		Amount:          valueobject.NewMoney(m.Amount),
		Status:          billing.RecordStatus(m.Status),
		TransactionRef:  m.TransactionRef,
		Notes:           m.Notes,
		BranchID:        m.BranchID,
		ProcessedBy:     m.ProcessedBy,
		PaymentDate:     m.PaymentDate,
	}
	record.ID = m.ID
	record.CreatedAt = m.CreatedAt
	record.UpdatedAt = m.UpdatedAt
	return record
}

// PaymentRecordModelFromDomain converts the domain entity to the persistence model
func PaymentRecordModelFromDomain(record *billing.PaymentRecord) *PaymentRecordModel {
	m := &PaymentRecordModel{
		InvoiceID:       record.InvoiceID,
		VehicleID:       record.VehicleID,
		PaymentMethodID: record.PaymentMethodID,
		Amount:          record.Amount.Amount(),
		Status:          string(record.Status),
		TransactionRef:  record.TransactionRef,
		Notes:           record.Notes,
		BranchID:        record.BranchID,
		ProcessedBy:     record.ProcessedBy,
		PaymentDate:     record.PaymentDate,
	}
	m.FromDomainBaseEntity(record.BaseEntity)
	return m
}

// VehicleModel is the read-only persistence model for the vehicles table.
// Vehicle master data is owned by another subsystem; this engine only
// checks existence.
type VehicleModel struct {
	BaseModel
	PlateNumber string         `gorm:"type:varchar(32);not null"`
	CustomerID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for VehicleModel
func (VehicleModel) TableName() string {
	return "vehicles"
}
