package persistence

import (
	"context"

	"github.com/autoshop/backend/internal/domain/billing"
	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactionManager implements billing.TransactionManager by carrying
// the transactional *gorm.DB in the context. Repositories resolve their
// handle through dbFromContext, so calls made inside WithinTransaction share
// the transaction and see each other's uncommitted writes.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn inside a single database transaction
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFromContext returns the transactional handle when one is active,
// otherwise the repository's own connection
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

var _ billing.TransactionManager = (*GormTransactionManager)(nil)
