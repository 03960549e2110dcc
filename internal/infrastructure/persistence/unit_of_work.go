package persistence

import (
	"context"

	"github.com/travelops/backend/internal/domain/payment"
	"gorm.io/gorm"
)

// GormPaymentUnitOfWork implements payment.UnitOfWork over a GORM
// transaction. The function receives a repository bound to the
// transaction handle; an error return rolls every write back.
type GormPaymentUnitOfWork struct {
	db *gorm.DB
}

// NewGormPaymentUnitOfWork creates a new GormPaymentUnitOfWork
func NewGormPaymentUnitOfWork(db *gorm.DB) *GormPaymentUnitOfWork {
	return &GormPaymentUnitOfWork{db: db}
}

// Execute runs fn inside a database transaction
func (u *GormPaymentUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repo payment.Repository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormPaymentRepository(tx))
	})
}

var _ payment.UnitOfWork = (*GormPaymentUnitOfWork)(nil)
