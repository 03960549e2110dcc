package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/payment"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newUnitOfWorkTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&payment.Payment{}, &payment.Allocation{}))
	return db
}

func newStoredPayment(t *testing.T, db *gorm.DB, tenantID uuid.UUID, amount int64) *payment.Payment {
	p, err := payment.NewPayment(
		tenantID,
		party.RoleCustomer,
		uuid.New(),
		valueobject.NewMoney(decimal.NewFromInt(amount), valueobject.DefaultCurrency),
		valueobject.EntryTypeCredit,
		payment.MethodBankTransfer,
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, NewGormPaymentRepository(db).Save(context.Background(), p))
	return p
}

func TestGormPaymentUnitOfWork_CommitsOnSuccess(t *testing.T) {
	db := newUnitOfWorkTestDB(t)
	tenantID := uuid.New()
	stored := newStoredPayment(t, db, tenantID, 1000)
	quotationID := uuid.New()

	uow := NewGormPaymentUnitOfWork(db)
	err := uow.Execute(context.Background(), func(ctx context.Context, repo payment.Repository) error {
		p, err := repo.FindByIDForUpdate(ctx, tenantID, stored.ID)
		if err != nil {
			return err
		}
		if _, err := p.Allocate(quotationID, decimal.NewFromInt(400), time.Time{}, ""); err != nil {
			return err
		}
		return repo.Save(ctx, p)
	})
	require.NoError(t, err)

	reloaded, err := NewGormPaymentRepository(db).FindByID(context.Background(), tenantID, stored.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Allocations, 1)
	assert.True(t, reloaded.AllocatedAmount.Equal(decimal.NewFromInt(400)))
	assert.True(t, reloaded.UnallocatedAmount.Equal(decimal.NewFromInt(600)))
}

func TestGormPaymentUnitOfWork_RollsBackOnError(t *testing.T) {
	db := newUnitOfWorkTestDB(t)
	tenantID := uuid.New()
	first := newStoredPayment(t, db, tenantID, 1000)
	second := newStoredPayment(t, db, tenantID, 100)
	quotationID := uuid.New()

	// the second allocation exceeds the second payment's remainder, so
	// the first payment's already-saved allocation must not survive
	uow := NewGormPaymentUnitOfWork(db)
	err := uow.Execute(context.Background(), func(ctx context.Context, repo payment.Repository) error {
		for _, id := range []uuid.UUID{first.ID, second.ID} {
			p, err := repo.FindByIDForUpdate(ctx, tenantID, id)
			if err != nil {
				return err
			}
			if _, err := p.Allocate(quotationID, decimal.NewFromInt(500), time.Time{}, ""); err != nil {
				return err
			}
			if err := repo.Save(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	reloaded, err := NewGormPaymentRepository(db).FindByID(context.Background(), tenantID, first.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Allocations)
	assert.True(t, reloaded.AllocatedAmount.IsZero())
	assert.True(t, reloaded.UnallocatedAmount.Equal(decimal.NewFromInt(1000)))
}
