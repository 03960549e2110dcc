package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockPaymentRepository creates a GormPaymentRepository with a mocked SQL connection
func newMockPaymentRepository(t *testing.T) (*GormPaymentRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPaymentRepository(gormDB), mock, mockDB
}

func TestGormPaymentRepository_FindByID(t *testing.T) {
	t.Run("finds payment and preloads allocations", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()
		tenantID := uuid.New()
		partyID := uuid.New()
		quotationID := uuid.New()
		now := time.Now()

		paymentRows := sqlmock.NewRows([]string{
			"id", "tenant_id", "party_role", "party_id", "amount", "entry_type",
			"allocated_amount", "unallocated_amount", "currency", "method", "payment_date",
		}).AddRow(
			paymentID, tenantID, "customer", partyID, decimal.NewFromInt(1000), "credit",
			decimal.NewFromInt(400), decimal.NewFromInt(600), "USD", "bank_transfer", now,
		)
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE \(id = \$1 AND tenant_id = \$2\) AND "payments"\."deleted_at" IS NULL ORDER BY .* LIMIT .*`).
			WithArgs(paymentID, tenantID, 1).
			WillReturnRows(paymentRows)

		allocationRows := sqlmock.NewRows([]string{
			"id", "payment_id", "quotation_id", "amount", "amount_type", "applied_at",
		}).AddRow(uuid.New(), paymentID, quotationID, decimal.NewFromInt(400), "selling", now)
		mock.ExpectQuery(`SELECT \* FROM "payment_allocations" WHERE "payment_allocations"\."payment_id" = \$1`).
			WithArgs(paymentID).
			WillReturnRows(allocationRows)

		p, err := repo.FindByID(context.Background(), tenantID, paymentID)

		require.NoError(t, err)
		assert.Equal(t, paymentID, p.ID)
		assert.Equal(t, party.RoleCustomer, p.PartyRole)
		require.Len(t, p.Allocations, 1)
		assert.True(t, p.Allocations[0].Amount.Equal(decimal.NewFromInt(400)))
		assert.True(t, p.UnallocatedAmount.Equal(decimal.NewFromInt(600)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not-found for missing payment", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments"`).
			WithArgs(paymentID, tenantID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), tenantID, paymentID)

		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_FindByIDForUpdate(t *testing.T) {
	repo, mock, mockDB := newMockPaymentRepository(t)
	defer mockDB.Close()

	paymentID := uuid.New()
	tenantID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "party_role", "party_id", "amount", "entry_type",
		"allocated_amount", "unallocated_amount", "currency", "method", "payment_date",
	}).AddRow(
		paymentID, tenantID, "customer", uuid.New(), decimal.NewFromInt(500), "credit",
		decimal.Zero, decimal.NewFromInt(500), "USD", "cash", time.Now(),
	)

	// the row lock clause must be present
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE .* FOR UPDATE`).
		WithArgs(paymentID, tenantID, 1).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT \* FROM "payment_allocations"`).
		WithArgs(paymentID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "quotation_id", "amount", "amount_type", "applied_at"}))

	p, err := repo.FindByIDForUpdate(context.Background(), tenantID, paymentID)

	require.NoError(t, err)
	assert.Equal(t, paymentID, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPaymentRepository_SumAllocationsByQuotation(t *testing.T) {
	repo, mock, mockDB := newMockPaymentRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	partyID := uuid.New()
	q1 := uuid.New()
	q2 := uuid.New()

	rows := sqlmock.NewRows([]string{"quotation_id", "total"}).
		AddRow(q1, decimal.NewFromInt(700)).
		AddRow(q2, decimal.NewFromInt(250))

	mock.ExpectQuery(`SELECT payment_allocations\.quotation_id AS quotation_id, SUM\(payment_allocations\.amount\) AS total FROM "payment_allocations" JOIN payments ON payments\.id = payment_allocations\.payment_id WHERE .* GROUP BY .*`).
		WithArgs(tenantID, "customer", partyID).
		WillReturnRows(rows)

	sums, err := repo.SumAllocationsByQuotation(context.Background(), tenantID, party.RoleCustomer, partyID)

	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.True(t, sums[q1].Equal(decimal.NewFromInt(700)))
	assert.True(t, sums[q2].Equal(decimal.NewFromInt(250)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPaymentRepository_FindUnallocated(t *testing.T) {
	repo, mock, mockDB := newMockPaymentRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	partyID := uuid.New()
	paymentID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "party_role", "party_id", "amount", "entry_type",
		"allocated_amount", "unallocated_amount", "currency", "method", "payment_date",
	}).AddRow(
		paymentID, tenantID, "vendor", partyID, decimal.NewFromInt(300), "debit",
		decimal.Zero, decimal.NewFromInt(300), "USD", "cheque", time.Now(),
	)

	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE .*unallocated_amount > 0.* ORDER BY payment_date DESC`).
		WithArgs(tenantID, "vendor", partyID).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT \* FROM "payment_allocations"`).
		WithArgs(paymentID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "quotation_id", "amount", "amount_type", "applied_at"}))

	payments, err := repo.FindUnallocated(context.Background(), tenantID, party.RoleVendor, partyID)

	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, paymentID, payments[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
