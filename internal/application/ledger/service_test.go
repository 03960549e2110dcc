package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/travelops/backend/internal/domain/booking"
	"github.com/travelops/backend/internal/domain/ledger"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/payment"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Mock repositories
// =============================================================================

type MockPartyRepository struct {
	mock.Mock
}

func (m *MockPartyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*party.Party, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*party.Party), args.Error(1)
}

func (m *MockPartyRepository) FindByIDAndRole(ctx context.Context, tenantID, id uuid.UUID, role party.Role) (*party.Party, error) {
	args := m.Called(ctx, tenantID, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*party.Party), args.Error(1)
}

func (m *MockPartyRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter party.Filter) ([]party.Party, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]party.Party), args.Error(1)
}

func (m *MockPartyRepository) Count(ctx context.Context, tenantID uuid.UUID, filter party.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPartyRepository) Save(ctx context.Context, p *party.Party) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPartyRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type MockQuotationRepository struct {
	mock.Mock
}

func (m *MockQuotationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*booking.Quotation, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*booking.Quotation, error) {
	args := m.Called(ctx, tenantID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter booking.Filter) ([]booking.Quotation, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) FindByParty(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]booking.Quotation, error) {
	args := m.Called(ctx, tenantID, role, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) Count(ctx context.Context, tenantID uuid.UUID, filter booking.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuotationRepository) Save(ctx context.Context, q *booking.Quotation) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuotationRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter payment.Filter) ([]payment.Payment, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByParty(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]payment.Payment, error) {
	args := m.Called(ctx, tenantID, role, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindUnallocated(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]payment.Payment, error) {
	args := m.Called(ctx, tenantID, role, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumAllocationsByQuotation(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, role, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) Count(ctx context.Context, tenantID uuid.UUID, filter payment.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// =============================================================================
// Tests
// =============================================================================

func TestStatement_CustomerWithFullyPaidQuotation(t *testing.T) {
	tenantID := uuid.New()
	customerID := uuid.New()

	customer, err := party.NewParty(tenantID, party.RoleCustomer, "Acme Travel", decimal.NewFromInt(1000), valueobject.EntryTypeDebit)
	require.NoError(t, err)
	customer.ID = customerID
	customer.CreatedAt = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	q, err := booking.NewQuotation(
		tenantID, "Q-1001", &customerID, nil,
		valueobject.NewMoney(decimal.NewFromInt(5000), valueobject.DefaultCurrency), nil,
	)
	require.NoError(t, err)
	q.CreatedAt = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	pay, err := payment.NewPayment(
		tenantID, party.RoleCustomer, customerID,
		valueobject.NewMoney(decimal.NewFromInt(5000), valueobject.DefaultCurrency),
		valueobject.EntryTypeCredit, payment.MethodBankTransfer,
		time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
		[]payment.InitialAllocation{{QuotationID: q.ID, Amount: decimal.NewFromInt(5000)}},
	)
	require.NoError(t, err)

	parties := new(MockPartyRepository)
	quotations := new(MockQuotationRepository)
	payments := new(MockPaymentRepository)
	parties.On("FindByID", mock.Anything, tenantID, customerID).Return(customer, nil)
	quotations.On("FindByParty", mock.Anything, tenantID, party.RoleCustomer, customerID).
		Return([]booking.Quotation{*q}, nil)
	payments.On("SumAllocationsByQuotation", mock.Anything, tenantID, party.RoleCustomer, customerID).
		Return(map[uuid.UUID]decimal.Decimal{q.ID: decimal.NewFromInt(5000)}, nil)
	payments.On("FindByParty", mock.Anything, tenantID, party.RoleCustomer, customerID).
		Return([]payment.Payment{*pay}, nil)

	svc := NewService(parties, quotations, payments)
	stmt, err := svc.Statement(context.Background(), tenantID, customerID)

	require.NoError(t, err)
	assert.Equal(t, party.RoleCustomer, stmt.Party.Role)
	assert.Equal(t, "Acme Travel", stmt.Party.Name)
	assert.True(t, stmt.OpeningBalance.Amount.Equal(decimal.NewFromInt(1000)))

	assert.True(t, stmt.Totals.Debit.Equal(decimal.NewFromInt(6000)))
	assert.True(t, stmt.Totals.Credit.Equal(decimal.NewFromInt(5000)))
	assert.True(t, stmt.ClosingBalance.Amount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, valueobject.EntryTypeDebit, stmt.ClosingBalance.Type)

	require.Len(t, stmt.Entries, 3)
	var quotationEntry *ledger.Entry
	for i := range stmt.Entries {
		if stmt.Entries[i].Kind == ledger.EntryKindQuotation {
			quotationEntry = &stmt.Entries[i]
		}
	}
	require.NotNil(t, quotationEntry)
	assert.Equal(t, ledger.PaymentStatusPaid, quotationEntry.PaymentStatus)
	assert.True(t, quotationEntry.OutstandingAmount.IsZero())
}

func TestStatement_VendorQuotationUsesCostPrice(t *testing.T) {
	tenantID := uuid.New()
	vendorID := uuid.New()

	vendor, err := party.NewParty(tenantID, party.RoleVendor, "Sunrise Hotels", decimal.Zero, valueobject.EntryTypeDebit)
	require.NoError(t, err)
	vendor.ID = vendorID

	q, err := booking.NewQuotation(
		tenantID, "Q-2001", nil, &vendorID,
		valueobject.NewMoney(decimal.NewFromInt(1000), valueobject.DefaultCurrency),
		booking.FormFields{"costprice": 800.0, "sellingprice": 1000.0},
	)
	require.NoError(t, err)
	q.CreatedAt = time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	parties := new(MockPartyRepository)
	quotations := new(MockQuotationRepository)
	payments := new(MockPaymentRepository)
	parties.On("FindByID", mock.Anything, tenantID, vendorID).Return(vendor, nil)
	quotations.On("FindByParty", mock.Anything, tenantID, party.RoleVendor, vendorID).
		Return([]booking.Quotation{*q}, nil)
	payments.On("SumAllocationsByQuotation", mock.Anything, tenantID, party.RoleVendor, vendorID).
		Return(map[uuid.UUID]decimal.Decimal{}, nil)
	payments.On("FindByParty", mock.Anything, tenantID, party.RoleVendor, vendorID).
		Return([]payment.Payment{}, nil)

	svc := NewService(parties, quotations, payments)
	stmt, err := svc.Statement(context.Background(), tenantID, vendorID)

	require.NoError(t, err)
	require.Len(t, stmt.Entries, 1)
	assert.True(t, stmt.Entries[0].Amount.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, ledger.PaymentStatusNone, stmt.Entries[0].PaymentStatus)
}

func TestStatement_PartyWithNoActivity(t *testing.T) {
	tenantID := uuid.New()
	customerID := uuid.New()

	customer, err := party.NewParty(tenantID, party.RoleCustomer, "Quiet Co", decimal.Zero, valueobject.EntryTypeDebit)
	require.NoError(t, err)
	customer.ID = customerID

	parties := new(MockPartyRepository)
	quotations := new(MockQuotationRepository)
	payments := new(MockPaymentRepository)
	parties.On("FindByID", mock.Anything, tenantID, customerID).Return(customer, nil)
	quotations.On("FindByParty", mock.Anything, tenantID, party.RoleCustomer, customerID).
		Return([]booking.Quotation{}, nil)
	payments.On("SumAllocationsByQuotation", mock.Anything, tenantID, party.RoleCustomer, customerID).
		Return(map[uuid.UUID]decimal.Decimal{}, nil)
	payments.On("FindByParty", mock.Anything, tenantID, party.RoleCustomer, customerID).
		Return([]payment.Payment{}, nil)

	svc := NewService(parties, quotations, payments)
	stmt, err := svc.Statement(context.Background(), tenantID, customerID)

	require.NoError(t, err)
	assert.Empty(t, stmt.Entries)
	assert.True(t, stmt.ClosingBalance.Amount.IsZero())
}

func TestStatement_UnknownParty(t *testing.T) {
	tenantID := uuid.New()
	partyID := uuid.New()

	parties := new(MockPartyRepository)
	parties.On("FindByID", mock.Anything, tenantID, partyID).
		Return(nil, shared.NewNotFoundError("PARTY_NOT_FOUND", "Party not found"))

	svc := NewService(parties, new(MockQuotationRepository), new(MockPaymentRepository))
	_, err := svc.Statement(context.Background(), tenantID, partyID)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestSummary_MatchesStatementTotals(t *testing.T) {
	tenantID := uuid.New()
	customerID := uuid.New()

	customer, err := party.NewParty(tenantID, party.RoleCustomer, "Acme Travel", decimal.NewFromInt(250), valueobject.EntryTypeCredit)
	require.NoError(t, err)
	customer.ID = customerID

	parties := new(MockPartyRepository)
	quotations := new(MockQuotationRepository)
	payments := new(MockPaymentRepository)
	parties.On("FindByID", mock.Anything, tenantID, customerID).Return(customer, nil)
	quotations.On("FindByParty", mock.Anything, tenantID, party.RoleCustomer, customerID).
		Return([]booking.Quotation{}, nil)
	payments.On("SumAllocationsByQuotation", mock.Anything, tenantID, party.RoleCustomer, customerID).
		Return(map[uuid.UUID]decimal.Decimal{}, nil)
	payments.On("FindByParty", mock.Anything, tenantID, party.RoleCustomer, customerID).
		Return([]payment.Payment{}, nil)

	svc := NewService(parties, quotations, payments)
	summary, err := svc.Summary(context.Background(), tenantID, customerID)

	require.NoError(t, err)
	assert.True(t, summary.ClosingBalance.Amount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, valueobject.EntryTypeCredit, summary.ClosingBalance.Type)
	assert.True(t, summary.Totals.Credit.Equal(decimal.NewFromInt(250)))
}
