package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/payment"
	"github.com/travelops/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment with its allocations for a tenant
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		First(&p, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PAYMENT_NOT_FOUND", "Payment not found")
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDForUpdate reloads a payment holding a row lock so the
// unallocated balance checked is the one the write will apply to. Only
// meaningful inside a transaction.
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Allocations").
		First(&p, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PAYMENT_NOT_FOUND", "Payment not found")
		}
		return nil, err
	}
	return &p, nil
}

// FindAll finds all payments for a tenant with filtering
func (r *GormPaymentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter payment.Filter) ([]payment.Payment, error) {
	var payments []payment.Payment
	query := r.applyFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "payment_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Preload("Allocations").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindByParty finds all non-deleted payments for a party, newest first
func (r *GormPaymentRepository) FindByParty(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]payment.Payment, error) {
	var payments []payment.Payment
	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("tenant_id = ? AND party_role = ? AND party_id = ?", tenantID, role, partyID).
		Order("payment_date DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindUnallocated finds all non-deleted payments for a party with a
// positive unallocated remainder, newest first.
func (r *GormPaymentRepository) FindUnallocated(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]payment.Payment, error) {
	var payments []payment.Payment
	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("tenant_id = ? AND party_role = ? AND party_id = ? AND unallocated_amount > 0", tenantID, role, partyID).
		Order("payment_date DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// SumAllocationsByQuotation groups the allocations of all non-deleted
// payments of a party by quotation and sums them.
func (r *GormPaymentRepository) SumAllocationsByQuotation(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	type allocationSum struct {
		QuotationID uuid.UUID
		Total       decimal.Decimal
	}
	var rows []allocationSum

	if err := r.db.WithContext(ctx).
		Table("payment_allocations").
		Select("payment_allocations.quotation_id AS quotation_id, SUM(payment_allocations.amount) AS total").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payments.tenant_id = ? AND payments.party_role = ? AND payments.party_id = ? AND payments.deleted_at IS NULL",
			tenantID, role, partyID).
		Group("payment_allocations.quotation_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.QuotationID] = row.Total
	}
	return sums, nil
}

// Count counts payments for a tenant with optional filters
func (r *GormPaymentRepository) Count(ctx context.Context, tenantID uuid.UUID, filter payment.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&payment.Payment{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a payment together with its allocations.
// FullSaveAssociations keeps the child allocation rows in lockstep with
// the aggregate so the conservation invariant holds in storage too.
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(p).Error
}

// Delete soft deletes a payment for a tenant
func (r *GormPaymentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&payment.Payment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	return nil
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter payment.Filter) *gorm.DB {
	if filter.PartyRole != nil {
		query = query.Where("party_role = ?", *filter.PartyRole)
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.HasUnallocated != nil {
		if *filter.HasUnallocated {
			query = query.Where("unallocated_amount > 0")
		} else {
			query = query.Where("unallocated_amount = 0")
		}
	}
	if filter.Search != "" {
		query = query.Where("reference ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"payment_date":       true,
	"amount":             true,
	"unallocated_amount": true,
}
