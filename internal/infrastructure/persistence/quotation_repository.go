package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelops/backend/internal/domain/booking"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormQuotationRepository implements booking.Repository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// FindByID finds a quotation by ID for a tenant
func (r *GormQuotationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*booking.Quotation, error) {
	var q booking.Quotation
	if err := r.db.WithContext(ctx).
		First(&q, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("QUOTATION_NOT_FOUND", "Quotation not found")
		}
		return nil, err
	}
	return &q, nil
}

// FindByReference finds a quotation by its reference for a tenant
func (r *GormQuotationRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*booking.Quotation, error) {
	var q booking.Quotation
	if err := r.db.WithContext(ctx).
		First(&q, "reference = ? AND tenant_id = ?", reference, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("QUOTATION_NOT_FOUND", "Quotation not found")
		}
		return nil, err
	}
	return &q, nil
}

// FindAll finds all quotations for a tenant with filtering
func (r *GormQuotationRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter booking.Filter) ([]booking.Quotation, error) {
	var quotations []booking.Quotation
	query := r.applyFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	orderBy := ValidateSortField(filter.OrderBy, QuotationSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&quotations).Error; err != nil {
		return nil, err
	}
	return quotations, nil
}

// FindByParty finds all non-deleted quotations linked to a party on the
// role-appropriate side, newest first.
func (r *GormQuotationRepository) FindByParty(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]booking.Quotation, error) {
	var quotations []booking.Quotation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where(fmt.Sprintf("%s = ?", linkageColumn(role)), partyID).
		Order("created_at DESC").
		Find(&quotations).Error; err != nil {
		return nil, err
	}
	return quotations, nil
}

// Count counts quotations for a tenant with optional filters
func (r *GormQuotationRepository) Count(ctx context.Context, tenantID uuid.UUID, filter booking.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&booking.Quotation{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a quotation
func (r *GormQuotationRepository) Save(ctx context.Context, q *booking.Quotation) error {
	return r.db.WithContext(ctx).Save(q).Error
}

// Delete soft deletes a quotation for a tenant
func (r *GormQuotationRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&booking.Quotation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("QUOTATION_NOT_FOUND", "Quotation not found")
	}
	return nil
}

func (r *GormQuotationRepository) applyFilter(query *gorm.DB, filter booking.Filter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("reference ILIKE ? OR title ILIKE ?", pattern, pattern)
	}
	return query
}

// linkageColumn maps a party role to the quotation column holding that
// role's party linkage.
func linkageColumn(role party.Role) string {
	if role == party.RoleVendor {
		return "vendor_id"
	}
	return "customer_id"
}

// QuotationSortFields contains allowed sort fields for quotations
var QuotationSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"reference":    true,
	"total_amount": true,
	"travel_date":  true,
}
