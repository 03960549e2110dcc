package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPartyRepository implements party.Repository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByID finds a party by ID for a tenant
func (r *GormPartyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*party.Party, error) {
	var p party.Party
	if err := r.db.WithContext(ctx).
		First(&p, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PARTY_NOT_FOUND", "Party not found")
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDAndRole finds a party by ID constrained to a role
func (r *GormPartyRepository) FindByIDAndRole(ctx context.Context, tenantID, id uuid.UUID, role party.Role) (*party.Party, error) {
	var p party.Party
	if err := r.db.WithContext(ctx).
		First(&p, "id = ? AND tenant_id = ? AND role = ?", id, tenantID, role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PARTY_NOT_FOUND", fmt.Sprintf("No %s with this id", role))
		}
		return nil, err
	}
	return &p, nil
}

// FindAll finds all parties for a tenant with filtering
func (r *GormPartyRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter party.Filter) ([]party.Party, error) {
	var parties []party.Party
	query := r.applyFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	orderBy := ValidateSortField(filter.OrderBy, PartySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}

// Count counts parties for a tenant with optional filters
func (r *GormPartyRepository) Count(ctx context.Context, tenantID uuid.UUID, filter party.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&party.Party{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a party
func (r *GormPartyRepository) Save(ctx context.Context, p *party.Party) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete soft deletes a party for a tenant
func (r *GormPartyRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&party.Party{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("PARTY_NOT_FOUND", "Party not found")
	}
	return nil
}

func (r *GormPartyRepository) applyFilter(query *gorm.DB, filter party.Filter) *gorm.DB {
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", pattern, pattern, pattern)
	}
	return query
}

// PartySortFields contains allowed sort fields for parties
var PartySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"role":       true,
}
