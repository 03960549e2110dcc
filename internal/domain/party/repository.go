package party

import (
	"context"

	"github.com/google/uuid"
	"github.com/travelops/backend/internal/domain/shared"
)

// Filter defines filtering options for party queries
type Filter struct {
	shared.Filter
	Role *Role // Filter by party role
}

// Repository defines the interface for party persistence
type Repository interface {
	// FindByID finds a party by ID for a specific tenant.
	// Soft-deleted parties are not returned.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Party, error)

	// FindByIDAndRole finds a party by ID constrained to a role
	FindByIDAndRole(ctx context.Context, tenantID, id uuid.UUID, role Role) (*Party, error)

	// FindAll finds all parties for a tenant with filtering
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Party, error)

	// Count counts parties for a tenant with optional filters
	Count(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)

	// Save creates or updates a party
	Save(ctx context.Context, p *Party) error

	// Delete soft deletes a party for a tenant
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
