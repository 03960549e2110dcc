package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
)

// Filter defines filtering options for quotation queries
type Filter struct {
	shared.Filter
	CustomerID *uuid.UUID
	VendorID   *uuid.UUID
}

// Repository defines the interface for quotation persistence
type Repository interface {
	// FindByID finds a quotation by ID for a specific tenant.
	// Soft-deleted quotations are not returned.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Quotation, error)

	// FindByReference finds a quotation by its reference for a tenant
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*Quotation, error)

	// FindAll finds all quotations for a tenant with filtering
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Quotation, error)

	// FindByParty finds all non-deleted quotations linked to a party on
	// the role-appropriate side, newest first.
	FindByParty(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]Quotation, error)

	// Count counts quotations for a tenant with optional filters
	Count(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)

	// Save creates or updates a quotation
	Save(ctx context.Context, q *Quotation) error

	// Delete soft deletes a quotation for a tenant. Deleted quotations
	// are excluded from all ledger and allocation computations.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
