package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
)

// Filter defines filtering options for payment queries
type Filter struct {
	shared.Filter
	PartyRole      *party.Role
	PartyID        *uuid.UUID
	HasUnallocated *bool
}

// Repository defines the interface for payment persistence
type Repository interface {
	// FindByID finds a payment by ID for a specific tenant.
	// Soft-deleted payments are not returned.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindByIDForUpdate reloads a payment inside the current transaction
	// holding a row lock, so the unallocated balance checked is the one
	// the write will apply to.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindAll finds all payments for a tenant with filtering
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Payment, error)

	// FindByParty finds all non-deleted payments for a party, newest first
	FindByParty(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]Payment, error)

	// FindUnallocated finds all non-deleted payments for a party with a
	// positive unallocated remainder, newest first.
	FindUnallocated(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]Payment, error)

	// SumAllocationsByQuotation groups the allocations of all non-deleted
	// payments of a party by quotation and sums them. This is the global
	// allocated-amount lookup the ledger and the unsettled query share.
	SumAllocationsByQuotation(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// Count counts payments for a tenant with optional filters
	Count(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)

	// Save creates or updates a payment together with its allocations
	Save(ctx context.Context, p *Payment) error

	// Delete soft deletes a payment for a tenant. Deleted payments are
	// excluded from ledgers and from allocation candidates.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
