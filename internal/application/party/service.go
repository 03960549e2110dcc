package party

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
)

// Service handles party management use cases
type Service struct {
	parties party.Repository
}

// NewService creates a new party Service
func NewService(parties party.Repository) *Service {
	return &Service{parties: parties}
}

// CreatePartyRequest carries the attributes for a new party
type CreatePartyRequest struct {
	Role               party.Role
	Name               string
	Email              string
	Phone              string
	OpeningBalance     decimal.Decimal
	OpeningBalanceType valueobject.EntryType
	Remark             string
}

// UpdatePartyRequest carries the mutable attributes of a party. Nil
// fields are left untouched.
type UpdatePartyRequest struct {
	Name               *string
	Email              *string
	Phone              *string
	OpeningBalance     *decimal.Decimal
	OpeningBalanceType *valueobject.EntryType
	Remark             *string
}

// CreateParty creates a new customer or vendor
func (s *Service) CreateParty(ctx context.Context, tenantID uuid.UUID, req CreatePartyRequest) (*party.Party, error) {
	p, err := party.NewParty(tenantID, req.Role, req.Name, req.OpeningBalance, req.OpeningBalanceType)
	if err != nil {
		return nil, err
	}
	p.SetContact(req.Email, req.Phone)
	p.SetRemark(req.Remark)

	if err := s.parties.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetParty returns a party by id
func (s *Service) GetParty(ctx context.Context, tenantID, id uuid.UUID) (*party.Party, error) {
	return s.parties.FindByID(ctx, tenantID, id)
}

// ListParties returns a page of parties, optionally filtered by role
func (s *Service) ListParties(ctx context.Context, tenantID uuid.UUID, filter party.Filter) (*shared.Paginated[party.Party], error) {
	items, err := s.parties.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.parties.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// UpdateParty applies the non-nil fields of the request to a party
func (s *Service) UpdateParty(ctx context.Context, tenantID, id uuid.UUID, req UpdatePartyRequest) (*party.Party, error) {
	p, err := s.parties.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := p.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Email != nil || req.Phone != nil {
		email, phone := p.Email, p.Phone
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		p.SetContact(email, phone)
	}
	if req.OpeningBalance != nil || req.OpeningBalanceType != nil {
		amount, balanceType := p.OpeningBalance, p.OpeningBalanceType
		if req.OpeningBalance != nil {
			amount = *req.OpeningBalance
		}
		if req.OpeningBalanceType != nil {
			balanceType = *req.OpeningBalanceType
		}
		if err := p.SetOpeningBalance(amount, balanceType); err != nil {
			return nil, err
		}
	}
	if req.Remark != nil {
		p.SetRemark(*req.Remark)
	}

	if err := s.parties.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteParty soft deletes a party
func (s *Service) DeleteParty(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.parties.FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.parties.Delete(ctx, tenantID, id)
}
