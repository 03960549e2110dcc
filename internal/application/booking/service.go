package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/travelops/backend/internal/domain/booking"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
)

// Service handles quotation management use cases
type Service struct {
	quotations booking.Repository
	parties    party.Repository
}

// NewService creates a new booking Service
func NewService(quotations booking.Repository, parties party.Repository) *Service {
	return &Service{quotations: quotations, parties: parties}
}

// CreateQuotationRequest carries the attributes for a new quotation
type CreateQuotationRequest struct {
	Reference   string
	CustomerID  *uuid.UUID
	VendorID    *uuid.UUID
	Title       string
	TotalAmount valueobject.Money
	FormFields  booking.FormFields
	TravelDate  *time.Time
	Remark      string
}

// UpdateQuotationRequest carries the mutable attributes of a quotation.
// Nil fields are left untouched.
type UpdateQuotationRequest struct {
	Title       *string
	TotalAmount *valueobject.Money
	FormFields  booking.FormFields
	TravelDate  *time.Time
	Remark      *string
}

// CreateQuotation creates a quotation after verifying its party
// linkages point at existing parties of the matching role.
func (s *Service) CreateQuotation(ctx context.Context, tenantID uuid.UUID, req CreateQuotationRequest) (*booking.Quotation, error) {
	if req.CustomerID != nil {
		if _, err := s.parties.FindByIDAndRole(ctx, tenantID, *req.CustomerID, party.RoleCustomer); err != nil {
			return nil, err
		}
	}
	if req.VendorID != nil {
		if _, err := s.parties.FindByIDAndRole(ctx, tenantID, *req.VendorID, party.RoleVendor); err != nil {
			return nil, err
		}
	}
	if existing, err := s.quotations.FindByReference(ctx, tenantID, req.Reference); err == nil && existing != nil {
		return nil, shared.NewDomainError(shared.KindConflict, "DUPLICATE_REFERENCE", "A quotation with this reference already exists")
	}

	q, err := booking.NewQuotation(tenantID, req.Reference, req.CustomerID, req.VendorID, req.TotalAmount, req.FormFields)
	if err != nil {
		return nil, err
	}
	q.SetTitle(req.Title)
	q.SetTravelDate(req.TravelDate)
	q.SetRemark(req.Remark)

	if err := s.quotations.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuotation returns a quotation by id
func (s *Service) GetQuotation(ctx context.Context, tenantID, id uuid.UUID) (*booking.Quotation, error) {
	return s.quotations.FindByID(ctx, tenantID, id)
}

// ListQuotations returns a page of quotations
func (s *Service) ListQuotations(ctx context.Context, tenantID uuid.UUID, filter booking.Filter) (*shared.Paginated[booking.Quotation], error) {
	items, err := s.quotations.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.quotations.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// UpdateQuotation applies the non-nil fields of the request
func (s *Service) UpdateQuotation(ctx context.Context, tenantID, id uuid.UUID, req UpdateQuotationRequest) (*booking.Quotation, error) {
	q, err := s.quotations.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		q.SetTitle(*req.Title)
	}
	if req.TotalAmount != nil {
		if err := q.SetTotalAmount(*req.TotalAmount); err != nil {
			return nil, err
		}
	}
	if req.FormFields != nil {
		q.SetFormFields(req.FormFields)
	}
	if req.TravelDate != nil {
		q.SetTravelDate(req.TravelDate)
	}
	if req.Remark != nil {
		q.SetRemark(*req.Remark)
	}

	if err := s.quotations.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuotation soft deletes a quotation
func (s *Service) DeleteQuotation(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.quotations.FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.quotations.Delete(ctx, tenantID, id)
}
