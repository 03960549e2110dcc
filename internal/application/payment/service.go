package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/booking"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/payment"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
)

// Service handles payment management and allocation use cases
type Service struct {
	payments    payment.Repository
	quotations  booking.Repository
	parties     party.Repository
	uow         payment.UnitOfWork
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	now         func() time.Time
}

// NewService creates a new payment Service. The idempotency store may be
// nil, in which case request keys are not checked.
func NewService(
	payments payment.Repository,
	quotations booking.Repository,
	parties party.Repository,
	uow payment.UnitOfWork,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
) *Service {
	return &Service{
		payments:    payments,
		quotations:  quotations,
		parties:     parties,
		uow:         uow,
		idempotency: idempotency,
		idemConfig:  idemConfig,
		now:         time.Now,
	}
}

// InitialAllocationRequest is one creation-time allocation
type InitialAllocationRequest struct {
	QuotationID uuid.UUID
	Amount      decimal.Decimal
	Remark      string
}

// CreatePaymentRequest carries the attributes for a new payment
type CreatePaymentRequest struct {
	Role        party.Role
	PartyID     uuid.UUID
	Amount      valueobject.Money
	EntryType   valueobject.EntryType
	Method      payment.Method
	Reference   string
	PaymentDate time.Time
	Remark      string
	Allocations []InitialAllocationRequest
}

// AllocateRequest applies one slice of a payment to one quotation. The
// party role is always stated explicitly by the caller; it is never
// inferred from the quotation's linkages.
type AllocateRequest struct {
	PaymentID      uuid.UUID
	QuotationID    uuid.UUID
	Role           party.Role
	Amount         decimal.Decimal
	Remark         string
	IdempotencyKey string
}

// BatchItem is one payment's share of a batch allocation
type BatchItem struct {
	PaymentID uuid.UUID
	Amount    decimal.Decimal
}

// AllocateBatchRequest applies allocations from several payments to one
// quotation as a single atomic unit.
type AllocateBatchRequest struct {
	QuotationID    uuid.UUID
	Role           party.Role
	Items          []BatchItem
	Remark         string
	IdempotencyKey string
}

// AllocationResult is the outcome of a single allocation. OverAllocated
// reports that the quotation's allocations now exceed its resolved
// amount; the allocation is applied regardless.
type AllocationResult struct {
	Payment       *payment.Payment `json:"payment"`
	OverAllocated bool             `json:"over_allocated"`
}

// BatchAllocationResult is the outcome of a batch allocation
type BatchAllocationResult struct {
	Payments      []*payment.Payment `json:"payments"`
	OverAllocated bool               `json:"over_allocated"`
}

// UnsettledQuotation is a quotation with a positive outstanding amount
// for one party, annotated with its role-resolved amount and the sum of
// all allocations applied to it across that party's payments.
type UnsettledQuotation struct {
	Quotation         booking.Quotation `json:"quotation"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	AllocatedAmount   decimal.Decimal   `json:"allocated_amount"`
	OutstandingAmount decimal.Decimal   `json:"outstanding_amount"`
}

// CreatePayment records a new payment after verifying the party and any
// creation-time allocation targets.
func (s *Service) CreatePayment(ctx context.Context, tenantID uuid.UUID, req CreatePaymentRequest) (*payment.Payment, error) {
	p, err := s.parties.FindByIDAndRole(ctx, tenantID, req.PartyID, req.Role)
	if err != nil {
		return nil, err
	}

	initial := make([]payment.InitialAllocation, 0, len(req.Allocations))
	for _, ia := range req.Allocations {
		q, err := s.quotations.FindByID(ctx, tenantID, ia.QuotationID)
		if err != nil {
			return nil, err
		}
		if !q.BelongsTo(req.Role, p.ID) {
			return nil, shared.NewLinkageError("CROSS_PARTY_ALLOCATION", "Quotation does not belong to the payment's party")
		}
		initial = append(initial, payment.InitialAllocation{
			QuotationID: ia.QuotationID,
			Amount:      ia.Amount,
			Remark:      ia.Remark,
		})
	}

	pay, err := payment.NewPayment(tenantID, req.Role, req.PartyID, req.Amount, req.EntryType, req.Method, req.PaymentDate, initial)
	if err != nil {
		return nil, err
	}
	if req.Reference != "" {
		if err := pay.SetReference(req.Reference); err != nil {
			return nil, err
		}
	}
	pay.SetRemark(req.Remark)

	if err := s.payments.Save(ctx, pay); err != nil {
		return nil, err
	}
	return pay, nil
}

// GetPayment returns a payment by id
func (s *Service) GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	return s.payments.FindByID(ctx, tenantID, id)
}

// ListPayments returns a page of payments
func (s *Service) ListPayments(ctx context.Context, tenantID uuid.UUID, filter payment.Filter) (*shared.Paginated[payment.Payment], error) {
	items, err := s.payments.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.payments.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// UpdatePaymentRequest carries the mutable attributes of a payment.
// Amounts and allocations are not editable after creation; allocation
// state changes only through the allocation operations.
type UpdatePaymentRequest struct {
	Reference *string
	Remark    *string
}

// UpdatePayment applies the non-nil fields of the request
func (s *Service) UpdatePayment(ctx context.Context, tenantID, id uuid.UUID, req UpdatePaymentRequest) (*payment.Payment, error) {
	p, err := s.payments.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Reference != nil {
		if err := p.SetReference(*req.Reference); err != nil {
			return nil, err
		}
	}
	if req.Remark != nil {
		p.SetRemark(*req.Remark)
	}
	if err := s.payments.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePayment soft deletes a payment, removing it from ledgers and
// from the allocation candidate pool.
func (s *Service) DeletePayment(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.payments.FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.payments.Delete(ctx, tenantID, id)
}

// Allocate applies one amount from one payment to one quotation. The
// unallocated balance is re-checked against the latest persisted state
// under a row lock, not a value read earlier in the request.
func (s *Service) Allocate(ctx context.Context, tenantID uuid.UUID, req AllocateRequest) (*AllocationResult, error) {
	if !req.Role.IsValid() {
		return nil, shared.NewValidationError("INVALID_ROLE", "Party role must be customer or vendor")
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Allocation amount must be positive")
	}

	q, linkedPartyID, err := s.resolveQuotation(ctx, tenantID, req.QuotationID, req.Role)
	if err != nil {
		return nil, err
	}

	claimed, err := s.claimRequestKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	result, err := s.applyAllocation(ctx, tenantID, q, linkedPartyID, req)
	if err != nil {
		// nothing was persisted, so the key must not block a corrected retry
		if claimed {
			s.releaseRequestKey(ctx, req.IdempotencyKey)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) applyAllocation(ctx context.Context, tenantID uuid.UUID, q *booking.Quotation, linkedPartyID uuid.UUID, req AllocateRequest) (*AllocationResult, error) {
	overAllocated, err := s.wouldOverAllocate(ctx, tenantID, q, req.Role, linkedPartyID, req.Amount)
	if err != nil {
		return nil, err
	}

	var updated *payment.Payment
	err = s.uow.Execute(ctx, func(ctx context.Context, repo payment.Repository) error {
		p, err := repo.FindByIDForUpdate(ctx, tenantID, req.PaymentID)
		if err != nil {
			return err
		}
		if err := checkPaymentParty(p, req.Role, linkedPartyID); err != nil {
			return err
		}
		if _, err := p.Allocate(q.ID, req.Amount, s.now(), req.Remark); err != nil {
			return err
		}
		if err := repo.Save(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AllocationResult{Payment: updated, OverAllocated: overAllocated}, nil
}

// AllocateBatch applies allocations from many payments to one quotation
// in a single transaction: a failure on any payment rolls back the
// whole batch.
func (s *Service) AllocateBatch(ctx context.Context, tenantID uuid.UUID, req AllocateBatchRequest) (*BatchAllocationResult, error) {
	if !req.Role.IsValid() {
		return nil, shared.NewValidationError("INVALID_ROLE", "Party role must be customer or vendor")
	}
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("EMPTY_BATCH", "Batch allocation requires at least one payment")
	}

	seen := make(map[uuid.UUID]struct{}, len(req.Items))
	total := decimal.Zero
	for _, item := range req.Items {
		if !item.Amount.IsPositive() {
			return nil, shared.NewValidationError("INVALID_AMOUNT", "Allocation amount must be positive")
		}
		if _, dup := seen[item.PaymentID]; dup {
			return nil, shared.NewValidationError("DUPLICATE_PAYMENT", "The same payment appears twice in one batch")
		}
		seen[item.PaymentID] = struct{}{}
		total = total.Add(item.Amount)
	}

	q, linkedPartyID, err := s.resolveQuotation(ctx, tenantID, req.QuotationID, req.Role)
	if err != nil {
		return nil, err
	}

	claimed, err := s.claimRequestKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	result, err := s.applyBatchAllocation(ctx, tenantID, q, linkedPartyID, total, req)
	if err != nil {
		// nothing was persisted, so the key must not block a corrected retry
		if claimed {
			s.releaseRequestKey(ctx, req.IdempotencyKey)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) applyBatchAllocation(ctx context.Context, tenantID uuid.UUID, q *booking.Quotation, linkedPartyID uuid.UUID, total decimal.Decimal, req AllocateBatchRequest) (*BatchAllocationResult, error) {
	overAllocated, err := s.wouldOverAllocate(ctx, tenantID, q, req.Role, linkedPartyID, total)
	if err != nil {
		return nil, err
	}

	updated := make([]*payment.Payment, 0, len(req.Items))
	err = s.uow.Execute(ctx, func(ctx context.Context, repo payment.Repository) error {
		for _, item := range req.Items {
			p, err := repo.FindByIDForUpdate(ctx, tenantID, item.PaymentID)
			if err != nil {
				return err
			}
			if err := checkPaymentParty(p, req.Role, linkedPartyID); err != nil {
				return err
			}
			if _, err := p.Allocate(q.ID, item.Amount, s.now(), req.Remark); err != nil {
				return err
			}
			if err := repo.Save(ctx, p); err != nil {
				return err
			}
			updated = append(updated, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BatchAllocationResult{Payments: updated, OverAllocated: overAllocated}, nil
}

// UnsettledQuotations returns the party's quotations whose role-resolved
// amount exceeds the sum of allocations applied to them, newest first.
func (s *Service) UnsettledQuotations(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]UnsettledQuotation, error) {
	if _, err := s.parties.FindByIDAndRole(ctx, tenantID, partyID, role); err != nil {
		return nil, err
	}
	quotations, err := s.quotations.FindByParty(ctx, tenantID, role, partyID)
	if err != nil {
		return nil, err
	}
	allocated, err := s.payments.SumAllocationsByQuotation(ctx, tenantID, role, partyID)
	if err != nil {
		return nil, err
	}

	out := make([]UnsettledQuotation, 0, len(quotations))
	for _, q := range quotations {
		totalAmount := q.AmountFor(role)
		sum := allocated[q.ID]
		outstanding := totalAmount.Sub(sum)
		if !outstanding.IsPositive() {
			continue
		}
		out = append(out, UnsettledQuotation{
			Quotation:         q,
			TotalAmount:       totalAmount,
			AllocatedAmount:   sum,
			OutstandingAmount: outstanding,
		})
	}
	return out, nil
}

// UnallocatedPayments returns the party's payments that still have a
// positive unallocated remainder, newest first.
func (s *Service) UnallocatedPayments(ctx context.Context, tenantID uuid.UUID, role party.Role, partyID uuid.UUID) ([]payment.Payment, error) {
	if _, err := s.parties.FindByIDAndRole(ctx, tenantID, partyID, role); err != nil {
		return nil, err
	}
	return s.payments.FindUnallocated(ctx, tenantID, role, partyID)
}

// resolveQuotation loads the quotation and returns the party id it is
// linked to for the stated role. Cross-party and unlinked quotations
// are rejected before any payment is touched.
func (s *Service) resolveQuotation(ctx context.Context, tenantID, quotationID uuid.UUID, role party.Role) (*booking.Quotation, uuid.UUID, error) {
	q, err := s.quotations.FindByID(ctx, tenantID, quotationID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !q.HasAnyLinkage() {
		return nil, uuid.Nil, shared.NewLinkageError("NO_PARTY_LINKAGE", "Quotation is linked to neither a customer nor a vendor")
	}
	linked := q.PartyIDFor(role)
	if linked == nil {
		return nil, uuid.Nil, shared.NewLinkageError("QUOTATION_NOT_LINKED", "Quotation has no party linkage for the stated role")
	}
	return q, *linked, nil
}

// wouldOverAllocate reports whether applying amount would push the
// quotation's allocated sum past its role-resolved amount. Allocation
// proceeds either way; the flag lets callers detect overpayment.
func (s *Service) wouldOverAllocate(ctx context.Context, tenantID uuid.UUID, q *booking.Quotation, role party.Role, partyID uuid.UUID, amount decimal.Decimal) (bool, error) {
	sums, err := s.payments.SumAllocationsByQuotation(ctx, tenantID, role, partyID)
	if err != nil {
		return false, err
	}
	return sums[q.ID].Add(amount).GreaterThan(q.AmountFor(role)), nil
}

// claimRequestKey marks an idempotency key as seen, rejecting a key that
// was already used within the configured TTL. An empty key skips the
// check entirely. Returns whether this call claimed the key, so the
// caller can release it again if the request fails before committing.
func (s *Service) claimRequestKey(ctx context.Context, key string) (bool, error) {
	if key == "" || s.idempotency == nil || !s.idemConfig.Enabled {
		return false, nil
	}
	fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idemConfig.TTL)
	if err != nil {
		return false, err
	}
	if !fresh {
		return false, shared.NewDomainError(shared.KindConflict, "DUPLICATE_REQUEST", "This idempotency key has already been processed")
	}
	return true, nil
}

// releaseRequestKey is best effort: if the release itself fails the key
// stays claimed until its TTL runs out.
func (s *Service) releaseRequestKey(ctx context.Context, key string) {
	_ = s.idempotency.Release(ctx, key)
}

func checkPaymentParty(p *payment.Payment, role party.Role, linkedPartyID uuid.UUID) error {
	if p.PartyRole != role {
		return shared.NewValidationError("ROLE_MISMATCH", "Payment does not belong to the stated party role")
	}
	if p.PartyID != linkedPartyID {
		return shared.NewLinkageError("CROSS_PARTY_ALLOCATION", "Quotation does not belong to the payment's party")
	}
	return nil
}
