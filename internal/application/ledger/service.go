package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/travelops/backend/internal/domain/booking"
	"github.com/travelops/backend/internal/domain/ledger"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/payment"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
)

// Service assembles party account statements from live party, quotation,
// and payment state. Statements are derived on every request and never
// stored.
type Service struct {
	parties    party.Repository
	quotations booking.Repository
	payments   payment.Repository
}

// NewService creates a new ledger Service
func NewService(parties party.Repository, quotations booking.Repository, payments payment.Repository) *Service {
	return &Service{parties: parties, quotations: quotations, payments: payments}
}

// PartyHeader identifies the party a statement belongs to
type PartyHeader struct {
	Role party.Role `json:"type"`
	ID   uuid.UUID  `json:"id"`
	Name string     `json:"name"`
}

// PartyStatement is a party's full account statement
type PartyStatement struct {
	Party          PartyHeader         `json:"party"`
	OpeningBalance valueobject.Balance `json:"opening_balance"`
	ledger.Statement
}

// PartySummary is the aggregate position of a party, as shown on party
// lists: the same totals a full statement would produce, without the
// entry detail.
type PartySummary struct {
	Party          PartyHeader         `json:"party"`
	Totals         ledger.Totals       `json:"totals"`
	ClosingBalance valueobject.Balance `json:"closing_balance"`
}

// Statement builds the full account statement for one party. A party
// with no quotations or payments yields an empty entry list, not an
// error.
func (s *Service) Statement(ctx context.Context, tenantID, partyID uuid.UUID) (*PartyStatement, error) {
	p, err := s.parties.FindByID(ctx, tenantID, partyID)
	if err != nil {
		return nil, err
	}

	opening, quotations, payments, err := s.collect(ctx, p)
	if err != nil {
		return nil, err
	}

	stmt := ledger.BuildStatement(opening, quotations, payments)
	return &PartyStatement{
		Party:          PartyHeader{Role: p.Role, ID: p.ID, Name: p.Name},
		OpeningBalance: valueobject.Balance{Amount: p.OpeningBalance, Type: p.OpeningBalanceType},
		Statement:      stmt,
	}, nil
}

// Summary computes a party's totals and closing balance without
// returning the individual entries.
func (s *Service) Summary(ctx context.Context, tenantID, partyID uuid.UUID) (*PartySummary, error) {
	stmt, err := s.Statement(ctx, tenantID, partyID)
	if err != nil {
		return nil, err
	}
	return &PartySummary{
		Party:          stmt.Party,
		Totals:         stmt.Totals,
		ClosingBalance: stmt.ClosingBalance,
	}, nil
}

// collect gathers the builder inputs for one party: opening balance,
// quotation lines with globally aggregated allocated sums, and payment
// lines with their allocations.
func (s *Service) collect(ctx context.Context, p *party.Party) (*ledger.OpeningBalance, []ledger.QuotationLine, []ledger.PaymentLine, error) {
	var opening *ledger.OpeningBalance
	if p.HasOpeningBalance() {
		opening = &ledger.OpeningBalance{
			Amount: p.OpeningBalance,
			Type:   p.OpeningBalanceType,
			Date:   p.CreatedAt,
		}
	}

	quotations, err := s.quotations.FindByParty(ctx, p.TenantID, p.Role, p.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	allocated, err := s.payments.SumAllocationsByQuotation(ctx, p.TenantID, p.Role, p.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	quotationLines := make([]ledger.QuotationLine, 0, len(quotations))
	for _, q := range quotations {
		quotationLines = append(quotationLines, ledger.QuotationLine{
			ID:              q.ID,
			Reference:       q.Reference,
			Date:            q.CreatedAt,
			Amount:          q.AmountFor(p.Role),
			AllocatedAmount: allocated[q.ID],
		})
	}

	payments, err := s.payments.FindByParty(ctx, p.TenantID, p.Role, p.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	paymentLines := make([]ledger.PaymentLine, 0, len(payments))
	for _, pay := range payments {
		line := ledger.PaymentLine{
			ID:          pay.ID,
			Reference:   pay.Reference,
			Date:        pay.PaymentDate,
			Amount:      pay.Amount,
			EntryType:   pay.EntryType,
			Unallocated: pay.UnallocatedAmount,
			Allocations: make([]ledger.AllocationLine, 0, len(pay.Allocations)),
		}
		for _, a := range pay.Allocations {
			appliedAt := a.AppliedAt
			if appliedAt.IsZero() {
				appliedAt = pay.PaymentDate
			}
			line.Allocations = append(line.Allocations, ledger.AllocationLine{
				QuotationID: a.QuotationID,
				Amount:      a.Amount,
				AppliedAt:   appliedAt,
			})
		}
		paymentLines = append(paymentLines, line)
	}

	return opening, quotationLines, paymentLines, nil
}
