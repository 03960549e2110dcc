package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
)

// OpeningBalance is the party's starting position. It always sorts ahead
// of every other entry regardless of its date.
type OpeningBalance struct {
	Amount decimal.Decimal
	Type   valueobject.EntryType
	Date   time.Time
}

// QuotationLine carries a quotation's resolved amount for the party's role
// together with the sum of all allocations ever applied to it, across
// every payment of every party.
type QuotationLine struct {
	ID              uuid.UUID
	Reference       string
	Date            time.Time
	Amount          decimal.Decimal
	AllocatedAmount decimal.Decimal
}

// AllocationLine is one slice of a payment applied to a quotation
type AllocationLine struct {
	QuotationID uuid.UUID
	Amount      decimal.Decimal
	AppliedAt   time.Time
}

// PaymentLine is a payment plus its allocations. A payment with
// allocations is expanded into one entry per allocation, dated by the
// allocation, plus a residual entry for any unallocated remainder.
type PaymentLine struct {
	ID          uuid.UUID
	Reference   string
	Date        time.Time
	Amount      decimal.Decimal
	EntryType   valueobject.EntryType
	Unallocated decimal.Decimal
	Allocations []AllocationLine
}

// BuildStatement derives a party's account statement from its opening
// balance, quotations, and payments. Quotation entries always land on
// the debit side of the party's account; payments carry their own entry
// type. The running closing balance is attached entry by entry, and the
// final slice is returned newest first.
func BuildStatement(opening *OpeningBalance, quotations []QuotationLine, payments []PaymentLine) Statement {
	entries := make([]Entry, 0, len(quotations)+len(payments)+1)

	for _, q := range quotations {
		q := q
		status, outstanding := StatusFor(q.Amount, q.AllocatedAmount)
		allocated := q.AllocatedAmount
		entries = append(entries, Entry{
			Kind:              EntryKindQuotation,
			EntryType:         valueobject.EntryTypeDebit,
			Date:              q.Date,
			Amount:            q.Amount,
			ReferenceID:       &q.ID,
			Description:       q.Reference,
			PaymentStatus:     status,
			AllocatedAmount:   &allocated,
			OutstandingAmount: &outstanding,
		})
	}

	for _, p := range payments {
		entries = append(entries, expandPayment(p)...)
	}

	// chronological, stable so same-day entries keep their input order
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	if opening != nil && opening.Amount.IsPositive() {
		head := Entry{
			Kind:        EntryKindOpening,
			EntryType:   opening.Type,
			Date:        opening.Date,
			Amount:      opening.Amount,
			Description: "Opening balance",
		}
		entries = append([]Entry{head}, entries...)
	}

	var totals Totals
	for i := range entries {
		if entries[i].EntryType == valueobject.EntryTypeDebit {
			totals.Debit = totals.Debit.Add(entries[i].Amount)
		} else {
			totals.Credit = totals.Credit.Add(entries[i].Amount)
		}
		entries[i].ClosingBalance = valueobject.NetBalance(totals.Debit, totals.Credit)
	}

	closing := valueobject.NetBalance(totals.Debit, totals.Credit)

	// newest first for display
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return Statement{Entries: entries, Totals: totals, ClosingBalance: closing}
}

// expandPayment turns a payment into its ledger entries: one per
// allocation dated at the allocation, plus a residual entry for any
// unallocated remainder dated at the payment. Zero-amount entries are
// never emitted, so a fully re-allocated payment with no remainder
// simply disappears from the statement.
func expandPayment(p PaymentLine) []Entry {
	out := make([]Entry, 0, len(p.Allocations)+1)
	for _, a := range p.Allocations {
		if !a.Amount.IsPositive() {
			continue
		}
		a := a
		out = append(out, Entry{
			Kind:        EntryKindPayment,
			EntryType:   p.EntryType,
			Date:        a.AppliedAt,
			Amount:      a.Amount,
			ReferenceID: &p.ID,
			Description: paymentDescription(p, &a.QuotationID),
		})
	}
	if p.Unallocated.IsPositive() {
		out = append(out, Entry{
			Kind:        EntryKindPayment,
			EntryType:   p.EntryType,
			Date:        p.Date,
			Amount:      p.Unallocated,
			ReferenceID: &p.ID,
			Description: paymentDescription(p, nil),
		})
	}
	return out
}

func paymentDescription(p PaymentLine, quotationID *uuid.UUID) string {
	label := "Payment"
	if p.Reference != "" {
		label = fmt.Sprintf("Payment %s", p.Reference)
	}
	if quotationID != nil {
		return fmt.Sprintf("%s applied to quotation %s", label, quotationID)
	}
	if len(p.Allocations) > 0 {
		return fmt.Sprintf("%s (unallocated remainder)", label)
	}
	return label
}
