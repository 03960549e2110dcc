package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
)

// EntryKind distinguishes the three sources a ledger entry can come from
type EntryKind string

const (
	EntryKindOpening   EntryKind = "opening"
	EntryKindQuotation EntryKind = "quotation"
	EntryKindPayment   EntryKind = "payment"
)

// PaymentStatus is the derived settlement state of a quotation
type PaymentStatus string

const (
	PaymentStatusNone    PaymentStatus = "none"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// StatusFor derives a quotation's payment status and outstanding amount
// from its resolved total and the globally allocated sum. A zero-amount
// quotation is "none" with zero outstanding; over-allocation clamps the
// outstanding at zero rather than going negative.
func StatusFor(total, allocated decimal.Decimal) (PaymentStatus, decimal.Decimal) {
	if !total.IsPositive() {
		return PaymentStatusNone, decimal.Zero
	}
	outstanding := total.Sub(allocated)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	switch {
	case !allocated.IsPositive():
		return PaymentStatusNone, outstanding
	case allocated.GreaterThanOrEqual(total):
		return PaymentStatusPaid, outstanding
	default:
		return PaymentStatusPartial, outstanding
	}
}

// Entry is one derived line of a party's account statement. Entries are
// computed fresh on every ledger request and have no identity of their own.
type Entry struct {
	Kind              EntryKind             `json:"type"`
	EntryType         valueobject.EntryType `json:"entry_type"`
	Date              time.Time             `json:"date"`
	Amount            decimal.Decimal       `json:"amount"`
	ReferenceID       *uuid.UUID            `json:"reference_id,omitempty"`
	Description       string                `json:"description,omitempty"`
	PaymentStatus     PaymentStatus         `json:"payment_status,omitempty"`
	AllocatedAmount   *decimal.Decimal      `json:"allocated_amount,omitempty"`
	OutstandingAmount *decimal.Decimal      `json:"outstanding_amount,omitempty"`
	ClosingBalance    valueobject.Balance   `json:"closing_balance"`
}

// Totals accumulates the debit and credit sides of a statement
type Totals struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// Statement is a party's full account statement: entries in reverse
// chronological order plus the final totals and closing balance.
type Statement struct {
	Entries        []Entry             `json:"entries"`
	Totals         Totals              `json:"totals"`
	ClosingBalance valueobject.Balance `json:"closing_balance"`
}
