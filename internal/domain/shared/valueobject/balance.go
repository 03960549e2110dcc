package valueobject

import (
	"github.com/shopspring/decimal"
)

// EntryType is the side of an account an amount sits on
type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// IsValid checks if the entry type is valid
func (t EntryType) IsValid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// String returns the string representation of the entry type
func (t EntryType) String() string {
	return string(t)
}

// Opposite returns the opposing entry type
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// Balance is a signed account position expressed as a non-negative amount
// plus the side it falls on. A zero balance is reported as a debit balance.
type Balance struct {
	Amount decimal.Decimal `json:"amount"`
	Type   EntryType       `json:"balance_type"`
}

// NetBalance nets total debit against total credit. A non-negative net
// (ties included) yields a debit balance, a negative net a credit balance
// with the absolute amount.
func NetBalance(totalDebit, totalCredit decimal.Decimal) Balance {
	net := totalDebit.Sub(totalCredit)
	if net.Sign() >= 0 {
		return Balance{Amount: net, Type: EntryTypeDebit}
	}
	return Balance{Amount: net.Abs(), Type: EntryTypeCredit}
}

// ZeroBalance returns the zero debit balance
func ZeroBalance() Balance {
	return Balance{Amount: decimal.Zero, Type: EntryTypeDebit}
}

// IsZero returns true if the balance amount is zero
func (b Balance) IsZero() bool {
	return b.Amount.IsZero()
}

// Signed returns the balance as a signed decimal: debit positive,
// credit negative.
func (b Balance) Signed() decimal.Decimal {
	if b.Type == EntryTypeCredit {
		return b.Amount.Neg()
	}
	return b.Amount
}
