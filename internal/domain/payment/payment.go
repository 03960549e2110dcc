package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// AmountType tags which price an allocation settles: the customer-facing
// selling price or the vendor-facing cost price.
type AmountType string

const (
	AmountTypeSelling AmountType = "selling"
	AmountTypeCost    AmountType = "cost"
)

// IsValid checks if the amount type is valid
func (t AmountType) IsValid() bool {
	return t == AmountTypeSelling || t == AmountTypeCost
}

// AmountTypeFor returns the amount type implied by a party role:
// customer allocations settle the selling price, vendor allocations the
// cost price.
func AmountTypeFor(role party.Role) AmountType {
	if role == party.RoleVendor {
		return AmountTypeCost
	}
	return AmountTypeSelling
}

// Method represents how the money moved
type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
	MethodCard         Method = "card"
	MethodCheque       Method = "cheque"
	MethodOther        Method = "other"
)

// IsValid checks if the payment method is valid
func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCard, MethodCheque, MethodOther:
		return true
	}
	return false
}

// Allocation earmarks a portion of a payment against one quotation
type Allocation struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuotationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountType  AmountType      `gorm:"type:varchar(10);not null"`
	AppliedAt   time.Time       `gorm:"not null"`
	Remark      string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Allocation) TableName() string {
	return "payment_allocations"
}

// InitialAllocation is an allocation supplied at payment creation time
type InitialAllocation struct {
	QuotationID uuid.UUID
	Amount      decimal.Decimal
	Remark      string
}

// Payment represents a single money movement against one party, partially
// or fully allocable to quotations. The conservation invariant
// sum(allocations) + unallocated == amount holds after every mutation.
type Payment struct {
	shared.TenantAggregateRoot
	PartyRole         party.Role            `gorm:"type:varchar(10);not null;index:idx_payments_tenant_party"`
	PartyID           uuid.UUID             `gorm:"type:uuid;not null;index:idx_payments_tenant_party"`
	Amount            decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	EntryType         valueobject.EntryType `gorm:"type:varchar(10);not null"`
	AllocatedAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	UnallocatedAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency          valueobject.Currency  `gorm:"type:varchar(3);not null;default:'USD'"`
	Method            Method                `gorm:"type:varchar(20);not null"`
	Reference         string                `gorm:"type:varchar(100)"`
	PaymentDate       time.Time             `gorm:"not null"`
	Allocations       []Allocation          `gorm:"foreignKey:PaymentID;references:ID"`
	Remark            string                `gorm:"type:text"`
	DeletedAt         gorm.DeletedAt        `gorm:"index"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a payment, applying any creation-time allocations.
// The conservation check runs before the payment is returned: the initial
// allocations may not exceed the payment amount.
func NewPayment(
	tenantID uuid.UUID,
	role party.Role,
	partyID uuid.UUID,
	amount valueobject.Money,
	entryType valueobject.EntryType,
	method Method,
	paymentDate time.Time,
	initial []InitialAllocation,
) (*Payment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("INVALID_ROLE", "Party role must be customer or vendor")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !entryType.IsValid() {
		return nil, shared.NewValidationError("INVALID_ENTRY_TYPE", "Entry type must be debit or credit")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("INVALID_METHOD", "Payment method is not valid")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_PAYMENT_DATE", "Payment date is required")
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PartyRole:           role,
		PartyID:             partyID,
		Amount:              amount.Amount(),
		EntryType:           entryType,
		AllocatedAmount:     decimal.Zero,
		UnallocatedAmount:   amount.Amount(),
		Currency:            amount.Currency(),
		Method:              method,
		PaymentDate:         paymentDate,
		Allocations:         make([]Allocation, 0, len(initial)),
	}

	for _, ia := range initial {
		if _, err := p.Allocate(ia.QuotationID, ia.Amount, paymentDate, ia.Remark); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// AmountType returns the amount type every allocation of this payment
// carries, derived from the party role.
func (p *Payment) AmountType() AmountType {
	return AmountTypeFor(p.PartyRole)
}

// Allocate earmarks amount against a quotation. The allocation is capped
// by the unallocated remainder only; over-allocating beyond what the
// quotation is worth is the caller's decision to make.
func (p *Payment) Allocate(quotationID uuid.UUID, amount decimal.Decimal, appliedAt time.Time, remark string) (*Allocation, error) {
	if quotationID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_QUOTATION", "Quotation ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	if amount.GreaterThan(p.UnallocatedAmount) {
		return nil, shared.NewValidationError("EXCEEDS_UNALLOCATED",
			fmt.Sprintf("Allocation amount %s exceeds unallocated amount %s",
				amount.StringFixed(2), p.UnallocatedAmount.StringFixed(2)))
	}
	if appliedAt.IsZero() {
		appliedAt = p.PaymentDate
	}

	allocation := Allocation{
		ID:          uuid.New(),
		PaymentID:   p.ID,
		QuotationID: quotationID,
		Amount:      amount,
		AmountType:  p.AmountType(),
		AppliedAt:   appliedAt,
		Remark:      remark,
	}
	p.Allocations = append(p.Allocations, allocation)

	p.AllocatedAmount = p.AllocatedAmount.Add(amount)
	p.UnallocatedAmount = p.Amount.Sub(p.AllocatedAmount)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	if err := p.CheckConservation(); err != nil {
		return nil, err
	}

	return &p.Allocations[len(p.Allocations)-1], nil
}

// CheckConservation verifies sum(allocations) + unallocated == amount and
// that every allocation amount is positive. A failure here is a logic bug
// and must abort the enclosing transaction.
func (p *Payment) CheckConservation() error {
	sum := decimal.Zero
	for _, a := range p.Allocations {
		if !a.Amount.IsPositive() {
			return shared.NewConsistencyError("NON_POSITIVE_ALLOCATION",
				fmt.Sprintf("Allocation %s has non-positive amount %s", a.ID, a.Amount.String()))
		}
		sum = sum.Add(a.Amount)
	}
	if p.UnallocatedAmount.IsNegative() {
		return shared.NewConsistencyError("NEGATIVE_UNALLOCATED",
			fmt.Sprintf("Unallocated amount %s is negative", p.UnallocatedAmount.String()))
	}
	if !sum.Add(p.UnallocatedAmount).Equal(p.Amount) {
		return shared.NewConsistencyError("CONSERVATION_VIOLATED",
			fmt.Sprintf("Allocations %s plus unallocated %s do not equal payment amount %s",
				sum.String(), p.UnallocatedAmount.String(), p.Amount.String()))
	}
	return nil
}

// AllocatedTo returns the total amount this payment has allocated to the
// given quotation across all of its allocation entries.
func (p *Payment) AllocatedTo(quotationID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range p.Allocations {
		if a.QuotationID == quotationID {
			sum = sum.Add(a.Amount)
		}
	}
	return sum
}

// HasUnallocated reports whether any portion of the payment remains free
func (p *Payment) HasUnallocated() bool {
	return p.UnallocatedAmount.IsPositive()
}

// IsFullyAllocated reports whether the whole amount has been earmarked
func (p *Payment) IsFullyAllocated() bool {
	return p.UnallocatedAmount.IsZero()
}

// SetReference sets the external payment reference
func (p *Payment) SetReference(reference string) error {
	if len(reference) > 100 {
		return shared.NewValidationError("INVALID_REFERENCE", "Payment reference cannot exceed 100 characters")
	}
	p.Reference = reference
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetRemark sets the remark
func (p *Payment) SetRemark(remark string) {
	p.Remark = remark
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
