package party

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// Role tags which side of a transaction a party sits on
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
)

// IsValid checks if the role is a valid Role
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleVendor
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Party represents a customer or vendor account against which money is
// tracked. The role is fixed at creation; allocation and ledger logic
// dispatch on it once at the entry point.
type Party struct {
	shared.TenantAggregateRoot
	Role               Role                  `gorm:"type:varchar(10);not null;index:idx_parties_tenant_role"`
	Name               string                `gorm:"type:varchar(200);not null"`
	Email              string                `gorm:"type:varchar(200)"`
	Phone              string                `gorm:"type:varchar(50)"`
	OpeningBalance     decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	OpeningBalanceType valueobject.EntryType `gorm:"type:varchar(10);not null;default:'debit'"`
	Remark             string                `gorm:"type:text"`
	DeletedAt          gorm.DeletedAt        `gorm:"index"`
}

// TableName returns the table name for GORM
func (Party) TableName() string {
	return "parties"
}

// NewParty creates a new party. A zero opening balance means the party
// starts with no opening ledger entry.
func NewParty(
	tenantID uuid.UUID,
	role Role,
	name string,
	openingBalance decimal.Decimal,
	openingBalanceType valueobject.EntryType,
) (*Party, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("INVALID_ROLE", "Party role must be customer or vendor")
	}
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Party name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("INVALID_NAME", "Party name cannot exceed 200 characters")
	}
	if openingBalance.IsNegative() {
		return nil, shared.NewValidationError("INVALID_OPENING_BALANCE", "Opening balance cannot be negative")
	}
	if openingBalanceType == "" {
		openingBalanceType = valueobject.EntryTypeDebit
	}
	if !openingBalanceType.IsValid() {
		return nil, shared.NewValidationError("INVALID_BALANCE_TYPE", "Balance type must be debit or credit")
	}

	return &Party{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Role:                role,
		Name:                name,
		OpeningBalance:      openingBalance,
		OpeningBalanceType:  openingBalanceType,
	}, nil
}

// HasOpeningBalance reports whether the party carries a positive opening
// balance that should appear as the first ledger entry.
func (p *Party) HasOpeningBalance() bool {
	return p.OpeningBalance.IsPositive()
}

// SetOpeningBalance updates the opening balance and its side
func (p *Party) SetOpeningBalance(amount decimal.Decimal, balanceType valueobject.EntryType) error {
	if amount.IsNegative() {
		return shared.NewValidationError("INVALID_OPENING_BALANCE", "Opening balance cannot be negative")
	}
	if !balanceType.IsValid() {
		return shared.NewValidationError("INVALID_BALANCE_TYPE", "Balance type must be debit or credit")
	}
	p.OpeningBalance = amount
	p.OpeningBalanceType = balanceType
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetContact updates the contact details
func (p *Party) SetContact(email, phone string) {
	p.Email = email
	p.Phone = phone
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Rename changes the party name
func (p *Party) Rename(name string) error {
	if name == "" {
		return shared.NewValidationError("INVALID_NAME", "Party name cannot be empty")
	}
	p.Name = name
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetRemark sets the remark
func (p *Party) SetRemark(remark string) {
	p.Remark = remark
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
