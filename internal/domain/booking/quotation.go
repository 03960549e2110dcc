package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelops/backend/internal/domain/party"
	"github.com/travelops/backend/internal/domain/shared"
	"github.com/travelops/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// Quotation represents a priced travel booking. It belongs to one agency
// and is optionally linked to one customer and/or one vendor. The customer
// owes the selling price (TotalAmount); the vendor side may carry a cost
// price inside the dynamic form-field bag.
type Quotation struct {
	shared.TenantAggregateRoot
	Reference   string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_quotations_tenant_ref,priority:2"`
	CustomerID  *uuid.UUID           `gorm:"type:uuid;index"`
	VendorID    *uuid.UUID           `gorm:"type:uuid;index"`
	Title       string               `gorm:"type:varchar(200)"`
	TotalAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	FormFields  FormFields           `gorm:"type:jsonb"`
	TravelDate  *time.Time
	Remark      string         `gorm:"type:text"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (Quotation) TableName() string {
	return "quotations"
}

// NewQuotation creates a new quotation. At least one party linkage is not
// required at creation time; an unlinked quotation simply never appears in
// any ledger.
func NewQuotation(
	tenantID uuid.UUID,
	reference string,
	customerID, vendorID *uuid.UUID,
	totalAmount valueobject.Money,
	formFields FormFields,
) (*Quotation, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if reference == "" {
		return nil, shared.NewValidationError("INVALID_REFERENCE", "Quotation reference cannot be empty")
	}
	if len(reference) > 50 {
		return nil, shared.NewValidationError("INVALID_REFERENCE", "Quotation reference cannot exceed 50 characters")
	}
	if totalAmount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Total amount cannot be negative")
	}
	if customerID != nil && *customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be the nil UUID")
	}
	if vendorID != nil && *vendorID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_VENDOR", "Vendor ID cannot be the nil UUID")
	}
	if formFields == nil {
		formFields = FormFields{}
	}

	return &Quotation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Reference:           reference,
		CustomerID:          customerID,
		VendorID:            vendorID,
		TotalAmount:         totalAmount.Amount(),
		Currency:            totalAmount.Currency(),
		FormFields:          formFields,
	}, nil
}

// PartyIDFor returns the linked party id for the given role, or nil when
// the quotation has no linkage on that side.
func (q *Quotation) PartyIDFor(role party.Role) *uuid.UUID {
	if role == party.RoleCustomer {
		return q.CustomerID
	}
	return q.VendorID
}

// BelongsTo reports whether the quotation is linked to the given party on
// the given side.
func (q *Quotation) BelongsTo(role party.Role, partyID uuid.UUID) bool {
	linked := q.PartyIDFor(role)
	return linked != nil && *linked == partyID
}

// HasAnyLinkage reports whether the quotation is linked to a customer or
// a vendor.
func (q *Quotation) HasAnyLinkage() bool {
	return q.CustomerID != nil || q.VendorID != nil
}

// HasBothLinkages reports whether the quotation is linked on both sides.
// Allocation requests against such quotations must state the party role
// explicitly; it cannot be inferred.
func (q *Quotation) HasBothLinkages() bool {
	return q.CustomerID != nil && q.VendorID != nil
}

// SetTotalAmount updates the selling price
func (q *Quotation) SetTotalAmount(amount valueobject.Money) error {
	if amount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Total amount cannot be negative")
	}
	q.TotalAmount = amount.Amount()
	q.Currency = amount.Currency()
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

// SetFormFields replaces the dynamic field bag
func (q *Quotation) SetFormFields(fields FormFields) {
	if fields == nil {
		fields = FormFields{}
	}
	q.FormFields = fields
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
}

// SetTitle sets the display title
func (q *Quotation) SetTitle(title string) {
	q.Title = title
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
}

// SetTravelDate sets the travel date
func (q *Quotation) SetTravelDate(d *time.Time) {
	q.TravelDate = d
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
}

// SetRemark sets the remark
func (q *Quotation) SetRemark(remark string) {
	q.Remark = remark
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
}
