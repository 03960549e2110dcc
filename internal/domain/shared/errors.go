package shared

// ErrorKind classifies domain errors so the transport layer can map them
// to a response without inspecting individual codes.
type ErrorKind string

const (
	// KindValidation covers malformed or out-of-range input: missing ids,
	// non-positive amounts, allocations exceeding the unallocated balance.
	KindValidation ErrorKind = "VALIDATION"
	// KindNotFound covers absent or soft-deleted resources.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindLinkage covers a quotation that does not belong to the stated
	// party, or a quotation with no party linkage at all.
	KindLinkage ErrorKind = "LINKAGE"
	// KindConsistency marks a violated post-condition. These indicate a
	// logic bug and abort the enclosing transaction.
	KindConsistency ErrorKind = "CONSISTENCY"
	// KindConflict covers concurrent modification (version mismatch).
	KindConflict ErrorKind = "CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error of the given kind
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(code, message string) *DomainError {
	return NewDomainError(KindNotFound, code, message)
}

// NewLinkageError creates a party-linkage error
func NewLinkageError(code, message string) *DomainError {
	return NewDomainError(KindLinkage, code, message)
}

// NewConsistencyError creates a consistency error
func NewConsistencyError(code, message string) *DomainError {
	return NewDomainError(KindConsistency, code, message)
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	de, ok := err.(*DomainError)
	return ok && de.Kind == kind
}

// Common domain errors
var (
	ErrNotFound            = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewValidationError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(KindConflict, "CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrNoPartyLinkage      = NewLinkageError("NO_PARTY_LINKAGE", "Quotation is not linked to any party")
)
