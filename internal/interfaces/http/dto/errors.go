package dto

import (
	"net/http"

	"github.com/travelops/backend/internal/domain/shared"
)

// Transport-level error codes, used when no domain error is available
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
)

// kindHTTPStatus maps domain error kinds to HTTP status codes.
// Linkage violations are well-formed requests naming the wrong
// resources, so they map to 422 rather than 400. Consistency failures
// are server bugs, never the client's fault.
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:  http.StatusBadRequest,
	shared.KindNotFound:    http.StatusNotFound,
	shared.KindLinkage:     http.StatusUnprocessableEntity,
	shared.KindConflict:    http.StatusConflict,
	shared.KindConsistency: http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status for a domain error kind,
// defaulting to 500 for unknown kinds
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
