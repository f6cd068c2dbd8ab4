// internal/faults/faults.go
package faults

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a business failure so the transport layer can translate it
// into a client-facing response without inspecting message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindLimitExceeded
	KindOutOfStock
	KindIntegrityFailure
	KindUnauthorized
	KindRateLimited
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindLimitExceeded:
		return "limit_exceeded"
	case KindOutOfStock:
		return "out_of_stock"
	case KindIntegrityFailure:
		return "integrity_failure"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Fault is a business error with a classification kind and a human-readable
// description. The core supplies the kind, not a transport status code.
type Fault struct {
	Kind Kind
	Msg  string
}

func (f *Fault) Error() string {
	return f.Msg
}

// New builds a Fault with the given kind and message.
func New(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Fault {
	return New(KindNotFound, format, args...)
}

func InvalidState(format string, args ...any) *Fault {
	return New(KindInvalidState, format, args...)
}

func LimitExceeded(format string, args ...any) *Fault {
	return New(KindLimitExceeded, format, args...)
}

func OutOfStock(format string, args ...any) *Fault {
	return New(KindOutOfStock, format, args...)
}

func IntegrityFailure(format string, args ...any) *Fault {
	return New(KindIntegrityFailure, format, args...)
}

func Unauthorized(format string, args ...any) *Fault {
	return New(KindUnauthorized, format, args...)
}

func RateLimited(format string, args ...any) *Fault {
	return New(KindRateLimited, format, args...)
}

// KindOf extracts the kind from err, unwrapping as needed.
// Errors that are not Faults report KindUnknown.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// HTTPStatus is the pure mapping from failure kind to response status,
// consumed by the transport layer.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusBadRequest
	case KindLimitExceeded:
		return http.StatusConflict
	case KindOutOfStock:
		return http.StatusConflict
	case KindIntegrityFailure:
		return http.StatusInternalServerError
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
