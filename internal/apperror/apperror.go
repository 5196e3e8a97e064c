// Package apperror classifies failures the way the user sees them: a local
// validation problem, a business failure reported by the clinic backend, a
// transport failure, or a restricted patient account.
package apperror

import (
	"errors"
	"net/http"
)

// Kind is the category of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindBusiness
	KindTransport
	KindRestricted
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindBusiness:
		return "request_failed"
	case KindTransport:
		return "backend_unavailable"
	case KindRestricted:
		return "account_restricted"
	default:
		return "internal_error"
	}
}

// GenericFailureMessage is shown for transport failures, where there is no
// backend message to relay.
const GenericFailureMessage = "Could not reach the clinic server. Please check your connection and try again."

// Error carries a Kind and the user-facing message for that failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a local input problem caught before any network call.
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// Business reports a `success: false` response. message is the backend's text
// and is shown unchanged.
func Business(message string) error {
	return &Error{Kind: KindBusiness, Message: message}
}

// Transport wraps a network or decoding failure.
func Transport(err error) error {
	return &Error{Kind: KindTransport, Err: err}
}

// Restricted reports that a workflow was short-circuited because the
// patient's account is restricted.
func Restricted(message string) error {
	return &Error{Kind: KindRestricted, Message: message}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the canonical text to show for err. Backend messages are
// never replaced; transport and unknown failures get the generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindValidation, KindBusiness, KindRestricted:
			if e.Message != "" {
				return e.Message
			}
		}
	}
	return GenericFailureMessage
}

// HTTPStatus maps err to the status code the gateway answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindBusiness:
		return http.StatusUnprocessableEntity
	case KindTransport:
		return http.StatusBadGateway
	case KindRestricted:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
