package domain

import (
	"errors"
)

// ErrorKind classifies domain errors so that interfaces can map them to
// their own status codes.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthorization
	KindConflict
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Kind      ErrorKind
	Code      string
	Retryable bool
	msg       string
}

func (e *Error) Error() string {
	return e.msg
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

var (
	// ErrSelfTrade is returned when requester and receiver are the same user.
	ErrSelfTrade = newError(
		KindValidation, "SELF_TRADE", "requester and receiver must be different users",
	)
	// ErrProductNotEligible is returned when an offered product does not
	// exist, is not owned by the offering party or is not active.
	ErrProductNotEligible = newError(
		KindValidation, "PRODUCT_NOT_ELIGIBLE", "offered product is not eligible for exchange",
	)
	// ErrInsufficientInventory is returned when the offered size/color variant
	// does not exist or has not enough available amount.
	ErrInsufficientInventory = newError(
		KindValidation, "INSUFFICIENT_INVENTORY", "not enough inventory for the offered variant",
	)
	// ErrInvalidArgument ...
	ErrInvalidArgument = newError(
		KindValidation, "INVALID_ARGUMENT", "invalid argument",
	)
	// ErrNotParticipant is returned when the acting user is neither the
	// requester nor the receiver of the exchange.
	ErrNotParticipant = newError(
		KindAuthorization, "NOT_PARTICIPANT", "user is not a participant of the exchange",
	)
	// ErrForbiddenTransition is returned when a party tries to mutate the
	// counterparty's track.
	ErrForbiddenTransition = newError(
		KindAuthorization, "FORBIDDEN_TRANSITION", "a party can only update its own track",
	)
	// ErrInvalidTransition is returned for any shipping or confirm target that
	// is not the next allowed step.
	ErrInvalidTransition = newError(
		KindConflict, "INVALID_TRANSITION", "transition not allowed from current status",
	)
	// ErrAlreadyDecided is returned when the party's confirm status is
	// already set.
	ErrAlreadyDecided = newError(
		KindConflict, "ALREADY_DECIDED", "confirmation already decided",
	)
	// ErrShippingNotComplete is returned when a party confirms before its own
	// shipment is delivered.
	ErrShippingNotComplete = newError(
		KindConflict, "SHIPPING_NOT_COMPLETE", "shipping must be delivered before confirming",
	)
	// ErrCannotCancel is returned when canceling an exchange that is not
	// pending anymore.
	ErrCannotCancel = newError(
		KindConflict, "CANNOT_CANCEL", "exchange can be canceled only while pending",
	)
	// ErrConcurrentModification is returned by repositories when the stored
	// version changed between read and commit.
	ErrConcurrentModification = &Error{
		Kind:      KindConflict,
		Code:      "CONCURRENT_MODIFICATION",
		Retryable: true,
		msg:       "exchange was modified concurrently, retry with a fresh read",
	}
	// ErrNotFound ...
	ErrNotFound = newError(KindNotFound, "NOT_FOUND", "not found")
)

// KindOf returns the kind of the domain error wrapped by err, if any.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of the domain error wrapped by err, or
// INTERNAL.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

// IsRetryable returns whether the caller may retry the failed operation with
// a fresh read.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
