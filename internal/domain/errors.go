package domain

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

func (e ValidationError) Unwrap() error { return e.Err }

// NotServiceableError rejects a request whose location has no matching service.
// Advisory is shown to the requester as is.
type NotServiceableError struct {
	Pincode  string
	Advisory string
}

func (e NotServiceableError) Error() string {
	if e.Advisory != "" {
		return e.Advisory
	}
	return fmt.Sprintf("pincode %s is not serviceable", e.Pincode)
}

type NotFoundError struct {
	Resource string
	Msg      string
	Err      error
}

func (e NotFoundError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s not found", e.Resource)
	default:
		return "not found"
	}
}

func (e NotFoundError) Unwrap() error { return e.Err }

// UnauthorizedError covers missing credentials, ownership mismatch and platform policy.
type UnauthorizedError struct {
	Msg string
	// Forbidden marks policy rejections of an otherwise identified caller.
	Forbidden bool
}

func (e UnauthorizedError) Error() string {
	if e.Msg == "" {
		return "unauthorized"
	}
	return e.Msg
}

type ConflictError struct {
	Resource  string
	Msg       string
	Retryable bool
	// Throttled marks a per-requester cooldown rejection.
	Throttled bool
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

// UpstreamError wraps a failed call to the payment gateway or another dependency.
type UpstreamError struct {
	Service string
	Msg     string
	Err     error
}

func (e UpstreamError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "upstream request failed"
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }

// IntegrityError signals a payload whose signature does not match.
type IntegrityError struct {
	Msg string
}

func (e IntegrityError) Error() string {
	if e.Msg == "" {
		return "integrity check failed"
	}
	return e.Msg
}

var (
	ErrBookingNotFound  = NotFoundError{Resource: "booking", Msg: "Booking not found"}
	ErrPaymentNotFound  = NotFoundError{Resource: "payment", Msg: "Payment order not found in system"}
	ErrRateNotFound     = NotFoundError{Resource: "scrap rate"}
	ErrUserNotFound     = NotFoundError{Resource: "user"}
	ErrAlreadyVerified  = ConflictError{Resource: "payment", Msg: "Payment already verified"}
	ErrAlreadySettled   = ConflictError{Resource: "booking", Msg: "Payment already completed for this booking"}
	ErrVerifyInProgress = ConflictError{Resource: "payment", Msg: "Payment verification already in progress", Retryable: true}
	ErrSignatureInvalid = IntegrityError{Msg: "Payment signature verification failed"}
	ErrNotOwner         = UnauthorizedError{Msg: "Payment unauthorized for this booking"}
)

// IsRetryable reports whether err is a conflict the caller may retry later.
func IsRetryable(err error) bool {
	var ce ConflictError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}
