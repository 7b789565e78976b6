package domain

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the API can surface. Handlers return
// *Error values upward; the global error handler maps each kind to an
// HTTP status and renders the standard error envelope.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindValidationFailed Kind = "validation_failed"
	KindNotFound         Kind = "not_found"
	KindUploadFailed     Kind = "upload_failed"
	KindGeocodingFailed  Kind = "geocoding_failed"
	KindDuplicateUser    Kind = "duplicate_user"
	KindInternal         Kind = "internal"
)

// FieldViolation names one invalid payload field with a human message.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the one error type services return. Message is safe to show to
// the caller; the wrapped cause (provider/storage detail) is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldViolation
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func DuplicateUser(message string) *Error {
	return &Error{Kind: KindDuplicateUser, Message: message}
}

// ValidationFailed carries every violated field, not just the first.
func ValidationFailed(fields []FieldViolation) *Error {
	return &Error{Kind: KindValidationFailed, Message: "Validation failed", Fields: fields}
}

func UploadFailed(cause error) *Error {
	return &Error{Kind: KindUploadFailed, Message: "Image upload failed", cause: cause}
}

func GeocodingFailed(cause error) *Error {
	return &Error{Kind: KindGeocodingFailed, Message: "Could not resolve location to coordinates", cause: cause}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal Server Error", cause: cause}
}

// Wrap classifies err: *Error values pass through, anything else becomes
// KindInternal so unrecognized failures never leak provider detail.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf returns the classified kind of err (KindInternal for unknowns).
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Wrap(err).Kind
}
