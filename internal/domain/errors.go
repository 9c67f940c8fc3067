package domain

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindUnknown               Kind = "UNKNOWN"
	KindReviewRequired        Kind = "REVIEW_REQUIRED"
	KindInsufficientWords     Kind = "INSUFFICIENT_WORDS"
	KindEmptySession          Kind = "EMPTY_SESSION"
	KindStoreUnavailable      Kind = "STORE_UNAVAILABLE"
	KindNotFound              Kind = "NOT_FOUND"
	KindPartialProgressUpdate Kind = "PARTIAL_PROGRESS_UPDATE"
	KindSessionOver           Kind = "SESSION_OVER"
	KindInvalidArgument       Kind = "INVALID_ARGUMENT"
	KindInvalidCredentials    Kind = "INVALID_CREDENTIALS"
	KindConflict              Kind = "CONFLICT"
	KindForbidden             Kind = "FORBIDDEN"
)

// Error is the domain error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a domain error of kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a domain error of kind with an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Unavailable wraps a failed store call.
func Unavailable(op string, cause error) *Error {
	return Wrap(KindStoreUnavailable, op, cause)
}

// NotFoundf builds a NotFound error.
func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// Sentinels usable with errors.Is; matching is by kind only.
var (
	ErrReviewRequired     = New(KindReviewRequired, "words for this rank must be reviewed before practice")
	ErrInsufficientWords  = New(KindInsufficientWords, "not enough words to build a question")
	ErrEmptySession       = New(KindEmptySession, "session ended without any answered question")
	ErrStoreUnavailable   = New(KindStoreUnavailable, "store unavailable")
	ErrNotFound           = New(KindNotFound, "not found")
	ErrSessionOver        = New(KindSessionOver, "session has no remaining questions")
	ErrInvalidArgument    = New(KindInvalidArgument, "invalid argument")
	ErrInvalidCredentials = New(KindInvalidCredentials, "invalid email or password")
	ErrConflict           = New(KindConflict, "already exists")
	ErrForbidden          = New(KindForbidden, "admin privileges required")

	ErrPartialProgressUpdate = &PartialProgressUpdateError{}
)

// PartialProgressUpdateError is returned when only one half of the
// end-of-session write landed. Nothing is rolled back.
type PartialProgressUpdateError struct {
	StatsWritten    bool
	ProgressWritten bool
	Cause           error
}

func (e *PartialProgressUpdateError) Error() string {
	failed := "stats"
	if e.StatsWritten {
		failed = "rank progress"
	}
	if e.Cause != nil {
		return fmt.Sprintf("partial progress update: %s write failed: %v", failed, e.Cause)
	}
	return "partial progress update: " + failed + " write failed"
}

func (e *PartialProgressUpdateError) Unwrap() error {
	return e.Cause
}

func (e *PartialProgressUpdateError) Is(target error) bool {
	switch t := target.(type) {
	case *PartialProgressUpdateError:
		return true
	case *Error:
		return t.Kind == KindPartialProgressUpdate
	}
	return false
}

// KindOf extracts the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var partial *PartialProgressUpdateError
	if errors.As(err, &partial) {
		return KindPartialProgressUpdate
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
