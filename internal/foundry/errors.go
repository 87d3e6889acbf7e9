package foundry

import (
	"errors"
	"fmt"
)

// Kind classifies a Foundry error so callers can branch on failure mode
// without parsing message strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindValidationFailed
	KindNotFound
	KindAlreadyExists
	KindAmbiguous
	KindConflict
	KindIo
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindValidationFailed:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindAmbiguous:
		return "ambiguous"
	case KindConflict:
		return "conflict"
	case KindIo:
		return "io"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every Foundry operation. Candidates
// carries selector suggestions for Ambiguous errors; it is nil otherwise.
type Error struct {
	Kind       Kind
	Message    string
	Candidates []string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

// InvalidInput builds a KindInvalidInput error.
func InvalidInput(format string, args ...any) *Error {
	return newErr(KindInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return newErr(KindNotFound, fmt.Sprintf(format, args...))
}

// AlreadyExists builds a KindAlreadyExists error.
func AlreadyExists(format string, args ...any) *Error {
	return newErr(KindAlreadyExists, fmt.Sprintf(format, args...))
}

// Ambiguous builds a KindAmbiguous error carrying candidate names.
func Ambiguous(message string, candidates []string) *Error {
	return &Error{Kind: KindAmbiguous, Message: message, Candidates: candidates}
}

// Io wraps an underlying storage error as KindIo.
func Io(context string, cause error) *Error {
	return wrapErr(KindIo, context, cause)
}

// Unsupported builds a KindUnsupported error.
func Unsupported(format string, args ...any) *Error {
	return newErr(KindUnsupported, fmt.Sprintf(format, args...))
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return newErr(KindConflict, fmt.Sprintf(format, args...))
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
