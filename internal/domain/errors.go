package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer. Every error that leaves
// a service carries exactly one kind.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func ConflictError(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func UnauthorizedError(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func InternalError(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the kind of an error; anything unclassified is internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
