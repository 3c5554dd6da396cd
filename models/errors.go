package models

import "fmt"

// ErrorKind classifies every failure a user can observe.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindAuth        ErrorKind = "auth"
	KindMedia       ErrorKind = "media"
	KindService     ErrorKind = "service"
	KindPersistence ErrorKind = "persistence"
)

// Error is a user-facing failure. Key is the translation key of the message
// shown to the user and Params fill its placeholders. Cause carries internal
// diagnostics and is never shown.
type Error struct {
	Kind   ErrorKind
	Key    string
	Field  string
	Params map[string]any
	Cause  error
}

func NewError(kind ErrorKind, key string) *Error {
	return &Error{Kind: kind, Key: key}
}

// FieldError builds a validation error scoped to one form field.
func FieldError(field, key string) *Error {
	return &Error{Kind: KindValidation, Key: key, Field: field}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Key, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Key)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on kind and key so sentinel errors survive WithCause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Key == e.Key
}

// WithParams returns a copy of e with message parameters.
func (e *Error) WithParams(params map[string]any) *Error {
	cp := *e
	cp.Params = params
	return &cp
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}
