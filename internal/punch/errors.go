package punch

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrConsistency = errors.New("consistency error")
	ErrNotFound    = errors.New("not found")
	ErrImport      = errors.New("import error")
	ErrStorage     = errors.New("storage error")
)

// Error is a domain failure naming the rule that was violated.
type Error struct {
	Kind error
	Rule string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.Error()
	if e.Rule != "" {
		s += " [" + e.Rule + "]"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Validation reports a malformed or duplicate punch.
func Validation(rule, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

// Consistency reports a punch that contradicts the day's sequence.
func Consistency(rule, format string, args ...any) error {
	return &Error{Kind: ErrConsistency, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown record id.
func NotFound(id int64) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf("record %d", id)}
}

// Import reports a malformed import payload.
func Import(format string, args ...any) error {
	return &Error{Kind: ErrImport, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure.
func Storage(op string, err error) error {
	return &Error{Kind: ErrStorage, Msg: op, Err: err}
}
