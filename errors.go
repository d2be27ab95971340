package scanrules

import (
	"errors"
	"strings"
)

// Error is the scanrules error domain type.
//
// Errors coming from scanrules components should be able to be inspected as
// ([errors.As]) an *Error at some point in the error chain.
//
// Implementers of scanrules components should create an Error where input
// text is rejected (a malformed host atom, an unparseable recurrence) and
// intermediate layers should not wrap in another Error except to add
// additional [ErrorKind] information. That is to say, use [fmt.Errorf] with a
// "%w" verb in preference to creating a containing Error.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

// Assert this implements all the cool features.
var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrParse,
		ErrRange,
		ErrPrecondition,
		ErrInternal:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]: ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is].
//
// It compares the error kind. Callers should compare against a declared
// [ErrorKind] over a specific error.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents classes of errors to be checked against.
//
// If an error is unsure which kind to use, ErrInternal should be used.
type ErrorKind string

// Defined error kinds.
//
// ErrParse and ErrRange report malformed input data; call boundaries are
// expected to convert them to each operation's documented permissive default.
// ErrPrecondition reports a caller contract violation (a non-positive cap, a
// negative periods offset) and must be propagated, never defaulted away.
var (
	ErrParse        = ErrorKind("parse")        // malformed atom or component
	ErrRange        = ErrorKind("range")        // inverted range or prefix out of bounds
	ErrPrecondition = ErrorKind("precondition") // caller contract violation
	ErrInternal     = ErrorKind("internal")     // non-specific internal error
)

// Error implements error.
func (e ErrorKind) Error() string {
	return string(e)
}
