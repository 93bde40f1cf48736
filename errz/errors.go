// Package errz defines the structured errors reported while translating CIL
// methods into SIL control-flow graphs.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a translation error.
type ErrorKind int

const (
	// ErrWorklistUnderflow indicates a pop from an empty instruction worklist.
	ErrWorklistUnderflow ErrorKind = iota + 1
	// ErrOperandStackUnderflow indicates a pop from an empty operand stack.
	ErrOperandStackUnderflow
	// ErrUnsupportedInstruction indicates that no translator accepted an
	// instruction.
	ErrUnsupportedInstruction
	// ErrUnfinishedMethod indicates that a method was abandoned because a
	// delegated instruction translation failed.
	ErrUnfinishedMethod
	// ErrInvalidMethod indicates a malformed decoded method listing.
	ErrInvalidMethod
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrWorklistUnderflow:
		return "worklist underflow"
	case ErrOperandStackUnderflow:
		return "operand stack underflow"
	case ErrUnsupportedInstruction:
		return "unsupported instruction"
	case ErrUnfinishedMethod:
		return "unfinished method"
	case ErrInvalidMethod:
		return "invalid method"
	default:
		return "error"
	}
}

// Error lets a kind be used as an errors.Is target.
func (k ErrorKind) Error() string {
	return k.String()
}

// TranslationError is a rich error type carrying the method and bytecode
// offset at which translation failed.
type TranslationError struct {
	Kind    ErrorKind
	Message string
	Method  string
	// Offset is the bytecode offset of the failing instruction, or -1.
	Offset int
	// Remaining is the number of instructions left untranslated in the
	// method when the failure happened.
	Remaining int
	Cause     error
}

// Error implements the error interface.
func (e *TranslationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
	if e.Method != "" {
		msg = fmt.Sprintf("%s (method %s", msg, e.Method)
		if e.Offset >= 0 {
			msg = fmt.Sprintf("%s, IL_%04x", msg, e.Offset)
		}
		msg += ")"
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// Is matches a TranslationError against its kind.
func (e *TranslationError) Is(target error) bool {
	if kind, ok := target.(ErrorKind); ok {
		return e.Kind == kind
	}
	return false
}

// IsFatal reports whether the error violates the decoder contract rather
// than signaling an instruction the translator declined.
func (e *TranslationError) IsFatal() bool {
	switch e.Kind {
	case ErrUnsupportedInstruction, ErrUnfinishedMethod:
		return false
	default:
		return true
	}
}

// New creates a new TranslationError with no method context.
func New(kind ErrorKind, message string) *TranslationError {
	return &TranslationError{
		Kind:    kind,
		Message: message,
		Offset:  -1,
	}
}

// Newf creates a new TranslationError with a formatted message.
func Newf(kind ErrorKind, format string, args ...any) *TranslationError {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithCause wraps the error with a cause.
func (e *TranslationError) WithCause(cause error) *TranslationError {
	e.Cause = cause
	return e
}

// At attaches method and offset context to the error.
func (e *TranslationError) At(method string, offset int) *TranslationError {
	e.Method = method
	e.Offset = offset
	return e
}

// Is reports whether any error in err's chain has the given kind.
func Is(err error, kind ErrorKind) bool {
	return errors.Is(err, kind)
}

// KindOf returns the kind of the outermost TranslationError in err's chain,
// or zero when there is none.
func KindOf(err error) ErrorKind {
	var te *TranslationError
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
