package pattern

import (
	"errors"
	"fmt"
)

const (
	errorCodeInvalid   = "PATTERN_INVALID"
	errorCodeDuplicate = "PATTERN_DUPLICATE"
	errorCodeUnknown   = "PATTERN_UNKNOWN"
)

var (
	// ErrInvalidPattern indicates a definition that cannot be compiled or is inconsistent
	// with its declared role or arity.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrDuplicateName indicates two definitions share a name.
	ErrDuplicateName = errors.New("duplicate pattern name")
	// ErrUnknownPattern indicates a lookup of a name the registry does not hold.
	ErrUnknownPattern = errors.New("unknown pattern")
)

// InvalidPatternError reports a definition rejected at load or lookup time.
type InvalidPatternError struct {
	Name   string
	Reason string
	Err    error
}

func (e *InvalidPatternError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %s: %v", ErrInvalidPattern, e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %q: %s", ErrInvalidPattern, e.Name, e.Reason)
}

func (e *InvalidPatternError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidPattern, e.Err}
	}
	return []error{ErrInvalidPattern}
}

// DuplicateNameError reports a name declared more than once.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q", ErrDuplicateName, e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// UnknownPatternError reports a lookup miss. It is never swallowed: a missing pattern
// disables an entire extraction path.
type UnknownPatternError struct {
	Name string
}

func (e *UnknownPatternError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownPattern, e.Name)
}

func (e *UnknownPatternError) Unwrap() error { return ErrUnknownPattern }

// ErrorCode resolves an error to its pattern error code, or "" when unrelated.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPattern):
		return errorCodeInvalid
	case errors.Is(err, ErrDuplicateName):
		return errorCodeDuplicate
	case errors.Is(err, ErrUnknownPattern):
		return errorCodeUnknown
	default:
		return ""
	}
}
