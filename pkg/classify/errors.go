package classify

import (
	"errors"
	"fmt"
)

const (
	errorCodeInvalidRule = "RULE_INVALID"
	errorCodeDuplicate   = "RULE_DUPLICATE"
)

var (
	// ErrInvalidRule indicates a signature rule that cannot be applied as declared.
	ErrInvalidRule = errors.New("invalid signature rule")
	// ErrDuplicateRule indicates two rules share an id or a priority.
	ErrDuplicateRule = errors.New("duplicate signature rule")
)

// RuleError reports a rejected rule.
type RuleError struct {
	ID     int
	Reason string
	Err    error
}

func (e *RuleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rule %d: %s: %v", e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("rule %d: %s", e.ID, e.Reason)
}

func (e *RuleError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidRule, e.Err}
	}
	return []error{ErrInvalidRule}
}

func invalid(id int, format string, args ...any) error {
	return &RuleError{ID: id, Reason: fmt.Sprintf(format, args...)}
}

// ErrorCode resolves an error to its rule error code, or "" when unrelated.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateRule):
		return errorCodeDuplicate
	case errors.Is(err, ErrInvalidRule):
		return errorCodeInvalidRule
	default:
		return ""
	}
}
