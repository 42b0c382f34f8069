package dump

import (
	"context"
	"errors"
	"fmt"

	"github.com/vulntor/fabricscan/pkg/classify"
	"github.com/vulntor/fabricscan/pkg/pattern"
	"github.com/vulntor/fabricscan/pkg/section"
)

const (
	errorCodeUnknownProfile = "PROFILE_UNKNOWN"
	errorCodeDuplicateKey   = "DUPLICATE_KEY"
	errorCodeInvalidSection = "SECTION_INVALID"
	errorCodeRead           = "READ_FAILED"
	errorCodeCanceled       = "CANCELED"
)

var (
	// ErrUnknownProfile indicates a profile name that is not built in.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrDuplicateKey indicates a second dump of a system already seen in this run.
	ErrDuplicateKey = errors.New("duplicate business key")
	// ErrRead indicates the dump source failed before its end.
	ErrRead = errors.New("read failed")
)

// UnknownProfileError reports a lookup of a profile that does not exist.
type UnknownProfileError struct {
	Name string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownProfile, e.Name)
}

func (e *UnknownProfileError) Unwrap() error { return ErrUnknownProfile }

// DuplicateKeyError reports a dump whose business key was already recorded.
type DuplicateKeyError struct {
	Key    string
	Source string
	First  string // source that recorded the key first
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s %q in %s (already seen in %s)", ErrDuplicateKey, e.Key, e.Source, e.First)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// ErrorCode resolves err to a stable code for CLI output.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := pattern.ErrorCode(err); code != "" {
		return code
	}
	if code := classify.ErrorCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, ErrUnknownProfile):
		return errorCodeUnknownProfile
	case errors.Is(err, ErrDuplicateKey):
		return errorCodeDuplicateKey
	case errors.Is(err, section.ErrInvalidSpec):
		return errorCodeInvalidSection
	case errors.Is(err, ErrRead):
		return errorCodeRead
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorCodeCanceled
	default:
		return ""
	}
}

// ExitCode maps errors to CLI exit codes. Configuration problems exit with 2.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch ErrorCode(err) {
	case "PATTERN_INVALID", "PATTERN_DUPLICATE", "PATTERN_UNKNOWN",
		"RULE_INVALID", "RULE_DUPLICATE",
		errorCodeUnknownProfile, errorCodeInvalidSection:
		return 2
	case errorCodeDuplicateKey:
		return 3
	case errorCodeCanceled:
		return 130
	default:
		return 1
	}
}

// Suggestions provides CLI hints for err.
func Suggestions(err error) []string {
	switch ErrorCode(err) {
	case "PATTERN_UNKNOWN":
		return []string{
			"List available patterns:   fabricscan patterns",
			"Check section and rule references in the config file",
		}
	case "PATTERN_INVALID", "RULE_INVALID", "RULE_DUPLICATE":
		return []string{
			"Validate the custom catalog files set in catalog.patterns / catalog.signatures",
		}
	case errorCodeUnknownProfile:
		return []string{
			"List built-in profiles:    fabricscan patterns --profiles",
		}
	case errorCodeDuplicateKey:
		return []string{
			"Remove older captures of the same system from the input list",
		}
	default:
		return nil
	}
}
