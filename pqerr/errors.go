// Package pqerr defines the structured error type shared by the codec, the
// registry and the hybrid resolver.
package pqerr

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// Decoding covers truncated input, non-canonical tags, lengths or content,
	// trailing bytes and structures that do not match the expected schema.
	Decoding Kind = "Decoding"
	// Encoding covers values that cannot be serialized (for example an
	// OBJECT IDENTIFIER with fewer than two arcs).
	Encoding Kind = "Encoding"
	// MismatchedKeyType is returned when paired keys disagree on privacy.
	MismatchedKeyType Kind = "MismatchedKeyType"
	// UnsupportedCombination is returned when a key is outside the
	// classification catalog.
	UnsupportedCombination Kind = "UnsupportedCombination"
	// UnknownAlgorithm is returned when a name or identifier has no registry entry.
	UnknownAlgorithm Kind = "UnknownAlgorithm"
	// InvalidArgument is returned for nil or absent required input.
	InvalidArgument Kind = "InvalidArgument"
	Internal        Kind = "Internal"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., DER-LEN-002, HYB-001, REG-001) that
// names the violated rule.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns a structured error without a cause.
func New(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// Wrap returns a structured error carrying cause. A nil cause behaves like New.
func Wrap(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return New(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of the outermost structured error, or "" if err
// carries none.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
