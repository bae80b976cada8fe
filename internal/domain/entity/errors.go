package entity

import "fmt"

const (
	ParseReasonMissingMarker    = "missing action marker"
	ParseReasonMalformedArg     = "malformed argument"
	ParseReasonUnknownKind      = "unknown action kind"
	ValidationReasonNotPermitted = "domain not permitted"
)

// ParseError reports a model reply that violates the action grammar.
// The loop recovers from it with a corrective re-prompt.
type ParseError struct {
	Reason string
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return "parse error: " + e.Reason
	}
	return fmt.Sprintf("parse error: %s: %s", e.Reason, e.Detail)
}

// ValidationError reports a well-formed action rejected by policy.
// The loop recovers from it with a denial re-prompt.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Reason, e.Detail)
}

// FatalEnvironmentError wraps an environment failure the episode
// cannot recover from. Ordinary execution failures are returned as
// plain errors and fed back to the model as observations.
type FatalEnvironmentError struct {
	Err error
}

func (e *FatalEnvironmentError) Error() string {
	return "environment fatal: " + e.Err.Error()
}

func (e *FatalEnvironmentError) Unwrap() error {
	return e.Err
}
