// Package errors provides the structured error values used across the build
// core. Every failure is a value carrying (message, filename-or-empty,
// line-number-or-0); nothing in the core panics or exits on bad input.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a build error for branching and reporting.
type Kind string

const (
	KindHeaderNotFound        Kind = "header_not_found"
	KindUnexpectedEOF         Kind = "unexpected_eof"
	KindMissingRequiredKeys   Kind = "missing_required_keys"
	KindInvalidInteger        Kind = "invalid_integer"
	KindInvalidDateTime       Kind = "invalid_datetime"
	KindInvalidValueType      Kind = "invalid_value_type"
	KindUnsupportedListOfList Kind = "unsupported_list_of_list"
	KindFile                  Kind = "file"
	KindInvalidTemplate       Kind = "invalid_template"
)

// Error is the single structured error shape shared by the parser, the
// pipeline and the orchestrator.
type Error struct {
	Kind    Kind
	Message string
	Path    string   // source filename, empty when not file-related
	Line    int      // 1-based line number, 0 when not applicable
	Key     string   // header key, set for coercion failures
	Keys    []string // missing required keys, in reported order
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches errors by Kind so callers can use errors.Is with a sentinel
// value such as &Error{Kind: KindFile}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Aggregate collects every child task failure of one pipeline stage, in
// task order. It is never constructed empty and never contains a partial
// success.
type Aggregate struct {
	Stage  string
	Errors []error
}

// NewAggregate builds an Aggregate for a stage. Callers must pass at least
// one error.
func NewAggregate(stage string, errs []error) *Aggregate {
	return &Aggregate{Stage: stage, Errors: errs}
}

// Error renders a one-report-per-build multi-error listing.
func (a *Aggregate) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage %s failed with %d error(s):", a.Stage, len(a.Errors))
	for _, err := range a.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the child errors for errors.Is / errors.As traversal.
func (a *Aggregate) Unwrap() []error { return a.Errors }
