// Package diag provides the diagnostic reporter the parser emits against.
// It is the external collaborator spec §6 describes: a reporter with
// error(message, span) -> builder, a chainable span_note, and a terminal
// build().
package diag

import (
	"fmt"

	"github.com/emberlang/ember/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Note is a secondary annotation attached to a diagnostic, pointing at a
// span other than the primary one (e.g. the opener of an unclosed
// delimiter, or an off-the-end "maybe you missed a `;`?" hint).
type Note struct {
	Span    span.Span
	Message string
}

// Diagnostic is a single compiler diagnostic: a primary message and span,
// plus zero or more secondary notes.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     span.Span
	Notes    []Note
}

// String returns a human-readable representation of the diagnostic,
// including any secondary notes.
func (d Diagnostic) String() string {
	msg := fmt.Sprintf("%s at %s: %s", d.Severity, d.Span.Start, d.Message)
	for _, n := range d.Notes {
		msg += fmt.Sprintf("\n  note at %s: %s", n.Span.Start, n.Message)
	}
	return msg
}

// Reporter accumulates diagnostics in emission order. It is append-only:
// the parser never reads it back, only writes to it (spec §5).
type Reporter struct {
	diagnostics []Diagnostic
}

// NewReporter creates an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Diagnostics returns the accumulated diagnostics in emission order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diagnostics
}

// HasErrors reports whether any diagnostic of Error severity was emitted.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Builder accumulates the notes of a single diagnostic before Build
// appends it to the owning Reporter.
type Builder struct {
	reporter *Reporter
	diag     Diagnostic
}

// Error starts building an error diagnostic with the given primary message
// and span. Chain SpanNote calls, then call Build to commit it.
func (r *Reporter) Error(message string, primary span.Span) *Builder {
	return &Builder{
		reporter: r,
		diag: Diagnostic{
			Severity: Error,
			Message:  message,
			Span:     primary,
		},
	}
}

// Warning starts building a warning diagnostic.
func (r *Reporter) Warning(message string, primary span.Span) *Builder {
	return &Builder{
		reporter: r,
		diag: Diagnostic{
			Severity: Warning,
			Message:  message,
			Span:     primary,
		},
	}
}

// SpanNote appends a secondary note at the given span. Repeatable.
func (b *Builder) SpanNote(s span.Span, message string) *Builder {
	b.diag.Notes = append(b.diag.Notes, Note{Span: s, Message: message})
	return b
}

// Build commits the diagnostic to the owning Reporter and returns it.
func (b *Builder) Build() Diagnostic {
	b.reporter.diagnostics = append(b.reporter.diagnostics, b.diag)
	return b.diag
}
