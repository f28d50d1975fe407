// Package diag implements the diagnostic sink of spec.md §6: a
// structured severity/message/file/span record and a default renderer
// that writes to stderr, color-coding by severity when the destination
// is a terminal. Grounded on the teacher's CLI entrypoint, which
// decides whether to emit ANSI color the same way.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Severity classifies a diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Span is a byte-offset range into a source file, matching ast.Pos.
type Span struct {
	Start int
	End   int
}

// Diagnostic is the structured record the evaluator emits for parse/
// validate failures surfaced by the (external) parser collaborator,
// runtime errors reaching the top level, and SystemErrors re-raised
// after being printed (spec.md §4.G "Failure semantics").
type Diagnostic struct {
	Severity Severity
	Message  string
	FileID   string
	Span     Span
}

// Sink receives diagnostics as they're produced.
type Sink interface {
	Emit(d Diagnostic)
}

// StderrSink is the default Sink: one line per diagnostic, ANSI
// severity color when Out is a terminal.
type StderrSink struct {
	Out   io.Writer
	color bool
}

// NewStderrSink returns a Sink writing to os.Stderr, detecting color
// support via isatty the same way the teacher's CLI front-end chooses
// whether to decorate its own output.
func NewStderrSink() *StderrSink {
	return &StderrSink{Out: os.Stderr, color: isatty.IsTerminal(os.Stderr.Fd())}
}

func (s *StderrSink) Emit(d Diagnostic) {
	prefix := d.Severity.String()
	if s.color {
		prefix = colorFor(d.Severity) + prefix + ansiReset
	}
	if d.FileID != "" {
		fmt.Fprintf(s.Out, "%s: %s:%d-%d: %s\n", prefix, d.FileID, d.Span.Start, d.Span.End, d.Message)
		return
	}
	fmt.Fprintf(s.Out, "%s: %s\n", prefix, d.Message)
}

const ansiReset = "\x1b[0m"

func colorFor(s Severity) string {
	switch s {
	case Error:
		return "\x1b[31m"
	case Warning:
		return "\x1b[33m"
	default:
		return "\x1b[36m"
	}
}
