package diag

import (
	"io"
	"log/slog"
)

// NewLogger wraps log/slog's text handler, following the teacher's
// single-Out-io.Writer convention (internal/evaluator/evaluator.go's
// Out field) rather than pulling in a third-party logging library: no
// repo in the reference corpus depends on one at runtime, only
// transitively through unrelated tooling.
func NewLogger(out io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
