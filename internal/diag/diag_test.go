package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStderrSinkPlainFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := &StderrSink{Out: &buf}
	sink.Emit(Diagnostic{Severity: Error, Message: "boom"})
	assert.Equal(t, "error: boom\n", buf.String())
}

func TestStderrSinkWithFileSpan(t *testing.T) {
	var buf bytes.Buffer
	sink := &StderrSink{Out: &buf}
	sink.Emit(Diagnostic{Severity: Warning, Message: "oops", FileID: "a.uni", Span: Span{Start: 3, End: 7}})
	assert.Equal(t, "warning: a.uni:3-7: oops\n", buf.String())
}

func TestStderrSinkColorsWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	sink := &StderrSink{Out: &buf, color: true}
	sink.Emit(Diagnostic{Severity: Error, Message: "x"})
	assert.True(t, strings.Contains(buf.String(), "\x1b["))
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "error", Error.String())
}

func TestNewLoggerWritesJSONFreeTextLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf)
	log.Info("hello", "key", "value")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "key=value")
}
