package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	return newLogger(buf, false, LevelDebug, &sync.Mutex{})
}

func TestLogFieldsAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf).SetLevel(LevelWarn)

	l.Info("should be dropped", "a", 1)
	assert.Empty(t, buf.String())

	l.Warn("module loaded", "path", "Foo.Bar", "cached", true)
	out := buf.String()
	assert.True(t, strings.Contains(out, "WARN"))
	assert.True(t, strings.Contains(out, "module loaded"))
	assert.True(t, strings.Contains(out, "path=Foo.Bar"))
	assert.True(t, strings.Contains(out, "cached=true"))
}

func TestChildLoggerInheritsContext(t *testing.T) {
	var buf bytes.Buffer
	root := newTestLogger(&buf)
	child := root.New("component", "modloader")

	child.Error("require failed", "name", "Bad.Ns")
	out := buf.String()
	assert.True(t, strings.Contains(out, "component=modloader"))
	assert.True(t, strings.Contains(out, "name=Bad.Ns"))
}

func TestCritIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.Crit("unrecoverable")
	assert.True(t, strings.Contains(buf.String(), "logging_test.go"))
}
