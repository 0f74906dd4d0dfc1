package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, LevelWarn)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")
	assert.Contains(t, out, "[ragkit]")
}

func TestStdLogger_LevelNone(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerTo(&buf, LevelNone)
	l.Error("still silent")
	assert.Empty(t, buf.String())
}

func TestDefaultLogger(t *testing.T) {
	orig := GetDefaultLogger()
	defer SetDefaultLogger(orig)

	SetDefaultLogger(NopLogger{})
	_, ok := GetDefaultLogger().(NopLogger)
	assert.True(t, ok)
}
