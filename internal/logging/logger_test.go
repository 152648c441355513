package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", *NewDefaultConfig(), false},
		{"json debug", Config{Level: "debug", Format: "json"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLoggerToWritesJSONWithRunID(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerTo(&Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	ctx := WithRunID(context.Background(), "run-123")
	l.Debug(ctx, "hidden")
	l.Info(ctx, "generated", zap.Int("fifos", 8))
	require.NoError(t, l.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"generated"`)
	assert.Contains(t, out, `"run.id":"run-123"`)
	assert.Contains(t, out, `"fifos":8`)
}

func TestNewLoggerRejectsInvalidConfig(t *testing.T) {
	_, err := NewLoggerTo(&Config{Level: "info", Format: "yaml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
	assert.Equal(t, "", RunIDFromContext(context.Background()))

	ctx := WithRunID(context.Background(), "abc")
	fields := ContextFields(ctx)
	require.Len(t, fields, 1)
	assert.Equal(t, "run.id", fields[0].Key)
	assert.Equal(t, "abc", fields[0].String)
}

func TestTestLoggerObservesEntries(t *testing.T) {
	tl := NewTestLogger()
	tl.Warn(WithRunID(context.Background(), "r1"), "lint warning", zap.String("detail", "x"))
	tl.With(zap.String("component", "genbash")).Named("gen").Error(context.Background(), "failed")

	tl.AssertLogged(t, zapcore.WarnLevel, "lint")
	tl.AssertLogged(t, zapcore.ErrorLevel, "failed")
	assert.Len(t, tl.All(), 2)
	assert.Equal(t, 1, tl.FilterMessage("warning").Len())
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Info(context.Background(), "nothing")
	assert.NoError(t, l.Sync())
	assert.NotNil(t, l.Underlying())
}
