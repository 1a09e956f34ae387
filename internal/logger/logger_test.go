package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newJSON returns a JSON logger writing into a fresh buffer.
func newJSON(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(&Config{Level: level, Format: "json", Output: buf}), buf
}

// decode parses the single JSON line written to buf.
func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log line: %s", buf.String())
	return entry
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	assert.NotNil(t, New(nil))
	assert.NotNil(t, New(&Config{}))
}

func TestLogger_JSONLine(t *testing.T) {
	log, buf := newJSON("info")

	log.Info("server listening")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "server listening", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_ChildFields(t *testing.T) {
	log, buf := newJSON("info")

	log.With().
		Str("action", "table_list").
		Str("dialect", "postgresql").
		Int("port", 5432).
		Logger().
		Info("table list served")

	entry := decode(t, buf)
	assert.Equal(t, "table_list", entry["action"])
	assert.Equal(t, "postgresql", entry["dialect"])
	assert.Equal(t, float64(5432), entry["port"])
}

func TestLogger_ChildDoesNotLeakIntoParent(t *testing.T) {
	log, buf := newJSON("info")
	_ = log.With().Str("table", "orders").Logger()

	log.Info("parent")

	assert.NotContains(t, decode(t, buf), "table")
}

func TestLogger_LeveledFields(t *testing.T) {
	tests := []struct {
		name  string
		level string
		emit  func(*Logger)
		want  map[string]interface{}
	}{
		{
			name:  "error carries cause",
			level: "error",
			emit: func(l *Logger) {
				l.ErrorWith("check failed", errors.New("dial tcp 10.0.0.5:3306: connect: connection refused"), Fields{"host": "db"})
			},
			want: map[string]interface{}{
				"level": "error",
				"error": "dial tcp 10.0.0.5:3306: connect: connection refused",
				"host":  "db",
			},
		},
		{
			name:  "warn",
			level: "warn",
			emit: func(l *Logger) {
				l.WarnWith("unknown filter operator dropped", Fields{"field": "status", "operator": "CONTAINS"})
			},
			want: map[string]interface{}{"level": "warn", "field": "status", "operator": "CONTAINS"},
		},
		{
			name:  "debug",
			level: "debug",
			emit: func(l *Logger) {
				l.DebugWith("data served", Fields{"rows": 3})
			},
			want: map[string]interface{}{"level": "debug", "rows": float64(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newJSON(tt.level)
			tt.emit(log)

			entry := decode(t, buf)
			for k, v := range tt.want {
				assert.Equal(t, v, entry[k], k)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		emit    func(*Logger)
		written bool
	}{
		{"debug", func(l *Logger) { l.Debug("m") }, true},
		{"info", func(l *Logger) { l.Debug("m") }, false},
		{"warn", func(l *Logger) { l.Info("m") }, false},
		{"warn", func(l *Logger) { l.Warn("m") }, true},
		{"error", func(l *Logger) { l.InfoWith("m", nil) }, false},
		{"error", func(l *Logger) { l.Error("m") }, true},
	}

	for _, tt := range tests {
		log, buf := newJSON(tt.level)
		tt.emit(log)
		assert.Equal(t, tt.written, buf.Len() > 0, "level %s", tt.level)
	}
}

func TestLogger_LevelIsPerInstance(t *testing.T) {
	quiet, quietBuf := newJSON("error")
	loud, loudBuf := newJSON("debug")

	quiet.Debug("hidden")
	loud.Debug("shown")

	assert.Empty(t, quietBuf.String())
	assert.Contains(t, loudBuf.String(), "shown")
}

func TestLogger_ConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "INFO", Format: "Console", Output: buf})

	log.InfoWith("listening", Fields{"addr": ":8080"})

	out := buf.String()
	assert.Contains(t, out, "listening")
	assert.Contains(t, out, "addr=")
	assert.False(t, json.Valid(buf.Bytes()), "console output should not be JSON")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" warn ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestFromContext(t *testing.T) {
	log, buf := newJSON("info")

	FromContext(log.WithContext(context.Background())).Info("from context")

	assert.Equal(t, "from context", decode(t, buf)["message"])
}

func TestFromContext_NoLogger(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info("dropped")
}

func TestFromContextOr(t *testing.T) {
	fallback, fallbackBuf := newJSON("info")
	attached, ctxBuf := newJSON("info")

	FromContextOr(context.Background(), fallback).Info("to fallback")
	FromContextOr(attached.WithContext(context.Background()), fallback).Info("to context")

	assert.Contains(t, fallbackBuf.String(), "to fallback")
	assert.NotContains(t, fallbackBuf.String(), "to context")
	assert.Contains(t, ctxBuf.String(), "to context")

	require.NotNil(t, FromContextOr(context.Background(), nil))
}

func TestNop(t *testing.T) {
	l := Nop()
	l.ErrorWith("dropped", errors.New("x"), nil)
	l.With().Str("k", "v").Logger().Debug("dropped")
}

func BenchmarkLogger_InfoWith(b *testing.B) {
	log := New(&Config{Level: "info", Format: "json", Output: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.InfoWith("request completed", Fields{"status": 200, "action": "data"})
	}
}
