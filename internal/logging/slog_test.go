package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	l := slog.New(h)
	return NewSlogLogger(l), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		key   string
		val   string
	}{
		{"DEBUG", "dbg", "a", "1"},
		{"INFO", "inf", "b", "2"},
		{"WARN", "wrn", "c", "3"},
		{"ERROR", "err", "d", "4"},
	}

	for _, tc := range tests {
		if !strings.Contains(out, "level="+tc.level) {
			t.Fatalf("expected line with level=%s in output:\n%s", tc.level, out)
		}
		if !strings.Contains(out, "msg="+tc.msg) {
			t.Fatalf("expected line with msg=%q in output:\n%s", tc.msg, out)
		}
		if !strings.Contains(out, tc.key+"="+tc.val) {
			t.Fatalf("expected attribute %s=%s in output:\n%s", tc.key, tc.val, out)
		}
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log2 := log.With("module", "scheduler", "job", "periodic-sync")
	log2.Info(ctx, "hello", "k", "v")

	out := buf.String()
	wantSubs := []string{
		"level=INFO",
		"msg=hello",
		"module=scheduler",
		"job=periodic-sync",
		"k=v",
	}
	for _, s := range wantSubs {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}

func TestSlogLogger_ContextDoesNotPanic(t *testing.T) {
	log, _ := newTestLogger(t)

	ctx := context.TODO()
	log.Info(ctx, "ctx-ok")
	log.Debug(ctx, "ctx-ok")
	log.Warn(ctx, "ctx-ok")
	log.Error(ctx, "ctx-ok")
}

func TestNew_WritesJSONToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	log, closer := New(Options{File: path, Level: slog.LevelInfo})
	log.With("module", "syncer").Info(context.Background(), "pass finished", "pushed", 3)
	log.Debug(context.Background(), "hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "pass finished", rec["msg"])
	assert.Equal(t, "syncer", rec["module"])
	assert.EqualValues(t, 3, rec["pushed"])
	assert.NotContains(t, string(data), "hidden")
}

func TestNewHandler_TextOnTerminalUnlessJSONForced(t *testing.T) {
	var buf bytes.Buffer

	_, ok := newHandler(&buf, Options{}, true).(*slog.TextHandler)
	assert.True(t, ok)

	_, ok = newHandler(&buf, Options{JSON: true}, true).(*slog.JSONHandler)
	assert.True(t, ok)

	_, ok = newHandler(&buf, Options{}, false).(*slog.JSONHandler)
	assert.True(t, ok)
}

func TestNop_DiscardsWithoutPanic(t *testing.T) {
	l := Nop().With("k", "v")
	l.Info(context.Background(), "x")
	l.Error(context.Background(), "y", "err", "boom")
}
