package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"loud":    zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOptionsFromEnv(t *testing.T) {
	for _, k := range []string{"LOG_LEVEL", "LOG_FORMAT", "LOG_TO_CONSOLE", "LOG_TO_FILE", "LOG_FILE", "LOG_CALLER", "LOG_COLOR"} {
		t.Setenv(k, "")
	}
	opts := OptionsFromEnv()
	require.Equal(t, zapcore.InfoLevel, opts.Level)
	require.Equal(t, FormatLegacy, opts.Format)
	require.True(t, opts.Console)
	require.True(t, opts.Caller)
	require.Equal(t, filepath.Join("logs", "checkers.log"), opts.File)

	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_COLOR", "1")
	opts = OptionsFromEnv()
	require.Equal(t, FormatJSON, opts.Format)
	require.Empty(t, opts.File)
	require.False(t, opts.Caller)
	require.True(t, opts.Color)
}

func TestInitFromEnv_WritesJSONFile(t *testing.T) {
	defer Set(nil)
	path := filepath.Join(t.TempDir(), "nested", "checkers.log")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", path)
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "info")

	if err := InitFromEnv(); err != nil {
		t.Fatalf("InitFromEnv: %v", err)
	}
	L().Debug("hidden")
	L().Info("session_create", zap.String("room", "roomA"))
	_ = L().Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, `"msg":"session_create"`) || !strings.Contains(out, `"room":"roomA"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if !strings.Contains(out, `"app":"checkers-bot"`) {
		t.Fatalf("missing app field: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be filtered: %s", out)
	}
}

func TestNew_LegacyFileLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	l, err := New(Options{Level: zapcore.InfoLevel, Format: FormatLegacy, File: path})
	require.NoError(t, err)
	l.Warn("egress_fallback")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), " | WARN | egress_fallback | ")
}

func TestSet_NilFallsBackToNop(t *testing.T) {
	Set(nil)
	if L() == nil {
		t.Fatal("L() returned nil")
	}
	L().Info("ignored")
}
