package obslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the line encoding of log entries.
type Format string

const (
	FormatLegacy  Format = "legacy" // "2006-01-02 15:04:05 | INFO | caller | msg | {fields}"
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Options describes the sinks of the process logger.
type Options struct {
	Level   zapcore.Level
	Format  Format
	Console bool
	// File is appended to; empty disables the file sink.
	File   string
	Caller bool
	Color  bool
}

var global atomic.Pointer[zap.Logger]

func init() { global.Store(zap.NewNop()) }

// L returns the process logger. It is a no-op until InitFromEnv or Set.
func L() *zap.Logger { return global.Load() }

// Set은 전역 로거를 교체한다. nil이면 Nop.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

// InitFromEnv builds the logger from LOG_* variables and installs it.
func InitFromEnv() error {
	l, err := New(OptionsFromEnv())
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_TO_CONSOLE, LOG_TO_FILE,
// LOG_FILE, LOG_CALLER and LOG_COLOR.
func OptionsFromEnv() Options {
	opts := Options{
		Level:   parseLevel(os.Getenv("LOG_LEVEL")),
		Format:  parseFormat(os.Getenv("LOG_FORMAT")),
		Console: envBool("LOG_TO_CONSOLE", true),
		Caller:  envBool("LOG_CALLER", false),
		Color:   envBool("LOG_COLOR", false),
	}
	if envBool("LOG_TO_FILE", true) {
		opts.File = filepath.Join("logs", "checkers.log")
		if v := strings.TrimSpace(os.Getenv("LOG_FILE")); v != "" {
			opts.File = v
		}
	}
	// legacy 포맷은 항상 caller 포함
	if opts.Format == FormatLegacy {
		opts.Caller = true
	}
	return opts
}

// New builds a logger tagged app=checkers-bot. With no sink enabled it
// falls back to a development console core on stdout.
func New(opts Options) (*zap.Logger, error) {
	var cores []zapcore.Core
	if opts.Console {
		cores = append(cores, zapcore.NewCore(opts.encoder(opts.Color), zapcore.Lock(os.Stdout), opts.Level))
	}
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log dir: %w", err)
			}
		}
		sink, _, err := zap.Open(opts.File)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		// no color codes in files
		cores = append(cores, zapcore.NewCore(opts.encoder(false), sink, opts.Level))
	}
	if len(cores) == 0 {
		dev := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(dev, zapcore.Lock(os.Stdout), opts.Level))
	}

	zopts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if opts.Caller {
		zopts = append(zopts, zap.AddCaller())
	}
	return zap.New(zapcore.NewTee(cores...), zopts...).With(zap.String("app", "checkers-bot")), nil
}

func (o Options) encoder(color bool) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	switch o.Format {
	case FormatJSON:
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	case FormatConsole:
		if color {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(cfg)
	default:
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		cfg.ConsoleSeparator = " | "
		return zapcore.NewConsoleEncoder(cfg)
	}
}

func parseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatConsole:
		return f
	default:
		return FormatLegacy
	}
}

// parseLevel maps unknown or empty names to info.
func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil || s == "" {
		return zapcore.InfoLevel
	}
	return lvl
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return def
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
