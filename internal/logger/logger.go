package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
	Fatalf(template string, args ...any)

	// With returns a child logger that stamps fields on every entry.
	With(fields ...Field) Logger

	Sync() error
}

// Field is a structured logging field.
type Field = zap.Field

type zapLogger struct {
	base    *zap.Logger
	sugared *zap.SugaredLogger
}

// New builds the process logger. pretty selects the colored console
// encoder, otherwise entries are JSON with ISO8601 timestamps. Unknown
// levels fall back to info.
func New(level string, pretty bool) Logger {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	base, err := cfg.Build(zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		panic(err)
	}
	return wrap(base.With(zap.String("app", "duewatch")))
}

// NewWithCore wraps an existing core, e.g. an observer in tests.
func NewWithCore(core zapcore.Core) Logger {
	return wrap(zap.New(core))
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return wrap(zap.NewNop())
}

func wrap(base *zap.Logger) *zapLogger {
	return &zapLogger{base: base, sugared: base.Sugar()}
}

// ParseLevel maps "debug", "info", "warn" (or "warning") and "error" to a
// zap level, case-insensitively. Anything else is info.
func ParseLevel(lvl string) zapcore.Level {
	s := strings.ToLower(strings.TrimSpace(lvl))
	if s == "warning" {
		s = "warn"
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil || l > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return l
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.base.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.base.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.base.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.base.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.base.Fatal(msg, fields...) }

func (l *zapLogger) Debugf(t string, args ...any) { l.sugared.Debugf(t, args...) }
func (l *zapLogger) Infof(t string, args ...any)  { l.sugared.Infof(t, args...) }
func (l *zapLogger) Warnf(t string, args ...any)  { l.sugared.Warnf(t, args...) }
func (l *zapLogger) Errorf(t string, args ...any) { l.sugared.Errorf(t, args...) }
func (l *zapLogger) Fatalf(t string, args ...any) { l.sugared.Fatalf(t, args...) }

func (l *zapLogger) With(fields ...Field) Logger { return wrap(l.base.With(fields...)) }

func (l *zapLogger) Sync() error { return l.base.Sync() }

// Field constructors, so callers never import zap directly.
func String(key, val string) Field                 { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Error(err error) Field                        { return zap.Error(err) }
func Any(key string, val any) Field                { return zap.Any(key, val) }
