package events

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TheMichaelB/filedeck/internal/config"
)

// LogLevel represents logging severity.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger provides structured logging.
type Logger struct {
	zl *zap.Logger
}

// NewLogger creates a logger from config. Logs go to stderr unless a file is set,
// leaving stdout to command output.
func NewLogger(cfg *config.LogConfig) (*Logger, error) {
	var output io.Writer = os.Stderr
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		output = file
	}

	return newLogger(parseLevel(cfg.Level), cfg.Format, cfg.Color && cfg.File == "", output), nil
}

// NewTestLogger creates a logger for testing.
func NewTestLogger(level LogLevel, format string, output io.Writer) *Logger {
	return newLogger(level, format, false, output)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zl: zap.NewNop()}
}

func newLogger(level LogLevel, format string, color bool, output io.Writer) *Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == "json" {
		encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = bracketLevelEncoder(color)
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), zap.NewAtomicLevelAt(level.zap()))

	return &Logger{
		zl: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
	}
}

// WithField returns a logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.base().With(zap.Any(key, value))}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}

	return &Logger{zl: l.base().With(zf...)}
}

// WithError adds an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.base().With(zap.Error(err))}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) {
	l.base().Debug(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string) {
	l.base().Info(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string) {
	l.base().Warn(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string) {
	l.base().Error(msg)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.base().Sync()
}

func (l *Logger) base() *zap.Logger {
	if l == nil || l.zl == nil {
		return zap.NewNop()
	}
	return l.zl
}

// Helper functions

func parseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (lv LogLevel) zap() zapcore.Level {
	switch lv {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// bracketLevelEncoder renders levels as [INFO], optionally colored.
func bracketLevelEncoder(color bool) zapcore.LevelEncoder {
	return func(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		label := "[" + lvl.CapitalString() + "]"
		if !color {
			enc.AppendString(label)
			return
		}

		var code string
		switch lvl {
		case zapcore.DebugLevel:
			code = "\033[36m"
		case zapcore.InfoLevel:
			code = "\033[32m"
		case zapcore.WarnLevel:
			code = "\033[33m"
		default:
			code = "\033[31m"
		}
		enc.AppendString(code + label + "\033[0m")
	}
}
