package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Interface interface {
	Debug(message interface{}, args ...interface{})
	Info(message string, args ...interface{})
	Warn(message string, args ...interface{})
	Error(message interface{}, args ...interface{})
	Fatal(message interface{}, args ...interface{})
}

type Logger struct {
	logger *zap.SugaredLogger
}

var _ Interface = (*Logger)(nil)

// New builds a JSON logger for production levels and a console logger for "debug".
func New(level string) *Logger {
	var cfg zap.Config

	switch strings.ToLower(level) {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		panic(fmt.Sprintf("logger - New - cfg.Build: %v", err))
	}

	return &Logger{logger: l.Sugar()}
}

// NewNop is used in tests.
func NewNop() *Logger {
	return &Logger{logger: zap.NewNop().Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "error":
		return zapcore.ErrorLevel
	case "warn":
		return zapcore.WarnLevel
	case "info":
		return zapcore.InfoLevel
	case "debug":
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) Debug(message interface{}, args ...interface{}) {
	l.msg(zapcore.DebugLevel, message, args...)
}

func (l *Logger) Info(message string, args ...interface{}) {
	l.log(zapcore.InfoLevel, message, args...)
}

func (l *Logger) Warn(message string, args ...interface{}) {
	l.log(zapcore.WarnLevel, message, args...)
}

func (l *Logger) Error(message interface{}, args ...interface{}) {
	l.msg(zapcore.ErrorLevel, message, args...)
}

func (l *Logger) Fatal(message interface{}, args ...interface{}) {
	l.msg(zapcore.FatalLevel, message, args...)

	os.Exit(1)
}

// Sync flushes buffered entries; call it on shutdown.
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

func (l *Logger) log(level zapcore.Level, message string, args ...interface{}) {
	if len(args) == 0 {
		l.logger.Log(level, message)

		return
	}

	l.logger.Logf(level, message, args...)
}

// msg accepts either an error or a string as the message. With an error the
// first string argument is treated as the location it came from.
func (l *Logger) msg(level zapcore.Level, message interface{}, args ...interface{}) {
	switch m := message.(type) {
	case error:
		if len(args) > 0 {
			if where, ok := args[0].(string); ok {
				l.logger.Logw(level, where, "error", m.Error())

				return
			}
		}
		l.logger.Log(level, m.Error())
	case string:
		l.log(level, m, args...)
	default:
		l.log(level, fmt.Sprintf("%s message %v has unknown type %v", level, message, m), args...)
	}
}
