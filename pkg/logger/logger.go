package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

type options struct {
	level   string
	service string
}

type Option func(*options)

// WithLevel sets the minimum level (debug, info, warn, error). Empty keeps the env default.
func WithLevel(level string) Option {
	return func(o *options) { o.level = level }
}

// WithService stamps every entry with a service field, so API and worker logs can share a sink.
func WithService(name string) Option {
	return func(o *options) { o.service = name }
}

func NewLogger(env string, opts ...Option) *Logger {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if o.level != "" {
		if level, err := zapcore.ParseLevel(strings.ToLower(o.level)); err == nil {
			config.Level = zap.NewAtomicLevelAt(level)
		}
	}
	if o.service != "" {
		config.InitialFields = map[string]interface{}{"service": o.service}
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	return &Logger{Logger: logger}
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With returns a child logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.Logger.Info(msg, fields...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Logger.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.Logger.Warn(msg, fields...)
}

// Error logs msg with err attached. A nil err is omitted rather than logged as "<nil>".
func (l *Logger) Error(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.Logger.Error(msg, fields...)
}

func (l *Logger) Fatal(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.Logger.Fatal(msg, fields...)
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
