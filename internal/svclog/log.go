// Package svclog wraps zap the way the teacher's servicelog package
// wraps a kardianos/service logger: a thin, attribute-based facade so
// call sites read the same regardless of what sits underneath, with log
// rotation to disk via lumberjack.
package svclog

import (
	"net/url"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the facade every package in this module logs through.
type Logger interface {
	With(fields ...zap.Field) Logger
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)
	Sync() error
}

type logger struct {
	z *zap.Logger
}

// registered guards against registering the lumberjack sink scheme more
// than once per process, which zap otherwise rejects.
var registered bool

func registerSink(path string) {
	if registered {
		return
	}
	zap.RegisterSink("lumberjack", func(u *url.URL) (zap.Sink, error) {
		return lumberjackSink{Logger: &lumberjack.Logger{
			Filename:   u.Path,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}}, nil
	})
	registered = true
	_ = path
}

type lumberjackSink struct {
	*lumberjack.Logger
}

func (lumberjackSink) Sync() error { return nil }

// New builds a Logger writing structured JSON to logFile (rotated via
// lumberjack) as well as stderr. debug selects development-friendly
// (console, caller, stack trace on warn+) output.
func New(logFile string, debug bool) (Logger, error) {
	registerSink(logFile)

	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	outputs := []string{"stderr"}
	if logFile != "" {
		outputs = append(outputs, "lumberjack://"+logFile)
	}
	config.OutputPaths = outputs
	config.ErrorOutputPaths = outputs

	z, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &logger{z: z}, nil
}

// Noop returns a Logger that discards everything, for tests.
func Noop() Logger {
	return &logger{z: zap.NewNop()}
}

func (l *logger) With(fields ...zap.Field) Logger {
	return &logger{z: l.z.With(fields...)}
}

func (l *logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }
func (l *logger) Fatal(msg string, fields ...zap.Field) { l.z.Fatal(msg, fields...) }
func (l *logger) Sync() error                           { return l.z.Sync() }

// Field constructors re-exported for call sites that prefer not to
// import zap directly, matching the attribute helpers the teacher's
// servicelog package exposes (String, Error, Duration, ...).
var (
	String   = zap.String
	Int      = zap.Int
	Bool     = zap.Bool
	Duration = zap.Duration
	Err      = zap.Error
	Any      = zap.Any
)
