// Package logger holds the process-wide zap logger.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file written under the log directory in file mode.
const FileName = "agri-api.log"

var (
	CoreLogger *zap.SugaredLogger
	level      = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() {
	config := zap.NewDevelopmentConfig()
	config.Level = level
	log, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zap.WarnLevel), zap.AddCallerSkip(1))
	if err == nil {
		SetCoreLogger(log.Sugar())
	}
}

type Options struct {
	Console    bool
	Verbose    bool
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init replaces the core logger. Console mode writes human-readable lines to
// stderr; otherwise JSON lines go to a rotating file in opts.Dir.
func Init(opts Options) error {
	if opts.Verbose {
		level.SetLevel(zap.DebugLevel)
	} else {
		level.SetLevel(zap.InfoLevel)
	}

	if opts.Console {
		config := zap.NewDevelopmentConfig()
		config.Level = level
		log, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zap.WarnLevel), zap.AddCallerSkip(1))
		if err != nil {
			return err
		}
		SetCoreLogger(log.Sugar())
		return nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return err
	}
	rotate := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotate), level)
	SetCoreLogger(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.WarnLevel), zap.AddCallerSkip(1)).Sugar())
	return nil
}

func SetCoreLogger(log *zap.SugaredLogger) {
	CoreLogger = log
}

// SetLevel changes the level of the current logger.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

func Sync() {
	_ = CoreLogger.Sync()
}

type SugaredLoggerOnWith struct {
	withArgs []any
}

func With(args ...any) *SugaredLoggerOnWith {
	return &SugaredLoggerOnWith{withArgs: args}
}

// WithRequest tags log lines with the HTTP request ID.
func WithRequest(requestID string) *SugaredLoggerOnWith {
	return With("requestID", requestID)
}

func (log *SugaredLoggerOnWith) Debugf(template string, args ...any) {
	CoreLogger.With(log.withArgs...).Debugf(template, args...)
}

func (log *SugaredLoggerOnWith) Infof(template string, args ...any) {
	CoreLogger.With(log.withArgs...).Infof(template, args...)
}

func (log *SugaredLoggerOnWith) Warnf(template string, args ...any) {
	CoreLogger.With(log.withArgs...).Warnf(template, args...)
}

func (log *SugaredLoggerOnWith) Errorf(template string, args ...any) {
	CoreLogger.With(log.withArgs...).Errorf(template, args...)
}

func Debugf(template string, args ...any) {
	CoreLogger.Debugf(template, args...)
}

func Infof(template string, args ...any) {
	CoreLogger.Infof(template, args...)
}

func Warnf(template string, args ...any) {
	CoreLogger.Warnf(template, args...)
}

func Errorf(template string, args ...any) {
	CoreLogger.Errorf(template, args...)
}
