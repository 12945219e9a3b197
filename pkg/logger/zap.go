package logger

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger 基于zap的日志实现
type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewZapLogger builds a zap logger through pingcap/log. format is "json" or
// "text".
func NewZapLogger(level, format string) (*ZapLogger, error) {
	if format == "" {
		format = "text"
	}
	cfg := &log.Config{Level: toZapLevel(ParseLevel(level)).String(), Format: format}
	lg, props, err := log.InitLogger(cfg)
	if err != nil {
		return nil, errors.Annotate(err, "init zap logger")
	}
	return &ZapLogger{sugar: lg.Sugar(), level: props.Level}, nil
}

// NewZapLoggerFrom wraps an existing zap logger.
func NewZapLoggerFrom(lg *zap.Logger, level LogLevel) *ZapLogger {
	atomicLevel := zap.NewAtomicLevelAt(toZapLevel(level))
	core := lg.Core()
	filtered := zap.New(&levelFilterCore{Core: core, level: atomicLevel})
	return &ZapLogger{sugar: filtered.Sugar(), level: atomicLevel}
}

func (l *ZapLogger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *ZapLogger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *ZapLogger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *ZapLogger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// SetLevel 设置日志级别
func (l *ZapLogger) SetLevel(level LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

// GetLevel 获取日志级别
func (l *ZapLogger) GetLevel() LogLevel {
	switch l.level.Level() {
	case zapcore.DebugLevel:
		return LogDebug
	case zapcore.InfoLevel:
		return LogInfo
	case zapcore.WarnLevel:
		return LogWarn
	default:
		return LogError
	}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogDebug:
		return zapcore.DebugLevel
	case LogInfo:
		return zapcore.InfoLevel
	case LogWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// levelFilterCore applies a mutable level on top of a wrapped core.
type levelFilterCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), level: c.level}
}

func (c *levelFilterCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(ent.Level) {
		return ce
	}
	return c.Core.Check(ent, ce)
}

// New 根据配置创建日志
// Format "json" or "text" selects zap; "plain" selects DefaultLogger on stdout.
func New(level, format string) (Logger, error) {
	if format == "plain" {
		return NewDefaultLogger(ParseLevel(level)), nil
	}
	return NewZapLogger(level, format)
}
