package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

// ZapLevel maps the level onto zap's levels. Unknown levels map to info.
func (l LogLevel) ZapLevel() zapcore.Level {
	switch l {
	case LogDebug:
		return zap.DebugLevel
	case LogWarn:
		return zap.WarnLevel
	case LogError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// New builds a production JSON logger at the given level.
func New(level LogLevel) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.ZapLevel())
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// NewDevelopment builds a console logger at the given level.
func NewDevelopment(level LogLevel) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.ZapLevel())
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build development logger: %w", err)
	}
	return logger, nil
}

// Fields converts loosely typed fields into zap fields.
func Fields(fields map[string]any) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return zf
}

// Log writes msg at level with the given fields.
func Log(logger *zap.Logger, level LogLevel, msg string, fields map[string]any) {
	zf := Fields(fields)
	switch level {
	case LogInfo:
		logger.Info(msg, zf...)
	case LogWarn:
		logger.Warn(msg, zf...)
	case LogError:
		logger.Error(msg, zf...)
	case LogDebug:
		logger.Debug(msg, zf...)
	default:
		logger.Info(msg, zf...)
	}
}

// Sync flushes logger, reporting failures through the logger itself.
func Sync(logger *zap.Logger) {
	if err := logger.Sync(); err != nil {
		logger.Warn("failed to sync logger", zap.Error(err))
	}
}
