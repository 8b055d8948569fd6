// Package obslog provides categorized structured logging built on zap.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names the subsystem a log line belongs to, mirroring how the
// catalog/layout/diagram layers each report their own slice of activity.
type Category string

const (
	CategoryMarkup  Category = "markup"
	CategoryLayout  Category = "layout"
	CategoryDiagram Category = "diagram"
	CategoryCatalog Category = "catalog"
	CategoryConfig  Category = "config"
)

// Logger wraps a *zap.Logger with a fixed category field.
type Logger struct {
	category Category
	zap      *zap.Logger
}

// New builds a Logger at the given category. debug enables debug-level
// output; otherwise info and above are logged.
func New(category Category, debug bool) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{category: category, zap: base.With(zap.String("category", string(category)))}, nil
}

// NewNop returns a Logger that discards everything, for use in tests.
func NewNop() *Logger {
	return &Logger{category: "", zap: zap.NewNop()}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
