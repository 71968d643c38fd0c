package xlog

import (
	"go.uber.org/zap/zapcore"
)

// AntsXLogger routes the ants pool panics and diagnostics
// into the XLogger, under the "ants" component.
type AntsXLogger struct {
	logger XLogger
}

func (l *AntsXLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Logf(zapcore.ErrorLevel, format, args...)
}

func NewAntsXLogger(logger XLogger) *AntsXLogger {
	if logger == nil {
		return &AntsXLogger{}
	}
	return &AntsXLogger{
		logger: logger.Named("ants"),
	}
}
