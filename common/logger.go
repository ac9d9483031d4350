package common

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// Log returns the engine-wide logger. It is a no-op logger until SetLogger is called.
//
// Returns:
//   - *zap.Logger: the current logger
func Log() *zap.Logger {
	return logger.Load()
}

// SetLogger replaces the engine-wide logger. Passing nil restores the no-op logger.
//
// Parameters:
//   - l: the logger to install
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}
