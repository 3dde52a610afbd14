package gpu

import (
	"log/slog"
	"sync/atomic"
)

// loggerPtr is read on every frame and replaced by SetLogger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(slog.DiscardHandler))
}

func slogger() *slog.Logger { return loggerPtr.Load() }

// SetLogger sets the logger for this package. Records carry
// component=gpu. nil discards output.
func SetLogger(l *slog.Logger) {
	if l == nil {
		loggerPtr.Store(slog.New(slog.DiscardHandler))
		return
	}
	loggerPtr.Store(l.With("component", "gpu"))
}
