package quad

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/quad/internal/gpu"
)

// loggerPtr holds the logger shared by quad, app and the CLI. It starts out
// as a discarding logger, whose Enabled reports false at every level, so
// log calls in the render loop return before building their records.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(discardLogger())
}

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// SetLogger routes quad's log output, including the GPU layer's, to l.
// A nil l turns logging back off. It may be called at any time, from any
// goroutine.
//
// Levels:
//   - [slog.LevelDebug]: one line per frame (angle, submission) and pacer waits
//   - [slog.LevelInfo]: setup milestones such as the chosen adapter and surface
//   - [slog.LevelWarn]: skipped frames, ignored resizes, teardown failures
//
// For example, to see everything on stderr:
//
//	quad.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = discardLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
}

// Logger returns the logger set by SetLogger, or the discarding default.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
