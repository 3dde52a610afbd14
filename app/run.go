package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/quad"
)

// Options configures Run.
type Options struct {
	// Quad holds the options passed to quad.New.
	Quad []quad.Option

	// MaxFrames stops the loop after that many redraws. Zero means no
	// limit.
	MaxFrames uint64

	// OnFrame, if set, is called after every redraw with the redraw count
	// and the Render result.
	OnFrame func(s *quad.State, redraw uint64, err error)
}

// Run creates a quad.State for win and drives it from events until an
// EventClose arrives, events is closed, MaxFrames redraws have been
// handled or ctx is canceled. Each of those ends the loop normally and
// Run returns the final frame counters with a nil error.
//
// Setup failures are returned as is (they wrap quad.ErrSetup). Frames the
// surface could not provide are logged and skipped. Any other Render
// error stops the loop.
func Run(ctx context.Context, win quad.Window, events <-chan Event, opts Options) (stats quad.Stats, err error) {
	log := quad.Logger()

	s, err := quad.New(ctx, win, opts.Quad...)
	if err != nil {
		return quad.Stats{}, err
	}
	defer func() {
		stats = s.Stats()
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	log.Info("app: running", "backend", s.Backend(), "format", s.Format())

	win.RequestRedraw()

	var redraws uint64
	for {
		select {
		case <-ctx.Done():
			log.Info("app: canceled", "redraws", redraws)
			return stats, nil
		case ev, ok := <-events:
			if !ok {
				return stats, nil
			}
			switch ev.Kind {
			case EventRedraw:
				redraws++
				rerr := s.Render()
				if opts.OnFrame != nil {
					opts.OnFrame(s, redraws, rerr)
				}
				switch {
				case errors.Is(rerr, quad.ErrSurfaceUnavailable):
					log.Warn("app: frame skipped", "redraw", redraws, "err", rerr)
				case rerr != nil:
					return stats, fmt.Errorf("app: render: %w", rerr)
				}
				if opts.MaxFrames > 0 && redraws >= opts.MaxFrames {
					return stats, nil
				}
				win.RequestRedraw()
			case EventResize:
				s.Resize(ev.Width, ev.Height)
			case EventClose:
				log.Info("app: close requested", "redraws", redraws)
				return stats, nil
			}
		}
	}
}
