package app

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/quad"
)

// EventKind identifies a window event.
type EventKind uint8

const (
	// EventRedraw asks for one frame.
	EventRedraw EventKind = iota

	// EventResize reports a new window size in logical points.
	EventResize

	// EventClose ends the loop.
	EventClose
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventRedraw:
		return "redraw"
	case EventResize:
		return "resize"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a window event delivered to Run.
type Event struct {
	Kind EventKind

	// Width and Height are set for EventResize.
	Width, Height int
}

// Bridge registers callbacks on src that forward resize events, and
// Escape or Q key presses as EventClose, to events. Sends never block: an
// event that does not fit in the channel is dropped and logged.
func Bridge(src gpucontext.EventSource, events chan<- Event) {
	src.OnResize(func(width, height int) {
		post(events, Event{Kind: EventResize, Width: width, Height: height})
	})
	src.OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if key == gpucontext.KeyEscape || key == gpucontext.KeyQ {
			post(events, Event{Kind: EventClose})
		}
	})
}

func post(events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	default:
		quad.Logger().Debug("app: event dropped", "kind", ev.Kind)
		return false
	}
}
