package app

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// DefaultEventBuffer is the event channel capacity of a HeadlessWindow.
const DefaultEventBuffer = 16

// HeadlessWindow is a quad.Window without a native window. Its surface is
// created with zero handles, which the software backend renders into
// off-screen. RequestRedraw posts EventRedraw to Events.
//
// It is also a gpucontext.EventSource, bridged to Events on creation:
// Resize and PressKey deliver input the way a platform window would.
type HeadlessWindow struct {
	gpucontext.NullWindowProvider
	gpucontext.NullEventSource

	events chan Event

	mu       sync.Mutex
	width    int
	height   int
	onResize []func(width, height int)
	onKey    []func(gpucontext.Key, gpucontext.Modifiers)
}

// NewHeadlessWindow returns a headless window of the given logical size.
func NewHeadlessWindow(width, height int) *HeadlessWindow {
	w := &HeadlessWindow{
		NullWindowProvider: gpucontext.NullWindowProvider{W: width, H: height},
		events:             make(chan Event, DefaultEventBuffer),
		width:              width,
		height:             height,
	}
	Bridge(w, w.events)
	return w
}

// Size returns the current logical size.
func (w *HeadlessWindow) Size() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// NativeHandles returns zero handles.
func (w *HeadlessWindow) NativeHandles() (display, window uintptr) { return 0, 0 }

// RequestRedraw queues an EventRedraw. It never blocks.
func (w *HeadlessWindow) RequestRedraw() {
	post(w.events, Event{Kind: EventRedraw})
}

// Close queues an EventClose.
func (w *HeadlessWindow) Close() {
	post(w.events, Event{Kind: EventClose})
}

// Events returns the channel Run should consume.
func (w *HeadlessWindow) Events() chan Event { return w.events }

// OnResize registers fn for Resize calls.
func (w *HeadlessWindow) OnResize(fn func(width, height int)) {
	w.mu.Lock()
	w.onResize = append(w.onResize, fn)
	w.mu.Unlock()
}

// OnKeyPress registers fn for PressKey calls.
func (w *HeadlessWindow) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	w.mu.Lock()
	w.onKey = append(w.onKey, fn)
	w.mu.Unlock()
}

// Resize changes the logical size and notifies resize callbacks.
func (w *HeadlessWindow) Resize(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	fns := w.onResize
	w.mu.Unlock()
	for _, fn := range fns {
		fn(width, height)
	}
}

// PressKey notifies key press callbacks. Escape and Q close the window.
func (w *HeadlessWindow) PressKey(key gpucontext.Key, mods gpucontext.Modifiers) {
	w.mu.Lock()
	fns := w.onKey
	w.mu.Unlock()
	for _, fn := range fns {
		fn(key, mods)
	}
}
