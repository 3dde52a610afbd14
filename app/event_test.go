package app

import (
	"testing"

	"github.com/gogpu/gpucontext"
)

// captureSource records the callbacks Bridge registers.
type captureSource struct {
	gpucontext.NullEventSource

	onKey    func(gpucontext.Key, gpucontext.Modifiers)
	onResize func(int, int)
}

func (c *captureSource) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) { c.onKey = fn }
func (c *captureSource) OnResize(fn func(int, int)) { c.onResize = fn }

func TestBridge(t *testing.T) {
	src := &captureSource{}
	events := make(chan Event, 4)
	Bridge(src, events)

	if src.onKey == nil || src.onResize == nil {
		t.Fatal("Bridge did not register key and resize callbacks")
	}

	src.onResize(1024, 768)
	src.onKey(gpucontext.KeySpace, 0)
	src.onKey(gpucontext.KeyEscape, 0)
	src.onKey(gpucontext.KeyQ, gpucontext.ModShift)

	want := []Event{
		{Kind: EventResize, Width: 1024, Height: 768},
		{Kind: EventClose},
		{Kind: EventClose},
	}
	if len(events) != len(want) {
		t.Fatalf("queued %d events, want %d", len(events), len(want))
	}
	for i, w := range want {
		if got := <-events; got != w {
			t.Errorf("event %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestBridge_FullChannelDoesNotBlock(t *testing.T) {
	src := &captureSource{}
	events := make(chan Event, 1)
	Bridge(src, events)

	src.onResize(1, 1)
	src.onResize(2, 2)
	if got := <-events; got.Width != 1 {
		t.Errorf("kept event = %+v, want the first resize", got)
	}
}

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventRedraw, "redraw"},
		{EventResize, "resize"},
		{EventClose, "close"},
		{EventKind(9), "EventKind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", uint8(tt.kind), got, tt.want)
		}
	}
}

func TestHeadlessWindow(t *testing.T) {
	win := NewHeadlessWindow(800, 600)
	if w, h := win.Size(); w != 800 || h != 600 {
		t.Errorf("Size() = %dx%d, want 800x600", w, h)
	}
	if d, h := win.NativeHandles(); d != 0 || h != 0 {
		t.Errorf("NativeHandles() = %d, %d, want 0, 0", d, h)
	}
	for i := 0; i < DefaultEventBuffer+4; i++ {
		win.RequestRedraw()
	}
	if n := len(win.Events()); n != DefaultEventBuffer {
		t.Errorf("queued redraws = %d, want %d", n, DefaultEventBuffer)
	}
}

func TestHeadlessWindow_BridgedInput(t *testing.T) {
	var _ gpucontext.EventSource = (*HeadlessWindow)(nil)

	win := NewHeadlessWindow(800, 600)
	win.Resize(1024, 768)
	win.PressKey(gpucontext.KeySpace, 0)
	win.PressKey(gpucontext.KeyEscape, 0)

	if w, h := win.Size(); w != 1024 || h != 768 {
		t.Errorf("Size() after Resize = %dx%d, want 1024x768", w, h)
	}
	want := []Event{
		{Kind: EventResize, Width: 1024, Height: 768},
		{Kind: EventClose},
	}
	if len(win.Events()) != len(want) {
		t.Fatalf("queued %d events, want %d", len(win.Events()), len(want))
	}
	for i, w := range want {
		if got := <-win.Events(); got != w {
			t.Errorf("event %d = %+v, want %+v", i, got, w)
		}
	}
}
