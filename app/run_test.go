package app

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/internal/gputest"
)

func recordingOptions(b *gputest.Backend) Options {
	return Options{Quad: []quad.Option{quad.WithHALBackend(b)}}
}

func TestRun_MaxFrames(t *testing.T) {
	b := gputest.NewBackend()
	win := NewHeadlessWindow(320, 240)
	opts := recordingOptions(b)
	opts.MaxFrames = 5

	stats, err := Run(context.Background(), win, win.Events(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Frames != 5 {
		t.Errorf("Frames = %d, want 5", stats.Frames)
	}
	if b.Rec.Presents != 5 {
		t.Errorf("presents = %d, want 5", b.Rec.Presents)
	}
	if len(b.Rec.SurfaceConfigs) != 1 {
		t.Errorf("surface configured %d times, want 1", len(b.Rec.SurfaceConfigs))
	}
	if n := len(b.Rec.Destroyed); n == 0 || b.Rec.Destroyed[n-1] != "instance" {
		t.Errorf("destroyed = %v, want teardown ending with instance", b.Rec.Destroyed)
	}
}

func TestRun_CloseEvent(t *testing.T) {
	b := gputest.NewBackend()
	win := NewHeadlessWindow(64, 64)
	opts := recordingOptions(b)
	opts.OnFrame = func(_ *quad.State, redraw uint64, _ error) {
		if redraw == 3 {
			win.Close()
		}
	}

	stats, err := Run(context.Background(), win, win.Events(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Frames != 3 {
		t.Errorf("Frames = %d, want 3", stats.Frames)
	}
}

func TestRun_EscapeKeyCloses(t *testing.T) {
	b := gputest.NewBackend()
	win := NewHeadlessWindow(64, 64)
	opts := recordingOptions(b)
	opts.OnFrame = func(_ *quad.State, redraw uint64, _ error) {
		if redraw == 2 {
			win.PressKey(gpucontext.KeyEscape, 0)
		}
	}

	stats, err := Run(context.Background(), win, win.Events(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Frames != 2 {
		t.Errorf("Frames = %d, want 2", stats.Frames)
	}
}

func TestRun_SkipsUnavailableSurface(t *testing.T) {
	b := gputest.NewBackend()
	win := NewHeadlessWindow(64, 64)
	opts := recordingOptions(b)
	opts.MaxFrames = 4

	var frameErrs []error
	opts.OnFrame = func(_ *quad.State, redraw uint64, err error) {
		frameErrs = append(frameErrs, err)
		switch redraw {
		case 2:
			b.Surface.AcquireErr = hal.ErrSurfaceLost
		case 3:
			b.Surface.AcquireErr = nil
		}
	}

	stats, err := Run(context.Background(), win, win.Events(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Frames != 3 || stats.SurfaceUnavailable != 1 {
		t.Errorf("stats = %+v, want 3 frames and 1 unavailable", stats)
	}
	if len(frameErrs) != 4 || !errors.Is(frameErrs[2], quad.ErrSurfaceUnavailable) {
		t.Errorf("frame errors = %v, want redraw 3 to report ErrSurfaceUnavailable", frameErrs)
	}
}

func TestRun_ResizeKeepsSurface(t *testing.T) {
	b := gputest.NewBackend()
	win := NewHeadlessWindow(64, 64)
	win.Resize(128, 96)
	opts := recordingOptions(b)
	opts.MaxFrames = 2

	stats, err := Run(context.Background(), win, win.Events(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Frames != 2 {
		t.Errorf("Frames = %d, want 2", stats.Frames)
	}
	if len(b.Rec.SurfaceConfigs) != 1 {
		t.Errorf("surface configured %d times, want 1", len(b.Rec.SurfaceConfigs))
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := gputest.NewBackend()
	win := NewHeadlessWindow(64, 64)
	opts := recordingOptions(b)
	opts.OnFrame = func(_ *quad.State, redraw uint64, _ error) {
		if redraw == 2 {
			cancel()
		}
	}

	stats, err := Run(ctx, win, win.Events(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Frames < 2 {
		t.Errorf("Frames = %d, want at least 2", stats.Frames)
	}
}

// quietWindow never posts redraws on its own.
type quietWindow struct {
	gpucontext.NullWindowProvider
}

func (quietWindow) NativeHandles() (display, window uintptr) { return 0, 0 }

func TestRun_EventsClosed(t *testing.T) {
	events := make(chan Event)
	close(events)

	stats, err := Run(context.Background(), quietWindow{gpucontext.NullWindowProvider{W: 8, H: 8}}, events, recordingOptions(gputest.NewBackend()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Frames != 0 {
		t.Errorf("Frames = %d, want 0", stats.Frames)
	}
}

func TestRun_SetupError(t *testing.T) {
	b := gputest.NewBackend()
	win := NewHeadlessWindow(0, 0)
	_, err := Run(context.Background(), win, win.Events(), recordingOptions(b))
	if !errors.Is(err, quad.ErrSetup) || !errors.Is(err, quad.ErrInvalidDimensions) {
		t.Errorf("err = %v, want ErrSetup and ErrInvalidDimensions", err)
	}
}
