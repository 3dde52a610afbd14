package quad

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quad/internal/gputest"
)

func newTestState(t *testing.T, b *gputest.Backend, opts ...Option) *State {
	t.Helper()
	opts = append([]Option{WithHALBackend(b)}, opts...)
	s, err := New(context.Background(), testWindow(800, 600), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNew(t *testing.T) {
	b := gputest.NewBackend()
	s := newTestState(t, b)

	if w, h := s.Size(); w != 800 || h != 600 {
		t.Errorf("Size() = %dx%d, want 800x600", w, h)
	}
	if s.Format() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format() = %v, want BGRA8Unorm", s.Format())
	}
	if s.Adapter().Name == "" {
		t.Error("Adapter().Name is empty")
	}
	if s.Surface() == nil {
		t.Error("Surface() is nil")
	}
	if len(b.Rec.Pipelines) != 1 {
		t.Errorf("pipelines created = %d, want 1", len(b.Rec.Pipelines))
	}
	if st := s.Stats(); st.Frames != 0 {
		t.Errorf("Frames before Render = %d, want 0", st.Frames)
	}
}

func TestNew_ScaledWindow(t *testing.T) {
	b := gputest.NewBackend()
	win := testWindow(400, 300)
	win.SF = 2
	s, err := New(context.Background(), win, WithHALBackend(b))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if w, h := s.Size(); w != 800 || h != 600 {
		t.Errorf("Size() = %dx%d, want 800x600 physical pixels", w, h)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *gputest.Backend)
		win   Window
		want  error
	}{
		{"zero size", func(*gputest.Backend) {}, testWindow(0, 0), ErrInvalidDimensions},
		{"no adapters", func(b *gputest.Backend) { b.NoAdapters = true }, testWindow(10, 10), ErrNoAdapter},
		{"no formats", func(b *gputest.Backend) { b.Formats = []gputypes.TextureFormat{} }, testWindow(10, 10), ErrNoSurfaceFormat},
		{"device", func(b *gputest.Backend) { b.OpenErr = errors.New("lost") }, testWindow(10, 10), ErrDeviceRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := gputest.NewBackend()
			tt.setup(b)
			s, err := New(context.Background(), tt.win, WithHALBackend(b))
			if err == nil {
				s.Close()
				t.Fatal("New succeeded, want error")
			}
			if !errors.Is(err, ErrSetup) || !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want ErrSetup and %v", err, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	b := gputest.NewBackend()
	s := newTestState(t, b)

	for i := 0; i < 3; i++ {
		if err := s.Render(); err != nil {
			t.Fatalf("Render %d: %v", i, err)
		}
	}
	if st := s.Stats(); st.Frames != 3 {
		t.Errorf("Frames = %d, want 3", st.Frames)
	}
	if b.Rec.Submits != 3 || b.Rec.Presents != 3 {
		t.Errorf("submits/presents = %d/%d, want 3/3", b.Rec.Submits, b.Rec.Presents)
	}
	if len(b.Rec.Passes) != 3 {
		t.Fatalf("render passes = %d, want 3", len(b.Rec.Passes))
	}
	for i, p := range b.Rec.Passes {
		if len(p.Draws) != 1 || p.Draws[0].VertexCount != 6 || p.Draws[0].InstanceCount != 1 {
			t.Errorf("pass %d draws = %+v, want one draw of 6 vertices", i, p.Draws)
		}
	}
}

func TestRender_AngleFollowsClock(t *testing.T) {
	now := time.Unix(5000, 0)
	clock := func() time.Time { return now }
	s := newTestState(t, gputest.NewBackend(), WithClock(clock))

	now = now.Add(1500 * time.Millisecond)
	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	st := s.Stats()
	if st.Angle != 1.5 {
		t.Errorf("Angle = %v, want 1.5", st.Angle)
	}
	if st.Elapsed != 1500*time.Millisecond {
		t.Errorf("Elapsed = %v, want 1.5s", st.Elapsed)
	}
}

func TestRender_SurfaceUnavailable(t *testing.T) {
	b := gputest.NewBackend()
	s := newTestState(t, b)
	b.Surface.AcquireErr = hal.ErrSurfaceOutdated

	err := s.Render()
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("Render = %v, want ErrSurfaceUnavailable", err)
	}
	if errors.Is(err, ErrSetup) {
		t.Error("frame error must not wrap ErrSetup")
	}
	if b.Rec.Submits != 0 {
		t.Errorf("submits = %d, want 0 for a skipped frame", b.Rec.Submits)
	}

	// The next frame recovers.
	b.Surface.AcquireErr = nil
	if err := s.Render(); err != nil {
		t.Fatalf("Render after recovery: %v", err)
	}
	st := s.Stats()
	if st.Frames != 1 || st.SurfaceUnavailable != 1 {
		t.Errorf("stats = %+v, want 1 frame and 1 unavailable", st)
	}
}

func TestResize_KeepsSurface(t *testing.T) {
	b := gputest.NewBackend()
	s := newTestState(t, b)

	s.Resize(1024, 768)
	if len(b.Rec.SurfaceConfigs) != 1 {
		t.Errorf("surface configured %d times after Resize, want 1", len(b.Rec.SurfaceConfigs))
	}
	if w, h := s.Size(); w != 800 || h != 600 {
		t.Errorf("Size() after Resize = %dx%d, want 800x600", w, h)
	}
	if err := s.Render(); err != nil {
		t.Errorf("Render after Resize: %v", err)
	}
}

func TestClose(t *testing.T) {
	b := gputest.NewBackend()
	s := newTestState(t, b)
	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	n := len(b.Rec.Destroyed)
	if n == 0 {
		t.Fatal("Close released nothing")
	}
	// GPU context objects go last, instance at the very end.
	if last := b.Rec.Destroyed[n-1]; last != "instance" {
		t.Errorf("last released = %q, want instance", last)
	}

	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	if len(b.Rec.Destroyed) != n {
		t.Error("second Close released objects again")
	}
	if err := s.Render(); !errors.Is(err, ErrClosed) {
		t.Errorf("Render after Close = %v, want ErrClosed", err)
	}
}

func TestNew_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ctx, testWindow(10, 10), WithHALBackend(gputest.NewBackend()))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
