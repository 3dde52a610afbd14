package quad

import (
	"context"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quad/internal/gpu"
)

// Stats is a snapshot of a State's frame counters.
type Stats struct {
	// Frames is the number of frames submitted and presented.
	Frames uint64

	// SurfaceUnavailable is the number of frames skipped because the
	// surface could not provide a texture.
	SurfaceUnavailable uint64

	// PacerWaits is the number of frames that waited for an earlier
	// frame to finish on the GPU.
	PacerWaits uint64

	// Angle is the rotation, in radians, of the last presented frame.
	Angle float32

	// Elapsed is the time since the State was created.
	Elapsed time.Duration
}

// State is the rendering state for one window: the GPU context plus the
// quad's geometry, time uniform and pipeline.
//
// State is not safe for concurrent use. Create it once, call Render for
// every redraw request, and Close it when the window goes away.
type State struct {
	gpu      *gpu.Context
	renderer *gpu.Renderer
	backend  string
	closed   bool
}

// New acquires a GPU adapter, device and surface for win and builds the
// quad pipeline. It blocks until the device is available; ctx is checked
// between the blocking steps.
//
// All errors wrap ErrSetup and are not recoverable.
func New(ctx context.Context, win Window, opts ...Option) (*State, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b, name, err := resolveBackend(&o)
	if err != nil {
		return nil, err
	}
	width, height := PhysicalSize(win)
	display, window := win.NativeHandles()
	Logger().Info("quad: initializing", "backend", name, "width", width, "height", height)

	c, err := gpu.OpenContext(ctx, gpu.ContextConfig{
		Backend:       b,
		DisplayHandle: display,
		WindowHandle:  window,
		Width:         width,
		Height:        height,
		FrameLatency:  o.frameLatency,
		Format:        o.format,
		Debug:         o.debug,
	})
	if err != nil {
		return nil, err
	}

	r, err := gpu.NewRenderer(c, o.clock)
	if err != nil {
		c.Destroy()
		return nil, err
	}
	return &State{gpu: c, renderer: r, backend: name}, nil
}

// Render draws one frame and presents it.
//
// If the surface cannot provide a texture (for example after it was lost
// or went out of date), Render returns an error wrapping
// ErrSurfaceUnavailable and nothing is submitted. Callers skip that frame.
func (s *State) Render() error {
	if s.closed {
		return ErrClosed
	}
	return s.renderer.Render()
}

// Resize reports a window size change. The surface keeps its original
// configuration; Resize only logs that frames will be scaled by the
// compositor or clipped.
func (s *State) Resize(width, height int) {
	Logger().Warn("quad: window resized, surface keeps its original size",
		"width", width, "height", height,
		"surface_width", s.gpu.Config.Width, "surface_height", s.gpu.Config.Height)
}

// Stats returns the current frame counters.
func (s *State) Stats() Stats {
	rs := s.renderer.Stats()
	return Stats{
		Frames:             rs.Frames,
		SurfaceUnavailable: rs.SurfaceUnavailable,
		PacerWaits:         rs.PacerWaits,
		Angle:              rs.LastAngle,
		Elapsed:            s.renderer.Elapsed(),
	}
}

// Format returns the pixel format the surface was configured with.
func (s *State) Format() gputypes.TextureFormat { return s.gpu.Format() }

// Size returns the surface size in physical pixels.
func (s *State) Size() (width, height uint32) {
	return s.gpu.Config.Width, s.gpu.Config.Height
}

// Backend returns the name of the backend the State runs on.
func (s *State) Backend() string { return s.backend }

// Adapter returns information about the GPU adapter in use.
func (s *State) Adapter() gputypes.AdapterInfo { return s.gpu.AdapterInfo }

// Surface returns the underlying hal surface. The CLI uses it to read back
// the software backend's framebuffer.
func (s *State) Surface() hal.Surface { return s.gpu.Surface }

// Close waits for the GPU to finish and releases every GPU object in
// reverse creation order. Close is idempotent.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.renderer.Destroy()
	s.gpu.Destroy()
	return nil
}
