package quad

import (
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quad/internal/gpu"
)

// Option configures a State during creation.
//
// Example:
//
//	// Default: best registered backend, wall clock, two frames in flight.
//	s, err := quad.New(ctx, win)
//
//	// Force the software rasterizer and enable validation.
//	s, err := quad.New(ctx, win, quad.WithBackend("software"), quad.WithDebug(true))
type Option func(*options)

// options holds optional configuration for State creation.
type options struct {
	backendName  string
	halBackend   hal.Backend
	clock        func() time.Time
	frameLatency int
	format       gputypes.TextureFormat
	debug        bool
}

// defaultOptions returns the default State options.
func defaultOptions() options {
	return options{
		backendName:  BackendAuto,
		clock:        time.Now,
		frameLatency: gpu.DefaultFrameLatency,
	}
}

// WithBackend selects a registered backend by name ("vulkan", "metal",
// "dx12", "gl", "software" or "auto"). See RegisterBackend.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithHALBackend uses b directly and bypasses the backend registry.
// Tests use it to inject a recording backend.
func WithHALBackend(b hal.Backend) Option {
	return func(o *options) {
		o.halBackend = b
	}
}

// WithClock sets the time source for the rotation angle. A nil clock keeps
// time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithFrameLatency bounds the number of frames submitted but not yet
// completed by the GPU. Values below 1 keep the default of 2.
func WithFrameLatency(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.frameLatency = n
		}
	}
}

// WithSurfaceFormat prefers format for the surface. The first format the
// surface reports is used when format is not among them.
func WithSurfaceFormat(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithDebug enables backend validation layers where the backend has them.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}
