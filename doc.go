// Package quad renders a rotating, vertex-colored quad into a native window
// using the pure Go WebGPU stack (github.com/gogpu/wgpu).
//
// # Overview
//
// quad is a minimal real-time rendering loop. It owns two pieces of state:
// the GPU context (instance, adapter, device, queue and a configured
// surface) and the render state (a six-vertex geometry buffer, a 16-byte
// time uniform, a bind group and a render pipeline). The host creates the
// window and pumps its events; quad consumes the window handle and exposes
// an initialization entry point and a per-frame Render call.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/quad"
//	    _ "github.com/gogpu/wgpu/hal/allbackends"
//	)
//
//	s, err := quad.New(ctx, win)
//	if err != nil {
//	    log.Fatal(err) // setup errors are fatal
//	}
//	defer s.Close()
//
//	// On every redraw request:
//	if err := s.Render(); errors.Is(err, quad.ErrSurfaceUnavailable) {
//	    // skip this frame
//	}
//
// The app package wraps this contract in a channel-driven loop.
//
// # Frame Protocol
//
// Each Render call acquires the next surface texture, writes the seconds
// elapsed since New into the time uniform, records one render pass that
// clears to (0.1, 0.2, 0.3, 1) and draws six vertices, submits it and
// presents. The vertex shader rotates each position by the elapsed time in
// radians. At most two frames are in flight at once.
//
// # Backends
//
// Backends are selected by name with WithBackend. The built-in names map to
// the hal backends registered by github.com/gogpu/wgpu/hal/allbackends; the
// "software" backend rasterizes on the CPU and supports headless surfaces.
//
// # Limitations
//
// The surface is configured once with the initial window size. Resizing
// is not handled: Resize only logs a warning.
package quad
