// Package gpu implements the rendering core of quad on top of gogpu/wgpu/hal.
//
// The package is split the way the frame is built:
//
//   - Context: hal instance, surface, adapter, device and queue, plus the
//     surface configuration chosen at startup.
//   - Renderer: the GPU-resident quad (vertex buffer), the time uniform and
//     its bind group, the render pipeline, and the per-frame
//     acquire/update/encode/submit/present protocol.
//   - Shader reflection: the embedded WGSL is parsed and validated with naga
//     before any GPU object is created, so a vertex layout or binding
//     mismatch is reported as a setup error instead of a driver failure.
//
// # Frame protocol
//
//	acquire surface texture -> create view -> write uniform ->
//	render pass (clear, pipeline, bind group 0, vertex buffer 0, draw 6x1) ->
//	submit -> present
//
// A failed acquire returns ErrSurfaceUnavailable and nothing is submitted.
//
// The package does not import any hal backend. Binaries import
// github.com/gogpu/wgpu/hal/allbackends (or a single backend) to register
// them; tests use github.com/gogpu/wgpu/hal/noop through internal/gputest.
package gpu
