package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ClearColor is the background the render pass clears to each frame.
var ClearColor = gputypes.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0}

// RendererStats reports per-frame counters.
type RendererStats struct {
	// Frames is the number of frames submitted and presented.
	Frames uint64

	// SurfaceUnavailable counts frames skipped because no surface texture
	// could be acquired.
	SurfaceUnavailable uint64

	// PacerWaits counts frames that blocked on an earlier submission.
	PacerWaits uint64

	// LastAngle is the time uniform written for the most recent frame.
	LastAngle float32
}

// Renderer draws the rotating quad into the surface of a Context.
//
// Renderer is not safe for concurrent use. It does not own the Context;
// Destroy releases only the renderer's own GPU objects.
type Renderer struct {
	gpu   *Context
	res   *quadResources
	pacer *framePacer

	clock func() time.Time
	start time.Time

	stats  RendererStats
	closed bool
}

// NewRenderer uploads the quad geometry and the time uniform and builds the
// pipeline for the context's surface format. clock may be nil, in which case
// time.Now is used. The elapsed time driving the rotation is measured from
// this call.
func NewRenderer(c *Context, clock func() time.Time) (*Renderer, error) {
	if clock == nil {
		clock = time.Now
	}
	res, err := createQuadResources(c.Device, c.Queue, c.Format())
	if err != nil {
		return nil, err
	}
	return &Renderer{
		gpu:   c,
		res:   res,
		pacer: newFramePacer(c.Device, c.Queue, c.FrameLatency),
		clock: clock,
		start: clock(),
	}, nil
}

// Elapsed returns the time since the renderer was created.
func (r *Renderer) Elapsed() time.Duration {
	return r.clock().Sub(r.start)
}

// Stats returns a snapshot of the frame counters.
func (r *Renderer) Stats() RendererStats {
	s := r.stats
	s.PacerWaits = r.pacer.waits
	return s
}

// Render produces one frame: acquire, update the time uniform, record the
// pass, submit, present. If no surface texture can be acquired it returns
// an error wrapping ErrSurfaceUnavailable and nothing is submitted or
// presented.
//
//nolint:funlen // one linear frame protocol
func (r *Renderer) Render() error {
	if r.closed {
		return ErrClosed
	}
	if err := r.pacer.begin(); err != nil {
		return fmt.Errorf("frame pacing: %w", err)
	}

	acquired, err := r.gpu.Surface.AcquireTexture(nil)
	if err != nil || acquired == nil {
		r.stats.SurfaceUnavailable++
		if err == nil {
			err = hal.ErrNotReady
		}
		return fmt.Errorf("%w: %w", ErrSurfaceUnavailable, err)
	}
	if acquired.Suboptimal {
		slogger().Debug("surface texture suboptimal")
	}
	surfaceTex := acquired.Texture

	view, err := r.gpu.Device.CreateTextureView(surfaceTex, &hal.TextureViewDescriptor{
		Label:           "quad_surface_view",
		Format:          r.gpu.Format(),
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
	})
	if err != nil {
		r.gpu.Surface.DiscardTexture(surfaceTex)
		return fmt.Errorf("create surface view: %w", err)
	}
	defer r.gpu.Device.DestroyTextureView(view)

	angle := float32(r.Elapsed().Seconds())
	if err := r.gpu.Queue.WriteBuffer(r.res.uniformBuffer, 0, TimeUniform{Angle: angle}.Bytes()); err != nil {
		r.gpu.Surface.DiscardTexture(surfaceTex)
		return fmt.Errorf("write time uniform: %w", err)
	}

	encoder, err := r.gpu.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "quad_frame_encoder",
	})
	if err != nil {
		r.gpu.Surface.DiscardTexture(surfaceTex)
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("quad_frame"); err != nil {
		r.gpu.Surface.DiscardTexture(surfaceTex)
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "quad_render_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: ClearColor,
			},
		},
	})
	rp.SetPipeline(r.res.pipeline)
	rp.SetBindGroup(0, r.res.bindGroup, nil)
	rp.SetVertexBuffer(0, r.res.vertexBuffer, 0)
	rp.Draw(QuadVertexCount, 1, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		r.gpu.Surface.DiscardTexture(surfaceTex)
		return fmt.Errorf("end encoding: %w", err)
	}

	index, err := r.gpu.Queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		r.gpu.Device.FreeCommandBuffer(cmdBuf)
		r.gpu.Surface.DiscardTexture(surfaceTex)
		return fmt.Errorf("submit: %w", err)
	}
	r.pacer.submitted(index, cmdBuf)

	if err := r.gpu.Queue.Present(r.gpu.Surface, surfaceTex, nil); err != nil {
		return fmt.Errorf("present: %w", err)
	}

	r.stats.Frames++
	r.stats.LastAngle = angle
	slogger().Debug("frame presented", "frame", r.stats.Frames, "angle", angle, "submission", index)
	return nil
}

// Destroy waits for in-flight frames and releases the pipeline, bind group
// and buffers in reverse creation order. It is idempotent.
func (r *Renderer) Destroy() {
	if r.closed {
		return
	}
	r.closed = true
	r.pacer.drain()
	r.res.destroy()
}
