package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// quadResources holds every GPU object the quad pass binds. Fields are
// filled in creation order and released in reverse by destroy.
type quadResources struct {
	device hal.Device

	vertexBuffer  hal.Buffer
	uniformBuffer hal.Buffer
	uniformLayout hal.BindGroupLayout
	bindGroup     hal.BindGroup
	shader        hal.ShaderModule
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
}

// QuadPrimitiveState returns the rasterizer state of the quad pipeline:
// triangle list, counter-clockwise front faces, back faces culled.
func QuadPrimitiveState() gputypes.PrimitiveState {
	return gputypes.PrimitiveState{
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  gputypes.CullModeBack,
	}
}

// QuadColorTarget returns the single color target of the quad pipeline for
// the given surface format. Blending replaces the destination.
func QuadColorTarget(format gputypes.TextureFormat) gputypes.ColorTargetState {
	replace := gputypes.BlendStateReplace()
	return gputypes.ColorTargetState{
		Format:    format,
		Blend:     &replace,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
}

// QuadBindGroupLayoutEntries returns the bind group layout of the quad
// pipeline: binding 0 is the time uniform, visible to the vertex stage.
func QuadBindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: timeUniformSize,
			},
		},
	}
}

// createQuadResources uploads the geometry and the initial uniform, then
// builds the bind group and the render pipeline for the given color format.
// The shader interface is checked before any GPU object is created.
// On failure everything created so far is released.
func createQuadResources(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) (*quadResources, error) {
	if err := checkQuadShader(quadShaderSource); err != nil {
		return nil, setupErr(ErrShaderInterface, err)
	}

	r := &quadResources{device: device}
	if err := r.create(queue, format); err != nil {
		r.destroy()
		return nil, setupErr(ErrPipeline, err)
	}
	return r, nil
}

//nolint:funlen // sequential resource creation
func (r *quadResources) create(queue hal.Queue, format gputypes.TextureFormat) error {
	verts := QuadVertices()
	vertexData := EncodeVertices(verts[:])

	var err error
	r.vertexBuffer, err = r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "quad_vertices",
		Size:  uint64(len(vertexData)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	if err := queue.WriteBuffer(r.vertexBuffer, 0, vertexData); err != nil {
		return fmt.Errorf("upload vertices: %w", err)
	}

	r.uniformBuffer, err = r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "quad_time_uniform",
		Size:  timeUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	if err := queue.WriteBuffer(r.uniformBuffer, 0, TimeUniform{}.Bytes()); err != nil {
		return fmt.Errorf("upload uniform: %w", err)
	}

	r.uniformLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "quad_uniform_layout",
		Entries: QuadBindGroupLayoutEntries(),
	})
	if err != nil {
		return fmt.Errorf("create uniform layout: %w", err)
	}

	r.bindGroup, err = r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "quad_uniform_bind",
		Layout: r.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.uniformBuffer.NativeHandle(), Offset: 0, Size: timeUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}

	r.shader, err = r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "quad_shader",
		Source: hal.ShaderSource{WGSL: quadShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile quad shader: %w", err)
	}

	r.pipeLayout, err = r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "quad_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	r.pipeline, err = r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "quad_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: vertexEntryPoint,
			Buffers:    VertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: fragmentEntryPoint,
			Targets:    []gputypes.ColorTargetState{QuadColorTarget(format)},
		},
		Primitive: QuadPrimitiveState(),
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}

	slogger().Debug("quad pipeline created",
		"format", format,
		"vertices", len(verts),
		"vertex_bytes", len(vertexData))
	return nil
}

// destroy releases the resources in reverse creation order.
func (r *quadResources) destroy() {
	if r.device == nil {
		return
	}
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniformLayout != nil {
		r.device.DestroyBindGroupLayout(r.uniformLayout)
		r.uniformLayout = nil
	}
	if r.uniformBuffer != nil {
		r.device.DestroyBuffer(r.uniformBuffer)
		r.uniformBuffer = nil
	}
	if r.vertexBuffer != nil {
		r.device.DestroyBuffer(r.vertexBuffer)
		r.vertexBuffer = nil
	}
}
