// Package gputest provides a recording hal backend for tests.
//
// Backend wraps the noop backend from github.com/gogpu/wgpu/hal/noop. Every
// object it hands out delegates to the noop implementation and appends what
// it was asked to do to a shared Recorder, so tests can assert on render
// pass descriptors, draw calls, buffer writes, submissions and presents
// without a GPU. Knobs on Backend inject the failures the renderer must
// handle: no adapters, no surface formats, a failed device open and a
// surface that cannot hand out textures.
package gputest

import (
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Draw is one recorded Draw call.
type Draw struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// Pass is one recorded render pass.
type Pass struct {
	Desc          hal.RenderPassDescriptor
	Pipeline      hal.RenderPipeline
	BindGroups    map[uint32]hal.BindGroup
	VertexBuffers map[uint32]hal.Buffer
	Draws         []Draw
	Ended         bool
}

// Write is one recorded Queue.WriteBuffer call.
type Write struct {
	Buffer hal.Buffer
	Offset uint64
	Data   []byte
}

// Recorder collects everything the fakes were asked to do. Events holds a
// flat, ordered log of the frame-level calls ("acquire", "write",
// "begin_pass", "end_pass", "submit", "present", "discard").
type Recorder struct {
	mu sync.Mutex

	Events          []string
	Passes          []*Pass
	Writes          []Write
	Buffers         []hal.BufferDescriptor
	BindGroupLayout []hal.BindGroupLayoutDescriptor
	Pipelines       []hal.RenderPipelineDescriptor
	SurfaceConfigs  []hal.SurfaceConfiguration
	Destroyed       []string

	Submits   int
	Presents  int
	Discards  int
	WaitIdles int
	Freed     int
}

func (r *Recorder) event(name string) {
	r.mu.Lock()
	r.Events = append(r.Events, name)
	r.mu.Unlock()
}

func (r *Recorder) destroyed(kind string) {
	r.mu.Lock()
	r.Destroyed = append(r.Destroyed, kind)
	r.mu.Unlock()
}

// Count returns how many times event appears in Events.
func (r *Recorder) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Events {
		if e == event {
			n++
		}
	}
	return n
}

// LastWriteTo returns the data of the most recent write to buf.
func (r *Recorder) LastWriteTo(buf hal.Buffer) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.Writes) - 1; i >= 0; i-- {
		if r.Writes[i].Buffer == buf {
			return r.Writes[i].Data, true
		}
	}
	return nil, false
}

// Backend is a hal.Backend over noop that records into Rec.
type Backend struct {
	Rec *Recorder

	// Formats overrides the surface formats reported by adapters. A nil
	// slice keeps the noop defaults (BGRA8Unorm, RGBA8Unorm); an empty
	// non-nil slice reports none.
	Formats []gputypes.TextureFormat

	// NoAdapters makes EnumerateAdapters return nothing.
	NoAdapters bool

	// OpenErr is returned by Adapter.Open when set.
	OpenErr error

	// InstanceErr is returned by CreateInstance when set.
	InstanceErr error

	// ManualCompletion keeps submissions pending until WaitIdle or
	// Queue.CompleteThrough is called, so frame pacing can be observed. By
	// default every submission completes immediately, as on noop.
	ManualCompletion bool

	// Surface is the most recently created surface.
	Surface *Surface
}

// NewBackend returns a recording backend with a fresh Recorder.
func NewBackend() *Backend {
	return &Backend{Rec: &Recorder{}}
}

// Variant reports the empty backend, like noop.
func (b *Backend) Variant() gputypes.Backend { return gputypes.BackendEmpty }

// CreateInstance wraps a noop instance.
func (b *Backend) CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error) {
	if b.InstanceErr != nil {
		return nil, b.InstanceErr
	}
	inner, err := noop.API{}.CreateInstance(desc)
	if err != nil {
		return nil, err
	}
	return &Instance{Instance: inner, b: b}, nil
}

// Instance records surface creation and filters adapters.
type Instance struct {
	hal.Instance
	b *Backend
}

// CreateSurface wraps the noop surface.
func (i *Instance) CreateSurface(display, window uintptr) (hal.Surface, error) {
	inner, err := i.Instance.CreateSurface(display, window)
	if err != nil {
		return nil, err
	}
	s := &Surface{Surface: inner, rec: i.b.Rec}
	i.b.Surface = s
	return s, nil
}

// EnumerateAdapters wraps the noop adapters, or returns none.
func (i *Instance) EnumerateAdapters(hint hal.Surface) []hal.ExposedAdapter {
	if i.b.NoAdapters {
		return nil
	}
	adapters := i.Instance.EnumerateAdapters(hint)
	for k := range adapters {
		adapters[k].Adapter = &Adapter{Adapter: adapters[k].Adapter, b: i.b}
	}
	return adapters
}

// Destroy records instance teardown.
func (i *Instance) Destroy() {
	i.b.Rec.destroyed("instance")
	i.Instance.Destroy()
}

// Adapter overrides device opening and surface capabilities.
type Adapter struct {
	hal.Adapter
	b *Backend
}

// Open wraps the noop device and queue.
func (a *Adapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	if a.b.OpenErr != nil {
		return hal.OpenDevice{}, a.b.OpenErr
	}
	open, err := a.Adapter.Open(features, limits)
	if err != nil {
		return open, err
	}
	q := &Queue{Queue: open.Queue, rec: a.b.Rec, manual: a.b.ManualCompletion}
	d := &Device{Device: open.Device, rec: a.b.Rec, queue: q}
	return hal.OpenDevice{Device: d, Queue: q}, nil
}

// SurfaceCapabilities applies Backend.Formats.
func (a *Adapter) SurfaceCapabilities(s hal.Surface) *hal.SurfaceCapabilities {
	caps := a.Adapter.SurfaceCapabilities(s)
	if caps != nil && a.b.Formats != nil {
		c := *caps
		c.Formats = append([]gputypes.TextureFormat(nil), a.b.Formats...)
		return &c
	}
	return caps
}

// Destroy records adapter teardown.
func (a *Adapter) Destroy() {
	a.b.Rec.destroyed("adapter")
	a.Adapter.Destroy()
}

// Surface records configuration and presentation, and can be told to fail
// texture acquisition.
type Surface struct {
	hal.Surface
	rec *Recorder

	// AcquireErr is returned by AcquireTexture when set.
	AcquireErr error
}

// Configure records the configuration.
func (s *Surface) Configure(device hal.Device, config *hal.SurfaceConfiguration) error {
	s.rec.mu.Lock()
	s.rec.SurfaceConfigs = append(s.rec.SurfaceConfigs, *config)
	s.rec.mu.Unlock()
	return s.Surface.Configure(device, config)
}

// AcquireTexture fails with AcquireErr when set.
func (s *Surface) AcquireTexture(fence hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	s.rec.event("acquire")
	if s.AcquireErr != nil {
		return nil, s.AcquireErr
	}
	return s.Surface.AcquireTexture(fence)
}

// DiscardTexture records the discard.
func (s *Surface) DiscardTexture(tex hal.SurfaceTexture) {
	s.rec.event("discard")
	s.rec.mu.Lock()
	s.rec.Discards++
	s.rec.mu.Unlock()
	s.Surface.DiscardTexture(tex)
}

// Destroy records surface teardown.
func (s *Surface) Destroy() {
	s.rec.destroyed("surface")
	s.Surface.Destroy()
}

// Device records resource creation and destruction and wraps encoders.
type Device struct {
	hal.Device
	rec   *Recorder
	queue *Queue
}

// CreateBuffer records the descriptor.
func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.rec.mu.Lock()
	d.rec.Buffers = append(d.rec.Buffers, *desc)
	d.rec.mu.Unlock()
	return d.Device.CreateBuffer(desc)
}

// CreateBindGroupLayout records the descriptor.
func (d *Device) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	d.rec.mu.Lock()
	d.rec.BindGroupLayout = append(d.rec.BindGroupLayout, *desc)
	d.rec.mu.Unlock()
	return d.Device.CreateBindGroupLayout(desc)
}

// CreateRenderPipeline records the descriptor.
func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.rec.mu.Lock()
	d.rec.Pipelines = append(d.rec.Pipelines, *desc)
	d.rec.mu.Unlock()
	return d.Device.CreateRenderPipeline(desc)
}

// CreateCommandEncoder wraps the encoder so passes are recorded.
func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &CommandEncoder{CommandEncoder: enc, rec: d.rec}, nil
}

// FreeCommandBuffer counts freed command buffers.
func (d *Device) FreeCommandBuffer(cmd hal.CommandBuffer) {
	d.rec.mu.Lock()
	d.rec.Freed++
	d.rec.mu.Unlock()
	d.Device.FreeCommandBuffer(cmd)
}

// WaitIdle completes all pending submissions.
func (d *Device) WaitIdle() error {
	d.rec.mu.Lock()
	d.rec.WaitIdles++
	d.rec.mu.Unlock()
	d.queue.completeAll()
	return d.Device.WaitIdle()
}

// DestroyBuffer records the teardown.
func (d *Device) DestroyBuffer(b hal.Buffer) {
	d.rec.destroyed("buffer")
	d.Device.DestroyBuffer(b)
}

// DestroyBindGroupLayout records the teardown.
func (d *Device) DestroyBindGroupLayout(l hal.BindGroupLayout) {
	d.rec.destroyed("bind_group_layout")
	d.Device.DestroyBindGroupLayout(l)
}

// DestroyBindGroup records the teardown.
func (d *Device) DestroyBindGroup(g hal.BindGroup) {
	d.rec.destroyed("bind_group")
	d.Device.DestroyBindGroup(g)
}

// DestroyShaderModule records the teardown.
func (d *Device) DestroyShaderModule(m hal.ShaderModule) {
	d.rec.destroyed("shader_module")
	d.Device.DestroyShaderModule(m)
}

// DestroyPipelineLayout records the teardown.
func (d *Device) DestroyPipelineLayout(l hal.PipelineLayout) {
	d.rec.destroyed("pipeline_layout")
	d.Device.DestroyPipelineLayout(l)
}

// DestroyRenderPipeline records the teardown.
func (d *Device) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.rec.destroyed("render_pipeline")
	d.Device.DestroyRenderPipeline(p)
}

// Destroy records device teardown.
func (d *Device) Destroy() {
	d.rec.destroyed("device")
	d.Device.Destroy()
}

// Queue records writes, submissions and presents. With manual completion
// PollCompleted lags until the device waits idle.
type Queue struct {
	hal.Queue
	rec    *Recorder
	manual bool

	mu        sync.Mutex
	submitted uint64
	completed uint64
}

// WriteBuffer records a copy of data.
func (q *Queue) WriteBuffer(buf hal.Buffer, offset uint64, data []byte) error {
	q.rec.event("write")
	q.rec.mu.Lock()
	q.rec.Writes = append(q.rec.Writes, Write{Buffer: buf, Offset: offset, Data: append([]byte(nil), data...)})
	q.rec.mu.Unlock()
	return q.Queue.WriteBuffer(buf, offset, data)
}

// Submit records the submission.
func (q *Queue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	q.rec.event("submit")
	q.rec.mu.Lock()
	q.rec.Submits++
	q.rec.mu.Unlock()
	idx, err := q.Queue.Submit(cmds)
	if err != nil {
		return idx, err
	}
	q.mu.Lock()
	q.submitted = idx
	if !q.manual {
		q.completed = idx
	}
	q.mu.Unlock()
	return idx, nil
}

// PollCompleted reports the last completed submission.
func (q *Queue) PollCompleted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

// InFlight reports submissions not yet completed.
func (q *Queue) InFlight() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.submitted - q.completed
}

// CompleteThrough marks every submission up to index as completed, as a GPU
// retiring frames in order would.
func (q *Queue) CompleteThrough(index uint64) {
	q.mu.Lock()
	q.completed = max(q.completed, min(index, q.submitted))
	q.mu.Unlock()
}

func (q *Queue) completeAll() {
	q.mu.Lock()
	q.completed = q.submitted
	q.mu.Unlock()
}

// Present records the present.
func (q *Queue) Present(surface hal.Surface, tex hal.SurfaceTexture, damage []image.Rectangle) error {
	q.rec.event("present")
	q.rec.mu.Lock()
	q.rec.Presents++
	q.rec.mu.Unlock()
	return q.Queue.Present(surface, tex, damage)
}

// CommandEncoder records render passes.
type CommandEncoder struct {
	hal.CommandEncoder
	rec *Recorder
}

// BeginRenderPass records the descriptor and wraps the pass encoder.
func (e *CommandEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.rec.event("begin_pass")
	p := &Pass{
		Desc:          *desc,
		BindGroups:    make(map[uint32]hal.BindGroup),
		VertexBuffers: make(map[uint32]hal.Buffer),
	}
	e.rec.mu.Lock()
	e.rec.Passes = append(e.rec.Passes, p)
	e.rec.mu.Unlock()
	return &RenderPassEncoder{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), pass: p, rec: e.rec}
}

// RenderPassEncoder records state changes and draws into a Pass.
type RenderPassEncoder struct {
	hal.RenderPassEncoder
	pass *Pass
	rec  *Recorder
}

// SetPipeline records the pipeline.
func (r *RenderPassEncoder) SetPipeline(p hal.RenderPipeline) {
	r.pass.Pipeline = p
	r.RenderPassEncoder.SetPipeline(p)
}

// SetBindGroup records the group at index.
func (r *RenderPassEncoder) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	r.pass.BindGroups[index] = group
	r.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

// SetVertexBuffer records the buffer at slot.
func (r *RenderPassEncoder) SetVertexBuffer(slot uint32, buf hal.Buffer, offset uint64) {
	r.pass.VertexBuffers[slot] = buf
	r.RenderPassEncoder.SetVertexBuffer(slot, buf, offset)
}

// Draw records the draw.
func (r *RenderPassEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.pass.Draws = append(r.pass.Draws, Draw{vertexCount, instanceCount, firstVertex, firstInstance})
	r.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// End marks the pass ended.
func (r *RenderPassEncoder) End() {
	r.pass.Ended = true
	r.rec.event("end_pass")
	r.RenderPassEncoder.End()
}
