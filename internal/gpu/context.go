package gpu

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DefaultFrameLatency is the number of frames the surface may buffer ahead
// of presentation.
const DefaultFrameLatency = 2

// ContextConfig holds the inputs of OpenContext.
type ContextConfig struct {
	// Backend creates the hal instance. Required.
	Backend hal.Backend

	// DisplayHandle and WindowHandle are the native handles passed to
	// hal.Instance.CreateSurface. Both zero selects headless mode on
	// backends that support it.
	DisplayHandle uintptr
	WindowHandle  uintptr

	// Width and Height are the surface size in physical pixels.
	Width  uint32
	Height uint32

	// FrameLatency bounds frames in flight. Zero means DefaultFrameLatency.
	FrameLatency int

	// Format is the preferred surface format. It is used when the surface
	// reports it; otherwise, and when zero, the first reported format is.
	Format gputypes.TextureFormat

	// Debug enables backend validation layers where available.
	Debug bool
}

// Context owns the GPU connection and the presentable surface. It is
// created once and never reconfigured.
type Context struct {
	Instance    hal.Instance
	Surface     hal.Surface
	Adapter     hal.Adapter
	AdapterInfo gputypes.AdapterInfo
	Device      hal.Device
	Queue       hal.Queue

	// Config is the configuration the surface was created with.
	Config hal.SurfaceConfiguration

	// FrameLatency is the resolved buffering depth.
	FrameLatency int

	configured bool
}

// Format returns the surface pixel format.
func (c *Context) Format() gputypes.TextureFormat { return c.Config.Format }

// OpenContext creates an instance, surface, device and queue and configures
// the surface for presentation. ctx is checked between the blocking steps.
//
// The first adapter compatible with the surface is used. The surface format
// is cfg.Format when supported, else the first one the surface reports. Errors wrap ErrSetup. Objects
// created before a failure are released in reverse order.
func OpenContext(ctx context.Context, cfg ContextConfig) (_ *Context, err error) {
	if cfg.Backend == nil {
		return nil, setupErr(ErrNoBackend, nil)
	}
	latency := cfg.FrameLatency
	if latency <= 0 {
		latency = DefaultFrameLatency
	}

	c := &Context{FrameLatency: latency}
	defer func() {
		if err != nil {
			c.Destroy()
		}
	}()

	flags := gputypes.InstanceFlagsNone
	if cfg.Debug {
		flags = gputypes.InstanceFlagsDebug
	}
	c.Instance, err = cfg.Backend.CreateInstance(&hal.InstanceDescriptor{
		Backends: gputypes.BackendsAll,
		Flags:    flags,
	})
	if err != nil {
		return nil, setupErr(ErrNoBackend, fmt.Errorf("create instance: %w", err))
	}

	c.Surface, err = c.Instance.CreateSurface(cfg.DisplayHandle, cfg.WindowHandle)
	if err != nil {
		return nil, setupErr(ErrNoAdapter, fmt.Errorf("create surface: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return nil, setupErr(ErrNoAdapter, err)
	}

	adapters := c.Instance.EnumerateAdapters(c.Surface)
	if len(adapters) == 0 {
		return nil, setupErr(ErrNoAdapter, nil)
	}
	exposed := &adapters[0]
	c.Adapter = exposed.Adapter
	c.AdapterInfo = exposed.Info
	slogger().Info("adapter selected",
		"name", exposed.Info.Name,
		"vendor", exposed.Info.Vendor,
		"type", exposed.Info.DeviceType,
		"backend", exposed.Info.Backend,
		"candidates", len(adapters))
	if err := ctx.Err(); err != nil {
		return nil, setupErr(ErrDeviceRequest, err)
	}

	open, err := c.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return nil, setupErr(ErrDeviceRequest, err)
	}
	c.Device = open.Device
	c.Queue = open.Queue

	caps := c.Adapter.SurfaceCapabilities(c.Surface)
	if caps == nil || len(caps.Formats) == 0 {
		return nil, setupErr(ErrNoSurfaceFormat, nil)
	}

	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, setupErr(ErrInvalidDimensions, fmt.Errorf("%dx%d", cfg.Width, cfg.Height))
	}
	c.Config = hal.SurfaceConfiguration{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      pickFormat(caps.Formats, cfg.Format),
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: gputypes.PresentModeFifo,
		AlphaMode:   gputypes.CompositeAlphaModeAuto,
	}
	if err := c.Surface.Configure(c.Device, &c.Config); err != nil {
		if errors.Is(err, hal.ErrZeroArea) {
			return nil, setupErr(ErrInvalidDimensions, err)
		}
		return nil, setupErr(ErrDeviceRequest, fmt.Errorf("configure surface: %w", err))
	}
	c.configured = true
	slogger().Info("surface configured",
		"width", c.Config.Width,
		"height", c.Config.Height,
		"format", c.Config.Format,
		"present_mode", c.Config.PresentMode,
		"frame_latency", latency)

	return c, nil
}

func pickFormat(formats []gputypes.TextureFormat, preferred gputypes.TextureFormat) gputypes.TextureFormat {
	if preferred != gputypes.TextureFormatUndefined && slices.Contains(formats, preferred) {
		return preferred
	}
	if preferred != gputypes.TextureFormatUndefined {
		slogger().Debug("preferred surface format unsupported", "format", preferred, "using", formats[0])
	}
	return formats[0]
}

// Destroy releases the surface, device and instance in reverse creation
// order. Safe to call on a partially initialized context and more than once.
func (c *Context) Destroy() {
	if c.Device != nil {
		if err := c.Device.WaitIdle(); err != nil {
			slogger().Warn("wait idle on destroy", "err", err)
		}
	}
	if c.Surface != nil {
		if c.configured {
			c.Surface.Unconfigure(c.Device)
			c.configured = false
		}
		c.Surface.Destroy()
		c.Surface = nil
	}
	if c.Device != nil {
		c.Device.Destroy()
		c.Device = nil
		c.Queue = nil
	}
	if c.Adapter != nil {
		c.Adapter.Destroy()
		c.Adapter = nil
	}
	if c.Instance != nil {
		c.Instance.Destroy()
		c.Instance = nil
	}
}
