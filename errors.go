package quad

import "github.com/gogpu/quad/internal/gpu"

// Setup errors. New returns an error wrapping ErrSetup and one of the
// specific causes; callers are expected to treat any of them as fatal.
var (
	ErrSetup             = gpu.ErrSetup
	ErrNoBackend         = gpu.ErrNoBackend
	ErrNoAdapter         = gpu.ErrNoAdapter
	ErrDeviceRequest     = gpu.ErrDeviceRequest
	ErrNoSurfaceFormat   = gpu.ErrNoSurfaceFormat
	ErrInvalidDimensions = gpu.ErrInvalidDimensions
	ErrShaderInterface   = gpu.ErrShaderInterface
	ErrPipeline          = gpu.ErrPipeline
)

// Frame errors.
var (
	// ErrSurfaceUnavailable is returned by Render when the next surface
	// texture could not be acquired. The frame was skipped; the caller may
	// try again on the next redraw.
	ErrSurfaceUnavailable = gpu.ErrSurfaceUnavailable

	// ErrClosed is returned by Render after Close.
	ErrClosed = gpu.ErrClosed
)
