package gpu

import (
	"errors"
	"fmt"
)

// Setup errors. Every error returned by OpenContext and NewRenderer wraps
// ErrSetup together with one of the specific causes below.
var (
	// ErrSetup marks an unrecoverable initialization failure.
	ErrSetup = errors.New("quad: setup failed")

	// ErrNoBackend is returned when no GPU backend is registered or the
	// requested one is unknown.
	ErrNoBackend = errors.New("quad: no GPU backend available")

	// ErrNoAdapter is returned when no adapter is compatible with the surface.
	ErrNoAdapter = errors.New("quad: no compatible GPU adapter")

	// ErrDeviceRequest is returned when the logical device cannot be opened.
	ErrDeviceRequest = errors.New("quad: device request failed")

	// ErrNoSurfaceFormat is returned when the surface reports no formats.
	ErrNoSurfaceFormat = errors.New("quad: surface reports no supported format")

	// ErrInvalidDimensions is returned when the window has zero width or height.
	ErrInvalidDimensions = errors.New("quad: invalid surface dimensions")

	// ErrShaderInterface is returned when the WGSL entry points or bindings do
	// not match the vertex and binding layouts.
	ErrShaderInterface = errors.New("quad: shader interface mismatch")

	// ErrPipeline is returned when a buffer, layout, shader module or render
	// pipeline cannot be created.
	ErrPipeline = errors.New("quad: pipeline creation failed")
)

// Frame errors.
var (
	// ErrSurfaceUnavailable is returned by Render when no surface texture
	// could be acquired. The frame is skipped; nothing was submitted.
	ErrSurfaceUnavailable = errors.New("quad: surface texture unavailable")

	// ErrClosed is returned by Render after Destroy.
	ErrClosed = errors.New("quad: renderer closed")
)

// setupErr wraps err as a setup failure of the given kind so that both
// ErrSetup and cause match errors.Is. err may be nil.
func setupErr(cause, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %w", ErrSetup, cause)
	}
	return fmt.Errorf("%w: %w: %w", ErrSetup, cause, err)
}
