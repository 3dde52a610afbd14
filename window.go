package quad

import (
	"math"

	"github.com/gogpu/gpucontext"
)

// Window is the native window the quad is drawn into.
//
// Size and ScaleFactor come from gpucontext.WindowProvider; the surface is
// created at Size scaled by ScaleFactor, in physical pixels. NativeHandles
// returns the platform display and window handles handed to
// hal.Instance.CreateSurface (HWND, NSView/CAMetalLayer, X11 Window or
// wl_surface with its display). A window that returns two zero handles asks
// for a headless surface, which only some backends support.
type Window interface {
	gpucontext.WindowProvider
	NativeHandles() (display, window uintptr)
}

// PhysicalSize returns the window size in physical pixels.
func PhysicalSize(w gpucontext.WindowProvider) (width, height uint32) {
	lw, lh := w.Size()
	scale := w.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	return toPixels(lw, scale), toPixels(lh, scale)
}

func toPixels(v int, scale float64) uint32 {
	if v <= 0 {
		return 0
	}
	return uint32(math.Round(float64(v) * scale))
}
