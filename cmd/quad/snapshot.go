package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/preview"
)

// framebufferReader is implemented by surfaces whose pixels live in host
// memory, such as the software backend's. GetFramebuffer returns RGBA bytes.
type framebufferReader interface {
	GetFramebuffer() []byte
}

// snapshot copies the surface's current framebuffer into an image.
func snapshot(s *quad.State) (*image.RGBA, error) {
	fb, ok := s.Surface().(framebufferReader)
	if !ok {
		return nil, fmt.Errorf("snapshot: backend %s has no readable framebuffer", s.Backend())
	}
	w, h := s.Size()
	data := fb.GetFramebuffer()
	if want := int(w) * int(h) * 4; len(data) < want {
		return nil, fmt.Errorf("snapshot: framebuffer has %d bytes, want %d", len(data), want)
	}
	return &image.RGBA{
		Pix:    data,
		Stride: int(w) * 4,
		Rect:   image.Rect(0, 0, int(w), int(h)),
	}, nil
}

// writeScaledPNG writes img enlarged or reduced by cfg.Scale.
func writeScaledPNG(cfg Config, path string, img *image.RGBA) error {
	if cfg.Scale == 1 {
		return writePNG(path, img)
	}
	w, h := cfg.scaled(img.Bounds().Dx(), img.Bounds().Dy())
	return writePNG(path, preview.Scale(img, w, h))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// meanAbsDiff returns the mean absolute difference per color channel of
// two images over their common bounds, in 0..255.
func meanAbsDiff(a, b *image.RGBA) float64 {
	r := a.Bounds().Intersect(b.Bounds())
	if r.Empty() {
		return 0
	}
	var sum, n uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			ca, cb := a.RGBAAt(x, y), b.RGBAAt(x, y)
			sum += absDiff(ca.R, cb.R) + absDiff(ca.G, cb.G) + absDiff(ca.B, cb.B)
			n += 3
		}
	}
	return float64(sum) / float64(n)
}

func absDiff(a, b uint8) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}
