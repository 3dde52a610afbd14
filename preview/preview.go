// Package preview rasterizes the quad on the CPU the way the GPU pipeline
// draws it: the same six vertices, rotated in clip space by the same angle,
// with colors interpolated across each triangle, over the clear color.
//
// The output is used to check GPU frames and by the CLI's -preview flag.
// Scale enlarges either kind of frame for viewing.
package preview

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f32"
	"golang.org/x/image/vector"

	"github.com/gogpu/quad/internal/gpu"
)

// Background returns the clear color as 8-bit RGBA.
func Background() color.RGBA {
	c := gpu.ClearColor
	return color.RGBA{R: unorm8(c.R), G: unorm8(c.G), B: unorm8(c.B), A: unorm8(c.A)}
}

// Transform maps quad-local coordinates to pixel coordinates of a
// width×height target: rotation by angle, then the clip-space to viewport
// mapping (y up in clip space, y down in pixels).
func Transform(width, height int, angle float32) f32.Aff3 {
	sin, cos := math.Sincos(float64(angle))
	hw, hh := float32(width)/2, float32(height)/2
	s, c := float32(sin), float32(cos)
	return f32.Aff3{
		hw * c, -hw * s, hw,
		-hh * s, -hh * c, hh,
	}
}

func apply(m f32.Aff3, x, y float32) f32.Vec2 {
	return f32.Vec2{m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]}
}

// Render returns a width×height image of the frame drawn at angle.
func Render(width, height int, angle float32) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background()), image.Point{}, draw.Src)
	if width <= 0 || height <= 0 {
		return dst
	}

	m := Transform(width, height, angle)
	verts := gpu.QuadVertices()
	sh := &shader{bounds: dst.Bounds()}
	for i, v := range verts {
		sh.tris[i/3].p[i%3] = apply(m, v.Position[0], v.Position[1])
		sh.tris[i/3].c[i%3] = v.Color
	}

	// The outline of the quad is the union of both triangles; one path
	// avoids double coverage along the shared diagonal.
	t0, t1 := sh.tris[0], sh.tris[1]
	z := vector.NewRasterizer(width, height)
	z.DrawOp = draw.Over
	z.MoveTo(t0.p[0][0], t0.p[0][1])
	z.LineTo(t0.p[1][0], t0.p[1][1])
	z.LineTo(t0.p[2][0], t0.p[2][1])
	z.LineTo(t1.p[2][0], t1.p[2][1])
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), sh, image.Point{})
	return dst
}

// Scale resizes src to width×height with Catmull-Rom filtering.
func Scale(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

type triangle struct {
	p [3]f32.Vec2
	c [3][3]float32
}

// barycentric returns the weights of (x, y) relative to t's vertices.
func (t *triangle) barycentric(x, y float32) (l [3]float32) {
	a, b, c := t.p[0], t.p[1], t.p[2]
	d := (b[1]-c[1])*(a[0]-c[0]) + (c[0]-b[0])*(a[1]-c[1])
	if d == 0 {
		return [3]float32{1, 0, 0}
	}
	l[0] = ((b[1]-c[1])*(x-c[0]) + (c[0]-b[0])*(y-c[1])) / d
	l[1] = ((c[1]-a[1])*(x-c[0]) + (a[0]-c[0])*(y-c[1])) / d
	l[2] = 1 - l[0] - l[1]
	return l
}

// shader is the source image for the quad path: each pixel center takes
// the interpolated vertex color of the triangle it falls in. Edge pixels
// that are partly outside both triangles are clamped to the nearest one.
type shader struct {
	bounds image.Rectangle
	tris   [2]triangle
}

func (s *shader) ColorModel() color.Model { return color.RGBAModel }
func (s *shader) Bounds() image.Rectangle { return s.bounds }

func (s *shader) At(x, y int) color.Color {
	px, py := float32(x)+0.5, float32(y)+0.5

	best, bestMin := 0, float32(math.Inf(-1))
	var weights [3]float32
	for i := range s.tris {
		l := s.tris[i].barycentric(px, py)
		if m := min(l[0], l[1], l[2]); m > bestMin {
			best, bestMin, weights = i, m, l
		}
	}

	var sum float32
	for k := range weights {
		weights[k] = max(weights[k], 0)
		sum += weights[k]
	}
	var rgb [3]float32
	t := &s.tris[best]
	for k := range weights {
		w := weights[k] / sum
		for ch := range rgb {
			rgb[ch] += w * t.c[k][ch]
		}
	}
	return color.RGBA{R: unorm8(float64(rgb[0])), G: unorm8(float64(rgb[1])), B: unorm8(float64(rgb[2])), A: 0xff}
}

func unorm8(v float64) uint8 {
	return uint8(math.Round(min(max(v, 0), 1) * 255))
}
