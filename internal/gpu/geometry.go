package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// quadVertexStride is the byte stride per vertex in the quad pipeline.
// Layout per vertex:
//
//	position (vec2<f32>) = 8 bytes  (location 0)
//	color    (vec3<f32>) = 12 bytes (location 1)
//
// Total = 20 bytes per vertex.
const quadVertexStride = 20

// QuadVertexCount is the number of vertices drawn per frame: two triangles,
// no index buffer.
const QuadVertexCount = 6

// Vertex is one interleaved quad vertex.
type Vertex struct {
	Position [2]float32
	Color    [3]float32
}

// QuadVertices returns the fixed quad geometry: two counter-clockwise
// triangles sharing the bottom-left/top-right diagonal, spanning
// (-0.5,-0.5) to (0.5,0.5) in clip space.
func QuadVertices() [QuadVertexCount]Vertex {
	var (
		red    = [3]float32{1, 0, 0}
		green  = [3]float32{0, 1, 0}
		blue   = [3]float32{0, 0, 1}
		yellow = [3]float32{1, 1, 0}
	)
	return [QuadVertexCount]Vertex{
		// bottom-left, bottom-right, top-right
		{Position: [2]float32{-0.5, -0.5}, Color: red},
		{Position: [2]float32{0.5, -0.5}, Color: green},
		{Position: [2]float32{0.5, 0.5}, Color: blue},
		// bottom-left, top-right, top-left
		{Position: [2]float32{-0.5, -0.5}, Color: red},
		{Position: [2]float32{0.5, 0.5}, Color: blue},
		{Position: [2]float32{-0.5, 0.5}, Color: yellow},
	}
}

// VertexStride returns the byte stride of one vertex in the vertex buffer.
func VertexStride() uint64 { return quadVertexStride }

// VertexLayout returns the vertex buffer layout for the quad pipeline.
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: quadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x3, Offset: 8, ShaderLocation: 1}, // color
			},
		},
	}
}

// EncodeVertices packs vertices into the little-endian byte layout described
// by VertexLayout.
func EncodeVertices(verts []Vertex) []byte {
	buf := make([]byte, len(verts)*quadVertexStride)
	for i := range verts {
		writeQuadVertex(buf[i*quadVertexStride:], &verts[i])
	}
	return buf
}

// DecodeVertices is the inverse of EncodeVertices. Trailing bytes that do not
// form a whole vertex are ignored.
func DecodeVertices(data []byte) []Vertex {
	n := len(data) / quadVertexStride
	verts := make([]Vertex, n)
	for i := range verts {
		b := data[i*quadVertexStride:]
		verts[i] = Vertex{
			Position: [2]float32{readF32(b[0:4]), readF32(b[4:8])},
			Color:    [3]float32{readF32(b[8:12]), readF32(b[12:16]), readF32(b[16:20])},
		}
	}
	return verts
}

// writeQuadVertex writes a single vertex into the buffer.
func writeQuadVertex(buf []byte, v *Vertex) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Color[0]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.Color[1]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Color[2]))
}

func readF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// Rotate applies the vertex stage transform on the CPU: a rotation of
// (x, y) by angle radians about the origin. The WGSL in shaders/quad.wgsl
// computes the same expression.
func Rotate(x, y, angle float32) (float32, float32) {
	s, c := math.Sincos(float64(angle))
	sin, cos := float32(s), float32(c)
	return x*cos - y*sin, x*sin + y*cos
}
