package gpu

import (
	"encoding/binary"
	"math"
)

// timeUniformSize is the byte size of the time uniform block. The payload is
// one f32; the rest is padding up to the 16-byte uniform alignment.
const timeUniformSize = 16

// TimeUniform is the CPU-side copy of the uniform bound at group 0,
// binding 0. Angle is the elapsed time in seconds, used directly as the
// rotation angle in radians.
type TimeUniform struct {
	Angle float32
	_     [3]float32
}

// UniformSize returns the size in bytes of the time uniform buffer.
func UniformSize() uint64 { return timeUniformSize }

// Bytes returns the 16-byte std140 image of the uniform.
func (u TimeUniform) Bytes() []byte {
	buf := make([]byte, timeUniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(u.Angle))
	return buf
}

// DecodeTimeUniform reads the angle back from a uniform buffer image.
func DecodeTimeUniform(data []byte) TimeUniform {
	if len(data) < 4 {
		return TimeUniform{}
	}
	return TimeUniform{Angle: readF32(data[0:4])}
}
