package math

import "github.com/chewxy/math32"

// Vec4 is a 4-lane float vector.
//
// The bounding volume hot paths are written against these lane operations
// rather than per-axis scalar code, so a wider backend only has to replace
// this file.
type Vec4 [4]float32

// Splat4 returns a Vec4 with every lane set to s.
func Splat4(s float32) Vec4 {
	return Vec4{s, s, s, s}
}

// Add returns the lane-wise sum.
func (a Vec4) Add(b Vec4) Vec4 {
	return Vec4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

// Sub returns the lane-wise difference.
func (a Vec4) Sub(b Vec4) Vec4 {
	return Vec4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

// Mul returns the lane-wise product.
func (a Vec4) Mul(b Vec4) Vec4 {
	return Vec4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

// Min returns the lane-wise minimum.
func (a Vec4) Min(b Vec4) Vec4 {
	return Vec4{math32.Min(a[0], b[0]), math32.Min(a[1], b[1]), math32.Min(a[2], b[2]), math32.Min(a[3], b[3])}
}

// Max returns the lane-wise maximum.
func (a Vec4) Max(b Vec4) Vec4 {
	return Vec4{math32.Max(a[0], b[0]), math32.Max(a[1], b[1]), math32.Max(a[2], b[2]), math32.Max(a[3], b[3])}
}

// Abs returns the lane-wise absolute value.
func (a Vec4) Abs() Vec4 {
	return Vec4{math32.Abs(a[0]), math32.Abs(a[1]), math32.Abs(a[2]), math32.Abs(a[3])}
}

// LessMask returns a bitmask with bit i set when a[i] < b[i].
func (a Vec4) LessMask(b Vec4) uint8 {
	var m uint8
	for i := 0; i < 4; i++ {
		if a[i] < b[i] {
			m |= 1 << i
		}
	}
	return m
}

// Select returns a[i] where bit i of mask is set, b[i] otherwise.
func Select(mask uint8, a, b Vec4) Vec4 {
	var out Vec4
	for i := 0; i < 4; i++ {
		if mask&(1<<i) != 0 {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

// MaxXYZ returns the largest of the first three lanes.
func (a Vec4) MaxXYZ() float32 {
	return math32.Max(a[0], math32.Max(a[1], a[2]))
}

// MinXYZ returns the smallest of the first three lanes.
func (a Vec4) MinXYZ() float32 {
	return math32.Min(a[0], math32.Min(a[1], a[2]))
}

// XYZ narrows the first three lanes back to a Vec3.
func (a Vec4) XYZ() Vec3 {
	return Vec3{a[0], a[1], a[2]}
}
