package bounds

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// Plane is the half-space Normal·p + D >= 0. Normal points inside.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// NewPlane builds a normalized plane from the coefficients a, b, c, d.
func NewPlane(a, b, c, d float32) Plane {
	n := math.Vec3{X: a, Y: b, Z: c}
	l := n.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Scale(1 / l), D: d / l}
}

// PlaneFromPointNormal returns the plane through p facing normal.
func PlaneFromPointNormal(p, normal math.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, D: -n.Dot(p)}
}

// Distance returns the signed distance from pt; positive is inside.
func (p Plane) Distance(pt math.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum side indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// Frustum is a convex volume bounded by six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the six planes of a view-projection matrix
// using the Gribb/Hartmann method. The matrix is column-major with GL clip
// space (-w <= z <= w), as produced by math.Perspective and math.Ortho.
func FrustumFromMatrix(viewProj math.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)

	var f Frustum
	set := func(i int, v math.Vec4) {
		f.Planes[i] = NewPlane(v[0], v[1], v[2], v[3])
	}
	set(FrustumLeft, r3.Add(r0))
	set(FrustumRight, r3.Sub(r0))
	set(FrustumBottom, r3.Add(r1))
	set(FrustumTop, r3.Sub(r1))
	set(FrustumNear, r3.Add(r2))
	set(FrustumFar, r3.Sub(r2))
	return f
}

// FrustumFromAABB returns the frustum whose planes are the faces of b.
// Useful for treating a box as a culling volume.
func FrustumFromAABB(b AABB) Frustum {
	return Frustum{Planes: [6]Plane{
		PlaneFromPointNormal(b.Min, math.Vec3{X: 1}),
		PlaneFromPointNormal(b.Max, math.Vec3{X: -1}),
		PlaneFromPointNormal(b.Min, math.Vec3{Y: 1}),
		PlaneFromPointNormal(b.Max, math.Vec3{Y: -1}),
		PlaneFromPointNormal(b.Min, math.Vec3{Z: 1}),
		PlaneFromPointNormal(b.Max, math.Vec3{Z: -1}),
	}}
}

// ContainsPoint reports whether p is inside every plane.
func (f Frustum) ContainsPoint(p math.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsAABB returns false only when b is entirely outside one of the
// planes. The test is conservative: boxes near a frustum corner may pass.
func (f Frustum) IntersectsAABB(b AABB) bool {
	for _, pl := range f.Planes {
		v := b.Min
		if pl.Normal.X >= 0 {
			v.X = b.Max.X
		}
		if pl.Normal.Y >= 0 {
			v.Y = b.Max.Y
		}
		if pl.Normal.Z >= 0 {
			v.Z = b.Max.Z
		}
		if pl.Distance(v) < 0 {
			return false
		}
	}
	return true
}

// IntersectsOBB is the oriented counterpart of IntersectsAABB.
func (f Frustum) IntersectsOBB(o OBB) bool {
	for _, pl := range f.Planes {
		r := o.Extents.X*math32.Abs(pl.Normal.Dot(o.Axes[0])) +
			o.Extents.Y*math32.Abs(pl.Normal.Dot(o.Axes[1])) +
			o.Extents.Z*math32.Abs(pl.Normal.Dot(o.Axes[2]))
		if pl.Distance(o.Center) < -r {
			return false
		}
	}
	return true
}
