// Package bounds provides the bounding volumes used by the spatial index:
// axis-aligned boxes, oriented boxes, rays and view frustums, together with
// their overlap and ray intersection tests.
//
// Every predicate is a total function over well-formed input. Inputs are
// never checked for NaN or Inf; callers must supply finite values. Zero
// extent volumes are valid and behave like points or flat boxes.
package bounds

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// ParallelEpsilon is the direction magnitude below which a ray is treated
// as parallel to a slab.
const ParallelEpsilon = 1e-8

// AABB is an axis-aligned bounding box. Min <= Max on every axis.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// NewAABB creates an AABB from two corners, swapping components so that
// Min <= Max holds on each axis.
func NewAABB(a, b math.Vec3) AABB {
	return AABB{Min: a.Min(b), Max: a.Max(b)}
}

// AABBFromCenterExtents creates an AABB from its center and half extents.
func AABBFromCenterExtents(center, extents math.Vec3) AABB {
	ext := extents.Abs()
	return AABB{Min: center.Sub(ext), Max: center.Add(ext)}
}

// AABBFromPoints returns the smallest box enclosing every point.
// An empty slice yields the zero box.
func AABBFromPoints(points ...math.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	return box
}

// Center returns the box center.
func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Extents returns the half size on each axis.
func (b AABB) Extents() math.Vec3 {
	return b.Max.Sub(b.Min).Scale(0.5)
}

// Size returns the full size on each axis.
func (b AABB) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Surface returns the surface area, the cost metric for tree insertion.
func (b AABB) Surface() float32 {
	s := b.Size()
	return 2 * (s.X*s.Y + s.Y*s.Z + s.Z*s.X)
}

// Volume returns the box volume.
func (b AABB) Volume() float32 {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Union returns the smallest box containing both b and other.
func (b AABB) Union(other AABB) AABB {
	return AABB{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Union returns the smallest box containing a and b.
func Union(a, b AABB) AABB {
	return a.Union(b)
}

// Intersects reports whether the boxes overlap. Touching faces count.
func (b AABB) Intersects(other AABB) bool {
	return b.Min.X <= other.Max.X && b.Max.X >= other.Min.X &&
		b.Min.Y <= other.Max.Y && b.Max.Y >= other.Min.Y &&
		b.Min.Z <= other.Max.Z && b.Max.Z >= other.Min.Z
}

// Contains reports whether other lies entirely inside b.
func (b AABB) Contains(other AABB) bool {
	return b.Min.LessEqual(other.Min) && other.Max.LessEqual(b.Max)
}

// ContainsPoint reports whether p lies inside or on b.
func (b AABB) ContainsPoint(p math.Vec3) bool {
	return b.Min.LessEqual(p) && p.LessEqual(b.Max)
}

// Expand grows the box by margin on every side.
func (b AABB) Expand(margin float32) AABB {
	m := math.Splat3(margin)
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Corners returns the eight box corners; bit 0 of the index selects Max.X,
// bit 1 Max.Y and bit 2 Max.Z.
func (b AABB) Corners() [8]math.Vec3 {
	var out [8]math.Vec3
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out[i] = c
	}
	return out
}

// Transform returns the world box enclosing b after transformation by m.
func (b AABB) Transform(m math.Mat4) AABB {
	corners := b.Corners()
	for i := range corners {
		corners[i] = m.TransformVec3(corners[i])
	}
	return AABBFromPoints(corners[:]...)
}

// ClosestPoint returns the point of b nearest to p.
func (b AABB) ClosestPoint(p math.Vec3) math.Vec3 {
	return p.Max(b.Min).Min(b.Max)
}

// DistanceSquaredToPoint returns the squared distance from p to b, zero
// when p is inside.
func (b AABB) DistanceSquaredToPoint(p math.Vec3) float32 {
	return b.ClosestPoint(p).DistanceSquared(p)
}

// RaycastHit intersects r with b using the slab method and returns the
// distance along the ray to the first hit. A ray starting inside the box
// reports the exit distance. Hits are only reported for t >= 0.
func (b AABB) RaycastHit(r Ray) (float32, bool) {
	origin := r.Origin.Lanes()
	dir := r.Direction.Lanes()
	lo := b.Min.Lanes()
	hi := b.Max.Lanes()

	parallel := dir.Abs().LessMask(math.Splat4(ParallelEpsilon)) & 0b0111
	if parallel != 0 {
		outside := origin.LessMask(lo) | hi.LessMask(origin)
		if parallel&outside != 0 {
			return 0, false
		}
	}

	inv := reciprocal(dir, parallel)
	t1 := lo.Sub(origin).Mul(inv)
	t2 := hi.Sub(origin).Mul(inv)

	inf := math32.Inf(1)
	near := math.Select(parallel, math.Splat4(-inf), t1.Min(t2))
	far := math.Select(parallel, math.Splat4(inf), t1.Max(t2))

	tMin := near.MaxXYZ()
	tMax := far.MinXYZ()
	if tMin > tMax {
		return 0, false
	}
	if tMin >= 0 {
		return tMin, true
	}
	if tMax >= 0 {
		return tMax, true
	}
	return 0, false
}

// reciprocal returns 1/d per lane, leaving masked lanes at zero.
func reciprocal(d math.Vec4, skip uint8) math.Vec4 {
	var out math.Vec4
	for i := 0; i < 3; i++ {
		if skip&(1<<i) == 0 {
			out[i] = 1 / d[i]
		}
	}
	return out
}
