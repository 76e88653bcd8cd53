package bounds

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// SATEpsilon biases the absolute rotation terms of the separating axis
// test. Near-parallel axis pairs produce cross products close to zero; the
// bias keeps rounding error from reporting a false separation on them.
const SATEpsilon = 1e-6

// axisEpsilon is the squared length below which a basis vector is degenerate.
const axisEpsilon = 1e-12

// OBB is an oriented bounding box. Axes are unit length and mutually
// orthogonal; Extents are non-negative half sizes along each axis.
type OBB struct {
	Center  math.Vec3
	Extents math.Vec3
	Axes    [3]math.Vec3
}

var worldAxes = [3]math.Vec3{{X: 1}, {Y: 1}, {Z: 1}}

// NewOBBFromAABB returns the OBB covering exactly the same region as b.
func NewOBBFromAABB(b AABB) OBB {
	return OBB{Center: b.Center(), Extents: b.Extents(), Axes: worldAxes}
}

// NewOBB builds the world OBB of a local box under an affine transform.
// Translation moves the center, per-axis scale multiplies the extents and
// rotation orients the axes. The axes extracted from the matrix are
// re-orthonormalized to absorb drift in accumulated transforms.
func NewOBB(local AABB, world math.Mat4) OBB {
	cols := [3]math.Vec3{world.Column(0), world.Column(1), world.Column(2)}
	ext := local.Extents()

	return OBB{
		Center: world.TransformVec3(local.Center()),
		Extents: math.Vec3{
			X: ext.X * cols[0].Length(),
			Y: ext.Y * cols[1].Length(),
			Z: ext.Z * cols[2].Length(),
		},
		Axes: orthonormalize(cols),
	}
}

// orthonormalize runs Gram-Schmidt over c. Degenerate inputs (zero scale on
// an axis, collapsed columns) fall back to any perpendicular direction.
func orthonormalize(c [3]math.Vec3) [3]math.Vec3 {
	x := c[0]
	if x.LengthSquared() < axisEpsilon {
		x = c[1].Cross(c[2])
		if x.LengthSquared() < axisEpsilon {
			x = worldAxes[0]
		}
	}
	x = x.Normalize()

	y := c[1].Sub(x.Scale(x.Dot(c[1])))
	if y.LengthSquared() < axisEpsilon {
		y = c[2].Cross(x)
		if y.LengthSquared() < axisEpsilon {
			y = perpendicular(x)
		}
	}
	y = y.Normalize()

	return [3]math.Vec3{x, y, x.Cross(y)}
}

// perpendicular returns a unit vector orthogonal to the unit vector v.
func perpendicular(v math.Vec3) math.Vec3 {
	if math32.Abs(v.X) < 0.9 {
		return v.Cross(worldAxes[0]).Normalize()
	}
	return v.Cross(worldAxes[1]).Normalize()
}

// AABB returns the tightest axis-aligned box enclosing o.
func (o OBB) AABB() AABB {
	half := o.Axes[0].Abs().Scale(o.Extents.X).
		Add(o.Axes[1].Abs().Scale(o.Extents.Y)).
		Add(o.Axes[2].Abs().Scale(o.Extents.Z))
	return AABB{Min: o.Center.Sub(half), Max: o.Center.Add(half)}
}

// Corners returns the eight corners in the same index order as AABB.Corners.
func (o OBB) Corners() [8]math.Vec3 {
	var out [8]math.Vec3
	for i := 0; i < 8; i++ {
		sx, sy, sz := float32(-1), float32(-1), float32(-1)
		if i&1 != 0 {
			sx = 1
		}
		if i&2 != 0 {
			sy = 1
		}
		if i&4 != 0 {
			sz = 1
		}
		out[i] = o.Center.
			Add(o.Axes[0].Scale(sx * o.Extents.X)).
			Add(o.Axes[1].Scale(sy * o.Extents.Y)).
			Add(o.Axes[2].Scale(sz * o.Extents.Z))
	}
	return out
}

// ContainsPoint reports whether p lies inside or on o.
func (o OBB) ContainsPoint(p math.Vec3) bool {
	d := p.Sub(o.Center)
	ext := [3]float32{o.Extents.X, o.Extents.Y, o.Extents.Z}
	for i, axis := range o.Axes {
		if math32.Abs(d.Dot(axis)) > ext[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether two OBBs overlap using the separating axis
// theorem over the 15 candidate axes. The operands are put in a canonical
// order first, so a.Intersects(b) == b.Intersects(a) holds exactly.
func (o OBB) Intersects(other OBB) bool {
	if other.before(o) {
		return overlapSAT(other, o)
	}
	return overlapSAT(o, other)
}

// IntersectsAABB reports whether o overlaps the axis-aligned box b.
func (o OBB) IntersectsAABB(b AABB) bool {
	return o.Intersects(NewOBBFromAABB(b))
}

// RaycastHit intersects r with o by expressing the ray in the box frame and
// running the slab test there. Distances are preserved because the axes are
// orthonormal.
func (o OBB) RaycastHit(r Ray) (float32, bool) {
	d := r.Origin.Sub(o.Center)
	local := Ray{
		Origin:    math.Vec3{X: d.Dot(o.Axes[0]), Y: d.Dot(o.Axes[1]), Z: d.Dot(o.Axes[2])},
		Direction: math.Vec3{X: r.Direction.Dot(o.Axes[0]), Y: r.Direction.Dot(o.Axes[1]), Z: r.Direction.Dot(o.Axes[2])},
	}
	box := AABB{Min: o.Extents.Scale(-1), Max: o.Extents}
	return box.RaycastHit(local)
}

// overlapSAT returns false as soon as one of the 15 axes separates a and b.
func overlapSAT(a, b OBB) bool {
	var r, absR [3][3]float32
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a.Axes[i].Dot(b.Axes[j])
			absR[i][j] = math32.Abs(r[i][j]) + SATEpsilon
		}
	}

	d := b.Center.Sub(a.Center)
	t := [3]float32{d.Dot(a.Axes[0]), d.Dot(a.Axes[1]), d.Dot(a.Axes[2])}
	ae := [3]float32{a.Extents.X, a.Extents.Y, a.Extents.Z}
	be := [3]float32{b.Extents.X, b.Extents.Y, b.Extents.Z}

	// Axes of a.
	for i := 0; i < 3; i++ {
		rb := be[0]*absR[i][0] + be[1]*absR[i][1] + be[2]*absR[i][2]
		if math32.Abs(t[i]) > ae[i]+rb {
			return false
		}
	}

	// Axes of b.
	for j := 0; j < 3; j++ {
		ra := ae[0]*absR[0][j] + ae[1]*absR[1][j] + ae[2]*absR[2][j]
		dist := t[0]*r[0][j] + t[1]*r[1][j] + t[2]*r[2][j]
		if math32.Abs(dist) > ra+be[j] {
			return false
		}
	}

	// Cross products a[i] x b[j].
	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			j1, j2 := (j+1)%3, (j+2)%3
			ra := ae[i1]*absR[i2][j] + ae[i2]*absR[i1][j]
			rb := be[j1]*absR[i][j2] + be[j2]*absR[i][j1]
			dist := t[i2]*r[i1][j] - t[i1]*r[i2][j]
			if math32.Abs(dist) > ra+rb {
				return false
			}
		}
	}
	return true
}

// before is a strict total order over OBB values used to canonicalize the
// operand order of Intersects.
func (o OBB) before(other OBB) bool {
	a, b := o.key(), other.key()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func (o OBB) key() [15]float32 {
	return [15]float32{
		o.Center.X, o.Center.Y, o.Center.Z,
		o.Extents.X, o.Extents.Y, o.Extents.Z,
		o.Axes[0].X, o.Axes[0].Y, o.Axes[0].Z,
		o.Axes[1].X, o.Axes[1].Y, o.Axes[1].Z,
		o.Axes[2].X, o.Axes[2].Y, o.Axes[2].Z,
	}
}
