package bounds

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-spatial/pkg/math"
)

func randomOBB(r *rand.Rand) OBB {
	local := AABBFromCenterExtents(randomVec(r, 1), math.Vec3{
		X: 0.1 + r.Float32()*3,
		Y: 0.1 + r.Float32()*3,
		Z: 0.1 + r.Float32()*3,
	})
	rot := math.QuatFromAxisAngle(randomVec(r, 1).Normalize(), r.Float32()*2*math32.Pi)
	scale := math.Vec3{X: 0.5 + r.Float32()*2, Y: 0.5 + r.Float32()*2, Z: 0.5 + r.Float32()*2}
	return NewOBB(local, math.Compose(randomVec(r, 6), rot, scale))
}

func requireOrthonormal(t *testing.T, o OBB) {
	t.Helper()
	for i := 0; i < 3; i++ {
		require.InDelta(t, 1, o.Axes[i].Length(), 1e-5, "axis %d length", i)
		for j := i + 1; j < 3; j++ {
			require.InDelta(t, 0, o.Axes[i].Dot(o.Axes[j]), 1e-5, "axes %d,%d", i, j)
		}
	}
}

func TestOBBIntersectsSymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	hits := 0

	for i := 0; i < 5000; i++ {
		a, b := randomOBB(r), randomOBB(r)
		ab := a.Intersects(b)
		require.Equal(t, ab, b.Intersects(a), "a=%+v b=%+v", a, b)
		if ab {
			hits++
		}
	}

	// Both outcomes must be exercised for the property to mean anything.
	require.Greater(t, hits, 0)
	require.Less(t, hits, 5000)
}

func TestOBBMatchesAABBOnAxisAlignedBoxes(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	intBox := func() AABB {
		lo := math.Vec3{X: float32(r.Intn(7) - 3), Y: float32(r.Intn(7) - 3), Z: float32(r.Intn(7) - 3)}
		size := math.Vec3{X: float32(r.Intn(4)), Y: float32(r.Intn(4)), Z: float32(r.Intn(4))}
		return AABB{Min: lo, Max: lo.Add(size)}
	}

	for i := 0; i < 2000; i++ {
		a, b := intBox(), intBox()
		want := a.Intersects(b)
		require.Equal(t, want, NewOBBFromAABB(a).Intersects(NewOBBFromAABB(b)), "a=%v b=%v", a, b)
		require.Equal(t, want, NewOBBFromAABB(a).IntersectsAABB(b), "a=%v b=%v", a, b)
	}
}

func TestOBBRotatedSeparation(t *testing.T) {
	unit := NewAABB(math.Splat3(-1), math.Splat3(1))
	rot45 := math.RotateZ(math32.Pi / 4)

	a := NewOBB(unit, math.Identity())

	// A diamond off the corner misses the unit cube, though their AABBs overlap.
	b := NewOBB(unit, math.Translate(2.2, 2.2, 0).Mul(rot45))
	require.True(t, a.AABB().Intersects(b.AABB()))
	require.False(t, a.Intersects(b))
	require.False(t, b.Intersects(a))

	c := NewOBB(unit, math.Translate(2.3, 0, 0).Mul(rot45))
	require.True(t, a.Intersects(c))
}

func TestOBBParallelAxes(t *testing.T) {
	unit := NewAABB(math.Splat3(-1), math.Splat3(1))
	a := NewOBB(unit, math.RotateY(0.3))

	beside := func(dist float32) OBB {
		off := a.Axes[0].Scale(dist)
		return NewOBB(unit, math.Translate(off.X, off.Y, off.Z).Mul(math.RotateY(0.3)))
	}

	// Same orientation makes every cross product degenerate.
	require.True(t, a.Intersects(beside(2)))
	require.True(t, beside(2).Intersects(a))
	require.False(t, a.Intersects(beside(2.1)))
}

func TestNewOBBScaleAndRotation(t *testing.T) {
	unit := NewAABB(math.Splat3(-1), math.Splat3(1))

	t.Run("scale", func(t *testing.T) {
		o := NewOBB(unit, math.Translate(1, 2, 3).Mul(math.Scale(2, 3, 4)))
		require.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, o.Center)
		require.Equal(t, math.Vec3{X: 2, Y: 3, Z: 4}, o.Extents)
		require.Equal(t, worldAxes, o.Axes)
	})

	t.Run("rotation", func(t *testing.T) {
		o := NewOBB(unit, math.RotateY(math32.Pi/2))
		requireOrthonormal(t, o)
		assert.InDelta(t, -1, o.Axes[0].Z, 1e-5)
		assert.InDelta(t, 1, o.Axes[1].Y, 1e-5)
		assert.InDelta(t, 1, o.Extents.X, 1e-5)
	})

	t.Run("offset local box", func(t *testing.T) {
		local := NewAABB(math.Vec3{X: 2}, math.Vec3{X: 4, Y: 2, Z: 2})
		o := NewOBB(local, math.RotateZ(math32.Pi/2))
		assert.InDelta(t, -1, o.Center.X, 1e-5)
		assert.InDelta(t, 3, o.Center.Y, 1e-5)
		assert.InDelta(t, 1, o.Center.Z, 1e-5)
	})

	t.Run("zero scale", func(t *testing.T) {
		o := NewOBB(unit, math.Scale(0, 1, 1))
		requireOrthonormal(t, o)
		require.Equal(t, float32(0), o.Extents.X)
		assert.True(t, o.Intersects(NewOBBFromAABB(unit)))
	})

	t.Run("fully collapsed", func(t *testing.T) {
		o := NewOBB(unit, math.Scale(0, 0, 0))
		requireOrthonormal(t, o)
		require.Equal(t, math.Vec3{}, o.Extents)
		assert.True(t, o.ContainsPoint(math.Vec3{}))
	})

	t.Run("drift", func(t *testing.T) {
		m := math.RotateAxis(math.Vec3{X: 1, Y: 1}.Normalize(), 0.7)
		m[1] += 1e-3
		m[4] -= 2e-3
		requireOrthonormal(t, NewOBB(unit, m))
	})
}

func TestOBBAABB(t *testing.T) {
	unit := NewAABB(math.Splat3(-1), math.Splat3(1))
	o := NewOBB(unit, math.RotateZ(math32.Pi/4))
	box := o.AABB()
	require.InDelta(t, math32.Sqrt2, box.Max.X, 1e-5)
	require.InDelta(t, math32.Sqrt2, box.Max.Y, 1e-5)
	require.InDelta(t, 1, box.Max.Z, 1e-5)

	for _, c := range o.Corners() {
		require.True(t, box.Expand(1e-5).ContainsPoint(c))
	}
}

func TestOBBRaycast(t *testing.T) {
	unit := NewAABB(math.Splat3(-1), math.Splat3(1))
	o := NewOBB(unit, math.Translate(10, 0, 0).Mul(math.RotateY(math32.Pi/4)))

	// The rotated cube presents an edge to a ray along +X.
	dist, ok := o.RaycastHit(NewRay(math.Vec3{}, math.Vec3{X: 1}))
	require.True(t, ok)
	require.InDelta(t, 10-math32.Sqrt2, dist, 1e-4)

	_, ok = o.RaycastHit(NewRay(math.Vec3{Y: 1.5}, math.Vec3{X: 1}))
	require.False(t, ok)

	// Zero-extent box still gives a defined answer.
	point := NewOBB(NewAABB(math.Vec3{}, math.Vec3{}), math.Translate(3, 0, 0))
	dist, ok = point.RaycastHit(NewRay(math.Vec3{}, math.Vec3{X: 1}))
	require.True(t, ok)
	require.InDelta(t, 3, dist, 1e-5)
}
