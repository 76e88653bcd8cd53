package picking

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

func viewProj() math.Mat4 {
	proj := math.Perspective(math32.Pi/2, 1, 0.1, 100)
	view := math.LookAt(math.Vec3{Z: 10}, math.Vec3{}, math.Vec3{Y: 1})
	return proj.Mul(view)
}

func TestScreenToRayThroughCenter(t *testing.T) {
	r := ScreenToRay(400, 300, 800, 600, viewProj().Inverse())

	require.InDelta(t, 0, r.Direction.X, 1e-4)
	require.InDelta(t, 0, r.Direction.Y, 1e-4)
	require.InDelta(t, -1, r.Direction.Z, 1e-4)
	require.InDelta(t, 9.9, r.Origin.Z, 1e-3)
}

func TestScreenToRayCorner(t *testing.T) {
	// Top left pixel of a 90 degree square viewport looks along (-1, 1, -1).
	r := ScreenToRay(0, 0, 600, 600, viewProj().Inverse())
	want := math.Vec3{X: -1, Y: 1, Z: -1}.Normalize()

	require.InDelta(t, want.X, r.Direction.X, 1e-3)
	require.InDelta(t, want.Y, r.Direction.Y, 1e-3)
	require.InDelta(t, want.Z, r.Direction.Z, 1e-3)
}

func TestIntersectPlaneY(t *testing.T) {
	tests := []struct {
		name string
		ray  bounds.Ray
		want math.Vec3
		ok   bool
	}{
		{
			name: "down",
			ray:  bounds.NewRay(math.Vec3{X: 1, Y: 10, Z: 2}, math.Vec3{X: 1, Y: -1}),
			want: math.Vec3{X: 11, Z: 2},
			ok:   true,
		},
		{
			name: "parallel",
			ray:  bounds.NewRay(math.Vec3{Y: 10}, math.Vec3{X: 1}),
		},
		{
			name: "away",
			ray:  bounds.NewRay(math.Vec3{Y: 10}, math.Vec3{Y: 1}),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, ok := IntersectPlaneY(test.ray, 0)
			require.Equal(t, test.ok, ok)
			if ok {
				require.InDelta(t, test.want.X, p.X, 1e-4)
				require.Equal(t, float32(0), p.Y)
				require.InDelta(t, test.want.Z, p.Z, 1e-4)
			}
		})
	}
}

type box struct {
	name  string
	bound bounds.AABB
}

type boxes []*box

func (bs boxes) QueryRayClosest(r bounds.Ray) (*box, float32, bool) {
	var best *box
	bestDist := float32(math32.MaxFloat32)
	for _, b := range bs {
		if d, ok := b.bound.RaycastHit(r); ok && d < bestDist {
			best, bestDist = b, d
		}
	}
	return best, bestDist, best != nil
}

func TestPickReturnsNearest(t *testing.T) {
	scene := boxes{
		{name: "far", bound: bounds.AABBFromCenterExtents(math.Vec3{Z: -5}, math.Splat3(1))},
		{name: "near", bound: bounds.AABBFromCenterExtents(math.Vec3{}, math.Splat3(1))},
	}

	res, ok := PickScreen[*box](scene, 300, 300, 600, 600, viewProj())
	require.True(t, ok)
	require.Equal(t, "near", res.Target.name)
	require.InDelta(t, 1, res.Point.Z, 1e-3)

	_, ok = Pick[*box](scene, bounds.NewRay(math.Vec3{Y: 10}, math.Vec3{Y: 1}))
	require.False(t, ok)
}
