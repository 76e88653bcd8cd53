package bounds

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-spatial/pkg/math"
)

func cameraFrustum() Frustum {
	proj := math.Perspective(math32.Pi/2, 1, 0.1, 100)
	view := math.LookAt(math.Vec3{Z: 10}, math.Vec3{}, math.Vec3{Y: 1})
	return FrustumFromMatrix(proj.Mul(view))
}

func TestFrustumPlanesNormalized(t *testing.T) {
	f := cameraFrustum()
	for i, p := range f.Planes {
		require.InDelta(t, 1, p.Normal.Length(), 1e-5, "plane %d", i)
	}

	// The near plane faces the view direction, -Z.
	require.InDelta(t, -1, f.Planes[FrustumNear].Normal.Z, 1e-5)
	require.InDelta(t, 9.9, f.Planes[FrustumNear].Distance(math.Vec3{}), 1e-3)
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := cameraFrustum()
	unit := func(c math.Vec3) AABB { return AABBFromCenterExtents(c, math.Splat3(0.5)) }

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"at target", unit(math.Vec3{}), true},
		{"behind camera", unit(math.Vec3{Z: 20}), false},
		{"far right", unit(math.Vec3{X: 100}), false},
		{"beyond far plane", unit(math.Vec3{Z: -200}), false},
		{"straddles left plane", unit(math.Vec3{X: -10}), true},
		{"large box around camera", NewAABB(math.Splat3(-500), math.Splat3(500)), true},
		{"above", unit(math.Vec3{Y: 30}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IntersectsAABB(tt.box))
			assert.Equal(t, tt.want, f.IntersectsOBB(NewOBBFromAABB(tt.box)))
		})
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	f := cameraFrustum()
	require.True(t, f.ContainsPoint(math.Vec3{}))
	require.True(t, f.ContainsPoint(math.Vec3{X: 9, Z: 0}))
	require.False(t, f.ContainsPoint(math.Vec3{X: 11, Z: 0}))
	require.False(t, f.ContainsPoint(math.Vec3{Z: 10.05}))
}

func TestFrustumOrtho(t *testing.T) {
	f := FrustumFromMatrix(math.Ortho(-1, 1, -1, 1, 0.1, 10))
	require.True(t, f.ContainsPoint(math.Vec3{Z: -5}))
	require.False(t, f.ContainsPoint(math.Vec3{Z: 5}))
	require.False(t, f.ContainsPoint(math.Vec3{X: 1.5, Z: -5}))
}

func TestFrustumIntersectsRotatedOBB(t *testing.T) {
	f := FrustumFromMatrix(math.Ortho(-1, 1, -1, 1, 0.1, 10))

	// A long thin box beside the volume reaches in once turned about Y.
	local := NewAABB(math.Vec3{X: -0.1, Y: -0.1, Z: -3}, math.Vec3{X: 0.1, Y: 0.1, Z: 3})
	apart := NewOBB(local, math.Translate(2.5, 0, -5))
	require.False(t, f.IntersectsOBB(apart))

	turned := NewOBB(local, math.Translate(2.5, 0, -5).Mul(math.RotateY(math32.Pi/4)))
	require.True(t, f.IntersectsOBB(turned))
}

func TestFrustumFromAABB(t *testing.T) {
	f := FrustumFromAABB(NewAABB(math.Splat3(-1), math.Splat3(1)))
	require.True(t, f.ContainsPoint(math.Vec3{}))
	require.True(t, f.IntersectsAABB(NewAABB(math.Splat3(0.5), math.Splat3(3))))
	require.False(t, f.IntersectsAABB(NewAABB(math.Splat3(2), math.Splat3(3))))
}
