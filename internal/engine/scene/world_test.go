package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/midgard-spatial/internal/engine/partition"
	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

var unitBox = bounds.NewAABB(math.Splat3(-0.5), math.Splat3(0.5))

func newWorld(t *testing.T, kind string) *World {
	cfg := partition.DefaultConfig()
	cfg.Tree = kind
	cfg.Params.WorldBound = bounds.AABBFromCenterExtents(math.Vec3{}, math.Splat3(50))
	w, err := NewWorld(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return w
}

func TestTransformMatrix(t *testing.T) {
	tr := At(math.Vec3{X: 1, Y: 2, Z: 3})
	tr.Scale = math.Vec3{X: 2, Y: 2, Z: 2}
	p := tr.Matrix().TransformVec3(math.Vec3{X: 1})
	require.InDelta(t, 3, p.X, 1e-5)
	require.InDelta(t, 2, p.Y, 1e-5)
	require.InDelta(t, 3, p.Z, 1e-5)
}

func TestComponentBoundsFollowOwner(t *testing.T) {
	w := newWorld(t, spatial.KindOctree)
	a := w.Spawn("crate", At(math.Vec3{X: 4}))
	c := a.AddComponent("body", unitBox)

	require.Equal(t, bounds.AABBFromCenterExtents(math.Vec3{X: 4}, math.Splat3(0.5)), c.WorldAABB())

	a.SetRotation(math.QuatFromAxisAngle(math.Vec3{Y: 1}, math32.Pi/4))
	obb := c.WorldOBB()
	require.InDelta(t, 4, obb.Center.X, 1e-5)
	require.InDelta(t, 0.5, obb.Extents.X, 1e-5)
	require.InDelta(t, math32.Sqrt(2)/2, c.WorldAABB().Extents().X, 1e-5)
}

func TestMovesAreIndexedOnTick(t *testing.T) {
	for _, kind := range []string{spatial.KindOctree, spatial.KindBVH} {
		t.Run(kind, func(t *testing.T) {
			w := newWorld(t, kind)
			a := w.Spawn("mover", IdentityTransform())
			c := a.AddComponent("body", unitBox)

			for i := 0; i < 5; i++ {
				a.Translate(math.Vec3{X: 1})
				require.Equal(t, 1, w.Tick(0.016))
			}

			hit, dist, ok := w.Pick(bounds.NewRay(math.Vec3{X: -40}, math.Vec3{X: 1}))
			require.True(t, ok)
			require.Equal(t, c, hit)
			require.InDelta(t, 44.5, dist, 1e-4)
			require.Equal(t, []*Component{c}, w.Overlapping(bounds.AABBFromCenterExtents(math.Vec3{X: 5}, math.Splat3(0.1))))
		})
	}
}

func TestDespawnUnregistersComponents(t *testing.T) {
	w := newWorld(t, spatial.KindBVH)
	a := w.Spawn("ghost", IdentityTransform())
	a.AddComponent("head", unitBox)
	a.AddComponent("body", bounds.NewAABB(math.Vec3{X: -0.5, Y: -2, Z: -0.5}, math.Vec3{X: 0.5, Y: -0.5, Z: 0.5}))
	keep := w.Spawn("keep", At(math.Vec3{X: 10})).AddComponent("body", unitBox)
	require.Equal(t, 3, w.Partition().Len())

	a.Translate(math.Vec3{Y: 1})
	require.Equal(t, 2, w.Partition().Pending())

	require.True(t, w.Despawn(a))
	require.False(t, w.Despawn(a))
	require.False(t, a.Alive())
	require.Zero(t, w.Partition().Pending())
	require.Equal(t, 1, w.Partition().Len())
	require.Equal(t, 1, w.Len())

	// Moving a despawned actor has no effect on the partition.
	a.Translate(math.Vec3{Y: 1})
	require.Zero(t, w.Partition().Pending())
	require.Zero(t, w.Tick(0.016))

	world := bounds.AABBFromCenterExtents(math.Vec3{}, math.Splat3(50))
	require.Equal(t, []*Component{keep}, w.Overlapping(world))
	require.Equal(t, []*Component{keep}, w.Visible(bounds.FrustumFromAABB(world)))
}

func TestRemoveComponent(t *testing.T) {
	w := newWorld(t, spatial.KindOctree)
	a := w.Spawn("actor", IdentityTransform())
	c := a.AddComponent("body", unitBox)
	a.Translate(math.Vec3{X: 1})

	require.True(t, a.RemoveComponent(c))
	require.False(t, a.RemoveComponent(c))
	require.Empty(t, a.Components())
	require.Zero(t, w.Partition().Len())
	require.Zero(t, w.Partition().Pending())
}

func TestActorLookup(t *testing.T) {
	w := newWorld(t, spatial.KindOctree)
	a := w.Spawn("actor", IdentityTransform())

	got, ok := w.Actor(a.ID)
	require.True(t, ok)
	require.Same(t, a, got)

	w.Despawn(a)
	_, ok = w.Actor(a.ID)
	require.False(t, ok)
}

func TestOverlappingOBBRefinesBroadPhase(t *testing.T) {
	w := newWorld(t, spatial.KindOctree)
	rotated := w.Spawn("rotated", At(math.Vec3{X: 2.2, Y: 2.2}))
	rotated.SetRotation(math.QuatFromAxisAngle(math.Vec3{Z: 1}, math32.Pi/4))
	c := rotated.AddComponent("diamond", bounds.NewAABB(math.Splat3(-1), math.Splat3(1)))

	probe := bounds.NewOBBFromAABB(bounds.NewAABB(math.Vec3{Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1}))
	require.Equal(t, []*Component{c}, w.Overlapping(probe.AABB()))
	require.Empty(t, w.OverlappingOBB(probe))
}

func TestNearest(t *testing.T) {
	w := newWorld(t, spatial.KindOctree)
	far := w.Spawn("far", At(math.Vec3{X: 30})).AddComponent("body", unitBox)
	near := w.Spawn("near", At(math.Vec3{X: 1})).AddComponent("body", unitBox)

	require.Equal(t, []*Component{near}, w.Nearest(math.Vec3{}, 1))
	require.Equal(t, []*Component{near, far}, w.Nearest(math.Vec3{}, 2))
}
