package debug

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// edgeLengths returns the length of each line segment in verts.
func edgeLengths(verts []float32) []float32 {
	var out []float32
	for i := 0; i+6 <= len(verts); i += 6 {
		a := math.Vec3{X: verts[i], Y: verts[i+1], Z: verts[i+2]}
		b := math.Vec3{X: verts[i+3], Y: verts[i+4], Z: verts[i+5]}
		out = append(out, a.Distance(b))
	}
	return out
}

func TestAABBWireframe(t *testing.T) {
	b := bounds.NewAABB(math.Vec3{}, math.Vec3{X: 1, Y: 2, Z: 3})
	verts := AABBWireframe(b, 0)
	require.Len(t, verts, BBoxWireframeVertexCount*3)

	lengths := edgeLengths(verts)
	require.Len(t, lengths, 12)
	counts := map[float32]int{}
	for _, l := range lengths {
		counts[l]++
	}
	require.Equal(t, map[float32]int{1: 4, 2: 4, 3: 4}, counts)
}

func TestAABBWireframePadding(t *testing.T) {
	b := bounds.NewAABB(math.Vec3{}, math.Splat3(1))
	verts := AABBWireframe(b, DefaultBBoxPadding)
	for _, v := range verts {
		require.True(t, v == -1 || v == 2, "vertex component %v", v)
	}
}

func TestOBBWireframe(t *testing.T) {
	unit := bounds.NewAABB(math.Splat3(-1), math.Splat3(1))
	o := bounds.NewOBB(unit, math.RotateY(math32.Pi/4))
	verts := OBBWireframe(o)
	require.Len(t, verts, BBoxWireframeVertexCount*3)
	for _, l := range edgeLengths(verts) {
		require.InDelta(t, 2, l, 1e-5)
	}
}

type fakeWalker []spatial.NodeInfo

func (w fakeWalker) Walk(fn func(n spatial.NodeInfo) bool) {
	for _, n := range w {
		fn(n)
	}
}

func TestTreeWireframe(t *testing.T) {
	unit := bounds.NewAABB(math.Vec3{}, math.Splat3(1))
	w := fakeWalker{
		{Bound: unit, Depth: 0},
		{Bound: unit, Depth: 1, Leaf: true, Primitives: 2},
		{Bound: unit, Depth: 1, Leaf: true},
		{Bound: unit, Depth: 2, Leaf: true, Primitives: 1},
	}

	require.Len(t, TreeWireframe(w, -1), 3*BBoxWireframeVertexCount*3)
	require.Len(t, TreeWireframe(w, 1), 2*BBoxWireframeVertexCount*3)
	require.Len(t, TreeWireframe(w, 0), BBoxWireframeVertexCount*3)
}
