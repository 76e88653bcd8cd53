// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// BBoxWireframeVertexCount is the number of vertices for a box wireframe (12 edges × 2).
const BBoxWireframeVertexCount = 24

// DefaultBBoxPadding is the default padding for selection boxes.
const DefaultBBoxPadding = 1.0

// boxEdges indexes the corner order shared by AABB.Corners and
// OBB.Corners: bit 0 selects max X, bit 1 max Y, bit 2 max Z.
var boxEdges = [12][2]int{
	// Bottom face
	{0, 1}, {1, 5}, {5, 4}, {4, 0},
	// Top face
	{2, 3}, {3, 7}, {7, 6}, {6, 2},
	// Vertical edges
	{0, 2}, {1, 3}, {5, 7}, {4, 6},
}

// AppendCornerWireframe appends the 12 edges of a box given its corners.
// Format: [x, y, z] per vertex.
func AppendCornerWireframe(dst []float32, corners [8]math.Vec3) []float32 {
	for _, e := range boxEdges {
		a, b := corners[e[0]], corners[e[1]]
		dst = append(dst, a.X, a.Y, a.Z, b.X, b.Y, b.Z)
	}
	return dst
}

// AABBWireframe returns line vertices for an axis-aligned box expanded by
// padding on all sides.
func AABBWireframe(b bounds.AABB, padding float32) []float32 {
	return AppendCornerWireframe(make([]float32, 0, BBoxWireframeVertexCount*3), b.Expand(padding).Corners())
}

// OBBWireframe returns line vertices for an oriented box.
func OBBWireframe(o bounds.OBB) []float32 {
	return AppendCornerWireframe(make([]float32, 0, BBoxWireframeVertexCount*3), o.Corners())
}

// NodeWalker is implemented by the spatial trees and the partition.
type NodeWalker interface {
	Walk(fn func(n spatial.NodeInfo) bool)
}

// TreeWireframe returns line vertices for the bounds of every node down to
// maxDepth. Empty leaves are skipped. A negative maxDepth draws the whole
// tree.
func TreeWireframe(w NodeWalker, maxDepth int) []float32 {
	var out []float32
	w.Walk(func(n spatial.NodeInfo) bool {
		if maxDepth >= 0 && n.Depth > maxDepth {
			return false
		}
		if n.Leaf && n.Primitives == 0 {
			return true
		}
		out = AppendCornerWireframe(out, n.Bound.Corners())
		return true
	})
	return out
}
