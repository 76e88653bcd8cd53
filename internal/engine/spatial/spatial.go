// Package spatial defines the contract shared by the spatial index trees:
// the primitive constraint, tree parameters, the query surface and the
// debug statistics every tree reports.
package spatial

import (
	"github.com/aukilabs/go-tooling/pkg/errors"

	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// Error types reported by Params.Validate.
const (
	ErrTypeInvalidParams = "invalid_tree_params"
)

// Tree kinds.
const (
	KindOctree = "octree"
	KindBVH    = "bvh"
)

// Primitive is a caller-owned object indexed by a tree. The tree keeps
// only a non-owning handle; the object remains the source of truth for its
// world-space bound.
type Primitive interface {
	comparable
	WorldAABB() bounds.AABB
}

// Oriented is implemented by primitives that can also report a tight
// oriented box. Trees use it to refine ray and overlap results after the
// AABB broad phase.
type Oriented interface {
	WorldOBB() bounds.OBB
}

// Params configures a tree at construction time.
type Params struct {
	WorldBound           bounds.AABB
	MaxDepth             int
	MaxPrimitivesPerLeaf int
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		WorldBound:           bounds.AABBFromCenterExtents(math.Vec3{}, math.Splat3(512)),
		MaxDepth:             8,
		MaxPrimitivesPerLeaf: 8,
	}
}

// Validate checks that the parameters describe a usable tree.
func (p Params) Validate() error {
	if p.MaxDepth < 0 {
		return errors.New("max depth must not be negative").
			WithType(ErrTypeInvalidParams).
			WithTag("max_depth", p.MaxDepth)
	}
	if p.MaxPrimitivesPerLeaf < 1 {
		return errors.New("max primitives per leaf must be at least 1").
			WithType(ErrTypeInvalidParams).
			WithTag("max_primitives_per_leaf", p.MaxPrimitivesPerLeaf)
	}
	if !p.WorldBound.Min.LessEqual(p.WorldBound.Max) {
		return errors.New("world bound min must not exceed max").
			WithType(ErrTypeInvalidParams).
			WithTag("world_min", p.WorldBound.Min).
			WithTag("world_max", p.WorldBound.Max)
	}
	return nil
}

// Hit is the result of a closest-hit ray query.
type Hit[P any] struct {
	Primitive P
	Distance  float32
}

// Tree is the query and maintenance surface shared by the octree and the
// BVH. Implementations are single-threaded and never take ownership of
// their primitives.
type Tree[P Primitive] interface {
	// Insert indexes p under its current world bound. It returns false when
	// p is already indexed or cannot be placed in the tree.
	Insert(p P) bool

	// Remove drops p from the tree. Removing an unknown primitive is a no-op.
	Remove(p P) bool

	// Update re-indexes p under its current world bound, inserting it when
	// it is not indexed yet. It reports whether p is indexed afterwards.
	Update(p P) bool

	// BulkUpdate re-indexes many primitives at once.
	BulkUpdate(ps []P)

	// FlushRebuild applies structural changes deferred by Update.
	FlushRebuild()

	Contains(p P) bool
	Len() int

	// QueryAABB appends every primitive whose bound overlaps box.
	QueryAABB(box bounds.AABB, out []P) []P

	// QueryFrustum appends every primitive whose bound intersects f.
	QueryFrustum(f bounds.Frustum, out []P) []P

	// QueryRayClosest returns the primitive hit first by r.
	QueryRayClosest(r bounds.Ray) (Hit[P], bool)

	// Walk visits the nodes depth first. Returning false from fn skips the
	// subtree below the visited node.
	Walk(fn func(n NodeInfo) bool)

	Stats() Stats
}

// NearestFinder is implemented by trees with an approximate nearest
// neighbour query.
type NearestFinder[P Primitive] interface {
	FindNearestPrimitives(point math.Vec3, maxCount int) []P
}

// NodeInfo describes one tree node to a Walk callback.
type NodeInfo struct {
	Bound      bounds.AABB
	Depth      int
	Leaf       bool
	Primitives int
}
