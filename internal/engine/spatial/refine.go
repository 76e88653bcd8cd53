package spatial

import "github.com/Faultbox/midgard-spatial/pkg/bounds"

// RayDistance intersects r with p. Oriented primitives are tested against
// their OBB; others against box, the bound the tree indexed them under.
func RayDistance[P Primitive](p P, box bounds.AABB, r bounds.Ray) (float32, bool) {
	if o, ok := any(p).(Oriented); ok {
		return o.WorldOBB().RaycastHit(r)
	}
	return box.RaycastHit(r)
}

// OverlapsOBB reports whether p overlaps the oriented box o, using the
// primitive's own OBB when it has one.
func OverlapsOBB[P Primitive](p P, box bounds.AABB, o bounds.OBB) bool {
	if po, ok := any(p).(Oriented); ok {
		return po.WorldOBB().Intersects(o)
	}
	return o.IntersectsAABB(box)
}

// EntryDistance returns the distance at which r enters box, zero when the
// origin is already inside. Trees use it to order and prune traversal.
func EntryDistance(box bounds.AABB, r bounds.Ray) (float32, bool) {
	if box.ContainsPoint(r.Origin) {
		return 0, true
	}
	return box.RaycastHit(r)
}
