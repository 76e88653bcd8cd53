// Package octree implements a loose octree over a fixed world bound.
//
// Each node bisects its bound into eight octants. A primitive is stored in
// the deepest node whose bound fully contains it, so primitives straddling
// an octant boundary stay at the parent level and every primitive is
// stored exactly once.
package octree

import (
	"cmp"
	"slices"

	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

type node[P spatial.Primitive] struct {
	bound    bounds.AABB
	depth    int
	parent   *node[P]
	children [8]*node[P]

	prims []P
	boxes []bounds.AABB

	// count is the number of primitives stored in this subtree.
	count int
}

func (n *node[P]) leaf() bool {
	for _, c := range n.children {
		if c != nil {
			return false
		}
	}
	return true
}

// octant returns the index of the child whose bound holds the center of
// box. Bit 0 selects the upper X half, bit 1 Y and bit 2 Z.
func (n *node[P]) octant(box bounds.AABB) int {
	c, mid := box.Center(), n.bound.Center()
	i := 0
	if c.X >= mid.X {
		i |= 1
	}
	if c.Y >= mid.Y {
		i |= 2
	}
	if c.Z >= mid.Z {
		i |= 4
	}
	return i
}

func (n *node[P]) childBound(i int) bounds.AABB {
	mid := n.bound.Center()
	b := bounds.AABB{Min: n.bound.Min, Max: mid}
	if i&1 != 0 {
		b.Min.X, b.Max.X = mid.X, n.bound.Max.X
	}
	if i&2 != 0 {
		b.Min.Y, b.Max.Y = mid.Y, n.bound.Max.Y
	}
	if i&4 != 0 {
		b.Min.Z, b.Max.Z = mid.Z, n.bound.Max.Z
	}
	return b
}

// containingChild returns the child that fully contains box, or nil.
func (n *node[P]) containingChild(box bounds.AABB) *node[P] {
	c := n.children[n.octant(box)]
	if c != nil && c.bound.Contains(box) {
		return c
	}
	return nil
}

func (n *node[P]) add(p P, box bounds.AABB) {
	n.prims = append(n.prims, p)
	n.boxes = append(n.boxes, box)
}

// take swap-removes p from the node's own storage.
func (n *node[P]) take(p P) bool {
	for i, q := range n.prims {
		if q != p {
			continue
		}
		last := len(n.prims) - 1
		n.prims[i], n.boxes[i] = n.prims[last], n.boxes[last]

		var zero P
		n.prims[last] = zero
		n.prims, n.boxes = n.prims[:last], n.boxes[:last]
		return true
	}
	return false
}

func (n *node[P]) index(p P) int {
	for i, q := range n.prims {
		if q == p {
			return i
		}
	}
	return -1
}

func (n *node[P]) addCount(delta int) {
	for c := n; c != nil; c = c.parent {
		c.count += delta
	}
}

// Tree is an octree over primitives of type P.
type Tree[P spatial.Primitive] struct {
	params    spatial.Params
	root      *node[P]
	locations map[P]*node[P]
}

// New creates an empty octree. The root covers params.WorldBound and starts
// as a leaf.
func New[P spatial.Primitive](params spatial.Params) *Tree[P] {
	return &Tree[P]{
		params:    params,
		root:      &node[P]{bound: params.WorldBound},
		locations: make(map[P]*node[P]),
	}
}

// Bound returns the world bound covered by the root.
func (t *Tree[P]) Bound() bounds.AABB {
	return t.root.bound
}

// Len returns the number of indexed primitives.
func (t *Tree[P]) Len() int {
	return len(t.locations)
}

// Contains reports whether p is indexed.
func (t *Tree[P]) Contains(p P) bool {
	_, ok := t.locations[p]
	return ok
}

// Insert indexes p. A primitive whose bound misses the world bound is
// rejected; one that overlaps it without fitting stays at the root.
func (t *Tree[P]) Insert(p P) bool {
	if _, ok := t.locations[p]; ok {
		return false
	}
	box := p.WorldAABB()
	if !t.root.bound.Intersects(box) {
		return false
	}
	t.insertAt(t.root, p, box)
	return true
}

func (t *Tree[P]) insertAt(n *node[P], p P, box bounds.AABB) {
	for !n.leaf() {
		c := n.containingChild(box)
		if c == nil {
			break
		}
		n = c
	}

	n.add(p, box)
	n.addCount(1)
	t.locations[p] = n

	if n.leaf() {
		t.maybeSubdivide(n)
	}
}

// maybeSubdivide splits an overflowing leaf and keeps splitting any child
// that still overflows after redistribution.
func (t *Tree[P]) maybeSubdivide(n *node[P]) {
	if len(n.prims) <= t.params.MaxPrimitivesPerLeaf || n.depth >= t.params.MaxDepth {
		return
	}
	t.subdivide(n)
	for _, c := range n.children {
		t.maybeSubdivide(c)
	}
}

// subdivide allocates the eight octants of n and pushes down every
// primitive that fits entirely inside one of them.
func (t *Tree[P]) subdivide(n *node[P]) {
	for i := range n.children {
		n.children[i] = &node[P]{
			bound:  n.childBound(i),
			depth:  n.depth + 1,
			parent: n,
		}
	}

	prims, boxes := n.prims, n.boxes
	n.prims, n.boxes = nil, nil
	for i, p := range prims {
		target := n
		if c := n.containingChild(boxes[i]); c != nil {
			target = c
			c.count++
		}
		target.add(p, boxes[i])
		t.locations[p] = target
	}
}

// Remove drops p from the tree and then checks at most one node for a
// merge: the holding node when it is internal, otherwise its parent.
func (t *Tree[P]) Remove(p P) bool {
	n, ok := t.detach(p)
	if !ok {
		return false
	}
	t.mergeAfterRemoval(n)
	return true
}

// mergeAfterRemoval checks a single node for a merge after a primitive
// left n: n itself when it is internal, otherwise its parent.
func (t *Tree[P]) mergeAfterRemoval(n *node[P]) {
	if !n.leaf() {
		t.tryMerge(n)
	} else if n.parent != nil {
		t.tryMerge(n.parent)
	}
}

func (t *Tree[P]) detach(p P) (*node[P], bool) {
	n, ok := t.locations[p]
	if !ok {
		return nil, false
	}
	n.take(p)
	n.addCount(-1)
	delete(t.locations, p)
	return n, true
}

// mergeable reports whether n is internal, all of its children are leaves
// and everything below n fits into a single leaf.
func (t *Tree[P]) mergeable(n *node[P]) bool {
	if n.leaf() || n.count > t.params.MaxPrimitivesPerLeaf {
		return false
	}
	for _, c := range n.children {
		if !c.leaf() {
			return false
		}
	}
	return true
}

// tryMerge collapses n into a leaf when its children are all leaves and
// the combined primitive count fits one leaf. It reports whether n merged.
func (t *Tree[P]) tryMerge(n *node[P]) bool {
	if !t.mergeable(n) {
		return false
	}
	for i, c := range n.children {
		for j, p := range c.prims {
			n.add(p, c.boxes[j])
			t.locations[p] = n
		}
		n.children[i] = nil
	}
	return true
}

// Update re-indexes p under its current bound. When the bound still fits
// the holding node and no child could take it, the cached box is refreshed
// in place.
func (t *Tree[P]) Update(p P) bool {
	n, ok := t.locations[p]
	if !ok {
		return t.Insert(p)
	}

	box := p.WorldAABB()
	fits := n.bound.Contains(box) || (n == t.root && n.bound.Intersects(box))
	if fits && (n.leaf() || n.containingChild(box) == nil) {
		n.boxes[n.index(p)] = box
		return true
	}

	t.detach(p)
	if !t.root.bound.Intersects(box) {
		t.mergeAfterRemoval(n)
		return false
	}
	t.insertAt(t.root, p, box)
	t.mergeAfterRemoval(n)
	return true
}

// BulkUpdate re-indexes ps. Large batches rebuild the whole tree from the
// current bounds of every indexed primitive instead of moving them one by
// one.
func (t *Tree[P]) BulkUpdate(ps []P) {
	if len(ps)*2 < len(t.locations) {
		for _, p := range ps {
			t.detach(p)
		}
		for _, p := range ps {
			t.Insert(p)
		}
		t.FlushRebuild()
		return
	}

	all := make([]P, 0, len(t.locations)+len(ps))
	for p := range t.locations {
		all = append(all, p)
	}
	for _, p := range ps {
		if _, ok := t.locations[p]; !ok {
			all = append(all, p)
		}
	}

	t.root = &node[P]{bound: t.params.WorldBound}
	clear(t.locations)
	for _, p := range all {
		t.Insert(p)
	}
}

// FlushRebuild merges every subtree that has become sparse enough to fit a
// single leaf, bottom up.
func (t *Tree[P]) FlushRebuild() {
	t.compact(t.root)
}

func (t *Tree[P]) compact(n *node[P]) {
	if n.leaf() {
		return
	}
	for _, c := range n.children {
		t.compact(c)
	}
	t.tryMerge(n)
}

// Clear removes every primitive and collapses the tree to its root.
func (t *Tree[P]) Clear() {
	t.root = &node[P]{bound: t.params.WorldBound}
	clear(t.locations)
}

// QueryAABB appends every primitive whose bound overlaps box.
func (t *Tree[P]) QueryAABB(box bounds.AABB, out []P) []P {
	return t.query(t.root, box.Intersects, out)
}

// QueryFrustum appends every primitive whose bound intersects f.
func (t *Tree[P]) QueryFrustum(f bounds.Frustum, out []P) []P {
	return t.query(t.root, f.IntersectsAABB, out)
}

func (t *Tree[P]) query(n *node[P], test func(bounds.AABB) bool, out []P) []P {
	if n.count == 0 || !test(n.bound) {
		return out
	}
	for i, p := range n.prims {
		if test(n.boxes[i]) {
			out = append(out, p)
		}
	}
	for _, c := range n.children {
		if c != nil {
			out = t.query(c, test, out)
		}
	}
	return out
}

// QueryRayClosest returns the primitive r hits first. Children are visited
// nearest entry first and skipped once they start beyond the best hit.
func (t *Tree[P]) QueryRayClosest(r bounds.Ray) (spatial.Hit[P], bool) {
	var best spatial.Hit[P]
	found := false

	var queue spatial.MinQueue[float32, *node[P]]
	if d, ok := spatial.EntryDistance(t.root.bound, r); ok && t.root.count > 0 {
		queue.Push(d, t.root)
	}

	for queue.Len() > 0 {
		n, entry := queue.Pop()
		if found && entry > best.Distance {
			break
		}
		for i, p := range n.prims {
			if e, ok := spatial.EntryDistance(n.boxes[i], r); !ok || (found && e > best.Distance) {
				continue
			}
			if d, ok := spatial.RayDistance(p, n.boxes[i], r); ok && (!found || d < best.Distance) {
				best = spatial.Hit[P]{Primitive: p, Distance: d}
				found = true
			}
		}
		for _, c := range n.children {
			if c == nil || c.count == 0 {
				continue
			}
			if d, ok := spatial.EntryDistance(c.bound, r); ok && (!found || d <= best.Distance) {
				queue.Push(d, c)
			}
		}
	}
	return best, found
}

// FindNearestPrimitives returns up to maxCount primitives close to point.
// Nodes are expanded best first by the squared distance from point to
// their center, so the result is approximate: it favours primitives in the
// nearest cells, not the exact nearest set. Within a node primitives are
// ordered by the distance from point to their bound.
func (t *Tree[P]) FindNearestPrimitives(point math.Vec3, maxCount int) []P {
	if maxCount <= 0 || len(t.locations) == 0 {
		return nil
	}

	out := make([]P, 0, maxCount)
	var queue spatial.MinQueue[float32, *node[P]]
	queue.Push(t.root.bound.Center().DistanceSquared(point), t.root)

	for queue.Len() > 0 && len(out) < maxCount {
		n, _ := queue.Pop()
		order := make([]int, len(n.prims))
		for i := range order {
			order[i] = i
		}
		slices.SortFunc(order, func(a, b int) int {
			return cmp.Compare(n.boxes[a].DistanceSquaredToPoint(point), n.boxes[b].DistanceSquaredToPoint(point))
		})
		for _, i := range order {
			if len(out) == maxCount {
				break
			}
			out = append(out, n.prims[i])
		}
		for _, c := range n.children {
			if c != nil && c.count > 0 {
				queue.Push(c.bound.Center().DistanceSquared(point), c)
			}
		}
	}
	return out
}

// Walk visits every node depth first.
func (t *Tree[P]) Walk(fn func(n spatial.NodeInfo) bool) {
	t.walk(t.root, fn)
}

func (t *Tree[P]) walk(n *node[P], fn func(n spatial.NodeInfo) bool) {
	if !fn(spatial.NodeInfo{Bound: n.bound, Depth: n.depth, Leaf: n.leaf(), Primitives: len(n.prims)}) {
		return
	}
	for _, c := range n.children {
		if c != nil {
			t.walk(c, fn)
		}
	}
}

// Stats reports the current shape of the tree.
func (t *Tree[P]) Stats() spatial.Stats {
	s := spatial.CollectStats(spatial.KindOctree, t.Walk)
	t.eachNode(t.root, func(n *node[P]) {
		if t.mergeable(n) {
			s.PendingMerges++
		}
	})
	return s
}

func (t *Tree[P]) eachNode(n *node[P], fn func(*node[P])) {
	fn(n)
	for _, c := range n.children {
		if c != nil {
			t.eachNode(c, fn)
		}
	}
}
