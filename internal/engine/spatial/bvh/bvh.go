// Package bvh implements a dynamic bounding volume hierarchy for
// primitives that move every frame.
//
// The tree is binary with bucketed leaves. Insertion descends towards the
// child whose surface area grows the least, and a leaf that overflows is
// split at the median centroid of its longest axis. Node bounds only ever
// grow between frames; tightening and merging of sparse subtrees is
// deferred to FlushRebuild.
package bvh

import (
	"cmp"
	"slices"

	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
	"github.com/Faultbox/midgard-spatial/pkg/bounds"
)

// rebuildFraction is the share of tracked primitives above which
// BulkUpdate rebuilds the tree instead of updating items one at a time.
const rebuildFraction = 4

type node[P spatial.Primitive] struct {
	bound    bounds.AABB
	depth    int
	parent   *node[P]
	children [2]*node[P]

	prims []P
	boxes []bounds.AABB

	// size is the number of primitives in this subtree. The bound of an
	// empty node is meaningless.
	size int

	detached bool
}

func (n *node[P]) leaf() bool {
	return n.children[0] == nil && n.children[1] == nil
}

// grow extends the bound of n to cover box.
func (n *node[P]) grow(box bounds.AABB) {
	if n.size == 0 {
		n.bound = box
		return
	}
	n.bound = n.bound.Union(box)
}

// refit recomputes the bound of n from its content.
func (n *node[P]) refit() {
	first := true
	set := func(b bounds.AABB) {
		if first {
			n.bound, first = b, false
			return
		}
		n.bound = n.bound.Union(b)
	}
	for _, b := range n.boxes {
		set(b)
	}
	for _, c := range n.children {
		if c != nil && c.size > 0 {
			set(c.bound)
		}
	}
}

func (n *node[P]) index(p P) int {
	for i, q := range n.prims {
		if q == p {
			return i
		}
	}
	return -1
}

func (n *node[P]) take(i int) {
	last := len(n.prims) - 1
	n.prims[i], n.boxes[i] = n.prims[last], n.boxes[last]

	var zero P
	n.prims[last] = zero
	n.prims, n.boxes = n.prims[:last], n.boxes[:last]
}

// Tree is a dynamic BVH over primitives of type P.
type Tree[P spatial.Primitive] struct {
	params spatial.Params
	root   *node[P]
	leaves map[P]*node[P]

	// Work deferred to FlushRebuild.
	refits map[*node[P]]struct{}
	merges map[*node[P]]struct{}
}

// New creates an empty BVH. Params.WorldBound seeds the root bound but does
// not limit where primitives may be.
func New[P spatial.Primitive](params spatial.Params) *Tree[P] {
	return &Tree[P]{
		params: params,
		root:   &node[P]{bound: params.WorldBound},
		leaves: make(map[P]*node[P]),
		refits: make(map[*node[P]]struct{}),
		merges: make(map[*node[P]]struct{}),
	}
}

// Len returns the number of indexed primitives.
func (t *Tree[P]) Len() int {
	return len(t.leaves)
}

// Contains reports whether p is indexed.
func (t *Tree[P]) Contains(p P) bool {
	_, ok := t.leaves[p]
	return ok
}

// Insert indexes p under its current bound.
func (t *Tree[P]) Insert(p P) bool {
	if _, ok := t.leaves[p]; ok {
		return false
	}
	t.insert(p, p.WorldAABB())
	return true
}

func (t *Tree[P]) insert(p P, box bounds.AABB) {
	n := t.root
	for {
		n.grow(box)
		n.size++
		if n.leaf() {
			break
		}
		n = t.chooseChild(n, box)
	}

	n.prims = append(n.prims, p)
	n.boxes = append(n.boxes, box)
	t.leaves[p] = n
	t.split(n)
}

// chooseChild picks the child whose surface area grows least when box is
// added to it, preferring the smaller child on ties.
func (t *Tree[P]) chooseChild(n *node[P], box bounds.AABB) *node[P] {
	best, bestCost, bestSurface := n.children[0], float32(0), float32(0)
	for i, c := range n.children {
		var cost, surface float32
		if c.size == 0 {
			cost = box.Surface()
		} else {
			surface = c.bound.Surface()
			cost = c.bound.Union(box).Surface() - surface
		}
		if i == 0 || cost < bestCost || (cost == bestCost && surface < bestSurface) {
			best, bestCost, bestSurface = c, cost, surface
		}
	}
	return best
}

// split divides an overflowing leaf at the median centroid of its longest
// centroid axis, recursing into halves that still overflow.
func (t *Tree[P]) split(n *node[P]) {
	if len(n.prims) <= t.params.MaxPrimitivesPerLeaf || n.depth >= t.params.MaxDepth {
		return
	}

	order := medianOrder(n.boxes)
	half := len(order) / 2
	prims, boxes := n.prims, n.boxes
	n.prims, n.boxes = nil, nil

	for side, idx := range [2][]int{order[:half], order[half:]} {
		c := &node[P]{depth: n.depth + 1, parent: n}
		for _, i := range idx {
			c.grow(boxes[i])
			c.size++
			c.prims = append(c.prims, prims[i])
			c.boxes = append(c.boxes, boxes[i])
			t.leaves[prims[i]] = c
		}
		n.children[side] = c
	}
	for _, c := range n.children {
		t.split(c)
	}
}

// medianOrder returns the indices of boxes sorted by centroid along the
// longest axis of their centroid bound.
func medianOrder(boxes []bounds.AABB) []int {
	centroids := make([]bounds.AABB, len(boxes))
	for i, b := range boxes {
		c := b.Center()
		centroids[i] = bounds.AABB{Min: c, Max: c}
	}
	spread := centroids[0]
	for _, c := range centroids[1:] {
		spread = spread.Union(c)
	}

	size := spread.Size()
	axis := 0
	if size.Y > size.Component(axis) {
		axis = 1
	}
	if size.Z > size.Component(axis) {
		axis = 2
	}

	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(centroids[a].Min.Component(axis), centroids[b].Min.Component(axis))
	})
	return order
}

// Remove drops p. The bounds above it are tightened and the leaf's parent
// is checked for a merge on the next FlushRebuild.
func (t *Tree[P]) Remove(p P) bool {
	n, ok := t.leaves[p]
	if !ok {
		return false
	}
	t.detach(p, n)
	return true
}

func (t *Tree[P]) detach(p P, n *node[P]) {
	n.take(n.index(p))
	for c := n; c != nil; c = c.parent {
		c.size--
	}
	delete(t.leaves, p)

	t.refits[n] = struct{}{}
	if n.parent != nil {
		t.merges[n.parent] = struct{}{}
	}
}

// Update re-indexes p under its current bound. A primitive that still fits
// in its leaf only has its cached box refreshed; one that left it is
// removed and reinserted.
func (t *Tree[P]) Update(p P) bool {
	n, ok := t.leaves[p]
	if !ok {
		return t.Insert(p)
	}

	box := p.WorldAABB()
	if n.bound.Contains(box) {
		n.boxes[n.index(p)] = box
		t.refits[n] = struct{}{}
		return true
	}

	t.detach(p, n)
	t.insert(p, box)
	return true
}

// BulkUpdate re-indexes ps. When the batch covers a large share of the
// tree the whole hierarchy is rebuilt top down from current bounds.
func (t *Tree[P]) BulkUpdate(ps []P) {
	if len(ps)*rebuildFraction < len(t.leaves) {
		for _, p := range ps {
			t.Update(p)
		}
		t.FlushRebuild()
		return
	}

	all := make([]P, 0, len(t.leaves)+len(ps))
	for p := range t.leaves {
		all = append(all, p)
	}
	added := make(map[P]struct{}, len(ps))
	for _, p := range ps {
		if _, ok := t.leaves[p]; ok {
			continue
		}
		if _, ok := added[p]; !ok {
			added[p] = struct{}{}
			all = append(all, p)
		}
	}
	t.rebuild(all)
}

// Rebuild reconstructs the hierarchy from the current bounds of every
// indexed primitive.
func (t *Tree[P]) Rebuild() {
	all := make([]P, 0, len(t.leaves))
	for p := range t.leaves {
		all = append(all, p)
	}
	t.rebuild(all)
}

func (t *Tree[P]) rebuild(all []P) {
	boxes := make([]bounds.AABB, len(all))
	for i, p := range all {
		boxes[i] = p.WorldAABB()
	}

	t.markDetached(t.root)
	t.root = &node[P]{bound: t.params.WorldBound}
	clear(t.refits)
	clear(t.merges)
	t.build(t.root, all, boxes)
}

// build fills n with prims, splitting top down at centroid medians.
func (t *Tree[P]) build(n *node[P], prims []P, boxes []bounds.AABB) {
	for _, b := range boxes {
		n.grow(b)
		n.size++
	}
	if len(prims) <= t.params.MaxPrimitivesPerLeaf || n.depth >= t.params.MaxDepth {
		n.prims = append(n.prims[:0], prims...)
		n.boxes = append(n.boxes[:0], boxes...)
		for _, p := range prims {
			t.leaves[p] = n
		}
		return
	}

	order := medianOrder(boxes)
	half := len(order) / 2
	for side, idx := range [2][]int{order[:half], order[half:]} {
		sp := make([]P, len(idx))
		sb := make([]bounds.AABB, len(idx))
		for j, i := range idx {
			sp[j], sb[j] = prims[i], boxes[i]
		}
		c := &node[P]{depth: n.depth + 1, parent: n}
		n.children[side] = c
		t.build(c, sp, sb)
	}
}

func (t *Tree[P]) markDetached(n *node[P]) {
	n.detached = true
	for _, c := range n.children {
		if c != nil {
			t.markDetached(c)
		}
	}
}

// FlushRebuild applies the merges and refits queued since the last call.
func (t *Tree[P]) FlushRebuild() {
	for len(t.merges) > 0 {
		for n := range t.merges {
			delete(t.merges, n)
			if n.detached || !t.tryMerge(n) {
				continue
			}
			t.refits[n] = struct{}{}
			if n.parent != nil {
				t.merges[n.parent] = struct{}{}
			}
		}
	}

	for n := range t.refits {
		for c := n; c != nil && !c.detached; c = c.parent {
			c.refit()
		}
	}
	clear(t.refits)
}

// tryMerge collapses n into a leaf when both children are leaves and all
// their primitives fit one leaf.
func (t *Tree[P]) tryMerge(n *node[P]) bool {
	if n.leaf() || n.size > t.params.MaxPrimitivesPerLeaf {
		return false
	}
	for _, c := range n.children {
		if !c.leaf() {
			return false
		}
	}
	for i, c := range n.children {
		for j, p := range c.prims {
			n.prims = append(n.prims, p)
			n.boxes = append(n.boxes, c.boxes[j])
			t.leaves[p] = n
		}
		c.detached = true
		n.children[i] = nil
	}
	return true
}

// Clear removes every primitive.
func (t *Tree[P]) Clear() {
	t.markDetached(t.root)
	t.root = &node[P]{bound: t.params.WorldBound}
	clear(t.leaves)
	clear(t.refits)
	clear(t.merges)
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
	if n.size == 0 || !test(n.bound) {
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

// QueryRayClosest returns the primitive r hits first, visiting nodes in
// order of entry distance and stopping once the next node starts beyond
// the best hit.
func (t *Tree[P]) QueryRayClosest(r bounds.Ray) (spatial.Hit[P], bool) {
	var best spatial.Hit[P]
	found := false

	var queue spatial.MinQueue[float32, *node[P]]
	if d, ok := spatial.EntryDistance(t.root.bound, r); ok && t.root.size > 0 {
		queue.Push(d, t.root)
	}

	for queue.Len() > 0 {
		n, entry := queue.Pop()
		if found && entry > best.Distance {
			break
		}
		for i, p := range n.prims {
			if d, ok := spatial.RayDistance(p, n.boxes[i], r); ok && (!found || d < best.Distance) {
				best = spatial.Hit[P]{Primitive: p, Distance: d}
				found = true
			}
		}
		for _, c := range n.children {
			if c == nil || c.size == 0 {
				continue
			}
			if d, ok := spatial.EntryDistance(c.bound, r); ok && (!found || d <= best.Distance) {
				queue.Push(d, c)
			}
		}
	}
	return best, found
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

// Stats reports the current shape of the tree. PendingMerges counts the
// merge checks queued for the next FlushRebuild.
func (t *Tree[P]) Stats() spatial.Stats {
	s := spatial.CollectStats(spatial.KindBVH, t.Walk)
	s.PendingMerges = len(t.merges)
	return s
}
