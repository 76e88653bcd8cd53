// Package partition owns the spatial index of a world. Collaborators
// register components, mark them dirty when they move and query the index;
// they never touch the tree itself.
package partition

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
	"github.com/Faultbox/midgard-spatial/internal/engine/spatial/bvh"
	"github.com/Faultbox/midgard-spatial/internal/engine/spatial/octree"
	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// Option customizes a Coordinator.
type Option func(*options)

type options struct {
	tree   any
	logger *zap.Logger
	name   string
}

// WithTree makes the coordinator use t instead of building the configured
// tree.
func WithTree[P spatial.Primitive](t spatial.Tree[P]) Option {
	return func(o *options) {
		o.tree = t
	}
}

// WithLogger sets the logger. The coordinator logs to a nop logger by
// default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithName sets the partition label reported in metrics and logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Coordinator tracks registered components, queues moved ones and
// re-indexes them in bounded batches once per frame.
//
// A Coordinator is not safe for concurrent use.
type Coordinator[P spatial.Primitive] struct {
	cfg        Config
	name       string
	tree       spatial.Tree[P]
	registered map[P]struct{}
	dirty      *DirtyQueue[P]
	logger     *zap.Logger
	metrics    metrics
}

// New builds a coordinator from cfg.
func New[P spatial.Primitive](cfg Config, opts ...Option) (*Coordinator[P], error) {
	o := options{
		logger: zap.NewNop(),
		name:   "default",
	}
	for _, opt := range opts {
		opt(&o)
	}

	var tree spatial.Tree[P]
	switch t := o.tree.(type) {
	case nil:
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		tree = newTree[P](cfg)
	case spatial.Tree[P]:
		if cfg.Budget < 1 {
			return nil, errors.New("budget must be at least 1").
				WithType(ErrTypeInvalidConfig).
				WithTag("budget", cfg.Budget)
		}
		tree = t
	default:
		return nil, errors.New("injected tree does not index this primitive type").
			WithType(ErrTypeInvalidConfig)
	}

	c := &Coordinator[P]{
		cfg:        cfg,
		name:       o.name,
		tree:       tree,
		registered: make(map[P]struct{}),
		dirty:      NewDirtyQueue[P](),
		logger:     o.logger.Named("partition").With(zap.String("name", o.name)),
		metrics:    newMetrics(o.name),
	}
	c.metrics.queueDepth.Set(0)
	c.metrics.registered.Set(0)

	c.logger.Info("partition created",
		zap.String("tree", tree.Stats().Kind),
		zap.Int("max_depth", cfg.Params.MaxDepth),
		zap.Int("max_primitives_per_leaf", cfg.Params.MaxPrimitivesPerLeaf),
		zap.Int("budget", cfg.Budget),
	)
	return c, nil
}

func newTree[P spatial.Primitive](cfg Config) spatial.Tree[P] {
	if cfg.Tree == spatial.KindBVH {
		return bvh.New[P](cfg.Params)
	}
	return octree.New[P](cfg.Params)
}

// Register starts tracking p and indexes it. Registering a tracked
// component is a no-op.
func (c *Coordinator[P]) Register(p P) {
	if _, ok := c.registered[p]; ok {
		return
	}
	c.registered[p] = struct{}{}
	c.metrics.registered.Set(float64(len(c.registered)))

	if !c.tree.Insert(p) {
		c.logger.Debug("component registered outside the indexed space",
			zap.Any("bound", p.WorldAABB()),
		)
	}
}

// Unregister stops tracking p, removes it from the tree and purges any
// pending re-index. Unregistering an unknown component is a no-op.
func (c *Coordinator[P]) Unregister(p P) {
	if _, ok := c.registered[p]; !ok {
		return
	}
	delete(c.registered, p)
	c.dirty.Remove(p)
	c.tree.Remove(p)

	c.metrics.registered.Set(float64(len(c.registered)))
	c.metrics.queueDepth.Set(float64(c.dirty.Len()))
}

func (c *Coordinator[P]) IsRegistered(p P) bool {
	_, ok := c.registered[p]
	return ok
}

// MarkDirty queues p for re-indexing. A component is queued at most once
// until the next Update processes it. Unregistered components are ignored.
func (c *Coordinator[P]) MarkDirty(p P) {
	if _, ok := c.registered[p]; !ok {
		return
	}
	if c.dirty.Push(p) {
		c.metrics.queueDepth.Set(float64(c.dirty.Len()))
	}
}

// Update re-indexes up to budget dirty components, then lets the tree apply
// its deferred structural changes. A budget <= 0 selects the configured
// budget. Components left in the queue carry over to the next call.
// deltaTime is currently unused. It returns the number of components
// processed.
func (c *Coordinator[P]) Update(deltaTime float32, budget int) int {
	if budget <= 0 {
		budget = c.cfg.Budget
	}
	start := time.Now()

	processed := 0
	for processed < budget {
		p, ok := c.dirty.Pop()
		if !ok {
			break
		}
		processed++
		if !c.tree.Update(p) {
			c.logger.Debug("component left the indexed space",
				zap.Any("bound", p.WorldAABB()),
			)
		}
	}
	c.tree.FlushRebuild()

	c.metrics.reindexed.Add(float64(processed))
	c.metrics.queueDepth.Set(float64(c.dirty.Len()))
	c.metrics.update.Observe(time.Since(start).Seconds())
	return processed
}

// Pending returns the number of components waiting to be re-indexed.
func (c *Coordinator[P]) Pending() int {
	return c.dirty.Len()
}

// Len returns the number of registered components.
func (c *Coordinator[P]) Len() int {
	return len(c.registered)
}

// QueryRayClosest returns the component hit first by r.
func (c *Coordinator[P]) QueryRayClosest(r bounds.Ray) (P, float32, bool) {
	c.metrics.countQuery(queryRay)
	hit, ok := c.tree.QueryRayClosest(r)
	return hit.Primitive, hit.Distance, ok
}

// QueryFrustum returns the components whose bound intersects f.
func (c *Coordinator[P]) QueryFrustum(f bounds.Frustum) []P {
	c.metrics.countQuery(queryFrustum)
	return c.tree.QueryFrustum(f, nil)
}

// QueryIntersectedComponents returns the components whose bound overlaps
// box. It is the coarse candidate filter of the overlap broad phase.
func (c *Coordinator[P]) QueryIntersectedComponents(box bounds.AABB) []P {
	c.metrics.countQuery(queryAABB)
	return c.tree.QueryAABB(box, nil)
}

// QueryOverlappingOBB returns the components overlapping o. Candidates from
// the AABB broad phase are kept only if they pass the oriented box test.
func (c *Coordinator[P]) QueryOverlappingOBB(o bounds.OBB) []P {
	c.metrics.countQuery(queryOBB)
	candidates := c.tree.QueryAABB(o.AABB(), nil)

	out := candidates[:0]
	for _, p := range candidates {
		if spatial.OverlapsOBB(p, p.WorldAABB(), o) {
			out = append(out, p)
		}
	}
	return out
}

// FindNearest returns up to maxCount components near point when the tree
// supports nearest queries, and nothing otherwise.
func (c *Coordinator[P]) FindNearest(point math.Vec3, maxCount int) []P {
	finder, ok := c.tree.(spatial.NearestFinder[P])
	if !ok {
		return nil
	}
	c.metrics.countQuery(queryNearest)
	return finder.FindNearestPrimitives(point, maxCount)
}

// Rebuild re-indexes every registered component at once and drops the
// pending queue.
func (c *Coordinator[P]) Rebuild() {
	all := make([]P, 0, len(c.registered))
	for p := range c.registered {
		all = append(all, p)
	}
	c.tree.BulkUpdate(all)
	c.tree.FlushRebuild()
	c.dirty.Clear()

	c.metrics.reindexed.Add(float64(len(all)))
	c.metrics.queueDepth.Set(0)
	c.logger.Info("partition rebuilt", zap.Int("components", len(all)))
}

// Walk visits the tree nodes depth first.
func (c *Coordinator[P]) Walk(fn func(n spatial.NodeInfo) bool) {
	c.tree.Walk(fn)
}

func (c *Coordinator[P]) Stats() spatial.Stats {
	return c.tree.Stats()
}
