// Package scene is the scene graph that feeds the spatial partition. Every
// component of a spawned actor is registered with the world's partition,
// and every transform change marks the actor's components dirty.
package scene

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-spatial/internal/engine/partition"
	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// World owns the actors of a scene and the partition indexing their
// components.
type World struct {
	partition *partition.Coordinator[*Component]
	actors    map[uuid.UUID]*Actor
	logger    *zap.Logger
}

// NewWorld creates an empty world indexed according to cfg.
func NewWorld(cfg partition.Config, logger *zap.Logger) (*World, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := partition.New[*Component](cfg,
		partition.WithLogger(logger),
		partition.WithName("world"),
	)
	if err != nil {
		return nil, err
	}
	return &World{
		partition: p,
		actors:    make(map[uuid.UUID]*Actor),
		logger:    logger.Named("scene"),
	}, nil
}

// Partition returns the coordinator indexing the world.
func (w *World) Partition() *partition.Coordinator[*Component] {
	return w.partition
}

// Spawn adds an actor at t.
func (w *World) Spawn(name string, t Transform) *Actor {
	a := &Actor{
		ID:        uuid.New(),
		Name:      name,
		world:     w,
		transform: t,
		alive:     true,
	}
	w.actors[a.ID] = a
	return a
}

// Despawn unregisters every component of a and removes it from the world.
// It is the only way actors leave a world, so the partition never holds a
// component of a dropped actor.
func (w *World) Despawn(a *Actor) bool {
	if a == nil || !a.alive || a.world != w {
		return false
	}
	for _, c := range a.components {
		w.partition.Unregister(c)
	}
	a.alive = false
	delete(w.actors, a.ID)
	return true
}

// Actor returns the spawned actor with the given id.
func (w *World) Actor(id uuid.UUID) (*Actor, bool) {
	a, ok := w.actors[id]
	return a, ok
}

// Len returns the number of spawned actors.
func (w *World) Len() int {
	return len(w.actors)
}

// Tick re-indexes moved components within the configured frame budget and
// returns how many were processed.
func (w *World) Tick(deltaTime float32) int {
	return w.partition.Update(deltaTime, 0)
}

// Pick returns the component first hit by r.
func (w *World) Pick(r bounds.Ray) (*Component, float32, bool) {
	return w.partition.QueryRayClosest(r)
}

// Visible returns the components inside the view frustum f.
func (w *World) Visible(f bounds.Frustum) []*Component {
	return w.partition.QueryFrustum(f)
}

// Overlapping returns the components whose world AABB overlaps box.
func (w *World) Overlapping(box bounds.AABB) []*Component {
	return w.partition.QueryIntersectedComponents(box)
}

// OverlappingOBB returns the components whose world OBB overlaps o.
func (w *World) OverlappingOBB(o bounds.OBB) []*Component {
	return w.partition.QueryOverlappingOBB(o)
}

// Nearest returns up to maxCount components close to point. Only
// octree-backed worlds answer nearest queries.
func (w *World) Nearest(point math.Vec3, maxCount int) []*Component {
	return w.partition.FindNearest(point, maxCount)
}
