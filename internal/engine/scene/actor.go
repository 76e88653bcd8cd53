package scene

import (
	"github.com/google/uuid"

	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// Component is a bounded part of an actor. Its world bounds are derived
// from the owner transform each time they are asked for.
type Component struct {
	ID    uuid.UUID
	Name  string
	Local bounds.AABB

	owner *Actor
}

// Owner returns the actor the component belongs to.
func (c *Component) Owner() *Actor {
	return c.owner
}

// WorldAABB returns the world-space box enclosing the component.
func (c *Component) WorldAABB() bounds.AABB {
	return c.Local.Transform(c.owner.transform.Matrix())
}

// WorldOBB returns the component's local box under the owner transform.
func (c *Component) WorldOBB() bounds.OBB {
	return bounds.NewOBB(c.Local, c.owner.transform.Matrix())
}

// Actor is an object placed in a World.
type Actor struct {
	ID   uuid.UUID
	Name string

	world      *World
	transform  Transform
	components []*Component
	alive      bool
}

// Alive reports whether the actor is still spawned.
func (a *Actor) Alive() bool {
	return a.alive
}

func (a *Actor) Transform() Transform {
	return a.transform
}

// Components returns the actor's components. The slice must not be
// modified.
func (a *Actor) Components() []*Component {
	return a.components
}

// AddComponent attaches a component with the given local bound and
// registers it with the world partition.
func (a *Actor) AddComponent(name string, local bounds.AABB) *Component {
	c := &Component{
		ID:    uuid.New(),
		Name:  name,
		Local: local,
		owner: a,
	}
	a.components = append(a.components, c)
	if a.alive {
		a.world.partition.Register(c)
	}
	return c
}

// RemoveComponent detaches c and unregisters it. It reports whether c
// belonged to the actor.
func (a *Actor) RemoveComponent(c *Component) bool {
	for i, comp := range a.components {
		if comp != c {
			continue
		}
		a.world.partition.Unregister(c)
		a.components = append(a.components[:i], a.components[i+1:]...)
		return true
	}
	return false
}

// SetTransform replaces the actor transform and marks its components
// dirty.
func (a *Actor) SetTransform(t Transform) {
	a.transform = t
	a.markDirty()
}

// Translate moves the actor by delta.
func (a *Actor) Translate(delta math.Vec3) {
	a.transform.Position = a.transform.Position.Add(delta)
	a.markDirty()
}

// SetPosition moves the actor to p.
func (a *Actor) SetPosition(p math.Vec3) {
	a.transform.Position = p
	a.markDirty()
}

// SetRotation replaces the actor orientation.
func (a *Actor) SetRotation(q math.Quat) {
	a.transform.Rotation = q.Normalize()
	a.markDirty()
}

func (a *Actor) markDirty() {
	if !a.alive {
		return
	}
	for _, c := range a.components {
		a.world.partition.MarkDirty(c)
	}
}
