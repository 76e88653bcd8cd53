package bounds

import "github.com/Faultbox/midgard-spatial/pkg/math"

// Ray is a half-line starting at Origin. Direction is expected to be
// normalized so that hit distances are in world units.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// NewRay creates a ray and normalizes its direction.
func NewRay(origin, direction math.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// RayThrough creates a ray starting at from and passing through to.
func RayThrough(from, to math.Vec3) Ray {
	return NewRay(from, to.Sub(from))
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}
