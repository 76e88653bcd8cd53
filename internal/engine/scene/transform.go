package scene

import "github.com/Faultbox/midgard-spatial/pkg/math"

// Transform places an actor in the world.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// IdentityTransform returns a transform at the origin with no rotation and
// unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: math.QuatIdentity(),
		Scale:    math.Splat3(1),
	}
}

// At returns an identity transform moved to position.
func At(position math.Vec3) Transform {
	t := IdentityTransform()
	t.Position = position
	return t
}

// Matrix returns the local-to-world matrix: translation * rotation * scale.
func (t Transform) Matrix() math.Mat4 {
	return math.Compose(t.Position, t.Rotation, t.Scale)
}
