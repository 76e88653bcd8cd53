// Package camera provides the view that drives frustum culling and mouse
// picking.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // vertical angle, radians
	Yaw      float32 // horizontal angle, radians

	// Projection
	FovY float32
	Near float32
	Far  float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        100.0,
		Pitch:           0.5,
		Yaw:             0.0,
		FovY:            math32.Pi / 3,
		Near:            0.1,
		Far:             1000.0,
		MinDistance:     1.0,
		MaxDistance:     5000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sinP, cosP := math32.Sincos(c.Pitch)
	sinY, cosY := math32.Sincos(c.Yaw)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cosP * sinY,
		Y: c.Distance * sinP,
		Z: c.Distance * cosP * cosY,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// Projection returns the perspective projection for a viewport aspect
// ratio.
func (c *OrbitCamera) Projection(aspect float32) math.Mat4 {
	return math.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection(aspect float32) math.Mat4 {
	return c.Projection(aspect).Mul(c.ViewMatrix())
}

// Frustum returns the world-space view frustum.
func (c *OrbitCamera) Frustum(aspect float32) bounds.Frustum {
	return bounds.FrustumFromMatrix(c.ViewProjection(aspect))
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = math.Clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = math.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers the camera on b and backs off until the whole box is
// inside the vertical field of view.
func (c *OrbitCamera) FitToBounds(b bounds.AABB) {
	c.Center = b.Center()

	radius := b.Extents().Length()
	c.Distance = math.Clamp(radius/math32.Sin(c.FovY/2), c.MinDistance, c.MaxDistance)
	if c.Far < c.Distance+radius {
		c.Far = c.Distance + radius
	}

	c.Pitch = 0.6 // look down at ~35 degrees
	c.Yaw = 0.0
}
