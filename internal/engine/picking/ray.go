// Package picking provides mouse picking against the spatial partition.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) bounds.Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	near := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1.0, 1.0})
	far := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1.0, 1.0})
	return bounds.RayThrough(near, far)
}

func unproject(invViewProj math.Mat4, ndc math.Vec4) math.Vec3 {
	w := invViewProj.MulVec4(ndc)
	if w[3] != 0 {
		return w.XYZ().Scale(1 / w[3])
	}
	return w.XYZ()
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y
// level. It reports false when the ray is parallel to the plane or the
// plane is behind the origin.
func IntersectPlaneY(r bounds.Ray, planeY float32) (math.Vec3, bool) {
	if math32.Abs(r.Direction.Y) < 0.001 {
		return math.Vec3{}, false
	}

	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return math.Vec3{}, false
	}
	p := r.At(t)
	p.Y = planeY
	return p, true
}

// RayIntersector finds the first object along a ray.
type RayIntersector[P any] interface {
	QueryRayClosest(r bounds.Ray) (P, float32, bool)
}

// Result is a picked object.
type Result[P any] struct {
	Target   P
	Distance float32
	Point    math.Vec3
}

// Pick returns the object nearest to the ray origin.
func Pick[P any](scene RayIntersector[P], r bounds.Ray) (Result[P], bool) {
	target, dist, ok := scene.QueryRayClosest(r)
	if !ok {
		return Result[P]{}, false
	}
	return Result[P]{
		Target:   target,
		Distance: dist,
		Point:    r.At(dist),
	}, true
}

// PickScreen casts a ray through a pixel of the viewport and picks along it.
func PickScreen[P any](scene RayIntersector[P], screenX, screenY, viewportW, viewportH float32, viewProj math.Mat4) (Result[P], bool) {
	return Pick(scene, ScreenToRay(screenX, screenY, viewportW, viewportH, viewProj.Inverse()))
}
