package xrgrab

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type ColliderShape int

const (
	ColliderBox ColliderShape = iota
	ColliderSphere
)

// ColliderComponent is the pickable volume of a node, in object space.
type ColliderComponent struct {
	Shape       ColliderShape
	HalfExtents mgl32.Vec3
	Radius      float32
	Offset      mgl32.Vec3
}

func BoxCollider(size mgl32.Vec3) ColliderComponent {
	return ColliderComponent{Shape: ColliderBox, HalfExtents: size.Mul(0.5)}
}

func SphereCollider(radius float32) ColliderComponent {
	return ColliderComponent{Shape: ColliderSphere, Radius: radius}
}

// intersectLocal returns the distance along a normalized object-space ray to the
// first surface crossing. A ray starting inside the volume reports its exit.
func (c ColliderComponent) intersectLocal(origin, dir mgl32.Vec3) (float32, bool) {
	switch c.Shape {
	case ColliderSphere:
		return raySphere(origin, dir, c.Offset, c.Radius)
	default:
		return rayBox(origin, dir, c.Offset.Sub(c.HalfExtents), c.Offset.Add(c.HalfExtents))
	}
}

func rayBox(origin, dir, lo, hi mgl32.Vec3) (float32, bool) {
	tmin := float32(math.Inf(-1))
	tmax := float32(math.Inf(1))

	for axis := 0; axis < 3; axis++ {
		if dir[axis] > -1e-12 && dir[axis] < 1e-12 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[axis]
		t1 := (lo[axis] - origin[axis]) * inv
		t2 := (hi[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}

	if tmax < 0 {
		return 0, false
	}
	if tmin >= 0 {
		return tmin, true
	}
	return tmax, true
}

func raySphere(origin, dir, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	s := float32(math.Sqrt(float64(disc)))
	t := -b - s
	if t < 0 {
		t = -b + s
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
