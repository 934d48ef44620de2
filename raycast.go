package xrgrab

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Forward is the local axis a controller points along.
var Forward = mgl32.Vec3{0, 0, -1}

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// ControllerRay starts at the pose's translation and points along its rotated
// forward axis.
func ControllerRay(world TransformComponent) Ray {
	dir := world.Rotation.Rotate(Forward)
	if dir.Len() < 1e-6 {
		dir = Forward
	}
	return Ray{Origin: world.Position, Direction: dir.Normalize()}
}

// LookRotation turns Forward onto dir.
func LookRotation(dir mgl32.Vec3) mgl32.Quat {
	if dir.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatBetweenVectors(Forward, dir.Normalize())
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Intersection is one ray hit. Distance is in world units.
type Intersection struct {
	Entity   EntityId
	Distance float32
	Point    mgl32.Vec3
}

// IntersectEntity tests the ray against the entity's own collider only.
func IntersectEntity(cmd *Commands, ray Ray, eid EntityId) (Intersection, bool) {
	collider := GetComponent[ColliderComponent](cmd, eid)
	if collider == nil {
		return Intersection{}, false
	}
	world, ok := WorldTransformOf(cmd, eid)
	if !ok {
		return Intersection{}, false
	}

	// Transform ray to object space
	w2o := world.WorldToObject()
	localOrigin := w2o.Mul4x1(ray.Origin.Vec4(1.0)).Vec3()
	localDirUnnorm := w2o.Mul4x1(ray.Direction.Vec4(0.0)).Vec3()
	scaleFactor := localDirUnnorm.Len()
	if scaleFactor < 1e-6 {
		return Intersection{}, false
	}
	localDir := localDirUnnorm.Mul(1.0 / scaleFactor)

	t, hit := collider.intersectLocal(localOrigin, localDir)
	if !hit {
		return Intersection{}, false
	}

	// Measure in world space: the object may be scaled non-uniformly.
	localHit := localOrigin.Add(localDir.Mul(t))
	worldHit := world.ObjectToWorld().Mul4x1(localHit.Vec4(1.0)).Vec3()
	return Intersection{
		Entity:   eid,
		Distance: worldHit.Sub(ray.Origin).Len(),
		Point:    worldHit,
	}, true
}

// IntersectObjects tests the ray against roots and, when recursive, all their
// descendants. Hits come back nearest first; equal distances keep traversal
// order (roots as given, children by ascending id). maxDistance <= 0 means
// unbounded. Nothing outside the given roots is ever tested.
func IntersectObjects(cmd *Commands, ray Ray, roots []EntityId, recursive bool, maxDistance float32) []Intersection {
	var children map[EntityId][]EntityId
	if recursive {
		children = childIndex(cmd)
	}

	visited := make(set[EntityId])
	var hits []Intersection

	var visit func(eid EntityId)
	visit = func(eid EntityId) {
		if _, seen := visited[eid]; seen {
			return
		}
		visited[eid] = struct{}{}

		if hit, ok := IntersectEntity(cmd, ray, eid); ok {
			if maxDistance <= 0 || hit.Distance <= maxDistance {
				hits = append(hits, hit)
			}
		}
		for _, child := range children[eid] {
			visit(child)
		}
	}

	for _, root := range roots {
		visit(root)
	}

	slices.SortStableFunc(hits, func(a, b Intersection) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return hits
}
