package xrgrab

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent is the world-space pose of a scene node. The hierarchy
// system keeps it in sync with LocalTransformComponent and the parent chain.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// LocalTransformComponent is the pose relative to the node's Parent.
type LocalTransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// Parent names the scene node that owns this one.
type Parent struct {
	Entity EntityId
}

// SceneRootComponent marks the world scene: the default owner of every node.
type SceneRootComponent struct{}

type NameComponent struct {
	Name string
}

func IdentityTransform() TransformComponent {
	return TransformComponent{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t TransformComponent) Local() LocalTransformComponent {
	return LocalTransformComponent(t)
}

func (l LocalTransformComponent) World() TransformComponent {
	return TransformComponent(l)
}

func (t TransformComponent) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

func (t TransformComponent) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T)
	invScale := mgl32.Scale3D(safeInv(t.Scale.X()), safeInv(t.Scale.Y()), safeInv(t.Scale.Z()))
	invRotate := t.Rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// composeTransform places a local pose under a parent's world pose.
// Components are propagated directly so negative scales (reflections) survive.
func composeTransform(parent TransformComponent, local LocalTransformComponent) TransformComponent {
	// WorldPos = ParentPos + ParentRot * (ParentScale * LocalPos)
	scaledLocalPos := mulElem(parent.Scale, local.Position)
	return TransformComponent{
		Position: parent.Position.Add(parent.Rotation.Rotate(scaledLocalPos)),
		Rotation: parent.Rotation.Mul(local.Rotation).Normalize(),
		Scale:    mulElem(parent.Scale, local.Scale),
	}
}

// relativeTransform is the inverse of composeTransform: the local pose that
// keeps world where it is once the node hangs under parent.
func relativeTransform(parent TransformComponent, world TransformComponent) LocalTransformComponent {
	invRot := parent.Rotation.Conjugate()
	return LocalTransformComponent{
		Position: divElem(invRot.Rotate(world.Position.Sub(parent.Position)), parent.Scale),
		Rotation: invRot.Mul(world.Rotation).Normalize(),
		Scale:    divElem(world.Scale, parent.Scale),
	}
}

func mulElem(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

func divElem(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * safeInv(b.X()), a.Y() * safeInv(b.Y()), a.Z() * safeInv(b.Z())}
}

// safeInv treats a collapsed axis as zero instead of producing Inf.
func safeInv(v float32) float32 {
	if v > -1e-8 && v < 1e-8 {
		return 0
	}
	return 1 / v
}
