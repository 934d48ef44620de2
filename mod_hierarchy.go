package xrgrab

import (
	"fmt"
	"slices"
)

// maxHierarchyDepth bounds parent walks; Attach refuses cycles, this only guards
// against hand-built broken graphs.
const maxHierarchyDepth = 256

// SceneGraph is the resource naming the world scene root.
type SceneGraph struct {
	Root EntityId
}

type HierarchyModule struct{}

func (HierarchyModule) Install(app *App, cmd *Commands) {
	root := SpawnSceneRoot(cmd)
	cmd.AddResources(&SceneGraph{Root: root})

	app.UseSystem(
		System(TransformHierarchySystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

func SpawnSceneRoot(cmd *Commands) EntityId {
	identity := IdentityTransform()
	return cmd.AddEntity(
		&SceneRootComponent{},
		&NameComponent{Name: "scene"},
		&identity,
		&LocalTransformComponent{Rotation: identity.Rotation, Scale: identity.Scale},
	)
}

// SpawnNode queues a scene node under parent. Extra components ride along.
func SpawnNode(cmd *Commands, parent EntityId, name string, local LocalTransformComponent, extra ...any) EntityId {
	comps := []any{
		&NameComponent{Name: name},
		&Parent{Entity: parent},
		&local,
		&TransformComponent{Position: local.Position, Rotation: local.Rotation, Scale: local.Scale},
	}
	comps = append(comps, extra...)
	return cmd.AddEntity(comps...)
}

// TransformHierarchySystem refreshes the cached world transform of every node.
func TransformHierarchySystem(cmd *Commands) {
	MakeQuery2[LocalTransformComponent, TransformComponent](cmd).Map(func(eid EntityId, local *LocalTransformComponent, world *TransformComponent) bool {
		if w, ok := WorldTransformOf(cmd, eid); ok {
			*world = w
		}
		return true
	})
}

// WorldTransformOf composes the entity's local pose with its parent chain.
// A node whose parent no longer exists is treated as a root.
func WorldTransformOf(cmd *Commands, eid EntityId) (TransformComponent, bool) {
	return worldTransformOf(cmd, eid, 0)
}

func worldTransformOf(cmd *Commands, eid EntityId, depth int) (TransformComponent, bool) {
	local := GetComponent[LocalTransformComponent](cmd, eid)
	if local == nil {
		return TransformComponent{}, false
	}
	parent := GetComponent[Parent](cmd, eid)
	if parent == nil || depth >= maxHierarchyDepth {
		return local.World(), true
	}
	parentWorld, ok := worldTransformOf(cmd, parent.Entity, depth+1)
	if !ok {
		return local.World(), true
	}
	return composeTransform(parentWorld, *local), true
}

func ParentOf(cmd *Commands, eid EntityId) (EntityId, bool) {
	parent := GetComponent[Parent](cmd, eid)
	if parent == nil || !cmd.HasEntity(parent.Entity) {
		return 0, false
	}
	return parent.Entity, true
}

// ChildrenOf lists direct children in ascending id order.
func ChildrenOf(cmd *Commands, eid EntityId) []EntityId {
	return childIndex(cmd)[eid]
}

// childIndex maps every parent to its children, each list sorted by id.
func childIndex(cmd *Commands) map[EntityId][]EntityId {
	index := make(map[EntityId][]EntityId)
	MakeQuery1[Parent](cmd).Map(func(eid EntityId, parent *Parent) bool {
		index[parent.Entity] = append(index[parent.Entity], eid)
		return true
	})
	for _, children := range index {
		slices.Sort(children)
	}
	return index
}

// IsAncestor reports whether ancestor appears on node's parent chain.
func IsAncestor(cmd *Commands, ancestor EntityId, node EntityId) bool {
	current := node
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		parent, ok := ParentOf(cmd, current)
		if !ok {
			return false
		}
		if parent == ancestor {
			return true
		}
		current = parent
	}
	return false
}

// Attach re-parents child under newParent and rewrites its local pose so the
// world-space pose does not move.
func Attach(cmd *Commands, child EntityId, newParent EntityId) error {
	if !cmd.HasEntity(child) {
		return fmt.Errorf("attach child %d: %w", child, ErrEntityNotFound)
	}
	if !cmd.HasEntity(newParent) {
		return fmt.Errorf("attach to parent %d: %w", newParent, ErrEntityNotFound)
	}

	local := GetComponent[LocalTransformComponent](cmd, child)
	parent := GetComponent[Parent](cmd, child)
	if local == nil || parent == nil {
		return fmt.Errorf("attach child %d: %w", child, ErrNotSceneNode)
	}
	if !HasComponent[LocalTransformComponent](cmd, newParent) {
		return fmt.Errorf("attach to parent %d: %w", newParent, ErrNotSceneNode)
	}
	if child == newParent || IsAncestor(cmd, child, newParent) {
		return fmt.Errorf("attach %d under %d: %w", child, newParent, ErrHierarchyCycle)
	}

	childWorld, _ := WorldTransformOf(cmd, child)
	parentWorld, _ := WorldTransformOf(cmd, newParent)

	*local = relativeTransform(parentWorld, childWorld)
	parent.Entity = newParent
	if world := GetComponent[TransformComponent](cmd, child); world != nil {
		*world = childWorld
	}
	return nil
}
