package xrgrab

import "slices"

// GrabbableRegistry is the set of logical grab units. It is filled while the
// scene loads and only read while the session runs.
type GrabbableRegistry struct {
	members set[EntityId]
	order   []EntityId
}

func NewGrabbableRegistry() *GrabbableRegistry {
	return &GrabbableRegistry{members: make(set[EntityId])}
}

// Register adds eid and reports whether it was new.
func (r *GrabbableRegistry) Register(eid EntityId) bool {
	if _, ok := r.members[eid]; ok {
		return false
	}
	r.members[eid] = struct{}{}
	r.order = append(r.order, eid)
	return true
}

func (r *GrabbableRegistry) Unregister(eid EntityId) bool {
	if _, ok := r.members[eid]; !ok {
		return false
	}
	delete(r.members, eid)
	r.order = slices.DeleteFunc(r.order, func(e EntityId) bool { return e == eid })
	return true
}

func (r *GrabbableRegistry) Contains(eid EntityId) bool {
	_, ok := r.members[eid]
	return ok
}

// Entities returns the members in registration order.
func (r *GrabbableRegistry) Entities() []EntityId {
	return slices.Clone(r.order)
}

func (r *GrabbableRegistry) Len() int {
	return len(r.order)
}

// ResolveGrabbable maps a raw hit (possibly a deep sub-part of a loaded model)
// to the logical unit to grab. It climbs parents until the node is registered,
// or its parent is the scene root or the requesting controller, or no parent
// is left. When no registered node is met the topmost node reached is returned.
func ResolveGrabbable(cmd *Commands, registry *GrabbableRegistry, hit EntityId, sceneRoot EntityId, controller EntityId) EntityId {
	node := hit
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		parent, ok := ParentOf(cmd, node)
		if !ok || parent == sceneRoot || parent == controller {
			break
		}
		if registry.Contains(node) {
			break
		}
		node = parent
	}
	return node
}
