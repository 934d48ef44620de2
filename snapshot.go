package xrgrab

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeSnapshot is one scene node as written by SaveSnapshot.
type NodeSnapshot struct {
	ID        EntityId   `json:"id"`
	Name      string     `json:"name,omitempty"`
	HasParent bool       `json:"has_parent"`
	ParentID  EntityId   `json:"parent_id"`
	Position  mgl32.Vec3 `json:"position"`
	Rotation  mgl32.Quat `json:"rotation"`
	Scale     mgl32.Vec3 `json:"scale"`
	Grabbable bool       `json:"grabbable,omitempty"`
	HeldBy    *int       `json:"held_by,omitempty"`

	Components []string `json:"components,omitempty"`
}

type Snapshot struct {
	Nodes []NodeSnapshot `json:"nodes"`
}

// TakeSnapshot records every scene node with its world pose and current owner,
// ordered by id.
func TakeSnapshot(cmd *Commands) Snapshot {
	registry := Resource[GrabbableRegistry](cmd.app)

	var nodes []NodeSnapshot
	MakeQuery3[LocalTransformComponent, NameComponent, Parent](cmd).Map(func(eid EntityId, _ *LocalTransformComponent, name *NameComponent, parent *Parent) bool {
		world, _ := WorldTransformOf(cmd, eid)
		node := NodeSnapshot{
			ID:         eid,
			Position:   world.Position,
			Rotation:   world.Rotation,
			Scale:      world.Scale,
			Components: componentNames(cmd, eid),
		}
		if name != nil {
			node.Name = name.Name
		}
		if parent != nil && cmd.HasEntity(parent.Entity) {
			node.HasParent = true
			node.ParentID = parent.Entity
		}
		if registry != nil {
			node.Grabbable = registry.Contains(eid)
			node.HeldBy = heldBy(cmd, registry, eid)
		}
		nodes = append(nodes, node)
		return true
	}, NameComponent{}, Parent{})

	slices.SortFunc(nodes, func(a, b NodeSnapshot) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return Snapshot{Nodes: nodes}
}

// heldBy names the controller holding eid. Only grab units and their parts
// count as held; a controller's own children, like its ray, do not.
func heldBy(cmd *Commands, registry *GrabbableRegistry, eid EntityId) *int {
	holder, held := HolderOf(cmd, eid)
	if !held {
		return nil
	}
	grabbed := false
	for current := eid; current != holder; {
		if registry.Contains(current) {
			grabbed = true
			break
		}
		parent, ok := ParentOf(cmd, current)
		if !ok {
			break
		}
		current = parent
	}
	if !grabbed {
		return nil
	}
	c := GetComponent[ControllerComponent](cmd, holder)
	if c == nil {
		return nil
	}
	index := c.Index
	return &index
}

func componentNames(cmd *Commands, eid EntityId) []string {
	var names []string
	for _, c := range cmd.GetAllComponents(eid) {
		names = append(names, strings.TrimPrefix(fmt.Sprintf("%T", c), "xrgrab."))
	}
	slices.Sort(names)
	return names
}

func SaveSnapshot(cmd *Commands, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(TakeSnapshot(cmd))
}

func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
