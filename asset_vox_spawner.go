package xrgrab

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const DefaultVoxelSize = 0.1

// VoxelShapeComponent marks a leaf spawned from a .vox model.
type VoxelShapeComponent struct {
	Model  int
	Voxels int
}

// SpawnVoxModel queues the model's node hierarchy under parent and returns
// its root. Files without a scene graph get one child per model.
func SpawnVoxModel(cmd *Commands, file *VoxFile, parent EntityId, placement VoxPlacement) EntityId {
	voxelSize := placement.VoxelSize
	if voxelSize <= 0 {
		voxelSize = DefaultVoxelSize
	}
	name := placement.Name
	if name == "" {
		name = "model"
	}

	root := SpawnNode(cmd, parent, name, placement.Transform)

	if _, ok := file.Nodes[0]; ok {
		visited := make(set[int])
		spawnVoxNode(cmd, file, 0, root, voxelSize, visited)
		return root
	}
	for i := range file.Models {
		spawnVoxShape(cmd, file, i, root, voxelSize)
	}
	return root
}

func spawnVoxNode(cmd *Commands, file *VoxFile, nodeId int, parent EntityId, voxelSize float32, visited set[int]) {
	node, ok := file.Nodes[nodeId]
	if !ok {
		return
	}
	if _, seen := visited[nodeId]; seen {
		return
	}
	visited[nodeId] = struct{}{}

	switch node.Type {
	case VoxNodeTransform:
		local := IdentityTransform().Local()
		if len(node.Frames) > 0 {
			f := node.Frames[0]
			local.Position = voxToEngine(f.LocalTrans).Mul(voxelSize)
			local.Rotation, local.Scale = decodeVoxRotation(f.Rotation)
		}
		eid := SpawnNode(cmd, parent, voxNodeName(node), local)
		spawnVoxNode(cmd, file, node.ChildID, eid, voxelSize, visited)

	case VoxNodeGroup:
		eid := SpawnNode(cmd, parent, voxNodeName(node), IdentityTransform().Local())
		for _, childID := range node.ChildrenIDs {
			spawnVoxNode(cmd, file, childID, eid, voxelSize, visited)
		}

	case VoxNodeShape:
		// Shapes hang off their transform node, which sits at the model's centre.
		for _, m := range node.Models {
			spawnVoxShape(cmd, file, m.ModelID, parent, voxelSize)
		}
	}
}

func spawnVoxShape(cmd *Commands, file *VoxFile, modelID int, parent EntityId, voxelSize float32) EntityId {
	model := file.Models[modelID]
	return SpawnNode(cmd, parent, fmt.Sprintf("shape-%d", modelID), IdentityTransform().Local(),
		&ColliderComponent{
			Shape:       ColliderBox,
			HalfExtents: model.Size().Mul(voxelSize * 0.5),
			Offset:      mgl32.Vec3{},
		},
		&MaterialComponent{
			Color:           file.DominantColor(model),
			EmissiveEnabled: true,
		},
		&VoxelShapeComponent{
			Model:  modelID,
			Voxels: len(model.Voxels),
		},
	)
}

func voxNodeName(node VoxNode) string {
	if node.Name != "" {
		return node.Name
	}
	switch node.Type {
	case VoxNodeTransform:
		return fmt.Sprintf("transform-%d", node.ID)
	case VoxNodeGroup:
		return fmt.Sprintf("group-%d", node.ID)
	default:
		return fmt.Sprintf("node-%d", node.ID)
	}
}
