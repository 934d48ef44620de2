package xrgrab

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// SceneDef defines the initial state of a scene.
type SceneDef struct {
	Background Color       `yaml:"background"`
	Floor      *FloorDef   `yaml:"floor,omitempty"`
	Lights     []LightDef  `yaml:"lights,omitempty"`
	Objects    []ObjectDef `yaml:"objects,omitempty"`
	Models     []ModelDef  `yaml:"models,omitempty"`
}

type FloorDef struct {
	Size  [2]float32 `yaml:"size"`
	Color Color      `yaml:"color"`
}

type LightDef struct {
	Type      LightType  `yaml:"type"`
	Color     Color      `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
	Position  mgl32.Vec3 `yaml:"position,omitempty"`
}

// ObjectDef is a primitive shape placed in the scene.
type ObjectDef struct {
	Name      string     `yaml:"name"`
	Shape     string     `yaml:"shape"` // "box" or "sphere"
	Size      mgl32.Vec3 `yaml:"size,omitempty"`
	Radius    float32    `yaml:"radius,omitempty"`
	Color     Color      `yaml:"color"`
	Position  mgl32.Vec3 `yaml:"position"`
	Rotation  mgl32.Vec3 `yaml:"rotation,omitempty"` // euler degrees, XYZ
	Scale     float32    `yaml:"scale,omitempty"`
	Grabbable bool       `yaml:"grabbable"`
}

// ModelDef is a .vox model loaded in the background.
type ModelDef struct {
	Name      string     `yaml:"name"`
	Path      string     `yaml:"path"`
	Position  mgl32.Vec3 `yaml:"position"`
	Rotation  mgl32.Vec3 `yaml:"rotation,omitempty"`
	Scale     float32    `yaml:"scale,omitempty"`
	VoxelSize float32    `yaml:"voxel_size,omitempty"`
	Grabbable bool       `yaml:"grabbable"`
}

// SceneSettings holds scene-wide values that are not entities.
type SceneSettings struct {
	Background Color
}

// DefaultScene is the demo room: a floor, two lights, a red cube and a model.
func DefaultScene(modelPath string) SceneDef {
	def := SceneDef{
		Background: 0x505050,
		Floor:      &FloorDef{Size: [2]float32{10, 10}, Color: 0xcccccc},
		Lights: []LightDef{
			{Type: LightTypeAmbient, Color: ColorWhite, Intensity: 0.5},
			{Type: LightTypeDirectional, Color: ColorWhite, Intensity: 0.5, Position: mgl32.Vec3{0, 5, 2}},
		},
		Objects: []ObjectDef{
			{
				Name:      "cube",
				Shape:     "box",
				Size:      mgl32.Vec3{0.3, 0.3, 0.3},
				Color:     0xff0000,
				Position:  mgl32.Vec3{1, 1.2, -1.5},
				Grabbable: true,
			},
		},
	}
	if modelPath != "" {
		def.Models = append(def.Models, ModelDef{
			Name:      "model",
			Path:      modelPath,
			Position:  mgl32.Vec3{0, 1, -1},
			Scale:     0.5,
			Grabbable: true,
		})
	}
	return def
}

func ParseScene(r io.Reader) (SceneDef, error) {
	var def SceneDef
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return def, nil
		}
		return SceneDef{}, fmt.Errorf("decode scene: %w", err)
	}
	for i, obj := range def.Objects {
		if obj.Shape != "box" && obj.Shape != "sphere" {
			return SceneDef{}, fmt.Errorf("decode scene: object %d (%s): unknown shape %q", i, obj.Name, obj.Shape)
		}
	}
	for i, m := range def.Models {
		if m.Path == "" {
			return SceneDef{}, fmt.Errorf("decode scene: model %d (%s): missing path", i, m.Name)
		}
	}
	return def, nil
}

func LoadSceneFile(path string) (SceneDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SceneDef{}, err
	}
	def, err := ParseScene(bytes.NewReader(data))
	if err != nil {
		return SceneDef{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// SpawnScene queues the scene's entities under root and starts its model
// loads. Grabbable primitives are registered right away; models register when
// their load completes.
func SpawnScene(cmd *Commands, def SceneDef, root EntityId, assets *AssetServer, registry *GrabbableRegistry) {
	if def.Floor != nil {
		size := def.Floor.Size
		SpawnNode(cmd, root, "floor", IdentityTransform().Local(),
			&ColliderComponent{Shape: ColliderBox, HalfExtents: mgl32.Vec3{size[0] / 2, 0, size[1] / 2}},
			&MaterialComponent{Color: def.Floor.Color},
		)
	}

	for i, light := range def.Lights {
		local := IdentityTransform().Local()
		local.Position = light.Position
		SpawnNode(cmd, root, fmt.Sprintf("light-%d", i), local, &LightComponent{
			Type:      light.Type,
			Color:     light.Color,
			Intensity: light.Intensity,
		})
	}

	for _, obj := range def.Objects {
		eid := SpawnNode(cmd, root, obj.Name, placementOf(obj.Position, obj.Rotation, obj.Scale),
			objectCollider(obj),
			&MaterialComponent{Color: obj.Color, EmissiveEnabled: true},
		)
		if obj.Grabbable {
			registry.Register(eid)
		}
	}

	for _, m := range def.Models {
		assets.LoadVoxModelAsync(m.Path, VoxPlacement{
			Name:      m.Name,
			Transform: placementOf(m.Position, m.Rotation, m.Scale),
			VoxelSize: m.VoxelSize,
			Grabbable: m.Grabbable,
		})
	}
}

func objectCollider(obj ObjectDef) *ColliderComponent {
	if obj.Shape == "sphere" {
		c := SphereCollider(obj.Radius)
		return &c
	}
	c := BoxCollider(obj.Size)
	return &c
}

func placementOf(position, eulerDeg mgl32.Vec3, scale float32) LocalTransformComponent {
	if scale == 0 {
		scale = 1
	}
	return LocalTransformComponent{
		Position: position,
		Rotation: mgl32.AnglesToQuat(
			mgl32.DegToRad(eulerDeg.X()),
			mgl32.DegToRad(eulerDeg.Y()),
			mgl32.DegToRad(eulerDeg.Z()),
			mgl32.XYZ,
		),
		Scale: mgl32.Vec3{scale, scale, scale},
	}
}

// SceneModule spawns a scene definition once at install time.
type SceneModule struct {
	Def SceneDef
}

func (m SceneModule) Install(app *App, cmd *Commands) {
	scene := Resource[SceneGraph](app)
	assets := Resource[AssetServer](app)
	registry := Resource[GrabbableRegistry](app)
	if scene == nil || assets == nil || registry == nil {
		panic("SceneModule requires HierarchyModule, AssetServerModule and GrabModule")
	}
	cmd.AddResources(&SceneSettings{Background: m.Def.Background})
	SpawnScene(cmd, m.Def, scene.Root, assets, registry)
}
