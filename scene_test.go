package xrgrab

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSceneYAML = `
background: "#202020"
floor:
  size: [4, 6]
  color: 0x336633
lights:
  - type: ambient
    color: "#ffffff"
    intensity: 0.4
  - type: directional
    color: 0xffeecc
    intensity: 0.8
    position: [1, 4, 2]
objects:
  - name: crate
    shape: box
    size: [0.5, 0.5, 0.5]
    color: "#884400"
    position: [0, 1, -2]
    rotation: [0, 90, 0]
    grabbable: true
  - name: ball
    shape: sphere
    radius: 0.2
    color: 0x0000ff
    position: [1, 1, -2]
  - name: pillar
    shape: box
    size: [0.2, 2, 0.2]
    color: 0x999999
    position: [-1, 1, -2]
models:
  - name: robot
    path: robot.vox
    position: [0, 0.5, -3]
    scale: 2
    voxel_size: 0.05
    grabbable: true
`

func TestParseScene(t *testing.T) {
	def, err := ParseScene(strings.NewReader(testSceneYAML))
	require.NoError(t, err)

	assert.Equal(t, Color(0x202020), def.Background)
	require.NotNil(t, def.Floor)
	assert.Equal(t, [2]float32{4, 6}, def.Floor.Size)
	assert.Equal(t, Color(0x336633), def.Floor.Color)

	require.Len(t, def.Lights, 2)
	assert.Equal(t, LightTypeAmbient, def.Lights[0].Type)
	assert.Equal(t, LightTypeDirectional, def.Lights[1].Type)
	assert.Equal(t, Color(0xffeecc), def.Lights[1].Color)
	assert.Equal(t, mgl32.Vec3{1, 4, 2}, def.Lights[1].Position)

	require.Len(t, def.Objects, 3)
	assert.Equal(t, "crate", def.Objects[0].Name)
	assert.True(t, def.Objects[0].Grabbable)
	assert.Equal(t, mgl32.Vec3{0, 90, 0}, def.Objects[0].Rotation)
	assert.Equal(t, "sphere", def.Objects[1].Shape)
	assert.Equal(t, float32(0.2), def.Objects[1].Radius)
	assert.False(t, def.Objects[2].Grabbable)

	require.Len(t, def.Models, 1)
	assert.Equal(t, "robot.vox", def.Models[0].Path)
	assert.Equal(t, float32(0.05), def.Models[0].VoxelSize)
}

func TestParseScene_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown shape": "objects:\n  - name: x\n    shape: cone\n",
		"missing path":  "models:\n  - name: m\n",
		"unknown field": "backgroud: 0x000000\n",
		"bad color":     "background: purple\n",
		"bad light":     "lights:\n  - type: laser\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScene(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}

	def, err := ParseScene(strings.NewReader(""))
	require.NoError(t, err, "an empty file is an empty scene")
	assert.Empty(t, def.Objects)
}

func TestLoadSceneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSceneYAML), 0o644))

	def, err := LoadSceneFile(path)
	require.NoError(t, err)
	assert.Len(t, def.Objects, 3)

	_, err = LoadSceneFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultScene(t *testing.T) {
	def := DefaultScene("")
	assert.Equal(t, Color(0x505050), def.Background)
	require.Len(t, def.Objects, 1)
	cube := def.Objects[0]
	assert.True(t, cube.Grabbable)
	assert.Equal(t, mgl32.Vec3{1, 1.2, -1.5}, cube.Position)
	assert.Empty(t, def.Models)

	def = DefaultScene("robot.vox")
	require.Len(t, def.Models, 1)
	assert.True(t, def.Models[0].Grabbable)
}

func TestSpawnScene(t *testing.T) {
	app, logs := newAssetApp(t)
	cmd := app.Commands()
	def, err := ParseScene(strings.NewReader(testSceneYAML))
	require.NoError(t, err)
	def.Models[0].Path = writeVox(t, twoPartVox())

	app.UseModules(SceneModule{Def: def})
	app.FlushCommands()

	settings := Resource[SceneSettings](app)
	require.NotNil(t, settings)
	assert.Equal(t, Color(0x202020), settings.Background)

	byName := map[string]EntityId{}
	MakeQuery1[NameComponent](cmd).Map(func(eid EntityId, n *NameComponent) bool {
		byName[n.Name] = eid
		return true
	})
	for _, name := range []string{"floor", "light-0", "light-1", "crate", "ball", "pillar"} {
		assert.Contains(t, byName, name)
	}

	registry := Resource[GrabbableRegistry](app)
	assert.Equal(t, []EntityId{byName["crate"]}, registry.Entities(), "models register once loaded")

	floorMat := GetComponent[MaterialComponent](cmd, byName["floor"])
	require.NotNil(t, floorMat)
	assert.False(t, floorMat.EmissiveEnabled, "the floor never highlights")

	light := GetComponent[LightComponent](cmd, byName["light-1"])
	require.NotNil(t, light)
	assert.Equal(t, float32(0.8), light.Intensity)

	ball := GetComponent[ColliderComponent](cmd, byName["ball"])
	require.NotNil(t, ball)
	assert.Equal(t, ColliderSphere, ball.Shape)

	crate, ok := WorldTransformOf(cmd, byName["crate"])
	require.True(t, ok)
	assertQuatNear(t, mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}), crate.Rotation)

	assets := Resource[AssetServer](app)
	assets.Wait()
	require.True(t, app.Tick())
	assert.Equal(t, 2, registry.Len(), "the model joined after loading")
	assert.Contains(t, logs.String(), "loaded model")
}

func TestSceneModule_RequiresDependencies(t *testing.T) {
	assert.Panics(t, func() {
		NewApp().UseModules(HierarchyModule{}, SceneModule{Def: DefaultScene("")})
	})
}
