package desktop

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/xrgrab"
)

func TestCursorDirection(t *testing.T) {
	em := &emulator{fov: mgl32.DegToRad(90)}

	centre := &Input{MouseX: 400, MouseY: 300, WindowWidth: 800, WindowHeight: 600}
	ahead := em.cursorDirection(centre)
	assert.InDeltaSlice(t, xrgrab.Forward[:], ahead[:], 1e-5)

	right := &Input{MouseX: 800, MouseY: 300, WindowWidth: 800, WindowHeight: 600}
	assert.Greater(t, em.cursorDirection(right).X(), float32(0), "cursor right looks right")

	top := &Input{MouseX: 400, MouseY: 0, WindowWidth: 800, WindowHeight: 600}
	assert.Greater(t, em.cursorDirection(top).Y(), float32(0), "cursor at the top looks up")

	assert.Equal(t, xrgrab.Forward, em.cursorDirection(&Input{}), "no window size yet")
}

func TestEmulateControllers(t *testing.T) {
	app := xrgrab.NewApp()
	cmd := app.Commands()
	xr := xrgrab.NewXRInput(2)
	em := &emulator{
		head:      mgl32.Vec3{0, 1.6, 3},
		hands:     []mgl32.Vec3{{0.2, 1.2, 2.7}, {-0.2, 1.2, 2.7}},
		fov:       mgl32.DegToRad(75),
		reach:     4,
		connected: []bool{true, true},
	}

	input := &Input{MouseX: 640, MouseY: 360, WindowWidth: 1280, WindowHeight: 720}
	input.JustPressed[MouseButtonRight] = true
	input.JustPressed[Key1] = true
	input.JustPressed[KeyEscape] = true
	emulateControllersSystem(cmd, input, xr, em)

	pose, _ := xr.Pose(0)
	assert.Equal(t, em.hands[0], pose.Position)
	target := em.head.Add(xrgrab.Forward.Mul(4))
	dir := pose.Rotation.Rotate(xrgrab.Forward)
	want := target.Sub(em.hands[0]).Normalize()
	assert.InDeltaSlice(t, want[:], dir[:], 1e-4)

	assert.Equal(t, []xrgrab.XREvent{
		{Kind: xrgrab.SelectStartEvent, Controller: 1},
		{Kind: xrgrab.ControllerDisconnectedEvent, Controller: 0},
		{Kind: xrgrab.SessionEndEvent},
	}, xr.Drain())

	// Escape only ends the session once.
	emulateControllersSystem(cmd, input, xr, em)
	events := xr.Drain()
	assert.NotContains(t, events, xrgrab.XREvent{Kind: xrgrab.SessionEndEvent})
}

type headlessEmulator struct {
	em    *emulator
	input *Input
}

func (m headlessEmulator) Install(app *xrgrab.App, cmd *xrgrab.Commands) {
	cmd.AddResources(m.input, m.em)
	useEmulation(app)
}

func TestEmulation_PosesLandInTheSameFrame(t *testing.T) {
	em := &emulator{
		head:      mgl32.Vec3{0, 1.6, 3},
		hands:     []mgl32.Vec3{{0.2, 1.2, 2.7}, {-0.2, 1.2, 2.7}},
		fov:       mgl32.DegToRad(75),
		reach:     4,
		connected: []bool{true, true},
	}
	// The emulator is installed last, as in the desktop binary.
	app := xrgrab.NewApp()
	app.UseModules(
		xrgrab.HierarchyModule{},
		xrgrab.GrabModule{},
		xrgrab.XRModule{Controllers: 2},
		headlessEmulator{em: em, input: &Input{WindowWidth: 800, WindowHeight: 600}},
	)
	app.FlushCommands()
	cmd := app.Commands()
	rig := xrgrab.Resource[xrgrab.XRRig](app)
	require.NotNil(t, rig)

	require.True(t, app.Tick())
	for i, eid := range rig.Controllers {
		world, ok := xrgrab.WorldTransformOf(cmd, eid)
		require.True(t, ok)
		assert.InDeltaSlice(t, em.hands[i][:], world.Position[:], 1e-5, "controller %d", i)
	}
}
