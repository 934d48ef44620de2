package xrgrab

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *grabFixture) emissive(eid EntityId) Color {
	mat := GetComponent[MaterialComponent](f.cmd, eid)
	require.NotNil(f.t, mat)
	return mat.Emissive
}

func (f *grabFixture) ray(i int) *RayVisualComponent {
	ray := GetComponent[RayVisualComponent](f.cmd, f.state(i).Ray)
	require.NotNil(f.t, ray)
	return ray
}

func TestHighlight_HoverAndClear(t *testing.T) {
	f := newGrabFixture(t)
	cube := f.box("cube", mgl32.Vec3{0, 1, -2}, 0.5)
	f.aim(0, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, -2})
	f.aim(1, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 5, 0})

	highlightSystem(f.cmd, f.grabber, f.rig)
	assert.Equal(t, Color(0xaaaaaa), f.emissive(cube))
	assert.InDelta(t, 1.75, f.ray(0).Length, epsilon, "the ray stops at the hit")
	assert.Equal(t, ColorGreen, f.ray(0).Color)
	assert.True(t, f.state(0).Highlighting)
	assert.Equal(t, cube, f.state(0).Highlighted)

	assert.Equal(t, float32(5), f.ray(1).Length)
	assert.Equal(t, ColorWhite, f.ray(1).Color)
	assert.False(t, f.state(1).Highlighting)

	// Look away: the highlight lasts exactly one frame.
	f.aim(0, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{3, 1, 0})
	highlightSystem(f.cmd, f.grabber, f.rig)
	assert.Equal(t, ColorBlack, f.emissive(cube))
	assert.Equal(t, float32(5), f.ray(0).Length)
	assert.Equal(t, ColorWhite, f.ray(0).Color)
	assert.False(t, f.state(0).Highlighting)
}

func TestHighlight_SuppressedWhileHolding(t *testing.T) {
	f := newGrabFixture(t)
	cube := f.box("cube", mgl32.Vec3{0, 1, -2}, 0.5)
	other := f.box("other", mgl32.Vec3{0, 1, -4}, 0.5)
	f.aim(0, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, -2})

	highlightSystem(f.cmd, f.grabber, f.rig)
	require.Equal(t, Color(0xaaaaaa), f.emissive(cube))

	_, ok := f.grabber.SelectStart(f.cmd, f.controller(0))
	require.True(t, ok)
	assert.Equal(t, ColorBlack, f.emissive(cube), "grabbing drops the hover highlight")

	highlightSystem(f.cmd, f.grabber, f.rig)
	assert.Equal(t, ColorBlack, f.emissive(cube))
	assert.Equal(t, ColorBlack, f.emissive(other))
	assert.Equal(t, float32(5), f.ray(0).Length)
	assert.False(t, f.state(0).Highlighting)
}

func TestHighlight_TwoControllersSameTarget(t *testing.T) {
	f := newGrabFixture(t)
	cube := f.box("cube", mgl32.Vec3{0, 1, -2}, 0.5)
	f.aim(0, mgl32.Vec3{-0.5, 1, 0}, mgl32.Vec3{0, 1, -2})
	f.aim(1, mgl32.Vec3{0.5, 1, 0}, mgl32.Vec3{0, 1, -2})

	for frame := 0; frame < 3; frame++ {
		highlightSystem(f.cmd, f.grabber, f.rig)
		assert.Equal(t, Color(0xaaaaaa), f.emissive(cube), "frame %d", frame)
		assert.True(t, f.state(0).Highlighting)
		assert.True(t, f.state(1).Highlighting)
	}

	// One controller looking away must not erase the other's highlight.
	f.aim(0, mgl32.Vec3{-0.5, 1, 0}, mgl32.Vec3{-5, 1, 0})
	highlightSystem(f.cmd, f.grabber, f.rig)
	assert.Equal(t, Color(0xaaaaaa), f.emissive(cube))
	assert.False(t, f.state(0).Highlighting)
}

func TestHighlight_WholeModelLightsUp(t *testing.T) {
	f := newGrabFixture(t)
	model := SpawnNode(f.cmd, f.root, "model", local(mgl32.Vec3{0, 1, -2}, mgl32.QuatIdent(), 1))
	collider := BoxCollider(mgl32.Vec3{0.5, 0.5, 0.5})
	front := SpawnNode(f.cmd, model, "front", IdentityTransform().Local(), &collider,
		&MaterialComponent{Color: 0x00ff00, EmissiveEnabled: true})
	back := SpawnNode(f.cmd, model, "back", local(mgl32.Vec3{0, 0, -1}, mgl32.QuatIdent(), 1), &collider,
		&MaterialComponent{Color: 0x0000ff, EmissiveEnabled: true})
	matte := SpawnNode(f.cmd, model, "matte", local(mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent(), 1),
		&MaterialComponent{Color: 0x0000ff})
	f.app.FlushCommands()
	f.grabber.Registry.Register(model)

	f.aim(0, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, -2})
	highlightSystem(f.cmd, f.grabber, f.rig)

	assert.Equal(t, model, f.state(0).Highlighted)
	assert.Equal(t, Color(0xaaaaaa), f.emissive(front))
	assert.Equal(t, Color(0xaaaaaa), f.emissive(back))
	assert.Equal(t, ColorBlack, f.emissive(matte), "materials without emissive are left alone")
}

func TestHighlight_DisconnectedControllerIdles(t *testing.T) {
	f := newGrabFixture(t)
	cube := f.box("cube", mgl32.Vec3{0, 1, -2}, 0.5)
	f.aim(0, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, -2})
	highlightSystem(f.cmd, f.grabber, f.rig)
	require.Equal(t, Color(0xaaaaaa), f.emissive(cube))

	f.grabber.Disconnect(f.cmd, f.controller(0))
	assert.Equal(t, ColorBlack, f.emissive(cube))

	highlightSystem(f.cmd, f.grabber, f.rig)
	assert.Equal(t, ColorBlack, f.emissive(cube))
	assert.Equal(t, float32(5), f.ray(0).Length)
}

func TestHighlight_RunsEachFrame(t *testing.T) {
	f := newGrabFixture(t)
	cube := f.box("cube", mgl32.Vec3{0, 1, -2}, 0.5)
	require.NoError(t, f.input.SetPose(0, mgl32.Vec3{0, 1, 0}, mgl32.QuatIdent()))

	require.True(t, f.app.Tick())
	assert.Equal(t, Color(0xaaaaaa), f.emissive(cube))

	require.NoError(t, f.input.SetPose(0, mgl32.Vec3{0, 1, 0}, LookRotation(mgl32.Vec3{0, -1, 0})))
	require.True(t, f.app.Tick())
	assert.Equal(t, ColorBlack, f.emissive(cube))
}
