package desktop

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/xrgrab"
)

// EmulatorModule maps the mouse onto the XR controllers. Both hands aim at the
// point under the cursor; the left button is controller 0's trigger and the
// right button controller 1's. Keys 1 and 2 toggle a controller's connection,
// F5 writes a scene snapshot and Escape ends the session.
type EmulatorModule struct {
	Window *WindowState
	// Head is where the viewer stands; hands hang below and to its sides.
	Head         mgl32.Vec3
	FieldOfView  float32
	ReachDepth   float32
	SnapshotPath string
}

type emulator struct {
	head         mgl32.Vec3
	hands        []mgl32.Vec3
	fov          float32
	reach        float32
	snapshotPath string
	connected    []bool
	ended        bool
}

func (m EmulatorModule) Install(app *xrgrab.App, cmd *xrgrab.Commands) {
	if m.Window == nil {
		panic("EmulatorModule requires a window")
	}
	head := m.Head
	if head == (mgl32.Vec3{}) {
		head = mgl32.Vec3{0, 1.6, 3}
	}
	fov := m.FieldOfView
	if fov <= 0 {
		fov = 75
	}
	reach := m.ReachDepth
	if reach <= 0 {
		reach = 4
	}
	snapshot := m.SnapshotPath
	if snapshot == "" {
		snapshot = "xrgrab-snapshot.json"
	}

	cmd.AddResources(m.Window, &Input{}, &emulator{
		head:         head,
		hands:        []mgl32.Vec3{head.Add(mgl32.Vec3{0.2, -0.4, -0.3}), head.Add(mgl32.Vec3{-0.2, -0.4, -0.3})},
		fov:          mgl32.DegToRad(fov),
		reach:        reach,
		snapshotPath: snapshot,
		connected:    []bool{true, true},
	})

	app.UseSystem(
		xrgrab.System(inputSystem).
			InStage(xrgrab.Prelude).
			RunAlways(),
	)
	useEmulation(app)
	app.UseSystem(
		xrgrab.System(windowTitleSystem).
			InStage(xrgrab.PostRender).
			RunAlways(),
	)
}

// useEmulation feeds the emulated controllers in Prelude, after the window
// input is read and before the XR module copies poses onto the rig.
func useEmulation(app *xrgrab.App) {
	app.UseSystem(
		xrgrab.System(emulateControllersSystem).
			InStage(xrgrab.Prelude).
			RunAlways(),
	)
}

// cursorDirection turns the cursor position into a view direction from the head.
func (e *emulator) cursorDirection(input *Input) mgl32.Vec3 {
	if input.WindowWidth <= 0 || input.WindowHeight <= 0 {
		return xrgrab.Forward
	}
	nx := float32(input.MouseX/float64(input.WindowWidth))*2 - 1
	ny := float32(input.MouseY/float64(input.WindowHeight))*2 - 1
	aspect := float32(input.WindowWidth) / float32(input.WindowHeight)

	yaw := -nx * e.fov * aspect / 2
	pitch := -ny * e.fov / 2
	rot := mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0}).Mul(mgl32.QuatRotate(pitch, mgl32.Vec3{1, 0, 0}))
	return rot.Rotate(xrgrab.Forward)
}

func emulateControllersSystem(cmd *xrgrab.Commands, input *Input, xr *xrgrab.XRInput, em *emulator) {
	logger := cmd.Logger()
	target := em.head.Add(em.cursorDirection(input).Mul(em.reach))

	for i := 0; i < xr.Controllers() && i < len(em.hands); i++ {
		hand := em.hands[i]
		if err := xr.SetPose(i, hand, xrgrab.LookRotation(target.Sub(hand))); err != nil {
			logger.Warnf("emulator: %v", err)
		}
	}

	triggers := []int{MouseButtonLeft, MouseButtonRight}
	for i, btn := range triggers {
		if input.JustPressed[btn] {
			xr.SelectStart(i)
		}
		if input.JustReleased[btn] {
			xr.SelectEnd(i)
		}
	}

	for i, key := range []int{Key1, Key2} {
		if !input.JustPressed[key] || i >= len(em.connected) {
			continue
		}
		em.connected[i] = !em.connected[i]
		if em.connected[i] {
			xr.Connect(i)
		} else {
			xr.Disconnect(i)
		}
	}

	if input.JustPressed[KeyF5] {
		if err := writeSnapshot(cmd, em.snapshotPath); err != nil {
			logger.Errorf("snapshot: %v", err)
		} else {
			logger.Infof("snapshot written to %s", em.snapshotPath)
		}
	}

	if input.JustPressed[KeyEscape] && !em.ended {
		em.ended = true
		xr.EndSession()
	}
}

func writeSnapshot(cmd *xrgrab.Commands, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := xrgrab.SaveSnapshot(cmd, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// windowTitleSystem shows what each controller is doing in the title bar.
func windowTitleSystem(cmd *xrgrab.Commands, s *WindowState, rig *xrgrab.XRRig) {
	parts := []string{"xrgrab"}
	for _, eid := range rig.Controllers {
		c := xrgrab.GetComponent[xrgrab.ControllerComponent](cmd, eid)
		if c == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%d %s]", c.Index, describeController(cmd, c)))
	}
	s.SetTitle(strings.Join(parts, " "))
}

func describeController(cmd *xrgrab.Commands, c *xrgrab.ControllerComponent) string {
	switch {
	case !c.Connected:
		return "disconnected"
	case c.Holding:
		return "holding " + entityName(cmd, c.Selected)
	case c.Highlighting:
		return "pointing at " + entityName(cmd, c.Highlighted)
	default:
		return c.State().String()
	}
}

func entityName(cmd *xrgrab.Commands, eid xrgrab.EntityId) string {
	if name := xrgrab.GetComponent[xrgrab.NameComponent](cmd, eid); name != nil && name.Name != "" {
		return name.Name
	}
	return fmt.Sprintf("#%d", eid)
}
