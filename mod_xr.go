package xrgrab

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Session states of a stateful XR app.
const (
	SessionLoading State = iota
	SessionRunning
	SessionEnded
)

type XREventKind int

const (
	SelectStartEvent XREventKind = iota
	SelectEndEvent
	ControllerConnectedEvent
	ControllerDisconnectedEvent
	SessionEndEvent
)

func (k XREventKind) String() string {
	switch k {
	case SelectStartEvent:
		return "select-start"
	case SelectEndEvent:
		return "select-end"
	case ControllerConnectedEvent:
		return "connected"
	case ControllerDisconnectedEvent:
		return "disconnected"
	case SessionEndEvent:
		return "session-end"
	default:
		return fmt.Sprintf("XREventKind(%d)", int(k))
	}
}

type XREvent struct {
	Kind       XREventKind
	Controller int
}

type ControllerPose struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// XRInput is where the host runtime drops controller poses and input events.
// It may be written from the runtime's own goroutine; the frame tick drains it.
type XRInput struct {
	mu     sync.Mutex
	poses  []ControllerPose
	events []XREvent
}

func NewXRInput(controllers int) *XRInput {
	poses := make([]ControllerPose, controllers)
	for i := range poses {
		poses[i].Rotation = mgl32.QuatIdent()
	}
	return &XRInput{poses: poses}
}

func (in *XRInput) Controllers() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.poses)
}

func (in *XRInput) SetPose(controller int, position mgl32.Vec3, rotation mgl32.Quat) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if controller < 0 || controller >= len(in.poses) {
		return fmt.Errorf("pose for controller %d: %w", controller, ErrUnknownController)
	}
	in.poses[controller] = ControllerPose{Position: position, Rotation: rotation.Normalize()}
	return nil
}

func (in *XRInput) Pose(controller int) (ControllerPose, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if controller < 0 || controller >= len(in.poses) {
		return ControllerPose{}, false
	}
	return in.poses[controller], true
}

func (in *XRInput) Push(ev XREvent) {
	in.mu.Lock()
	in.events = append(in.events, ev)
	in.mu.Unlock()
}

func (in *XRInput) SelectStart(controller int) {
	in.Push(XREvent{Kind: SelectStartEvent, Controller: controller})
}

func (in *XRInput) SelectEnd(controller int) {
	in.Push(XREvent{Kind: SelectEndEvent, Controller: controller})
}

func (in *XRInput) Connect(controller int) {
	in.Push(XREvent{Kind: ControllerConnectedEvent, Controller: controller})
}

func (in *XRInput) Disconnect(controller int) {
	in.Push(XREvent{Kind: ControllerDisconnectedEvent, Controller: controller})
}

func (in *XRInput) EndSession() {
	in.Push(XREvent{Kind: SessionEndEvent})
}

// Drain hands over the queued events in arrival order.
func (in *XRInput) Drain() []XREvent {
	in.mu.Lock()
	defer in.mu.Unlock()
	events := in.events
	in.events = nil
	return events
}

// XRRig lists the controller entities by controller index.
type XRRig struct {
	Controllers []EntityId
}

func (rig *XRRig) Controller(index int) (EntityId, bool) {
	if index < 0 || index >= len(rig.Controllers) {
		return 0, false
	}
	return rig.Controllers[index], true
}

type XRModule struct {
	Controllers int
	RayLength   float32
}

func (m XRModule) Install(app *App, cmd *Commands) {
	scene := Resource[SceneGraph](app)
	if scene == nil {
		panic("XRModule requires HierarchyModule")
	}

	count := m.Controllers
	if count <= 0 {
		count = 2
	}
	rayLength := m.RayLength
	if rayLength <= 0 {
		rayLength = DefaultGrabSettings().DefaultRayLength
	}

	rig := &XRRig{}
	for i := 0; i < count; i++ {
		rig.Controllers = append(rig.Controllers, SpawnController(cmd, scene.Root, i, rayLength))
	}
	cmd.AddResources(NewXRInput(count), rig)

	app.UseSystem(
		System(xrPoseSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(xrEventSystem).
			InStage(Update).
			RunAlways(),
	)
	if app.stateful {
		app.UseSystem(
			System(xrSessionReadySystem).
				InStage(PostUpdate).
				InState(OnExecute(SessionLoading)),
		)
		app.UseSystem(
			System(xrSessionEndSystem).
				InStage(Finale).
				InState(OnExit(SessionRunning)),
		)
	}
}

// SpawnController queues a controller node with its ray visual child.
func SpawnController(cmd *Commands, parent EntityId, index int, rayLength float32) EntityId {
	identity := IdentityTransform().Local()
	controller := &ControllerComponent{Index: index, Connected: true}
	eid := SpawnNode(cmd, parent, fmt.Sprintf("controller-%d", index), identity, controller)
	// Components are copied into storage on flush, so the ray id still lands.
	controller.Ray = SpawnNode(cmd, eid, "ray", identity, &RayVisualComponent{
		Length: rayLength,
		Color:  ColorWhite,
	})
	return eid
}

// xrPoseSystem copies the runtime poses onto the connected controllers.
// Controllers hang directly under the scene root, so the pose is the local pose.
func xrPoseSystem(cmd *Commands, input *XRInput, rig *XRRig) {
	for i, eid := range rig.Controllers {
		c := GetComponent[ControllerComponent](cmd, eid)
		local := GetComponent[LocalTransformComponent](cmd, eid)
		if c == nil || local == nil || !c.Connected {
			continue
		}
		pose, ok := input.Pose(i)
		if !ok {
			continue
		}
		local.Position = pose.Position
		local.Rotation = pose.Rotation
	}
}

// xrEventSystem applies queued input events one at a time in arrival order.
func xrEventSystem(cmd *Commands, input *XRInput, rig *XRRig, grabber *Grabber) {
	interactive := !cmd.app.stateful || cmd.CurrentState() == SessionRunning
	logger := cmd.Logger()

	for _, ev := range input.Drain() {
		if ev.Kind == SessionEndEvent {
			if cmd.app.stateful {
				cmd.ChangeState(SessionEnded)
			} else {
				grabber.ReleaseAll(cmd, rig.Controllers)
			}
			continue
		}

		controller, ok := rig.Controller(ev.Controller)
		if !ok {
			logger.Warnf("%s event for controller %d: %v", ev.Kind, ev.Controller, ErrUnknownController)
			continue
		}

		switch ev.Kind {
		case SelectStartEvent:
			if !interactive {
				logger.Debugf("controller %d: select-start dropped, session not running", ev.Controller)
				continue
			}
			grabber.SelectStart(cmd, controller)
		case SelectEndEvent:
			grabber.SelectEnd(cmd, controller)
		case ControllerConnectedEvent:
			grabber.Connect(cmd, controller)
		case ControllerDisconnectedEvent:
			grabber.Disconnect(cmd, controller)
		}
	}
}

func xrSessionReadySystem(cmd *Commands, assets *AssetServer, t *Time) {
	if assets.Pending() > 0 {
		return
	}
	cmd.Logger().Infof("session running after %d frames", t.Frame)
	cmd.ChangeState(SessionRunning)
}

func xrSessionEndSystem(cmd *Commands, rig *XRRig, grabber *Grabber) {
	grabber.ReleaseAll(cmd, rig.Controllers)
	cmd.Logger().Infof("session ended")
}
