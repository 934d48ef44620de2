package xrgrab

import (
	"fmt"
)

type GrabState int

const (
	GrabIdle GrabState = iota
	GrabHolding
)

func (s GrabState) String() string {
	switch s {
	case GrabIdle:
		return "idle"
	case GrabHolding:
		return "holding"
	default:
		return fmt.Sprintf("GrabState(%d)", int(s))
	}
}

// ControllerComponent is the per-controller interaction state. The pose lives
// in the entity's transform; Ray names the child node drawing its pointer.
type ControllerComponent struct {
	Index     int
	Connected bool

	Selected EntityId
	Holding  bool

	Highlighted  EntityId
	Highlighting bool

	Ray EntityId
}

func (c *ControllerComponent) State() GrabState {
	if c.Holding {
		return GrabHolding
	}
	return GrabIdle
}

// GrabSettings are the visual constants of the interaction.
type GrabSettings struct {
	DefaultRayLength  float32
	MaxRayDistance    float32
	HighlightColor    Color
	HighlightOffColor Color
	ActiveRayColor    Color
	IdleRayColor      Color
}

func DefaultGrabSettings() GrabSettings {
	return GrabSettings{
		DefaultRayLength:  5,
		HighlightColor:    0xaaaaaa,
		HighlightOffColor: ColorBlack,
		ActiveRayColor:    ColorGreen,
		IdleRayColor:      ColorWhite,
	}
}

// Grabber moves grabbable entities between the world scene and controllers.
// Every method runs to completion inside one event or frame tick.
type Grabber struct {
	Registry *GrabbableRegistry
	Scene    EntityId
	Settings GrabSettings
}

func NewGrabber(registry *GrabbableRegistry, scene EntityId, settings GrabSettings) *Grabber {
	return &Grabber{
		Registry: registry,
		Scene:    scene,
		Settings: settings,
	}
}

func (g *Grabber) controller(cmd *Commands, controller EntityId) (*ControllerComponent, error) {
	c := GetComponent[ControllerComponent](cmd, controller)
	if c == nil {
		return nil, fmt.Errorf("controller entity %d: %w", controller, ErrUnknownController)
	}
	return c, nil
}

// HolderOf returns the controller currently owning eid, directly or through
// one of its ancestors.
func HolderOf(cmd *Commands, eid EntityId) (EntityId, bool) {
	current := eid
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		parent, ok := ParentOf(cmd, current)
		if !ok {
			return 0, false
		}
		if HasComponent[ControllerComponent](cmd, parent) {
			return parent, true
		}
		current = parent
	}
	return 0, false
}

// candidates are the registered entities no controller currently owns. Held
// entities are left out of the ray query itself, so a second controller can
// neither hover nor take them.
func (g *Grabber) candidates(cmd *Commands) []EntityId {
	all := g.Registry.Entities()
	res := all[:0]
	for _, eid := range all {
		if _, held := HolderOf(cmd, eid); held {
			continue
		}
		res = append(res, eid)
	}
	return res
}

// Intersections casts the controller's forward ray against the grabbable
// candidates and their descendants, nearest first.
func (g *Grabber) Intersections(cmd *Commands, controller EntityId) []Intersection {
	world, ok := WorldTransformOf(cmd, controller)
	if !ok {
		return nil
	}
	return IntersectObjects(cmd, ControllerRay(world), g.candidates(cmd), true, g.Settings.MaxRayDistance)
}

// target resolves the nearest hit to its grabbable unit.
func (g *Grabber) target(cmd *Commands, controller EntityId) (EntityId, Intersection, bool) {
	hits := g.Intersections(cmd, controller)
	if len(hits) == 0 {
		return 0, Intersection{}, false
	}
	nearest := hits[0]
	return ResolveGrabbable(cmd, g.Registry, nearest.Entity, g.Scene, controller), nearest, true
}

// SelectStart moves the controller from Idle to Holding when its ray hits a
// grabbable. It reports the grabbed entity; false leaves the controller as it was.
func (g *Grabber) SelectStart(cmd *Commands, controller EntityId) (EntityId, bool) {
	logger := cmd.Logger()

	c, err := g.controller(cmd, controller)
	if err != nil {
		logger.Warnf("select-start: %v", err)
		return 0, false
	}
	if !c.Connected || c.Holding {
		return 0, false
	}

	target, hit, ok := g.target(cmd, controller)
	if !ok {
		logger.Debugf("controller %d: select-start hit nothing", c.Index)
		return 0, false
	}
	if holder, held := HolderOf(cmd, target); held {
		logger.Debugf("controller %d: entity %d already held by %d", c.Index, target, holder)
		return 0, false
	}

	if err := Attach(cmd, target, controller); err != nil {
		logger.Warnf("controller %d: grab entity %d: %v", c.Index, target, err)
		return 0, false
	}

	g.ClearHighlight(cmd, controller)
	c.Selected = target
	c.Holding = true
	logger.Debugf("controller %d: grabbed entity %d at %.3f", c.Index, target, hit.Distance)
	return target, true
}

// SelectEnd hands the held entity back to the world scene. On an idle
// controller it does nothing.
func (g *Grabber) SelectEnd(cmd *Commands, controller EntityId) (EntityId, bool) {
	logger := cmd.Logger()

	c, err := g.controller(cmd, controller)
	if err != nil {
		logger.Warnf("select-end: %v", err)
		return 0, false
	}
	if !c.Holding {
		logger.Debugf("controller %d: select-end without selection", c.Index)
		return 0, false
	}

	released := c.Selected
	if err := Attach(cmd, released, g.Scene); err != nil {
		logger.Warnf("controller %d: release entity %d: %v", c.Index, released, err)
	}
	c.Selected = 0
	c.Holding = false
	logger.Debugf("controller %d: released entity %d", c.Index, released)
	return released, true
}

// ReleaseAll drops whatever the given controllers hold back into the scene.
func (g *Grabber) ReleaseAll(cmd *Commands, controllers []EntityId) {
	for _, controller := range controllers {
		g.SelectEnd(cmd, controller)
	}
}

// Disconnect releases the held entity where it is and stops interaction.
func (g *Grabber) Disconnect(cmd *Commands, controller EntityId) {
	c, err := g.controller(cmd, controller)
	if err != nil {
		cmd.Logger().Warnf("disconnect: %v", err)
		return
	}
	g.SelectEnd(cmd, controller)
	g.ClearHighlight(cmd, controller)
	c.Connected = false
}

func (g *Grabber) Connect(cmd *Commands, controller EntityId) {
	c, err := g.controller(cmd, controller)
	if err != nil {
		cmd.Logger().Warnf("connect: %v", err)
		return
	}
	c.Connected = true
}
