package xrgrab

// MaterialComponent is the surface colour of a renderable node. Emissive is
// what the hover highlight toggles.
type MaterialComponent struct {
	Color           Color
	Emissive        Color
	EmissiveEnabled bool
}

// RayVisualComponent is the pointer line drawn from a controller along its
// forward axis.
type RayVisualComponent struct {
	Length float32
	Color  Color
}

// setEmissive writes the emissive colour on the node and its descendants whose
// material supports it. It reports whether any material changed.
func setEmissive(cmd *Commands, eid EntityId, color Color) bool {
	children := childIndex(cmd)
	changed := false
	stack := []EntityId{eid}
	visited := make(set[EntityId])
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		if mat := GetComponent[MaterialComponent](cmd, current); mat != nil && mat.EmissiveEnabled {
			mat.Emissive = color
			changed = true
		}
		stack = append(stack, children[current]...)
	}
	return changed
}

// ClearHighlight undoes the controller's highlight from the previous frame.
func (g *Grabber) ClearHighlight(cmd *Commands, controller EntityId) {
	c := GetComponent[ControllerComponent](cmd, controller)
	if c == nil || !c.Highlighting {
		return
	}
	setEmissive(cmd, c.Highlighted, g.Settings.HighlightOffColor)
	c.Highlighted = 0
	c.Highlighting = false
}

// UpdateHighlight resets the controller's ray and, when idle, highlights the
// grabbable the ray points at and shortens the ray to the hit.
func (g *Grabber) UpdateHighlight(cmd *Commands, controller EntityId) {
	c := GetComponent[ControllerComponent](cmd, controller)
	if c == nil {
		return
	}
	ray := GetComponent[RayVisualComponent](cmd, c.Ray)
	if ray != nil {
		ray.Length = g.Settings.DefaultRayLength
	}
	if !c.Connected || c.Holding {
		return
	}

	target, hit, ok := g.target(cmd, controller)
	if !ok {
		if ray != nil {
			ray.Color = g.Settings.IdleRayColor
		}
		return
	}

	if setEmissive(cmd, target, g.Settings.HighlightColor) {
		c.Highlighted = target
		c.Highlighting = true
	}
	if ray != nil {
		ray.Length = hit.Distance
		ray.Color = g.Settings.ActiveRayColor
	}
}

// HighlightPass runs the per-frame pass for a single controller.
func (g *Grabber) HighlightPass(cmd *Commands, controller EntityId) {
	g.ClearHighlight(cmd, controller)
	g.UpdateHighlight(cmd, controller)
}

// highlightSystem clears every controller before recomputing any of them, so
// one controller's cleanup never erases another's fresh highlight.
func highlightSystem(cmd *Commands, grabber *Grabber, rig *XRRig) {
	for _, controller := range rig.Controllers {
		grabber.ClearHighlight(cmd, controller)
	}
	for _, controller := range rig.Controllers {
		grabber.UpdateHighlight(cmd, controller)
	}
}
