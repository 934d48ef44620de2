package xrgrab

// GrabModule installs the grabbable registry, the Grabber and the per-frame
// highlight pass. It needs HierarchyModule installed before it; the highlight
// pass reads the controllers from XRModule's rig.
type GrabModule struct {
	Settings GrabSettings
}

func (m GrabModule) Install(app *App, cmd *Commands) {
	scene := Resource[SceneGraph](app)
	if scene == nil {
		panic("GrabModule requires HierarchyModule")
	}

	settings := m.Settings
	if settings == (GrabSettings{}) {
		settings = DefaultGrabSettings()
	}

	registry := NewGrabbableRegistry()
	cmd.AddResources(registry, NewGrabber(registry, scene.Root, settings))

	if app.stateful {
		app.UseSystem(
			System(highlightSystem).
				InStage(PreRender).
				InState(OnExecute(SessionRunning)),
		)
		app.UseSystem(
			System(clearHighlightSystem).
				InStage(PreRender).
				InState(OnExit(SessionRunning)),
		)
	} else {
		app.UseSystem(
			System(highlightSystem).
				InStage(PreRender).
				RunAlways(),
		)
	}
}

func clearHighlightSystem(cmd *Commands, grabber *Grabber, rig *XRRig) {
	for _, controller := range rig.Controllers {
		grabber.ClearHighlight(cmd, controller)
	}
}
