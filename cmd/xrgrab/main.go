// Command xrgrab runs the grab interaction scene with the desktop controller
// emulator.
package main

import (
	"fmt"
	"os"

	"github.com/gekko3d/xrgrab"
	"github.com/gekko3d/xrgrab/desktop"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "xrgrab: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := xrgrab.LoadConfigFromEnv()
	if err != nil {
		return err
	}

	scene, err := cfg.Scene()
	if err != nil {
		return err
	}

	window, err := desktop.CreateWindow(cfg.WindowWidth, cfg.WindowHeight, "xrgrab")
	if err != nil {
		return err
	}
	defer window.Destroy()

	modules := cfg.Modules()
	modules = append(modules,
		xrgrab.SceneModule{Def: scene},
		desktop.EmulatorModule{Window: window},
	)

	app := xrgrab.NewAppBuilder().
		UseStates(xrgrab.SessionLoading, xrgrab.SessionEnded).
		UseModule(modules...).
		Build()

	app.Run(window)
	return nil
}
