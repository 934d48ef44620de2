// Package desktop drives the grab interaction from a desktop window: the mouse
// stands in for tracked controllers when no headset is attached.
package desktop

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/xrgrab"
)

// WindowState owns the GLFW window. It is also the app's frame driver.
type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

// CreateWindow opens a window without a client API; nothing is rendered into
// it, it only collects input. Call it from the main goroutine.
func CreateWindow(width, height int, title string) (*WindowState, error) {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "xrgrab"
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  width,
		WindowHeight: height,
		windowTitle:  title,
	}, nil
}

// Next polls window events and reports whether the window is still open.
func (s *WindowState) Next() bool {
	glfw.PollEvents()
	s.WindowWidth, s.WindowHeight = s.windowGlfw.GetSize()
	return !s.windowGlfw.ShouldClose()
}

func (s *WindowState) SetTitle(title string) {
	if title == s.windowTitle {
		return
	}
	s.windowTitle = title
	s.windowGlfw.SetTitle(title)
}

func (s *WindowState) Destroy() {
	s.windowGlfw.Destroy()
	glfw.Terminate()
}

var _ xrgrab.FrameDriver = (*WindowState)(nil)
