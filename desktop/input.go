package desktop

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	Key1 int = iota
	Key2
	KeyEscape
	KeyF5
	KeySpace
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
	keyCount
)

type Input struct {
	Pressed [keyCount]bool

	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY            float64
	WindowWidth, WindowHeight int
}

// press records the current state of one key and derives its edges.
func (input *Input) press(key int, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

// inputSystem samples keyboard and mouse. Events were polled by the window
// when the frame started.
func inputSystem(s *WindowState, input *Input) {
	for key, glfwKey := range keyToGlfw {
		input.press(key, s.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
	for btn, glfwBtn := range buttonToGlfw {
		input.press(btn, s.windowGlfw.GetMouseButton(glfwBtn) == glfw.Press)
	}

	input.MouseX, input.MouseY = s.windowGlfw.GetCursorPos()
	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetSize()
}

var keyToGlfw = map[int]glfw.Key{
	Key1:      glfw.Key1,
	Key2:      glfw.Key2,
	KeyEscape: glfw.KeyEscape,
	KeyF5:     glfw.KeyF5,
	KeySpace:  glfw.KeySpace,
}

var buttonToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}
