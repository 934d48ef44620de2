package xrgrab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, "xrgrab", cfg.LogPrefix)
	assert.Equal(t, 2, cfg.Controllers)
	assert.Equal(t, float32(5), cfg.RayLength)
	assert.Equal(t, 1280, cfg.WindowWidth)
	assert.Equal(t, DefaultGrabSettings(), cfg.GrabSettings())
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("XRGRAB_DEBUG", "true")
	t.Setenv("XRGRAB_CONTROLLERS", "1")
	t.Setenv("XRGRAB_RAY_LENGTH", "3.5")
	t.Setenv("XRGRAB_MAX_RAY_DISTANCE", "10")
	t.Setenv("XRGRAB_HIGHLIGHT_COLOR", "#ff00ff")
	t.Setenv("XRGRAB_IDLE_RAY_COLOR", "0x808080")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 1, cfg.Controllers)

	settings := cfg.GrabSettings()
	assert.Equal(t, float32(3.5), settings.DefaultRayLength)
	assert.Equal(t, float32(10), settings.MaxRayDistance)
	assert.Equal(t, Color(0xff00ff), settings.HighlightColor)
	assert.Equal(t, Color(0x808080), settings.IdleRayColor)
	assert.Equal(t, ColorGreen, settings.ActiveRayColor)
	assert.Equal(t, ColorBlack, settings.HighlightOffColor)
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Run("color", func(t *testing.T) {
		t.Setenv("XRGRAB_HIGHLIGHT_COLOR", "grey")
		_, err := LoadConfigFromEnv()
		assert.ErrorContains(t, err, "parse env")
	})
	t.Run("controllers", func(t *testing.T) {
		t.Setenv("XRGRAB_CONTROLLERS", "0")
		_, err := LoadConfigFromEnv()
		assert.Error(t, err)
	})
	t.Run("number", func(t *testing.T) {
		t.Setenv("XRGRAB_RAY_LENGTH", "far")
		_, err := LoadConfigFromEnv()
		assert.Error(t, err)
	})
}

func TestConfig_Scene(t *testing.T) {
	cfg := Config{ModelPath: "robot.vox"}
	def, err := cfg.Scene()
	require.NoError(t, err)
	require.Len(t, def.Models, 1)
	assert.Equal(t, "robot.vox", def.Models[0].Path)

	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSceneYAML), 0o644))
	cfg.ScenePath = path
	def, err = cfg.Scene()
	require.NoError(t, err)
	assert.Len(t, def.Objects, 3)
}

func TestConfig_ModulesBuildAnApp(t *testing.T) {
	t.Setenv("XRGRAB_CONTROLLERS", "3")
	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	app := NewAppBuilder().
		UseStates(SessionLoading, SessionEnded).
		UseModule(cfg.Modules()...).
		UseModule(SceneModule{Def: DefaultScene("")}).
		Build()
	app.FlushCommands()

	require.NotNil(t, Resource[XRRig](app))
	assert.Len(t, Resource[XRRig](app).Controllers, 3)
	assert.Equal(t, 1, Resource[GrabbableRegistry](app).Len())

	require.True(t, app.Tick())
	assert.Equal(t, SessionRunning, app.State())
}
