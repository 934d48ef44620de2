package xrgrab

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read from XRGRAB_* variables.
type Config struct {
	Debug       bool   `env:"XRGRAB_DEBUG"`
	LogPrefix   string `env:"XRGRAB_LOG_PREFIX" envDefault:"xrgrab"`
	ScenePath   string `env:"XRGRAB_SCENE"`
	ModelPath   string `env:"XRGRAB_MODEL"`
	Controllers int    `env:"XRGRAB_CONTROLLERS" envDefault:"2"`

	RayLength      float32 `env:"XRGRAB_RAY_LENGTH"       envDefault:"5"`
	MaxRayDistance float32 `env:"XRGRAB_MAX_RAY_DISTANCE" envDefault:"0"`
	HighlightColor Color   `env:"XRGRAB_HIGHLIGHT_COLOR"  envDefault:"0xaaaaaa"`
	ActiveRayColor Color   `env:"XRGRAB_ACTIVE_RAY_COLOR" envDefault:"0x00ff00"`
	IdleRayColor   Color   `env:"XRGRAB_IDLE_RAY_COLOR"   envDefault:"0xffffff"`

	WindowWidth  int `env:"XRGRAB_WINDOW_WIDTH"  envDefault:"1280"`
	WindowHeight int `env:"XRGRAB_WINDOW_HEIGHT" envDefault:"720"`
}

func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Controllers <= 0 {
		return Config{}, fmt.Errorf("parse env: XRGRAB_CONTROLLERS must be positive, got %d", cfg.Controllers)
	}
	return cfg, nil
}

func (cfg Config) GrabSettings() GrabSettings {
	settings := DefaultGrabSettings()
	settings.DefaultRayLength = cfg.RayLength
	settings.MaxRayDistance = cfg.MaxRayDistance
	settings.HighlightColor = cfg.HighlightColor
	settings.ActiveRayColor = cfg.ActiveRayColor
	settings.IdleRayColor = cfg.IdleRayColor
	return settings
}

// Scene loads the configured scene file, or the default room with the
// configured model.
func (cfg Config) Scene() (SceneDef, error) {
	if cfg.ScenePath != "" {
		return LoadSceneFile(cfg.ScenePath)
	}
	return DefaultScene(cfg.ModelPath), nil
}

// Modules returns the engine modules the configuration selects, in install order.
func (cfg Config) Modules() []Module {
	return []Module{
		LoggingModule{Prefix: cfg.LogPrefix, Debug: cfg.Debug},
		TimeModule{},
		HierarchyModule{},
		AssetServerModule{},
		GrabModule{Settings: cfg.GrabSettings()},
		XRModule{Controllers: cfg.Controllers, RayLength: cfg.RayLength},
	}
}
