package engine

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/resource"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig applies a loaded configuration: tick rate, profiling, scene worker count and
// the tree options used when rebuilding definitions. Later options override it.
//
// Parameters:
//   - cfg: the configuration, usually from resource.LoadConfig
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg resource.Config) EngineBuilderOption {
	return func(e *engine) {
		e.config = cfg
		e.engineTickRate = tickInterval(float64(cfg.Engine.TickRate))
		e.profilingEnabled.Store(cfg.Engine.Profiling)
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.engineTickRate = tickInterval(fps)
	}
}

// WithTickCallback registers the tick callback during construction.
func WithTickCallback(callback func(deltaTime float64)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithScene registers a scene at the given key during engine construction.
// Scenes are stepped in ascending key order.
//
// Parameters:
//   - key: the key determining step order (lower steps first)
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithHotReload rebuilds tree definitions reported by w against lib while the engine runs
// and reloads the characters of every scene onto the new trees. The engine closes w on
// Quit.
//
// Parameters:
//   - w: the definition watcher
//   - lib: the clips, spaces and skeleton definitions resolve against
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithHotReload(w *resource.Watcher, lib *resource.Library) EngineBuilderOption {
	return func(e *engine) {
		e.watcher = w
		e.library = lib
	}
}
