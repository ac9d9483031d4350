package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/config"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/pack"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gl/engine/scene"
	"github.com/Carmen-Shannon/oxy-gl/engine/states"
	"github.com/Carmen-Shannon/oxy-gl/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig applies a loaded configuration: window size and title, render settings, game
// package, shader hot reload and frame limit. The logger is not installed; build it with
// cfg.Logger and pass it to common.SetLogger.
//
// Parameters:
//   - cfg: the configuration, usually from config.Load
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
		e.renderFrameLimit = frameDuration(float64(cfg.Window.FrameLimit))
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
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. The engine does not close a window it did not create.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDevice sets the device instead of initializing OpenGL on the window's context.
//
// Parameters:
//   - d: the device
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(d gpu.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = d
	}
}

// WithPackage sets an opened game package. The engine does not close it.
//
// Parameters:
//   - pkg: the package
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPackage(pkg pack.Package) EngineBuilderOption {
	return func(e *engine) {
		e.pkg = pkg
	}
}

// WithStates shares render settings with the engine instead of building them from the config.
//
// Parameters:
//   - s: the settings
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStates(s *states.States) EngineBuilderOption {
	return func(e *engine) {
		e.states = s
	}
}

// WithShaderLoader overrides where the engine shaders come from.
//
// Parameters:
//   - loader: the loader attaching the main and effects sources
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderLoader(loader renderer.ShaderLoader) EngineBuilderOption {
	return func(e *engine) {
		e.shaders = loader
	}
}

// WithCamera sets the camera installed in the graphic engine at start.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithDebugKeys binds the debug keys: Esc quits, 0-9 select the G-buffer viewer channel, M toggles
// the render mode and F cycles the post-process filter.
//
// Parameters:
//   - enabled: true to bind the keys
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDebugKeys(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.debugKeys = enabled
	}
}

// WithScene registers a scene at the given z-index key during engine construction.
// Scenes are rendered in ascending key order during the render loop.
//
// Parameters:
//   - key: the z-index determining render order (lower renders first)
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}
