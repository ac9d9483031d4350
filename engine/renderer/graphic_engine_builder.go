package renderer

import (
	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gl/engine/message"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/renders"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/states"
)

// GraphicEngineBuilderOption is a functional option applied to a graphic engine during construction
// via NewGraphicEngine.
type GraphicEngineBuilderOption func(*graphicEngine)

// WithStates shares a settings object with the engine. Without it the engine starts in forward mode.
//
// Parameters:
//   - s: the render settings
//
// Returns:
//   - GraphicEngineBuilderOption: a function that applies the states option to a graphic engine
func WithStates(s *states.States) GraphicEngineBuilderOption {
	return func(e *graphicEngine) {
		e.states = s
	}
}

// WithShaderLoader sets the callback that attaches shader sources to the main and effects programs.
//
// Parameters:
//   - loader: the shader loader
//
// Returns:
//   - GraphicEngineBuilderOption: a function that applies the loader option to a graphic engine
func WithShaderLoader(loader ShaderLoader) GraphicEngineBuilderOption {
	return func(e *graphicEngine) {
		e.loader = loader
	}
}

// WithShaderReader sets the reader used to resolve #include directives.
//
// Parameters:
//   - reader: the include reader
//
// Returns:
//   - GraphicEngineBuilderOption: a function that applies the reader option to a graphic engine
func WithShaderReader(reader shader.FileReader) GraphicEngineBuilderOption {
	return func(e *graphicEngine) {
		e.reader = reader
	}
}

// WithShaderVersion overrides the version directive prefixed to every shader stage.
//
// Parameters:
//   - version: the directive, for example "#version 410 core"
//
// Returns:
//   - GraphicEngineBuilderOption: a function that applies the version option to a graphic engine
func WithShaderVersion(version string) GraphicEngineBuilderOption {
	return func(e *graphicEngine) {
		if version != "" {
			e.version = version
		}
	}
}

// WithMessageQueue sets the sink that receives CrashDown messages for fatal shader failures.
//
// Parameters:
//   - queue: the message sink
//
// Returns:
//   - GraphicEngineBuilderOption: a function that applies the queue option to a graphic engine
func WithMessageQueue(queue message.Poster) GraphicEngineBuilderOption {
	return func(e *graphicEngine) {
		e.queue = queue
	}
}

// WithCamera sets the camera read by Update.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - GraphicEngineBuilderOption: a function that applies the camera option to a graphic engine
func WithCamera(c camera.Camera) GraphicEngineBuilderOption {
	return func(e *graphicEngine) {
		e.cam = c
	}
}

// WithClientRect sets the initial client rect used by Start to size the framebuffers.
//
// Parameters:
//   - rect: the client rect
//
// Returns:
//   - GraphicEngineBuilderOption: a function that applies the rect option to a graphic engine
func WithClientRect(rect common.Rect) GraphicEngineBuilderOption {
	return func(e *graphicEngine) {
		e.rect = rect
	}
}

// WithRender registers a render for an object kind, replacing the default one.
//
// Parameters:
//   - kind: the object kind
//   - r: the render
//
// Returns:
//   - GraphicEngineBuilderOption: a function that applies the render option to a graphic engine
func WithRender(kind game_object.Kind, r renders.Render) GraphicEngineBuilderOption {
	return func(e *graphicEngine) {
		e.renders[kind] = r
	}
}
