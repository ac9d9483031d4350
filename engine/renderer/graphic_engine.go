package renderer

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/light"
	"github.com/Carmen-Shannon/oxy-gl/engine/message"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/framebuffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/renders"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/states"
	"go.uber.org/zap"
)

// ErrNoShaderLoader is returned by Start when the engine was built without a ShaderLoader.
var ErrNoShaderLoader = errors.New("no shader loader configured")

// Uniform names written by the graphic engine.
const (
	ShaderProcUniform       = "OXY_shader_proc"
	ProjectionMatrixUniform = "OXY_projection_matrix"
	ViewMatrixUniform       = "OXY_view_matrix"
	ViewPositionUniform     = "OXY_view_position"
)

// BufferMode selects how DrawObjects composes a batch.
type BufferMode int

const (
	// BufferModeNormal runs the full pass machinery for the current render mode.
	BufferModeNormal BufferMode = iota

	// BufferModeNoFramebuffer draws forward straight into the default framebuffer, bypassing the
	// G-buffer and the effects capture. Used for overlays and debug draws.
	BufferModeNoFramebuffer
)

// UpdateType selects which camera matrix Update pushes to the main program.
type UpdateType int

const (
	UpdateProjectionMatrix UpdateType = iota
	UpdateViewMatrix
)

// ShaderProc is the value of ShaderProcUniform. The main program branches on it; values are
// mirrored in the GLSL sources.
type ShaderProc int32

const (
	ShaderProcForward ShaderProc = iota
	ShaderProcGeometryPass
	ShaderProcMaterialPass
	ShaderProcLightPass
)

// graphicEngine is the implementation of the GraphicEngine interface.
type graphicEngine struct {
	device gpu.Device
	ctx    *gpu.Context

	states  *states.States
	loader  ShaderLoader
	reader  shader.FileReader
	version string
	queue   message.Poster
	cam     camera.Camera
	rect    common.Rect

	program        shader.Program
	effectsProgram shader.Program
	gbuffer        framebuffer.GBuffer
	effects        framebuffer.Effects
	quad           gpu.Mesh

	renders       map[game_object.Kind]renders.Render
	missingRender map[game_object.Kind]bool

	// per-frame partitions, rebuilt by groupObjects
	deferredObjects []game_object.GameObject
	forwardObjects  []game_object.GameObject

	renderMode states.RenderMode
	subPass    bool
	degraded   bool

	lights      []light.Light
	lightsDirty bool
	lightsGen   uint64

	createStencilRef int
	useStencilRef    int
	stencilMode      states.RenderMode
	blending         bool
	blendMode        states.RenderMode
}

// GraphicEngine composes frames from game objects. It owns the main and effects programs, the
// G-buffer, the effects framebuffer, the light list and the stencil/blend scopes.
//
// A GraphicEngine belongs to the thread that owns the rendering context; none of its methods are
// safe for concurrent use. Settings that other goroutines change live in States.
type GraphicEngine interface {
	// Start loads both programs through the ShaderLoader, sets the fixed pipeline state and
	// allocates the framebuffers for the current client rect.
	//
	// Returns:
	//   - error: an error if the quad upload or a program load fails
	Start() error

	// Release frees every GPU resource the engine owns.
	Release()

	// ReloadShaders rebuilds both programs from the ShaderLoader. On failure the previous programs
	// stay in use.
	//
	// Returns:
	//   - error: the load error, if any
	ReloadShaders() error

	// NewFrame restores the default framebuffer and clears it.
	NewFrame()

	// DrawObjects renders a batch of objects. Objects are drawn in submission order.
	//
	// Parameters:
	//   - objects: the objects to draw; an empty slice does nothing
	//   - mode: BufferModeNormal or BufferModeNoFramebuffer
	DrawObjects(objects []game_object.GameObject, mode BufferMode)

	// Update pushes a camera matrix to the main program.
	//
	// Parameters:
	//   - t: which matrix to upload
	Update(t UpdateType)

	// Camera returns the camera read by Update, or nil.
	Camera() camera.Camera

	// SetCamera replaces the camera and uploads both of its matrices.
	//
	// Parameters:
	//   - c: the new camera
	SetCamera(c camera.Camera)

	// RegisterRender routes objects of kind to r. A nil render removes the registration.
	//
	// Parameters:
	//   - kind: the object kind
	//   - r: the render
	RegisterRender(kind game_object.Kind, r renders.Render)

	// AddLight appends a light. Lights beyond the per-type maximum are dropped with a warning.
	//
	// Parameters:
	//   - l: the light
	AddLight(l light.Light)

	// RemoveLights removes every light.
	RemoveLights()

	// InvalidateLights forces the next activation to re-upload the light list. Call it after
	// changing a light that was already added.
	InvalidateLights()

	// LightsGeneration returns a counter bumped by every AddLight and RemoveLights that changed
	// the light list. Owners of a light set compare it to detect that another owner replaced it.
	LightsGeneration() uint64

	// ActivateLightsIfNecessary uploads the light list if it changed since the last upload.
	ActivateLightsIfNecessary()

	// BeginCreateStencil starts writing the stencil mask. Nested calls are counted.
	//
	// Returns:
	//   - *Scope: ends the call once
	BeginCreateStencil() *Scope

	// EndCreateStencil ends one BeginCreateStencil.
	EndCreateStencil()

	// BeginUseStencil restricts drawing to the stencil mask, or outside it when inverse is set.
	// Nested calls are counted; the first call decides inverse.
	//
	// Parameters:
	//   - inverse: draw where the mask is not set
	//
	// Returns:
	//   - *Scope: ends the call once
	BeginUseStencil(inverse bool) *Scope

	// EndUseStencil ends one BeginUseStencil.
	EndUseStencil()

	// ClearStencil clears the stencil buffer regardless of the current write mask.
	ClearStencil()

	// BeginBlend enables blending with the given factors and renders forward until EndBlend.
	// Blend scopes do not nest.
	//
	// Parameters:
	//   - src: the source factor
	//   - dst: the destination factor
	//
	// Returns:
	//   - *Scope: ends the call once
	BeginBlend(src, dst gpu.BlendFactor) *Scope

	// EndBlend ends the blend scope.
	EndBlend()

	// HandleMessage reacts to engine messages addressed to the graphic engine.
	//
	// Parameters:
	//   - m: the message
	//
	// Returns:
	//   - bool: true if the message was consumed
	HandleMessage(m message.Message) bool

	// RefreshGBuffer reallocates the G-buffer at the client rect size. A zero-area rect is a
	// successful no-op.
	//
	// Returns:
	//   - error: the allocation error, if any
	RefreshGBuffer() error

	// RefreshFramebuffer reallocates the effects framebuffer at the client rect size. A zero-area
	// rect is a successful no-op.
	//
	// Returns:
	//   - error: the allocation error, if any
	RefreshFramebuffer() error

	// ClientRect returns the last client rect received.
	ClientRect() common.Rect

	// Degraded reports whether deferred rendering was abandoned after a G-buffer failure.
	Degraded() bool

	// States returns the runtime render settings.
	States() *states.States

	// ShaderProgram returns the main program.
	ShaderProgram() shader.Program

	// EffectsProgram returns the effects composite program.
	EffectsProgram() shader.Program

	// GBuffer returns the geometry buffer.
	GBuffer() framebuffer.GBuffer

	// Effects returns the effects framebuffer.
	Effects() framebuffer.Effects
}

var _ GraphicEngine = &graphicEngine{}

// NewGraphicEngine creates a graphic engine driving device. Call Start on the render thread before
// drawing.
//
// Parameters:
//   - device: the graphics device
//   - options: functional options to configure the engine
//
// Returns:
//   - GraphicEngine: the new engine
func NewGraphicEngine(device gpu.Device, options ...GraphicEngineBuilderOption) GraphicEngine {
	e := &graphicEngine{
		device:        device,
		ctx:           gpu.NewContext(device),
		version:       shader.DefaultVersion,
		gbuffer:       framebuffer.NewGBuffer(device),
		effects:       framebuffer.NewEffects(device),
		renders:       renders.Defaults(device),
		missingRender: make(map[game_object.Kind]bool),
		lightsDirty:   true,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.states == nil {
		e.states = states.NewStates(states.RenderModeForward)
	}
	e.renderMode = e.states.RenderMode()
	return e
}

func (e *graphicEngine) Start() error {
	quad, err := gpu.NewQuad(e.device)
	if err != nil {
		return fmt.Errorf("failed to create fullscreen quad: %w", err)
	}
	e.quad = quad

	program, effectsProgram, err := e.installShaders(e.queue)
	if err != nil {
		return err
	}
	e.program, e.effectsProgram = program, effectsProgram

	e.device.DepthFunc(gpu.CompareLessEqual)
	e.device.Enable(gpu.CapabilityDepthTest)
	e.device.Enable(gpu.CapabilityStencilTest)
	e.device.StencilFunc(gpu.CompareAlways, 1, 0xFF)
	e.device.StencilOp(gpu.StencilKeep, gpu.StencilKeep, gpu.StencilReplace)
	e.checkError("start")

	e.resize(e.rect)
	if e.cam != nil {
		e.Update(UpdateProjectionMatrix)
		e.Update(UpdateViewMatrix)
	}
	return nil
}

// installShaders builds and loads both programs. Failures are reported to poster when it is set.
func (e *graphicEngine) installShaders(poster message.Poster) (shader.Program, shader.Program, error) {
	if e.loader == nil {
		return nil, nil, ErrNoShaderLoader
	}

	program := e.newProgram("main", poster)
	if err := e.loader.LoadShaderProgram(program); err != nil {
		return nil, nil, fmt.Errorf("failed to attach main shaders: %w", err)
	}
	program.SetDefine(gpu.ShaderStagePixel, "OXY_MAX_AMBIENTS", strconv.Itoa(light.MaxAmbients))
	program.SetDefine(gpu.ShaderStagePixel, "OXY_MAX_SPECULARS", strconv.Itoa(light.MaxSpeculars))
	if err := program.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load main program: %w", err)
	}

	effectsProgram := e.newProgram("effects", poster)
	if err := e.loader.LoadEffectsShader(effectsProgram); err != nil {
		program.Release()
		return nil, nil, fmt.Errorf("failed to attach effects shaders: %w", err)
	}
	if err := effectsProgram.Load(); err != nil {
		program.Release()
		return nil, nil, fmt.Errorf("failed to load effects program: %w", err)
	}
	return program, effectsProgram, nil
}

func (e *graphicEngine) newProgram(label string, poster message.Poster) shader.Program {
	opts := []shader.ProgramBuilderOption{
		shader.WithLabel(label),
		shader.WithVersion(e.version),
	}
	if e.reader != nil {
		opts = append(opts, shader.WithReader(e.reader))
	}
	if poster != nil {
		opts = append(opts, shader.WithMessageQueue(poster))
	}
	return shader.NewProgram(e.ctx, opts...)
}

func (e *graphicEngine) ReloadShaders() error {
	// a broken edit must not shut the engine down, so reloads never post CrashDown
	program, effectsProgram, err := e.installShaders(nil)
	if err != nil {
		common.Log().Warn("shader reload failed, keeping previous programs", zap.Error(err))
		return err
	}

	if e.program != nil {
		e.program.Release()
	}
	if e.effectsProgram != nil {
		e.effectsProgram.Release()
	}
	e.program, e.effectsProgram = program, effectsProgram
	e.lightsDirty = true
	if e.cam != nil {
		e.Update(UpdateProjectionMatrix)
		e.Update(UpdateViewMatrix)
	}
	common.Log().Info("shaders reloaded")
	return nil
}

func (e *graphicEngine) Release() {
	if e.program != nil {
		e.program.Release()
	}
	if e.effectsProgram != nil {
		e.effectsProgram.Release()
	}
	e.gbuffer.Dispose()
	e.effects.Dispose()
	if e.quad.VertexArray != 0 {
		e.device.DeleteMesh(e.quad)
		e.quad = gpu.Mesh{}
	}
}

func (e *graphicEngine) NewFrame() {
	e.device.BindFramebuffer(gpu.FramebufferTargetBoth, 0)
	e.device.Clear(gpu.BufferColor | gpu.BufferDepth | gpu.BufferStencil)
}

func (e *graphicEngine) Update(t UpdateType) {
	if e.cam == nil || !e.programReady() {
		return
	}

	e.program.Use()
	switch t {
	case UpdateProjectionMatrix:
		e.program.SetMatrix4(ProjectionMatrixUniform, e.cam.ProjectionMatrix())
	case UpdateViewMatrix:
		e.program.SetVec4(ViewPositionUniform, e.cam.Position().Vec4(1))
		e.program.SetMatrix4(ViewMatrixUniform, e.cam.ViewMatrix())
	default:
		common.Assert(false, "unknown update type", zap.Int("type", int(t)))
	}
}

func (e *graphicEngine) Camera() camera.Camera {
	return e.cam
}

func (e *graphicEngine) SetCamera(c camera.Camera) {
	e.cam = c
	e.Update(UpdateProjectionMatrix)
	e.Update(UpdateViewMatrix)
}

func (e *graphicEngine) RegisterRender(kind game_object.Kind, r renders.Render) {
	if r == nil {
		delete(e.renders, kind)
		return
	}
	e.renders[kind] = r
	delete(e.missingRender, kind)
}

func (e *graphicEngine) ClientRect() common.Rect {
	return e.rect
}

func (e *graphicEngine) Degraded() bool {
	return e.degraded
}

func (e *graphicEngine) States() *states.States {
	return e.states
}

func (e *graphicEngine) ShaderProgram() shader.Program {
	return e.program
}

func (e *graphicEngine) EffectsProgram() shader.Program {
	return e.effectsProgram
}

func (e *graphicEngine) GBuffer() framebuffer.GBuffer {
	return e.gbuffer
}

func (e *graphicEngine) Effects() framebuffer.Effects {
	return e.effects
}

func (e *graphicEngine) programReady() bool {
	return e.program != nil && e.program.Loaded()
}

// checkError surfaces a device error after a batch of state changes. Debug builds panic; release
// builds log and keep rendering.
func (e *graphicEngine) checkError(stage string) {
	if err := e.device.CheckError(); err != nil {
		common.Assert(false, "gpu error", zap.String("stage", stage), zap.Error(err))
	}
}
