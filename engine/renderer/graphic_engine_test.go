package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gl/engine/light"
	"github.com/Carmen-Shannon/oxy-gl/engine/message"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/framebuffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/states"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	mainVertex = `uniform int OXY_shader_proc;
uniform int OXY_technique;
uniform mat4 OXY_model_matrix;
uniform mat4 OXY_view_matrix;
uniform mat4 OXY_projection_matrix;
uniform vec4 OXY_view_position;`

	mainPixel = `uniform OXY_Light OXY_ambient_lights[OXY_MAX_AMBIENTS];
uniform OXY_Light OXY_speculars[OXY_MAX_SPECULARS];
uniform int OXY_ambients_count;
uniform int OXY_speculars_count;
uniform OXY_Material OXY_material;`

	effectsPixel = `uniform sampler2D OXY_framebuffer;
uniform int OXY_technique;`
)

var screen = common.Rect{Width: 800, Height: 600}

// stubLoader attaches inline sources.
type stubLoader struct {
	mainVertex string
}

func (l stubLoader) LoadShaderProgram(p shader.Program) error {
	src := l.mainVertex
	if src == "" {
		src = mainVertex
	}
	p.AttachShader(shader.ShaderInfo{Stage: gpu.ShaderStageVertex, Source: src, Path: "main.vert"})
	p.AttachShader(shader.ShaderInfo{Stage: gpu.ShaderStagePixel, Source: mainPixel, Path: "main.frag"})
	return nil
}

func (l stubLoader) LoadEffectsShader(p shader.Program) error {
	p.AttachShader(shader.ShaderInfo{Stage: gpu.ShaderStageVertex, Source: "void main() {}", Path: "effects.vert"})
	p.AttachShader(shader.ShaderInfo{Stage: gpu.ShaderStagePixel, Source: effectsPixel, Path: "effects.frag"})
	return nil
}

func observeLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(nil) })
	return logs
}

// startEngine builds and starts an engine on a Recorder, then clears the recorded calls.
func startEngine(t *testing.T, mode states.RenderMode, options ...GraphicEngineBuilderOption) (*graphicEngine, *gputest.Recorder) {
	t.Helper()
	rec := gputest.NewRecorder()
	opts := append([]GraphicEngineBuilderOption{
		WithStates(states.NewStates(mode)),
		WithShaderLoader(stubLoader{}),
		WithClientRect(screen),
	}, options...)
	e := NewGraphicEngine(rec, opts...).(*graphicEngine)
	require.NoError(t, e.Start())
	rec.Reset()
	return e, rec
}

func object(kind game_object.Kind, vao gpu.Handle, options ...game_object.GameObjectBuilderOption) game_object.GameObject {
	m := model.NewModel(model.WithMesh(gpu.Mesh{VertexArray: vao, Count: 3}))
	return game_object.NewGameObject(kind, append([]game_object.GameObjectBuilderOption{game_object.WithModel(m)}, options...)...)
}

func drawnMeshes(rec *gputest.Recorder) []gpu.Handle {
	var out []gpu.Handle
	for _, c := range rec.CallsNamed("DrawMesh") {
		out = append(out, c.Args[0].(gpu.Handle))
	}
	return out
}

// uniformWrites returns the values written to a uniform of program, following UseProgram calls
// from the program that was current when recording started.
func uniformWrites(rec *gputest.Recorder, current gpu.Handle, program shader.Program, call, name string) []any {
	loc := program.Index(name)
	var out []any
	for _, c := range rec.Calls() {
		switch {
		case c.Name == "UseProgram":
			current = c.Args[0].(gpu.Handle)
		case c.Name == call && current == program.Handle() && c.Args[0] == loc:
			out = append(out, c.Args[1])
		}
	}
	return out
}

func TestStart(t *testing.T) {
	rec := gputest.NewRecorder()
	e := NewGraphicEngine(rec, WithShaderLoader(stubLoader{}), WithClientRect(screen)).(*graphicEngine)
	require.NoError(t, e.Start())

	assert.True(t, e.ShaderProgram().Loaded())
	assert.True(t, e.EffectsProgram().Loaded())
	assert.NotEqual(t, gpu.Handle(0), e.ShaderProgram().Handle())
	assert.True(t, rec.Enabled(gpu.CapabilityStencilTest))
	assert.True(t, rec.Enabled(gpu.CapabilityDepthTest))
	assert.Equal(t, []any{gpu.CompareLessEqual}, rec.CallsNamed("DepthFunc")[0].Args)
	assert.Equal(t, []any{gpu.CompareAlways, int32(1), uint32(0xFF)}, rec.CallsNamed("StencilFunc")[0].Args)
	assert.Equal(t, []any{gpu.StencilKeep, gpu.StencilKeep, gpu.StencilReplace}, rec.CallsNamed("StencilOp")[0].Args)

	// forward mode allocates only the effects framebuffer
	assert.True(t, e.Effects().Ready())
	assert.False(t, e.GBuffer().Ready())

	e.Release()
	assert.Zero(t, rec.Live("program"))
	assert.Zero(t, rec.Live("framebuffer"))
	assert.Zero(t, rec.Live("mesh"))
}

func TestStartWithoutLoader(t *testing.T) {
	e := NewGraphicEngine(gputest.NewRecorder())
	assert.ErrorIs(t, e.Start(), ErrNoShaderLoader)
}

func TestStartCompileFailurePostsCrash(t *testing.T) {
	observeLogs(t, zapcore.ErrorLevel)
	rec := gputest.NewRecorder()
	queue := message.NewQueue(4)
	e := NewGraphicEngine(rec,
		WithShaderLoader(stubLoader{mainVertex: "void main()\n#error\n"}),
		WithMessageQueue(queue))

	err := e.Start()
	require.ErrorIs(t, err, shader.ErrCompile)

	m, ok := queue.Poll()
	require.True(t, ok)
	assert.Equal(t, message.MessageCrashDown, m.Type)
	assert.Zero(t, rec.Live("program"))
}

func TestDrawObjectsEmptyDoesNothing(t *testing.T) {
	for _, mode := range []states.RenderMode{states.RenderModeForward, states.RenderModeDeferred} {
		t.Run(mode.String(), func(t *testing.T) {
			e, rec := startEngine(t, mode)
			e.DrawObjects(nil, BufferModeNormal)
			e.DrawObjects([]game_object.GameObject{}, BufferModeNormal)
			assert.Empty(t, rec.Calls())
		})
	}
}

func TestForwardDraw(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeForward)
	quad := e.quad.VertexArray

	e.DrawObjects([]game_object.GameObject{
		object(game_object.KindStatic, 1001),
		object(game_object.KindSprite, 1002),
	}, BufferModeNormal)

	assert.Equal(t, []gpu.Handle{1001, 1002, quad}, drawnMeshes(rec))

	// capture into the effects framebuffer, composite with the effects program
	binds := rec.CallsNamed("BindFramebuffer")
	require.NotEmpty(t, binds)
	assert.Equal(t, []any{gpu.FramebufferTargetBoth, e.Effects().Framebuffer()}, binds[0].Args)
	assert.Equal(t, e.EffectsProgram().Handle(), rec.ProgramInUse())
	assert.False(t, e.Effects().HasBegun())

	proc := e.ShaderProgram().Index(ShaderProcUniform)
	v, _ := rec.UniformValue(e.ShaderProgram().Handle(), ShaderProcUniform)
	assert.NotEqual(t, int32(-1), proc)
	assert.Equal(t, int32(ShaderProcForward), v)
}

func TestDeferredFrame(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeDeferred)
	quad := e.quad.VertexArray

	var subPassMode states.RenderMode = -1
	custom := game_object.NewGameObject(game_object.KindCustom,
		game_object.WithDeferredRendering(false),
		game_object.WithDrawer(game_object.DrawerFunc(func() {
			subPassMode = e.States().RenderMode()
		})))

	e.DrawObjects([]game_object.GameObject{
		object(game_object.KindStatic, 1001),
		object(game_object.KindSprite, 1002),
		custom,
	}, BufferModeNormal)

	// geometry pass twice, light quad, forward sprite, single composite
	assert.Equal(t, []gpu.Handle{1001, 1001, quad, 1002, quad}, drawnMeshes(rec))
	assert.Equal(t, states.RenderModeForward, subPassMode)
	assert.Equal(t, states.RenderModeDeferred, e.States().RenderMode())

	// depth is copied into the effects capture before the forward sub-pass
	blits := rec.CallsNamed("BlitFramebuffer")
	require.Len(t, blits, 1)
	assert.Equal(t, gpu.BufferDepth|gpu.BufferStencil, blits[0].Args[2])
	assert.Contains(t, rec.CallsNamed("BindFramebuffer"), gputest.Call{
		Name: "BindFramebuffer",
		Args: []any{gpu.FramebufferTargetDraw, e.Effects().Framebuffer()},
	})

	// the composite leaves the default framebuffer bound
	assert.Equal(t, gpu.Handle(0), rec.Bound(gpu.FramebufferTargetDraw))
	assert.False(t, e.Effects().HasBegun())
}

func TestDeferredShaderProcPerPass(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeDeferred)
	current := e.ctx.CurrentProgram()

	e.DrawObjects([]game_object.GameObject{object(game_object.KindStatic, 1001)}, BufferModeNormal)

	assert.Equal(t, []any{
		int32(ShaderProcGeometryPass),
		int32(ShaderProcMaterialPass),
		int32(ShaderProcLightPass),
	}, uniformWrites(rec, current, e.ShaderProgram(), "Uniform1i", ShaderProcUniform))
}

func TestDeferredSubPassKeepsLightsClean(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeDeferred)
	e.AddLight(light.NewLight(light.LightTypeSpecular, light.WithPosition(1, 2, 3)))
	objs := []game_object.GameObject{
		object(game_object.KindStatic, 1001),
		object(game_object.KindParticles, 1002),
	}

	current := e.ctx.CurrentProgram()
	e.DrawObjects(objs, BufferModeNormal)
	assert.Equal(t, []any{int32(1)},
		uniformWrites(rec, current, e.ShaderProgram(), "Uniform1i", light.SpecularsCountUniform))

	rec.Reset()
	current = e.ctx.CurrentProgram()
	e.DrawObjects(objs, BufferModeNormal)
	assert.Empty(t, uniformWrites(rec, current, e.ShaderProgram(), "Uniform1i", light.SpecularsCountUniform))
}

func TestModeChangeDirtiesLights(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeForward)
	objs := []game_object.GameObject{object(game_object.KindStatic, 1001)}

	e.DrawObjects(objs, BufferModeNormal)
	e.States().SetRenderMode(states.RenderModeDeferred)
	rec.Reset()
	current := e.ctx.CurrentProgram()
	e.DrawObjects(objs, BufferModeNormal)
	assert.Len(t, uniformWrites(rec, current, e.ShaderProgram(), "Uniform1i", light.AmbientsCountUniform), 1)
}

func TestActivateLights(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeForward)
	e.AddLight(light.NewLight(light.LightTypeAmbient, light.WithColor(1, 0, 0), light.WithIntensity(0.5)))
	e.AddLight(light.NewLight(light.LightTypeSpecular, light.WithPosition(4, 5, 6)))
	e.AddLight(light.NewLight(light.LightTypeSpecular, light.WithEnabled(false)))
	p := e.ShaderProgram().Handle()

	e.ActivateLightsIfNecessary()
	v, ok := rec.UniformValue(p, light.UniformName(light.LightTypeAmbient, 0, light.ColorField))
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0.5, 0, 0}, v)
	v, _ = rec.UniformValue(p, light.UniformName(light.LightTypeSpecular, 0, light.PositionField))
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, v)
	v, _ = rec.UniformValue(p, light.SpecularsCountUniform)
	assert.Equal(t, int32(1), v)

	// clean cache, nothing uploaded
	rec.Reset()
	e.ActivateLightsIfNecessary()
	assert.Empty(t, rec.Calls())

	e.InvalidateLights()
	e.ActivateLightsIfNecessary()
	assert.NotEmpty(t, rec.CallsNamed("Uniform3f"))

	e.RemoveLights()
	e.ActivateLightsIfNecessary()
	v, _ = rec.UniformValue(p, light.AmbientsCountUniform)
	assert.Equal(t, int32(0), v)
}

func TestAddLightDropsOverMax(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	e, _ := startEngine(t, states.RenderModeForward)
	for i := 0; i < light.MaxAmbients+2; i++ {
		e.AddLight(light.NewLight(light.LightTypeAmbient))
	}
	e.AddLight(nil)

	assert.Len(t, e.lights, light.MaxAmbients)
	assert.Equal(t, 2, logs.FilterMessage("too many lights, dropping light").Len())
}

func TestDeferredWithoutGBufferRendersForward(t *testing.T) {
	logs := observeLogs(t, zapcore.ErrorLevel)
	e, rec := startEngine(t, states.RenderModeDeferred)
	rec.FailFramebuffer = true
	e.GBuffer().Dispose()

	e.DrawObjects([]game_object.GameObject{object(game_object.KindStatic, 1001)}, BufferModeNormal)
	assert.Equal(t, []gpu.Handle{1001, e.quad.VertexArray}, drawnMeshes(rec))
	assert.Zero(t, rec.Count("BlitFramebuffer"))
	assert.True(t, e.Degraded())
	assert.Equal(t, states.RenderModeForward, e.States().RenderMode())
	assert.Equal(t, 1, logs.FilterMessage("failed to refresh gbuffer, falling back to forward rendering").Len())
}

func TestDegradedRestoresOnResize(t *testing.T) {
	observeLogs(t, zapcore.InfoLevel)
	e, rec := startEngine(t, states.RenderModeDeferred)

	rec.FailFramebuffer = true
	assert.True(t, e.HandleMessage(message.WindowSizeChanged(common.Rect{Width: 1024, Height: 768})))
	assert.True(t, e.Degraded())
	assert.False(t, e.GBuffer().Ready())
	assert.Equal(t, states.RenderModeForward, e.States().RenderMode())

	rec.FailFramebuffer = false
	e.HandleMessage(message.WindowSizeChanged(common.Rect{Width: 640, Height: 480}))
	assert.False(t, e.Degraded())
	assert.True(t, e.GBuffer().Ready())
	assert.Equal(t, 640, e.GBuffer().Width())
	assert.Equal(t, states.RenderModeDeferred, e.States().RenderMode())
}

func TestResizeToZeroKeepsFramebuffers(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeDeferred)

	e.HandleMessage(message.WindowSizeChanged(common.Rect{}))
	assert.Zero(t, rec.Count("CreateFramebuffer"))
	assert.Zero(t, rec.Count("DeleteFramebuffer"))
	assert.True(t, e.GBuffer().Ready())
	assert.True(t, e.Effects().Ready())
	assert.False(t, e.Degraded())
	assert.Equal(t, common.Rect{}, e.ClientRect())
}

func TestResizeUpdatesCameraAspect(t *testing.T) {
	cam := camera.NewCamera()
	e, _ := startEngine(t, states.RenderModeForward, WithCamera(cam))
	assert.InDelta(t, 800.0/600.0, cam.Aspect(), 1e-6)

	e.HandleMessage(message.WindowSizeChanged(common.Rect{Width: 400, Height: 400}))
	assert.InDelta(t, 1.0, cam.Aspect(), 1e-6)
	assert.False(t, e.HandleMessage(message.ShaderChanged("main.frag")))
}

func TestDeferredAllocatesGBufferOnFirstUse(t *testing.T) {
	e, _ := startEngine(t, states.RenderModeForward)
	require.False(t, e.GBuffer().Ready())

	e.States().SetRenderMode(states.RenderModeDeferred)
	e.DrawObjects([]game_object.GameObject{object(game_object.KindStatic, 1001)}, BufferModeNormal)
	assert.True(t, e.GBuffer().Ready())
}

func TestDeferredReallocatesGBufferResizedInForward(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeDeferred)
	objects := []game_object.GameObject{object(game_object.KindStatic, 1001)}
	e.DrawObjects(objects, BufferModeNormal)
	require.Equal(t, 800, e.GBuffer().Width())

	e.States().SetRenderMode(states.RenderModeForward)
	e.HandleMessage(message.WindowSizeChanged(common.Rect{Width: 1024, Height: 768}))
	assert.Equal(t, 800, e.GBuffer().Width())

	e.States().SetRenderMode(states.RenderModeDeferred)
	rec.Reset()
	e.DrawObjects(objects, BufferModeNormal)

	assert.Equal(t, 1024, e.GBuffer().Width())
	assert.Equal(t, 768, e.GBuffer().Height())
	viewports := rec.CallsNamed("Viewport")
	require.NotEmpty(t, viewports)
	assert.Equal(t, []any{common.Rect{Width: 1024, Height: 768}}, viewports[0].Args)
	assert.False(t, e.Degraded())
}

func TestPanickingDrawerEndsEffectsCapture(t *testing.T) {
	for _, tc := range []struct {
		name string
		mode states.RenderMode
	}{
		{"forward", states.RenderModeForward},
		{"deferred", states.RenderModeDeferred},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := startEngine(t, tc.mode)
			custom := game_object.NewGameObject(game_object.KindCustom,
				game_object.WithDeferredRendering(false),
				game_object.WithDrawer(game_object.DrawerFunc(func() { panic("draw failed") })))

			assert.Panics(t, func() {
				e.DrawObjects([]game_object.GameObject{custom}, BufferModeNormal)
			})
			assert.False(t, e.Effects().HasBegun())
			assert.Equal(t, tc.mode, e.States().RenderMode())
		})
	}
}

func TestNoFramebufferDrawsDirect(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeDeferred)

	var mode states.RenderMode = -1
	custom := game_object.NewGameObject(game_object.KindCustom,
		game_object.WithDrawer(game_object.DrawerFunc(func() { mode = e.States().RenderMode() })))
	e.DrawObjects([]game_object.GameObject{object(game_object.KindStatic, 1001), custom}, BufferModeNoFramebuffer)

	assert.Equal(t, []gpu.Handle{1001}, drawnMeshes(rec))
	assert.Equal(t, states.RenderModeForward, mode)
	assert.Equal(t, states.RenderModeDeferred, e.States().RenderMode())
	assert.Equal(t, []any{gpu.FramebufferTargetBoth, gpu.Handle(0)}, rec.CallsNamed("BindFramebuffer")[0].Args)
	assert.Zero(t, rec.Count("BlitFramebuffer"))
}

func TestDebugViewerBlit(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeDeferred)
	dst := common.Rect{X: 10, Y: 10, Width: 200, Height: 150}
	e.States().SetDebugViewer(states.DebugViewer{Index: int(framebuffer.ChannelTexAmbient) + 1, Rect: dst})

	e.DrawObjects([]game_object.GameObject{object(game_object.KindStatic, 1001)}, BufferModeNormal)

	blits := rec.CallsNamed("BlitFramebuffer")
	require.Len(t, blits, 2)
	assert.Equal(t, []any{common.Rect{Width: 800, Height: 600}, dst, gpu.BufferColor, gpu.FilterLinear}, blits[1].Args)

	reads := rec.CallsNamed("ReadBuffer")
	require.Len(t, reads, 1)
	assert.Equal(t, []any{2}, reads[0].Args)
	assert.True(t, rec.Enabled(gpu.CapabilityDepthTest))
}

func TestDebugViewerOutOfRange(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	e, rec := startEngine(t, states.RenderModeDeferred)
	e.States().SetDebugViewer(states.DebugViewer{Index: int(framebuffer.ChannelCount) + 1})

	e.DrawObjects([]game_object.GameObject{object(game_object.KindStatic, 1001)}, BufferModeNormal)
	assert.Len(t, rec.CallsNamed("BlitFramebuffer"), 1)
	assert.Equal(t, 1, logs.FilterMessage("debug viewer index out of range").Len())
}

func TestMissingRenderWarnsOnce(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	e, _ := startEngine(t, states.RenderModeForward)
	custom := game_object.NewGameObject(game_object.KindCustom)

	e.DrawObjects([]game_object.GameObject{custom, custom}, BufferModeNormal)
	e.DrawObjects([]game_object.GameObject{custom}, BufferModeNormal)
	assert.Equal(t, 1, logs.FilterMessage("no render registered for object kind").Len())
}

func TestDisabledObjectsAreSkipped(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeForward)
	e.DrawObjects([]game_object.GameObject{
		object(game_object.KindStatic, 1001, game_object.WithEnabled(false)),
	}, BufferModeNormal)
	assert.Equal(t, []gpu.Handle{e.quad.VertexArray}, drawnMeshes(rec))
}

func TestUpdate(t *testing.T) {
	cam := camera.NewCamera(camera.WithPosition(1, 2, 3))
	e, rec := startEngine(t, states.RenderModeForward, WithCamera(cam))
	p := e.ShaderProgram().Handle()

	e.Update(UpdateViewMatrix)
	v, ok := rec.UniformValue(p, ViewPositionUniform)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{1, 2, 3, 1}, v)
	v, _ = rec.UniformValue(p, ViewMatrixUniform)
	assert.Equal(t, cam.ViewMatrix(), v)

	e.Update(UpdateProjectionMatrix)
	v, _ = rec.UniformValue(p, ProjectionMatrixUniform)
	assert.Equal(t, cam.ProjectionMatrix(), v)
}

func TestReloadShaders(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeForward)
	old := e.ShaderProgram().Handle()

	require.NoError(t, e.ReloadShaders())
	assert.NotEqual(t, old, e.ShaderProgram().Handle())
	assert.Equal(t, 2, rec.Live("program"))

	queue := message.NewQueue(4)
	e.queue = queue
	e.loader = stubLoader{mainVertex: "#error"}
	current := e.ShaderProgram().Handle()
	assert.ErrorIs(t, e.ReloadShaders(), shader.ErrCompile)
	assert.Equal(t, current, e.ShaderProgram().Handle())
	assert.Zero(t, queue.Len())
}

func TestNestedCreateStencil(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeDeferred)

	outer := e.BeginCreateStencil()
	inner := e.BeginCreateStencil()
	assert.Equal(t, states.RenderModeForward, e.States().RenderMode())
	assert.Equal(t, uint32(0xFF), rec.StencilWriteMask())

	inner.End()
	inner.End()
	assert.Equal(t, states.RenderModeForward, e.States().RenderMode())
	assert.Len(t, rec.CallsNamed("StencilMask"), 1)

	outer.End()
	assert.Equal(t, states.RenderModeDeferred, e.States().RenderMode())
	assert.Equal(t, uint32(0x00), rec.StencilWriteMask())
	assert.Len(t, rec.CallsNamed("StencilMask"), 2)
}

func TestEndCreateStencilUnderflow(t *testing.T) {
	logs := observeLogs(t, zapcore.ErrorLevel)
	e, rec := startEngine(t, states.RenderModeForward)

	e.EndCreateStencil()
	assert.Empty(t, rec.CallsNamed("StencilMask"))
	assert.Equal(t, 1, logs.FilterMessage("assertion failed: EndCreateStencil without BeginCreateStencil").Len())
}

func TestUseStencil(t *testing.T) {
	tests := []struct {
		name    string
		inverse bool
		want    gpu.CompareFunc
	}{
		{name: "equal", inverse: false, want: gpu.CompareEqual},
		{name: "inverse", inverse: true, want: gpu.CompareNotEqual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := startEngine(t, states.RenderModeForward)

			outer := e.BeginUseStencil(tt.inverse)
			inner := e.BeginUseStencil(!tt.inverse)
			inner.End()
			outer.End()

			calls := rec.CallsNamed("StencilFunc")
			require.Len(t, calls, 2)
			assert.Equal(t, []any{tt.want, int32(1), uint32(0xFF)}, calls[0].Args)
			assert.Equal(t, []any{gpu.CompareAlways, int32(1), uint32(0xFF)}, calls[1].Args)
		})
	}
}

func TestClearStencilRestoresMask(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeForward)
	rec.StencilMask(0x0F)
	rec.Reset()

	e.ClearStencil()
	assert.Equal(t, []string{"StencilMask", "Clear", "StencilMask"}, rec.Names())
	assert.Equal(t, []any{gpu.BufferStencil}, rec.CallsNamed("Clear")[0].Args)
	assert.Equal(t, uint32(0x0F), rec.StencilWriteMask())
}

func TestBlendScope(t *testing.T) {
	logs := observeLogs(t, zapcore.ErrorLevel)
	e, rec := startEngine(t, states.RenderModeDeferred)

	scope := e.BeginBlend(gpu.BlendSrcAlpha, gpu.BlendOneMinusSrcAlpha)
	assert.True(t, rec.Enabled(gpu.CapabilityBlend))
	assert.Equal(t, states.RenderModeForward, e.States().RenderMode())
	assert.Equal(t, []any{gpu.BlendSrcAlpha, gpu.BlendOneMinusSrcAlpha}, rec.CallsNamed("BlendFunc")[0].Args)

	nested := e.BeginBlend(gpu.BlendOne, gpu.BlendOne)
	assert.Equal(t, 1, logs.FilterMessage("assertion failed: blend scope is not reentrant").Len())
	assert.Len(t, rec.CallsNamed("BlendFunc"), 1)
	nested.End()
	assert.True(t, rec.Enabled(gpu.CapabilityBlend))

	scope.End()
	assert.False(t, rec.Enabled(gpu.CapabilityBlend))
	assert.Equal(t, states.RenderModeDeferred, e.States().RenderMode())
}

func TestStencilInsideDeferredFrameDrawsForward(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeDeferred)

	scope := e.BeginCreateStencil()
	e.DrawObjects([]game_object.GameObject{object(game_object.KindStatic, 1001)}, BufferModeNormal)
	scope.End()

	assert.Equal(t, []gpu.Handle{1001, e.quad.VertexArray}, drawnMeshes(rec))
	assert.Equal(t, states.RenderModeDeferred, e.States().RenderMode())
}

func TestNilScopeEnd(t *testing.T) {
	var s *Scope
	assert.NotPanics(t, s.End)
}

func TestRegisterRender(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeForward)
	drawn := 0
	custom := game_object.NewGameObject(game_object.KindCustom)

	e.RegisterRender(game_object.KindCustom, renderFunc(func(shader.Program, game_object.GameObject) { drawn++ }))
	e.DrawObjects([]game_object.GameObject{custom}, BufferModeNormal)
	assert.Equal(t, 1, drawn)

	e.RegisterRender(game_object.KindStatic, nil)
	e.DrawObjects([]game_object.GameObject{object(game_object.KindStatic, 1001)}, BufferModeNormal)
	assert.NotContains(t, drawnMeshes(rec), gpu.Handle(1001))
}

type renderFunc func(shader.Program, game_object.GameObject)

func (f renderFunc) Draw(p shader.Program, obj game_object.GameObject) {
	f(p, obj)
}

func TestNewFrame(t *testing.T) {
	e, rec := startEngine(t, states.RenderModeForward)
	e.NewFrame()
	assert.Equal(t, []string{"BindFramebuffer", "Clear"}, rec.Names())
	assert.Equal(t, []any{gpu.BufferColor | gpu.BufferDepth | gpu.BufferStencil}, rec.CallsNamed("Clear")[0].Args)
}
