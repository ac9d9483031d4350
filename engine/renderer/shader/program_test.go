package shader

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gl/engine/message"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

const (
	vertexSource = "layout(location = 0) in vec3 position;\nuniform mat4 OXY_view_matrix;\nvoid main() { gl_Position = OXY_view_matrix * vec4(position, 1.0); }"
	pixelSource  = "uniform int OXY_technique;\nuniform float OXY_alpha;\nout vec4 color;\nvoid main() { color = vec4(1.0); }"
)

func newTestProgram(t *testing.T, options ...ProgramBuilderOption) (Program, *gputest.Recorder, *gpu.Context) {
	t.Helper()
	rec := gputest.NewRecorder()
	ctx := gpu.NewContext(rec)
	return NewProgram(ctx, options...), rec, ctx
}

func TestLoadVertexAndPixel(t *testing.T) {
	p, rec, ctx := newTestProgram(t)
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: vertexSource, Path: "main.vert"})
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStagePixel, Source: pixelSource, Path: "main.frag"})

	require.NoError(t, p.Load())
	assert.True(t, p.Loaded())
	assert.NotZero(t, p.Handle())
	assert.True(t, rec.Linked(p.Handle()))
	assert.Equal(t, 0, rec.Live("shader"), "shaders are deleted after link")
	assert.False(t, ctx.IsCurrent(p.Handle()), "load does not bind the program")
}

func TestLoadPrefixesVersionOnly(t *testing.T) {
	p, rec, _ := newTestProgram(t)
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: vertexSource})
	require.NoError(t, p.Load())

	calls := rec.CallsNamed("CreateShader")
	require.Len(t, calls, 1)
	assert.Equal(t, DefaultVersion+"\n"+vertexSource, calls[0].Args[1])
}

func TestLoadConcatenatesStageSourcesWithDefines(t *testing.T) {
	p, rec, _ := newTestProgram(t, WithVersion("#version 330 core"))
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStagePixel, Source: "float a;"})
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: vertexSource})
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStagePixel, Source: "float b;"})
	p.SetDefine(gpu.ShaderStagePixel, "MAX_LIGHTS", "4")
	p.SetDefine(gpu.ShaderStagePixel, "USE_FOG", "")
	p.SetDefine(gpu.ShaderStagePixel, "MAX_LIGHTS", "10")
	require.NoError(t, p.Load())

	calls := rec.CallsNamed("CreateShader")
	require.Len(t, calls, 2)
	assert.Equal(t, gpu.ShaderStageVertex, calls[0].Args[0], "vertex compiles first")
	assert.Equal(t, "#version 330 core\n"+vertexSource, calls[0].Args[1])
	assert.Equal(t, gpu.ShaderStagePixel, calls[1].Args[0])
	assert.Equal(t, "#version 330 core\n#define MAX_LIGHTS 10\n#define USE_FOG\nfloat a;\nfloat b;", calls[1].Args[1])
}

func TestLoadSharesAliasesAcrossStages(t *testing.T) {
	reader := mapReader{"shaders/defs.glsl": "#alias COLOR_OUT fragColor"}
	p, rec, _ := newTestProgram(t, WithReader(reader))
	p.SetAlias("POS", "position")
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: "#include \"defs.glsl\"\nin vec3 ${POS};", Path: "shaders/main.vert"})
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStagePixel, Source: "out vec4 ${COLOR_OUT};", Path: "shaders/main.frag"})
	require.NoError(t, p.Load())

	calls := rec.CallsNamed("CreateShader")
	require.Len(t, calls, 2)
	assert.Equal(t, DefaultVersion+"\n\n\nin vec3 position;", calls[0].Args[1])
	assert.Equal(t, DefaultVersion+"\nout vec4 fragColor;", calls[1].Args[1])
}

func TestLoadCompileFailurePostsCrash(t *testing.T) {
	logs := observeLogs(t, zapcore.ErrorLevel)
	queue := message.NewQueue(4)
	p, rec, ctx := newTestProgram(t, WithMessageQueue(queue), WithLabel("forward"))
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: "void main() {\n#error broken\n}", Path: "broken.vert"})

	err := p.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompile))
	assert.False(t, p.Loaded())
	assert.Zero(t, p.Handle())
	assert.Zero(t, ctx.CurrentProgram())
	assert.Equal(t, 0, rec.Live("program"))
	assert.Equal(t, 0, rec.Live("shader"))

	m, ok := queue.Poll()
	require.True(t, ok)
	assert.Equal(t, message.MessageCrashDown, m.Type)
	assert.Contains(t, m.Reason, "forward")

	entries := logs.FilterMessage("shader compilation failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Contains(t, fields["source"], "3:\t#error broken")
	assert.Equal(t, []interface{}{"broken.vert"}, fields["files"])
	assert.Equal(t, "broken.vert:2", fields["origin"])
}

func TestLoadMalformedDirectiveIsNotFatal(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	queue := message.NewQueue(4)
	p, rec, _ := newTestProgram(t, WithMessageQueue(queue))
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: "#alias FOO\n" + vertexSource, Path: "main.vert"})
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStagePixel, Source: "#include <common.glsl>\n" + pixelSource, Path: "main.frag"})

	require.NoError(t, p.Load())
	assert.True(t, p.Loaded())
	assert.Zero(t, queue.Len())

	calls := rec.CallsNamed("CreateShader")
	require.Len(t, calls, 2)
	assert.Equal(t, DefaultVersion+"\n\n"+vertexSource, calls[0].Args[1])
	assert.Equal(t, DefaultVersion+"\n\n"+pixelSource, calls[1].Args[1])
	assert.Equal(t, 2, logs.FilterMessage("malformed shader directive, using empty line instead").Len())
}

func TestLoadLinkFailurePostsCrash(t *testing.T) {
	queue := message.NewQueue(4)
	p, rec, _ := newTestProgram(t, WithMessageQueue(queue))
	rec.FailLink = true
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: vertexSource})
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStagePixel, Source: pixelSource})

	err := p.Load()
	assert.ErrorIs(t, err, ErrLink)
	assert.Equal(t, 0, rec.Live("program"))
	assert.Equal(t, 0, rec.Live("shader"))
	m, ok := queue.Poll()
	require.True(t, ok)
	assert.Equal(t, message.MessageCrashDown, m.Type)
}

func TestLoadWithoutShaders(t *testing.T) {
	p, rec, _ := newTestProgram(t)
	assert.ErrorIs(t, p.Load(), ErrNoShaders)
	assert.Equal(t, 0, rec.Count("CreateProgram"))
}

func TestLoadTwice(t *testing.T) {
	p, _, _ := newTestProgram(t)
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: vertexSource})
	require.NoError(t, p.Load())
	assert.ErrorIs(t, p.Load(), ErrAlreadyLoaded)
}

func TestMutationsAfterLoadAreIgnored(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	p, _, _ := newTestProgram(t)
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: vertexSource})
	require.NoError(t, p.Load())

	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStagePixel, Source: pixelSource})
	p.SetAlias("X", "y")
	p.SetDefine(gpu.ShaderStageVertex, "X", "1")

	assert.Equal(t, 1, logs.FilterMessage("shader attached after load, ignoring").Len())
	assert.Equal(t, 1, logs.FilterMessage("alias set after load, ignoring").Len())
	assert.Equal(t, 1, logs.FilterMessage("define set after load, ignoring").Len())
}

func loadedProgram(t *testing.T) (Program, *gputest.Recorder, *gpu.Context) {
	t.Helper()
	p, rec, ctx := newTestProgram(t)
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStageVertex, Source: vertexSource})
	p.AttachShader(ShaderInfo{Stage: gpu.ShaderStagePixel, Source: pixelSource})
	require.NoError(t, p.Load())
	return p, rec, ctx
}

func TestIndexWarnsOncePerName(t *testing.T) {
	logs := observeLogs(t, zapcore.WarnLevel)
	p, rec, _ := loadedProgram(t)

	assert.Equal(t, int32(-1), p.Index("OXY_missing"))
	assert.Equal(t, int32(-1), p.Index("OXY_missing"))
	assert.Equal(t, int32(-1), p.Index("OXY_other"))
	assert.GreaterOrEqual(t, p.Index("OXY_view_matrix"), int32(0))

	assert.Equal(t, 2, logs.FilterMessage("uniform not found in program").Len())
	assert.Equal(t, 3, rec.Count("UniformLocation"), "locations are cached")
}

func TestUniformSettersRequireCurrentProgram(t *testing.T) {
	logs := observeLogs(t, zapcore.ErrorLevel)
	p, rec, _ := loadedProgram(t)

	p.SetFloat("OXY_alpha", 0.5)
	assert.Equal(t, 0, rec.Count("Uniform1f"))
	assert.Equal(t, 1, logs.Len())

	p.Use()
	p.SetFloat("OXY_alpha", 0.5)
	p.SetBool("OXY_technique", true)
	view := mgl32.Translate3D(1, 2, 3)
	p.SetMatrix4("OXY_view_matrix", view)
	p.SetVec3("OXY_missing", mgl32.Vec3{1, 1, 1})

	v, ok := rec.UniformValue(p.Handle(), "OXY_alpha")
	require.True(t, ok)
	assert.Equal(t, float32(0.5), v)
	v, _ = rec.UniformValue(p.Handle(), "OXY_technique")
	assert.Equal(t, int32(1), v)
	v, _ = rec.UniformValue(p.Handle(), "OXY_view_matrix")
	assert.Equal(t, view, v)
	assert.Equal(t, 0, rec.Count("Uniform3f"), "unresolved uniforms are skipped")
}

func TestUseSkipsRedundantBinds(t *testing.T) {
	p, rec, _ := loadedProgram(t)
	p.Use()
	p.Use()
	assert.Equal(t, 1, rec.Count("UseProgram"))
	assert.True(t, p.Verify())
}

func TestSetInterfaceInstance(t *testing.T) {
	p, rec, _ := loadedProgram(t)
	p.Use()

	assert.True(t, p.SetInterfaceInstance(TechniqueUniform, TechniqueParticle.String(), gpu.ShaderStagePixel))
	v, _ := rec.UniformValue(p.Handle(), TechniqueUniform)
	assert.Equal(t, int32(TechniqueParticle), v)

	assert.True(t, p.SetInterfaceInstance(TechniqueUniform, FilterBlur.String(), gpu.ShaderStagePixel))
	v, _ = rec.UniformValue(p.Handle(), TechniqueUniform)
	assert.Equal(t, int32(FilterBlur), v)

	observeLogs(t, zapcore.ErrorLevel)
	assert.True(t, p.SetInterfaceInstance(TechniqueUniform, "OXY_Nope", gpu.ShaderStagePixel))
	v, _ = rec.UniformValue(p.Handle(), TechniqueUniform)
	assert.Equal(t, int32(TechniqueModel2D), v)
	assert.Equal(t, 1, rec.Count("UniformLocation"), "selector location resolved once")
}

func TestRelease(t *testing.T) {
	p, rec, ctx := loadedProgram(t)
	p.Use()
	p.Release()
	assert.Zero(t, p.Handle())
	assert.Zero(t, ctx.CurrentProgram())
	assert.Equal(t, 0, rec.Live("program"))
	p.Release()
	assert.Equal(t, 1, rec.Count("DeleteProgram"))
}
