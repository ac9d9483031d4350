package renders

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gl/engine/model"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `uniform int OXY_technique;
uniform mat4 OXY_model_matrix;
uniform Material OXY_material;`

func loadProgram(t *testing.T, rec *gputest.Recorder) shader.Program {
	t.Helper()
	p := shader.NewProgram(gpu.NewContext(rec))
	p.AttachShader(shader.ShaderInfo{Stage: gpu.ShaderStageVertex, Source: testSource})
	require.NoError(t, p.Load())
	p.Use()
	return p
}

func TestModel3DRender(t *testing.T) {
	rec := gputest.NewRecorder()
	p := loadProgram(t, rec)

	mesh := gpu.Mesh{VertexArray: 42, Count: 3}
	mat := material.NewMaterial(material.WithKs(mgl32.Vec3{1, 1, 1}))
	obj := game_object.NewGameObject(game_object.KindStatic,
		game_object.WithModel(model.NewModel(model.WithMesh(mesh), model.WithMaterial(mat))),
		game_object.WithPosition(1, 0, 0))

	reg := Defaults(rec)
	reg[game_object.KindStatic].Draw(p, obj)

	v, ok := rec.UniformValue(p.Handle(), shader.TechniqueUniform)
	require.True(t, ok)
	assert.Equal(t, int32(shader.TechniqueModel3D), v)
	v, _ = rec.UniformValue(p.Handle(), ModelMatrixUniform)
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), v)
	v, _ = rec.UniformValue(p.Handle(), material.KsUniform)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, v)

	draws := rec.CallsNamed("DrawMesh")
	require.Len(t, draws, 1)
	assert.Equal(t, []any{gpu.Handle(42)}, draws[0].Args)
}

func TestParticleRenderSkipsMaterial(t *testing.T) {
	rec := gputest.NewRecorder()
	p := loadProgram(t, rec)

	obj := game_object.NewGameObject(game_object.KindParticles,
		game_object.WithModel(model.NewModel(model.WithMesh(gpu.Mesh{VertexArray: 7}))))
	NewParticleRender(rec).Draw(p, obj)

	v, _ := rec.UniformValue(p.Handle(), shader.TechniqueUniform)
	assert.Equal(t, int32(shader.TechniqueParticle), v)
	_, ok := rec.UniformValue(p.Handle(), material.KdUniform)
	assert.False(t, ok)
	assert.Equal(t, 1, rec.Count("DrawMesh"))
}

func TestRenderWithoutMesh(t *testing.T) {
	rec := gputest.NewRecorder()
	p := loadProgram(t, rec)

	NewModel3DRender(rec).Draw(p, game_object.NewGameObject(game_object.KindStatic))
	assert.Equal(t, 0, rec.Count("DrawMesh"))
	assert.NotContains(t, Defaults(rec), game_object.KindCustom)
}
