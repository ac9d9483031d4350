package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	rec := gputest.NewRecorder()
	p := shader.NewProgram(gpu.NewContext(rec))
	p.AttachShader(shader.ShaderInfo{
		Stage:  gpu.ShaderStagePixel,
		Source: "uniform Material OXY_material;\nuniform sampler2D OXY_texture_diffuse;\nuniform bool OXY_texture_diffuse_enabled;\nuniform bool OXY_texture_ambient_enabled;",
	})
	require.NoError(t, p.Load())
	p.Use()

	m := NewMaterial(WithName("brick"), WithKd(mgl32.Vec3{0.5, 0.4, 0.3}), WithTexture(TextureDiffuse, 77))
	m.Apply(rec, p)

	v, _ := rec.UniformValue(p.Handle(), KdUniform)
	assert.Equal(t, mgl32.Vec3{0.5, 0.4, 0.3}, v)
	v, _ = rec.UniformValue(p.Handle(), "OXY_texture_diffuse")
	assert.Equal(t, int32(TextureDiffuse), v)
	v, _ = rec.UniformValue(p.Handle(), "OXY_texture_diffuse_enabled")
	assert.Equal(t, int32(1), v)
	v, _ = rec.UniformValue(p.Handle(), "OXY_texture_ambient_enabled")
	assert.Equal(t, int32(0), v)

	binds := rec.CallsNamed("BindTexture")
	require.Len(t, binds, 1)
	assert.Equal(t, []any{int(TextureDiffuse), gpu.Handle(77)}, binds[0].Args)
}

func TestSetTexture(t *testing.T) {
	m := NewMaterial()
	m.SetTexture(TextureNormalMap, 5)
	assert.Equal(t, gpu.Handle(5), m.Texture(TextureNormalMap))
	m.SetTexture(TextureSlot(9), 5)
	assert.Equal(t, gpu.Handle(0), m.Texture(TextureSlot(9)))
	assert.Equal(t, float32(16), m.Shininess())
}
