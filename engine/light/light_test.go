package light

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestUniformNames(t *testing.T) {
	assert.Equal(t, "OXY_ambient_lights[0].lightColor", UniformName(LightTypeAmbient, 0, ColorField))
	assert.Equal(t, "OXY_speculars[9].lightPosition", UniformName(LightTypeSpecular, 9, PositionField))
	assert.Equal(t, "OXY_ambients_count", CountUniform(LightTypeAmbient))
	assert.Equal(t, "OXY_speculars_count", CountUniform(LightTypeSpecular))
}

func TestMax(t *testing.T) {
	assert.Equal(t, 5, Max(LightTypeAmbient))
	assert.Equal(t, 10, Max(LightTypeSpecular))
	assert.Equal(t, 0, Max(LightTypeCount))
}

func TestNewLight(t *testing.T) {
	l := NewLight(LightTypeSpecular, WithPosition(1, 2, 3), WithColor(1, 0.5, 0), WithIntensity(2))
	assert.Equal(t, LightTypeSpecular, l.Type())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, l.Position())
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, l.Radiance())
	assert.True(t, l.Enabled())

	l.SetEnabled(false)
	assert.False(t, l.Enabled())
	assert.Equal(t, "specular", l.Type().String())
}

func TestWithIntensityClampsNegative(t *testing.T) {
	l := NewLight(LightTypeAmbient, WithIntensity(-3), WithEnabled(false))
	assert.Zero(t, l.Intensity())
	assert.Equal(t, mgl32.Vec3{}, l.Radiance())
	assert.False(t, l.Enabled())
}
