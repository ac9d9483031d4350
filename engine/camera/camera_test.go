package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestViewMatrix(t *testing.T) {
	c := NewCamera(WithPosition(0, 0, 5))
	p := c.ViewMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -5.0, p.Z(), 1e-5)

	c.SetPosition(0, 0, 2)
	p = c.ViewMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -2.0, p.Z(), 1e-5)
}

func TestProjectionMatrix(t *testing.T) {
	c := NewCamera(WithAspect(2), WithClip(1, 10))
	assert.Equal(t, mgl32.Perspective(c.Fov(), 2, 1, 10), c.ProjectionMatrix())

	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())

	c.SetAspect(1.5)
	assert.Equal(t, mgl32.Perspective(c.Fov(), 1.5, 1, 10), c.ProjectionMatrix())
}
