package gpu_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
)

func TestContextSkipsRedundantBinds(t *testing.T) {
	rec := gputest.NewRecorder()
	ctx := gpu.NewContext(rec)

	ctx.UseProgram(3)
	ctx.UseProgram(3)
	ctx.UseProgram(4)

	assert.Equal(t, 2, rec.Count("UseProgram"))
	assert.True(t, ctx.IsCurrent(4))
	assert.False(t, ctx.IsCurrent(3))
}

func TestContextForget(t *testing.T) {
	ctx := gpu.NewContext(gputest.NewRecorder())
	ctx.UseProgram(7)
	ctx.Forget(8)
	assert.Equal(t, gpu.Handle(7), ctx.CurrentProgram())
	ctx.Forget(7)
	assert.Equal(t, gpu.Handle(0), ctx.CurrentProgram())
	assert.False(t, ctx.IsCurrent(0))
}

func TestNewQuadIsTriangleStrip(t *testing.T) {
	rec := gputest.NewRecorder()
	q, err := gpu.NewQuad(rec)
	assert.NoError(t, err)
	assert.Equal(t, gpu.PrimitiveTriangleStrip, q.Primitive)
	assert.False(t, q.Indexed())
}
