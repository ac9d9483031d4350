package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	rec := gputest.NewRecorder()
	desc := gpu.MeshDesc{
		Vertices: []float32{
			0, 0, 0, 0, 0, 1, 0, 0,
			3, 4, 0, 0, 0, 1, 1, 0,
			0, 1, 0, 0, 0, 1, 0, 1,
		},
		Indices: []uint32{0, 1, 2},
	}

	m, err := Upload(rec, desc, WithName("tri"))
	require.NoError(t, err)
	assert.Equal(t, "tri", m.Name())
	assert.Equal(t, int32(3), m.Mesh().Count)
	assert.True(t, m.Mesh().Indexed())
	assert.InDelta(t, 5.0, m.BoundingRadius(), 1e-6)
	assert.NotNil(t, m.Material())
	assert.Equal(t, 1, rec.Live("mesh"))

	m.Release(rec)
	m.Release(rec)
	assert.Equal(t, 0, rec.Live("mesh"))
	assert.Equal(t, 1, rec.Count("DeleteMesh"))
}

func TestSetMaterialNil(t *testing.T) {
	mat := material.NewMaterial(material.WithName("stone"))
	m := NewModel(WithMaterial(mat))
	assert.Equal(t, "stone", m.Material().Name())

	m.SetMaterial(nil)
	require.NotNil(t, m.Material())
	assert.Equal(t, "", m.Material().Name())
}
