package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTechniqueIDsMatchShaderEnumeration(t *testing.T) {
	assert.Equal(t, Technique(8), TechniqueShadow)

	for name, want := range map[string]int32{
		"OXY_Model2D":          0,
		"OXY_Model3D":          1,
		"OXY_Text":             2,
		"OXY_CubeMap":          3,
		"OXY_Particle":         4,
		"OXY_Sprite":           5,
		"OXY_Sky":              6,
		"OXY_Custom":           7,
		"OXY_Shadow":           8,
		"OXY_DefaultFilter":    0,
		"OXY_InversionFilter":  1,
		"OXY_SharpenFilter":    2,
		"OXY_BlurFilter":       3,
		"OXY_GrayscaleFilter":  4,
		"OXY_EdgeDetectFilter": 5,
	} {
		got, ok := TechniqueID(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := TechniqueID("OXY_Unknown")
	assert.False(t, ok)
}

func TestParseFilter(t *testing.T) {
	f, ok := ParseFilter("edgedetect")
	assert.True(t, ok)
	assert.Equal(t, FilterEdgeDetect, f)

	f, ok = ParseFilter("OXY_GrayscaleFilter")
	assert.True(t, ok)
	assert.Equal(t, FilterGrayscale, f)

	_, ok = ParseFilter("sepia")
	assert.False(t, ok)
	assert.Equal(t, "OXY_UnknownFilter", Filter(42).String())
}

func TestFilterNext(t *testing.T) {
	assert.Equal(t, FilterInversion, FilterDefault.Next())
	assert.Equal(t, FilterEdgeDetect, FilterGrayscale.Next())
	assert.Equal(t, FilterDefault, FilterEdgeDetect.Next())
	assert.Equal(t, FilterDefault, Filter(-3).Next())
}
