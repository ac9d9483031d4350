// technique.go holds the integer IDs written to the technique selector uniform. The shading code
// switches on the same numbers, so every value here is mirrored in the GLSL sources; changing one
// side without the other silently selects the wrong code path.
package shader

import "strings"

// TechniqueUniform is the selector uniform that receives a Technique or Filter ID.
const TechniqueUniform = "OXY_technique"

// Technique selects the shading path for a kind of model.
type Technique int32

const (
	TechniqueModel2D Technique = iota
	TechniqueModel3D
	TechniqueText
	TechniqueCubeMap
	TechniqueParticle
	TechniqueSprite
	TechniqueSky
	TechniqueCustom

	// TechniqueShadow must stay 8; the GLSL shadow branch is keyed on it.
	TechniqueShadow
)

var techniqueNames = map[Technique]string{
	TechniqueModel2D:  "OXY_Model2D",
	TechniqueModel3D:  "OXY_Model3D",
	TechniqueText:     "OXY_Text",
	TechniqueCubeMap:  "OXY_CubeMap",
	TechniqueParticle: "OXY_Particle",
	TechniqueSprite:   "OXY_Sprite",
	TechniqueSky:      "OXY_Sky",
	TechniqueCustom:   "OXY_Custom",
	TechniqueShadow:   "OXY_Shadow",
}

// String returns the instance name used in shader sources, e.g. "OXY_Model3D".
func (t Technique) String() string {
	if name, ok := techniqueNames[t]; ok {
		return name
	}
	return "OXY_Unknown"
}

// Filter selects the post-process kernel applied by the effects shader.
type Filter int32

const (
	FilterDefault Filter = iota
	FilterInversion
	FilterSharpen
	FilterBlur
	FilterGrayscale
	FilterEdgeDetect

	filterCount
)

var filterNames = [filterCount]string{
	"OXY_DefaultFilter",
	"OXY_InversionFilter",
	"OXY_SharpenFilter",
	"OXY_BlurFilter",
	"OXY_GrayscaleFilter",
	"OXY_EdgeDetectFilter",
}

// String returns the instance name used in shader sources, e.g. "OXY_BlurFilter".
func (f Filter) String() string {
	if f < 0 || f >= filterCount {
		return "OXY_UnknownFilter"
	}
	return filterNames[f]
}

// Next returns the filter after f, wrapping to FilterDefault after the last one.
func (f Filter) Next() Filter {
	if f < 0 || f >= filterCount-1 {
		return FilterDefault
	}
	return f + 1
}

// ParseFilter resolves a filter by instance name or by case-insensitive short name ("blur", "edgeDetect").
//
// Parameters:
//   - name: the filter name
//
// Returns:
//   - Filter: the filter
//   - bool: false if name is unknown
func ParseFilter(name string) (Filter, bool) {
	for i, n := range filterNames {
		if n == name || strings.EqualFold(n, "OXY_"+name+"Filter") {
			return Filter(i), true
		}
	}
	return FilterDefault, false
}

// TechniqueID maps an instance name to the selector value. Model techniques are checked first,
// then filters.
//
// Parameters:
//   - instanceName: a Technique or Filter name, e.g. "OXY_Particle" or "OXY_GrayscaleFilter"
//
// Returns:
//   - int32: the selector value
//   - bool: false if the name is unknown
func TechniqueID(instanceName string) (int32, bool) {
	for t, name := range techniqueNames {
		if name == instanceName {
			return int32(t), true
		}
	}
	for i, name := range filterNames {
		if name == instanceName {
			return int32(i), true
		}
	}
	return 0, false
}
